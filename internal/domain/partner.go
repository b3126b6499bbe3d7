package domain

// Partner organises events.
type Partner struct {
	ID    PartnerID
	Name  Name
	Cnpj  Cnpj
	Email Email
}

func NewPartner(name, cnpj, email string) (*Partner, error) {
	return RestorePartner(string(NewPartnerID()), name, cnpj, email)
}

func RestorePartner(id, name, cnpj, email string) (*Partner, error) {
	pid, err := ParsePartnerID(id)
	if err != nil {
		return nil, err
	}
	n, err := NewName(name)
	if err != nil {
		return nil, err
	}
	c, err := NewCnpj(cnpj)
	if err != nil {
		return nil, err
	}
	e, err := NewEmail(email)
	if err != nil {
		return nil, err
	}
	return &Partner{ID: pid, Name: n, Cnpj: c, Email: e}, nil
}
