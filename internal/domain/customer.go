package domain

// Customer buys tickets. Identity fields are validated on construction.
type Customer struct {
	ID    CustomerID
	Name  Name
	Cpf   Cpf
	Email Email
}

// NewCustomer validates the raw input and assigns a fresh id.
func NewCustomer(name, cpf, email string) (*Customer, error) {
	return RestoreCustomer(string(NewCustomerID()), name, cpf, email)
}

// RestoreCustomer rebuilds a customer read from storage.
func RestoreCustomer(id, name, cpf, email string) (*Customer, error) {
	cid, err := ParseCustomerID(id)
	if err != nil {
		return nil, err
	}
	n, err := NewName(name)
	if err != nil {
		return nil, err
	}
	c, err := NewCpf(cpf)
	if err != nil {
		return nil, err
	}
	e, err := NewEmail(email)
	if err != nil {
		return nil, err
	}
	return &Customer{ID: cid, Name: n, Cpf: c, Email: e}, nil
}
