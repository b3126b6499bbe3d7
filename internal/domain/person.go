package domain

import (
	"regexp"
	"strings"
)

var (
	cpfPattern   = regexp.MustCompile(`^\d{3}\.\d{3}\.\d{3}-\d{2}$`)
	cnpjPattern  = regexp.MustCompile(`^\d{2}\.\d{3}\.\d{3}/\d{4}-\d{2}$`)
	emailPattern = regexp.MustCompile(`^[\w.+-]+@([\w-]+\.)+[\w-]{2,}$`)
)

// Name is a trimmed, non-empty display name.
type Name string

func NewName(raw string) (Name, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return "", invalid("invalid value for Name")
	}
	return Name(v), nil
}

// Email is stored lower-cased.
type Email string

func NewEmail(raw string) (Email, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if !emailPattern.MatchString(v) {
		return "", invalid("invalid value for Email")
	}
	return Email(v), nil
}

// Cpf is an individual tax id in the punctuated 000.000.000-00 form.
type Cpf string

func NewCpf(raw string) (Cpf, error) {
	v := strings.TrimSpace(raw)
	if !cpfPattern.MatchString(v) {
		return "", invalid("invalid value for CPF")
	}
	return Cpf(v), nil
}

// Cnpj is a company tax id in the punctuated 00.000.000/0000-00 form.
type Cnpj string

func NewCnpj(raw string) (Cnpj, error) {
	v := strings.TrimSpace(raw)
	if !cnpjPattern.MatchString(v) {
		return "", invalid("invalid value for CNPJ")
	}
	return Cnpj(v), nil
}
