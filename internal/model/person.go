package model

import (
	"time"

	"github.com/richardliu001/ticket-service/internal/domain"
)

type Customer struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Name      string    `gorm:"size:255;not null"`
	Cpf       string    `gorm:"size:14;not null;uniqueIndex"`
	Email     string    `gorm:"size:255;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Customer) TableName() string { return "customers" }

func NewCustomer(c *domain.Customer) Customer {
	return Customer{ID: string(c.ID), Name: string(c.Name), Cpf: string(c.Cpf), Email: string(c.Email)}
}

func (c Customer) ToDomain() (*domain.Customer, error) {
	return domain.RestoreCustomer(c.ID, c.Name, c.Cpf, c.Email)
}

type Partner struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Name      string    `gorm:"size:255;not null"`
	Cnpj      string    `gorm:"size:18;not null;uniqueIndex"`
	Email     string    `gorm:"size:255;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Partner) TableName() string { return "partners" }

func NewPartner(p *domain.Partner) Partner {
	return Partner{ID: string(p.ID), Name: string(p.Name), Cnpj: string(p.Cnpj), Email: string(p.Email)}
}

func (p Partner) ToDomain() (*domain.Partner, error) {
	return domain.RestorePartner(p.ID, p.Name, p.Cnpj, p.Email)
}

// All lists every table for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&Customer{},
		&Partner{},
		&Event{},
		&EventTicket{},
		&Ticket{},
		&OutboxEvent{},
	}
}
