package model

import (
	"time"

	"github.com/richardliu001/ticket-service/internal/domain"
	"github.com/shopspring/decimal"
)

type Ticket struct {
	ID         string          `gorm:"primaryKey;size:36"`
	EventID    string          `gorm:"size:36;not null;index"`
	CustomerID string          `gorm:"size:36;not null;index"`
	Status     string          `gorm:"size:16;not null"`
	Price      decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	ReservedAt time.Time       `gorm:"not null"`
	PaidAt     *time.Time
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

func (Ticket) TableName() string { return "tickets" }

func NewTicket(t *domain.Ticket) Ticket {
	return Ticket{
		ID:         string(t.ID()),
		EventID:    string(t.EventID()),
		CustomerID: string(t.CustomerID()),
		Status:     string(t.Status()),
		Price:      t.Price(),
		ReservedAt: t.ReservedAt(),
		PaidAt:     t.PaidAt(),
	}
}

func (t Ticket) ToDomain() (*domain.Ticket, error) {
	return domain.RestoreTicket(t.ID, t.EventID, t.CustomerID, domain.TicketStatus(t.Status), t.Price, t.ReservedAt, t.PaidAt)
}
