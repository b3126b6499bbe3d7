package model

import (
	"time"

	"github.com/richardliu001/ticket-service/internal/domain"
	"github.com/shopspring/decimal"
)

type Event struct {
	ID          string          `gorm:"primaryKey;size:36"`
	Name        string          `gorm:"size:255;not null"`
	Date        string          `gorm:"size:10;not null"`
	TotalSpots  int             `gorm:"not null"`
	PartnerID   string          `gorm:"size:36;not null;index"`
	TicketPrice decimal.Decimal `gorm:"type:numeric(20,2);not null;default:'0'"`
	Version     uint64          `gorm:"not null;default:0"`
	CreatedAt   time.Time       `gorm:"autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime"`
}

func (Event) TableName() string { return "events" }

// EventTicket is one reservation row. The unique index on (event_id, customer_id)
// backs the one-ticket-per-customer rule at the storage layer.
type EventTicket struct {
	TicketID   string    `gorm:"primaryKey;size:36"`
	EventID    string    `gorm:"size:36;not null;uniqueIndex:ux_event_ticket_customer,priority:1"`
	CustomerID string    `gorm:"size:36;not null;uniqueIndex:ux_event_ticket_customer,priority:2"`
	Ordinal    int       `gorm:"not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

func (EventTicket) TableName() string { return "event_tickets" }

func NewEvent(ev *domain.Event) Event {
	return Event{
		ID:          string(ev.ID()),
		Name:        string(ev.Name()),
		Date:        ev.DateString(),
		TotalSpots:  ev.TotalSpots(),
		PartnerID:   string(ev.PartnerID()),
		TicketPrice: ev.Price(),
		Version:     ev.Version(),
	}
}

func NewEventTickets(ev *domain.Event) []EventTicket {
	tickets := ev.Tickets()
	rows := make([]EventTicket, 0, len(tickets))
	for _, t := range tickets {
		rows = append(rows, EventTicket{
			TicketID:   string(t.TicketID),
			EventID:    string(t.EventID),
			CustomerID: string(t.CustomerID),
			Ordinal:    t.Ordinal,
		})
	}
	return rows
}

// ToDomain rebuilds the aggregate. rows must be ordered by ordinal.
func (e Event) ToDomain(rows []EventTicket) (*domain.Event, error) {
	tickets := make([]domain.EventTicket, 0, len(rows))
	for _, r := range rows {
		tickets = append(tickets, domain.EventTicket{
			TicketID:   domain.TicketID(r.TicketID),
			EventID:    domain.EventID(r.EventID),
			CustomerID: domain.CustomerID(r.CustomerID),
			Ordinal:    r.Ordinal,
		})
	}
	return domain.RestoreEvent(e.ID, e.Name, e.Date, e.TotalSpots, e.TicketPrice, e.PartnerID, tickets, e.Version)
}
