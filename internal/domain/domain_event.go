package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind names a fact. It is the discriminator downstream consumers switch on.
type Kind string

const (
	KindTicketReserved Kind = "TicketReserved"
	KindTicketPaid     Kind = "TicketPaid"
)

// DomainEvent is an immutable fact produced by an aggregate operation. Its ID is
// independent from the aggregate id so consumers can deduplicate redeliveries.
type DomainEvent struct {
	ID          string
	Kind        Kind
	AggregateID string
	OccurredAt  time.Time
	Data        any
}

func newDomainEvent(kind Kind, aggregateID string, at time.Time, data any) DomainEvent {
	return DomainEvent{
		ID:          uuid.NewString(),
		Kind:        kind,
		AggregateID: aggregateID,
		OccurredAt:  at,
		Data:        data,
	}
}

type TicketReserved struct {
	TicketID   TicketID        `json:"ticketId"`
	EventID    EventID         `json:"eventId"`
	CustomerID CustomerID      `json:"customerId"`
	Ordinal    int             `json:"ordinal"`
	Price      decimal.Decimal `json:"price"`
	ReservedAt time.Time       `json:"reservedAt"`
}

type TicketPaid struct {
	TicketID   TicketID        `json:"ticketId"`
	EventID    EventID         `json:"eventId"`
	CustomerID CustomerID      `json:"customerId"`
	Amount     decimal.Decimal `json:"amount"`
	PaidAt     time.Time       `json:"paidAt"`
}
