package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TicketStatus string

const (
	TicketStatusPending TicketStatus = "pending"
	TicketStatusPaid    TicketStatus = "paid"
)

// Ticket is one reservation. It is created by Event.ReserveTicket and lives on its
// own afterwards; the only transition is pending -> paid.
type Ticket struct {
	id         TicketID
	eventID    EventID
	customerID CustomerID
	status     TicketStatus
	price      decimal.Decimal
	reservedAt time.Time
	paidAt     *time.Time
}

func newTicket(eventID EventID, customerID CustomerID, price decimal.Decimal, now time.Time) *Ticket {
	return &Ticket{
		id:         NewTicketID(),
		eventID:    eventID,
		customerID: customerID,
		status:     TicketStatusPending,
		price:      price,
		reservedAt: now,
	}
}

// RestoreTicket rebuilds a ticket read from storage and rejects inconsistent rows.
func RestoreTicket(
	id, eventID, customerID string,
	status TicketStatus,
	price decimal.Decimal,
	reservedAt time.Time,
	paidAt *time.Time,
) (*Ticket, error) {
	tid, err := ParseTicketID(id)
	if err != nil {
		return nil, err
	}
	eid, err := ParseEventID(eventID)
	if err != nil {
		return nil, err
	}
	cid, err := ParseCustomerID(customerID)
	if err != nil {
		return nil, err
	}
	switch status {
	case TicketStatusPending:
		if paidAt != nil {
			return nil, invalid("pending ticket %s has paidAt", id)
		}
	case TicketStatusPaid:
		if paidAt == nil {
			return nil, invalid("paid ticket %s has no paidAt", id)
		}
	default:
		return nil, invalid("invalid status for Ticket")
	}
	if reservedAt.IsZero() {
		return nil, invalid("invalid reservedAt for Ticket")
	}
	return &Ticket{
		id:         tid,
		eventID:    eid,
		customerID: cid,
		status:     status,
		price:      price,
		reservedAt: reservedAt,
		paidAt:     paidAt,
	}, nil
}

// Pay confirms payment. A ticket can be paid once.
func (t *Ticket) Pay(now time.Time) ([]DomainEvent, error) {
	if t.status != TicketStatusPending {
		return nil, ErrInvalidTicketState
	}
	t.status = TicketStatusPaid
	t.paidAt = &now

	fact := newDomainEvent(KindTicketPaid, string(t.id), now, TicketPaid{
		TicketID:   t.id,
		EventID:    t.eventID,
		CustomerID: t.customerID,
		Amount:     t.price,
		PaidAt:     now,
	})
	return []DomainEvent{fact}, nil
}

func (t *Ticket) ID() TicketID { return t.id }
func (t *Ticket) EventID() EventID { return t.eventID }
func (t *Ticket) CustomerID() CustomerID { return t.customerID }
func (t *Ticket) Status() TicketStatus { return t.status }
func (t *Ticket) Price() decimal.Decimal { return t.price }
func (t *Ticket) ReservedAt() time.Time { return t.reservedAt }

// PaidAt is nil until the ticket is paid.
func (t *Ticket) PaidAt() *time.Time {
	if t.paidAt == nil {
		return nil
	}
	p := *t.paidAt
	return &p
}
