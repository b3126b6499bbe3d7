package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// EventTicket is the aggregate-local record of one reservation.
type EventTicket struct {
	TicketID   TicketID
	EventID    EventID
	CustomerID CustomerID
	Ordinal    int
}

// Event owns capacity accounting for one ticketed event and is the only authority
// on whether a customer can get a ticket. Reservations are private; reads get a copy.
type Event struct {
	id         EventID
	name       Name
	date       time.Time
	totalSpots int
	partnerID  PartnerID
	price      decimal.Decimal
	tickets    []EventTicket
	version    uint64
}

// NewEvent validates the input and creates an event with no reservations.
func NewEvent(name, date string, totalSpots int, price decimal.Decimal, partnerID PartnerID) (*Event, error) {
	return RestoreEvent(string(NewEventID()), name, date, totalSpots, price, string(partnerID), nil, 0)
}

// RestoreEvent rebuilds an event from storage. version is the storage version the
// event was read at and is used for the optimistic check on save.
func RestoreEvent(
	id, name, date string,
	totalSpots int,
	price decimal.Decimal,
	partnerID string,
	tickets []EventTicket,
	version uint64,
) (*Event, error) {
	eid, err := ParseEventID(id)
	if err != nil {
		return nil, err
	}
	n, err := NewName(name)
	if err != nil {
		return nil, err
	}
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return nil, invalid("invalid date for Event")
	}
	if totalSpots < 0 {
		return nil, invalid("invalid totalSpots for Event")
	}
	if price.IsNegative() {
		return nil, invalid("invalid price for Event")
	}
	pid, err := ParsePartnerID(partnerID)
	if err != nil {
		return nil, err
	}
	if len(tickets) > totalSpots {
		return nil, invalid("event %s holds %d tickets for %d spots", id, len(tickets), totalSpots)
	}

	owned := make([]EventTicket, len(tickets))
	copy(owned, tickets)

	return &Event{
		id:         eid,
		name:       n,
		date:       d,
		totalSpots: totalSpots,
		partnerID:  pid,
		price:      price,
		tickets:    owned,
		version:    version,
	}, nil
}

// ReserveTicket allocates a pending ticket for customerID. The duplicate check runs
// before the capacity check. Nothing is persisted here: the caller must save the
// event, the ticket and the returned facts in one transaction.
func (e *Event) ReserveTicket(customerID CustomerID, now time.Time) (*Ticket, []DomainEvent, error) {
	for _, t := range e.tickets {
		if t.CustomerID == customerID {
			return nil, nil, ErrDuplicateReservation
		}
	}
	if len(e.tickets)+1 > e.totalSpots {
		return nil, nil, ErrCapacityExceeded
	}

	ticket := newTicket(e.id, customerID, e.price, now)
	reservation := EventTicket{
		TicketID:   ticket.ID(),
		EventID:    e.id,
		CustomerID: customerID,
		Ordinal:    len(e.tickets) + 1,
	}
	e.tickets = append(e.tickets, reservation)

	fact := newDomainEvent(KindTicketReserved, string(e.id), now, TicketReserved{
		TicketID:   ticket.ID(),
		EventID:    e.id,
		CustomerID: customerID,
		Ordinal:    reservation.Ordinal,
		Price:      e.price,
		ReservedAt: now,
	})
	return ticket, []DomainEvent{fact}, nil
}

func (e *Event) ID() EventID { return e.id }
func (e *Event) Name() Name { return e.name }
func (e *Event) PartnerID() PartnerID { return e.partnerID }
func (e *Event) TotalSpots() int { return e.totalSpots }
func (e *Event) Price() decimal.Decimal { return e.price }
func (e *Event) Version() uint64 { return e.version }

// Date returns the calendar date of the event.
func (e *Event) Date() time.Time { return e.date }

// DateString formats Date as YYYY-MM-DD.
func (e *Event) DateString() string { return e.date.Format(dateLayout) }

// Tickets returns a copy of the reservation set in ordinal order.
func (e *Event) Tickets() []EventTicket {
	out := make([]EventTicket, len(e.tickets))
	copy(out, e.tickets)
	return out
}

// Available is the number of spots still open.
func (e *Event) Available() int {
	return e.totalSpots - len(e.tickets)
}
