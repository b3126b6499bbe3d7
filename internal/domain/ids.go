package domain

import "github.com/google/uuid"

type (
	EventID    string
	CustomerID string
	PartnerID  string
	TicketID   string
)

func NewEventID() EventID { return EventID(uuid.NewString()) }
func NewCustomerID() CustomerID { return CustomerID(uuid.NewString()) }
func NewPartnerID() PartnerID { return PartnerID(uuid.NewString()) }
func NewTicketID() TicketID { return TicketID(uuid.NewString()) }

// ParseEventID validates raw as a uuid and returns it in canonical form.
func ParseEventID(raw string) (EventID, error) {
	id, err := parseUUID(raw, "eventId")
	return EventID(id), err
}

func ParseCustomerID(raw string) (CustomerID, error) {
	id, err := parseUUID(raw, "customerId")
	return CustomerID(id), err
}

func ParsePartnerID(raw string) (PartnerID, error) {
	id, err := parseUUID(raw, "partnerId")
	return PartnerID(id), err
}

func ParseTicketID(raw string) (TicketID, error) {
	id, err := parseUUID(raw, "ticketId")
	return TicketID(id), err
}

func parseUUID(raw, field string) (string, error) {
	u, err := uuid.Parse(raw)
	if err != nil {
		return "", invalid("invalid value for %s", field)
	}
	return u.String(), nil
}
