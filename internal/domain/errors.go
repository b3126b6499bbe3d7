package domain

import (
	"errors"
	"fmt"
)

// Business failures. They travel to the use-case boundary unchanged.
var (
	ErrNotFound             = errors.New("not found")
	ErrDuplicateReservation = errors.New("customer already holds a ticket for this event")
	ErrCapacityExceeded     = errors.New("event sold out")
	ErrInvalidTicketState   = errors.New("invalid ticket state")
	ErrValidation           = errors.New("validation")
	ErrAlreadyRegistered    = errors.New("already registered")

	ErrEventNotFound    = fmt.Errorf("event %w", ErrNotFound)
	ErrCustomerNotFound = fmt.Errorf("customer %w", ErrNotFound)
	ErrPartnerNotFound  = fmt.Errorf("partner %w", ErrNotFound)
	ErrTicketNotFound   = fmt.Errorf("ticket %w", ErrNotFound)
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
