package service

import (
	"errors"
	"fmt"

	"github.com/richardliu001/ticket-service/internal/domain"
	"github.com/richardliu001/ticket-service/internal/repo"
)

// ErrInternal wraps infrastructure failures. The cause stays reachable through errors.Is.
var ErrInternal = errors.New("internal error")

var businessErrors = []error{
	domain.ErrNotFound,
	domain.ErrDuplicateReservation,
	domain.ErrCapacityExceeded,
	domain.ErrInvalidTicketState,
	domain.ErrValidation,
	domain.ErrAlreadyRegistered,
	repo.ErrConcurrentUpdate,
}

// classify passes business errors through untouched and marks everything else internal.
func classify(err error) error {
	if err == nil {
		return nil
	}
	for _, b := range businessErrors {
		if errors.Is(err, b) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", ErrInternal, err)
}

// Notifier is told when new outbox rows have been committed.
type Notifier interface {
	Notify()
}

type noopNotifier struct{}

func (noopNotifier) Notify() {}
