package service

import (
	"context"
	"errors"
	"time"

	"github.com/richardliu001/ticket-service/internal/clock"
	"github.com/richardliu001/ticket-service/internal/domain"
	"github.com/richardliu001/ticket-service/internal/repo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReservationOutput is what a successful reservation reports back.
type ReservationOutput struct {
	EventID      domain.EventID
	TicketID     domain.TicketID
	TicketStatus domain.TicketStatus
	ReservedAt   time.Time
}

// TicketService reserves and pays tickets. Each state change is stored with its
// outbox rows in a single transaction.
type TicketService struct {
	repo        repo.RepositoryInterface
	log         *zap.SugaredLogger
	clock       clock.Clock
	notifier    Notifier
	maxAttempts int
	timeout     time.Duration
	tracer      trace.Tracer
}

type TicketOption func(*TicketService)

func WithClock(c clock.Clock) TicketOption {
	return func(s *TicketService) { s.clock = c }
}

// WithNotifier registers the post-commit hook, usually the outbox relay.
func WithNotifier(n Notifier) TicketOption {
	return func(s *TicketService) { s.notifier = n }
}

// WithMaxAttempts bounds how often a reservation is retried after an optimistic lock conflict.
func WithMaxAttempts(n int) TicketOption {
	return func(s *TicketService) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithTimeout caps a whole reservation, retries included. Zero disables it.
func WithTimeout(d time.Duration) TicketOption {
	return func(s *TicketService) { s.timeout = d }
}

func NewTicketService(r repo.RepositoryInterface, logger *zap.SugaredLogger, opts ...TicketOption) *TicketService {
	s := &TicketService{
		repo:        r,
		log:         logger,
		clock:       clock.NewSystem(),
		notifier:    noopNotifier{},
		maxAttempts: 3,
		tracer:      otel.Tracer("ticket-service/service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ReserveTicket subscribes a customer to an event. The customer must exist, may
// hold at most one ticket per event and the event must have a free spot.
func (s *TicketService) ReserveTicket(ctx context.Context, rawEventID, rawCustomerID string) (ReservationOutput, error) {
	eventID, err := domain.ParseEventID(rawEventID)
	if err != nil {
		return ReservationOutput{}, err
	}
	customerID, err := domain.ParseCustomerID(rawCustomerID)
	if err != nil {
		return ReservationOutput{}, err
	}

	ctx, span := s.tracer.Start(ctx, "TicketService.ReserveTicket")
	defer span.End()
	span.SetAttributes(
		attribute.String("event_id", string(eventID)),
		attribute.String("customer_id", string(customerID)),
	)
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var (
		out ReservationOutput
		ev  *domain.Event
	)
	for attempt := 1; ; attempt++ {
		out, ev, err = s.reserveOnce(ctx, eventID, customerID)
		if !errors.Is(err, repo.ErrConcurrentUpdate) || attempt >= s.maxAttempts {
			break
		}
		s.log.Debugw("reservation conflict, reloading event",
			"event_id", eventID, "attempt", attempt)
	}
	span.SetAttributes(attribute.Bool("success", err == nil))
	if err != nil {
		span.RecordError(err)
		return ReservationOutput{}, classify(err)
	}

	cacheAvailability(ctx, s.repo, s.log, ev)
	s.notifier.Notify()
	s.log.Infow("ticket reserved",
		"event_id", eventID, "customer_id", customerID, "ticket_id", out.TicketID)
	return out, nil
}

func (s *TicketService) reserveOnce(ctx context.Context, eventID domain.EventID, customerID domain.CustomerID) (ReservationOutput, *domain.Event, error) {
	var (
		out ReservationOutput
		ev  *domain.Event
	)
	err := s.repo.DB(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.repo.GetCustomer(ctx, tx, customerID); err != nil {
			return err
		}
		var err error
		ev, err = s.repo.GetEventForUpdate(ctx, tx, eventID)
		if err != nil {
			return err
		}
		ticket, facts, err := ev.ReserveTicket(customerID, s.clock.Now())
		if err != nil {
			return err
		}
		if err := s.repo.SaveEventAndOutbox(ctx, tx, ev, facts); err != nil {
			return err
		}
		if err := s.repo.CreateTicket(ctx, tx, ticket); err != nil {
			return err
		}
		out = ReservationOutput{
			EventID:      ev.ID(),
			TicketID:     ticket.ID(),
			TicketStatus: ticket.Status(),
			ReservedAt:   ticket.ReservedAt(),
		}
		return nil
	})
	return out, ev, err
}

// ConfirmPayment moves a pending ticket to paid.
func (s *TicketService) ConfirmPayment(ctx context.Context, rawTicketID string) (*domain.Ticket, error) {
	id, err := domain.ParseTicketID(rawTicketID)
	if err != nil {
		return nil, err
	}
	var ticket *domain.Ticket
	err = s.repo.DB(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := s.repo.GetTicketForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		facts, err := t.Pay(s.clock.Now())
		if err != nil {
			return err
		}
		if err := s.repo.SaveTicketAndOutbox(ctx, tx, t, facts); err != nil {
			return err
		}
		ticket = t
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}
	s.notifier.Notify()
	s.log.Infow("ticket paid", "ticket_id", id, "amount", ticket.Price().String())
	return ticket, nil
}

func (s *TicketService) GetTicket(ctx context.Context, rawTicketID string) (*domain.Ticket, error) {
	id, err := domain.ParseTicketID(rawTicketID)
	if err != nil {
		return nil, err
	}
	t, err := s.repo.GetTicket(ctx, s.repo.DB(ctx), id)
	return t, classify(err)
}
