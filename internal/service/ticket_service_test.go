package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/richardliu001/ticket-service/internal/clock"
	"github.com/richardliu001/ticket-service/internal/domain"
	"github.com/richardliu001/ticket-service/internal/model"
	"github.com/richardliu001/ticket-service/internal/repo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestTicketService_ReserveTicket(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ev := f.event(t, 2)
	cs := f.registerCustomers(t, 1)

	out, err := f.tickets.ReserveTicket(ctx, string(ev.ID()), string(cs[0].ID))
	require.NoError(t, err)
	assert.Equal(t, ev.ID(), out.EventID)
	assert.Equal(t, domain.TicketStatusPending, out.TicketStatus)
	assert.True(t, out.ReservedAt.Equal(now))
	assert.Equal(t, int32(1), f.notifier.n.Load())

	ticket, err := f.tickets.GetTicket(ctx, string(out.TicketID))
	require.NoError(t, err)
	assert.Equal(t, cs[0].ID, ticket.CustomerID())
	assert.True(t, ev.Price().Equal(ticket.Price()))

	var rows []model.OutboxEvent
	require.NoError(t, f.db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, string(domain.KindTicketReserved), rows[0].Kind)
	assert.Equal(t, string(ev.ID()), rows[0].AggregateID)
	assert.False(t, rows[0].Published)
}

func TestTicketService_ReserveTicket_ExactCapacity(t *testing.T) {
	for _, spots := range []int{1, 10} {
		t.Run(fmt.Sprintf("spots=%d", spots), func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			ev := f.event(t, spots)
			cs := f.registerCustomers(t, spots+1)

			for i := 0; i < spots; i++ {
				_, err := f.tickets.ReserveTicket(ctx, string(ev.ID()), string(cs[i].ID))
				require.NoError(t, err, "spot %d of %d", i+1, spots)
			}
			_, err := f.tickets.ReserveTicket(ctx, string(ev.ID()), string(cs[spots].ID))
			assert.ErrorIs(t, err, domain.ErrCapacityExceeded)

			reloaded, err := f.events.GetEvent(ctx, string(ev.ID()))
			require.NoError(t, err)
			assert.Len(t, reloaded.Tickets(), spots)
			assert.Equal(t, 0, reloaded.Available())
			assert.Equal(t, int64(spots), countOutbox(t, f.db))
		})
	}
}

func TestTicketService_ReserveTicket_Duplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ev := f.event(t, 5)
	cs := f.registerCustomers(t, 1)

	_, err := f.tickets.ReserveTicket(ctx, string(ev.ID()), string(cs[0].ID))
	require.NoError(t, err)

	_, err = f.tickets.ReserveTicket(ctx, string(ev.ID()), string(cs[0].ID))
	assert.ErrorIs(t, err, domain.ErrDuplicateReservation)

	reloaded, err := f.events.GetEvent(ctx, string(ev.ID()))
	require.NoError(t, err)
	assert.Len(t, reloaded.Tickets(), 1)
	assert.Equal(t, int64(1), countOutbox(t, f.db))
	assert.Equal(t, int32(1), f.notifier.n.Load())
}

func TestTicketService_ReserveTicket_Lookups(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ev := f.event(t, 5)
	cs := f.registerCustomers(t, 1)

	_, err := f.tickets.ReserveTicket(ctx, string(ev.ID()), string(domain.NewCustomerID()))
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)

	_, err = f.tickets.ReserveTicket(ctx, string(domain.NewEventID()), string(cs[0].ID))
	assert.ErrorIs(t, err, domain.ErrEventNotFound)

	_, err = f.tickets.ReserveTicket(ctx, "nope", string(cs[0].ID))
	assert.ErrorIs(t, err, domain.ErrValidation)

	assert.Equal(t, int64(0), countOutbox(t, f.db))
	assert.Equal(t, int32(0), f.notifier.n.Load())
}

// conflictingRepo fails the first conflicts saves the way a concurrent writer would.
type conflictingRepo struct {
	*repo.Repository
	conflicts int
	saves     int
}

func (c *conflictingRepo) SaveEventAndOutbox(ctx context.Context, tx *gorm.DB, ev *domain.Event, events []domain.DomainEvent) error {
	c.saves++
	if c.saves <= c.conflicts {
		return repo.ErrConcurrentUpdate
	}
	return c.Repository.SaveEventAndOutbox(ctx, tx, ev, events)
}

func TestTicketService_ReserveTicket_RetriesConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ev := f.event(t, 5)
	cs := f.registerCustomers(t, 2)

	r := &conflictingRepo{Repository: f.repo, conflicts: 2}
	svc := NewTicketService(r, f.log, WithClock(clock.NewFixed(now)), WithMaxAttempts(3))

	_, err := svc.ReserveTicket(ctx, string(ev.ID()), string(cs[0].ID))
	require.NoError(t, err)
	assert.Equal(t, 3, r.saves)

	r = &conflictingRepo{Repository: f.repo, conflicts: 10}
	svc = NewTicketService(r, f.log, WithMaxAttempts(3))

	_, err = svc.ReserveTicket(ctx, string(ev.ID()), string(cs[1].ID))
	assert.ErrorIs(t, err, repo.ErrConcurrentUpdate)
	assert.False(t, errors.Is(err, ErrInternal))
	assert.Equal(t, 3, r.saves)

	reloaded, err := f.events.GetEvent(ctx, string(ev.ID()))
	require.NoError(t, err)
	assert.Len(t, reloaded.Tickets(), 1)
}

func TestTicketService_ConfirmPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ev := f.event(t, 5)
	cs := f.registerCustomers(t, 1)

	out, err := f.tickets.ReserveTicket(ctx, string(ev.ID()), string(cs[0].ID))
	require.NoError(t, err)

	paid, err := f.tickets.ConfirmPayment(ctx, string(out.TicketID))
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusPaid, paid.Status())
	require.NotNil(t, paid.PaidAt())
	assert.True(t, paid.PaidAt().Equal(now))

	stored, err := f.tickets.GetTicket(ctx, string(out.TicketID))
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusPaid, stored.Status())

	_, err = f.tickets.ConfirmPayment(ctx, string(out.TicketID))
	assert.ErrorIs(t, err, domain.ErrInvalidTicketState)

	_, err = f.tickets.ConfirmPayment(ctx, string(domain.NewTicketID()))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	var kinds []string
	require.NoError(t, f.db.Model(&model.OutboxEvent{}).Order("created_at").Pluck("kind", &kinds).Error)
	assert.ElementsMatch(t, []string{string(domain.KindTicketReserved), string(domain.KindTicketPaid)}, kinds)
	assert.Equal(t, int32(2), f.notifier.n.Load())
}

// brokenRepo fails ticket reads with a storage error.
type brokenRepo struct {
	*repo.Repository
}

func (brokenRepo) GetTicket(context.Context, *gorm.DB, domain.TicketID) (*domain.Ticket, error) {
	return nil, errors.New("connection reset by peer")
}

func TestTicketService_InfrastructureErrorsAreInternal(t *testing.T) {
	f := newFixture(t)
	svc := NewTicketService(brokenRepo{f.repo}, f.log)

	_, err := svc.GetTicket(context.Background(), string(domain.NewTicketID()))
	assert.ErrorIs(t, err, ErrInternal)
	assert.Contains(t, err.Error(), "connection reset by peer")
}
