package repo

import (
	"context"
	"testing"
	"time"

	"github.com/richardliu001/ticket-service/internal/domain"
	"github.com/richardliu001/ticket-service/internal/model"
	"github.com/richardliu001/ticket-service/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

var now = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func newTestRepo(t *testing.T) (*Repository, *gorm.DB) {
	t.Helper()
	db := testutil.NewSQLite(t)
	return NewRepository(db, nil, 0, zaptest.NewLogger(t).Sugar()), db
}

func seedEvent(t *testing.T, r *Repository, spots int) *domain.Event {
	t.Helper()
	ev, err := domain.NewEvent("Disney on Ice", "2025-04-12", spots, decimal.NewFromInt(50), domain.NewPartnerID())
	require.NoError(t, err)
	require.NoError(t, r.CreateEvent(context.Background(), r.DB(context.Background()), ev))
	return ev
}

func countRows(t *testing.T, db *gorm.DB, m interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(m).Count(&n).Error)
	return n
}

func TestRepository_SaveEventAndOutbox(t *testing.T) {
	r, db := newTestRepo(t)
	ctx := context.Background()
	seeded := seedEvent(t, r, 2)

	ev, err := r.GetEventForUpdate(ctx, r.DB(ctx), seeded.ID())
	require.NoError(t, err)
	assert.Equal(t, uint64(0), ev.Version())

	ticket, facts, err := ev.ReserveTicket(domain.NewCustomerID(), now)
	require.NoError(t, err)

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := r.SaveEventAndOutbox(ctx, tx, ev, facts); err != nil {
			return err
		}
		return r.CreateTicket(ctx, tx, ticket)
	})
	require.NoError(t, err)

	reloaded, err := r.GetEvent(ctx, r.DB(ctx), ev.ID())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), reloaded.Version())
	require.Len(t, reloaded.Tickets(), 1)
	assert.Equal(t, ticket.ID(), reloaded.Tickets()[0].TicketID)

	stored, err := r.GetTicket(ctx, r.DB(ctx), ticket.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusPending, stored.Status())
	assert.True(t, stored.ReservedAt().Equal(now))

	var outbox model.OutboxEvent
	require.NoError(t, db.First(&outbox, "id = ?", facts[0].ID).Error)
	assert.False(t, outbox.Published)
	assert.Equal(t, string(domain.KindTicketReserved), outbox.Kind)
	assert.Equal(t, string(ev.ID()), outbox.AggregateID)

	env, err := model.DecodeEnvelope([]byte(outbox.Payload))
	require.NoError(t, err)
	assert.Equal(t, facts[0].ID, env.ID)
	assert.Contains(t, string(env.Data), string(ticket.ID()))
}

func TestRepository_SaveEventAndOutbox_StaleVersion(t *testing.T) {
	r, db := newTestRepo(t)
	ctx := context.Background()
	seeded := seedEvent(t, r, 1)

	first, err := r.GetEvent(ctx, r.DB(ctx), seeded.ID())
	require.NoError(t, err)
	second, err := r.GetEvent(ctx, r.DB(ctx), seeded.ID())
	require.NoError(t, err)

	_, factsA, err := first.ReserveTicket(domain.NewCustomerID(), now)
	require.NoError(t, err)
	_, factsB, err := second.ReserveTicket(domain.NewCustomerID(), now)
	require.NoError(t, err)

	require.NoError(t, r.SaveEventAndOutbox(ctx, db, first, factsA))
	err = r.SaveEventAndOutbox(ctx, db, second, factsB)
	assert.ErrorIs(t, err, ErrConcurrentUpdate)

	reloaded, err := r.GetEvent(ctx, db, seeded.ID())
	require.NoError(t, err)
	assert.Len(t, reloaded.Tickets(), 1, "only one writer should win the optimistic lock")
	assert.Equal(t, int64(1), countRows(t, db, &model.OutboxEvent{}))
}

func TestRepository_SaveEventAndOutbox_UniqueCustomerIndex(t *testing.T) {
	r, db := newTestRepo(t)
	ctx := context.Background()
	seeded := seedEvent(t, r, 5)
	customer := domain.NewCustomerID()

	ev, err := r.GetEvent(ctx, db, seeded.ID())
	require.NoError(t, err)
	_, facts, err := ev.ReserveTicket(customer, now)
	require.NoError(t, err)
	require.NoError(t, r.SaveEventAndOutbox(ctx, db, ev, facts))

	// A row built behind the aggregate's back, as a second writer with a
	// freshly read version would produce.
	forged, err := domain.RestoreEvent(string(seeded.ID()), "Disney on Ice", "2025-04-12", 5,
		decimal.NewFromInt(50), string(seeded.PartnerID()), []domain.EventTicket{{
			TicketID:   domain.NewTicketID(),
			EventID:    seeded.ID(),
			CustomerID: customer,
			Ordinal:    2,
		}}, 1)
	require.NoError(t, err)

	err = r.SaveEventAndOutbox(ctx, db, forged, nil)
	assert.ErrorIs(t, err, domain.ErrDuplicateReservation)

	reloaded, err := r.GetEvent(ctx, db, seeded.ID())
	require.NoError(t, err)
	assert.Len(t, reloaded.Tickets(), 1)
	assert.Equal(t, uint64(1), reloaded.Version())
}

func TestRepository_SaveEventAndOutbox_AllOrNothing(t *testing.T) {
	r, db := newTestRepo(t)
	ctx := context.Background()
	seeded := seedEvent(t, r, 3)

	ev, err := r.GetEvent(ctx, db, seeded.ID())
	require.NoError(t, err)
	ticket, facts, err := ev.ReserveTicket(domain.NewCustomerID(), now)
	require.NoError(t, err)

	// Occupy the outbox id so the outbox insert fails after the event writes.
	clash, err := model.NewOutboxEvent(facts[0])
	require.NoError(t, err)
	require.NoError(t, db.Create(&clash).Error)

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := r.CreateTicket(ctx, tx, ticket); err != nil {
			return err
		}
		return r.SaveEventAndOutbox(ctx, tx, ev, facts)
	})
	require.Error(t, err)

	reloaded, err := r.GetEvent(ctx, db, seeded.ID())
	require.NoError(t, err)
	assert.Equal(t, uint64(0), reloaded.Version())
	assert.Empty(t, reloaded.Tickets())
	assert.Equal(t, int64(0), countRows(t, db, &model.EventTicket{}))
	assert.Equal(t, int64(0), countRows(t, db, &model.Ticket{}))
	assert.Equal(t, int64(1), countRows(t, db, &model.OutboxEvent{}))
}

func TestRepository_GetEvent_NotFound(t *testing.T) {
	r, db := newTestRepo(t)
	_, err := r.GetEvent(context.Background(), db, domain.NewEventID())
	assert.ErrorIs(t, err, domain.ErrEventNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
