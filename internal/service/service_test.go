package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/richardliu001/ticket-service/internal/clock"
	"github.com/richardliu001/ticket-service/internal/domain"
	"github.com/richardliu001/ticket-service/internal/model"
	"github.com/richardliu001/ticket-service/internal/repo"
	"github.com/richardliu001/ticket-service/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

var now = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

type countingNotifier struct{ n atomic.Int32 }

func (c *countingNotifier) Notify() { c.n.Add(1) }

type fixture struct {
	db        *gorm.DB
	repo      *repo.Repository
	log       *zap.SugaredLogger
	customers *CustomerService
	partners  *PartnerService
	events    *EventService
	tickets   *TicketService
	notifier  *countingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewSQLite(t)
	log := zaptest.NewLogger(t).Sugar()
	r := repo.NewRepository(db, nil, 0, log)
	n := &countingNotifier{}
	return &fixture{
		db:        db,
		repo:      r,
		log:       log,
		customers: NewCustomerService(r, log),
		partners:  NewPartnerService(r, log),
		events:    NewEventService(r, log),
		tickets:   NewTicketService(r, log, WithClock(clock.NewFixed(now)), WithNotifier(n)),
		notifier:  n,
	}
}

func (f *fixture) partner(t *testing.T) *domain.Partner {
	t.Helper()
	p, err := f.partners.CreatePartner(context.Background(), CreatePartnerInput{
		Name: "Disney", Cnpj: "41.536.538/0001-00", Email: "disney@disney.com",
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) event(t *testing.T, spots int) *domain.Event {
	t.Helper()
	p := f.partner(t)
	ev, err := f.events.CreateEvent(context.Background(), CreateEventInput{
		Name: "Disney on Ice", Date: "2025-04-12", TotalSpots: spots,
		Price: decimal.RequireFromString("49.90"), PartnerID: string(p.ID),
	})
	require.NoError(t, err)
	return ev
}

// registerCustomers registers n customers with distinct documents.
func (f *fixture) registerCustomers(t *testing.T, n int) []*domain.Customer {
	t.Helper()
	out := make([]*domain.Customer, 0, n)
	for i := 0; i < n; i++ {
		c, err := f.customers.CreateCustomer(context.Background(), CreateCustomerInput{
			Name:  fmt.Sprintf("Customer %d", i),
			Cpf:   fmt.Sprintf("000.000.000-%02d", i),
			Email: fmt.Sprintf("customer%d@mail.com", i),
		})
		require.NoError(t, err)
		out = append(out, c)
	}
	return out
}

func countOutbox(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&model.OutboxEvent{}).Count(&n).Error)
	return n
}

func TestClassify(t *testing.T) {
	assert.NoError(t, classify(nil))

	err := classify(domain.ErrCapacityExceeded)
	assert.ErrorIs(t, err, domain.ErrCapacityExceeded)
	assert.False(t, errors.Is(err, ErrInternal))

	assert.False(t, errors.Is(classify(repo.ErrConcurrentUpdate), ErrInternal))

	cause := errors.New("connection reset")
	err = classify(cause)
	assert.ErrorIs(t, err, ErrInternal)
	assert.ErrorIs(t, err, cause)
}
