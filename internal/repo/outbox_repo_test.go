package repo

import (
	"context"
	"testing"
	"time"

	"github.com/richardliu001/ticket-service/internal/domain"
	"github.com/richardliu001/ticket-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedOutbox(t *testing.T, db *gorm.DB, n int) []model.OutboxEvent {
	t.Helper()
	base := time.Now().UTC().Add(-time.Hour)
	rows := make([]model.OutboxEvent, 0, n)
	for i := 0; i < n; i++ {
		row, err := model.NewOutboxEvent(domain.DomainEvent{
			ID:          string(domain.NewTicketID()),
			Kind:        domain.KindTicketReserved,
			AggregateID: string(domain.NewEventID()),
			OccurredAt:  base.Add(time.Duration(i) * time.Second),
			Data:        map[string]int{"n": i},
		})
		require.NoError(t, err)
		rows = append(rows, row)
	}
	// insert newest first so ordering has to come from created_at
	for i := n - 1; i >= 0; i-- {
		require.NoError(t, db.Create(&rows[i]).Error)
	}
	return rows
}

func TestRepository_ListUnpublishedOutbox_Order(t *testing.T) {
	r, db := newTestRepo(t)
	ctx := context.Background()
	rows := seedOutbox(t, db, 4)

	got, err := r.ListUnpublishedOutbox(ctx, time.Now(), 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i := range got {
		assert.Equal(t, rows[i].ID, got[i].ID)
	}
}

func TestRepository_MarkPublished(t *testing.T) {
	r, db := newTestRepo(t)
	ctx := context.Background()
	rows := seedOutbox(t, db, 2)

	require.NoError(t, r.MarkPublished(ctx, rows[0].ID))

	var stored model.OutboxEvent
	require.NoError(t, db.First(&stored, "id = ?", rows[0].ID).Error)
	assert.True(t, stored.Published)
	require.NotNil(t, stored.PublishedAt)
	firstPublishedAt := *stored.PublishedAt

	// re-marking is a no-op
	require.NoError(t, r.MarkPublished(ctx, rows[0].ID))
	require.NoError(t, db.First(&stored, "id = ?", rows[0].ID).Error)
	assert.True(t, stored.Published)
	assert.True(t, firstPublishedAt.Equal(*stored.PublishedAt))

	got, err := r.ListUnpublishedOutbox(ctx, time.Now(), 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, rows[1].ID, got[0].ID)
}

func TestRepository_RecordPublishFailure(t *testing.T) {
	r, db := newTestRepo(t)
	ctx := context.Background()
	rows := seedOutbox(t, db, 2)

	attempts, err := r.RecordPublishFailure(ctx, rows[0].ID, "broker down", time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)

	attempts, err = r.RecordPublishFailure(ctx, rows[0].ID, "broker still down", time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)

	var stored model.OutboxEvent
	require.NoError(t, db.First(&stored, "id = ?", rows[0].ID).Error)
	assert.False(t, stored.Published)
	require.NotNil(t, stored.LastError)
	assert.Equal(t, "broker still down", *stored.LastError)

	// the deferred row is held back, the other one still flows
	got, err := r.ListUnpublishedOutbox(ctx, time.Now(), 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, rows[1].ID, got[0].ID)

	// once the retry time passes it is eligible again
	_, err = r.RecordPublishFailure(ctx, rows[0].ID, "again", time.Now().UTC().Add(-time.Second))
	require.NoError(t, err)
	got, err = r.ListUnpublishedOutbox(ctx, time.Now(), 10)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestRepository_RecordPublishFailure_IgnoresPublished(t *testing.T) {
	r, db := newTestRepo(t)
	ctx := context.Background()
	rows := seedOutbox(t, db, 1)

	require.NoError(t, r.MarkPublished(ctx, rows[0].ID))
	attempts, err := r.RecordPublishFailure(ctx, rows[0].ID, "late failure", time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, 0, attempts)

	var stored model.OutboxEvent
	require.NoError(t, db.First(&stored, "id = ?", rows[0].ID).Error)
	assert.True(t, stored.Published)
}
