package repo

import (
	"context"
	"time"

	"github.com/richardliu001/ticket-service/internal/model"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

// ListUnpublishedOutbox returns up to limit unpublished rows in insertion order,
// leaving out rows whose retry time is still after now.
func (r *Repository) ListUnpublishedOutbox(ctx context.Context, now time.Time, limit int) ([]model.OutboxEvent, error) {
	ctx, span := r.tracer.Start(ctx, "Repository.ListUnpublishedOutbox")
	defer span.End()
	span.SetAttributes(attribute.Int("batch_size", limit))

	var evts []model.OutboxEvent
	err := r.db.WithContext(ctx).
		Where("published = ?", false).
		Where("(next_attempt_at IS NULL OR next_attempt_at <= ?)", now.UTC()).
		Order("created_at").
		Order("id").
		Limit(limit).
		Find(&evts).Error
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("result_count", len(evts)))
	return evts, nil
}

// MarkPublished sets the published flag. Marking a published row again is a no-op.
func (r *Repository) MarkPublished(ctx context.Context, id string) error {
	ctx, span := r.tracer.Start(ctx, "Repository.MarkPublished")
	defer span.End()
	span.SetAttributes(attribute.String("outbox.id", id))

	now := time.Now().UTC()
	err := r.db.WithContext(ctx).Model(&model.OutboxEvent{}).
		Where("id = ? AND published = ?", id, false).
		Updates(map[string]interface{}{
			"published":       true,
			"published_at":    &now,
			"last_error":      nil,
			"next_attempt_at": nil,
		}).Error
	if err != nil {
		span.RecordError(err)
	}
	return err
}

// RecordPublishFailure bumps the attempt counter, keeps the error text and defers
// the row until retryAt. It returns the attempt count after the update.
func (r *Repository) RecordPublishFailure(ctx context.Context, id, reason string, retryAt time.Time) (int, error) {
	ctx, span := r.tracer.Start(ctx, "Repository.RecordPublishFailure")
	defer span.End()
	span.SetAttributes(
		attribute.String("outbox.id", id),
		attribute.String("outbox.error_message", reason),
	)

	var attempts int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.OutboxEvent{}).
			Where("id = ? AND published = ?", id, false).
			Updates(map[string]interface{}{
				"attempts":        gorm.Expr("attempts + 1"),
				"last_error":      reason,
				"next_attempt_at": retryAt,
			})
		if res.Error != nil {
			return res.Error
		}
		var row model.OutboxEvent
		if err := tx.Select("attempts").Where("id = ?", id).First(&row).Error; err != nil {
			return err
		}
		attempts = row.Attempts
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	return attempts, nil
}
