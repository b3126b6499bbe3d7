package repo

import (
	"context"
	"errors"
	"time"

	"github.com/richardliu001/ticket-service/internal/domain"
	"github.com/richardliu001/ticket-service/internal/model"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateEvent inserts a new event at version 0.
func (r *Repository) CreateEvent(ctx context.Context, tx *gorm.DB, ev *domain.Event) error {
	row := model.NewEvent(ev)
	return tx.WithContext(ctx).Create(&row).Error
}

// GetEvent loads the aggregate with its reservations.
func (r *Repository) GetEvent(ctx context.Context, tx *gorm.DB, id domain.EventID) (*domain.Event, error) {
	return r.loadEvent(tx.WithContext(ctx), id, false)
}

// GetEventForUpdate loads the aggregate holding a row lock on the event until tx ends.
func (r *Repository) GetEventForUpdate(ctx context.Context, tx *gorm.DB, id domain.EventID) (*domain.Event, error) {
	return r.loadEvent(tx.WithContext(ctx), id, true)
}

func (r *Repository) loadEvent(tx *gorm.DB, id domain.EventID, lock bool) (*domain.Event, error) {
	q := tx
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var row model.Event
	if err := q.Where("id = ?", string(id)).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrEventNotFound
		}
		return nil, err
	}
	var tickets []model.EventTicket
	if err := tx.Where("event_id = ?", row.ID).Order("ordinal").Find(&tickets).Error; err != nil {
		return nil, err
	}
	return row.ToDomain(tickets)
}

// SaveEventAndOutbox bumps the event version, inserts reservations that are not
// stored yet and one outbox row per domain event, all or nothing. A stale version
// yields ErrConcurrentUpdate; a second ticket for the same customer yields
// domain.ErrDuplicateReservation from the unique index.
func (r *Repository) SaveEventAndOutbox(ctx context.Context, tx *gorm.DB, ev *domain.Event, events []domain.DomainEvent) error {
	ctx, span := r.tracer.Start(ctx, "Repository.SaveEventAndOutbox")
	defer span.End()
	span.SetAttributes(
		attribute.String("event_id", string(ev.ID())),
		attribute.Int("outbox.count", len(events)),
	)

	err := tx.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Event{}).
			Where("id = ? AND version = ?", string(ev.ID()), ev.Version()).
			Updates(map[string]interface{}{
				"version":    ev.Version() + 1,
				"updated_at": time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConcurrentUpdate
		}

		if rows := model.NewEventTickets(ev); len(rows) > 0 {
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "ticket_id"}},
				DoNothing: true,
			}).Create(&rows).Error
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ErrDuplicateReservation
			}
			if err != nil {
				return err
			}
		}

		return r.insertOutbox(tx, events)
	})
	if err != nil {
		span.RecordError(err)
	}
	return err
}
