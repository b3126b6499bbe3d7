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

// CreateTicket inserts a freshly reserved ticket.
func (r *Repository) CreateTicket(ctx context.Context, tx *gorm.DB, t *domain.Ticket) error {
	row := model.NewTicket(t)
	return tx.WithContext(ctx).Create(&row).Error
}

func (r *Repository) GetTicket(ctx context.Context, tx *gorm.DB, id domain.TicketID) (*domain.Ticket, error) {
	return r.loadTicket(tx.WithContext(ctx), id, false)
}

// GetTicketForUpdate locks the ticket row until tx ends.
func (r *Repository) GetTicketForUpdate(ctx context.Context, tx *gorm.DB, id domain.TicketID) (*domain.Ticket, error) {
	return r.loadTicket(tx.WithContext(ctx), id, true)
}

func (r *Repository) loadTicket(tx *gorm.DB, id domain.TicketID, lock bool) (*domain.Ticket, error) {
	q := tx
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var row model.Ticket
	if err := q.Where("id = ?", string(id)).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTicketNotFound
		}
		return nil, err
	}
	return row.ToDomain()
}

// SaveTicketAndOutbox stores a paid ticket together with its outbox rows. The
// update only matches a pending row, so a concurrent payment loses with
// domain.ErrInvalidTicketState.
func (r *Repository) SaveTicketAndOutbox(ctx context.Context, tx *gorm.DB, t *domain.Ticket, events []domain.DomainEvent) error {
	ctx, span := r.tracer.Start(ctx, "Repository.SaveTicketAndOutbox")
	defer span.End()
	span.SetAttributes(
		attribute.String("ticket_id", string(t.ID())),
		attribute.Int("outbox.count", len(events)),
	)

	row := model.NewTicket(t)
	err := tx.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Ticket{}).
			Where("id = ? AND status = ?", row.ID, string(domain.TicketStatusPending)).
			Updates(map[string]interface{}{
				"status":     row.Status,
				"paid_at":    row.PaidAt,
				"updated_at": time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrInvalidTicketState
		}
		return r.insertOutbox(tx, events)
	})
	if err != nil {
		span.RecordError(err)
	}
	return err
}
