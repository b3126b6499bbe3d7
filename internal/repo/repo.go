package repo

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/richardliu001/ticket-service/internal/domain"
	"github.com/richardliu001/ticket-service/internal/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrConcurrentUpdate is returned when the event row changed since it was read.
var ErrConcurrentUpdate = errors.New("optimistic lock conflict")

// RepositoryInterface restricts Repo methods so services can be tested against fakes.
// Methods taking tx run inside the caller's transaction.
type RepositoryInterface interface {
	DB(ctx context.Context) *gorm.DB

	CreateCustomer(ctx context.Context, tx *gorm.DB, c *domain.Customer) error
	GetCustomer(ctx context.Context, tx *gorm.DB, id domain.CustomerID) (*domain.Customer, error)
	CustomerExists(ctx context.Context, tx *gorm.DB, cpf domain.Cpf, email domain.Email) (bool, error)

	CreatePartner(ctx context.Context, tx *gorm.DB, p *domain.Partner) error
	GetPartner(ctx context.Context, tx *gorm.DB, id domain.PartnerID) (*domain.Partner, error)
	PartnerExists(ctx context.Context, tx *gorm.DB, cnpj domain.Cnpj, email domain.Email) (bool, error)

	CreateEvent(ctx context.Context, tx *gorm.DB, ev *domain.Event) error
	GetEvent(ctx context.Context, tx *gorm.DB, id domain.EventID) (*domain.Event, error)
	GetEventForUpdate(ctx context.Context, tx *gorm.DB, id domain.EventID) (*domain.Event, error)
	SaveEventAndOutbox(ctx context.Context, tx *gorm.DB, ev *domain.Event, events []domain.DomainEvent) error

	CreateTicket(ctx context.Context, tx *gorm.DB, t *domain.Ticket) error
	GetTicket(ctx context.Context, tx *gorm.DB, id domain.TicketID) (*domain.Ticket, error)
	GetTicketForUpdate(ctx context.Context, tx *gorm.DB, id domain.TicketID) (*domain.Ticket, error)
	SaveTicketAndOutbox(ctx context.Context, tx *gorm.DB, t *domain.Ticket, events []domain.DomainEvent) error

	ListUnpublishedOutbox(ctx context.Context, now time.Time, limit int) ([]model.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string) error
	RecordPublishFailure(ctx context.Context, id, reason string, retryAt time.Time) (int, error)

	CacheAvailability(ctx context.Context, id domain.EventID, available int) error
	GetCachedAvailability(ctx context.Context, id domain.EventID) (int, error)
}

// Repository implements RepositoryInterface on gorm, with an optional redis cache.
type Repository struct {
	db       *gorm.DB
	rdb      *redis.Client
	cacheTTL time.Duration
	log      *zap.SugaredLogger
	tracer   trace.Tracer
}

// NewRepository constructs repo. rdb may be nil, which disables the cache.
func NewRepository(db *gorm.DB, rdb *redis.Client, cacheTTL time.Duration, logger *zap.SugaredLogger) *Repository {
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	return &Repository{
		db:       db,
		rdb:      rdb,
		cacheTTL: cacheTTL,
		log:      logger,
		tracer:   otel.Tracer("ticket-service/repo"),
	}
}

// DB returns underlying *gorm.DB
func (r *Repository) DB(ctx context.Context) *gorm.DB { return r.db.WithContext(ctx) }

func (r *Repository) insertOutbox(tx *gorm.DB, events []domain.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}
	rows := make([]model.OutboxEvent, 0, len(events))
	for _, evt := range events {
		row, err := model.NewOutboxEvent(evt)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}
	return tx.Create(&rows).Error
}
