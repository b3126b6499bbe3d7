package service

import (
	"context"
	"errors"

	"github.com/go-redis/redis/v8"
	"github.com/richardliu001/ticket-service/internal/domain"
	"github.com/richardliu001/ticket-service/internal/repo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type CreateEventInput struct {
	Name       string
	Date       string
	TotalSpots int
	Price      decimal.Decimal
	PartnerID  string
}

// EventService creates events and answers availability queries.
type EventService struct {
	repo repo.RepositoryInterface
	log  *zap.SugaredLogger
}

func NewEventService(r repo.RepositoryInterface, logger *zap.SugaredLogger) *EventService {
	return &EventService{repo: r, log: logger}
}

// CreateEvent requires the organising partner to exist.
func (s *EventService) CreateEvent(ctx context.Context, in CreateEventInput) (*domain.Event, error) {
	partnerID, err := domain.ParsePartnerID(in.PartnerID)
	if err != nil {
		return nil, err
	}
	ev, err := domain.NewEvent(in.Name, in.Date, in.TotalSpots, in.Price, partnerID)
	if err != nil {
		return nil, err
	}
	db := s.repo.DB(ctx)
	if _, err := s.repo.GetPartner(ctx, db, partnerID); err != nil {
		return nil, classify(err)
	}
	if err := s.repo.CreateEvent(ctx, db, ev); err != nil {
		return nil, classify(err)
	}
	s.log.Infow("event created", "event_id", ev.ID(), "partner_id", partnerID, "spots", ev.TotalSpots())
	return ev, nil
}

func (s *EventService) GetEvent(ctx context.Context, rawID string) (*domain.Event, error) {
	id, err := domain.ParseEventID(rawID)
	if err != nil {
		return nil, err
	}
	ev, err := s.repo.GetEvent(ctx, s.repo.DB(ctx), id)
	return ev, classify(err)
}

// GetAvailability returns the open spot count, from cache when possible.
func (s *EventService) GetAvailability(ctx context.Context, rawID string) (int, error) {
	id, err := domain.ParseEventID(rawID)
	if err != nil {
		return 0, err
	}
	n, err := s.repo.GetCachedAvailability(ctx, id)
	if err == nil {
		return n, nil
	}
	if !errors.Is(err, redis.Nil) && !errors.Is(err, repo.ErrCacheDisabled) {
		s.log.Warnw("availability cache read failed", "event_id", id, "error", err)
	}
	ev, err := s.repo.GetEvent(ctx, s.repo.DB(ctx), id)
	if err != nil {
		return 0, classify(err)
	}
	cacheAvailability(ctx, s.repo, s.log, ev)
	return ev.Available(), nil
}

func cacheAvailability(ctx context.Context, r repo.RepositoryInterface, log *zap.SugaredLogger, ev *domain.Event) {
	err := r.CacheAvailability(ctx, ev.ID(), ev.Available())
	if err != nil && !errors.Is(err, repo.ErrCacheDisabled) {
		log.Warnw("availability cache write failed", "event_id", ev.ID(), "error", err)
	}
}
