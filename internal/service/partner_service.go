package service

import (
	"context"

	"github.com/richardliu001/ticket-service/internal/domain"
	"github.com/richardliu001/ticket-service/internal/repo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CreatePartnerInput struct {
	Name  string
	Cnpj  string
	Email string
}

// PartnerService registers event organisers.
type PartnerService struct {
	repo repo.RepositoryInterface
	log  *zap.SugaredLogger
}

func NewPartnerService(r repo.RepositoryInterface, logger *zap.SugaredLogger) *PartnerService {
	return &PartnerService{repo: r, log: logger}
}

func (s *PartnerService) CreatePartner(ctx context.Context, in CreatePartnerInput) (*domain.Partner, error) {
	p, err := domain.NewPartner(in.Name, in.Cnpj, in.Email)
	if err != nil {
		return nil, err
	}
	err = s.repo.DB(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := s.repo.PartnerExists(ctx, tx, p.Cnpj, p.Email)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrAlreadyRegistered
		}
		return s.repo.CreatePartner(ctx, tx, p)
	})
	if err != nil {
		return nil, classify(err)
	}
	s.log.Infow("partner registered", "partner_id", p.ID)
	return p, nil
}

func (s *PartnerService) GetPartner(ctx context.Context, rawID string) (*domain.Partner, error) {
	id, err := domain.ParsePartnerID(rawID)
	if err != nil {
		return nil, err
	}
	p, err := s.repo.GetPartner(ctx, s.repo.DB(ctx), id)
	return p, classify(err)
}
