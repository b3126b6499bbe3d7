package service

import (
	"context"

	"github.com/richardliu001/ticket-service/internal/domain"
	"github.com/richardliu001/ticket-service/internal/repo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CreateCustomerInput struct {
	Name  string
	Cpf   string
	Email string
}

// CustomerService registers and looks up customers.
type CustomerService struct {
	repo repo.RepositoryInterface
	log  *zap.SugaredLogger
}

func NewCustomerService(r repo.RepositoryInterface, logger *zap.SugaredLogger) *CustomerService {
	return &CustomerService{repo: r, log: logger}
}

// CreateCustomer rejects a CPF or e-mail that is already registered.
func (s *CustomerService) CreateCustomer(ctx context.Context, in CreateCustomerInput) (*domain.Customer, error) {
	c, err := domain.NewCustomer(in.Name, in.Cpf, in.Email)
	if err != nil {
		return nil, err
	}
	err = s.repo.DB(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := s.repo.CustomerExists(ctx, tx, c.Cpf, c.Email)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrAlreadyRegistered
		}
		return s.repo.CreateCustomer(ctx, tx, c)
	})
	if err != nil {
		return nil, classify(err)
	}
	s.log.Infow("customer registered", "customer_id", c.ID)
	return c, nil
}

func (s *CustomerService) GetCustomer(ctx context.Context, rawID string) (*domain.Customer, error) {
	id, err := domain.ParseCustomerID(rawID)
	if err != nil {
		return nil, err
	}
	c, err := s.repo.GetCustomer(ctx, s.repo.DB(ctx), id)
	return c, classify(err)
}
