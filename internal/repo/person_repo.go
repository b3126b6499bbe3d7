package repo

import (
	"context"
	"errors"

	"github.com/richardliu001/ticket-service/internal/domain"
	"github.com/richardliu001/ticket-service/internal/model"
	"gorm.io/gorm"
)

func (r *Repository) CreateCustomer(ctx context.Context, tx *gorm.DB, c *domain.Customer) error {
	row := model.NewCustomer(c)
	err := tx.WithContext(ctx).Create(&row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrAlreadyRegistered
	}
	return err
}

func (r *Repository) GetCustomer(ctx context.Context, tx *gorm.DB, id domain.CustomerID) (*domain.Customer, error) {
	var row model.Customer
	if err := tx.WithContext(ctx).Where("id = ?", string(id)).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, err
	}
	return row.ToDomain()
}

// CustomerExists reports whether the CPF or the e-mail is taken.
func (r *Repository) CustomerExists(ctx context.Context, tx *gorm.DB, cpf domain.Cpf, email domain.Email) (bool, error) {
	var n int64
	err := tx.WithContext(ctx).Model(&model.Customer{}).
		Where("cpf = ? OR email = ?", string(cpf), string(email)).
		Count(&n).Error
	return n > 0, err
}

func (r *Repository) CreatePartner(ctx context.Context, tx *gorm.DB, p *domain.Partner) error {
	row := model.NewPartner(p)
	err := tx.WithContext(ctx).Create(&row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrAlreadyRegistered
	}
	return err
}

func (r *Repository) GetPartner(ctx context.Context, tx *gorm.DB, id domain.PartnerID) (*domain.Partner, error) {
	var row model.Partner
	if err := tx.WithContext(ctx).Where("id = ?", string(id)).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPartnerNotFound
		}
		return nil, err
	}
	return row.ToDomain()
}

// PartnerExists reports whether the CNPJ or the e-mail is taken.
func (r *Repository) PartnerExists(ctx context.Context, tx *gorm.DB, cnpj domain.Cnpj, email domain.Email) (bool, error) {
	var n int64
	err := tx.WithContext(ctx).Model(&model.Partner{}).
		Where("cnpj = ? OR email = ?", string(cnpj), string(email)).
		Count(&n).Error
	return n > 0, err
}
