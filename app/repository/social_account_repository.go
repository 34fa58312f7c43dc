package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/ManuelReschke/foxauth/app/models"
)

type socialAccountRepository struct {
	db *gorm.DB
}

func NewSocialAccountRepository(db *gorm.DB) SocialAccountRepository {
	return &socialAccountRepository{db: db}
}

func (r *socialAccountRepository) Create(ctx context.Context, account *models.SocialAccount) error {
	return r.db.WithContext(ctx).Create(account).Error
}

// GetByProvider finds the link for an external identity
func (r *socialAccountRepository) GetByProvider(ctx context.Context, provider, providerID string) (*models.SocialAccount, error) {
	var account models.SocialAccount
	err := r.db.WithContext(ctx).
		Where("provider_name = ? AND provider_id = ?", provider, providerID).
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *socialAccountRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SocialAccount{}).Count(&count).Error
	return count, err
}
