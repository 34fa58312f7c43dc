package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/ManuelReschke/foxauth/app/models"
)

type accessTokenRepository struct {
	db *gorm.DB
}

func NewAccessTokenRepository(db *gorm.DB) AccessTokenRepository {
	return &accessTokenRepository{db: db}
}

func (r *accessTokenRepository) Create(ctx context.Context, token *models.AccessToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

func (r *accessTokenRepository) GetByHash(ctx context.Context, hash string) (*models.AccessToken, error) {
	var token models.AccessToken
	err := r.db.WithContext(ctx).Where("token_hash = ?", hash).First(&token).Error
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *accessTokenRepository) GetByID(ctx context.Context, id string) (*models.AccessToken, error) {
	var token models.AccessToken
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&token).Error
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *accessTokenRepository) Revoke(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&models.AccessToken{}).
		Where("id = ?", id).
		Update("revoked", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// nothing matched, or the row already had revoked = true on drivers
		// that report changed rows only
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *accessTokenRepository) RevokeActive(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.AccessToken{}).
		Where("id = ? AND revoked = ?", id, false).
		Update("revoked", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *accessTokenRepository) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("(revoked = ? AND updated_at < ?) OR expires_at < ?", true, cutoff, cutoff).
		Delete(&models.AccessToken{})
	return res.RowsAffected, res.Error
}
