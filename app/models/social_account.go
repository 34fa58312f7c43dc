package models

import "time"

// SocialAccount links an external OAuth provider identity to a user
type SocialAccount struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"index;not null" json:"user_id"`
	ProviderName string    `gorm:"index:idx_provider_identity,unique;type:varchar(50);not null" json:"provider_name"`
	ProviderID   string    `gorm:"index:idx_provider_identity,unique;type:varchar(191);not null" json:"provider_id"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
