package models

import "time"

// ProviderAccount stores external OAuth provider identities linked to a user.
// A user holds at most one identity per provider.
type ProviderAccount struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"index;uniqueIndex:user_provider" json:"user_id"`
	Provider       string    `gorm:"index:provider_uid,unique;uniqueIndex:user_provider;type:varchar(50)" json:"provider"`
	ProviderUserID string    `gorm:"index:provider_uid,unique;type:varchar(191)" json:"provider_user_id"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
