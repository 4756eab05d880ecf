package models

import (
	"time"

	"gorm.io/gorm"
)

// Notification is an event shown in a user's notification center.
type Notification struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;index:idx_notifications_user_read" json:"userId"`
	Type      string    `gorm:"not null;index" json:"type"`
	Title     string    `gorm:"not null" json:"title"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	Metadata  JSONMap   `gorm:"type:jsonb;serializer:json" json:"metadata"`
	Read      bool      `gorm:"default:false;index:idx_notifications_user_read" json:"read"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	ensureID(&n.ID)
	if n.Metadata == nil {
		n.Metadata = JSONMap{}
	}
	return nil
}

// NotificationPreferences stores per-category switches for one user.
// Categories absent from the map are enabled.
type NotificationPreferences struct {
	UserID     string          `gorm:"primaryKey;type:uuid" json:"userId"`
	Categories map[string]bool `gorm:"type:jsonb;serializer:json" json:"preferences"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

func (NotificationPreferences) TableName() string {
	return "notification_preferences"
}

func (p *NotificationPreferences) BeforeCreate(tx *gorm.DB) error {
	if p.Categories == nil {
		p.Categories = map[string]bool{}
	}
	return nil
}

// AllModels lists every table for AutoMigrate.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Follow{},
		&CareerExperience{},
		&PhysicalStats{},
		&Verification{},
		&Favorite{},
		&Post{},
		&Like{},
		&Comment{},
		&Message{},
		&Club{},
		&ClubMembership{},
		&ClubJoinRequest{},
		&Opportunity{},
		&Application{},
		&Affiliation{},
		&BlockedAgent{},
		&SportsOrganization{},
		&OrganizationRequest{},
		&Notification{},
		&NotificationPreferences{},
	}
}
