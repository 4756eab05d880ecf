package models

import (
	"time"

	"gorm.io/gorm"
)

// Affiliation statuses.
const (
	AffiliationPending  = "pending"
	AffiliationAccepted = "accepted"
	AffiliationRejected = "rejected"
	AffiliationBlocked  = "blocked"
)

// Affiliation is an agent's request to represent a player.
type Affiliation struct {
	ID           string     `gorm:"primaryKey;type:uuid" json:"id"`
	AgentID      string     `gorm:"type:uuid;not null;index" json:"agentId"`
	PlayerID     string     `gorm:"type:uuid;not null;index" json:"playerId"`
	Status       string     `gorm:"not null;default:pending;index" json:"status"`
	Message      string     `gorm:"type:text" json:"message,omitempty"`
	Notes        string     `gorm:"type:text" json:"notes,omitempty"`
	RequestedAt  time.Time  `json:"requestedAt"`
	RespondedAt  *time.Time `json:"respondedAt,omitempty"`
	AffiliatedAt *time.Time `json:"affiliatedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`

	Agent  *User `gorm:"foreignKey:AgentID" json:"agent,omitempty"`
	Player *User `gorm:"foreignKey:PlayerID" json:"player,omitempty"`
}

func (a *Affiliation) BeforeCreate(tx *gorm.DB) error {
	ensureID(&a.ID)
	if a.Status == "" {
		a.Status = AffiliationPending
	}
	if a.RequestedAt.IsZero() {
		a.RequestedAt = time.Now().UTC()
	}
	return nil
}

// BlockedAgent prevents an agent from sending affiliation requests to a player.
type BlockedAgent struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	PlayerID  string    `gorm:"type:uuid;not null;uniqueIndex:idx_blocked_agents_pair" json:"playerId"`
	AgentID   string    `gorm:"type:uuid;not null;uniqueIndex:idx_blocked_agents_pair;index" json:"agentId"`
	Reason    string    `json:"reason,omitempty"`
	BlockedAt time.Time `gorm:"autoCreateTime" json:"blockedAt"`

	Agent *User `gorm:"foreignKey:AgentID" json:"agent,omitempty"`
}

func (b *BlockedAgent) BeforeCreate(tx *gorm.DB) error {
	ensureID(&b.ID)
	return nil
}
