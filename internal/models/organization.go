package models

import (
	"time"

	"gorm.io/gorm"
)

// Organization request statuses.
const (
	OrganizationRequestPending  = "pending"
	OrganizationRequestApproved = "approved"
)

// SportsOrganization is a federation-level team or society that careers and
// profiles can refer to. Unlike a Club it has no members on the network.
type SportsOrganization struct {
	ID        string         `gorm:"primaryKey;type:uuid" json:"id"`
	Name      string         `gorm:"not null;index:idx_sports_org_identity" json:"name"`
	Country   string         `gorm:"not null;index:idx_sports_org_identity" json:"country"`
	City      string         `json:"city,omitempty"`
	Sport     string         `gorm:"not null;index:idx_sports_org_identity" json:"sport"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (o *SportsOrganization) BeforeCreate(tx *gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// OrganizationRequest asks for a missing organization to be added. Approving
// it creates the organization.
type OrganizationRequest struct {
	ID                    string       `gorm:"primaryKey;type:uuid" json:"id"`
	RequestedName         string       `gorm:"not null" json:"requestedName"`
	RequestedCountry      string       `gorm:"not null" json:"requestedCountry"`
	RequestedCity         string       `json:"requestedCity,omitempty"`
	RequestedSport        string       `gorm:"not null" json:"requestedSport"`
	AdditionalInfo        string       `gorm:"type:text" json:"additionalInfo,omitempty"`
	RequestedBy           string       `gorm:"type:uuid;not null;index" json:"requestedBy"`
	Status                string       `gorm:"not null;default:pending;index" json:"status"`
	ReviewedBy            *string      `gorm:"type:uuid" json:"reviewedBy,omitempty"`
	ReviewedAt            *time.Time   `json:"reviewedAt,omitempty"`
	CreatedOrganizationID *string      `gorm:"type:uuid" json:"createdOrganizationId,omitempty"`
	RequestedAt           time.Time    `gorm:"autoCreateTime" json:"requestedAt"`
	UpdatedAt             time.Time    `json:"updatedAt"`
	Requester             *UserSummary `gorm:"-" json:"requestedByProfile,omitempty"`
	Reviewer              *UserSummary `gorm:"-" json:"reviewedByProfile,omitempty"`
}

func (r *OrganizationRequest) BeforeCreate(tx *gorm.DB) error {
	ensureID(&r.ID)
	if r.Status == "" {
		r.Status = OrganizationRequestPending
	}
	return nil
}
