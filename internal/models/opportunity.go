package models

import (
	"time"

	"gorm.io/gorm"
)

// Opportunity types.
const (
	OpportunityPlayerSearch  = "Player Search"
	OpportunityCoachSearch   = "Coach Search"
	OpportunityStaffSearch   = "Staff Search"
	OpportunityCollaboration = "Collaboration"
	OpportunityScouting      = "Scouting"
)

// Opportunity statuses.
const (
	OpportunityOpen     = "open"
	OpportunityClosed   = "closed"
	OpportunityArchived = "archived"
)

// Application statuses.
const (
	ApplicationPending   = "pending"
	ApplicationInReview  = "in_review"
	ApplicationAccepted  = "accepted"
	ApplicationRejected  = "rejected"
	ApplicationWithdrawn = "withdrawn"
)

// OpportunityTypes lists every valid opportunity type.
var OpportunityTypes = []string{
	OpportunityPlayerSearch, OpportunityCoachSearch, OpportunityStaffSearch,
	OpportunityCollaboration, OpportunityScouting,
}

var applicationTransitions = map[string][]string{
	ApplicationPending:  {ApplicationInReview, ApplicationAccepted, ApplicationRejected, ApplicationWithdrawn},
	ApplicationInReview: {ApplicationAccepted, ApplicationRejected, ApplicationWithdrawn},
}

// IsApplicationStatus reports whether s is a known application status.
func IsApplicationStatus(s string) bool {
	switch s {
	case ApplicationPending, ApplicationInReview, ApplicationAccepted, ApplicationRejected, ApplicationWithdrawn:
		return true
	}
	return false
}

// CanTransitionApplication reports whether an application may move from one
// status to another. Accepted, rejected and withdrawn are final.
func CanTransitionApplication(from, to string) bool {
	for _, next := range applicationTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Opportunity is a club listing users can apply to.
type Opportunity struct {
	ID           string         `gorm:"primaryKey;type:uuid" json:"id"`
	ClubID       string         `gorm:"type:uuid;not null;index" json:"clubId"`
	Title        string         `gorm:"not null" json:"title"`
	Description  string         `gorm:"type:text;not null" json:"description"`
	Type         string         `json:"type,omitempty"`
	Sport        string         `gorm:"index" json:"sport,omitempty"`
	Role         string         `json:"role,omitempty"`
	Position     string         `json:"position,omitempty"`
	City         string         `json:"city,omitempty"`
	Country      string         `json:"country,omitempty"`
	ContractType string         `json:"contractType,omitempty"`
	Level        string         `json:"level,omitempty"`
	Requirements string         `gorm:"type:text" json:"requirements,omitempty"`
	ExpiryDate   time.Time      `gorm:"index" json:"expiryDate"`
	Status       string         `gorm:"not null;default:open;index" json:"status"`
	CreatedBy    string         `gorm:"type:uuid;not null" json:"createdBy"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	Club              *Club `gorm:"foreignKey:ClubID" json:"club,omitempty"`
	ApplicationsCount int64 `gorm:"-" json:"applicationsCount"`
}

func (o *Opportunity) BeforeCreate(tx *gorm.DB) error {
	ensureID(&o.ID)
	if o.Status == "" {
		o.Status = OpportunityOpen
	}
	return nil
}

// IsActive reports whether the opportunity still accepts applications at now.
func (o *Opportunity) IsActive(now time.Time) bool {
	return o.Status == OpportunityOpen && !o.ExpiryDate.Before(startOfDay(now))
}

// Application is a user's candidacy for an opportunity, optionally filed by
// their agent.
type Application struct {
	ID            string         `gorm:"primaryKey;type:uuid" json:"id"`
	OpportunityID string         `gorm:"type:uuid;not null;index" json:"opportunityId"`
	ApplicantID   string         `gorm:"type:uuid;not null;index" json:"applicantId"`
	AgentID       *string        `gorm:"type:uuid;index" json:"agentId,omitempty"`
	ClubID        string         `gorm:"type:uuid;index" json:"clubId"`
	Message       string         `gorm:"type:text" json:"message,omitempty"`
	Status        string         `gorm:"not null;default:pending;index" json:"status"`
	ReviewedBy    *string        `gorm:"type:uuid" json:"reviewedBy,omitempty"`
	ReviewedAt    *time.Time     `json:"reviewedAt,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	Applicant   *User        `gorm:"foreignKey:ApplicantID" json:"applicant,omitempty"`
	Opportunity *Opportunity `gorm:"foreignKey:OpportunityID" json:"opportunity,omitempty"`
}

func (a *Application) BeforeCreate(tx *gorm.DB) error {
	ensureID(&a.ID)
	if a.Status == "" {
		a.Status = ApplicationPending
	}
	return nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// StartOfDay truncates t to midnight UTC.
func StartOfDay(t time.Time) time.Time {
	return startOfDay(t)
}
