package models

import (
	"time"

	"gorm.io/gorm"
)

// Club roles.
const (
	ClubRoleAdmin   = "Admin"
	ClubRoleManager = "Manager"
	ClubRolePlayer  = "Player"
	ClubRoleCoach   = "Coach"
	ClubRoleStaff   = "Staff"
	ClubRoleScout   = "Scout"
)

// ClubRoles lists every valid membership role.
var ClubRoles = []string{ClubRoleAdmin, ClubRoleManager, ClubRolePlayer, ClubRoleCoach, ClubRoleStaff, ClubRoleScout}

// Club permissions.
const (
	PermissionCreateOpportunities = "create_opportunities"
	PermissionManageApplications  = "manage_applications"
	PermissionManageMembers       = "manage_members"
	PermissionEditClubInfo        = "edit_club_info"
)

// AllClubPermissions is granted to a club's creator.
var AllClubPermissions = StringList{
	PermissionCreateOpportunities,
	PermissionManageApplications,
	PermissionManageMembers,
	PermissionEditClubInfo,
}

// Membership statuses.
const (
	MembershipActive = "active"
	MembershipPast   = "past"
)

// Join request statuses.
const (
	JoinRequestPending  = "pending"
	JoinRequestAccepted = "accepted"
	JoinRequestRejected = "rejected"
)

// Club is a sports organization listed in the directory.
type Club struct {
	ID          string         `gorm:"primaryKey;type:uuid" json:"id"`
	Name        string         `gorm:"not null;index" json:"name"`
	Description string         `gorm:"type:text" json:"description,omitempty"`
	LogoURL     string         `json:"logoUrl,omitempty"`
	Sports      StringList     `gorm:"type:jsonb" json:"sports"`
	City        string         `gorm:"index" json:"city"`
	Country     string         `json:"country,omitempty"`
	Website     string         `json:"website,omitempty"`
	FoundedYear int            `json:"foundedYear,omitempty"`
	Verified    bool           `gorm:"default:false" json:"verified"`
	CreatedBy   string         `gorm:"type:uuid" json:"createdBy"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	MembersCount int64 `gorm:"-" json:"membersCount"`
}

func (c *Club) BeforeCreate(tx *gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// ClubMembership links a user to a club with a role and permissions.
type ClubMembership struct {
	ID          string     `gorm:"primaryKey;type:uuid" json:"id"`
	ClubID      string     `gorm:"type:uuid;not null;index" json:"clubId"`
	UserID      string     `gorm:"type:uuid;not null;index" json:"userId"`
	Role        string     `gorm:"not null" json:"role"`
	Position    string     `json:"position,omitempty"`
	Permissions StringList `gorm:"type:jsonb" json:"permissions"`
	Status      string     `gorm:"not null;default:active;index" json:"status"`
	IsActive    bool       `gorm:"default:true" json:"isActive"`
	JoinedAt    time.Time  `json:"joinedAt"`
	LeftAt      *time.Time `json:"leftAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Club *Club `gorm:"foreignKey:ClubID" json:"club,omitempty"`
}

func (m *ClubMembership) BeforeCreate(tx *gorm.DB) error {
	ensureID(&m.ID)
	if m.Status == "" {
		m.Status = MembershipActive
	}
	m.IsActive = m.Status == MembershipActive
	if m.JoinedAt.IsZero() {
		m.JoinedAt = time.Now().UTC()
	}
	if m.Permissions == nil {
		m.Permissions = StringList{}
	}
	return nil
}

// HasPermission reports whether the membership grants perm.
func (m *ClubMembership) HasPermission(perm string) bool {
	return m.Role == ClubRoleAdmin || m.Permissions.Contains(perm)
}

// ClubJoinRequest is a user's request to join a club.
type ClubJoinRequest struct {
	ID            string         `gorm:"primaryKey;type:uuid" json:"id"`
	ClubID        string         `gorm:"type:uuid;not null;index" json:"clubId"`
	UserID        string         `gorm:"type:uuid;not null;index" json:"userId"`
	RequestedRole string         `gorm:"not null" json:"requestedRole"`
	Message       string         `gorm:"type:text" json:"message,omitempty"`
	Status        string         `gorm:"not null;default:pending;index" json:"status"`
	RespondedAt   *time.Time     `json:"respondedAt,omitempty"`
	RespondedBy   *string        `gorm:"type:uuid" json:"respondedBy,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Club *Club `gorm:"foreignKey:ClubID" json:"club,omitempty"`
}

func (r *ClubJoinRequest) BeforeCreate(tx *gorm.DB) error {
	ensureID(&r.ID)
	if r.Status == "" {
		r.Status = JoinRequestPending
	}
	return nil
}
