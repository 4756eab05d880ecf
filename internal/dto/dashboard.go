package dto

import "github.com/simolima/sportlink-demo-sub001/internal/models"

// DashboardClub is one club the user belongs to, with their membership role
type DashboardClub struct {
	ClubID      string            `json:"clubId"`
	Name        string            `json:"name"`
	Role        string            `json:"role"`
	Permissions models.StringList `json:"permissions"`
}

// Dashboard aggregates the counters shown on a user's home screen. Role
// specific sections are omitted when they do not apply.
type Dashboard struct {
	UserID              string `json:"userId"`
	Role                string `json:"role"`
	UnreadNotifications int64  `json:"unreadNotifications"`
	UnreadMessages      int64  `json:"unreadMessages"`
	Followers           int64  `json:"followers"`
	Following           int64  `json:"following"`

	AffiliationRequestsPending *int64              `json:"affiliationRequestsPending,omitempty"`
	ApplicationsByStatus       map[string]int64    `json:"applicationsByStatus,omitempty"`
	Agent                      *models.UserSummary `json:"agent,omitempty"`

	AffiliationsByStatus map[string]int64      `json:"affiliationsByStatus,omitempty"`
	Players              []*models.UserSummary `json:"players,omitempty"`

	Clubs               []DashboardClub `json:"clubs,omitempty"`
	PendingJoinRequests *int64          `json:"pendingJoinRequests,omitempty"`
	ApplicationsPending *int64          `json:"applicationsPending,omitempty"`
}

// UploadResponse is returned by POST /upload
type UploadResponse struct {
	URL  string `json:"url"`
	Key  string `json:"key"`
	Size int64  `json:"size"`
}
