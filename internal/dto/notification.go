package dto

import "github.com/simolima/sportlink-demo-sub001/internal/models"

// CreateNotificationRequest is the body of POST /notifications
type CreateNotificationRequest struct {
	UserID   string         `json:"userId"`
	Type     string         `json:"type"`
	Title    string         `json:"title"`
	Message  string         `json:"message"`
	Metadata models.JSONMap `json:"metadata"`
}

// SkippedNotificationResponse is returned when preferences drop a notification
type SkippedNotificationResponse struct {
	Skipped bool   `json:"skipped"`
	Reason  string `json:"reason"`
}

// MarkReadRequest is the body of PUT /notifications
type MarkReadRequest struct {
	ID            string `json:"id"`
	Read          *bool  `json:"read"`
	MarkAllAsRead bool   `json:"markAllAsRead"`
	UserID        string `json:"userId"`
}

// MarkReadResponse reports how many notifications changed
type MarkReadResponse struct {
	Success      bool                 `json:"success"`
	MarkedCount  int64                `json:"markedCount"`
	Notification *models.Notification `json:"notification,omitempty"`
}

// DeleteNotificationsResponse reports how many notifications were removed
type DeleteNotificationsResponse struct {
	Success      bool  `json:"success"`
	DeletedCount int64 `json:"deletedCount"`
}

// PreferencesRequest upserts a partial category map
type PreferencesRequest struct {
	UserID      string          `json:"userId"`
	Preferences map[string]bool `json:"preferences"`
}

// PreferencesResponse is the merged preference map of one user
type PreferencesResponse struct {
	UserID      string          `json:"userId"`
	Preferences map[string]bool `json:"preferences"`
}

// UnreadCountResponse is the body of GET /notifications/unread-count
type UnreadCountResponse struct {
	Count int64 `json:"count"`
}
