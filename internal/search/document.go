package search

import (
	"time"

	"github.com/simolima/sportlink-demo-sub001/internal/models"
)

// UserSearchDoc is the users index document.
type UserSearchDoc struct {
	ID        string   `json:"id"`
	Email     string   `json:"email"`
	Username  string   `json:"username,omitempty"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Bio       string   `json:"bio,omitempty"`
	City      string   `json:"city,omitempty"`
	Country   string   `json:"country,omitempty"`
	Role      string   `json:"role"`
	Sports    []string `json:"sports"`
	Level     string   `json:"level,omitempty"`
	Verified  bool     `json:"verified"`
	CreatedAt string   `json:"created_at"`
}

// UserToSearchDoc converts a User model to its index document
func UserToSearchDoc(u *models.User) UserSearchDoc {
	sports := []string(u.Sports)
	if sports == nil {
		sports = []string{}
	}
	return UserSearchDoc{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Bio:       u.Bio,
		City:      u.City,
		Country:   u.Country,
		Role:      u.Role,
		Sports:    sports,
		Level:     u.Level,
		Verified:  u.Verified,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
	}
}
