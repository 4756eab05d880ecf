// Package dto holds the JSON request and response bodies of the REST API.
package dto

import (
	"strings"

	"github.com/simolima/sportlink-demo-sub001/internal/models"
)

// CreateUserRequest is the body of POST /users
type CreateUserRequest struct {
	Email        string   `json:"email"`
	FirstName    string   `json:"firstName"`
	LastName     string   `json:"lastName"`
	Username     string   `json:"username"`
	AvatarURL    string   `json:"avatarUrl"`
	Bio          string   `json:"bio"`
	BirthDate    *Date    `json:"birthDate"`
	City         string   `json:"city"`
	Country      string   `json:"country"`
	Role         string   `json:"role"`
	Sports       []string `json:"sports"`
	Level        string   `json:"level"`
	Availability string   `json:"availability"`
}

// ToModel builds the user to insert. The role may be a display label.
func (r *CreateUserRequest) ToModel() *models.User {
	role := models.NormalizeRole(r.Role)
	if role == "" && r.Role != "" {
		role = strings.TrimSpace(r.Role)
	}
	return &models.User{
		Email:        strings.ToLower(strings.TrimSpace(r.Email)),
		FirstName:    strings.TrimSpace(r.FirstName),
		LastName:     strings.TrimSpace(r.LastName),
		Username:     strings.TrimSpace(r.Username),
		AvatarURL:    r.AvatarURL,
		Bio:          r.Bio,
		BirthDate:    r.BirthDate.Ptr(),
		City:         r.City,
		Country:      r.Country,
		Role:         role,
		Sports:       models.StringList(r.Sports),
		Level:        r.Level,
		Availability: r.Availability,
	}
}

// UpdateUserRequest is the body of PUT /users/:id. Absent fields are kept.
type UpdateUserRequest struct {
	FirstName    *string  `json:"firstName"`
	LastName     *string  `json:"lastName"`
	Username     *string  `json:"username"`
	AvatarURL    *string  `json:"avatarUrl"`
	Bio          *string  `json:"bio"`
	BirthDate    *Date    `json:"birthDate"`
	City         *string  `json:"city"`
	Country      *string  `json:"country"`
	Role         *string  `json:"role"`
	Sports       []string `json:"sports"`
	Level        *string  `json:"level"`
	Availability *string  `json:"availability"`
	Verified     *bool    `json:"verified"`
}

// Updates returns the column updates for the fields present in r
func (r *UpdateUserRequest) Updates() map[string]interface{} {
	updates := map[string]interface{}{}
	setString(updates, "first_name", r.FirstName)
	setString(updates, "last_name", r.LastName)
	setString(updates, "username", r.Username)
	setString(updates, "avatar_url", r.AvatarURL)
	setString(updates, "bio", r.Bio)
	setString(updates, "city", r.City)
	setString(updates, "country", r.Country)
	setString(updates, "level", r.Level)
	setString(updates, "availability", r.Availability)
	if r.Role != nil {
		if role := models.NormalizeRole(*r.Role); role != "" {
			updates["role"] = role
		} else {
			updates["role"] = *r.Role
		}
	}
	if r.BirthDate != nil {
		updates["birth_date"] = r.BirthDate.Ptr()
	}
	if r.Sports != nil {
		updates["sports"] = models.StringList(r.Sports)
	}
	if r.Verified != nil {
		updates["verified"] = *r.Verified
	}
	return updates
}

func setString(updates map[string]interface{}, column string, v *string) {
	if v != nil {
		updates[column] = *v
	}
}

// CareerExperienceRequest creates or updates a career entry
type CareerExperienceRequest struct {
	UserID      string  `json:"userId"`
	Club        *string `json:"club"`
	Role        *string `json:"role"`
	Sport       *string `json:"sport"`
	Category    *string `json:"category"`
	StartDate   *Date   `json:"startDate"`
	EndDate     *Date   `json:"endDate"`
	Current     *bool   `json:"current"`
	Description *string `json:"description"`
}

// Apply copies the present fields onto e
func (r *CareerExperienceRequest) Apply(e *models.CareerExperience) {
	if r.Club != nil {
		e.Club = *r.Club
	}
	if r.Role != nil {
		e.Role = *r.Role
	}
	if r.Sport != nil {
		e.Sport = *r.Sport
	}
	if r.Category != nil {
		e.Category = *r.Category
	}
	if r.StartDate != nil {
		e.StartDate = r.StartDate.Ptr()
	}
	if r.EndDate != nil {
		e.EndDate = r.EndDate.Ptr()
	}
	if r.Current != nil {
		e.Current = *r.Current
	}
	if r.Description != nil {
		e.Description = *r.Description
	}
}

// VerificationRequest is the body of POST /verifications
type VerificationRequest struct {
	VerifierID string `json:"verifierId"`
	VerifiedID string `json:"verifiedId"`
}

// FavoriteRequest is the body of POST /favorites
type FavoriteRequest struct {
	UserID     string `json:"userId"`
	FavoriteID string `json:"favoriteId"`
}
