package dto

import "github.com/simolima/sportlink-demo-sub001/internal/models"

// ClubRequest creates or partially updates a club
type ClubRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	LogoURL     *string  `json:"logoUrl"`
	Sports      []string `json:"sports"`
	City        *string  `json:"city"`
	Country     *string  `json:"country"`
	Website     *string  `json:"website"`
	FoundedYear *int     `json:"foundedYear"`
	Verified    *bool    `json:"verified"`
	CreatedBy   string   `json:"createdBy"`
}

// Apply copies the present fields onto club
func (r *ClubRequest) Apply(club *models.Club) {
	if r.Name != nil {
		club.Name = *r.Name
	}
	if r.Description != nil {
		club.Description = *r.Description
	}
	if r.LogoURL != nil {
		club.LogoURL = *r.LogoURL
	}
	if r.Sports != nil {
		club.Sports = models.StringList(r.Sports)
	}
	if r.City != nil {
		club.City = *r.City
	}
	if r.Country != nil {
		club.Country = *r.Country
	}
	if r.Website != nil {
		club.Website = *r.Website
	}
	if r.FoundedYear != nil {
		club.FoundedYear = *r.FoundedYear
	}
	if r.Verified != nil {
		club.Verified = *r.Verified
	}
}

// MembershipRequest is the body of POST /club-memberships
type MembershipRequest struct {
	ClubID      string   `json:"clubId"`
	UserID      string   `json:"userId"`
	Role        string   `json:"role"`
	Position    string   `json:"position"`
	Permissions []string `json:"permissions"`
}

// UpdateMembershipRequest is the body of PUT /club-memberships/:id
type UpdateMembershipRequest struct {
	Role        *string  `json:"role"`
	Position    *string  `json:"position"`
	Permissions []string `json:"permissions"`
	IsActive    *bool    `json:"isActive"`
}

// JoinRequestRequest is the body of POST /club-join-requests
type JoinRequestRequest struct {
	ClubID        string `json:"clubId"`
	UserID        string `json:"userId"`
	RequestedRole string `json:"requestedRole"`
	Message       string `json:"message"`
}

// RespondJoinRequest is the body of PUT /club-join-requests/:id
type RespondJoinRequest struct {
	Status      string `json:"status"`
	RespondedBy string `json:"respondedBy"`
}

// AcceptJoinResponse is the body of POST /club-join-requests/:id/accept
type AcceptJoinResponse struct {
	Success       bool                   `json:"success"`
	AlreadyMember bool                   `json:"alreadyMember,omitempty"`
	Request       models.ClubJoinRequest `json:"request"`
	Membership    *models.ClubMembership `json:"membership,omitempty"`
}
