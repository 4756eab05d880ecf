package dto

import "github.com/simolima/sportlink-demo-sub001/internal/models"

// OpportunityRequest creates or partially updates an opportunity
type OpportunityRequest struct {
	ClubID       *string `json:"clubId"`
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	Type         *string `json:"type"`
	Sport        *string `json:"sport"`
	Role         *string `json:"role"`
	Position     *string `json:"position"`
	City         *string `json:"city"`
	Country      *string `json:"country"`
	ContractType *string `json:"contractType"`
	Level        *string `json:"level"`
	Requirements *string `json:"requirements"`
	ExpiryDate   *Date   `json:"expiryDate"`
	IsActive     *bool   `json:"isActive"`
	CreatedBy    string  `json:"createdBy"`
}

// Apply copies the present fields onto o. isActive maps to open/closed.
func (r *OpportunityRequest) Apply(o *models.Opportunity) {
	if r.ClubID != nil {
		o.ClubID = *r.ClubID
	}
	if r.Title != nil {
		o.Title = *r.Title
	}
	if r.Description != nil {
		o.Description = *r.Description
	}
	if r.Type != nil {
		o.Type = *r.Type
	}
	if r.Sport != nil {
		o.Sport = *r.Sport
	}
	if r.Role != nil {
		o.Role = *r.Role
	}
	if r.Position != nil {
		o.Position = *r.Position
	}
	if r.City != nil {
		o.City = *r.City
	}
	if r.Country != nil {
		o.Country = *r.Country
	}
	if r.ContractType != nil {
		o.ContractType = *r.ContractType
	}
	if r.Level != nil {
		o.Level = *r.Level
	}
	if r.Requirements != nil {
		o.Requirements = *r.Requirements
	}
	if r.ExpiryDate != nil {
		o.ExpiryDate = r.ExpiryDate.Time
	}
	if r.IsActive != nil {
		if *r.IsActive {
			o.Status = models.OpportunityOpen
		} else {
			o.Status = models.OpportunityClosed
		}
	}
}

// ApplicationRequest is the body of POST /applications
type ApplicationRequest struct {
	OpportunityID string `json:"opportunityId"`
	ApplicantID   string `json:"applicantId"`
	AgentID       string `json:"agentId"`
	Message       string `json:"message"`
}

// UpdateApplicationRequest is the body of PUT /applications/:id
type UpdateApplicationRequest struct {
	Status     string `json:"status"`
	ReviewedBy string `json:"reviewedBy"`
}
