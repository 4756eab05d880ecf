package dto

import (
	"strings"

	"github.com/simolima/sportlink-demo-sub001/internal/models"
)

// PhysicalStatsRequest replaces a user's physical stats. Absent fields are
// cleared.
type PhysicalStatsRequest struct {
	UserID       string   `json:"userId"`
	HeightCm     *float64 `json:"heightCm"`
	WeightKg     *float64 `json:"weightKg"`
	DominantFoot string   `json:"dominantFoot"`
	DominantHand string   `json:"dominantHand"`
}

// ToModel builds the row to upsert for userID
func (r *PhysicalStatsRequest) ToModel(userID string) *models.PhysicalStats {
	return &models.PhysicalStats{
		UserID:       userID,
		HeightCm:     r.HeightCm,
		WeightKg:     r.WeightKg,
		DominantFoot: nonEmpty(r.DominantFoot),
		DominantHand: nonEmpty(r.DominantHand),
	}
}

func nonEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// SportsOrganizationRequest is the body of POST /sports-organizations
type SportsOrganizationRequest struct {
	Name    string `json:"name"`
	Country string `json:"country"`
	City    string `json:"city"`
	Sport   string `json:"sport"`
}

// OrganizationRequestBody is the body of POST /organization-requests
type OrganizationRequestBody struct {
	RequestedName    string `json:"requestedName"`
	RequestedCountry string `json:"requestedCountry"`
	RequestedCity    string `json:"requestedCity"`
	RequestedSport   string `json:"requestedSport"`
	AdditionalInfo   string `json:"additionalInfo"`
	RequestedBy      string `json:"requestedBy"`
}

// ApproveOrganizationRequest is the body of PATCH /organization-requests/:id/approve
type ApproveOrganizationRequest struct {
	ReviewedBy string `json:"reviewedBy"`
}

// ApproveOrganizationResponse returns the organization an approval created
type ApproveOrganizationResponse struct {
	Message      string                     `json:"message"`
	Request      models.OrganizationRequest `json:"request"`
	Organization models.SportsOrganization  `json:"organization"`
}

// MatchRequest describes the player a club needs
type MatchRequest struct {
	AgeMin *int   `json:"ageMin"`
	AgeMax *int   `json:"ageMax"`
	City   string `json:"city"`
}

// MatchCandidate is one scored player
type MatchCandidate struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Score int      `json:"score"`
	Why   []string `json:"why"`
}

// MatchResponse is the body of POST /match
type MatchResponse struct {
	Candidates []MatchCandidate `json:"candidates"`
}
