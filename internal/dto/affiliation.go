package dto

// AffiliationRequest is the body of POST /affiliations
type AffiliationRequest struct {
	AgentID  string `json:"agentId"`
	PlayerID string `json:"playerId"`
	Notes    string `json:"notes"`
}

// RespondAffiliationRequest is the body of PUT /affiliations/:id
type RespondAffiliationRequest struct {
	Status   string `json:"status"`
	PlayerID string `json:"playerId"`
}

// RemoveAffiliationResponse is the body of DELETE /affiliations/:id
type RemoveAffiliationResponse struct {
	Success bool `json:"success"`
	Blocked bool `json:"blocked"`
}

// BlockAgentRequest is the body of POST /blocked-agents
type BlockAgentRequest struct {
	PlayerID string `json:"playerId"`
	AgentID  string `json:"agentId"`
	Reason   string `json:"reason"`
}
