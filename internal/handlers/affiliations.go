package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/simolima/sportlink-demo-sub001/internal/affiliations"
	"github.com/simolima/sportlink-demo-sub001/internal/dto"
	"github.com/simolima/sportlink-demo-sub001/internal/errors"
	"github.com/simolima/sportlink-demo-sub001/internal/models"
	"github.com/simolima/sportlink-demo-sub001/internal/util"
)

func respondAffiliationError(c *gin.Context, err error) {
	switch {
	case stderrors.Is(err, affiliations.ErrMissingFields):
		util.RespondBadRequest(c, err.Error())
	case stderrors.Is(err, affiliations.ErrAgentBlocked):
		util.RespondWithAPIError(c, errors.New(errors.ErrAgentBlocked, "the player has blocked this agent"))
	case stderrors.Is(err, affiliations.ErrAlreadyExists):
		util.RespondBadRequest(c, "a pending or accepted affiliation already exists")
	case stderrors.Is(err, affiliations.ErrNotFound):
		util.RespondNotFound(c, "affiliation")
	case stderrors.Is(err, affiliations.ErrUserNotFound):
		util.RespondNotFound(c, "user")
	case stderrors.Is(err, affiliations.ErrNotOwner):
		util.RespondForbidden(c, "not allowed to act on this affiliation")
	case stderrors.Is(err, affiliations.ErrInvalidTransition):
		util.RespondWithAPIError(c, errors.New(errors.ErrInvalidStatus, "only pending affiliations can be accepted or rejected"))
	case stderrors.Is(err, affiliations.ErrAlreadyBlocked):
		util.RespondBadRequest(c, "agent already blocked")
	case stderrors.Is(err, affiliations.ErrBlockNotFound):
		util.RespondNotFound(c, "blocked agent")
	default:
		util.RespondWithError(c, err)
	}
}

// ListAffiliations filters by agent, player and status
// GET /api/v1/affiliations
func (h *Handlers) ListAffiliations(c *gin.Context) {
	views, err := h.affiliations.List(c.Request.Context(), affiliations.Filter{
		AgentID:  c.Query("agentId"),
		PlayerID: c.Query("playerId"),
		Status:   c.Query("status"),
	})
	if err != nil {
		respondAffiliationError(c, err)
		return
	}
	if views == nil {
		views = []affiliations.View{}
	}
	c.JSON(http.StatusOK, views)
}

// CreateAffiliation sends an agent's request to a player
// POST /api/v1/affiliations
func (h *Handlers) CreateAffiliation(c *gin.Context) {
	var req dto.AffiliationRequest
	if !bindJSON(c, &req) {
		return
	}
	agentID, ok := actor(c, req.AgentID, "agentId")
	if !ok {
		return
	}
	if req.PlayerID == "" {
		util.RespondMissingField(c, "playerId")
		return
	}

	aff, err := h.affiliations.Request(c.Request.Context(), agentID, req.PlayerID, req.Notes)
	if err != nil {
		respondAffiliationError(c, err)
		return
	}
	c.JSON(http.StatusCreated, aff)
}

// RespondAffiliation lets the player accept or reject a pending request
// PUT /api/v1/affiliations/:id
func (h *Handlers) RespondAffiliation(c *gin.Context) {
	var req dto.RespondAffiliationRequest
	if !bindJSON(c, &req) {
		return
	}
	playerID, ok := actor(c, req.PlayerID, "playerId")
	if !ok {
		return
	}

	aff, err := h.affiliations.Respond(c.Request.Context(), c.Param("id"), playerID, req.Status)
	if err != nil {
		respondAffiliationError(c, err)
		return
	}
	c.JSON(http.StatusOK, aff)
}

// DeleteAffiliation ends an affiliation; the player may also block the agent
// DELETE /api/v1/affiliations/:id?playerId|agentId&block=true
func (h *Handlers) DeleteAffiliation(c *gin.Context) {
	who := affiliations.Actor{PlayerID: c.Query("playerId"), AgentID: c.Query("agentId")}
	if authID, ok := util.AuthUserID(c); ok {
		for _, supplied := range []string{who.PlayerID, who.AgentID} {
			if _, err := util.ResolveActor(c, supplied); err != nil {
				util.RespondWithError(c, err)
				return
			}
		}
		// The service works out which side the caller is on.
		who = affiliations.Actor{PlayerID: authID, AgentID: authID}
	}
	if who.PlayerID == "" && who.AgentID == "" {
		util.RespondBadRequest(c, "playerId or agentId is required")
		return
	}

	blocked, err := h.affiliations.Remove(c.Request.Context(), c.Param("id"), who, util.ParseBool(c.Query("block"), false))
	if err != nil {
		respondAffiliationError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.RemoveAffiliationResponse{Success: true, Blocked: blocked})
}

// ListBlockedAgents filters blocks by player or agent
// GET /api/v1/blocked-agents
func (h *Handlers) ListBlockedAgents(c *gin.Context) {
	rows, err := h.affiliations.ListBlocked(c.Request.Context(), c.Query("playerId"), c.Query("agentId"))
	if err != nil {
		respondAffiliationError(c, err)
		return
	}
	if rows == nil {
		rows = []models.BlockedAgent{}
	}
	c.JSON(http.StatusOK, rows)
}

// BlockAgent stops an agent from sending requests to the player
// POST /api/v1/blocked-agents
func (h *Handlers) BlockAgent(c *gin.Context) {
	var req dto.BlockAgentRequest
	if !bindJSON(c, &req) {
		return
	}
	playerID, ok := actor(c, req.PlayerID, "playerId")
	if !ok {
		return
	}

	ba, err := h.affiliations.Block(c.Request.Context(), playerID, req.AgentID, req.Reason)
	if err != nil {
		respondAffiliationError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ba)
}

// UnblockAgent lifts a block
// DELETE /api/v1/blocked-agents?playerId&agentId
func (h *Handlers) UnblockAgent(c *gin.Context) {
	playerID, ok := actor(c, c.Query("playerId"), "playerId")
	if !ok {
		return
	}
	if err := h.affiliations.Unblock(c.Request.Context(), playerID, c.Query("agentId")); err != nil {
		respondAffiliationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
