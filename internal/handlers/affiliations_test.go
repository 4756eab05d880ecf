package handlers

import (
	"net/http"

	"github.com/simolima/sportlink-demo-sub001/internal/affiliations"
	"github.com/simolima/sportlink-demo-sub001/internal/dto"
	"github.com/simolima/sportlink-demo-sub001/internal/models"
	"github.com/simolima/sportlink-demo-sub001/internal/notifications"
)

func (s *HandlersTestSuite) requestAffiliation(agent, player *models.User) models.Affiliation {
	w := s.do(http.MethodPost, "/api/v1/affiliations", map[string]string{
		"agentId": agent.ID, "playerId": player.ID, "notes": "Seguo la Serie D",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var aff models.Affiliation
	s.decode(w, &aff)
	return aff
}

func (s *HandlersTestSuite) TestAffiliationRequestAndAccept() {
	agent := s.createUser(models.RoleAgent, "Paolo", "Conti")
	player := s.createUser(models.RolePlayer, "Simone", "Greco")

	aff := s.requestAffiliation(agent, player)
	s.Equal(models.AffiliationPending, aff.Status)

	n := s.lastNotification(player.ID)
	s.Equal(notifications.TypeAffiliationRequest, n.Type)
	s.Equal("Paolo Conti", n.Metadata["agentName"])

	w := s.do(http.MethodPost, "/api/v1/affiliations", map[string]string{"agentId": agent.ID, "playerId": player.ID})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/v1/affiliations", map[string]string{"agentId": agent.ID})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPut, "/api/v1/affiliations/"+aff.ID, map[string]string{"status": models.AffiliationAccepted, "playerId": agent.ID})
	s.Equal(http.StatusForbidden, w.Code)

	w = s.do(http.MethodPut, "/api/v1/affiliations/"+aff.ID, map[string]string{"status": models.AffiliationAccepted, "playerId": player.ID})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.decode(w, &aff)
	s.Equal(models.AffiliationAccepted, aff.Status)
	s.NotNil(aff.AffiliatedAt)

	n = s.lastNotification(agent.ID)
	s.Equal(notifications.TypeAffiliationAccepted, n.Type)
	s.Equal("Simone Greco", n.Metadata["playerName"])

	w = s.do(http.MethodPut, "/api/v1/affiliations/"+aff.ID, map[string]string{"status": models.AffiliationRejected, "playerId": player.ID})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("INVALID_STATUS", s.errorCode(w))

	w = s.do(http.MethodGet, "/api/v1/affiliations?agentId="+agent.ID+"&status=accepted", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var views []affiliations.View
	s.decode(w, &views)
	s.Require().Len(views, 1)
	s.Require().NotNil(views[0].Player)
	s.Equal(player.ID, views[0].Player.ID)
	s.Require().NotNil(views[0].Agent)
	s.Equal(agent.ID, views[0].Agent.ID)
}

func (s *HandlersTestSuite) TestAffiliationRemoveWithBlock() {
	agent := s.createUser(models.RoleAgent, "Elena", "Moretti")
	player := s.createUser(models.RolePlayer, "Davide", "Costa")

	aff := s.requestAffiliation(agent, player)
	w := s.do(http.MethodPut, "/api/v1/affiliations/"+aff.ID, map[string]string{"status": models.AffiliationAccepted, "playerId": player.ID})
	s.Require().Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodDelete, "/api/v1/affiliations/"+aff.ID+"?agentId="+agent.ID+"&block=true", nil)
	s.Equal(http.StatusForbidden, w.Code)

	w = s.do(http.MethodDelete, "/api/v1/affiliations/"+aff.ID, nil)
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodDelete, "/api/v1/affiliations/"+aff.ID+"?playerId="+player.ID+"&block=true", nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var removed dto.RemoveAffiliationResponse
	s.decode(w, &removed)
	s.True(removed.Success)
	s.True(removed.Blocked)

	n := s.lastNotification(agent.ID)
	s.Equal(notifications.TypeAffiliationRemoved, n.Type)
	s.Equal(player.ID, n.Metadata["playerId"])

	w = s.do(http.MethodGet, "/api/v1/blocked-agents?playerId="+player.ID, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var blocked []models.BlockedAgent
	s.decode(w, &blocked)
	s.Require().Len(blocked, 1)
	s.Equal(agent.ID, blocked[0].AgentID)

	w = s.do(http.MethodPost, "/api/v1/affiliations", map[string]string{"agentId": agent.ID, "playerId": player.ID})
	s.Equal(http.StatusForbidden, w.Code)
	s.Equal("AGENT_BLOCKED", s.errorCode(w))

	w = s.do(http.MethodDelete, "/api/v1/blocked-agents?playerId="+player.ID+"&agentId="+agent.ID, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	s.requestAffiliation(agent, player)
}

func (s *HandlersTestSuite) TestRemovePendingAffiliationIsSilent() {
	agent := s.fakeUser(models.RoleAgent)
	player := s.fakeUser(models.RolePlayer)
	aff := s.requestAffiliation(agent, player)

	w := s.do(http.MethodDelete, "/api/v1/affiliations/"+aff.ID+"?agentId="+agent.ID, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Empty(s.notificationsFor(agent.ID))

	w = s.do(http.MethodDelete, "/api/v1/affiliations/"+aff.ID+"?agentId="+agent.ID, nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlersTestSuite) TestBlockAgentDirectly() {
	agent := s.fakeUser(models.RoleAgent)
	player := s.fakeUser(models.RolePlayer)
	s.tokens.Add("player", player.ID)

	w := s.request(http.MethodPost, "/api/v1/blocked-agents", map[string]string{"agentId": agent.ID, "reason": "Troppi messaggi"}, "player")
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var ba models.BlockedAgent
	s.decode(w, &ba)
	s.Equal(player.ID, ba.PlayerID)
	s.Equal("Troppi messaggi", ba.Reason)

	w = s.request(http.MethodPost, "/api/v1/blocked-agents", map[string]string{"agentId": agent.ID}, "player")
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodDelete, "/api/v1/blocked-agents?playerId="+player.ID+"&agentId=someone-else", nil)
	s.Equal(http.StatusNotFound, w.Code)
}
