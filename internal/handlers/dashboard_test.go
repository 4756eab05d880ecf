package handlers

import (
	"net/http"

	"github.com/simolima/sportlink-demo-sub001/internal/dto"
	"github.com/simolima/sportlink-demo-sub001/internal/models"
)

func (s *HandlersTestSuite) dashboard(userID string) dto.Dashboard {
	w := s.do(http.MethodGet, "/api/v1/dashboard/"+userID, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var d dto.Dashboard
	s.decode(w, &d)
	return d
}

func (s *HandlersTestSuite) TestPlayerAndAgentDashboards() {
	player := s.fakeUser(models.RolePlayer)
	agent := s.createUser(models.RoleAgent, "Roberto", "Marini")
	other := s.fakeUser(models.RoleAgent)
	f := s.createOpportunity("2026-06-30")

	accepted := s.requestAffiliation(agent, player)
	w := s.do(http.MethodPut, "/api/v1/affiliations/"+accepted.ID, map[string]string{"status": models.AffiliationAccepted, "playerId": player.ID})
	s.Require().Equal(http.StatusOK, w.Code)
	s.requestAffiliation(other, player)
	s.apply(f.opportunity.ID, player.ID)

	w = s.do(http.MethodPost, "/api/v1/messages", map[string]string{"senderId": agent.ID, "receiverId": player.ID, "text": "Ci sentiamo domani"})
	s.Require().Equal(http.StatusCreated, w.Code)

	d := s.dashboard(player.ID)
	s.Equal(models.RolePlayer, d.Role)
	s.Require().NotNil(d.AffiliationRequestsPending)
	s.Equal(int64(1), *d.AffiliationRequestsPending)
	s.Equal(int64(1), d.ApplicationsByStatus[models.ApplicationPending])
	s.Require().NotNil(d.Agent)
	s.Equal(agent.ID, d.Agent.ID)
	s.Equal(int64(1), d.UnreadMessages)
	s.Equal(int64(2), d.UnreadNotifications)
	s.Empty(d.Clubs)

	d = s.dashboard(agent.ID)
	s.Equal(int64(1), d.AffiliationsByStatus[models.AffiliationAccepted])
	s.Require().Len(d.Players, 1)
	s.Equal(player.ID, d.Players[0].ID)
	s.Nil(d.AffiliationRequestsPending)
}

func (s *HandlersTestSuite) TestClubManagerDashboard() {
	f := s.createOpportunity("2026-06-30")
	player := s.fakeUser(models.RolePlayer)
	s.apply(f.opportunity.ID, player.ID)

	w := s.do(http.MethodPost, "/api/v1/club-join-requests", map[string]string{"clubId": f.club.ID, "userId": player.ID, "requestedRole": "Player"})
	s.Require().Equal(http.StatusCreated, w.Code)

	d := s.dashboard(f.owner.ID)
	s.Require().Len(d.Clubs, 1)
	s.Equal(f.club.ID, d.Clubs[0].ClubID)
	s.Equal("Calcio Lumezzane", d.Clubs[0].Name)
	s.Require().NotNil(d.PendingJoinRequests)
	s.Equal(int64(1), *d.PendingJoinRequests)
	s.Require().NotNil(d.ApplicationsPending)
	s.Equal(int64(1), *d.ApplicationsPending)
}

func (s *HandlersTestSuite) TestDashboardUnknownUser() {
	w := s.do(http.MethodGet, "/api/v1/dashboard/nobody", nil)
	s.Equal(http.StatusNotFound, w.Code)
}
