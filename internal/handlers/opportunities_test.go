package handlers

import (
	"net/http"
	"time"

	"github.com/simolima/sportlink-demo-sub001/internal/models"
	"github.com/simolima/sportlink-demo-sub001/internal/notifications"
)

type opportunityFixture struct {
	owner       *models.User
	club        models.Club
	opportunity models.Opportunity
}

func (s *HandlersTestSuite) createOpportunity(expiry string) opportunityFixture {
	owner := s.createUser(models.RoleSportingDirector, "Giorgio", "Ferri")
	club := s.createClub(owner, "Calcio Lumezzane", "Lumezzane")

	w := s.do(http.MethodPost, "/api/v1/opportunities", map[string]interface{}{
		"clubId":      club.ID,
		"title":       "Cercasi portiere Under 19",
		"description": "Stagione 2026/27, campionato regionale",
		"type":        models.OpportunityPlayerSearch,
		"sport":       "Calcio",
		"city":        "Lumezzane",
		"expiryDate":  expiry,
		"createdBy":   owner.ID,
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var o models.Opportunity
	s.decode(w, &o)
	return opportunityFixture{owner: owner, club: club, opportunity: o}
}

func (s *HandlersTestSuite) apply(opportunityID, applicantID string) *models.Application {
	w := s.do(http.MethodPost, "/api/v1/applications", map[string]string{
		"opportunityId": opportunityID, "applicantId": applicantID, "message": "Disponibile da subito",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var app models.Application
	s.decode(w, &app)
	return &app
}

func (s *HandlersTestSuite) TestCreateOpportunityValidation() {
	owner := s.fakeUser(models.RoleSportingDirector)
	club := s.createClub(owner, "Ospitaletto", "Ospitaletto")

	w := s.do(http.MethodPost, "/api/v1/opportunities", map[string]interface{}{
		"clubId": club.ID, "description": "x", "expiryDate": "2026-04-01", "createdBy": owner.ID,
	})
	s.Require().Equal(http.StatusBadRequest, w.Code)
	var body map[string]interface{}
	s.decode(w, &body)
	s.Equal("title", body["field"])

	w = s.do(http.MethodPost, "/api/v1/opportunities", map[string]interface{}{
		"clubId": club.ID, "title": "t", "description": "d", "expiryDate": "2026-04-01", "type": "Tryout", "createdBy": owner.ID,
	})
	s.Equal(http.StatusUnprocessableEntity, w.Code)

	w = s.do(http.MethodPost, "/api/v1/opportunities", map[string]interface{}{
		"clubId": "missing", "title": "t", "description": "d", "expiryDate": "2026-04-01", "createdBy": owner.ID,
	})
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlersTestSuite) TestCreateOpportunityNotifiesClubFollowers() {
	owner := s.fakeUser(models.RoleSportingDirector)
	club := s.createClub(owner, "Rugby Calvisano", "Calvisano")
	fan := s.fakeUser(models.RolePlayer)

	w := s.do(http.MethodPost, "/api/v1/follows", map[string]string{"followerId": fan.ID, "followingId": club.ID})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/v1/opportunities", map[string]interface{}{
		"clubId": club.ID, "title": "Mediano di mischia", "description": "Serie A", "expiryDate": "2026-05-01", "createdBy": owner.ID,
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var o models.Opportunity
	s.decode(w, &o)
	s.Equal(models.OpportunityOpen, o.Status)

	n := s.lastNotification(fan.ID)
	s.Equal(notifications.TypeNewOpportunity, n.Type)
	s.Equal(o.ID, n.Metadata["opportunityId"])
	s.Equal(club.ID, n.Metadata["clubId"])
}

func (s *HandlersTestSuite) TestListOpportunitiesActiveOnly() {
	f := s.createOpportunity("2026-03-10")
	expired := s.createOpportunity("2026-03-09")

	w := s.do(http.MethodGet, "/api/v1/opportunities", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var list []models.Opportunity
	s.decode(w, &list)
	s.Require().Len(list, 1)
	s.Equal(f.opportunity.ID, list[0].ID)

	w = s.do(http.MethodGet, "/api/v1/opportunities?activeOnly=false", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(w, &list)
	s.Len(list, 2)

	w = s.do(http.MethodPut, "/api/v1/opportunities/"+f.opportunity.ID, map[string]interface{}{"isActive": false})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var closed models.Opportunity
	s.decode(w, &closed)
	s.Equal(models.OpportunityClosed, closed.Status)

	w = s.do(http.MethodGet, "/api/v1/opportunities", nil)
	s.decode(w, &list)
	s.Empty(list)

	w = s.do(http.MethodDelete, "/api/v1/opportunities/"+expired.opportunity.ID, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	w = s.do(http.MethodGet, "/api/v1/opportunities/"+expired.opportunity.ID, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var archived models.Opportunity
	s.decode(w, &archived)
	s.Equal(models.OpportunityArchived, archived.Status)
}

func (s *HandlersTestSuite) TestListOpportunitiesFilters() {
	f := s.createOpportunity("2026-06-30")

	w := s.do(http.MethodGet, "/api/v1/opportunities?city=LUMEZ&search=portiere", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var list []models.Opportunity
	s.decode(w, &list)
	s.Require().Len(list, 1)
	s.Equal(f.opportunity.ID, list[0].ID)

	w = s.do(http.MethodGet, "/api/v1/opportunities?sport=basket", nil)
	s.decode(w, &list)
	s.Empty(list)
}

func (s *HandlersTestSuite) TestApplicationFlow() {
	f := s.createOpportunity("2026-06-30")
	player := s.createUser(models.RolePlayer, "Matteo", "Galli")

	app := s.apply(f.opportunity.ID, player.ID)
	s.Equal(models.ApplicationPending, app.Status)
	s.Equal(f.club.ID, app.ClubID)

	n := s.lastNotification(f.owner.ID)
	s.Equal(notifications.TypeNewApplication, n.Type)
	s.Equal(player.ID, n.Metadata["applicantId"])
	s.Equal("Matteo Galli", n.Metadata["applicantName"])
	s.Equal("Cercasi portiere Under 19", n.Metadata["opportunityTitle"])

	w := s.do(http.MethodPost, "/api/v1/applications", map[string]string{"opportunityId": f.opportunity.ID, "applicantId": player.ID})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/v1/opportunities/"+f.opportunity.ID, nil)
	var o models.Opportunity
	s.decode(w, &o)
	s.Equal(int64(1), o.ApplicationsCount)

	w = s.do(http.MethodPut, "/api/v1/applications/"+app.ID, map[string]string{"status": models.ApplicationInReview})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPut, "/api/v1/applications/"+app.ID, map[string]string{"status": models.ApplicationAccepted, "reviewedBy": f.owner.ID})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.decode(w, app)
	s.Equal(models.ApplicationAccepted, app.Status)
	s.Require().NotNil(app.ReviewedBy)
	s.Equal(f.owner.ID, *app.ReviewedBy)

	n = s.lastNotification(player.ID)
	s.Equal(notifications.TypeCandidacyAccepted, n.Type)
	s.Equal(f.opportunity.ID, n.Metadata["opportunityId"])

	w = s.do(http.MethodPut, "/api/v1/applications/"+app.ID, map[string]string{"status": models.ApplicationPending})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("INVALID_STATUS", s.errorCode(w))

	w = s.do(http.MethodPut, "/api/v1/applications/missing", map[string]string{"status": models.ApplicationAccepted})
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlersTestSuite) TestWithdrawAndReapply() {
	f := s.createOpportunity("2026-06-30")
	player := s.fakeUser(models.RolePlayer)
	app := s.apply(f.opportunity.ID, player.ID)

	w := s.do(http.MethodDelete, "/api/v1/applications/"+app.ID+"?withdraw=true", nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/v1/applications?opportunityId="+f.opportunity.ID, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var list []models.Application
	s.decode(w, &list)
	s.Empty(list)

	w = s.do(http.MethodGet, "/api/v1/applications?opportunityId="+f.opportunity.ID+"&status=withdrawn", nil)
	s.decode(w, &list)
	s.Len(list, 1)

	again := s.apply(f.opportunity.ID, player.ID)
	s.NotEqual(app.ID, again.ID)
}

func (s *HandlersTestSuite) TestAgentAppliesOnBehalfOfPlayer() {
	f := s.createOpportunity("2026-06-30")
	player := s.fakeUser(models.RolePlayer)
	agent := s.fakeUser(models.RoleAgent)
	s.tokens.Add("agent", agent.ID)

	w := s.request(http.MethodPost, "/api/v1/applications", map[string]string{
		"opportunityId": f.opportunity.ID, "applicantId": player.ID, "agentId": agent.ID,
	}, "agent")
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var app models.Application
	s.decode(w, &app)
	s.Equal(player.ID, app.ApplicantID)
	s.Require().NotNil(app.AgentID)
	s.Equal(agent.ID, *app.AgentID)

	w = s.do(http.MethodGet, "/api/v1/applications?agentId="+agent.ID, nil)
	var list []models.Application
	s.decode(w, &list)
	s.Len(list, 1)
}

func (s *HandlersTestSuite) TestApplyToExpiredOpportunity() {
	f := s.createOpportunity("2026-03-12")
	player := s.fakeUser(models.RolePlayer)
	s.now = s.now.Add(72 * time.Hour)

	w := s.do(http.MethodPost, "/api/v1/applications", map[string]string{"opportunityId": f.opportunity.ID, "applicantId": player.ID})
	s.Equal(http.StatusBadRequest, w.Code)
}
