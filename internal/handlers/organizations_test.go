package handlers

import (
	"net/http"

	"github.com/simolima/sportlink-demo-sub001/internal/dto"
	"github.com/simolima/sportlink-demo-sub001/internal/models"
)

func (s *HandlersTestSuite) TestPhysicalStatsUpsert() {
	u := s.fakeUser(models.RolePlayer)

	w := s.do(http.MethodGet, "/api/v1/physical-stats", nil)
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/v1/physical-stats?userId="+u.ID, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("null", w.Body.String())

	w = s.do(http.MethodPost, "/api/v1/physical-stats", map[string]interface{}{"userId": u.ID, "heightCm": 40})
	s.Equal(http.StatusUnprocessableEntity, w.Code)
	s.Equal("VALIDATION_ERROR", s.errorCode(w))

	w = s.do(http.MethodPost, "/api/v1/physical-stats", map[string]interface{}{"userId": u.ID, "weightKg": 301})
	s.Equal(http.StatusUnprocessableEntity, w.Code)

	w = s.do(http.MethodPost, "/api/v1/physical-stats", map[string]interface{}{
		"userId": u.ID, "heightCm": 183, "weightKg": 78.5, "dominantFoot": "right",
	})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPut, "/api/v1/physical-stats", map[string]interface{}{
		"userId": u.ID, "heightCm": 184, "weightKg": 80, "dominantHand": "left",
	})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var rows []models.PhysicalStats
	s.Require().NoError(s.db.Where("user_id = ?", u.ID).Find(&rows).Error)
	s.Require().Len(rows, 1, "one row per user")

	w = s.do(http.MethodGet, "/api/v1/physical-stats?userId="+u.ID, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var stats models.PhysicalStats
	s.decode(w, &stats)
	s.Require().NotNil(stats.HeightCm)
	s.Equal(184.0, *stats.HeightCm)
	s.Equal(80.0, *stats.WeightKg)
	s.Nil(stats.DominantFoot, "absent fields are cleared")
	s.Require().NotNil(stats.DominantHand)
	s.Equal("left", *stats.DominantHand)

	w = s.do(http.MethodPost, "/api/v1/physical-stats", map[string]interface{}{"userId": "missing", "heightCm": 180})
	s.Equal(http.StatusNotFound, w.Code)

	other := s.fakeUser(models.RolePlayer)
	s.tokens.Add("other-token", other.ID)
	w = s.request(http.MethodPost, "/api/v1/physical-stats", map[string]interface{}{"userId": u.ID, "heightCm": 170}, "other-token")
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *HandlersTestSuite) TestSportsOrganizations() {
	w := s.do(http.MethodPost, "/api/v1/sports-organizations", map[string]string{"name": "FC Cremona", "sport": "Calcio"})
	s.Equal(http.StatusBadRequest, w.Code)

	for _, name := range []string{"FC Cremona", "Cremona Rugby", "Pro Sesto"} {
		sport := "Calcio"
		if name == "Cremona Rugby" {
			sport = "Rugby"
		}
		w = s.do(http.MethodPost, "/api/v1/sports-organizations", map[string]string{"name": name, "country": "Italia", "city": "Cremona", "sport": sport})
		s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	}

	w = s.do(http.MethodPost, "/api/v1/sports-organizations", map[string]string{"name": "fc cremona", "country": "ITALIA", "sport": "calcio"})
	s.Equal(http.StatusConflict, w.Code)

	w = s.do(http.MethodGet, "/api/v1/sports-organizations?q=cremona", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var list []models.SportsOrganization
	s.decode(w, &list)
	s.Require().Len(list, 2)
	s.Equal("Cremona Rugby", list[0].Name)
	s.Equal("FC Cremona", list[1].Name)

	w = s.do(http.MethodGet, "/api/v1/sports-organizations?q=cremona&sport=Calcio", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(w, &list)
	s.Require().Len(list, 1)
	s.Equal("FC Cremona", list[0].Name)
}

func (s *HandlersTestSuite) TestOrganizationRequestApproval() {
	requester := s.fakeUser(models.RoleCoach)
	admin := s.fakeUser(models.RoleSportingDirector)

	body := map[string]string{
		"requestedName":    "ASD Valle Seriana",
		"requestedCountry": "Italia",
		"requestedCity":    "Albino",
		"requestedSport":   "Pallavolo",
		"additionalInfo":   "Serie C femminile",
		"requestedBy":      requester.ID,
	}
	w := s.do(http.MethodPost, "/api/v1/organization-requests", body)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var created models.OrganizationRequest
	s.decode(w, &created)
	s.Equal(models.OrganizationRequestPending, created.Status)
	s.Equal(requester.ID, created.RequestedBy)

	w = s.do(http.MethodPost, "/api/v1/organization-requests", map[string]string{"requestedName": "X", "requestedBy": requester.ID})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/v1/organization-requests?status=pending", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var pending []models.OrganizationRequest
	s.decode(w, &pending)
	s.Require().Len(pending, 1)
	s.Require().NotNil(pending[0].Requester)
	s.Equal(requester.FirstName, pending[0].Requester.FirstName)
	s.Nil(pending[0].Reviewer)

	w = s.do(http.MethodPatch, "/api/v1/organization-requests/"+created.ID+"/approve", map[string]string{})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPatch, "/api/v1/organization-requests/missing/approve", map[string]string{"reviewedBy": admin.ID})
	s.Equal(http.StatusNotFound, w.Code)

	w = s.do(http.MethodPatch, "/api/v1/organization-requests/"+created.ID+"/approve", map[string]string{"reviewedBy": admin.ID})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var approved dto.ApproveOrganizationResponse
	s.decode(w, &approved)
	s.Equal("ASD Valle Seriana", approved.Organization.Name)
	s.Equal("Albino", approved.Organization.City)
	s.Equal(models.OrganizationRequestApproved, approved.Request.Status)
	s.Require().NotNil(approved.Request.CreatedOrganizationID)
	s.Equal(approved.Organization.ID, *approved.Request.CreatedOrganizationID)
	s.Require().NotNil(approved.Request.ReviewedAt)
	s.True(approved.Request.ReviewedAt.Equal(s.now))

	var stored models.OrganizationRequest
	s.Require().NoError(s.db.Where("id = ?", created.ID).First(&stored).Error)
	s.Equal(models.OrganizationRequestApproved, stored.Status)
	s.Require().NotNil(stored.ReviewedBy)
	s.Equal(admin.ID, *stored.ReviewedBy)

	w = s.do(http.MethodPatch, "/api/v1/organization-requests/"+created.ID+"/approve", map[string]string{"reviewedBy": admin.ID})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("INVALID_STATUS", s.errorCode(w))

	var orgs int64
	s.Require().NoError(s.db.Model(&models.SportsOrganization{}).Count(&orgs).Error)
	s.Equal(int64(1), orgs, "a second approval creates nothing")

	w = s.do(http.MethodPost, "/api/v1/organization-requests", body)
	s.Require().Equal(http.StatusConflict, w.Code)
	var conflict struct {
		Error   string `json:"error"`
		Details struct {
			Organization models.SportsOrganization `json:"organization"`
		} `json:"details"`
	}
	s.decode(w, &conflict)
	s.Equal("CONFLICT", conflict.Error)
	s.Equal(approved.Organization.ID, conflict.Details.Organization.ID)

	w = s.do(http.MethodGet, "/api/v1/organization-requests?userId="+requester.ID, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var mine []models.OrganizationRequest
	s.decode(w, &mine)
	s.Require().Len(mine, 1)
	s.Require().NotNil(mine[0].Reviewer)
	s.Equal(admin.FirstName, mine[0].Reviewer.FirstName)
}

func (s *HandlersTestSuite) TestMatchRanksPlayers() {
	setProfile := func(u *models.User, city string, years int) {
		updates := map[string]interface{}{"city": city}
		if years > 0 {
			updates["birth_date"] = s.now.AddDate(-years, 0, -1)
		} else {
			updates["birth_date"] = nil
		}
		s.Require().NoError(s.db.Model(u).Updates(updates).Error)
	}

	young := s.createUser(models.RolePlayer, "Luca", "Moretti")
	setProfile(young, "Milano", 20)
	veteran := s.createUser(models.RolePlayer, "Andrea", "Galli")
	setProfile(veteran, "Roma", 30)
	local := s.createUser(models.RolePlayer, "Nicola", "Villa")
	setProfile(local, "Milano Marittima", 0)
	coach := s.createUser(models.RoleCoach, "Sara", "Conti")
	setProfile(coach, "Milano", 40)

	w := s.do(http.MethodPost, "/api/v1/match", map[string]interface{}{"ageMin": 18, "ageMax": 25, "city": "milano"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var res dto.MatchResponse
	s.decode(w, &res)
	s.Require().Len(res.Candidates, 3, "only players are scored")

	s.Equal(young.ID, res.Candidates[0].ID)
	s.Equal("Luca Moretti", res.Candidates[0].Name)
	s.Equal(20, res.Candidates[0].Score)
	s.Equal([]string{"age above minimum", "age below maximum", "city match"}, res.Candidates[0].Why)

	s.Equal(local.ID, res.Candidates[1].ID)
	s.Equal(10, res.Candidates[1].Score)

	s.Equal(veteran.ID, res.Candidates[2].ID)
	s.Equal(5, res.Candidates[2].Score)
	s.Equal([]string{"age above minimum"}, res.Candidates[2].Why)
}
