package handlers

import (
	"net/http"

	"github.com/simolima/sportlink-demo-sub001/internal/dto"
	"github.com/simolima/sportlink-demo-sub001/internal/models"
	"github.com/simolima/sportlink-demo-sub001/internal/notifications"
)

func (s *HandlersTestSuite) createClub(owner *models.User, name, city string) models.Club {
	w := s.do(http.MethodPost, "/api/v1/clubs", map[string]interface{}{
		"name":        name,
		"sports":      []string{"Calcio"},
		"city":        city,
		"description": "Settore giovanile e prima squadra",
		"createdBy":   owner.ID,
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var club models.Club
	s.decode(w, &club)
	return club
}

func (s *HandlersTestSuite) TestCreateClubMakesCreatorAdmin() {
	owner := s.fakeUser(models.RoleSportingDirector)
	club := s.createClub(owner, "US Pergolettese", "Crema")
	s.Equal(int64(1), club.MembersCount)

	var m models.ClubMembership
	s.Require().NoError(s.db.Where("club_id = ? AND user_id = ?", club.ID, owner.ID).First(&m).Error)
	s.Equal(models.ClubRoleAdmin, m.Role)
	s.ElementsMatch(models.AllClubPermissions, m.Permissions)
	s.True(m.IsActive)

	w := s.do(http.MethodPost, "/api/v1/clubs", map[string]interface{}{"name": "Senza città", "sports": []string{"Calcio"}, "createdBy": owner.ID})
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlersTestSuite) TestListClubsFilters() {
	owner := s.fakeUser(models.RoleSportingDirector)
	s.createClub(owner, "Atletico Brescia", "Brescia")
	s.createClub(owner, "Volley Modena", "Modena")

	w := s.do(http.MethodGet, "/api/v1/clubs?city=brescia", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var list []models.Club
	s.decode(w, &list)
	s.Require().Len(list, 1)
	s.Equal("Atletico Brescia", list[0].Name)
	s.Equal(int64(1), list[0].MembersCount)

	w = s.do(http.MethodGet, "/api/v1/clubs?search=VOLLEY", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(w, &list)
	s.Require().Len(list, 1)
	s.Equal("Volley Modena", list[0].Name)

	w = s.do(http.MethodGet, "/api/v1/clubs?sport=Basket", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(w, &list)
	s.Empty(list)

	s.createClub(owner, "Rugby 100% Lodi", "Lodi")
	w = s.do(http.MethodGet, "/api/v1/clubs?search=%25", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(w, &list)
	s.Require().Len(list, 1, "percent matches literally")
	s.Equal("Rugby 100% Lodi", list[0].Name)
}

func (s *HandlersTestSuite) TestClubPermissionsEnforcedForTokens() {
	owner := s.fakeUser(models.RoleSportingDirector)
	outsider := s.fakeUser(models.RoleCoach)
	club := s.createClub(owner, "AS Lecco", "Lecco")
	s.tokens.Add("owner", owner.ID)
	s.tokens.Add("outsider", outsider.ID)

	w := s.request(http.MethodPut, "/api/v1/clubs/"+club.ID, map[string]string{"city": "Como"}, "outsider")
	s.Equal(http.StatusForbidden, w.Code)

	w = s.request(http.MethodPut, "/api/v1/clubs/"+club.ID, map[string]string{"website": "https://aslecco.it"}, "owner")
	s.Require().Equal(http.StatusOK, w.Code)
	var updated models.Club
	s.decode(w, &updated)
	s.Equal("https://aslecco.it", updated.Website)

	w = s.request(http.MethodDelete, "/api/v1/clubs/"+club.ID, nil, "owner")
	s.Equal(http.StatusOK, w.Code)
	w = s.do(http.MethodDelete, "/api/v1/clubs/"+club.ID, nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlersTestSuite) TestMembershipLifecycle() {
	owner := s.fakeUser(models.RoleSportingDirector)
	coach := s.fakeUser(models.RoleCoach)
	club := s.createClub(owner, "Pro Vercelli", "Vercelli")

	w := s.do(http.MethodPost, "/api/v1/club-memberships", map[string]interface{}{
		"clubId": club.ID, "userId": coach.ID, "role": "Coach", "permissions": []string{models.PermissionManageApplications},
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var m models.ClubMembership
	s.decode(w, &m)

	granted := s.lastNotification(coach.ID)
	s.Equal(notifications.TypePermissionGranted, granted.Type)
	s.Equal(club.ID, granted.Metadata["clubId"])
	s.Equal(models.PermissionManageApplications, granted.Metadata["permission"])

	w = s.do(http.MethodPost, "/api/v1/club-memberships", map[string]interface{}{"clubId": club.ID, "userId": coach.ID})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/v1/club-memberships", map[string]interface{}{"clubId": club.ID, "userId": coach.ID, "role": "Presidente"})
	s.Equal(http.StatusUnprocessableEntity, w.Code)

	w = s.do(http.MethodPut, "/api/v1/club-memberships/"+m.ID, map[string]interface{}{"permissions": []string{models.PermissionManageMembers}})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var types []string
	for _, n := range s.notificationsFor(coach.ID) {
		types = append(types, n.Type)
	}
	s.Equal([]string{
		notifications.TypePermissionGranted,
		notifications.TypePermissionGranted,
		notifications.TypePermissionRevoked,
	}, types)

	w = s.do(http.MethodPut, "/api/v1/club-memberships/"+m.ID, map[string]interface{}{"isActive": false})
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(w, &m)
	s.Equal(models.MembershipPast, m.Status)
	s.NotNil(m.LeftAt)

	w = s.do(http.MethodGet, "/api/v1/club-memberships?clubId="+club.ID, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var active []models.ClubMembership
	s.decode(w, &active)
	s.Require().Len(active, 1)
	s.Equal(owner.ID, active[0].UserID)

	// An ended membership does not block a new one.
	w = s.do(http.MethodPost, "/api/v1/club-memberships", map[string]interface{}{"clubId": club.ID, "userId": coach.ID, "role": "Staff"})
	s.Equal(http.StatusCreated, w.Code, w.Body.String())
}

func (s *HandlersTestSuite) TestJoinRequestAcceptCreatesMembership() {
	owner := s.fakeUser(models.RoleSportingDirector)
	player := s.createUser(models.RolePlayer, "Luca", "Verdi")
	club := s.createClub(owner, "Feralpisalò", "Salò")

	w := s.do(http.MethodPost, "/api/v1/club-join-requests", map[string]string{
		"clubId": club.ID, "userId": player.ID, "requestedRole": "Player", "message": "Vorrei un provino",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var jr models.ClubJoinRequest
	s.decode(w, &jr)
	s.Equal(models.JoinRequestPending, jr.Status)

	n := s.lastNotification(owner.ID)
	s.Equal(notifications.TypeClubJoinRequest, n.Type)
	s.Equal(jr.ID, n.Metadata["requestId"])

	w = s.do(http.MethodPost, "/api/v1/club-join-requests", map[string]string{"clubId": club.ID, "userId": player.ID, "requestedRole": "Player"})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/v1/club-join-requests/"+jr.ID+"/accept", nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var resp dto.AcceptJoinResponse
	s.decode(w, &resp)
	s.False(resp.AlreadyMember)
	s.Require().NotNil(resp.Membership)
	s.Equal(models.ClubRolePlayer, resp.Membership.Role)
	s.Equal(models.JoinRequestAccepted, resp.Request.Status)

	s.Equal(notifications.TypeClubJoinAccepted, s.lastNotification(player.ID).Type)

	w = s.do(http.MethodPost, "/api/v1/club-join-requests/"+jr.ID+"/accept", nil)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("INVALID_STATUS", s.errorCode(w))

	w = s.do(http.MethodPost, "/api/v1/club-join-requests/missing/accept", nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlersTestSuite) TestJoinRequestAcceptForExistingMember() {
	owner := s.fakeUser(models.RoleSportingDirector)
	player := s.fakeUser(models.RolePlayer)
	club := s.createClub(owner, "Juve Stabia", "Castellammare")

	w := s.do(http.MethodPost, "/api/v1/club-memberships", map[string]interface{}{"clubId": club.ID, "userId": player.ID})
	s.Require().Equal(http.StatusCreated, w.Code)

	w = s.do(http.MethodPost, "/api/v1/club-join-requests", map[string]string{"clubId": club.ID, "userId": player.ID, "requestedRole": "Player"})
	s.Require().Equal(http.StatusCreated, w.Code)
	var jr models.ClubJoinRequest
	s.decode(w, &jr)

	w = s.do(http.MethodPost, "/api/v1/club-join-requests/"+jr.ID+"/accept", nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var resp dto.AcceptJoinResponse
	s.decode(w, &resp)
	s.True(resp.AlreadyMember)

	var count int64
	s.Require().NoError(s.db.Model(&models.ClubMembership{}).Where("club_id = ? AND user_id = ?", club.ID, player.ID).Count(&count).Error)
	s.Equal(int64(1), count)
}

func (s *HandlersTestSuite) TestJoinRequestReject() {
	owner := s.fakeUser(models.RoleSportingDirector)
	player := s.fakeUser(models.RolePlayer)
	club := s.createClub(owner, "Virtus Verona", "Verona")

	w := s.do(http.MethodPost, "/api/v1/club-join-requests", map[string]string{"clubId": club.ID, "userId": player.ID, "requestedRole": "Player"})
	s.Require().Equal(http.StatusCreated, w.Code)
	var jr models.ClubJoinRequest
	s.decode(w, &jr)

	w = s.do(http.MethodPut, "/api/v1/club-join-requests/"+jr.ID, map[string]string{"status": "maybe"})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPut, "/api/v1/club-join-requests/"+jr.ID, map[string]string{"status": models.JoinRequestRejected, "respondedBy": owner.ID})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.decode(w, &jr)
	s.Equal(models.JoinRequestRejected, jr.Status)
	s.NotNil(jr.RespondedAt)

	n := s.lastNotification(player.ID)
	s.Equal(notifications.TypeClubJoinRejected, n.Type)
	s.Equal("Richiesta rifiutata", n.Title)

	// A rejected request frees the slot for a new one.
	w = s.do(http.MethodPost, "/api/v1/club-join-requests", map[string]string{"clubId": club.ID, "userId": player.ID, "requestedRole": "Player"})
	s.Equal(http.StatusCreated, w.Code)
}
