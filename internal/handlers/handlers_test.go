package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/gin-gonic/gin"
	"github.com/simolima/sportlink-demo-sub001/internal/affiliations"
	"github.com/simolima/sportlink-demo-sub001/internal/auth"
	"github.com/simolima/sportlink-demo-sub001/internal/database"
	"github.com/simolima/sportlink-demo-sub001/internal/kernel"
	"github.com/simolima/sportlink-demo-sub001/internal/logger"
	"github.com/simolima/sportlink-demo-sub001/internal/middleware"
	"github.com/simolima/sportlink-demo-sub001/internal/models"
	"github.com/simolima/sportlink-demo-sub001/internal/notifications"
	"github.com/simolima/sportlink-demo-sub001/internal/realtime"
	"github.com/simolima/sportlink-demo-sub001/internal/repository"
	"github.com/simolima/sportlink-demo-sub001/internal/search"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	logger.InitializeForTest()
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// HandlersTestSuite runs the REST API against an in-memory sqlite database
type HandlersTestSuite struct {
	suite.Suite
	db       *gorm.DB
	router   *gin.Engine
	handlers *Handlers
	hub      *realtime.Hub
	tokens   *auth.MockTokenValidator
	now      time.Time
}

func TestHandlersSuite(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}

func (s *HandlersTestSuite) SetupTest() {
	db, err := database.OpenSQLite(":memory:")
	s.Require().NoError(err)
	s.Require().NoError(database.MigrateDB(db))
	s.db = db

	users := repository.NewUserRepository(db)
	s.hub = realtime.NewHub(time.Hour)
	notifier := notifications.NewService(db, s.hub)
	s.tokens = auth.NewMockTokenValidator()

	k := kernel.New().
		SetDB(db).
		SetHub(s.hub).
		SetAuth(s.tokens).
		SetUsers(users).
		SetSearch(search.NewService(nil, users, search.DefaultBreakerConfig())).
		SetNotifications(notifier).
		SetAffiliations(affiliations.NewService(db, notifier))

	s.now = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	s.handlers = NewHandlers(k)
	s.handlers.SetClock(func() time.Time { return s.now })

	s.router = gin.New()
	s.router.Use(middleware.OptionalAuth(s.tokens, false))
	s.router.GET("/health", s.handlers.Health)
	s.handlers.RegisterRoutes(s.router.Group("/api/v1"))
}

func (s *HandlersTestSuite) TearDownTest() {
	s.hub.Shutdown()
}

// request sends body as JSON; a non-empty token is sent as a bearer token
func (s *HandlersTestSuite) request(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlersTestSuite) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	return s.request(method, path, body, "")
}

func (s *HandlersTestSuite) decode(w *httptest.ResponseRecorder, v interface{}) {
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func (s *HandlersTestSuite) errorCode(w *httptest.ResponseRecorder) string {
	var body map[string]interface{}
	s.decode(w, &body)
	code, _ := body["error"].(string)
	return code
}

func (s *HandlersTestSuite) createUser(role, first, last string) *models.User {
	u := &models.User{
		Email:     gofakeit.Email(),
		FirstName: first,
		LastName:  last,
		Role:      role,
		City:      gofakeit.City(),
		Sports:    models.StringList{"Calcio"},
	}
	s.Require().NoError(s.db.Create(u).Error)
	return u
}

func (s *HandlersTestSuite) fakeUser(role string) *models.User {
	return s.createUser(role, gofakeit.FirstName(), gofakeit.LastName())
}

func (s *HandlersTestSuite) notificationsFor(userID string) []models.Notification {
	var list []models.Notification
	s.Require().NoError(s.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&list).Error)
	return list
}

func (s *HandlersTestSuite) lastNotification(userID string) models.Notification {
	list := s.notificationsFor(userID)
	s.Require().NotEmpty(list, "no notification for %s", userID)
	return list[len(list)-1]
}

func (s *HandlersTestSuite) TestHealth() {
	w := s.do(http.MethodGet, "/health", nil)
	s.Equal(http.StatusOK, w.Code)

	var body map[string]interface{}
	s.decode(w, &body)
	s.Equal("ok", body["status"])
	s.Equal("sprinta-backend", body["service"])
	s.Contains(body, "search")
	s.Contains(body, "realtime")
}

func (s *HandlersTestSuite) TestCreateUser() {
	w := s.do(http.MethodPost, "/api/v1/users", map[string]interface{}{
		"email":     "  Marco.Rossi@Example.com ",
		"firstName": "Marco",
		"lastName":  "Rossi",
		"role":      "Player",
		"birthDate": "2001-05-17",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var u models.User
	s.decode(w, &u)
	s.Equal("marco.rossi@example.com", u.Email)
	s.Equal(models.RolePlayer, u.Role)
	s.NotEmpty(u.ID)

	w = s.do(http.MethodPost, "/api/v1/users", map[string]string{"email": "MARCO.ROSSI@example.com"})
	s.Equal(http.StatusConflict, w.Code)
	s.Equal("email_exists", s.errorCode(w))
}

func (s *HandlersTestSuite) TestCreateUserValidation() {
	w := s.do(http.MethodPost, "/api/v1/users", map[string]string{"firstName": "Anna"})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/v1/users", map[string]string{"email": "not-an-email"})
	s.Equal(http.StatusUnprocessableEntity, w.Code)

	w = s.do(http.MethodPost, "/api/v1/users", map[string]string{"email": "a@example.com", "birthDate": "yesterday"})
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlersTestSuite) TestListAndUpdateUsers() {
	player := s.fakeUser(models.RolePlayer)
	s.fakeUser(models.RoleCoach)

	w := s.do(http.MethodGet, "/api/v1/users?role=Player", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var list []models.User
	s.decode(w, &list)
	s.Require().Len(list, 1)
	s.Equal(player.ID, list[0].ID)

	w = s.do(http.MethodPut, "/api/v1/users/"+player.ID, map[string]string{"bio": "Centrocampista", "city": "Torino"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var updated models.User
	s.decode(w, &updated)
	s.Equal("Centrocampista", updated.Bio)
	s.Equal("Torino", updated.City)

	w = s.do(http.MethodGet, "/api/v1/users/missing", nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlersTestSuite) TestTokenIdentityWins() {
	player := s.fakeUser(models.RolePlayer)
	other := s.fakeUser(models.RolePlayer)
	s.tokens.Add("player-token", player.ID)

	w := s.request(http.MethodPut, "/api/v1/users/"+other.ID, map[string]string{"bio": "x"}, "player-token")
	s.Equal(http.StatusForbidden, w.Code)

	w = s.request(http.MethodPut, "/api/v1/users/"+player.ID, map[string]string{"bio": "mine"}, "player-token")
	s.Equal(http.StatusOK, w.Code)

	w = s.request(http.MethodGet, "/api/v1/users", nil, "bogus")
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *HandlersTestSuite) TestDeleteUser() {
	u := s.fakeUser(models.RoleCoach)

	w := s.do(http.MethodDelete, "/api/v1/users/"+u.ID, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/v1/users/"+u.ID, nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlersTestSuite) TestSearchAthletesAndProfessionals() {
	striker := s.createUser(models.RolePlayer, "Paolo", "Bianchi")
	s.Require().NoError(s.db.Model(striker).Updates(map[string]interface{}{"city": "Milano", "bio": "Attaccante veloce"}).Error)
	s.createUser(models.RolePlayer, "Giulia", "Neri")
	coach := s.createUser(models.RoleCoach, "Sara", "Conti")
	s.createUser(models.RoleAgent, "Dario", "Fontana")

	w := s.do(http.MethodGet, "/api/v1/search/athletes?searchTerm=attaccante", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var res search.Result
	s.decode(w, &res)
	s.Equal(int64(1), res.Total)
	s.Require().Len(res.Data, 1)
	s.Equal(striker.ID, res.Data[0].ID)
	s.Equal(20, res.Limit)

	w = s.do(http.MethodGet, "/api/v1/search/professionals?roleType=Coach", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(w, &res)
	s.Require().Len(res.Data, 1)
	s.Equal(coach.ID, res.Data[0].ID)

	w = s.do(http.MethodGet, "/api/v1/search/professionals?limit=1", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(w, &res)
	s.Equal(int64(2), res.Total)
	s.Len(res.Data, 1)
	s.True(res.HasMore)

	w = s.do(http.MethodGet, "/api/v1/search/professionals?roleType=Player", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(w, &res)
	s.Equal(int64(2), res.Total, "an explicit roleType overrides the non-player default")
}

func (s *HandlersTestSuite) TestCareerExperiences() {
	u := s.fakeUser(models.RolePlayer)

	w := s.do(http.MethodPost, "/api/v1/career-experiences", map[string]interface{}{
		"userId": u.ID, "club": "AC Monza", "role": "Player", "startDate": "2019-07-01", "endDate": "2021-06-30",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	w = s.do(http.MethodPost, "/api/v1/career-experiences", map[string]interface{}{
		"userId": u.ID, "club": "Como 1907", "role": "Player", "startDate": "2021-07-01", "current": true,
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/v1/career-experiences?userId="+u.ID, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var list []models.CareerExperience
	s.decode(w, &list)
	s.Require().Len(list, 2)
	s.Equal("Como 1907", list[0].Club)

	w = s.do(http.MethodPost, "/api/v1/career-experiences", map[string]interface{}{"userId": u.ID, "role": "Player"})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodDelete, "/api/v1/career-experiences/"+list[1].ID, nil)
	s.Equal(http.StatusOK, w.Code)
	w = s.do(http.MethodDelete, "/api/v1/career-experiences/"+list[1].ID, nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlersTestSuite) TestVerifications() {
	verifier := s.createUser(models.RoleCoach, "Sara", "Conti")
	verified := s.fakeUser(models.RolePlayer)

	w := s.do(http.MethodPost, "/api/v1/verifications", map[string]string{"verifierId": verifier.ID, "verifiedId": verifier.ID})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/v1/verifications", map[string]string{"verifierId": verifier.ID, "verifiedId": "missing"})
	s.Equal(http.StatusNotFound, w.Code)

	w = s.do(http.MethodPost, "/api/v1/verifications", map[string]string{"verifierId": verifier.ID, "verifiedId": verified.ID})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	n := s.lastNotification(verified.ID)
	s.Equal(notifications.TypeProfileVerified, n.Type)
	s.Equal("Sara Conti ha verificato il tuo profilo", n.Message)
	s.Equal(verifier.ID, n.Metadata["fromUserId"])

	w = s.do(http.MethodPost, "/api/v1/verifications", map[string]string{"verifierId": verifier.ID, "verifiedId": verified.ID})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodDelete, "/api/v1/verifications?verifierId="+verifier.ID+"&verifiedId="+verified.ID, nil)
	s.Equal(http.StatusOK, w.Code)
	w = s.do(http.MethodDelete, "/api/v1/verifications?verifierId="+verifier.ID+"&verifiedId="+verified.ID, nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlersTestSuite) TestFavorites() {
	scout := s.createUser(models.RoleTalentScout, "Elena", "Galli")
	player := s.fakeUser(models.RolePlayer)

	w := s.do(http.MethodPost, "/api/v1/favorites", map[string]string{"userId": scout.ID, "favoriteId": scout.ID})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/v1/favorites", map[string]string{"userId": scout.ID, "favoriteId": player.ID})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	n := s.lastNotification(player.ID)
	s.Equal(notifications.TypeAddedToFavorites, n.Type)
	s.Equal("Elena Galli ti ha aggiunto ai preferiti", n.Message)

	w = s.do(http.MethodPost, "/api/v1/favorites", map[string]string{"userId": scout.ID, "favoriteId": player.ID})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/v1/favorites?userId="+scout.ID, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var list []models.Favorite
	s.decode(w, &list)
	s.Len(list, 1)

	w = s.do(http.MethodDelete, "/api/v1/favorites?userId="+scout.ID+"&favoriteId="+player.ID, nil)
	s.Equal(http.StatusOK, w.Code)
	w = s.do(http.MethodDelete, "/api/v1/favorites?userId="+scout.ID+"&favoriteId="+player.ID, nil)
	s.Equal(http.StatusNotFound, w.Code)
}
