package handlers

import (
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/simolima/sportlink-demo-sub001/internal/dto"
	"github.com/simolima/sportlink-demo-sub001/internal/errors"
	"github.com/simolima/sportlink-demo-sub001/internal/logger"
	"github.com/simolima/sportlink-demo-sub001/internal/models"
	"github.com/simolima/sportlink-demo-sub001/internal/notifications"
	"github.com/simolima/sportlink-demo-sub001/internal/repository"
	"github.com/simolima/sportlink-demo-sub001/internal/util"
	"go.uber.org/zap"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

func respondUserError(c *gin.Context, err error, what string) {
	switch {
	case stderrors.Is(err, repository.ErrUserNotFound):
		util.RespondNotFound(c, what)
	case stderrors.Is(err, repository.ErrEmailExists):
		util.RespondWithAPIError(c, errors.New(errors.ErrEmailExists, "email already registered").WithField("email"))
	case stderrors.Is(err, repository.ErrInvalidInput):
		util.RespondBadRequest(c, "invalid input")
	default:
		util.RespondWithError(c, err)
	}
}

// ListUsers returns users filtered by id, email or role
// GET /api/v1/users
func (h *Handlers) ListUsers(c *gin.Context) {
	role := c.Query("role")
	if r := models.NormalizeRole(role); r != "" {
		role = r
	}
	users, err := h.users.ListUsers(c.Request.Context(), repository.UserFilter{
		ID:    c.Query("id"),
		Email: c.Query("email"),
		Role:  role,
	})
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	if users == nil {
		users = []*models.User{}
	}
	c.JSON(http.StatusOK, users)
}

// GetUser returns one profile
// GET /api/v1/users/:id
func (h *Handlers) GetUser(c *gin.Context) {
	u, ok := h.lookupUser(c, c.Param("id"), "user")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, u)
}

// CreateUser registers a profile. The email is required and unique.
// POST /api/v1/users
func (h *Handlers) CreateUser(c *gin.Context) {
	var req dto.CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		util.RespondMissingField(c, "email")
		return
	}
	if !util.IsValidEmail(util.NormalizeEmail(req.Email)) {
		util.RespondWithAPIError(c, errors.ValidationError("email", "invalid email address"))
		return
	}

	user := req.ToModel()
	if err := h.users.CreateUser(c.Request.Context(), user); err != nil {
		respondUserError(c, err, "user")
		return
	}
	h.search.IndexUser(c.Request.Context(), user)

	logger.Log.Info("User created", logger.WithUserID(user.ID), zap.String("role", user.Role))
	c.JSON(http.StatusCreated, user)
}

// UpdateUser applies a partial profile update
// PUT /api/v1/users/:id
func (h *Handlers) UpdateUser(c *gin.Context) {
	id := c.Param("id")
	if _, err := util.ResolveActor(c, id); err != nil {
		util.RespondWithError(c, err)
		return
	}

	var req dto.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.users.UpdateUser(c.Request.Context(), id, req.Updates())
	if err != nil {
		respondUserError(c, err, "user")
		return
	}
	h.search.IndexUser(c.Request.Context(), user)
	c.JSON(http.StatusOK, user)
}

// DeleteUser soft deletes a profile
// DELETE /api/v1/users/:id
func (h *Handlers) DeleteUser(c *gin.Context) {
	id := c.Param("id")
	if _, err := util.ResolveActor(c, id); err != nil {
		util.RespondWithError(c, err)
		return
	}
	if err := h.users.DeleteUser(c.Request.Context(), id); err != nil {
		respondUserError(c, err, "user")
		return
	}
	h.search.RemoveUser(c.Request.Context(), id)

	logger.Log.Info("User deleted", logger.WithUserID(id))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func searchFilter(c *gin.Context, athletes bool) repository.SearchFilter {
	f := repository.SearchFilter{
		Athletes:   athletes,
		SearchTerm: strings.TrimSpace(c.Query("searchTerm")),
		City:       strings.TrimSpace(c.Query("city")),
		Country:    strings.TrimSpace(c.Query("country")),
		Verified:   util.ParseBool(c.Query("verified"), false),
		Sport:      strings.TrimSpace(c.Query("sport")),
		Limit:      util.ParseLimit(c.Query("limit"), defaultSearchLimit, maxSearchLimit),
		Offset:     util.ParseOffset(c.Query("offset")),
	}
	if !athletes {
		if rt := c.Query("roleType"); rt != "" {
			f.Role = models.NormalizeRole(rt)
			if f.Role == "" {
				// Unknown role ids match nothing rather than everything.
				f.Role = rt
			}
		}
	}
	return f
}

// SearchAthletes searches player profiles
// GET /api/v1/search/athletes
func (h *Handlers) SearchAthletes(c *gin.Context) {
	h.runSearch(c, true)
}

// SearchProfessionals searches every non-player role
// GET /api/v1/search/professionals
func (h *Handlers) SearchProfessionals(c *gin.Context) {
	h.runSearch(c, false)
}

func (h *Handlers) runSearch(c *gin.Context, athletes bool) {
	res, err := h.search.Search(c.Request.Context(), searchFilter(c, athletes))
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ListCareerExperiences returns career entries, latest start first
// GET /api/v1/career-experiences
func (h *Handlers) ListCareerExperiences(c *gin.Context) {
	q := h.dbc(c).Order("start_date DESC").Order("created_at DESC")
	if userID := c.Query("userId"); userID != "" {
		q = q.Where("user_id = ?", userID)
	}

	var list []models.CareerExperience
	if err := q.Find(&list).Error; err != nil {
		util.HandleDBError(c, err, "career experiences")
		return
	}
	c.JSON(http.StatusOK, list)
}

// CreateCareerExperience adds an entry to a user's career
// POST /api/v1/career-experiences
func (h *Handlers) CreateCareerExperience(c *gin.Context) {
	var req dto.CareerExperienceRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := actor(c, req.UserID, "userId")
	if !ok {
		return
	}
	if req.Club == nil || strings.TrimSpace(*req.Club) == "" {
		util.RespondMissingField(c, "club")
		return
	}
	if req.Role == nil || strings.TrimSpace(*req.Role) == "" {
		util.RespondMissingField(c, "role")
		return
	}
	if _, ok := h.lookupUser(c, userID, "user"); !ok {
		return
	}

	exp := models.CareerExperience{UserID: userID}
	req.Apply(&exp)
	if err := h.dbc(c).Create(&exp).Error; err != nil {
		util.HandleDBError(c, err, "career experience")
		return
	}
	c.JSON(http.StatusCreated, exp)
}

// UpdateCareerExperience partially updates a career entry
// PUT /api/v1/career-experiences/:id
func (h *Handlers) UpdateCareerExperience(c *gin.Context) {
	var exp models.CareerExperience
	if err := h.dbc(c).Where("id = ?", c.Param("id")).First(&exp).Error; err != nil {
		util.HandleDBError(c, err, "career experience")
		return
	}
	if _, err := util.ResolveActor(c, exp.UserID); err != nil {
		util.RespondWithError(c, err)
		return
	}

	var req dto.CareerExperienceRequest
	if !bindJSON(c, &req) {
		return
	}
	req.Apply(&exp)
	if err := h.dbc(c).Save(&exp).Error; err != nil {
		util.HandleDBError(c, err, "career experience")
		return
	}
	c.JSON(http.StatusOK, exp)
}

// DeleteCareerExperience removes a career entry
// DELETE /api/v1/career-experiences/:id
func (h *Handlers) DeleteCareerExperience(c *gin.Context) {
	var exp models.CareerExperience
	if err := h.dbc(c).Where("id = ?", c.Param("id")).First(&exp).Error; err != nil {
		util.HandleDBError(c, err, "career experience")
		return
	}
	if _, err := util.ResolveActor(c, exp.UserID); err != nil {
		util.RespondWithError(c, err)
		return
	}
	if err := h.dbc(c).Delete(&exp).Error; err != nil {
		util.HandleDBError(c, err, "career experience")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListVerifications filters by verifiedId and verifierId
// GET /api/v1/verifications
func (h *Handlers) ListVerifications(c *gin.Context) {
	q := h.dbc(c).Order("created_at DESC")
	if id := c.Query("verifiedId"); id != "" {
		q = q.Where("verified_id = ?", id)
	}
	if id := c.Query("verifierId"); id != "" {
		q = q.Where("verifier_id = ?", id)
	}

	var list []models.Verification
	if err := q.Find(&list).Error; err != nil {
		util.HandleDBError(c, err, "verifications")
		return
	}
	c.JSON(http.StatusOK, list)
}

// CreateVerification lets one user vouch for another's profile
// POST /api/v1/verifications
func (h *Handlers) CreateVerification(c *gin.Context) {
	var req dto.VerificationRequest
	if !bindJSON(c, &req) {
		return
	}
	verifierID, ok := actor(c, req.VerifierID, "verifierId")
	if !ok {
		return
	}
	if req.VerifiedID == "" {
		util.RespondMissingField(c, "verifiedId")
		return
	}
	if verifierID == req.VerifiedID {
		util.RespondBadRequest(c, "cannot verify yourself")
		return
	}

	var existing int64
	if err := h.dbc(c).Model(&models.Verification{}).
		Where("verifier_id = ? AND verified_id = ?", verifierID, req.VerifiedID).
		Count(&existing).Error; err != nil {
		util.HandleDBError(c, err, "verification")
		return
	}
	if existing > 0 {
		util.RespondBadRequest(c, "already verified")
		return
	}

	verifier, ok := h.lookupUser(c, verifierID, "verifier")
	if !ok {
		return
	}
	if _, ok := h.lookupUser(c, req.VerifiedID, "verified user"); !ok {
		return
	}

	v := models.Verification{VerifierID: verifierID, VerifiedID: req.VerifiedID}
	if err := h.dbc(c).Create(&v).Error; err != nil {
		if util.IsDuplicateKey(err) {
			util.RespondBadRequest(c, "already verified")
			return
		}
		util.HandleDBError(c, err, "verification")
		return
	}

	h.notify(c.Request.Context(), notifications.Input{
		UserID:  req.VerifiedID,
		Type:    notifications.TypeProfileVerified,
		Title:   "Profilo verificato",
		Message: verifier.FullName() + " ha verificato il tuo profilo",
		Metadata: models.JSONMap{
			"fromUserId":   verifierID,
			"fromUserName": verifier.FullName(),
		},
	})
	c.JSON(http.StatusCreated, v)
}

// DeleteVerification removes the verification between two users
// DELETE /api/v1/verifications?verifierId&verifiedId
func (h *Handlers) DeleteVerification(c *gin.Context) {
	verifierID, ok := actor(c, c.Query("verifierId"), "verifierId")
	if !ok {
		return
	}
	verifiedID := c.Query("verifiedId")
	if verifiedID == "" {
		util.RespondMissingField(c, "verifiedId")
		return
	}

	res := h.dbc(c).Where("verifier_id = ? AND verified_id = ?", verifierID, verifiedID).Delete(&models.Verification{})
	if res.Error != nil {
		util.HandleDBError(c, res.Error, "verification")
		return
	}
	if res.RowsAffected == 0 {
		util.RespondNotFound(c, "verification")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListFavorites filters by userId and favoriteId
// GET /api/v1/favorites
func (h *Handlers) ListFavorites(c *gin.Context) {
	q := h.dbc(c).Order("created_at DESC")
	if id := c.Query("userId"); id != "" {
		q = q.Where("user_id = ?", id)
	}
	if id := c.Query("favoriteId"); id != "" {
		q = q.Where("favorite_id = ?", id)
	}

	var list []models.Favorite
	if err := q.Find(&list).Error; err != nil {
		util.HandleDBError(c, err, "favorites")
		return
	}
	c.JSON(http.StatusOK, list)
}

// CreateFavorite bookmarks a profile
// POST /api/v1/favorites
func (h *Handlers) CreateFavorite(c *gin.Context) {
	var req dto.FavoriteRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := actor(c, req.UserID, "userId")
	if !ok {
		return
	}
	if req.FavoriteID == "" {
		util.RespondMissingField(c, "favoriteId")
		return
	}
	if userID == req.FavoriteID {
		util.RespondBadRequest(c, "cannot add yourself to favorites")
		return
	}

	user, ok := h.lookupUser(c, userID, "user")
	if !ok {
		return
	}
	if _, ok := h.lookupUser(c, req.FavoriteID, "favorite user"); !ok {
		return
	}

	fav := models.Favorite{UserID: userID, FavoriteID: req.FavoriteID}
	if err := h.dbc(c).Create(&fav).Error; err != nil {
		if util.IsDuplicateKey(err) {
			util.RespondBadRequest(c, "already in favorites")
			return
		}
		util.HandleDBError(c, err, "favorite")
		return
	}

	h.notify(c.Request.Context(), notifications.Input{
		UserID:  req.FavoriteID,
		Type:    notifications.TypeAddedToFavorites,
		Title:   "Aggiunto ai preferiti",
		Message: user.FullName() + " ti ha aggiunto ai preferiti",
		Metadata: models.JSONMap{
			"fromUserId":   userID,
			"fromUserName": user.FullName(),
		},
	})
	c.JSON(http.StatusCreated, fav)
}

// DeleteFavorite removes a bookmark
// DELETE /api/v1/favorites?userId&favoriteId
func (h *Handlers) DeleteFavorite(c *gin.Context) {
	userID, ok := actor(c, c.Query("userId"), "userId")
	if !ok {
		return
	}
	favoriteID := c.Query("favoriteId")
	if favoriteID == "" {
		util.RespondMissingField(c, "favoriteId")
		return
	}

	res := h.dbc(c).Where("user_id = ? AND favorite_id = ?", userID, favoriteID).Delete(&models.Favorite{})
	if res.Error != nil {
		util.HandleDBError(c, res.Error, "favorite")
		return
	}
	if res.RowsAffected == 0 {
		util.RespondNotFound(c, "favorite")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
