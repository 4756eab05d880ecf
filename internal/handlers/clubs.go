package handlers

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/simolima/sportlink-demo-sub001/internal/dto"
	"github.com/simolima/sportlink-demo-sub001/internal/errors"
	"github.com/simolima/sportlink-demo-sub001/internal/logger"
	"github.com/simolima/sportlink-demo-sub001/internal/metrics"
	"github.com/simolima/sportlink-demo-sub001/internal/models"
	"github.com/simolima/sportlink-demo-sub001/internal/notifications"
	"github.com/simolima/sportlink-demo-sub001/internal/util"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var permissionLabels = map[string]string{
	models.PermissionCreateOpportunities: "creare opportunità",
	models.PermissionManageApplications:  "gestire le candidature",
	models.PermissionManageMembers:       "gestire i membri",
	models.PermissionEditClubInfo:        "modificare le informazioni del club",
}

func isClubRole(role string) bool {
	for _, r := range models.ClubRoles {
		if r == role {
			return true
		}
	}
	return false
}

func validPermissions(perms []string) (models.StringList, string) {
	out := models.StringList{}
	for _, p := range perms {
		if _, ok := permissionLabels[p]; !ok {
			return nil, p
		}
		if !out.Contains(p) {
			out = append(out, p)
		}
	}
	return out, ""
}

// ListClubs filters by sport, city and a free-text search
// GET /api/v1/clubs
func (h *Handlers) ListClubs(c *gin.Context) {
	q := h.dbc(c).Order("name ASC")
	if city := strings.TrimSpace(c.Query("city")); city != "" {
		q = q.Where(`LOWER(city) LIKE ? ESCAPE '\'`, util.ContainsPattern(city))
	}
	if s := strings.TrimSpace(c.Query("search")); s != "" {
		p := util.ContainsPattern(s)
		q = q.Where(`LOWER(name) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\'`, p, p)
	}

	var clubs []models.Club
	if err := q.Find(&clubs).Error; err != nil {
		util.HandleDBError(c, err, "clubs")
		return
	}

	// Sports is a JSON column; match it in Go so sqlite and Postgres agree.
	if sport := strings.TrimSpace(c.Query("sport")); sport != "" {
		filtered := clubs[:0]
		for _, club := range clubs {
			for _, s := range club.Sports {
				if strings.EqualFold(s, sport) {
					filtered = append(filtered, club)
					break
				}
			}
		}
		clubs = filtered
	}

	if err := h.fillMemberCounts(c, clubs); err != nil {
		util.HandleDBError(c, err, "club memberships")
		return
	}
	c.JSON(http.StatusOK, clubs)
}

func (h *Handlers) fillMemberCounts(c *gin.Context, clubs []models.Club) error {
	if len(clubs) == 0 {
		return nil
	}
	ids := make([]string, len(clubs))
	for i, club := range clubs {
		ids[i] = club.ID
	}
	var rows []struct {
		ClubID string
		N      int64
	}
	err := h.dbc(c).Model(&models.ClubMembership{}).
		Select("club_id, COUNT(*) AS n").
		Where("club_id IN ? AND status = ?", ids, models.MembershipActive).
		Group("club_id").
		Scan(&rows).Error
	if err != nil {
		return err
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.ClubID] = r.N
	}
	for i := range clubs {
		clubs[i].MembersCount = counts[clubs[i].ID]
	}
	return nil
}

// GetClub returns one club with its member count
// GET /api/v1/clubs/:id
func (h *Handlers) GetClub(c *gin.Context) {
	var club models.Club
	if err := h.dbc(c).Where("id = ?", c.Param("id")).First(&club).Error; err != nil {
		util.HandleDBError(c, err, "club")
		return
	}
	clubs := []models.Club{club}
	if err := h.fillMemberCounts(c, clubs); err != nil {
		util.HandleDBError(c, err, "club memberships")
		return
	}
	c.JSON(http.StatusOK, clubs[0])
}

// CreateClub creates a club and makes its creator an Admin
// POST /api/v1/clubs
func (h *Handlers) CreateClub(c *gin.Context) {
	var req dto.ClubRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		util.RespondMissingField(c, "name")
		return
	}
	if len(req.Sports) == 0 {
		util.RespondMissingField(c, "sports")
		return
	}
	if req.City == nil || strings.TrimSpace(*req.City) == "" {
		util.RespondMissingField(c, "city")
		return
	}
	createdBy, ok := actor(c, req.CreatedBy, "createdBy")
	if !ok {
		return
	}

	club := models.Club{CreatedBy: createdBy}
	req.Apply(&club)
	club.Verified = false

	err := h.dbc(c).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&club).Error; err != nil {
			return err
		}
		admin := models.ClubMembership{
			ClubID:      club.ID,
			UserID:      createdBy,
			Role:        models.ClubRoleAdmin,
			Permissions: append(models.StringList{}, models.AllClubPermissions...),
			JoinedAt:    h.now().UTC(),
		}
		return tx.Create(&admin).Error
	})
	if err != nil {
		util.HandleDBError(c, err, "club")
		return
	}
	club.MembersCount = 1

	logger.Log.Info("Club created", logger.WithClubID(club.ID), logger.WithUserID(createdBy))
	c.JSON(http.StatusCreated, club)
}

// UpdateClub partially updates a club
// PUT /api/v1/clubs/:id
func (h *Handlers) UpdateClub(c *gin.Context) {
	var club models.Club
	if err := h.dbc(c).Where("id = ?", c.Param("id")).First(&club).Error; err != nil {
		util.HandleDBError(c, err, "club")
		return
	}
	if !h.requireClubPermission(c, club.ID, models.PermissionEditClubInfo) {
		return
	}

	var req dto.ClubRequest
	if !bindJSON(c, &req) {
		return
	}
	req.Apply(&club)
	if err := h.dbc(c).Save(&club).Error; err != nil {
		util.HandleDBError(c, err, "club")
		return
	}
	c.JSON(http.StatusOK, club)
}

// DeleteClub soft deletes a club
// DELETE /api/v1/clubs/:id
func (h *Handlers) DeleteClub(c *gin.Context) {
	var club models.Club
	if err := h.dbc(c).Where("id = ?", c.Param("id")).First(&club).Error; err != nil {
		util.HandleDBError(c, err, "club")
		return
	}
	if !h.requireClubPermission(c, club.ID, models.PermissionEditClubInfo) {
		return
	}
	if err := h.dbc(c).Delete(&club).Error; err != nil {
		util.HandleDBError(c, err, "club")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// requireClubPermission checks the authenticated caller holds perm in the
// club. Unauthenticated requests pass; there is no caller to check.
func (h *Handlers) requireClubPermission(c *gin.Context, clubID, perm string) bool {
	userID, ok := util.AuthUserID(c)
	if !ok {
		return true
	}
	var m models.ClubMembership
	err := h.dbc(c).Where("club_id = ? AND user_id = ? AND status = ?", clubID, userID, models.MembershipActive).First(&m).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			util.RespondForbidden(c, "not a member of this club")
			return false
		}
		util.HandleDBError(c, err, "club membership")
		return false
	}
	if !m.HasPermission(perm) {
		util.RespondForbidden(c, "missing permission "+perm)
		return false
	}
	return true
}

// clubManagers returns the active members that can manage members
func (h *Handlers) clubManagers(c *gin.Context, clubID string) ([]string, error) {
	var members []models.ClubMembership
	err := h.dbc(c).Where("club_id = ? AND status = ?", clubID, models.MembershipActive).Find(&members).Error
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, m := range members {
		if m.HasPermission(models.PermissionManageMembers) {
			ids = append(ids, m.UserID)
		}
	}
	return ids, nil
}

// ListMemberships returns active memberships by club or user
// GET /api/v1/club-memberships
func (h *Handlers) ListMemberships(c *gin.Context) {
	q := h.dbc(c).Preload("User").Preload("Club").
		Where("status = ?", models.MembershipActive).
		Order("joined_at ASC")
	if clubID := c.Query("clubId"); clubID != "" {
		q = q.Where("club_id = ?", clubID)
	}
	if userID := c.Query("userId"); userID != "" {
		q = q.Where("user_id = ?", userID)
	}

	var list []models.ClubMembership
	if err := q.Find(&list).Error; err != nil {
		util.HandleDBError(c, err, "club memberships")
		return
	}
	c.JSON(http.StatusOK, list)
}

// CreateMembership adds a user to a club
// POST /api/v1/club-memberships
func (h *Handlers) CreateMembership(c *gin.Context) {
	var req dto.MembershipRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.ClubID == "" {
		util.RespondMissingField(c, "clubId")
		return
	}
	if req.UserID == "" {
		util.RespondMissingField(c, "userId")
		return
	}
	role := orDefault(req.Role, models.ClubRolePlayer)
	if !isClubRole(role) {
		util.RespondWithAPIError(c, errors.ValidationError("role", "unknown club role "+role))
		return
	}
	perms, bad := validPermissions(req.Permissions)
	if bad != "" {
		util.RespondWithAPIError(c, errors.ValidationError("permissions", "unknown permission "+bad))
		return
	}

	var club models.Club
	if err := h.dbc(c).Where("id = ?", req.ClubID).First(&club).Error; err != nil {
		util.HandleDBError(c, err, "club")
		return
	}
	if !h.requireClubPermission(c, club.ID, models.PermissionManageMembers) {
		return
	}
	if _, ok := h.lookupUser(c, req.UserID, "user"); !ok {
		return
	}

	m := models.ClubMembership{
		ClubID:      req.ClubID,
		UserID:      req.UserID,
		Role:        role,
		Position:    req.Position,
		Permissions: perms,
		JoinedAt:    h.now().UTC(),
	}
	if err := h.dbc(c).Create(&m).Error; err != nil {
		if util.IsDuplicateKey(err) {
			util.RespondBadRequest(c, "user is already an active member of this club")
			return
		}
		util.HandleDBError(c, err, "club membership")
		return
	}

	h.notifyPermissions(c, club, m.UserID, perms, nil)
	c.JSON(http.StatusCreated, m)
}

// UpdateMembership changes role, position, permissions or active state
// PUT /api/v1/club-memberships/:id
func (h *Handlers) UpdateMembership(c *gin.Context) {
	var m models.ClubMembership
	if err := h.dbc(c).Where("id = ?", c.Param("id")).First(&m).Error; err != nil {
		util.HandleDBError(c, err, "club membership")
		return
	}
	if !h.requireClubPermission(c, m.ClubID, models.PermissionManageMembers) {
		return
	}

	var req dto.UpdateMembershipRequest
	if !bindJSON(c, &req) {
		return
	}

	before := append(models.StringList{}, m.Permissions...)
	if req.Role != nil {
		if !isClubRole(*req.Role) {
			util.RespondWithAPIError(c, errors.ValidationError("role", "unknown club role "+*req.Role))
			return
		}
		m.Role = *req.Role
	}
	if req.Position != nil {
		m.Position = *req.Position
	}
	if req.Permissions != nil {
		perms, bad := validPermissions(req.Permissions)
		if bad != "" {
			util.RespondWithAPIError(c, errors.ValidationError("permissions", "unknown permission "+bad))
			return
		}
		m.Permissions = perms
	}
	if req.IsActive != nil && !*req.IsActive && m.Status == models.MembershipActive {
		leftAt := h.now().UTC()
		m.Status = models.MembershipPast
		m.IsActive = false
		m.LeftAt = &leftAt
	}

	if err := h.dbc(c).Save(&m).Error; err != nil {
		util.HandleDBError(c, err, "club membership")
		return
	}

	if req.Permissions != nil {
		var club models.Club
		if err := h.dbc(c).Where("id = ?", m.ClubID).First(&club).Error; err == nil {
			h.notifyPermissions(c, club, m.UserID, m.Permissions, before)
		}
	}
	c.JSON(http.StatusOK, m)
}

// DeleteMembership ends a membership; the row is kept with status past
// DELETE /api/v1/club-memberships/:id
func (h *Handlers) DeleteMembership(c *gin.Context) {
	var m models.ClubMembership
	if err := h.dbc(c).Where("id = ?", c.Param("id")).First(&m).Error; err != nil {
		util.HandleDBError(c, err, "club membership")
		return
	}
	if authID, ok := util.AuthUserID(c); ok && authID != m.UserID {
		if !h.requireClubPermission(c, m.ClubID, models.PermissionManageMembers) {
			return
		}
	}

	leftAt := h.now().UTC()
	err := h.dbc(c).Model(&m).Updates(map[string]interface{}{
		"status":    models.MembershipPast,
		"is_active": false,
		"left_at":   leftAt,
	}).Error
	if err != nil {
		util.HandleDBError(c, err, "club membership")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// notifyPermissions tells a member which permissions were granted or revoked
func (h *Handlers) notifyPermissions(c *gin.Context, club models.Club, userID string, now, before models.StringList) {
	ctx := c.Request.Context()
	for _, p := range now {
		if !before.Contains(p) {
			h.notify(ctx, notifications.Input{
				UserID:   userID,
				Type:     notifications.TypePermissionGranted,
				Title:    "Nuovo permesso",
				Message:  fmt.Sprintf("Ora puoi %s in %s.", permissionLabels[p], club.Name),
				Metadata: models.JSONMap{"clubId": club.ID, "clubName": club.Name, "permission": p},
			})
		}
	}
	for _, p := range before {
		if !now.Contains(p) {
			h.notify(ctx, notifications.Input{
				UserID:   userID,
				Type:     notifications.TypePermissionRevoked,
				Title:    "Permesso revocato",
				Message:  fmt.Sprintf("Non puoi più %s in %s.", permissionLabels[p], club.Name),
				Metadata: models.JSONMap{"clubId": club.ID, "clubName": club.Name, "permission": p},
			})
		}
	}
}

// ListJoinRequests filters by club, user and status
// GET /api/v1/club-join-requests
func (h *Handlers) ListJoinRequests(c *gin.Context) {
	q := h.dbc(c).Preload("User").Order("created_at DESC")
	if clubID := c.Query("clubId"); clubID != "" {
		q = q.Where("club_id = ?", clubID)
	}
	if userID := c.Query("userId"); userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var list []models.ClubJoinRequest
	if err := q.Find(&list).Error; err != nil {
		util.HandleDBError(c, err, "club join requests")
		return
	}
	c.JSON(http.StatusOK, list)
}

// CreateJoinRequest asks to join a club and notifies its managers
// POST /api/v1/club-join-requests
func (h *Handlers) CreateJoinRequest(c *gin.Context) {
	var req dto.JoinRequestRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := actor(c, req.UserID, "userId")
	if !ok {
		return
	}
	if req.ClubID == "" || strings.TrimSpace(req.RequestedRole) == "" {
		util.RespondBadRequest(c, "clubId, userId and requestedRole are required")
		return
	}

	var club models.Club
	if err := h.dbc(c).Where("id = ?", req.ClubID).First(&club).Error; err != nil {
		util.HandleDBError(c, err, "club")
		return
	}

	jr := models.ClubJoinRequest{
		ClubID:        req.ClubID,
		UserID:        userID,
		RequestedRole: strings.TrimSpace(req.RequestedRole),
		Message:       req.Message,
	}
	if err := h.dbc(c).Create(&jr).Error; err != nil {
		if util.IsDuplicateKey(err) {
			util.RespondBadRequest(c, "request already pending")
			return
		}
		util.HandleDBError(c, err, "club join request")
		return
	}

	managers, err := h.clubManagers(c, club.ID)
	if err != nil {
		logger.Log.Error("Failed to load club managers", logger.WithClubID(club.ID), zap.Error(err))
	}
	name := orDefault(h.userName(c.Request.Context(), userID), "Un utente")
	h.notifyMany(c.Request.Context(), managers, notifications.Input{
		Type:    notifications.TypeClubJoinRequest,
		Title:   "Nuova richiesta di adesione",
		Message: fmt.Sprintf("%s ha chiesto di entrare in %s come %s.", name, club.Name, jr.RequestedRole),
		Metadata: models.JSONMap{
			"clubId":        club.ID,
			"clubName":      club.Name,
			"requestId":     jr.ID,
			"fromUserId":    userID,
			"fromUserName":  name,
			"requestedRole": jr.RequestedRole,
		},
	})
	c.JSON(http.StatusCreated, jr)
}

// RespondJoinRequest accepts or rejects a pending request
// PUT /api/v1/club-join-requests/:id
func (h *Handlers) RespondJoinRequest(c *gin.Context) {
	var req dto.RespondJoinRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Status != models.JoinRequestAccepted && req.Status != models.JoinRequestRejected {
		util.RespondWithAPIError(c, errors.New(errors.ErrInvalidStatus, "status must be accepted or rejected").WithField("status"))
		return
	}
	responder, ok := optionalActor(c, req.RespondedBy)
	if !ok {
		return
	}

	var jr models.ClubJoinRequest
	if err := h.dbc(c).Where("id = ?", c.Param("id")).First(&jr).Error; err != nil {
		util.HandleDBError(c, err, "club join request")
		return
	}
	if !h.requireClubPermission(c, jr.ClubID, models.PermissionManageMembers) {
		return
	}
	if jr.Status != models.JoinRequestPending {
		util.RespondWithAPIError(c, errors.New(errors.ErrInvalidStatus, "request is not pending"))
		return
	}

	from := jr.Status
	now := h.now().UTC()
	jr.Status = req.Status
	jr.RespondedAt = &now
	if responder != "" {
		jr.RespondedBy = &responder
	}
	if err := h.dbc(c).Save(&jr).Error; err != nil {
		util.HandleDBError(c, err, "club join request")
		return
	}
	metrics.RecordTransition("club_join_request", from, jr.Status)

	h.notifyJoinOutcome(c, jr)
	c.JSON(http.StatusOK, jr)
}

// AcceptJoinRequest accepts a pending request and creates the membership
// POST /api/v1/club-join-requests/:id/accept
func (h *Handlers) AcceptJoinRequest(c *gin.Context) {
	var jr models.ClubJoinRequest
	if err := h.dbc(c).Where("id = ?", c.Param("id")).First(&jr).Error; err != nil {
		util.HandleDBError(c, err, "club join request")
		return
	}
	if !h.requireClubPermission(c, jr.ClubID, models.PermissionManageMembers) {
		return
	}
	if jr.Status != models.JoinRequestPending {
		util.RespondWithAPIError(c, errors.New(errors.ErrInvalidStatus, "request is not pending"))
		return
	}

	now := h.now().UTC()
	resp := dto.AcceptJoinResponse{Success: true}
	err := h.dbc(c).Transaction(func(tx *gorm.DB) error {
		jr.Status = models.JoinRequestAccepted
		jr.RespondedAt = &now
		if authID, ok := util.AuthUserID(c); ok {
			jr.RespondedBy = &authID
		}
		if err := tx.Save(&jr).Error; err != nil {
			return err
		}

		var existing models.ClubMembership
		err := tx.Where("club_id = ? AND user_id = ? AND status = ?", jr.ClubID, jr.UserID, models.MembershipActive).First(&existing).Error
		if err == nil {
			resp.AlreadyMember = true
			resp.Membership = &existing
			return nil
		}
		if !stderrors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		role := jr.RequestedRole
		if !isClubRole(role) {
			role = models.ClubRolePlayer
		}
		m := models.ClubMembership{
			ClubID:      jr.ClubID,
			UserID:      jr.UserID,
			Role:        role,
			Permissions: models.StringList{},
			JoinedAt:    now,
		}
		if err := tx.Create(&m).Error; err != nil {
			return err
		}
		resp.Membership = &m
		return nil
	})
	if err != nil {
		util.HandleDBError(c, err, "club join request")
		return
	}
	metrics.RecordTransition("club_join_request", models.JoinRequestPending, models.JoinRequestAccepted)

	resp.Request = jr
	h.notifyJoinOutcome(c, jr)
	c.JSON(http.StatusOK, resp)
}

func (h *Handlers) notifyJoinOutcome(c *gin.Context, jr models.ClubJoinRequest) {
	var club models.Club
	if err := h.dbc(c).Unscoped().Where("id = ?", jr.ClubID).First(&club).Error; err != nil {
		logger.Log.Warn("Join request outcome not notified, club missing", logger.WithClubID(jr.ClubID), zap.Error(err))
		return
	}

	in := notifications.Input{
		UserID:   jr.UserID,
		Metadata: models.JSONMap{"clubId": club.ID, "clubName": club.Name, "requestId": jr.ID},
	}
	if jr.Status == models.JoinRequestAccepted {
		in.Type = notifications.TypeClubJoinAccepted
		in.Title = "Richiesta accettata"
		in.Message = fmt.Sprintf("La tua richiesta di entrare in %s è stata accettata.", club.Name)
	} else {
		in.Type = notifications.TypeClubJoinRejected
		in.Title = "Richiesta rifiutata"
		in.Message = fmt.Sprintf("La tua richiesta di entrare in %s è stata rifiutata.", club.Name)
	}
	h.notify(c.Request.Context(), in)
}

// DeleteJoinRequest soft deletes a request
// DELETE /api/v1/club-join-requests/:id
func (h *Handlers) DeleteJoinRequest(c *gin.Context) {
	var jr models.ClubJoinRequest
	if err := h.dbc(c).Where("id = ?", c.Param("id")).First(&jr).Error; err != nil {
		util.HandleDBError(c, err, "club join request")
		return
	}
	if _, err := util.ResolveActor(c, jr.UserID); err != nil {
		util.RespondWithError(c, err)
		return
	}
	if err := h.dbc(c).Delete(&jr).Error; err != nil {
		util.HandleDBError(c, err, "club join request")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
