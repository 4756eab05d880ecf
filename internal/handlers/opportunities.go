package handlers

import (
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
)

func isOpportunityType(t string) bool {
	for _, known := range models.OpportunityTypes {
		if known == t {
			return true
		}
	}
	return false
}

// ListOpportunities filters listings; only open, unexpired ones by default
// GET /api/v1/opportunities
func (h *Handlers) ListOpportunities(c *gin.Context) {
	q := h.dbc(c).Preload("Club").Order("created_at DESC")
	if sport := strings.TrimSpace(c.Query("sport")); sport != "" {
		q = q.Where("LOWER(sport) = ?", strings.ToLower(sport))
	}
	if clubID := c.Query("clubId"); clubID != "" {
		q = q.Where("club_id = ?", clubID)
	}
	if city := strings.TrimSpace(c.Query("city")); city != "" {
		q = q.Where(`LOWER(city) LIKE ? ESCAPE '\'`, util.ContainsPattern(city))
	}
	if s := strings.TrimSpace(c.Query("search")); s != "" {
		p := util.ContainsPattern(s)
		q = q.Where(`LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\'`, p, p)
	}
	if util.ParseBool(c.Query("activeOnly"), true) {
		q = q.Where("status = ? AND expiry_date >= ?", models.OpportunityOpen, models.StartOfDay(h.now()))
	}

	var list []models.Opportunity
	if err := q.Find(&list).Error; err != nil {
		util.HandleDBError(c, err, "opportunities")
		return
	}
	if err := h.fillApplicationCounts(c, list); err != nil {
		util.HandleDBError(c, err, "applications")
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handlers) fillApplicationCounts(c *gin.Context, list []models.Opportunity) error {
	if len(list) == 0 {
		return nil
	}
	ids := make([]string, len(list))
	for i, o := range list {
		ids[i] = o.ID
	}
	var rows []struct {
		OpportunityID string
		N             int64
	}
	err := h.dbc(c).Model(&models.Application{}).
		Select("opportunity_id, COUNT(*) AS n").
		Where("opportunity_id IN ? AND status <> ?", ids, models.ApplicationWithdrawn).
		Group("opportunity_id").
		Scan(&rows).Error
	if err != nil {
		return err
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.OpportunityID] = r.N
	}
	for i := range list {
		list[i].ApplicationsCount = counts[list[i].ID]
	}
	return nil
}

// GetOpportunity returns one listing with its application count
// GET /api/v1/opportunities/:id
func (h *Handlers) GetOpportunity(c *gin.Context) {
	var o models.Opportunity
	if err := h.dbc(c).Preload("Club").Where("id = ?", c.Param("id")).First(&o).Error; err != nil {
		util.HandleDBError(c, err, "opportunity")
		return
	}
	list := []models.Opportunity{o}
	if err := h.fillApplicationCounts(c, list); err != nil {
		util.HandleDBError(c, err, "applications")
		return
	}
	c.JSON(http.StatusOK, list[0])
}

// CreateOpportunity publishes a listing and notifies the club's followers
// POST /api/v1/opportunities
func (h *Handlers) CreateOpportunity(c *gin.Context) {
	var req dto.OpportunityRequest
	if !bindJSON(c, &req) {
		return
	}
	required := []struct {
		field string
		value *string
	}{
		{"clubId", req.ClubID},
		{"title", req.Title},
		{"description", req.Description},
	}
	for _, r := range required {
		if r.value == nil || strings.TrimSpace(*r.value) == "" {
			util.RespondMissingField(c, r.field)
			return
		}
	}
	if req.ExpiryDate == nil {
		util.RespondMissingField(c, "expiryDate")
		return
	}
	if req.Type != nil && *req.Type != "" && !isOpportunityType(*req.Type) {
		util.RespondWithAPIError(c, errors.ValidationError("type", "unknown opportunity type "+*req.Type))
		return
	}
	createdBy, ok := actor(c, req.CreatedBy, "createdBy")
	if !ok {
		return
	}

	var club models.Club
	if err := h.dbc(c).Where("id = ?", *req.ClubID).First(&club).Error; err != nil {
		util.HandleDBError(c, err, "club")
		return
	}
	if !h.requireClubPermission(c, club.ID, models.PermissionCreateOpportunities) {
		return
	}

	o := models.Opportunity{CreatedBy: createdBy}
	req.Apply(&o)
	o.Status = models.OpportunityOpen
	if err := h.dbc(c).Create(&o).Error; err != nil {
		util.HandleDBError(c, err, "opportunity")
		return
	}

	followers, err := h.users.GetFollowerIDs(c.Request.Context(), club.ID)
	if err != nil {
		logger.Log.Error("Failed to load club followers", logger.WithClubID(club.ID), zap.Error(err))
	}
	h.notifyMany(c.Request.Context(), followers, notifications.Input{
		Type:    notifications.TypeNewOpportunity,
		Title:   "Nuova opportunità",
		Message: fmt.Sprintf("%s ha pubblicato \"%s\".", club.Name, o.Title),
		Metadata: models.JSONMap{
			"opportunityId":    o.ID,
			"opportunityTitle": o.Title,
			"clubId":           club.ID,
			"clubName":         club.Name,
		},
	})

	logger.Log.Info("Opportunity created", logger.WithClubID(club.ID), zap.String("opportunity_id", o.ID))
	c.JSON(http.StatusCreated, o)
}

// UpdateOpportunity partially updates a listing
// PUT /api/v1/opportunities/:id
func (h *Handlers) UpdateOpportunity(c *gin.Context) {
	var o models.Opportunity
	if err := h.dbc(c).Where("id = ?", c.Param("id")).First(&o).Error; err != nil {
		util.HandleDBError(c, err, "opportunity")
		return
	}
	if !h.requireClubPermission(c, o.ClubID, models.PermissionCreateOpportunities) {
		return
	}

	var req dto.OpportunityRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Type != nil && *req.Type != "" && !isOpportunityType(*req.Type) {
		util.RespondWithAPIError(c, errors.ValidationError("type", "unknown opportunity type "+*req.Type))
		return
	}
	// An opportunity stays with its club.
	req.ClubID = nil

	from := o.Status
	req.Apply(&o)
	if err := h.dbc(c).Save(&o).Error; err != nil {
		util.HandleDBError(c, err, "opportunity")
		return
	}
	if from != o.Status {
		metrics.RecordTransition("opportunity", from, o.Status)
	}
	c.JSON(http.StatusOK, o)
}

// DeleteOpportunity archives a listing
// DELETE /api/v1/opportunities/:id
func (h *Handlers) DeleteOpportunity(c *gin.Context) {
	var o models.Opportunity
	if err := h.dbc(c).Where("id = ?", c.Param("id")).First(&o).Error; err != nil {
		util.HandleDBError(c, err, "opportunity")
		return
	}
	if !h.requireClubPermission(c, o.ClubID, models.PermissionCreateOpportunities) {
		return
	}
	if err := h.dbc(c).Model(&o).Update("status", models.OpportunityArchived).Error; err != nil {
		util.HandleDBError(c, err, "opportunity")
		return
	}
	metrics.RecordTransition("opportunity", o.Status, models.OpportunityArchived)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListApplications filters candidacies; withdrawn ones are hidden unless
// asked for by status
// GET /api/v1/applications
func (h *Handlers) ListApplications(c *gin.Context) {
	q := h.dbc(c).Preload("Applicant").Preload("Opportunity").Order("created_at DESC")
	for param, column := range map[string]string{
		"opportunityId": "opportunity_id",
		"applicantId":   "applicant_id",
		"agentId":       "agent_id",
		"clubId":        "club_id",
	} {
		if v := c.Query(param); v != "" {
			q = q.Where(column+" = ?", v)
		}
	}
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	} else {
		q = q.Where("status <> ?", models.ApplicationWithdrawn)
	}

	var list []models.Application
	if err := q.Find(&list).Error; err != nil {
		util.HandleDBError(c, err, "applications")
		return
	}
	c.JSON(http.StatusOK, list)
}

// CreateApplication applies to an opportunity and notifies its creator
// POST /api/v1/applications
func (h *Handlers) CreateApplication(c *gin.Context) {
	var req dto.ApplicationRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.OpportunityID == "" {
		util.RespondMissingField(c, "opportunityId")
		return
	}

	// Agents apply on behalf of their players: the token then names the agent.
	applicantID := req.ApplicantID
	var agentID *string
	if req.AgentID != "" {
		id, ok := actor(c, req.AgentID, "agentId")
		if !ok {
			return
		}
		agentID = &id
	} else {
		id, ok := actor(c, req.ApplicantID, "applicantId")
		if !ok {
			return
		}
		applicantID = id
	}
	if applicantID == "" {
		util.RespondMissingField(c, "applicantId")
		return
	}

	var o models.Opportunity
	if err := h.dbc(c).Where("id = ?", req.OpportunityID).First(&o).Error; err != nil {
		util.HandleDBError(c, err, "opportunity")
		return
	}
	if !o.IsActive(h.now()) {
		util.RespondBadRequest(c, "opportunity is no longer accepting applications")
		return
	}
	applicant, ok := h.lookupUser(c, applicantID, "applicant")
	if !ok {
		return
	}

	app := models.Application{
		OpportunityID: o.ID,
		ApplicantID:   applicantID,
		AgentID:       agentID,
		ClubID:        o.ClubID,
		Message:       req.Message,
	}
	if err := h.dbc(c).Create(&app).Error; err != nil {
		if util.IsDuplicateKey(err) {
			util.RespondBadRequest(c, "an active application already exists")
			return
		}
		util.HandleDBError(c, err, "application")
		return
	}

	name := orDefault(applicant.FullName(), "Un utente")
	h.notify(c.Request.Context(), notifications.Input{
		UserID:  o.CreatedBy,
		Type:    notifications.TypeNewApplication,
		Title:   "Nuova candidatura",
		Message: fmt.Sprintf("%s si è candidato al tuo annuncio \"%s\".", name, o.Title),
		Metadata: models.JSONMap{
			"applicationId":    app.ID,
			"applicantId":      applicantID,
			"applicantName":    name,
			"opportunityId":    o.ID,
			"opportunityTitle": o.Title,
		},
	})
	c.JSON(http.StatusCreated, app)
}

// UpdateApplication moves an application through its review states
// PUT /api/v1/applications/:id
func (h *Handlers) UpdateApplication(c *gin.Context) {
	var req dto.UpdateApplicationRequest
	if !bindJSON(c, &req) {
		return
	}
	if !models.IsApplicationStatus(req.Status) {
		util.RespondWithAPIError(c, errors.New(errors.ErrInvalidStatus, "unknown application status").WithField("status"))
		return
	}
	reviewer, ok := optionalActor(c, req.ReviewedBy)
	if !ok {
		return
	}

	var app models.Application
	if err := h.dbc(c).Preload("Opportunity").Where("id = ?", c.Param("id")).First(&app).Error; err != nil {
		util.HandleDBError(c, err, "application")
		return
	}
	if req.Status == app.Status {
		c.JSON(http.StatusOK, app)
		return
	}
	if !models.CanTransitionApplication(app.Status, req.Status) {
		util.RespondWithAPIError(c, errors.New(errors.ErrInvalidStatus,
			fmt.Sprintf("cannot move application from %s to %s", app.Status, req.Status)))
		return
	}

	// Withdrawal belongs to the applicant; every other move to the club.
	if req.Status == models.ApplicationWithdrawn {
		if _, err := util.ResolveActor(c, app.ApplicantID); err != nil {
			if app.AgentID == nil {
				util.RespondWithError(c, err)
				return
			}
			if _, err := util.ResolveActor(c, *app.AgentID); err != nil {
				util.RespondWithError(c, err)
				return
			}
		}
	} else if !h.requireClubPermission(c, app.ClubID, models.PermissionManageApplications) {
		return
	}

	from := app.Status
	now := h.now().UTC()
	app.Status = req.Status
	if req.Status != models.ApplicationWithdrawn {
		app.ReviewedAt = &now
		if reviewer != "" {
			app.ReviewedBy = &reviewer
		}
	}
	if err := h.dbc(c).Omit("Opportunity", "Applicant").Save(&app).Error; err != nil {
		util.HandleDBError(c, err, "application")
		return
	}
	metrics.RecordTransition("application", from, app.Status)

	h.notifyCandidacyOutcome(c, app)
	c.JSON(http.StatusOK, app)
}

func (h *Handlers) notifyCandidacyOutcome(c *gin.Context, app models.Application) {
	title := ""
	if app.Opportunity != nil {
		title = app.Opportunity.Title
	}
	in := notifications.Input{
		UserID: app.ApplicantID,
		Metadata: models.JSONMap{
			"applicationId":    app.ID,
			"opportunityId":    app.OpportunityID,
			"opportunityTitle": title,
		},
	}
	switch app.Status {
	case models.ApplicationAccepted:
		in.Type = notifications.TypeCandidacyAccepted
		in.Title = "Candidatura accettata"
		in.Message = fmt.Sprintf("La tua candidatura all'annuncio \"%s\" è stata accettata.", title)
	case models.ApplicationRejected:
		in.Type = notifications.TypeCandidacyRejected
		in.Title = "Candidatura rifiutata"
		in.Message = fmt.Sprintf("La tua candidatura all'annuncio \"%s\" è stata rifiutata.", title)
	default:
		return
	}
	h.notify(c.Request.Context(), in)
}

// DeleteApplication withdraws (?withdraw=true) or soft deletes an application
// DELETE /api/v1/applications/:id
func (h *Handlers) DeleteApplication(c *gin.Context) {
	var app models.Application
	if err := h.dbc(c).Where("id = ?", c.Param("id")).First(&app).Error; err != nil {
		util.HandleDBError(c, err, "application")
		return
	}
	if _, err := util.ResolveActor(c, app.ApplicantID); err != nil {
		util.RespondWithError(c, err)
		return
	}

	if util.ParseBool(c.Query("withdraw"), false) {
		if app.Status != models.ApplicationWithdrawn && !models.CanTransitionApplication(app.Status, models.ApplicationWithdrawn) {
			util.RespondWithAPIError(c, errors.New(errors.ErrInvalidStatus, "application can no longer be withdrawn"))
			return
		}
		if err := h.dbc(c).Model(&app).Update("status", models.ApplicationWithdrawn).Error; err != nil {
			util.HandleDBError(c, err, "application")
			return
		}
		if app.Status != models.ApplicationWithdrawn {
			metrics.RecordTransition("application", app.Status, models.ApplicationWithdrawn)
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "status": models.ApplicationWithdrawn})
		return
	}

	if err := h.dbc(c).Delete(&app).Error; err != nil {
		util.HandleDBError(c, err, "application")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
