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
	"github.com/simolima/sportlink-demo-sub001/internal/util"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultOrganizationLimit = 20
	maxOrganizationLimit     = 100
)

// GetPhysicalStats returns a user's physical stats, or null when none exist
// GET /api/v1/physical-stats?userId
func (h *Handlers) GetPhysicalStats(c *gin.Context) {
	userID := strings.TrimSpace(c.Query("userId"))
	if userID == "" {
		util.RespondMissingField(c, "userId")
		return
	}

	var stats models.PhysicalStats
	err := h.dbc(c).Where("user_id = ?", userID).First(&stats).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusOK, nil)
		return
	}
	if err != nil {
		util.HandleDBError(c, err, "physical stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// SavePhysicalStats inserts or replaces a user's physical stats
// POST /api/v1/physical-stats
func (h *Handlers) SavePhysicalStats(c *gin.Context) {
	var req dto.PhysicalStatsRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := actor(c, req.UserID, "userId")
	if !ok {
		return
	}
	if req.HeightCm != nil && (*req.HeightCm < models.MinHeightCm || *req.HeightCm > models.MaxHeightCm) {
		util.RespondWithAPIError(c, errors.ValidationError("heightCm",
			fmt.Sprintf("height must be between %d and %d cm", models.MinHeightCm, models.MaxHeightCm)))
		return
	}
	if req.WeightKg != nil && (*req.WeightKg < models.MinWeightKg || *req.WeightKg > models.MaxWeightKg) {
		util.RespondWithAPIError(c, errors.ValidationError("weightKg",
			fmt.Sprintf("weight must be between %d and %d kg", models.MinWeightKg, models.MaxWeightKg)))
		return
	}
	if _, ok := h.lookupUser(c, userID, "user"); !ok {
		return
	}

	stats := req.ToModel(userID)
	stats.UpdatedAt = h.now().UTC()
	err := h.dbc(c).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"height_cm", "weight_kg", "dominant_foot", "dominant_hand", "updated_at"}),
	}).Create(stats).Error
	if err != nil {
		util.HandleDBError(c, err, "physical stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListSportsOrganizations searches organizations by name and sport
// GET /api/v1/sports-organizations?q&sport&country
func (h *Handlers) ListSportsOrganizations(c *gin.Context) {
	q := h.dbc(c).Order("name ASC").
		Limit(util.ParseLimit(c.Query("limit"), defaultOrganizationLimit, maxOrganizationLimit))
	if name := strings.TrimSpace(c.Query("q")); name != "" {
		q = q.Where(`LOWER(name) LIKE ? ESCAPE '\'`, util.ContainsPattern(name))
	}
	if sport := strings.TrimSpace(c.Query("sport")); sport != "" {
		q = q.Where("sport = ?", sport)
	}
	if country := strings.TrimSpace(c.Query("country")); country != "" {
		q = q.Where("LOWER(country) = LOWER(?)", country)
	}

	list := []models.SportsOrganization{}
	if err := q.Find(&list).Error; err != nil {
		util.HandleDBError(c, err, "sports organizations")
		return
	}
	c.JSON(http.StatusOK, list)
}

// CreateSportsOrganization adds an organization directly
// POST /api/v1/sports-organizations
func (h *Handlers) CreateSportsOrganization(c *gin.Context) {
	var req dto.SportsOrganizationRequest
	if !bindJSON(c, &req) {
		return
	}
	org := models.SportsOrganization{
		Name:    strings.TrimSpace(req.Name),
		Country: strings.TrimSpace(req.Country),
		City:    strings.TrimSpace(req.City),
		Sport:   strings.TrimSpace(req.Sport),
	}
	if field := firstEmpty("name", org.Name, "country", org.Country, "sport", org.Sport); field != "" {
		util.RespondMissingField(c, field)
		return
	}
	existing, err := h.findOrganization(c, org.Name, org.Country, org.Sport)
	if err != nil {
		util.HandleDBError(c, err, "sports organization")
		return
	}
	if existing != nil {
		respondOrganizationExists(c, existing)
		return
	}

	if err := h.dbc(c).Create(&org).Error; err != nil {
		util.HandleDBError(c, err, "sports organization")
		return
	}
	c.JSON(http.StatusCreated, org)
}

// ListOrganizationRequests returns requests newest first with the requester
// and reviewer profiles attached
// GET /api/v1/organization-requests?status&userId
func (h *Handlers) ListOrganizationRequests(c *gin.Context) {
	q := h.dbc(c).Order("requested_at DESC")
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if userID := c.Query("userId"); userID != "" {
		q = q.Where("requested_by = ?", userID)
	}

	list := []models.OrganizationRequest{}
	if err := q.Find(&list).Error; err != nil {
		util.HandleDBError(c, err, "organization requests")
		return
	}

	ids := make([]string, 0, len(list)*2)
	for _, r := range list {
		ids = append(ids, r.RequestedBy)
		if r.ReviewedBy != nil {
			ids = append(ids, *r.ReviewedBy)
		}
	}
	profiles, err := h.users.GetUsers(c.Request.Context(), ids)
	if err != nil {
		util.HandleDBError(c, err, "organization requests")
		return
	}
	for i := range list {
		if u, ok := profiles[list[i].RequestedBy]; ok {
			list[i].Requester = u.Summary()
		}
		if list[i].ReviewedBy != nil {
			if u, ok := profiles[*list[i].ReviewedBy]; ok {
				list[i].Reviewer = u.Summary()
			}
		}
	}
	c.JSON(http.StatusOK, list)
}

// CreateOrganizationRequest asks for a missing organization. It is refused
// when the organization already exists.
// POST /api/v1/organization-requests
func (h *Handlers) CreateOrganizationRequest(c *gin.Context) {
	var req dto.OrganizationRequestBody
	if !bindJSON(c, &req) {
		return
	}
	requester, ok := actor(c, req.RequestedBy, "requestedBy")
	if !ok {
		return
	}
	r := models.OrganizationRequest{
		RequestedName:    strings.TrimSpace(req.RequestedName),
		RequestedCountry: strings.TrimSpace(req.RequestedCountry),
		RequestedCity:    strings.TrimSpace(req.RequestedCity),
		RequestedSport:   strings.TrimSpace(req.RequestedSport),
		AdditionalInfo:   strings.TrimSpace(req.AdditionalInfo),
		RequestedBy:      requester,
		Status:           models.OrganizationRequestPending,
	}
	if field := firstEmpty("requestedName", r.RequestedName, "requestedCountry", r.RequestedCountry, "requestedSport", r.RequestedSport); field != "" {
		util.RespondMissingField(c, field)
		return
	}
	existing, err := h.findOrganization(c, r.RequestedName, r.RequestedCountry, r.RequestedSport)
	if err != nil {
		util.HandleDBError(c, err, "sports organization")
		return
	}
	if existing != nil {
		respondOrganizationExists(c, existing)
		return
	}
	if _, ok := h.lookupUser(c, requester, "requester"); !ok {
		return
	}

	if err := h.dbc(c).Create(&r).Error; err != nil {
		util.HandleDBError(c, err, "organization request")
		return
	}
	c.JSON(http.StatusCreated, r)
}

// ApproveOrganizationRequest creates the requested organization and marks
// the request approved. Only pending requests can be approved.
// PATCH /api/v1/organization-requests/:id/approve
func (h *Handlers) ApproveOrganizationRequest(c *gin.Context) {
	var req dto.ApproveOrganizationRequest
	if !bindJSON(c, &req) {
		return
	}
	reviewer, ok := actor(c, req.ReviewedBy, "reviewedBy")
	if !ok {
		return
	}

	var r models.OrganizationRequest
	if err := h.dbc(c).Where("id = ?", c.Param("id")).First(&r).Error; err != nil {
		util.HandleDBError(c, err, "organization request")
		return
	}
	if r.Status != models.OrganizationRequestPending {
		util.RespondWithAPIError(c, errors.New(errors.ErrInvalidStatus, "request is not pending"))
		return
	}

	now := h.now().UTC()
	org := models.SportsOrganization{
		Name:    r.RequestedName,
		Country: r.RequestedCountry,
		City:    r.RequestedCity,
		Sport:   r.RequestedSport,
	}
	err := h.dbc(c).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&org).Error; err != nil {
			return err
		}
		r.Status = models.OrganizationRequestApproved
		r.ReviewedBy = &reviewer
		r.ReviewedAt = &now
		r.CreatedOrganizationID = &org.ID
		return tx.Save(&r).Error
	})
	if err != nil {
		util.HandleDBError(c, err, "organization request")
		return
	}
	metrics.RecordTransition("organization_request", models.OrganizationRequestPending, models.OrganizationRequestApproved)
	logger.Log.Info("Organization request approved",
		zap.String("request_id", r.ID),
		zap.String("organization_id", org.ID),
		logger.WithUserID(reviewer))

	c.JSON(http.StatusOK, dto.ApproveOrganizationResponse{
		Message:      "Request approved",
		Request:      r,
		Organization: org,
	})
}

// firstEmpty takes name/value pairs and returns the first name whose value
// is empty.
func firstEmpty(pairs ...string) string {
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			return pairs[i]
		}
	}
	return ""
}

// findOrganization looks an organization up by name, country and sport,
// ignoring case. It returns nil when there is none.
func (h *Handlers) findOrganization(c *gin.Context, name, country, sport string) (*models.SportsOrganization, error) {
	var org models.SportsOrganization
	err := h.dbc(c).
		Where("LOWER(name) = LOWER(?) AND LOWER(country) = LOWER(?) AND LOWER(sport) = LOWER(?)", name, country, sport).
		First(&org).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &org, nil
}

func respondOrganizationExists(c *gin.Context, org *models.SportsOrganization) {
	util.RespondWithAPIError(c, errors.Conflict("organization already exists").WithDetails(map[string]interface{}{
		"organization": org,
	}))
}
