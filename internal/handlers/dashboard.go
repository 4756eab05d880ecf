package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/simolima/sportlink-demo-sub001/internal/dto"
	"github.com/simolima/sportlink-demo-sub001/internal/models"
	"github.com/simolima/sportlink-demo-sub001/internal/util"
)

type statusCount struct {
	Status string
	N      int64
}

// countByStatus groups the rows of model matching where by status
func (h *Handlers) countByStatus(c *gin.Context, model interface{}, where string, args ...interface{}) (map[string]int64, error) {
	var rows []statusCount
	err := h.dbc(c).Model(model).
		Select("status, COUNT(*) AS n").
		Where(where, args...).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.N
	}
	return out, nil
}

// GetDashboard returns the per-role counters of a user's home screen
// GET /api/v1/dashboard/:userId
func (h *Handlers) GetDashboard(c *gin.Context) {
	userID, ok := actor(c, c.Param("userId"), "userId")
	if !ok {
		return
	}
	u, ok := h.lookupUser(c, userID, "user")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	d := dto.Dashboard{UserID: u.ID, Role: u.Role}
	var err error
	if d.UnreadNotifications, err = h.notifications.UnreadCount(ctx, u.ID); err != nil {
		util.HandleDBError(c, err, "notifications")
		return
	}
	if d.Followers, err = h.users.GetFollowerCount(ctx, u.ID); err != nil {
		util.HandleDBError(c, err, "followers")
		return
	}
	if d.Following, err = h.users.GetFollowingCount(ctx, u.ID); err != nil {
		util.HandleDBError(c, err, "following")
		return
	}
	err = h.dbc(c).Model(&models.Message{}).
		Where("receiver_id = ? AND read = ?", u.ID, false).
		Count(&d.UnreadMessages).Error
	if err != nil {
		util.HandleDBError(c, err, "messages")
		return
	}

	switch u.Role {
	case models.RolePlayer:
		err = h.playerDashboard(c, &d)
	case models.RoleAgent:
		err = h.agentDashboard(c, &d)
	}
	if err == nil {
		err = h.clubDashboard(c, &d)
	}
	if err != nil {
		util.HandleDBError(c, err, "dashboard")
		return
	}

	c.JSON(http.StatusOK, d)
}

func (h *Handlers) playerDashboard(c *gin.Context, d *dto.Dashboard) error {
	var pending int64
	err := h.dbc(c).Model(&models.Affiliation{}).
		Where("player_id = ? AND status = ?", d.UserID, models.AffiliationPending).
		Count(&pending).Error
	if err != nil {
		return err
	}
	d.AffiliationRequestsPending = &pending

	if d.ApplicationsByStatus, err = h.countByStatus(c, &models.Application{}, "applicant_id = ?", d.UserID); err != nil {
		return err
	}

	var accepted []models.Affiliation
	err = h.dbc(c).Preload("Agent").
		Where("player_id = ? AND status = ?", d.UserID, models.AffiliationAccepted).
		Order("affiliated_at DESC").
		Limit(1).
		Find(&accepted).Error
	if err != nil {
		return err
	}
	if len(accepted) > 0 && accepted[0].Agent != nil {
		d.Agent = accepted[0].Agent.Summary()
	}
	return nil
}

func (h *Handlers) agentDashboard(c *gin.Context, d *dto.Dashboard) error {
	var err error
	if d.AffiliationsByStatus, err = h.countByStatus(c, &models.Affiliation{}, "agent_id = ?", d.UserID); err != nil {
		return err
	}

	var accepted []models.Affiliation
	err = h.dbc(c).Preload("Player").
		Where("agent_id = ? AND status = ?", d.UserID, models.AffiliationAccepted).
		Order("affiliated_at DESC").
		Find(&accepted).Error
	if err != nil {
		return err
	}
	d.Players = make([]*models.UserSummary, 0, len(accepted))
	for _, a := range accepted {
		if a.Player != nil {
			d.Players = append(d.Players, a.Player.Summary())
		}
	}
	return nil
}

// clubDashboard fills the club section for users holding active memberships.
// Join requests count only for clubs the user can manage members of, and
// applications only where they can manage applications.
func (h *Handlers) clubDashboard(c *gin.Context, d *dto.Dashboard) error {
	var memberships []models.ClubMembership
	err := h.dbc(c).Preload("Club").
		Where("user_id = ? AND status = ?", d.UserID, models.MembershipActive).
		Find(&memberships).Error
	if err != nil || len(memberships) == 0 {
		return err
	}

	var memberClubs, applicationClubs []string
	d.Clubs = make([]dto.DashboardClub, 0, len(memberships))
	for _, m := range memberships {
		entry := dto.DashboardClub{ClubID: m.ClubID, Role: m.Role, Permissions: m.Permissions}
		if m.Club != nil {
			entry.Name = m.Club.Name
		}
		d.Clubs = append(d.Clubs, entry)
		if m.HasPermission(models.PermissionManageMembers) {
			memberClubs = append(memberClubs, m.ClubID)
		}
		if m.HasPermission(models.PermissionManageApplications) {
			applicationClubs = append(applicationClubs, m.ClubID)
		}
	}

	if len(memberClubs) > 0 {
		var n int64
		err = h.dbc(c).Model(&models.ClubJoinRequest{}).
			Where("club_id IN ? AND status = ?", memberClubs, models.JoinRequestPending).
			Count(&n).Error
		if err != nil {
			return err
		}
		d.PendingJoinRequests = &n
	}

	if len(applicationClubs) > 0 {
		var n int64
		err = h.dbc(c).Model(&models.Application{}).
			Where("club_id IN ? AND status = ?", applicationClubs, models.ApplicationPending).
			Count(&n).Error
		if err != nil {
			return err
		}
		d.ApplicationsPending = &n
	}
	return nil
}
