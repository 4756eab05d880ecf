package handlers

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/simolima/sportlink-demo-sub001/internal/logger"
	"github.com/simolima/sportlink-demo-sub001/internal/models"
	"github.com/simolima/sportlink-demo-sub001/internal/notifications"
	"github.com/simolima/sportlink-demo-sub001/internal/util"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// bindJSON decodes the request body into req, answering 400 on failure
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		util.RespondBadRequest(c, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// actor resolves the acting user for field. A token overrides the supplied
// id; without either the request is rejected.
func actor(c *gin.Context, supplied, field string) (string, bool) {
	id, err := util.ResolveActor(c, strings.TrimSpace(supplied))
	if err != nil {
		util.RespondWithError(c, err)
		return "", false
	}
	if id == "" {
		util.RespondMissingField(c, field)
		return "", false
	}
	return id, true
}

// optionalActor is actor for filters: an empty id is allowed.
func optionalActor(c *gin.Context, supplied string) (string, bool) {
	id, err := util.ResolveActor(c, strings.TrimSpace(supplied))
	if err != nil {
		util.RespondWithError(c, err)
		return "", false
	}
	return id, true
}

func (h *Handlers) dbc(c *gin.Context) *gorm.DB {
	return h.db.WithContext(c.Request.Context())
}

// lookupUser loads a user or answers 404 naming what.
func (h *Handlers) lookupUser(c *gin.Context, id, what string) (*models.User, bool) {
	u, err := h.users.GetUser(c.Request.Context(), id)
	if err != nil {
		respondUserError(c, err, what)
		return nil, false
	}
	return u, true
}

func (h *Handlers) userName(ctx context.Context, id string) string {
	u, err := h.users.GetUser(ctx, id)
	if err != nil {
		return ""
	}
	return u.FullName()
}

// notify delivers a notification after the caller's write committed.
func (h *Handlers) notify(ctx context.Context, in notifications.Input) {
	if h.notifications == nil {
		return
	}
	h.notifications.Send(ctx, in)
}

func (h *Handlers) notifyMany(ctx context.Context, userIDs []string, in notifications.Input) {
	if h.notifications == nil || len(userIDs) == 0 {
		return
	}
	sent := h.notifications.NotifyAll(ctx, userIDs, in)
	logger.DebugWithFields("Fan-out notification sent",
		zap.String("type", in.Type),
		zap.Int("recipients", len(userIDs)),
		zap.Int("sent", sent),
	)
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
