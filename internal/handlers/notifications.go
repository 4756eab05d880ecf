package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/simolima/sportlink-demo-sub001/internal/dto"
	"github.com/simolima/sportlink-demo-sub001/internal/errors"
	"github.com/simolima/sportlink-demo-sub001/internal/logger"
	"github.com/simolima/sportlink-demo-sub001/internal/notifications"
	"github.com/simolima/sportlink-demo-sub001/internal/realtime"
	"github.com/simolima/sportlink-demo-sub001/internal/util"
	"go.uber.org/zap"
)

const (
	defaultNotificationLimit = 100
	maxNotificationLimit     = 500
)

func respondNotificationError(c *gin.Context, err error) {
	switch {
	case stderrors.Is(err, notifications.ErrMissingFields):
		util.RespondBadRequest(c, err.Error())
	case stderrors.Is(err, notifications.ErrNotFound):
		util.RespondNotFound(c, "notification")
	case stderrors.Is(err, notifications.ErrUnknownCategory):
		util.RespondWithAPIError(c, errors.ValidationError("preferences", err.Error()))
	default:
		util.RespondWithError(c, err)
	}
}

// GetNotifications lists a user's notifications, newest first. Message
// notifications are left out unless includeMessages=true; grouped=true
// collapses similar entries.
// GET /api/v1/notifications
func (h *Handlers) GetNotifications(c *gin.Context) {
	userID, ok := actor(c, c.Query("userId"), "userId")
	if !ok {
		return
	}

	list, err := h.notifications.List(c.Request.Context(), notifications.ListOptions{
		UserID:          userID,
		UnreadOnly:      util.ParseBool(c.Query("unreadOnly"), false),
		IncludeMessages: util.ParseBool(c.Query("includeMessages"), false),
		Limit:           util.ParseLimit(c.Query("limit"), defaultNotificationLimit, maxNotificationLimit),
	})
	if err != nil {
		respondNotificationError(c, err)
		return
	}

	if util.ParseBool(c.Query("grouped"), false) {
		c.JSON(http.StatusOK, notifications.GroupNotifications(list))
		return
	}
	c.JSON(http.StatusOK, notifications.NewItems(list))
}

// CreateNotification stores and pushes a notification unless the recipient
// disabled its category
// POST /api/v1/notifications
func (h *Handlers) CreateNotification(c *gin.Context) {
	var req dto.CreateNotificationRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.notifications.Notify(c.Request.Context(), notifications.Input{
		UserID:   req.UserID,
		Type:     req.Type,
		Title:    req.Title,
		Message:  req.Message,
		Metadata: req.Metadata,
	})
	if err != nil {
		respondNotificationError(c, err)
		return
	}
	if res.Skipped {
		c.JSON(http.StatusOK, dto.SkippedNotificationResponse{Skipped: true, Reason: res.Reason})
		return
	}
	c.JSON(http.StatusCreated, notifications.NewItem(*res.Notification))
}

// MarkNotificationsRead marks one notification, or all of a user's, read
// PUT /api/v1/notifications
func (h *Handlers) MarkNotificationsRead(c *gin.Context) {
	var req dto.MarkReadRequest
	if !bindJSON(c, &req) {
		return
	}

	if req.MarkAllAsRead {
		userID, ok := actor(c, req.UserID, "userId")
		if !ok {
			return
		}
		n, err := h.notifications.MarkAllRead(c.Request.Context(), userID)
		if err != nil {
			respondNotificationError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.MarkReadResponse{Success: true, MarkedCount: n})
		return
	}

	if req.ID == "" {
		util.RespondBadRequest(c, "id or markAllAsRead with userId is required")
		return
	}
	owner, ok := optionalActor(c, req.UserID)
	if !ok {
		return
	}
	read := true
	if req.Read != nil {
		read = *req.Read
	}
	n, err := h.notifications.MarkRead(c.Request.Context(), req.ID, owner, read)
	if err != nil {
		respondNotificationError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MarkReadResponse{Success: true, MarkedCount: 1, Notification: n})
}

// DeleteNotifications removes one notification or every one of a user
// DELETE /api/v1/notifications?id | ?deleteAll=true&userId
func (h *Handlers) DeleteNotifications(c *gin.Context) {
	if util.ParseBool(c.Query("deleteAll"), false) {
		userID, ok := actor(c, c.Query("userId"), "userId")
		if !ok {
			return
		}
		n, err := h.notifications.DeleteAll(c.Request.Context(), userID)
		if err != nil {
			respondNotificationError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.DeleteNotificationsResponse{Success: true, DeletedCount: n})
		return
	}

	id := c.Query("id")
	if id == "" {
		util.RespondBadRequest(c, "id or deleteAll with userId is required")
		return
	}
	owner, ok := optionalActor(c, c.Query("userId"))
	if !ok {
		return
	}
	n, err := h.notifications.Delete(c.Request.Context(), id, owner)
	if err != nil {
		respondNotificationError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.DeleteNotificationsResponse{Success: true, DeletedCount: n})
}

// GetUnreadCount counts unread notifications, messages excluded
// GET /api/v1/notifications/unread-count
func (h *Handlers) GetUnreadCount(c *gin.Context) {
	userID, ok := actor(c, c.Query("userId"), "userId")
	if !ok {
		return
	}
	count, err := h.notifications.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		respondNotificationError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.UnreadCountResponse{Count: count})
}

// sendUnreadOnConnect queues the current unread count right after the
// connected event
func (h *Handlers) sendUnreadOnConnect(c *gin.Context, userID string) realtime.OnConnect {
	return func(client *realtime.Client) {
		count, err := h.notifications.UnreadCount(c.Request.Context(), userID)
		if err != nil {
			logger.Log.Warn("Unread count unavailable for new stream", logger.WithUserID(userID), zap.Error(err))
			return
		}
		client.Send(realtime.EventUnreadCount, map[string]int64{"count": count})
	}
}

// StreamNotifications opens the SSE stream of a user
// GET /api/v1/notifications/stream?userId
func (h *Handlers) StreamNotifications(c *gin.Context) {
	userID, ok := actor(c, c.Query("userId"), "userId")
	if !ok {
		return
	}

	err := h.hub.ServeSSE(c.Writer, c.Request, userID, h.sendUnreadOnConnect(c, userID))
	if stderrors.Is(err, realtime.ErrStreamingUnsupported) {
		util.RespondInternalError(c, "streaming unsupported")
		return
	}
	if err != nil {
		logger.Log.Debug("SSE stream ended", logger.WithUserID(userID), zap.Error(err))
	}
}

// NotificationsWebSocket offers the same event stream over WebSocket
// GET /api/v1/notifications/ws?userId
func (h *Handlers) NotificationsWebSocket(c *gin.Context) {
	userID, ok := actor(c, c.Query("userId"), "userId")
	if !ok {
		return
	}
	if err := h.hub.ServeWS(c.Writer, c.Request, userID, h.sendUnreadOnConnect(c, userID)); err != nil {
		logger.Log.Debug("WebSocket stream ended", logger.WithUserID(userID), zap.Error(err))
	}
}

// StreamStats reports connected realtime clients
// GET /api/v1/notifications/stream/stats
func (h *Handlers) StreamStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.hub.Stats())
}

// GetNotificationPreferences returns the merged category switches
// GET /api/v1/notification-preferences?userId
func (h *Handlers) GetNotificationPreferences(c *gin.Context) {
	userID, ok := actor(c, c.Query("userId"), "userId")
	if !ok {
		return
	}
	prefs, err := h.notifications.Preferences(c.Request.Context(), userID)
	if err != nil {
		respondNotificationError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.PreferencesResponse{UserID: userID, Preferences: prefs})
}

// UpdateNotificationPreferences upserts a partial category map
// POST /api/v1/notification-preferences
func (h *Handlers) UpdateNotificationPreferences(c *gin.Context) {
	var req dto.PreferencesRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := actor(c, req.UserID, "userId")
	if !ok {
		return
	}
	prefs, err := h.notifications.UpdatePreferences(c.Request.Context(), userID, req.Preferences)
	if err != nil {
		respondNotificationError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.PreferencesResponse{UserID: userID, Preferences: prefs})
}
