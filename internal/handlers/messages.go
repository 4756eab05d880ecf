package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/simolima/sportlink-demo-sub001/internal/dto"
	"github.com/simolima/sportlink-demo-sub001/internal/models"
	"github.com/simolima/sportlink-demo-sub001/internal/notifications"
	"github.com/simolima/sportlink-demo-sub001/internal/util"
)

// ListMessages returns the thread with peerId, or the conversation list
// when no peer is given.
// GET /api/v1/messages?userId&peerId
func (h *Handlers) ListMessages(c *gin.Context) {
	userID, ok := actor(c, c.Query("userId"), "userId")
	if !ok {
		return
	}

	if peerID := c.Query("peerId"); peerID != "" {
		var thread []models.Message
		err := h.dbc(c).
			Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", userID, peerID, peerID, userID).
			Order("created_at ASC").
			Find(&thread).Error
		if err != nil {
			util.HandleDBError(c, err, "messages")
			return
		}
		c.JSON(http.StatusOK, thread)
		return
	}

	conversations, err := h.conversations(c, userID)
	if err != nil {
		util.HandleDBError(c, err, "conversations")
		return
	}
	c.JSON(http.StatusOK, conversations)
}

func (h *Handlers) conversations(c *gin.Context, userID string) ([]dto.Conversation, error) {
	var all []models.Message
	err := h.dbc(c).
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&all).Error
	if err != nil {
		return nil, err
	}

	// Messages arrive newest first, so the first one seen per peer is the last.
	index := map[string]int{}
	conversations := []dto.Conversation{}
	for _, m := range all {
		peer := m.SenderID
		if peer == userID {
			peer = m.ReceiverID
		}
		i, seen := index[peer]
		if !seen {
			i = len(conversations)
			index[peer] = i
			conversations = append(conversations, dto.Conversation{PeerID: peer, LastMessage: m})
		}
		if m.ReceiverID == userID && !m.Read {
			conversations[i].UnreadCount++
		}
	}

	peerIDs := make([]string, 0, len(conversations))
	for _, conv := range conversations {
		peerIDs = append(peerIDs, conv.PeerID)
	}
	peers, err := h.users.GetUsers(c.Request.Context(), peerIDs)
	if err != nil {
		return nil, err
	}
	for i := range conversations {
		if u, ok := peers[conversations[i].PeerID]; ok {
			conversations[i].Peer = u.Summary()
		}
		if h.hub != nil {
			conversations[i].Online = h.hub.IsUserOnline(conversations[i].PeerID)
		}
	}
	return conversations, nil
}

// SendMessage stores a direct message and notifies the receiver. Bodies are
// never pushed; clients refresh the thread.
// POST /api/v1/messages
func (h *Handlers) SendMessage(c *gin.Context) {
	var req dto.SendMessageRequest
	if !bindJSON(c, &req) {
		return
	}
	senderID, ok := actor(c, req.SenderID, "senderId")
	if !ok {
		return
	}
	text := strings.TrimSpace(req.Text)
	if req.ReceiverID == "" || text == "" {
		util.RespondBadRequest(c, "senderId, receiverId and text are required")
		return
	}

	msg := models.Message{SenderID: senderID, ReceiverID: req.ReceiverID, Text: text}
	if err := h.dbc(c).Create(&msg).Error; err != nil {
		util.HandleDBError(c, err, "message")
		return
	}

	senderName := orDefault(h.userName(c.Request.Context(), senderID), "Un utente")
	h.notify(c.Request.Context(), notifications.Input{
		UserID:  req.ReceiverID,
		Type:    notifications.TypeMessageReceived,
		Title:   "Nuovo messaggio ricevuto",
		Message: senderName + " ti ha inviato un nuovo messaggio",
		Metadata: models.JSONMap{
			"fromUserId":     senderID,
			"fromUserName":   senderName,
			"conversationId": senderID,
			"messageId":      msg.ID,
		},
	})
	c.JSON(http.StatusCreated, msg)
}

// MarkMessagesRead marks messages read by id or by conversation
// PATCH /api/v1/messages
func (h *Handlers) MarkMessagesRead(c *gin.Context) {
	var req dto.MarkMessagesReadRequest
	if !bindJSON(c, &req) {
		return
	}

	now := h.now()
	updates := map[string]interface{}{"read": true, "read_at": now}
	q := h.dbc(c).Model(&models.Message{}).Where("read = ?", false)

	switch {
	case len(req.IDs) > 0:
		q = q.Where("id IN ?", req.IDs)
		if userID, ok := util.AuthUserID(c); ok {
			q = q.Where("receiver_id = ?", userID)
		}
	case req.PeerID != "":
		userID, ok := actor(c, req.UserID, "userId")
		if !ok {
			return
		}
		q = q.Where("receiver_id = ? AND sender_id = ?", userID, req.PeerID)
	default:
		util.RespondBadRequest(c, "ids or userId and peerId are required")
		return
	}

	res := q.Updates(updates)
	if res.Error != nil {
		util.HandleDBError(c, res.Error, "messages")
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": res.RowsAffected})
}
