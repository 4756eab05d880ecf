package dto

import "github.com/simolima/sportlink-demo-sub001/internal/models"

// CreatePostRequest is the body of POST /posts
type CreatePostRequest struct {
	AuthorID string `json:"authorId"`
	Content  string `json:"content"`
	ImageURL string `json:"imageUrl"`
}

// LikeRequest toggles a like
type LikeRequest struct {
	PostID string `json:"postId"`
	UserID string `json:"userId"`
}

// LikeToggleResponse reports the outcome of a toggle
type LikeToggleResponse struct {
	Action string `json:"action"`
	Count  int64  `json:"count"`
}

// Like toggle actions
const (
	LikeActionLiked   = "liked"
	LikeActionUnliked = "unliked"
)

// LikesResponse is the body of GET /likes
type LikesResponse struct {
	Count int64         `json:"count"`
	Likes []models.Like `json:"likes"`
}

// CreateCommentRequest is the body of POST /comments
type CreateCommentRequest struct {
	PostID   string `json:"postId"`
	AuthorID string `json:"authorId"`
	Content  string `json:"content"`
}

// FollowRequest is the body of POST /follows
type FollowRequest struct {
	FollowerID  string `json:"followerId"`
	FollowingID string `json:"followingId"`
}

// SendMessageRequest is the body of POST /messages
type SendMessageRequest struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	Text       string `json:"text"`
}

// MarkMessagesReadRequest marks messages read by id or by conversation
type MarkMessagesReadRequest struct {
	IDs    []string `json:"ids"`
	UserID string   `json:"userId"`
	PeerID string   `json:"peerId"`
}

// Conversation is one entry of the conversation list
type Conversation struct {
	PeerID      string              `json:"peerId"`
	Peer        *models.UserSummary `json:"peer"`
	LastMessage models.Message      `json:"lastMessage"`
	UnreadCount int                 `json:"unreadCount"`
	Online      bool                `json:"online"`
}
