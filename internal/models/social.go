package models

import (
	"time"

	"gorm.io/gorm"
)

// Post is an entry in the social feed.
type Post struct {
	ID        string         `gorm:"primaryKey;type:uuid" json:"id"`
	AuthorID  string         `gorm:"type:uuid;not null;index" json:"authorId"`
	Content   string         `gorm:"type:text;not null" json:"content"`
	ImageURL  string         `json:"imageUrl,omitempty"`
	CreatedAt time.Time      `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Author        *User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	LikesCount    int64 `gorm:"-" json:"likesCount"`
	CommentsCount int64 `gorm:"-" json:"commentsCount"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// Like is a user's like on a post. A second like toggles it off.
type Like struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	PostID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_likes_pair" json:"postId"`
	UserID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_likes_pair;index" json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

func (l *Like) BeforeCreate(tx *gorm.DB) error {
	ensureID(&l.ID)
	return nil
}

// Comment is a reply under a post.
type Comment struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	PostID    string    `gorm:"type:uuid;not null;index" json:"postId"`
	AuthorID  string    `gorm:"type:uuid;not null" json:"authorId"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Author *User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// Message is one direct message between two users.
type Message struct {
	ID         string     `gorm:"primaryKey;type:uuid" json:"id"`
	SenderID   string     `gorm:"type:uuid;not null;index:idx_messages_pair" json:"senderId"`
	ReceiverID string     `gorm:"type:uuid;not null;index:idx_messages_pair;index" json:"receiverId"`
	Text       string     `gorm:"type:text;not null" json:"text"`
	Read       bool       `gorm:"default:false" json:"read"`
	ReadAt     *time.Time `json:"readAt,omitempty"`
	CreatedAt  time.Time  `gorm:"index" json:"createdAt"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	ensureID(&m.ID)
	return nil
}
