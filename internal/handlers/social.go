package handlers

import (
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/simolima/sportlink-demo-sub001/internal/dto"
	"github.com/simolima/sportlink-demo-sub001/internal/models"
	"github.com/simolima/sportlink-demo-sub001/internal/notifications"
	"github.com/simolima/sportlink-demo-sub001/internal/repository"
	"github.com/simolima/sportlink-demo-sub001/internal/util"
	"gorm.io/gorm"
)

type postCount struct {
	PostID string
	N      int64
}

// countByPost returns per-post row counts of model for the given posts
func (h *Handlers) countByPost(c *gin.Context, model interface{}, postIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(postIDs))
	if len(postIDs) == 0 {
		return counts, nil
	}
	var rows []postCount
	err := h.dbc(c).Model(model).
		Select("post_id, COUNT(*) AS n").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		counts[r.PostID] = r.N
	}
	return counts, nil
}

// ListPosts returns posts newest first, optionally by one author
// GET /api/v1/posts
func (h *Handlers) ListPosts(c *gin.Context) {
	q := h.dbc(c).Preload("Author").Order("created_at DESC")
	if authorID := c.Query("authorId"); authorID != "" {
		q = q.Where("author_id = ?", authorID)
	}
	if limit := c.Query("limit"); limit != "" {
		q = q.Limit(util.ParseLimit(limit, 50, 200)).Offset(util.ParseOffset(c.Query("offset")))
	}

	var posts []models.Post
	if err := q.Find(&posts).Error; err != nil {
		util.HandleDBError(c, err, "posts")
		return
	}

	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	likes, err := h.countByPost(c, &models.Like{}, ids)
	if err != nil {
		util.HandleDBError(c, err, "likes")
		return
	}
	comments, err := h.countByPost(c, &models.Comment{}, ids)
	if err != nil {
		util.HandleDBError(c, err, "comments")
		return
	}
	for i := range posts {
		posts[i].LikesCount = likes[posts[i].ID]
		posts[i].CommentsCount = comments[posts[i].ID]
	}
	c.JSON(http.StatusOK, posts)
}

// CreatePost publishes a post
// POST /api/v1/posts
func (h *Handlers) CreatePost(c *gin.Context) {
	var req dto.CreatePostRequest
	if !bindJSON(c, &req) {
		return
	}
	authorID, ok := actor(c, req.AuthorID, "authorId")
	if !ok {
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		util.RespondMissingField(c, "content")
		return
	}
	author, ok := h.lookupUser(c, authorID, "author")
	if !ok {
		return
	}

	post := models.Post{AuthorID: authorID, Content: content, ImageURL: req.ImageURL}
	if err := h.dbc(c).Create(&post).Error; err != nil {
		util.HandleDBError(c, err, "post")
		return
	}
	post.Author = author
	c.JSON(http.StatusCreated, post)
}

// DeletePost soft deletes a post
// DELETE /api/v1/posts/:id
func (h *Handlers) DeletePost(c *gin.Context) {
	var post models.Post
	if err := h.dbc(c).Where("id = ?", c.Param("id")).First(&post).Error; err != nil {
		util.HandleDBError(c, err, "post")
		return
	}
	if _, err := util.ResolveActor(c, post.AuthorID); err != nil {
		util.RespondWithError(c, err)
		return
	}
	if err := h.dbc(c).Delete(&post).Error; err != nil {
		util.HandleDBError(c, err, "post")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListLikes returns likes of a post or by a user with their count
// GET /api/v1/likes
func (h *Handlers) ListLikes(c *gin.Context) {
	q := h.dbc(c).Order("created_at DESC")
	if postID := c.Query("postId"); postID != "" {
		q = q.Where("post_id = ?", postID)
	}
	if userID := c.Query("userId"); userID != "" {
		q = q.Where("user_id = ?", userID)
	}

	likes := []models.Like{}
	if err := q.Find(&likes).Error; err != nil {
		util.HandleDBError(c, err, "likes")
		return
	}
	c.JSON(http.StatusOK, dto.LikesResponse{Count: int64(len(likes)), Likes: likes})
}

// ToggleLike likes a post, or unlikes it when already liked
// POST /api/v1/likes
func (h *Handlers) ToggleLike(c *gin.Context) {
	var req dto.LikeRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := actor(c, req.UserID, "userId")
	if !ok {
		return
	}
	if req.PostID == "" {
		util.RespondMissingField(c, "postId")
		return
	}
	var post models.Post
	if err := h.dbc(c).Where("id = ?", req.PostID).First(&post).Error; err != nil {
		util.HandleDBError(c, err, "post")
		return
	}

	action := dto.LikeActionUnliked
	err := h.dbc(c).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("post_id = ? AND user_id = ?", req.PostID, userID).Delete(&models.Like{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		action = dto.LikeActionLiked
		return tx.Create(&models.Like{PostID: req.PostID, UserID: userID}).Error
	})
	if err != nil {
		util.HandleDBError(c, err, "like")
		return
	}

	var count int64
	if err := h.dbc(c).Model(&models.Like{}).Where("post_id = ?", req.PostID).Count(&count).Error; err != nil {
		util.HandleDBError(c, err, "likes")
		return
	}
	c.JSON(http.StatusOK, dto.LikeToggleResponse{Action: action, Count: count})
}

// ListComments returns the comments of a post, oldest first
// GET /api/v1/comments
func (h *Handlers) ListComments(c *gin.Context) {
	q := h.dbc(c).Preload("Author").Order("created_at ASC")
	if postID := c.Query("postId"); postID != "" {
		q = q.Where("post_id = ?", postID)
	}

	var comments []models.Comment
	if err := q.Find(&comments).Error; err != nil {
		util.HandleDBError(c, err, "comments")
		return
	}
	c.JSON(http.StatusOK, comments)
}

// CreateComment comments on a post
// POST /api/v1/comments
func (h *Handlers) CreateComment(c *gin.Context) {
	var req dto.CreateCommentRequest
	if !bindJSON(c, &req) {
		return
	}
	authorID, ok := actor(c, req.AuthorID, "authorId")
	if !ok {
		return
	}
	if req.PostID == "" {
		util.RespondMissingField(c, "postId")
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		util.RespondMissingField(c, "content")
		return
	}

	var post models.Post
	if err := h.dbc(c).Where("id = ?", req.PostID).First(&post).Error; err != nil {
		util.HandleDBError(c, err, "post")
		return
	}

	comment := models.Comment{PostID: req.PostID, AuthorID: authorID, Content: content}
	if err := h.dbc(c).Create(&comment).Error; err != nil {
		util.HandleDBError(c, err, "comment")
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// ListFollows returns follow edges filtered by either side
// GET /api/v1/follows
func (h *Handlers) ListFollows(c *gin.Context) {
	follows, err := h.users.ListFollows(c.Request.Context(), c.Query("followerId"), c.Query("followingId"))
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	if follows == nil {
		follows = []models.Follow{}
	}
	c.JSON(http.StatusOK, follows)
}

// CreateFollow follows a user and notifies them
// POST /api/v1/follows
func (h *Handlers) CreateFollow(c *gin.Context) {
	var req dto.FollowRequest
	if !bindJSON(c, &req) {
		return
	}
	followerID, ok := actor(c, req.FollowerID, "followerId")
	if !ok {
		return
	}
	if req.FollowingID == "" {
		util.RespondMissingField(c, "followingId")
		return
	}
	if followerID == req.FollowingID {
		util.RespondBadRequest(c, "cannot follow yourself")
		return
	}

	follower, ok := h.lookupUser(c, followerID, "follower")
	if !ok {
		return
	}

	// Clubs can be followed too; only users are notified.
	targetIsUser := true
	if _, err := h.users.GetUser(c.Request.Context(), req.FollowingID); err != nil {
		if !stderrors.Is(err, repository.ErrUserNotFound) {
			util.RespondWithError(c, err)
			return
		}
		var clubs int64
		if err := h.dbc(c).Model(&models.Club{}).Where("id = ?", req.FollowingID).Count(&clubs).Error; err != nil {
			util.HandleDBError(c, err, "club")
			return
		}
		if clubs == 0 {
			util.RespondNotFound(c, "user")
			return
		}
		targetIsUser = false
	}

	follow, err := h.users.CreateFollow(c.Request.Context(), followerID, req.FollowingID)
	if err != nil {
		if stderrors.Is(err, repository.ErrAlreadyFollowing) {
			util.RespondConflict(c, "already following")
			return
		}
		respondUserError(c, err, "follow")
		return
	}

	if !targetIsUser {
		c.JSON(http.StatusCreated, follow)
		return
	}

	name := orDefault(follower.FullName(), "Un utente")
	h.notify(c.Request.Context(), notifications.Input{
		UserID:  req.FollowingID,
		Type:    notifications.TypeNewFollower,
		Title:   "Nuovo follower",
		Message: name + " ha iniziato a seguirti.",
		Metadata: models.JSONMap{
			"followerId":     followerID,
			"followerName":   name,
			"followerAvatar": follower.AvatarURL,
		},
	})
	c.JSON(http.StatusCreated, follow)
}

// DeleteFollow unfollows a user
// DELETE /api/v1/follows?followerId&followingId
func (h *Handlers) DeleteFollow(c *gin.Context) {
	followerID, ok := actor(c, c.Query("followerId"), "followerId")
	if !ok {
		return
	}
	followingID := c.Query("followingId")
	if followingID == "" {
		util.RespondMissingField(c, "followingId")
		return
	}

	removed, err := h.users.DeleteFollow(c.Request.Context(), followerID, followingID)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}
