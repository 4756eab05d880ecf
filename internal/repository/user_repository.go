package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/simolima/sportlink-demo-sub001/internal/models"
	"github.com/simolima/sportlink-demo-sub001/internal/util"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrEmailExists      = errors.New("email already registered")
	ErrAlreadyFollowing = errors.New("already following")
)

// UserFilter narrows ListUsers
type UserFilter struct {
	ID    string
	Email string
	Role  string
}

// SearchFilter holds profile search parameters. Role "" with Athletes=false
// means every role except player.
type SearchFilter struct {
	Athletes   bool
	SearchTerm string
	City       string
	Country    string
	Verified   bool
	Role       string
	Sport      string
	Limit      int
	Offset     int
}

// UserRepository handles all database operations for users
type UserRepository interface {
	// User CRUD
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, userID string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, userID string, updates map[string]interface{}) (*models.User, error)
	DeleteUser(ctx context.Context, userID string) error

	// User queries
	ListUsers(ctx context.Context, filter UserFilter) ([]*models.User, error)
	GetUsers(ctx context.Context, userIDs []string) (map[string]*models.User, error)
	SearchProfiles(ctx context.Context, filter SearchFilter) ([]*models.User, int64, error)

	// Followers/Following
	GetFollowerCount(ctx context.Context, userID string) (int64, error)
	GetFollowingCount(ctx context.Context, userID string) (int64, error)
	GetFollowerIDs(ctx context.Context, userID string) ([]string, error)

	// Follow relationship
	ListFollows(ctx context.Context, followerID, followingID string) ([]models.Follow, error)
	CreateFollow(ctx context.Context, followerID, followingID string) (*models.Follow, error)
	DeleteFollow(ctx context.Context, followerID, followingID string) (int64, error)
	IsFollowing(ctx context.Context, followerID, followingID string) (bool, error)
}

// userRepository implements UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// CreateUser creates a new user
func (r *userRepository) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil || strings.TrimSpace(user.Email) == "" {
		return ErrInvalidInput
	}

	if _, err := r.GetUserByEmail(ctx, user.Email); err == nil {
		return ErrEmailExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return err
	}

	err := r.db.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrEmailExists
	}
	return err
}

// GetUser gets a user by ID
func (r *userRepository) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail gets a user by email (case-insensitive)
func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = LOWER(?)", strings.TrimSpace(email)).
		First(&user).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser applies a partial update and returns the stored user
func (r *userRepository) UpdateUser(ctx context.Context, userID string, updates map[string]interface{}) (*models.User, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}

	user, err := r.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return user, nil
	}

	if email, ok := updates["email"].(string); ok {
		email = strings.ToLower(strings.TrimSpace(email))
		if existing, err := r.GetUserByEmail(ctx, email); err == nil && existing.ID != userID {
			return nil, ErrEmailExists
		}
		updates["email"] = email
	}

	err = r.db.WithContext(ctx).Model(user).Updates(updates).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrEmailExists
	}
	if err != nil {
		return nil, err
	}
	return r.GetUser(ctx, userID)
}

// DeleteUser soft deletes a user
func (r *userRepository) DeleteUser(ctx context.Context, userID string) error {
	res := r.db.WithContext(ctx).
		Where("id = ?", userID).
		Delete(&models.User{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ListUsers returns users matching the optional filters
func (r *userRepository) ListUsers(ctx context.Context, filter UserFilter) ([]*models.User, error) {
	var users []*models.User

	q := r.db.WithContext(ctx)
	if filter.ID != "" {
		q = q.Where("id = ?", filter.ID)
	}
	if filter.Email != "" {
		q = q.Where("LOWER(email) = LOWER(?)", strings.TrimSpace(filter.Email))
	}
	if filter.Role != "" {
		if role := models.NormalizeRole(filter.Role); role != "" {
			q = q.Where("role = ?", role)
		} else {
			q = q.Where("role = ?", filter.Role)
		}
	}

	err := q.Order("created_at DESC").Find(&users).Error
	return users, err
}

// GetUsers loads multiple users by IDs, keyed by ID
func (r *userRepository) GetUsers(ctx context.Context, userIDs []string) (map[string]*models.User, error) {
	out := make(map[string]*models.User, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	var users []*models.User
	if err := r.db.WithContext(ctx).Where("id IN ?", userIDs).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

// SearchProfiles runs the profile search against the database and returns
// the page plus the total match count.
func (r *userRepository) SearchProfiles(ctx context.Context, filter SearchFilter) ([]*models.User, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.User{})

	switch {
	case filter.Athletes:
		q = q.Where("role = ?", models.RolePlayer)
	case filter.Role != "":
		q = q.Where("role = ?", filter.Role)
	default:
		q = q.Where("role <> ? AND role <> ''", models.RolePlayer)
	}

	if filter.SearchTerm != "" {
		p := util.ContainsPattern(filter.SearchTerm)
		q = q.Where(
			`(LOWER(first_name) LIKE ? ESCAPE '\' OR LOWER(last_name) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\' OR LOWER(bio) LIKE ? ESCAPE '\' OR LOWER(username) LIKE ? ESCAPE '\')`,
			p, p, p, p, p,
		)
	}
	if filter.City != "" {
		q = q.Where(`LOWER(city) LIKE ? ESCAPE '\'`, util.ContainsPattern(filter.City))
	}
	if filter.Country != "" {
		q = q.Where(`LOWER(country) LIKE ? ESCAPE '\'`, util.ContainsPattern(filter.Country))
	}
	if filter.Verified {
		q = q.Where("verified = ?", true)
	}
	if filter.Sport != "" {
		q = q.Where(`LOWER(CAST(sports AS TEXT)) LIKE ? ESCAPE '\'`, `%"`+util.EscapeLike(strings.ToLower(strings.TrimSpace(filter.Sport)))+`"%`)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []*models.User
	err := q.Order("created_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&users).Error

	return users, total, err
}

// GetFollowerCount gets follower count for a user
func (r *userRepository) GetFollowerCount(ctx context.Context, userID string) (int64, error) {
	var count int64

	err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("following_id = ?", userID).
		Count(&count).Error

	return count, err
}

// GetFollowingCount gets following count for a user
func (r *userRepository) GetFollowingCount(ctx context.Context, userID string) (int64, error) {
	var count int64

	err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ?", userID).
		Count(&count).Error

	return count, err
}

// GetFollowerIDs returns the IDs of users following userID
func (r *userRepository) GetFollowerIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("following_id = ?", userID).
		Pluck("follower_id", &ids).Error
	return ids, err
}

// ListFollows returns follow edges filtered by either side
func (r *userRepository) ListFollows(ctx context.Context, followerID, followingID string) ([]models.Follow, error) {
	var follows []models.Follow

	q := r.db.WithContext(ctx)
	if followerID != "" {
		q = q.Where("follower_id = ?", followerID)
	}
	if followingID != "" {
		q = q.Where("following_id = ?", followingID)
	}

	err := q.Order("created_at DESC").Find(&follows).Error
	return follows, err
}

// CreateFollow creates a follow relationship
func (r *userRepository) CreateFollow(ctx context.Context, followerID, followingID string) (*models.Follow, error) {
	if followerID == "" || followingID == "" {
		return nil, ErrInvalidInput
	}

	following, err := r.IsFollowing(ctx, followerID, followingID)
	if err != nil {
		return nil, err
	}
	if following {
		return nil, ErrAlreadyFollowing
	}

	follow := &models.Follow{FollowerID: followerID, FollowingID: followingID}
	err = r.db.WithContext(ctx).Create(follow).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrAlreadyFollowing
	}
	if err != nil {
		return nil, err
	}
	return follow, nil
}

// DeleteFollow deletes a follow relationship and returns the removed count
func (r *userRepository) DeleteFollow(ctx context.Context, followerID, followingID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&models.Follow{})
	return res.RowsAffected, res.Error
}

// IsFollowing checks if follower follows following
func (r *userRepository) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	var count int64

	err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error

	return count > 0, err
}
