package notifications

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/simolima/sportlink-demo-sub001/internal/cache"
	"github.com/simolima/sportlink-demo-sub001/internal/email"
	"github.com/simolima/sportlink-demo-sub001/internal/logger"
	"github.com/simolima/sportlink-demo-sub001/internal/metrics"
	"github.com/simolima/sportlink-demo-sub001/internal/models"
	"github.com/simolima/sportlink-demo-sub001/internal/realtime"
	"github.com/simolima/sportlink-demo-sub001/internal/telemetry"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SkipReasonDisabled is reported when the recipient turned the category off
const SkipReasonDisabled = "notification_disabled_by_user"

const (
	unreadCacheName = "notifications_unread"
	unreadCacheTTL  = 5 * time.Minute
	emailTimeout    = 15 * time.Second
)

var (
	ErrMissingFields = errors.New("userId, type, title and message are required")
	ErrNotFound      = errors.New("notification not found")
)

// Mailer sends notification emails
type Mailer interface {
	SendNotificationEmail(ctx context.Context, n email.NotificationEmail) error
}

// Input describes a notification to create
type Input struct {
	UserID   string         `json:"userId"`
	Type     string         `json:"type"`
	Title    string         `json:"title"`
	Message  string         `json:"message"`
	Metadata models.JSONMap `json:"metadata"`
}

// Result is the outcome of Notify
type Result struct {
	Notification *models.Notification
	Skipped      bool
	Reason       string
}

// ListOptions filters List
type ListOptions struct {
	UserID          string
	UnreadOnly      bool
	IncludeMessages bool
	Limit           int
}

// Service is the notification center
type Service struct {
	db     *gorm.DB
	hub    realtime.Dispatcher
	cache  *cache.RedisClient
	mailer Mailer
	wg     sync.WaitGroup
}

// Option configures optional integrations of the service
type Option func(*Service)

// WithCache caches unread counts in Redis
func WithCache(rc *cache.RedisClient) Option {
	return func(s *Service) { s.cache = rc }
}

// WithMailer mirrors selected categories to email
func WithMailer(m Mailer) Option {
	return func(s *Service) { s.mailer = m }
}

// NewService creates the notification service. hub may be nil.
func NewService(db *gorm.DB, hub realtime.Dispatcher, opts ...Option) *Service {
	s := &Service{db: db, hub: hub}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Notify checks the recipient's preferences, persists the notification and
// pushes it to connected clients followed by the new unread count.
func (s *Service) Notify(ctx context.Context, in Input) (*Result, error) {
	if in.UserID == "" || in.Type == "" || in.Title == "" || in.Message == "" {
		return nil, ErrMissingFields
	}

	ctx, span := telemetry.GetBusinessEvents().TraceNotify(ctx, in.Type, in.UserID)
	defer span.End()

	prefs, err := s.Preferences(ctx, in.UserID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	category, _ := CategoryOf(in.Type)
	if !IsEnabled(in.Type, prefs) {
		metrics.Get().App.NotificationsSkipped.WithLabelValues(string(category)).Inc()
		logger.DebugWithFields("Notification skipped by preference",
			logger.WithUserID(in.UserID), zap.String("type", in.Type))
		return &Result{Skipped: true, Reason: SkipReasonDisabled}, nil
	}

	n := &models.Notification{
		UserID:   in.UserID,
		Type:     in.Type,
		Title:    in.Title,
		Message:  in.Message,
		Metadata: in.Metadata,
	}
	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("create notification: %w", err)
	}

	label := string(category)
	if label == "" {
		label = "other"
	}
	metrics.Get().App.NotificationsCreated.WithLabelValues(label).Inc()

	s.invalidateUnread(ctx, in.UserID)
	s.dispatch(in.UserID, realtime.EventNotification, NewItem(*n))
	s.PublishUnreadCount(ctx, in.UserID)

	if s.mailer != nil && ShouldEmail(n.Type) {
		s.sendEmailAsync(*n)
	}

	return &Result{Notification: n}, nil
}

// NotifyAll sends the same notification to several users, logging failures
func (s *Service) NotifyAll(ctx context.Context, userIDs []string, in Input) int {
	sent := 0
	for _, id := range userIDs {
		in.UserID = id
		res, err := s.Notify(ctx, in)
		if err != nil {
			logger.Log.Error("Failed to notify user", logger.WithUserID(id), zap.String("type", in.Type), zap.Error(err))
			continue
		}
		if !res.Skipped {
			sent++
		}
	}
	return sent
}

// Send is Notify for callers that only log failures. Domain handlers use it
// after their own write has committed.
func (s *Service) Send(ctx context.Context, in Input) {
	if _, err := s.Notify(ctx, in); err != nil {
		logger.Log.Error("Failed to send notification",
			logger.WithUserID(in.UserID), zap.String("type", in.Type), zap.Error(err))
	}
}

// List returns the user's notifications, newest first
func (s *Service) List(ctx context.Context, opts ListOptions) ([]models.Notification, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", opts.UserID)
	if opts.UnreadOnly {
		q = q.Where("read = ?", false)
	}
	if !opts.IncludeMessages {
		q = q.Where("type NOT IN ?", MessageTypes())
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}

	var list []models.Notification
	if err := q.Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return list, nil
}

// MarkRead sets the read flag of one notification and returns it
func (s *Service) MarkRead(ctx context.Context, id, ownerID string, read bool) (*models.Notification, error) {
	n, err := s.owned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(n).Update("read", read).Error; err != nil {
		return nil, fmt.Errorf("mark notification read: %w", err)
	}
	n.Read = read

	s.invalidateUnread(ctx, n.UserID)
	s.PublishUnreadCount(ctx, n.UserID)
	return n, nil
}

// owned loads notification id. A non-empty ownerID restricts the lookup to
// that user's notifications, so another user's id reads as not found.
func (s *Service) owned(ctx context.Context, id, ownerID string) (*models.Notification, error) {
	q := s.db.WithContext(ctx).Where("id = ?", id)
	if ownerID != "" {
		q = q.Where("user_id = ?", ownerID)
	}
	var n models.Notification
	if err := q.First(&n).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

// MarkAllRead marks every unread notification of userID read
func (s *Service) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true)
	if res.Error != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", res.Error)
	}

	s.invalidateUnread(ctx, userID)
	s.PublishUnreadCount(ctx, userID)
	return res.RowsAffected, nil
}

// Delete removes one notification
func (s *Service) Delete(ctx context.Context, id, ownerID string) (int64, error) {
	n, err := s.owned(ctx, id, ownerID)
	if err != nil {
		return 0, err
	}

	res := s.db.WithContext(ctx).Delete(n)
	if res.Error != nil {
		return 0, fmt.Errorf("delete notification: %w", res.Error)
	}

	s.invalidateUnread(ctx, n.UserID)
	s.PublishUnreadCount(ctx, n.UserID)
	return res.RowsAffected, nil
}

// DeleteAll removes every notification of userID
func (s *Service) DeleteAll(ctx context.Context, userID string) (int64, error) {
	res := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Notification{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete notifications: %w", res.Error)
	}

	s.invalidateUnread(ctx, userID)
	s.PublishUnreadCount(ctx, userID)
	return res.RowsAffected, nil
}

// PurgeRead deletes read notifications created before cutoff
func (s *Service) PurgeRead(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("read = ? AND created_at < ?", true, cutoff).
		Delete(&models.Notification{})
	if res.Error != nil {
		return 0, fmt.Errorf("purge notifications: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// UnreadCount counts unread notifications outside the messages category
func (s *Service) UnreadCount(ctx context.Context, userID string) (int64, error) {
	if s.cache != nil {
		n, ok, err := s.cache.UnreadCount(ctx, userID)
		if err != nil {
			logger.Log.Warn("Unread count cache read failed", logger.WithUserID(userID), zap.Error(err))
		} else if ok {
			metrics.RecordCacheHit(unreadCacheName)
			return n, nil
		}
		metrics.RecordCacheMiss(unreadCacheName)
	}

	var count int64
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND read = ? AND type NOT IN ?", userID, false, MessageTypes()).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetUnreadCount(ctx, userID, count, unreadCacheTTL); err != nil {
			logger.Log.Warn("Unread count cache write failed", logger.WithUserID(userID), zap.Error(err))
		}
	}
	return count, nil
}

// PublishUnreadCount pushes the current unread count to the user's clients
func (s *Service) PublishUnreadCount(ctx context.Context, userID string) int {
	count, err := s.UnreadCount(ctx, userID)
	if err != nil {
		logger.Log.Error("Failed to compute unread count", logger.WithUserID(userID), zap.Error(err))
		return 0
	}
	return s.dispatch(userID, realtime.EventUnreadCount, map[string]int64{"count": count})
}

func (s *Service) dispatch(userID, event string, data interface{}) int {
	if s.hub == nil {
		return 0
	}
	return s.hub.DispatchToUser(userID, event, data)
}

func (s *Service) invalidateUnread(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateUnread(ctx, userID); err != nil {
		logger.Log.Warn("Unread count cache invalidation failed", logger.WithUserID(userID), zap.Error(err))
	}
}

func (s *Service) sendEmailAsync(n models.Notification) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), emailTimeout)
		defer cancel()

		var user models.User
		if err := s.db.WithContext(ctx).Select("id", "email", "first_name").Where("id = ?", n.UserID).First(&user).Error; err != nil {
			logger.Log.Warn("Notification email skipped, recipient not found", logger.WithUserID(n.UserID), zap.Error(err))
			return
		}
		if user.Email == "" {
			return
		}

		msg := email.NotificationEmail{
			ToEmail: user.Email,
			ToName:  user.FirstName,
			Title:   n.Title,
			Message: n.Message,
		}
		if dest := Destination(n.Type, n.Metadata); dest != nil {
			msg.Destination = *dest
		}

		if err := s.mailer.SendNotificationEmail(ctx, msg); err != nil {
			metrics.Get().App.NotificationEmails.WithLabelValues("failed").Inc()
			logger.Log.Error("Failed to send notification email",
				logger.WithUserID(n.UserID), logger.WithNotificationID(n.ID), zap.Error(err))
			return
		}
		metrics.Get().App.NotificationEmails.WithLabelValues("sent").Inc()
	}()
}

// Wait blocks until pending email deliveries finish
func (s *Service) Wait() {
	s.wg.Wait()
}
