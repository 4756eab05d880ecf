package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/simolima/sportlink-demo-sub001/internal/metrics"
	"github.com/simolima/sportlink-demo-sub001/internal/models"
	"github.com/simolima/sportlink-demo-sub001/internal/search"
	"gorm.io/gorm"
)

// Job names.
const (
	JobCloseExpiredOpportunities = "close_expired_opportunities"
	JobPurgeReadNotifications    = "purge_read_notifications"
	JobReindexUsers              = "reindex_users"
)

// NotificationRetention is how long read notifications are kept.
const NotificationRetention = 90 * 24 * time.Hour

// NotificationPurger deletes read notifications created before cutoff.
type NotificationPurger interface {
	PurgeRead(ctx context.Context, cutoff time.Time) (int64, error)
}

// UserReindexer resyncs the profile search index from the database.
type UserReindexer interface {
	ReindexUsers(ctx context.Context, db *gorm.DB) (*search.ReindexStats, error)
}

// CloseExpiredOpportunities moves open opportunities whose expiry date is
// before today to closed.
func CloseExpiredOpportunities(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Model(&models.Opportunity{}).
		Where("status = ? AND expiry_date < ?", models.OpportunityOpen, models.StartOfDay(now)).
		Update("status", models.OpportunityClosed)
	if res.Error != nil {
		return 0, fmt.Errorf("close expired opportunities: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		metrics.Get().App.Transitions.
			WithLabelValues("opportunity", models.OpportunityOpen, models.OpportunityClosed).
			Add(float64(res.RowsAffected))
	}
	return res.RowsAffected, nil
}

// Deps are the services the maintenance jobs act on. Reindexer may be nil.
type Deps struct {
	DB            *gorm.DB
	Notifications NotificationPurger
	Reindexer     UserReindexer
	Now           func() time.Time
}

// RegisterMaintenance adds the standard jobs to s.
func RegisterMaintenance(s *Scheduler, deps Deps) error {
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	jobs := []Job{
		{
			Name:     JobCloseExpiredOpportunities,
			Schedule: "@hourly",
			Run: func(ctx context.Context) (int64, error) {
				return CloseExpiredOpportunities(ctx, deps.DB, now())
			},
		},
		{
			Name:     JobPurgeReadNotifications,
			Schedule: "0 3 * * *",
			Run: func(ctx context.Context) (int64, error) {
				return deps.Notifications.PurgeRead(ctx, now().Add(-NotificationRetention))
			},
		},
	}
	if deps.Reindexer != nil {
		jobs = append(jobs, Job{
			Name:     JobReindexUsers,
			Schedule: "30 4 * * *",
			Timeout:  30 * time.Minute,
			Run: func(ctx context.Context) (int64, error) {
				stats, err := deps.Reindexer.ReindexUsers(ctx, deps.DB)
				if err != nil {
					return 0, err
				}
				return int64(stats.Indexed), nil
			},
		})
	}

	for _, job := range jobs {
		if err := s.Add(job); err != nil {
			return err
		}
	}
	return nil
}
