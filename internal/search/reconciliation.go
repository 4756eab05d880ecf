package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v9/esutil"
	"github.com/simolima/sportlink-demo-sub001/internal/logger"
	"github.com/simolima/sportlink-demo-sub001/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const reindexPageSize = 500

// ReindexStats summarizes one full resync of the users index.
type ReindexStats struct {
	Indexed  uint64
	Failed   uint64
	Duration time.Duration
}

// ReindexUsers pushes every live profile in db to the users index through the
// bulk API. It repairs drift left by index writes that failed while the
// cluster was unreachable.
func (c *Client) ReindexUsers(ctx context.Context, db *gorm.DB) (*ReindexStats, error) {
	if c == nil {
		return nil, ErrIndexDisabled
	}

	start := time.Now()
	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Client:        c.es,
		Index:         IndexUsers,
		NumWorkers:    2,
		FlushBytes:    1 << 20,
		FlushInterval: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bulk indexer: %w", err)
	}

	for offset := 0; ; offset += reindexPageSize {
		var users []*models.User
		if err := db.WithContext(ctx).
			Order("created_at ASC").
			Limit(reindexPageSize).
			Offset(offset).
			Find(&users).Error; err != nil {
			_ = bi.Close(ctx)
			return nil, fmt.Errorf("failed to load users: %w", err)
		}

		for _, u := range users {
			body, err := json.Marshal(UserToSearchDoc(u))
			if err != nil {
				continue
			}
			err = bi.Add(ctx, esutil.BulkIndexerItem{
				Action:     "index",
				DocumentID: u.ID,
				Body:       bytes.NewReader(body),
				OnFailure: func(ctx context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
					logger.Log.Warn("Failed to reindex user",
						logger.WithUserID(item.DocumentID),
						zap.String("reason", res.Error.Reason),
						zap.Error(err),
					)
				},
			})
			if err != nil {
				_ = bi.Close(ctx)
				return nil, fmt.Errorf("failed to queue user %s: %w", u.ID, err)
			}
		}

		if len(users) < reindexPageSize {
			break
		}
	}

	if err := bi.Close(ctx); err != nil {
		return nil, fmt.Errorf("failed to flush bulk indexer: %w", err)
	}

	stats := bi.Stats()
	result := &ReindexStats{
		Indexed:  stats.NumFlushed,
		Failed:   stats.NumFailed,
		Duration: time.Since(start),
	}

	logger.Log.Info("Users index resynced",
		zap.Uint64("indexed", result.Indexed),
		zap.Uint64("failed", result.Failed),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}
