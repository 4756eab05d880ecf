package search

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/simolima/sportlink-demo-sub001/internal/logger"
	"github.com/simolima/sportlink-demo-sub001/internal/metrics"
	"github.com/simolima/sportlink-demo-sub001/internal/models"
	"github.com/simolima/sportlink-demo-sub001/internal/repository"
	"github.com/simolima/sportlink-demo-sub001/internal/telemetry"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// Search backends as reported in metrics and logs.
const (
	BackendElasticsearch = "elasticsearch"
	BackendDatabase      = "database"
)

// Backend is the index side of profile search. *Client implements it.
type Backend interface {
	SearchProfiles(ctx context.Context, filter repository.SearchFilter) ([]string, int64, error)
	IndexUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, userID string) error
}

// BreakerConfig tunes the circuit breaker in front of the index.
type BreakerConfig struct {
	FailureThreshold uint32
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
}

// DefaultBreakerConfig trips after five consecutive failures and tries again
// after 30 seconds.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
	}
}

// Result is one page of profile search.
type Result struct {
	Data    []*models.User `json:"data"`
	Total   int64          `json:"total"`
	Limit   int            `json:"limit"`
	Offset  int            `json:"offset"`
	HasMore bool           `json:"hasMore"`
}

type hitPage struct {
	ids   []string
	total int64
}

// Service answers profile searches from the index when one is configured and
// from the database otherwise, or whenever the index fails.
type Service struct {
	backend Backend
	repo    repository.UserRepository
	breaker *gobreaker.CircuitBreaker[hitPage]
}

// NewService builds a search service. backend may be nil.
func NewService(backend Backend, repo repository.UserRepository, cfg BreakerConfig) *Service {
	s := &Service{backend: backend, repo: repo}
	if backend == nil {
		return s
	}

	s.breaker = gobreaker.NewCircuitBreaker[hitPage](gobreaker.Settings{
		Name:        "elasticsearch-users",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Log.Warn("Search circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return s
}

// IndexEnabled reports whether an index backend is wired.
func (s *Service) IndexEnabled() bool {
	return s.backend != nil
}

// BreakerState returns the breaker state, or "disabled" without an index.
func (s *Service) BreakerState() string {
	if s.breaker == nil {
		return "disabled"
	}
	return s.breaker.State().String()
}

// Search returns one page of profiles matching filter.
func (s *Service) Search(ctx context.Context, filter repository.SearchFilter) (*Result, error) {
	kind := "professionals"
	if filter.Athletes {
		kind = "athletes"
	}

	ctx, span := telemetry.GetBusinessEvents().TraceSearch(ctx, telemetry.SearchEventAttrs{
		Kind:        kind,
		HasTerm:     filter.SearchTerm != "",
		FiltersUsed: usedFilters(filter),
	})
	defer span.End()

	fallback := false
	if s.backend != nil {
		start := time.Now()
		users, total, err := s.searchIndex(ctx, filter)
		if err == nil {
			observe(BackendElasticsearch, kind, start)
			telemetry.RecordSearchResult(span, BackendElasticsearch, len(users), false)
			return newResult(users, total, filter), nil
		}
		fallback = true
		logger.Log.Warn("Index search failed, falling back to database",
			zap.String("kind", kind),
			zap.String("breaker_state", s.breaker.State().String()),
			zap.Error(err),
		)
	}

	start := time.Now()
	users, total, err := s.repo.SearchProfiles(ctx, filter)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	observe(BackendDatabase, kind, start)
	telemetry.RecordSearchResult(span, BackendDatabase, len(users), fallback)
	return newResult(users, total, filter), nil
}

func (s *Service) searchIndex(ctx context.Context, filter repository.SearchFilter) ([]*models.User, int64, error) {
	page, err := s.breaker.Execute(func() (hitPage, error) {
		ids, total, err := s.backend.SearchProfiles(ctx, filter)
		return hitPage{ids: ids, total: total}, err
	})
	if err != nil {
		return nil, 0, err
	}

	byID, err := s.repo.GetUsers(ctx, page.ids)
	if err != nil {
		return nil, 0, err
	}

	// Hits for profiles deleted since indexing are skipped.
	users := make([]*models.User, 0, len(page.ids))
	for _, id := range page.ids {
		if u, ok := byID[id]; ok {
			users = append(users, u)
		}
	}
	return users, page.total, nil
}

// IndexUser mirrors a created or updated profile into the index. Failures are
// logged; the database stays authoritative.
func (s *Service) IndexUser(ctx context.Context, u *models.User) {
	if s.backend == nil || u == nil {
		return
	}
	if err := s.backend.IndexUser(ctx, u); err != nil {
		logger.Log.Warn("Failed to index user", logger.WithUserID(u.ID), zap.Error(err))
	}
}

// RemoveUser drops a deleted profile from the index.
func (s *Service) RemoveUser(ctx context.Context, userID string) {
	if s.backend == nil {
		return
	}
	if err := s.backend.DeleteUser(ctx, userID); err != nil {
		logger.Log.Warn("Failed to remove user from index", logger.WithUserID(userID), zap.Error(err))
	}
}

// ErrIndexDisabled is returned by index maintenance when no backend is wired.
var ErrIndexDisabled = errors.New("search index not configured")

func newResult(users []*models.User, total int64, filter repository.SearchFilter) *Result {
	if users == nil {
		users = []*models.User{}
	}
	return &Result{
		Data:    users,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
		HasMore: int64(filter.Offset+len(users)) < total,
	}
}

func usedFilters(filter repository.SearchFilter) []string {
	var used []string
	for name, set := range map[string]bool{
		"city":     filter.City != "",
		"country":  filter.Country != "",
		"verified": filter.Verified,
		"role":     filter.Role != "",
		"sport":    filter.Sport != "",
	} {
		if set {
			used = append(used, name)
		}
	}
	sort.Strings(used)
	return used
}

func observe(backend, kind string, start time.Time) {
	m := metrics.Get()
	m.App.SearchRequests.WithLabelValues(backend, kind).Inc()
	m.App.SearchDuration.WithLabelValues(backend).Observe(time.Since(start).Seconds())
}
