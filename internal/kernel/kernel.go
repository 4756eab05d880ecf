// Package kernel holds the Sprinta API dependencies and their shutdown hooks.
// Optional integrations (Redis, Elasticsearch, S3, SES) are nil when not
// configured and every consumer checks for that.
package kernel

import (
	"context"
	"sync"

	"github.com/simolima/sportlink-demo-sub001/internal/affiliations"
	"github.com/simolima/sportlink-demo-sub001/internal/auth"
	"github.com/simolima/sportlink-demo-sub001/internal/cache"
	"github.com/simolima/sportlink-demo-sub001/internal/logger"
	"github.com/simolima/sportlink-demo-sub001/internal/notifications"
	"github.com/simolima/sportlink-demo-sub001/internal/realtime"
	"github.com/simolima/sportlink-demo-sub001/internal/repository"
	"github.com/simolima/sportlink-demo-sub001/internal/search"
	"github.com/simolima/sportlink-demo-sub001/internal/storage"
	"github.com/simolima/sportlink-demo-sub001/internal/validation"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Kernel holds all application dependencies and provides type-safe access.
type Kernel struct {
	// Core infrastructure
	db    *gorm.DB
	cache *cache.RedisClient
	hub   *realtime.Hub

	// Integrations
	auth      auth.TokenValidator
	search    *search.Service
	uploader  storage.ImageUploader
	validator *validation.ServiceValidator

	// Domain services
	users         repository.UserRepository
	notifications *notifications.Service
	affiliations  *affiliations.Service

	// Lifecycle hooks
	cleanupFuncs []cleanupFunc
	mu           sync.RWMutex
}

type cleanupFunc struct {
	name string
	fn   func(context.Context) error
}

// New creates an empty kernel. Services are registered with the Set methods.
func New() *Kernel {
	return &Kernel{}
}

// SetDB registers the database connection
func (k *Kernel) SetDB(db *gorm.DB) *Kernel {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.db = db
	return k
}

// DB returns the database connection
func (k *Kernel) DB() *gorm.DB {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.db
}

// SetCache registers the Redis client
func (k *Kernel) SetCache(client *cache.RedisClient) *Kernel {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.cache = client
	return k
}

// Cache returns the Redis client, or nil
func (k *Kernel) Cache() *cache.RedisClient {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.cache
}

// SetHub registers the realtime hub
func (k *Kernel) SetHub(hub *realtime.Hub) *Kernel {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.hub = hub
	return k
}

// Hub returns the realtime hub
func (k *Kernel) Hub() *realtime.Hub {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.hub
}

// SetAuth registers the bearer token validator
func (k *Kernel) SetAuth(v auth.TokenValidator) *Kernel {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.auth = v
	return k
}

// Auth returns the token validator, or nil when auth is not configured
func (k *Kernel) Auth() auth.TokenValidator {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.auth
}

// SetSearch registers the profile search service
func (k *Kernel) SetSearch(s *search.Service) *Kernel {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.search = s
	return k
}

// Search returns the profile search service
func (k *Kernel) Search() *search.Service {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.search
}

// SetUploader registers the image uploader
func (k *Kernel) SetUploader(u storage.ImageUploader) *Kernel {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.uploader = u
	return k
}

// Uploader returns the image uploader, or nil without S3
func (k *Kernel) Uploader() storage.ImageUploader {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.uploader
}

// SetValidator registers the service validator
func (k *Kernel) SetValidator(v *validation.ServiceValidator) *Kernel {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.validator = v
	return k
}

// Validator returns the service validator
func (k *Kernel) Validator() *validation.ServiceValidator {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.validator
}

// SetUsers registers the user repository
func (k *Kernel) SetUsers(r repository.UserRepository) *Kernel {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.users = r
	return k
}

// Users returns the user repository
func (k *Kernel) Users() repository.UserRepository {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.users
}

// SetNotifications registers the notification service
func (k *Kernel) SetNotifications(s *notifications.Service) *Kernel {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.notifications = s
	return k
}

// Notifications returns the notification service
func (k *Kernel) Notifications() *notifications.Service {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.notifications
}

// SetAffiliations registers the affiliation service
func (k *Kernel) SetAffiliations(s *affiliations.Service) *Kernel {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.affiliations = s
	return k
}

// Affiliations returns the affiliation service
func (k *Kernel) Affiliations() *affiliations.Service {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.affiliations
}

// OnCleanup registers a shutdown hook. Hooks run in reverse order of
// registration.
func (k *Kernel) OnCleanup(name string, fn func(context.Context) error) *Kernel {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.cleanupFuncs = append(k.cleanupFuncs, cleanupFunc{name: name, fn: fn})
	return k
}

// Cleanup runs every shutdown hook in reverse registration order, logging
// failures. It returns a *CleanupError when any hook fails.
func (k *Kernel) Cleanup(ctx context.Context) error {
	k.mu.Lock()
	hooks := k.cleanupFuncs
	k.cleanupFuncs = nil
	k.mu.Unlock()

	failed := map[string]error{}
	for i := len(hooks) - 1; i >= 0; i-- {
		if err := hooks[i].fn(ctx); err != nil {
			logger.Log.Error("Cleanup hook failed", zap.String("hook", hooks[i].name), zap.Error(err))
			failed[hooks[i].name] = err
		}
	}
	if len(failed) > 0 {
		return &CleanupError{Failed: failed}
	}
	return nil
}

// Validate checks that the required dependencies are registered and logs the
// optional ones that are missing.
func (k *Kernel) Validate() error {
	k.mu.RLock()
	defer k.mu.RUnlock()

	var missing []string
	if k.db == nil {
		missing = append(missing, "database")
	}
	if k.users == nil {
		missing = append(missing, "user repository")
	}
	if k.notifications == nil {
		missing = append(missing, "notification service")
	}
	if k.affiliations == nil {
		missing = append(missing, "affiliation service")
	}
	if k.search == nil {
		missing = append(missing, "search service")
	}
	if len(missing) > 0 {
		return NewInitializationError("missing required dependencies", missing)
	}

	optional := []struct {
		name    string
		present bool
	}{
		{"redis", k.cache != nil},
		{"realtime hub", k.hub != nil},
		{"auth", k.auth != nil},
		{"elasticsearch", k.search.IndexEnabled()},
		{"s3", k.uploader != nil},
	}
	for _, dep := range optional {
		if !dep.present {
			logger.Log.Warn("Optional dependency not configured", zap.String("dependency", dep.name))
		}
	}
	return nil
}
