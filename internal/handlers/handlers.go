// Package handlers implements the Sprinta REST API on gin.
package handlers

import (
	"time"

	"github.com/simolima/sportlink-demo-sub001/internal/affiliations"
	"github.com/simolima/sportlink-demo-sub001/internal/kernel"
	"github.com/simolima/sportlink-demo-sub001/internal/notifications"
	"github.com/simolima/sportlink-demo-sub001/internal/realtime"
	"github.com/simolima/sportlink-demo-sub001/internal/repository"
	"github.com/simolima/sportlink-demo-sub001/internal/search"
	"github.com/simolima/sportlink-demo-sub001/internal/storage"
	"github.com/simolima/sportlink-demo-sub001/internal/validation"
	"gorm.io/gorm"
)

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	db            *gorm.DB
	users         repository.UserRepository
	search        *search.Service
	notifications *notifications.Service
	affiliations  *affiliations.Service
	hub           *realtime.Hub
	uploader      storage.ImageUploader
	validator     *validation.ServiceValidator
	now           func() time.Time
}

// NewHandlers builds the handlers from the services held by k
func NewHandlers(k *kernel.Kernel) *Handlers {
	return &Handlers{
		db:            k.DB(),
		users:         k.Users(),
		search:        k.Search(),
		notifications: k.Notifications(),
		affiliations:  k.Affiliations(),
		hub:           k.Hub(),
		uploader:      k.Uploader(),
		validator:     k.Validator(),
		now:           time.Now,
	}
}

// SetClock replaces the time source used for expiry checks
func (h *Handlers) SetClock(now func() time.Time) {
	h.now = now
}
