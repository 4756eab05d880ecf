package notifications

import (
	"context"
	"errors"
	"fmt"

	"github.com/simolima/sportlink-demo-sub001/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrUnknownCategory is returned when a preference names no known category
var ErrUnknownCategory = errors.New("unknown notification category")

// Preferences returns the stored category switches of userID merged over
// the defaults.
func (s *Service) Preferences(ctx context.Context, userID string) (map[string]bool, error) {
	prefs := DefaultPreferences()

	var row models.NotificationPreferences
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return prefs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load notification preferences: %w", err)
	}

	for category, enabled := range row.Categories {
		prefs[category] = enabled
	}
	return prefs, nil
}

// UpdatePreferences upserts a partial map of category switches and returns
// the merged result.
func (s *Service) UpdatePreferences(ctx context.Context, userID string, partial map[string]bool) (map[string]bool, error) {
	for category := range partial {
		if !IsValidCategory(category) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownCategory, category)
		}
	}

	current, err := s.Preferences(ctx, userID)
	if err != nil {
		return nil, err
	}
	for category, enabled := range partial {
		current[category] = enabled
	}

	row := models.NotificationPreferences{UserID: userID, Categories: current}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"categories", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return nil, fmt.Errorf("save notification preferences: %w", err)
	}
	return current, nil
}
