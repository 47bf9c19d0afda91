package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/pi4tnitsa/telegram-pareser/internal/models"
)

// SourcesRepository manages monitored sources.
type SourcesRepository struct {
	db *gorm.DB
}

// NewSourcesRepository creates a new SourcesRepository.
func NewSourcesRepository(db *gorm.DB) *SourcesRepository {
	return &SourcesRepository{db: db}
}

// Add registers src. An active duplicate returns ErrAlreadyExists; an
// inactive one is reactivated with the new name and kind.
func (r *SourcesRepository) Add(ctx context.Context, src *models.MonitoredSource) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.MonitoredSource
		err := tx.Where("external_id = ?", src.ExternalID).Take(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			src.Active = true
			if err := tx.Create(src).Error; err != nil {
				return fmt.Errorf("create source: %w", err)
			}
			return nil
		case err != nil:
			return fmt.Errorf("get source: %w", err)
		case existing.Active:
			*src = existing
			return ErrAlreadyExists
		}

		existing.DisplayName = src.DisplayName
		existing.Username = src.Username
		existing.Kind = src.Kind
		existing.Active = true
		err = tx.Model(&existing).
			Select("display_name", "username", "kind", "active").
			Updates(&existing).Error
		if err != nil {
			return fmt.Errorf("reactivate source: %w", err)
		}
		*src = existing
		return nil
	})
}

// ListActive returns active sources in registration order.
func (r *SourcesRepository) ListActive(ctx context.Context) ([]models.MonitoredSource, error) {
	var out []models.MonitoredSource
	if err := r.db.WithContext(ctx).Where("active = ?", true).Order("id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	return out, nil
}

// IsActive reports whether externalID is registered and active.
func (r *SourcesRepository) IsActive(ctx context.Context, externalID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.MonitoredSource{}).
		Where("external_id = ? AND active = ?", externalID, true).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("check source: %w", err)
	}
	return n > 0, nil
}

// Deactivate soft-deletes the source with the given id.
func (r *SourcesRepository) Deactivate(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&models.MonitoredSource{}).
		Where("id = ? AND active = ?", id, true).
		Update("active", false)
	if res.Error != nil {
		return fmt.Errorf("deactivate source: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
