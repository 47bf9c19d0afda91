package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/pi4tnitsa/telegram-pareser/internal/models"
)

// KeywordsRepository manages alert keywords.
type KeywordsRepository struct {
	db *gorm.DB
}

// NewKeywordsRepository creates a new KeywordsRepository.
func NewKeywordsRepository(db *gorm.DB) *KeywordsRepository {
	return &KeywordsRepository{db: db}
}

// NormalizeKeyword trims and case-folds a keyword.
func NormalizeKeyword(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// Add stores the normalized keyword. An active duplicate returns
// ErrAlreadyExists; a removed one is reactivated.
func (r *KeywordsRepository) Add(ctx context.Context, text string) (*models.Keyword, error) {
	text = NormalizeKeyword(text)
	if text == "" {
		return nil, ErrEmptyKeyword
	}

	var kw models.Keyword
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("text = ?", text).Take(&kw).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			kw = models.Keyword{Text: text, Active: true}
			if err := tx.Create(&kw).Error; err != nil {
				return fmt.Errorf("create keyword: %w", err)
			}
			return nil
		case err != nil:
			return fmt.Errorf("get keyword: %w", err)
		case kw.Active:
			return ErrAlreadyExists
		}

		if err := tx.Model(&kw).Update("active", true).Error; err != nil {
			return fmt.Errorf("reactivate keyword: %w", err)
		}
		kw.Active = true
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return &kw, err
		}
		return nil, err
	}
	return &kw, nil
}

// Remove deactivates a keyword.
func (r *KeywordsRepository) Remove(ctx context.Context, text string) error {
	res := r.db.WithContext(ctx).Model(&models.Keyword{}).
		Where("text = ? AND active = ?", NormalizeKeyword(text), true).
		Update("active", false)
	if res.Error != nil {
		return fmt.Errorf("remove keyword: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListActive returns active keywords in insertion order.
func (r *KeywordsRepository) ListActive(ctx context.Context) ([]models.Keyword, error) {
	var out []models.Keyword
	if err := r.db.WithContext(ctx).Where("active = ?", true).Order("id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list keywords: %w", err)
	}
	return out, nil
}

// ActiveTexts returns the text of every active keyword.
func (r *KeywordsRepository) ActiveTexts(ctx context.Context) ([]string, error) {
	var out []string
	err := r.db.WithContext(ctx).Model(&models.Keyword{}).
		Where("active = ?", true).
		Order("id").
		Pluck("text", &out).Error
	if err != nil {
		return nil, fmt.Errorf("list keyword texts: %w", err)
	}
	return out, nil
}
