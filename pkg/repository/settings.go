package repository

import (
	"context"
	"time"

	"github.com/example/zastore/pkg/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Seed inserts defaults as the settings row unless one already exists.
// It reports whether a row was written.
func (r *SettingsRepository) Seed(ctx context.Context, defaults models.StoreSettings) (bool, error) {
	defaults.ID = models.StoreSettingsID
	defaults.UpdatedAt = time.Now().UTC()
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&defaults)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *SettingsRepository) Get(ctx context.Context) (*models.StoreSettings, error) {
	var settings models.StoreSettings
	err := r.db.WithContext(ctx).Where("id = ?", models.StoreSettingsID).First(&settings).Error
	if err != nil {
		return nil, translate(err)
	}
	return &settings, nil
}

// Save overwrites the settings row.
func (r *SettingsRepository) Save(ctx context.Context, settings *models.StoreSettings) error {
	settings.ID = models.StoreSettingsID
	settings.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(settings).Error
}
