package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
	domainrepo "storefront/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type a11yGormRepository struct {
	db *gorm.DB
}

func NewA11yGormRepository(db *gorm.DB) domainrepo.A11yRepository {
	return &a11yGormRepository{db: db}
}

func (r *a11yGormRepository) FindByUserID(ctx context.Context, userID int64) (model.A11ySettings, error) {
	var s model.A11ySettings

	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&s).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.A11ySettings{}, domainrepo.ErrNotFound
		}
		return model.A11ySettings{}, err
	}

	return s, nil
}

// user_idをキーに上書き保存
func (r *a11yGormRepository) Upsert(ctx context.Context, s model.A11ySettings) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"font_scale", "high_contrast", "reduce_motion", "screen_reader_hints", "updated_at"}),
		}).
		Create(&s).Error
}
