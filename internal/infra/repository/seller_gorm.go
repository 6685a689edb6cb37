package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
	domainrepo "storefront/internal/repository"

	"gorm.io/gorm"
)

type sellerGormRepository struct {
	db *gorm.DB
}

func NewSellerGormRepository(db *gorm.DB) domainrepo.SellerRepository {
	return &sellerGormRepository{db: db}
}

func (r *sellerGormRepository) Create(ctx context.Context, s model.Seller) (model.Seller, error) {
	if err := r.db.WithContext(ctx).Create(&s).Error; err != nil {
		return model.Seller{}, err
	}
	return s, nil
}

func (r *sellerGormRepository) FindByID(ctx context.Context, sellerID int64) (model.Seller, error) {
	var s model.Seller

	err := r.db.WithContext(ctx).
		Where("id = ?", sellerID).
		First(&s).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Seller{}, domainrepo.ErrNotFound
		}
		return model.Seller{}, err
	}

	return s, nil
}

func (r *sellerGormRepository) FindByUserID(ctx context.Context, userID int64) (model.Seller, error) {
	var s model.Seller

	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&s).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Seller{}, domainrepo.ErrNotFound
		}
		return model.Seller{}, err
	}

	return s, nil
}

func (r *sellerGormRepository) ListByStatus(ctx context.Context, status string, page int, limit int) ([]model.Seller, int64, error) {
	tx := r.db.WithContext(ctx).Model(&model.Seller{})

	if status != "" {
		tx = tx.Where("status = ?", status)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var sellers []model.Seller
	err := tx.Order("id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&sellers).Error
	if err != nil {
		return nil, 0, err
	}

	return sellers, total, nil
}

func (r *sellerGormRepository) UpdateStatus(ctx context.Context, sellerID int64, status model.SellerStatus) error {
	res := r.db.WithContext(ctx).
		Model(&model.Seller{}).
		Where("id = ?", sellerID).
		UpdateColumn("status", status)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domainrepo.ErrNotFound
	}
	return nil
}
