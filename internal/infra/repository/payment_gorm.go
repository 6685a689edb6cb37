package repository

import (
	"context"
	"errors"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type PaymentGormRepository struct {
	db *gorm.DB
}

func NewPaymentGormRepository(db *gorm.DB) *PaymentGormRepository {
	return &PaymentGormRepository{db: db}
}

func (r *PaymentGormRepository) Create(ctx context.Context, p model.Payment) error {
	return r.db.WithContext(ctx).Create(&p).Error
}

func (r *PaymentGormRepository) FindByOrderID(ctx context.Context, orderID string) (model.Payment, error) {
	var p model.Payment
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Payment{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Payment{}, err
	}
	return p, nil
}

// READYのときだけIN_PROGRESSへ進める。
// 条件付きUPDATEなので、同時に来た検証はどちらか1つしか進めない。
func (r *PaymentGormRepository) TransitionToInProgress(ctx context.Context, orderID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Payment{}).
		Where("order_id = ? AND status = ?", orderID, model.PaymentStatusReady).
		Update("status", model.PaymentStatusInProgress)

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *PaymentGormRepository) MarkDone(ctx context.Context, orderID string, paymentKey string, approvedAt time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&model.Payment{}).
		Where("order_id = ? AND status = ?", orderID, model.PaymentStatusInProgress).
		Updates(map[string]interface{}{
			"status":      model.PaymentStatusDone,
			"payment_key": paymentKey,
			"approved_at": &approvedAt,
		})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *PaymentGormRepository) MarkAborted(ctx context.Context, orderID string, failCode string, failMessage string) error {
	res := r.db.WithContext(ctx).
		Model(&model.Payment{}).
		Where("order_id = ? AND status IN ?", orderID, []model.PaymentStatus{model.PaymentStatusReady, model.PaymentStatusInProgress}).
		Updates(map[string]interface{}{
			"status":       model.PaymentStatusAborted,
			"fail_code":    failCode,
			"fail_message": failMessage,
		})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// ゲートウェイ失敗時にREADYへ戻す（ユーザーが再試行できるように）
func (r *PaymentGormRepository) ReleaseToReady(ctx context.Context, orderID string, failCode string, failMessage string) error {
	res := r.db.WithContext(ctx).
		Model(&model.Payment{}).
		Where("order_id = ? AND status = ?", orderID, model.PaymentStatusInProgress).
		Updates(map[string]interface{}{
			"status":       model.PaymentStatusReady,
			"fail_code":    failCode,
			"fail_message": failMessage,
		})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
