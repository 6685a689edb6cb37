package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// アクセシビリティ設定の保存・取得
type A11yRepository interface {
	//未保存ならErrNotFound
	FindByUserID(ctx context.Context, userID int64) (model.A11ySettings, error)
	Upsert(ctx context.Context, s model.A11ySettings) error
}
