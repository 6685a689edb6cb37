package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// 配送先住所の保存・取得の窓口
type AddressRepository interface {
	//作成後はID等が埋まったものを返す
	Create(ctx context.Context, address model.Address) (model.Address, error)

	ListByUserID(ctx context.Context, userID int64) ([]model.Address, error)

	FindByID(ctx context.Context, addressID int64) (model.Address, error)

	//デフォルト住所を1件取得（無ければErrNotFound）
	FindDefaultByUserID(ctx context.Context, userID int64) (model.Address, error)

	Update(ctx context.Context, address model.Address) error

	Delete(ctx context.Context, addressID int64) error

	//住所がそのユーザーのものかを確認
	IsOwnedByUser(ctx context.Context, addressID, userID int64) (bool, error)

	//user内でdefaultは1つになるよう切り替える
	SetDefault(ctx context.Context, userID, addressID int64) error
}
