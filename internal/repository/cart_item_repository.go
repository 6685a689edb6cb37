package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type CartItemRepository interface {
	ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error)

	//チェックアウト対象の明細をまとめて取得（所有カート内のみ）
	ListByIDs(ctx context.Context, cartID int64, ids []int64) ([]model.CartItem, error)

	// 同一商品はプラス
	UpsertByCartAndProduct(ctx context.Context, cartID int64, productID int64, addQty int64, unitPriceSnapshot int64) error
	UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error

	//一括削除。削除できた件数を返す
	DeleteByIDs(ctx context.Context, cartID int64, ids []int64) (int64, error)

	FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error)
	IsOwnedByUser(ctx context.Context, cartItemID int64, userID int64) (bool, error)
}
