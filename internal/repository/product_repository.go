package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// 一覧検索
type ProductListQuery struct {
	Page     int
	Limit    int
	Q        string
	SellerID *int64
	MinPrice *int64
	MaxPrice *int64
	Sort     string
}

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	//公開中（APPROVEDかつis_active）の商品のみ
	ListPublic(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	FindByID(ctx context.Context, id int64) (model.Product, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) error
	UpdateStatus(ctx context.Context, id int64, status model.ProductStatus) error
	SoftDelete(ctx context.Context, id int64) error

	//管理者用（審査待ち含む全件）
	ListAdmin(ctx context.Context, status string, page int, limit int) ([]model.Product, int64, error)
}

type InventoryRepository interface {
	// 在庫が足りるときだけ減算
	DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error)

	// 在庫戻し（キャンセル承認など）
	IncreaseStock(ctx context.Context, productID int64, qty int64) error
}
