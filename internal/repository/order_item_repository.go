package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type OrderItemRepository interface {
	CreateBulk(ctx context.Context, orderID string, items []model.OrderItem) error
	ListByOrderID(ctx context.Context, orderID string) ([]model.OrderItem, error)
	FindByID(ctx context.Context, orderItemID int64) (model.OrderItem, error)

	UpdateStatus(ctx context.Context, orderItemID int64, status model.OrderItemStatus) error

	//キャンセル要求（理由つきでCANCEL_PENDINGへ）
	MarkCancelRequested(ctx context.Context, orderItemID int64, reason string) error

	//注文の全明細のステータスをまとめて更新（決済完了時）
	UpdateStatusByOrderID(ctx context.Context, orderID string, status model.OrderItemStatus) error
}
