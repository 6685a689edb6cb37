package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type SellerRepository interface {
	Create(ctx context.Context, s model.Seller) (model.Seller, error)
	FindByID(ctx context.Context, sellerID int64) (model.Seller, error)
	FindByUserID(ctx context.Context, userID int64) (model.Seller, error)
	ListByStatus(ctx context.Context, status string, page int, limit int) ([]model.Seller, int64, error)
	UpdateStatus(ctx context.Context, sellerID int64, status model.SellerStatus) error
}
