package model

import "time"

type OrderItemStatus string

const (
	OrderItemStatusOrdered       OrderItemStatus = "ORDERED"
	OrderItemStatusPaid          OrderItemStatus = "PAID"
	OrderItemStatusShipped       OrderItemStatus = "SHIPPED"
	OrderItemStatusConfirmed     OrderItemStatus = "CONFIRMED"
	OrderItemStatusCancelPending OrderItemStatus = "CANCEL_PENDING"
	OrderItemStatusCanceled      OrderItemStatus = "CANCELED"
	OrderItemStatusReturnPending OrderItemStatus = "RETURN_PENDING"
	OrderItemStatusReturned      OrderItemStatus = "RETURNED"
)

type OrderItem struct {
	ID      int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID string `gorm:"type:uuid;not null;index" json:"order_id"`

	ProductID           int64  `gorm:"not null;index" json:"product_id"`
	ProductNameSnapshot string `gorm:"type:varchar(255);not null" json:"product_name_snapshot"`
	UnitPriceSnapshot   int64  `gorm:"not null" json:"unit_price_snapshot"`
	Quantity            int64  `gorm:"not null" json:"quantity"`

	SellerID           int64  `gorm:"not null;index" json:"seller_id"`
	SellerNameSnapshot string `gorm:"type:varchar(255);not null" json:"seller_name_snapshot"`

	Status       OrderItemStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	CancelReason string          `gorm:"type:varchar(255)" json:"cancel_reason"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
