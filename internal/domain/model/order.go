package model

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusAccepted  OrderStatus = "ACCEPTED"
	OrderStatusRejected  OrderStatus = "REJECTED"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// 注文。IDは決済ウィジェットへそのまま渡すためUUID文字列。
type Order struct {
	ID        string `gorm:"type:uuid;primaryKey" json:"order_id"`
	UserID    int64  `gorm:"not null;index" json:"user_id"`
	AddressID int64  `gorm:"not null" json:"address_id"`

	//決済画面に表示する注文名（先頭商品名＋「外 N건」）
	OrderName string `gorm:"type:varchar(255);not null" json:"order_name"`

	Status OrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`

	//金額はpre-checkと同じ計算で確定したスナップショット
	TotalAmount int64 `gorm:"not null" json:"total_amount"`
	ShippingFee int64 `gorm:"not null" json:"shipping_fee"`
	FinalAmount int64 `gorm:"not null" json:"final_amount"`

	IdempotencyKey string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"-"`
	CreatedAt      time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
