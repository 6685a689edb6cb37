package usecase

import (
	"context"
	"time"
)

const (
	EventOrderCreated         = "order.created"
	EventOrderPaid            = "order.paid"
	EventOrderCancelRequested = "order.cancel_requested"
)

// 注文ライフサイクルイベント。Kafkaに流す
type OrderEvent struct {
	Type    string    `json:"type"`
	OrderID string    `json:"order_id"`
	UserID  int64     `json:"user_id"`
	Amount  int64     `json:"amount,omitempty"`
	At      time.Time `json:"at"`
}

// 発行失敗は業務エラーにしない（ログに残すだけ）
type OrderEventPublisher interface {
	Publish(ctx context.Context, ev OrderEvent) error
}

// usecaseに渡す部品
type IDGenerator interface {
	NewID() string
}

type Clock interface {
	Now() time.Time
}
