package model

import "time"

type PaymentStatus string

const (
	//注文作成時に発行。まだ検証されていない
	PaymentStatusReady PaymentStatus = "READY"

	//検証呼び出しが進行中。二重実行を弾くためのラッチ
	PaymentStatusInProgress PaymentStatus = "IN_PROGRESS"

	//ゲートウェイ承認済み
	PaymentStatusDone PaymentStatus = "DONE"

	//プロバイダから失敗コードが返った。以後ゲートウェイは呼ばない
	PaymentStatusAborted PaymentStatus = "ABORTED"
)

// 注文1件につき決済レコード1件。
type Payment struct {
	ID      int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID string `gorm:"type:uuid;not null;uniqueIndex" json:"order_id"`

	Amount int64         `gorm:"not null" json:"amount"`
	Status PaymentStatus `gorm:"type:varchar(20);not null;index" json:"status"`

	//ゲートウェイが発行する決済キー
	PaymentKey string `gorm:"type:varchar(255)" json:"payment_key"`

	FailCode    string     `gorm:"type:varchar(100)" json:"fail_code"`
	FailMessage string     `gorm:"type:varchar(500)" json:"fail_message"`
	ApprovedAt  *time.Time `json:"approved_at"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
