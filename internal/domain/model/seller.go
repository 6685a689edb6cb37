package model

import "time"

type SellerStatus string

const (
	SellerStatusPending  SellerStatus = "PENDING"
	SellerStatusApproved SellerStatus = "APPROVED"
	SellerStatusRejected SellerStatus = "REJECTED"
)

// 販売者。管理者の承認を経てAPPROVEDになる。
type Seller struct {
	ID             int64        `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID         int64        `gorm:"not null;uniqueIndex" json:"user_id"`
	Name           string       `gorm:"type:varchar(255);not null" json:"name"`
	BusinessNumber string       `gorm:"type:varchar(50);not null" json:"business_number"`
	Status         SellerStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	CreatedAt      time.Time    `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time    `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
