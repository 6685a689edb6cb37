package model

import "time"

// 配送先住所
type Address struct {
	ID     int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID int64 `gorm:"not null;index" json:"user_id"`

	//受取人
	Receiver string `gorm:"type:varchar(100);not null" json:"receiver"`

	//電話番号
	Phone string `gorm:"type:varchar(30);not null" json:"phone"`

	//郵便番号
	Zipcode string `gorm:"type:varchar(20);not null" json:"zipcode"`

	//住所
	Addr1 string `gorm:"type:varchar(255);not null" json:"addr1"`

	//詳細住所
	Addr2 string `gorm:"type:varchar(255)" json:"addr2"`

	//このユーザーのデフォルト住所か。ユーザーにつき最大1件
	IsDefault bool `gorm:"not null;default:false" json:"is_default"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
