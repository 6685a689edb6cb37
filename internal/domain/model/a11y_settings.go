package model

import "time"

// ユーザーごとのアクセシビリティ設定。
// クライアントはローカルにキャッシュするが、永続化の正はサーバ側。
type A11ySettings struct {
	UserID            int64     `gorm:"primaryKey" json:"user_id"`
	FontScale         int       `gorm:"not null;default:100" json:"font_scale"`
	HighContrast      bool      `gorm:"not null;default:false" json:"high_contrast"`
	ReduceMotion      bool      `gorm:"not null;default:false" json:"reduce_motion"`
	ScreenReaderHints bool      `gorm:"not null;default:false" json:"screen_reader_hints"`
	UpdatedAt         time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
