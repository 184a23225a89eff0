package model

import (
	"time"
)

type Product struct {
	ID          int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string  `gorm:"type:varchar(255);not null" json:"name"`
	Description string  `gorm:"type:varchar(1000);not null" json:"description"`
	Price       float64 `gorm:"type:numeric(10,2);not null" json:"price"`

	// 保存済み画像の相対パス（storage配下）。未アップロードならNULL
	FeaturedImage *string `gorm:"type:varchar(255)" json:"featured_image"`
	// アップロード時のクライアント側ファイル名（表示用・保存先の決定には使わない）
	FeaturedImageOriginalName *string `gorm:"type:varchar(255)" json:"featured_image_original_name"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
