package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MenuItem 菜品模型
type MenuItem struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	Name        string          `json:"name" gorm:"size:100;not null"`
	Description string          `json:"description" gorm:"size:255"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	CategoryID  *uint           `json:"category_id" gorm:"index"`
	Category    *Category       `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	ImageURL    string          `json:"image_url" gorm:"size:255"`
	IsAvailable bool            `json:"is_available" gorm:"default:true;index"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `json:"-" gorm:"index"`
}

// TableName 设置表名
func (MenuItem) TableName() string {
	return "menu_items"
}
