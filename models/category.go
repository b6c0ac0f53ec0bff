package models

import (
	"time"

	"gorm.io/gorm"
)

// Category 菜品分类
type Category struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	Name        string         `json:"name" gorm:"size:50;not null;uniqueIndex"`
	Description string         `json:"description" gorm:"size:255"`
	MenuItems   []MenuItem     `json:"menu_items,omitempty" gorm:"foreignKey:CategoryID"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName 设置表名
func (Category) TableName() string {
	return "categories"
}
