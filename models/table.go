package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	// TableStatusAvailable 空闲
	TableStatusAvailable = "available"
	// TableStatusOccupied 使用中
	TableStatusOccupied = "occupied"
	// TableStatusReserved 已预订
	TableStatusReserved = "reserved"
)

// ValidTableStatus 检查桌台状态是否合法
func ValidTableStatus(status string) bool {
	switch status {
	case TableStatusAvailable, TableStatusOccupied, TableStatusReserved:
		return true
	}
	return false
}

// Table 桌台模型
type Table struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Number    int            `json:"number" gorm:"uniqueIndex;not null"`
	Capacity  int            `json:"capacity" gorm:"not null"`
	Status    string         `json:"status" gorm:"size:20;not null;default:available;index"`
	QRCode    string         `json:"qr_code" gorm:"size:255"` // 扫码点餐用的桌台标识
	Orders    []Order        `json:"orders,omitempty" gorm:"foreignKey:TableID"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName 设置表名
func (Table) TableName() string {
	return "tables"
}
