package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	// OrderStatusReceived 已接单
	OrderStatusReceived = "received"
	// OrderStatusPreparing 制作中
	OrderStatusPreparing = "preparing"
	// OrderStatusReady 待上菜
	OrderStatusReady = "ready"
	// OrderStatusDelivered 已上菜
	OrderStatusDelivered = "delivered"
	// OrderStatusCancelled 已取消
	OrderStatusCancelled = "cancelled"
)

// ValidOrderStatus 检查订单状态是否合法
func ValidOrderStatus(status string) bool {
	switch status {
	case OrderStatusReceived, OrderStatusPreparing, OrderStatusReady,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Order 订单模型
// TotalAmount 为派生字段，始终等于当前订单项 unit_price*quantity 之和，
// 由 service.OrderService 在同一事务内维护
type Order struct {
	ID                  uint            `json:"id" gorm:"primaryKey"`
	TableID             *uint           `json:"table_id" gorm:"index"`
	Table               *Table          `json:"table,omitempty" gorm:"foreignKey:TableID"`
	Status              string          `json:"status" gorm:"size:20;not null;default:received;index"`
	TotalAmount         decimal.Decimal `json:"total_amount" gorm:"type:decimal(10,2);not null;default:0"`
	SpecialInstructions string          `json:"special_instructions" gorm:"type:text"`
	CreatedBy           *uint           `json:"created_by" gorm:"index"`
	Creator             *User           `json:"creator,omitempty" gorm:"foreignKey:CreatedBy"`
	Items               []OrderItem     `json:"items,omitempty" gorm:"foreignKey:OrderID"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
	DeletedAt           gorm.DeletedAt  `json:"-" gorm:"index"`
}

// TableName 设置表名
func (Order) TableName() string {
	return "orders"
}

// IsTerminal 已上菜/已取消为终态，不再接受任何变更
func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusDelivered || o.Status == OrderStatusCancelled
}
