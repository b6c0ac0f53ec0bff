package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderItem 订单项模型
// UnitPrice 在创建时从菜品当前价格冻结，之后菜单调价不影响历史订单
type OrderItem struct {
	ID         uint            `json:"id" gorm:"primaryKey"`
	OrderID    uint            `json:"order_id" gorm:"index;not null"`
	MenuItemID uint            `json:"menu_item_id" gorm:"index;not null"`
	MenuItem   *MenuItem       `json:"menu_item,omitempty" gorm:"foreignKey:MenuItemID"`
	Quantity   int             `json:"quantity" gorm:"not null;default:1"`
	UnitPrice  decimal.Decimal `json:"unit_price" gorm:"type:decimal(10,2);not null"`
	Notes      string          `json:"notes" gorm:"type:text"`
	CreatedAt  time.Time       `json:"created_at"`
	DeletedAt  gorm.DeletedAt  `json:"-" gorm:"index"`
}

// TableName 设置表名
func (OrderItem) TableName() string {
	return "order_items"
}

// Subtotal 单项小计
func (i *OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
