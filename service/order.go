package service

import (
	"errors"

	"restaurant/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 订单领域错误，由 api 层映射为对应的 HTTP 状态码
var (
	ErrOrderNotFound       = errors.New("订单不存在")
	ErrOrderClosed         = errors.New("订单已完结，不能再修改")
	ErrOrderItemNotFound   = errors.New("订单项不存在")
	ErrMenuItemNotFound    = errors.New("菜品不存在")
	ErrMenuItemUnavailable = errors.New("菜品已下架")
	ErrTableNotFound       = errors.New("桌台不存在")
	ErrInvalidOrderStatus  = errors.New("无效的订单状态")
	ErrInvalidQuantity     = errors.New("数量必须大于 0")
)

// OrderService 订单应用服务。
// 订单项的所有增删改都经由这里，保证 total_amount 的重算
// 与订单项变更发生在同一事务内：对同一订单的并发修改
// 通过订单行的 FOR UPDATE 锁串行化，避免两次并发插入互相覆盖总价。
type OrderService struct {
	db *gorm.DB
}

// NewOrderService 创建订单服务
func NewOrderService(db *gorm.DB) *OrderService {
	return &OrderService{db: db}
}

// OrderItemInput 订单项输入
type OrderItemInput struct {
	MenuItemID uint
	Quantity   int
	UnitPrice  *decimal.Decimal // 缺省时取菜品当前价格（下单时冻结）
	Notes      string
}

// CreateOrder 创建订单及其订单项，单价冻结与总价计算在同一事务内完成
func (s *OrderService) CreateOrder(tableID *uint, instructions string, createdBy *uint, items []OrderItemInput) (*models.Order, error) {
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
	}

	var orderID uint
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if tableID != nil {
			var table models.Table
			if err := tx.First(&table, *tableID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrTableNotFound
				}
				return err
			}
		}

		order := models.Order{
			TableID:             tableID,
			Status:              models.OrderStatusReceived,
			TotalAmount:         decimal.Zero,
			SpecialInstructions: instructions,
			CreatedBy:           createdBy,
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		orderID = order.ID

		for _, input := range items {
			if err := s.insertItem(tx, order.ID, input); err != nil {
				return err
			}
		}

		return s.recalcTotal(tx, order.ID)
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrder(orderID)
}

// AddItem 向订单追加一个订单项并重算总价
func (s *OrderService) AddItem(orderID uint, input OrderItemInput) (*models.Order, error) {
	if input.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		order, err := s.lockOrder(tx, orderID)
		if err != nil {
			return err
		}
		if order.IsTerminal() {
			return ErrOrderClosed
		}
		if err := s.insertItem(tx, orderID, input); err != nil {
			return err
		}
		return s.recalcTotal(tx, orderID)
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrder(orderID)
}

// RemoveItem 删除订单项并重算总价
func (s *OrderService) RemoveItem(orderID, itemID uint) (*models.Order, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		order, err := s.lockOrder(tx, orderID)
		if err != nil {
			return err
		}
		if order.IsTerminal() {
			return ErrOrderClosed
		}

		var item models.OrderItem
		if err := tx.Where("id = ? AND order_id = ?", itemID, orderID).First(&item).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderItemNotFound
			}
			return err
		}
		if err := tx.Delete(&item).Error; err != nil {
			return err
		}
		return s.recalcTotal(tx, orderID)
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrder(orderID)
}

// UpdateItemQuantity 修改订单项数量并重算总价。
// 原系统只在增删时重算、改数量不重算，这里明确把该缺口补上。
func (s *OrderService) UpdateItemQuantity(orderID, itemID uint, quantity int) (*models.Order, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		order, err := s.lockOrder(tx, orderID)
		if err != nil {
			return err
		}
		if order.IsTerminal() {
			return ErrOrderClosed
		}

		var item models.OrderItem
		if err := tx.Where("id = ? AND order_id = ?", itemID, orderID).First(&item).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderItemNotFound
			}
			return err
		}
		if err := tx.Model(&item).Update("quantity", quantity).Error; err != nil {
			return err
		}
		return s.recalcTotal(tx, orderID)
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrder(orderID)
}

// UpdateStatus 更新订单状态，终态订单拒绝任何流转
func (s *OrderService) UpdateStatus(orderID uint, status string) (*models.Order, error) {
	if !models.ValidOrderStatus(status) {
		return nil, ErrInvalidOrderStatus
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		order, err := s.lockOrder(tx, orderID)
		if err != nil {
			return err
		}
		if order.IsTerminal() {
			return ErrOrderClosed
		}
		return tx.Model(order).Update("status", status).Error
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrder(orderID)
}

// GetOrder 获取订单详情（含订单项与菜品）
func (s *OrderService) GetOrder(orderID uint) (*models.Order, error) {
	var order models.Order
	if err := s.db.Preload("Items").Preload("Items.MenuItem").First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// lockOrder 以 SELECT ... FOR UPDATE 锁定订单行，串行化同一订单的并发修改
func (s *OrderService) lockOrder(tx *gorm.DB, orderID uint) (*models.Order, error) {
	var order models.Order
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// insertItem 写入订单项。未显式给价时取菜品当前价格冻结；
// 菜品不存在按校验失败处理，绝不落 0 价。
func (s *OrderService) insertItem(tx *gorm.DB, orderID uint, input OrderItemInput) error {
	unitPrice := input.UnitPrice
	if unitPrice == nil {
		var menuItem models.MenuItem
		if err := tx.First(&menuItem, input.MenuItemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMenuItemNotFound
			}
			return err
		}
		if !menuItem.IsAvailable {
			return ErrMenuItemUnavailable
		}
		unitPrice = &menuItem.Price
	} else {
		var count int64
		if err := tx.Model(&models.MenuItem{}).Where("id = ?", input.MenuItemID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrMenuItemNotFound
		}
	}

	item := models.OrderItem{
		OrderID:    orderID,
		MenuItemID: input.MenuItemID,
		Quantity:   input.Quantity,
		UnitPrice:  *unitPrice,
		Notes:      input.Notes,
	}
	return tx.Create(&item).Error
}

// recalcTotal 重读当前全部订单项并把 unit_price*quantity 之和写回订单。
// 必须在持有订单行锁的事务内调用，读者不会看到订单项与总价不一致的中间态。
func (s *OrderService) recalcTotal(tx *gorm.DB, orderID uint) error {
	var items []models.OrderItem
	if err := tx.Where("order_id = ?", orderID).Find(&items).Error; err != nil {
		return err
	}

	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}

	return tx.Model(&models.Order{}).Where("id = ?", orderID).
		Update("total_amount", total).Error
}
