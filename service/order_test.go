package service

import (
	"database/sql/driver"
	"testing"

	"restaurant/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func newMockService(t *testing.T) (*OrderService, sqlmock.Sqlmock, func()) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	return NewOrderService(gormDB), mock, func() { sqlDB.Close() }
}

func orderRows(id uint, status, total string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "status", "total_amount"}).
		AddRow(id, status, total)
}

func itemRows(rows ...[]driver.Value) *sqlmock.Rows {
	r := sqlmock.NewRows([]string{"id", "order_id", "menu_item_id", "quantity", "unit_price"})
	for _, row := range rows {
		r.AddRow(row...)
	}
	return r
}

// expectGetOrder 事务提交后的详情回读（订单 + 订单项 + 菜品预加载）
func expectGetOrder(mock sqlmock.Sqlmock, orderID uint, status, total string, items *sqlmock.Rows, withMenuPreload bool) {
	mock.ExpectQuery("SELECT .* FROM `orders`").
		WillReturnRows(orderRows(orderID, status, total))
	mock.ExpectQuery("SELECT .* FROM `order_items`").
		WillReturnRows(items)
	if withMenuPreload {
		mock.ExpectQuery("SELECT .* FROM `menu_items`").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price"}))
	}
}

func menuItemRows(id uint, name, price string, available bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "price", "is_available"}).
		AddRow(id, name, price, available)
}

// 10.00×2 + 5.50×1 = 25.50，总价与订单项写入发生在同一事务内
func TestCreateOrderComputesTotal(t *testing.T) {
	svc, mock, cleanup := newMockService(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `orders`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	// 第一个菜品 10.00，数量 2
	mock.ExpectQuery("SELECT .* FROM `menu_items`").
		WillReturnRows(menuItemRows(10, "宫保鸡丁", "10.00", true))
	mock.ExpectExec("INSERT INTO `order_items`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	// 第二个菜品 5.50，数量 1
	mock.ExpectQuery("SELECT .* FROM `menu_items`").
		WillReturnRows(menuItemRows(11, "米饭", "5.50", true))
	mock.ExpectExec("INSERT INTO `order_items`").
		WillReturnResult(sqlmock.NewResult(2, 1))
	// 重算：重读全部订单项后写回总价 25.5
	mock.ExpectQuery("SELECT .* FROM `order_items`").
		WillReturnRows(itemRows(
			[]driver.Value{1, 1, 10, 2, "10.00"},
			[]driver.Value{2, 1, 11, 1, "5.50"},
		))
	mock.ExpectExec("UPDATE `orders`").
		WithArgs("25.5", sqlmock.AnyArg(), 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	expectGetOrder(mock, 1, models.OrderStatusReceived, "25.5", itemRows(
		[]driver.Value{1, 1, 10, 2, "10.00"},
		[]driver.Value{2, 1, 11, 1, "5.50"},
	), true)

	order, err := svc.CreateOrder(nil, "", nil, []OrderItemInput{
		{MenuItemID: 10, Quantity: 2},
		{MenuItemID: 11, Quantity: 1},
	})
	require.NoError(t, err)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("25.50")))
	assert.Len(t, order.Items, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

// 空订单总价为 0
func TestCreateOrderEmptyItems(t *testing.T) {
	svc, mock, cleanup := newMockService(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `orders`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT .* FROM `order_items`").
		WillReturnRows(itemRows())
	mock.ExpectExec("UPDATE `orders`").
		WithArgs("0", sqlmock.AnyArg(), 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	expectGetOrder(mock, 1, models.OrderStatusReceived, "0", itemRows(), false)

	order, err := svc.CreateOrder(nil, "", nil, nil)
	require.NoError(t, err)
	assert.True(t, order.TotalAmount.IsZero())
	assert.Empty(t, order.Items)
	require.NoError(t, mock.ExpectationsWereMet())
}

// 菜品不存在是校验失败，绝不落 0 价
func TestCreateOrderMenuItemMissing(t *testing.T) {
	svc, mock, cleanup := newMockService(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `orders`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT .* FROM `menu_items`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price", "is_available"}))
	mock.ExpectRollback()

	_, err := svc.CreateOrder(nil, "", nil, []OrderItemInput{{MenuItemID: 999, Quantity: 1}})
	assert.ErrorIs(t, err, ErrMenuItemNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderTableNotFound(t *testing.T) {
	svc, mock, cleanup := newMockService(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `tables`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	tableID := uint(77)
	_, err := svc.CreateOrder(&tableID, "", nil, nil)
	assert.ErrorIs(t, err, ErrTableNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

// 追加订单项走 FOR UPDATE 行锁并重算总价
func TestAddItem(t *testing.T) {
	svc, mock, cleanup := newMockService(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `orders` .*FOR UPDATE").
		WillReturnRows(orderRows(1, models.OrderStatusReceived, "20"))
	mock.ExpectQuery("SELECT .* FROM `menu_items`").
		WillReturnRows(menuItemRows(11, "米饭", "5.50", true))
	mock.ExpectExec("INSERT INTO `order_items`").
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectQuery("SELECT .* FROM `order_items`").
		WillReturnRows(itemRows(
			[]driver.Value{1, 1, 10, 2, "10.00"},
			[]driver.Value{2, 1, 11, 1, "5.50"},
		))
	mock.ExpectExec("UPDATE `orders`").
		WithArgs("25.5", sqlmock.AnyArg(), 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	expectGetOrder(mock, 1, models.OrderStatusReceived, "25.5", itemRows(
		[]driver.Value{1, 1, 10, 2, "10.00"},
		[]driver.Value{2, 1, 11, 1, "5.50"},
	), true)

	order, err := svc.AddItem(1, OrderItemInput{MenuItemID: 11, Quantity: 1})
	require.NoError(t, err)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("25.5")))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAddItemInvalidQuantity(t *testing.T) {
	svc, _, cleanup := newMockService(t)
	defer cleanup()

	_, err := svc.AddItem(1, OrderItemInput{MenuItemID: 11, Quantity: 0})
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	_, err = svc.AddItem(1, OrderItemInput{MenuItemID: 11, Quantity: -3})
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestAddItemUnavailableMenuItem(t *testing.T) {
	svc, mock, cleanup := newMockService(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `orders` .*FOR UPDATE").
		WillReturnRows(orderRows(1, models.OrderStatusReceived, "0"))
	mock.ExpectQuery("SELECT .* FROM `menu_items`").
		WillReturnRows(menuItemRows(12, "下架菜", "9.90", false))
	mock.ExpectRollback()

	_, err := svc.AddItem(1, OrderItemInput{MenuItemID: 12, Quantity: 1})
	assert.ErrorIs(t, err, ErrMenuItemUnavailable)
	require.NoError(t, mock.ExpectationsWereMet())
}

// 终态订单拒绝任何修改
func TestAddItemOrderClosed(t *testing.T) {
	svc, mock, cleanup := newMockService(t)
	defer cleanup()

	for _, status := range []string{models.OrderStatusDelivered, models.OrderStatusCancelled} {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT .* FROM `orders` .*FOR UPDATE").
			WillReturnRows(orderRows(1, status, "25.5"))
		mock.ExpectRollback()

		_, err := svc.AddItem(1, OrderItemInput{MenuItemID: 11, Quantity: 1})
		assert.ErrorIs(t, err, ErrOrderClosed, "状态 %s 应拒绝修改", status)
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

// 删除 10.00×2 那项后总价回落到 5.50
func TestRemoveItem(t *testing.T) {
	svc, mock, cleanup := newMockService(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `orders` .*FOR UPDATE").
		WillReturnRows(orderRows(1, models.OrderStatusReceived, "25.5"))
	mock.ExpectQuery("SELECT .* FROM `order_items`").
		WillReturnRows(itemRows([]driver.Value{1, 1, 10, 2, "10.00"}))
	// 软删除
	mock.ExpectExec("UPDATE `order_items`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT .* FROM `order_items`").
		WillReturnRows(itemRows([]driver.Value{2, 1, 11, 1, "5.50"}))
	mock.ExpectExec("UPDATE `orders`").
		WithArgs("5.5", sqlmock.AnyArg(), 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	expectGetOrder(mock, 1, models.OrderStatusReceived, "5.5",
		itemRows([]driver.Value{2, 1, 11, 1, "5.50"}), true)

	order, err := svc.RemoveItem(1, 1)
	require.NoError(t, err)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("5.50")))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveItemNotFound(t *testing.T) {
	svc, mock, cleanup := newMockService(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `orders` .*FOR UPDATE").
		WillReturnRows(orderRows(1, models.OrderStatusReceived, "25.5"))
	mock.ExpectQuery("SELECT .* FROM `order_items`").
		WillReturnRows(itemRows())
	mock.ExpectRollback()

	_, err := svc.RemoveItem(1, 999)
	assert.ErrorIs(t, err, ErrOrderItemNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

// 改数量同样重算总价；全程不查菜品表，用的是下单时冻结的单价
func TestUpdateItemQuantityRecalcWithFrozenPrice(t *testing.T) {
	svc, mock, cleanup := newMockService(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `orders` .*FOR UPDATE").
		WillReturnRows(orderRows(1, models.OrderStatusReceived, "20"))
	mock.ExpectQuery("SELECT .* FROM `order_items`").
		WillReturnRows(itemRows([]driver.Value{1, 1, 10, 2, "10.00"}))
	mock.ExpectExec("UPDATE `order_items`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT .* FROM `order_items`").
		WillReturnRows(itemRows([]driver.Value{1, 1, 10, 3, "10.00"}))
	mock.ExpectExec("UPDATE `orders`").
		WithArgs("30", sqlmock.AnyArg(), 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	expectGetOrder(mock, 1, models.OrderStatusReceived, "30",
		itemRows([]driver.Value{1, 1, 10, 3, "10.00"}), true)

	order, err := svc.UpdateItemQuantity(1, 1, 3)
	require.NoError(t, err)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("30.00")))
	// 没有任何 menu_items 查询被执行：菜品现价与总价无关
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateItemQuantityInvalid(t *testing.T) {
	svc, _, cleanup := newMockService(t)
	defer cleanup()

	_, err := svc.UpdateItemQuantity(1, 1, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestUpdateStatus(t *testing.T) {
	svc, mock, cleanup := newMockService(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `orders` .*FOR UPDATE").
		WillReturnRows(orderRows(1, models.OrderStatusReceived, "25.5"))
	mock.ExpectExec("UPDATE `orders`").
		WithArgs(models.OrderStatusPreparing, sqlmock.AnyArg(), 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	expectGetOrder(mock, 1, models.OrderStatusPreparing, "25.5", itemRows(), false)

	order, err := svc.UpdateStatus(1, models.OrderStatusPreparing)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPreparing, order.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusInvalid(t *testing.T) {
	svc, _, cleanup := newMockService(t)
	defer cleanup()

	_, err := svc.UpdateStatus(1, "shipped")
	assert.ErrorIs(t, err, ErrInvalidOrderStatus)
}

func TestUpdateStatusTerminal(t *testing.T) {
	svc, mock, cleanup := newMockService(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `orders` .*FOR UPDATE").
		WillReturnRows(orderRows(1, models.OrderStatusCancelled, "25.5"))
	mock.ExpectRollback()

	_, err := svc.UpdateStatus(1, models.OrderStatusPreparing)
	assert.ErrorIs(t, err, ErrOrderClosed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrderNotFound(t *testing.T) {
	svc, mock, cleanup := newMockService(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `orders`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := svc.GetOrder(404)
	assert.ErrorIs(t, err, ErrOrderNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
