package api

import (
	"net/http/httptest"
	"testing"
	"time"

	"restaurant/config"
	"restaurant/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupExportTest(t *testing.T) (*gin.Engine, sqlmock.Sqlmock, func()) {
	gin.SetMode(gin.TestMode)
	config.GlobalConfig = &config.Config{Server: config.ServerConfig{Mode: "debug"}}
	mock, cleanup := setupMockDB(t)

	h := NewExportHandler()
	router := gin.New()
	router.GET("/export/orders/csv", h.ExportCSV)
	router.GET("/export/orders/excel", h.ExportExcel)
	return router, mock, func() {
		config.GlobalConfig = nil
		cleanup()
	}
}

func expectExportQuery(mock sqlmock.Sqlmock) {
	tableID := uint(3)
	mock.ExpectQuery("SELECT .* FROM `orders`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "table_id", "status", "total_amount", "created_at"}).
			AddRow(1, tableID, models.OrderStatusDelivered, "25.50", time.Now()))
	mock.ExpectQuery("SELECT .* FROM `order_items`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "menu_item_id", "quantity", "unit_price"}).
			AddRow(1, 1, 10, 2, "10.00").
			AddRow(2, 1, 11, 1, "5.50"))
	mock.ExpectQuery("SELECT .* FROM `menu_items`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price"}).
			AddRow(10, "宫保鸡丁", "10.00").
			AddRow(11, "米饭", "5.50"))
	mock.ExpectQuery("SELECT .* FROM `tables`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "number"}).AddRow(3, 8))
}

func TestExportCSV(t *testing.T) {
	router, mock, cleanup := setupExportTest(t)
	defer cleanup()

	expectExportQuery(mock)

	req := httptest.NewRequest("GET", "/export/orders/csv?start_time=2024-01-01&end_time=2024-12-31", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "orders_")
	body := w.Body.String()
	assert.Contains(t, body, "订单ID")
	assert.Contains(t, body, "宫保鸡丁")
	// 单价按冻结价格输出两位小数
	assert.Contains(t, body, "10.00")
	assert.Contains(t, body, "25.50")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExportCSVMissingParams(t *testing.T) {
	router, _, cleanup := setupExportTest(t)
	defer cleanup()

	req := httptest.NewRequest("GET", "/export/orders/csv", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, 400, w.Code)
	assert.Contains(t, w.Body.String(), "开始时间")
}

func TestExportCSVBadDate(t *testing.T) {
	router, _, cleanup := setupExportTest(t)
	defer cleanup()

	req := httptest.NewRequest("GET", "/export/orders/csv?start_time=01/01/2024&end_time=2024-12-31", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, 400, w.Code)
	assert.Contains(t, w.Body.String(), "格式错误")
}

func TestExportExcel(t *testing.T) {
	router, mock, cleanup := setupExportTest(t)
	defer cleanup()

	expectExportQuery(mock)

	req := httptest.NewRequest("GET", "/export/orders/excel?start_time=2024-01-01&end_time=2024-12-31", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "spreadsheetml")
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
	// xlsx 是 zip 容器
	assert.Equal(t, []byte{'P', 'K'}, w.Body.Bytes()[:2])
	require.NoError(t, mock.ExpectationsWereMet())
}
