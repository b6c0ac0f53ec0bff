package api

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"restaurant/database"
	"restaurant/models"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

// ExportHandler 订单导出处理器
type ExportHandler struct{}

// NewExportHandler 创建导出处理器
func NewExportHandler() *ExportHandler {
	return &ExportHandler{}
}

// exportRow 导出的一行：订单项带订单上下文
type exportRow struct {
	OrderID     uint
	TableNumber string
	Status      string
	ItemName    string
	Quantity    int
	UnitPrice   string
	Subtotal    string
	OrderTotal  string
	CreatedAt   string
}

func (h *ExportHandler) queryRows(c *gin.Context) ([]exportRow, bool) {
	startTimeStr := c.Query("start_time")
	endTimeStr := c.Query("end_time")

	if startTimeStr == "" || endTimeStr == "" {
		BadRequest(c, "请提供开始时间和结束时间")
		return nil, false
	}

	startTime, err := time.ParseInLocation("2006-01-02", startTimeStr, time.Local)
	if err != nil {
		BadRequest(c, "开始时间格式错误，应为: 2006-01-02")
		return nil, false
	}

	endTime, err := time.ParseInLocation("2006-01-02", endTimeStr, time.Local)
	if err != nil {
		BadRequest(c, "结束时间格式错误，应为: 2006-01-02")
		return nil, false
	}
	endTime = endTime.Add(24*time.Hour - time.Second)

	var orders []models.Order
	if err := database.DB.Preload("Items").Preload("Items.MenuItem").Preload("Table").
		Where("created_at >= ? AND created_at <= ?", startTime, endTime).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询数据失败"))
		return nil, false
	}

	var rows []exportRow
	for _, order := range orders {
		tableNumber := ""
		if order.Table != nil {
			tableNumber = fmt.Sprintf("%d", order.Table.Number)
		}
		for _, item := range order.Items {
			itemName := ""
			if item.MenuItem != nil {
				itemName = item.MenuItem.Name
			}
			rows = append(rows, exportRow{
				OrderID:     order.ID,
				TableNumber: tableNumber,
				Status:      order.Status,
				ItemName:    itemName,
				Quantity:    item.Quantity,
				UnitPrice:   item.UnitPrice.StringFixed(2),
				Subtotal:    item.Subtotal().StringFixed(2),
				OrderTotal:  order.TotalAmount.StringFixed(2),
				CreatedAt:   order.CreatedAt.Format("2006-01-02 15:04:05"),
			})
		}
	}
	return rows, true
}

var exportHeader = []string{"订单ID", "桌号", "状态", "菜品", "数量", "单价", "小计", "订单总价", "下单时间"}

// ExportCSV 导出订单为 CSV
// @Summary 导出订单 CSV
// @Description 按时间范围导出订单明细为 CSV 文件
// @Tags 导出
// @Produce text/csv
// @Security BearerAuth
// @Param start_time query string true "开始时间 (2024-01-01)"
// @Param end_time query string true "结束时间 (2024-12-31)"
// @Success 200 {file} file "CSV 文件"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/export/orders/csv [get]
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	rows, ok := h.queryRows(c)
	if !ok {
		return
	}

	buf := new(bytes.Buffer)
	// 添加 BOM 以支持 Excel 中文显示
	buf.WriteString("\xEF\xBB\xBF")

	writer := csv.NewWriter(buf)
	writer.Write(exportHeader)
	for _, row := range rows {
		writer.Write([]string{
			fmt.Sprintf("%d", row.OrderID),
			row.TableNumber,
			row.Status,
			row.ItemName,
			fmt.Sprintf("%d", row.Quantity),
			row.UnitPrice,
			row.Subtotal,
			row.OrderTotal,
			row.CreatedAt,
		})
	}
	writer.Flush()

	filename := fmt.Sprintf("orders_%s.csv", time.Now().Format("20060102150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ExportExcel 导出订单为 Excel
// @Summary 导出订单 Excel
// @Description 按时间范围导出订单明细为 xlsx 文件
// @Tags 导出
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param start_time query string true "开始时间 (2024-01-01)"
// @Param end_time query string true "结束时间 (2024-12-31)"
// @Success 200 {file} file "Excel 文件"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/export/orders/excel [get]
func (h *ExportHandler) ExportExcel(c *gin.Context) {
	rows, ok := h.queryRows(c)
	if !ok {
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "订单明细"
	f.SetSheetName("Sheet1", sheet)

	for i, title := range exportHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, title)
	}

	for i, row := range rows {
		values := []interface{}{
			row.OrderID,
			row.TableNumber,
			row.Status,
			row.ItemName,
			row.Quantity,
			row.UnitPrice,
			row.Subtotal,
			row.OrderTotal,
			row.CreatedAt,
		}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "生成 Excel 失败"))
		return
	}

	filename := fmt.Sprintf("orders_%s.xlsx", time.Now().Format("20060102150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
