package api

import (
	"errors"
	"strconv"

	"restaurant/database"
	"restaurant/middleware"
	"restaurant/models"
	"restaurant/realtime"
	"restaurant/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// OrderHandler 订单处理器
type OrderHandler struct {
	hub *realtime.Hub
}

// NewOrderHandler 创建订单处理器
func NewOrderHandler(hub *realtime.Hub) *OrderHandler {
	return &OrderHandler{hub: hub}
}

func (h *OrderHandler) svc() *service.OrderService {
	return service.NewOrderService(database.DB)
}

// OrderItemRequest 订单项请求
type OrderItemRequest struct {
	MenuItemID uint     `json:"menu_item_id" binding:"required"`
	Quantity   int      `json:"quantity" binding:"omitempty,gt=0"`
	UnitPrice  *float64 `json:"unit_price" binding:"omitempty,gte=0"` // 缺省取菜品当前价格
	Notes      string   `json:"notes"`
}

// CreateOrderRequest 创建订单请求
type CreateOrderRequest struct {
	TableID             *uint              `json:"table_id"`
	SpecialInstructions string             `json:"special_instructions"`
	Items               []OrderItemRequest `json:"items"`
}

// OrderStatusRequest 更新订单状态请求
type OrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateQuantityRequest 修改订单项数量请求
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" binding:"required,gt=0"`
}

// OrderListRequest 订单列表请求
type OrderListRequest struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	Status   string `form:"status"`
	TableID  uint   `form:"table_id"`
}

func toItemInput(req OrderItemRequest) service.OrderItemInput {
	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}
	input := service.OrderItemInput{
		MenuItemID: req.MenuItemID,
		Quantity:   quantity,
		Notes:      req.Notes,
	}
	if req.UnitPrice != nil {
		price := decimal.NewFromFloat(*req.UnitPrice)
		input.UnitPrice = &price
	}
	return input
}

// handleOrderError 把订单服务的领域错误映射到 HTTP 状态码
func handleOrderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrOrderItemNotFound),
		errors.Is(err, service.ErrTableNotFound),
		errors.Is(err, service.ErrMenuItemNotFound):
		NotFound(c, err.Error())
	case errors.Is(err, service.ErrOrderClosed),
		errors.Is(err, service.ErrMenuItemUnavailable),
		errors.Is(err, service.ErrInvalidOrderStatus),
		errors.Is(err, service.ErrInvalidQuantity):
		BadRequest(c, err.Error())
	default:
		InternalError(c, SafeErrorMessage(err, "操作失败"))
	}
}

// Create 创建订单
// @Summary 创建订单
// @Description 创建订单及订单项，未指定单价的订单项按菜品当前价格冻结
// @Tags 订单
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateOrderRequest true "订单信息"
// @Success 200 {object} Response{data=models.Order} "创建成功"
// @Failure 400 {object} Response "参数错误"
// @Failure 404 {object} Response "桌台或菜品不存在"
// @Router /api/orders [post]
func (h *OrderHandler) Create(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	userID := middleware.GetCurrentUserID(c)
	items := make([]service.OrderItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, toItemInput(item))
	}

	order, err := h.svc().CreateOrder(req.TableID, req.SpecialInstructions, &userID, items)
	if err != nil {
		handleOrderError(c, err)
		return
	}
	SuccessWithMessage(c, "下单成功", order)
}

// List 获取订单列表
// @Summary 获取订单列表
// @Description 分页获取订单列表，支持按状态和桌台筛选
// @Tags 订单
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Param status query string false "状态筛选"
// @Param table_id query int false "桌台筛选"
// @Success 200 {object} Response{data=PageResponse{list=[]models.Order}} "获取成功"
// @Router /api/orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	var req OrderListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 || req.PageSize > 100 {
		req.PageSize = 10
	}

	query := database.DB.Model(&models.Order{})
	if req.Status != "" {
		if !models.ValidOrderStatus(req.Status) {
			BadRequest(c, "无效的订单状态")
			return
		}
		query = query.Where("status = ?", req.Status)
	}
	if req.TableID > 0 {
		query = query.Where("table_id = ?", req.TableID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	var orders []models.Order
	if err := query.Preload("Items").
		Order("created_at DESC").
		Offset((req.Page - 1) * req.PageSize).
		Limit(req.PageSize).
		Find(&orders).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	Success(c, PageResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		List:     orders,
	})
}

// Get 获取订单详情
// @Summary 获取订单详情
// @Tags 订单
// @Produce json
// @Security BearerAuth
// @Param id path int true "订单ID"
// @Success 200 {object} Response{data=models.Order} "获取成功"
// @Failure 404 {object} Response "订单不存在"
// @Router /api/orders/{id} [get]
func (h *OrderHandler) Get(c *gin.Context) {
	orderID, err := parseIDParam(c, "id")
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	order, err := h.svc().GetOrder(orderID)
	if err != nil {
		handleOrderError(c, err)
		return
	}
	Success(c, order)
}

// UpdateStatus 更新订单状态
// @Summary 更新订单状态
// @Description 更新订单状态并通过 WebSocket 推送给所有在线客户端
// @Tags 订单
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "订单ID"
// @Param request body OrderStatusRequest true "目标状态"
// @Success 200 {object} Response{data=models.Order} "更新成功"
// @Failure 400 {object} Response "无效的订单状态或订单已完结"
// @Failure 404 {object} Response "订单不存在"
// @Router /api/orders/{id}/status [put]
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	orderID, err := parseIDParam(c, "id")
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var req OrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	order, err := h.svc().UpdateStatus(orderID, req.Status)
	if err != nil {
		handleOrderError(c, err)
		return
	}

	if h.hub != nil {
		h.hub.BroadcastOrderStatus(order.ID, order.Status, order.TotalAmount)
	}
	SuccessWithMessage(c, "更新成功", order)
}

// AddItem 追加订单项
// @Summary 追加订单项
// @Description 向订单追加菜品，订单总价在同一事务内重算
// @Tags 订单
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "订单ID"
// @Param request body OrderItemRequest true "订单项"
// @Success 200 {object} Response{data=models.Order} "添加成功"
// @Failure 400 {object} Response "参数错误或订单已完结"
// @Failure 404 {object} Response "订单或菜品不存在"
// @Router /api/orders/{id}/items [post]
func (h *OrderHandler) AddItem(c *gin.Context) {
	orderID, err := parseIDParam(c, "id")
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var req OrderItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	order, err := h.svc().AddItem(orderID, toItemInput(req))
	if err != nil {
		handleOrderError(c, err)
		return
	}
	SuccessWithMessage(c, "添加成功", order)
}

// UpdateItemQuantity 修改订单项数量
// @Summary 修改订单项数量
// @Description 修改数量后订单总价在同一事务内重算
// @Tags 订单
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "订单ID"
// @Param itemId path int true "订单项ID"
// @Param request body UpdateQuantityRequest true "数量"
// @Success 200 {object} Response{data=models.Order} "更新成功"
// @Failure 400 {object} Response "参数错误或订单已完结"
// @Failure 404 {object} Response "订单或订单项不存在"
// @Router /api/orders/{id}/items/{itemId} [put]
func (h *OrderHandler) UpdateItemQuantity(c *gin.Context) {
	orderID, err := parseIDParam(c, "id")
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}
	itemID, err := parseIDParam(c, "itemId")
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var req UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	order, err := h.svc().UpdateItemQuantity(orderID, itemID, req.Quantity)
	if err != nil {
		handleOrderError(c, err)
		return
	}
	SuccessWithMessage(c, "更新成功", order)
}

// RemoveItem 删除订单项
// @Summary 删除订单项
// @Description 删除订单项，订单总价在同一事务内重算
// @Tags 订单
// @Produce json
// @Security BearerAuth
// @Param id path int true "订单ID"
// @Param itemId path int true "订单项ID"
// @Success 200 {object} Response{data=models.Order} "删除成功"
// @Failure 400 {object} Response "订单已完结"
// @Failure 404 {object} Response "订单或订单项不存在"
// @Router /api/orders/{id}/items/{itemId} [delete]
func (h *OrderHandler) RemoveItem(c *gin.Context) {
	orderID, err := parseIDParam(c, "id")
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}
	itemID, err := parseIDParam(c, "itemId")
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	order, err := h.svc().RemoveItem(orderID, itemID)
	if err != nil {
		handleOrderError(c, err)
		return
	}
	SuccessWithMessage(c, "删除成功", order)
}

func parseIDParam(c *gin.Context, name string) (uint, error) {
	id64, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id64), nil
}
