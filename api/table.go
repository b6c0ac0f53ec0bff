package api

import (
	"strconv"

	"restaurant/database"
	"restaurant/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TableHandler 桌台管理
type TableHandler struct{}

func NewTableHandler() *TableHandler {
	return &TableHandler{}
}

type TableCreateRequest struct {
	Number   int `json:"number" binding:"required,gt=0"`
	Capacity int `json:"capacity" binding:"required,gt=0"`
}

type TableUpdateRequest struct {
	Number   *int `json:"number" binding:"omitempty,gt=0"`
	Capacity *int `json:"capacity" binding:"omitempty,gt=0"`
}

type TableStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// List 获取桌台列表
// @Summary 获取桌台列表
// @Description 获取所有桌台，支持按状态筛选
// @Tags 桌台
// @Produce json
// @Security BearerAuth
// @Param status query string false "状态筛选 available/occupied/reserved"
// @Success 200 {object} Response{data=[]models.Table} "获取成功"
// @Router /api/tables [get]
func (h *TableHandler) List(c *gin.Context) {
	query := database.DB.Order("number ASC")
	if status := c.Query("status"); status != "" {
		if !models.ValidTableStatus(status) {
			BadRequest(c, "无效的桌台状态")
			return
		}
		query = query.Where("status = ?", status)
	}

	var list []models.Table
	if err := query.Find(&list).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}
	Success(c, list)
}

// Get 获取桌台详情
// @Summary 获取桌台详情
// @Tags 桌台
// @Produce json
// @Security BearerAuth
// @Param id path int true "桌台ID"
// @Success 200 {object} Response{data=models.Table} "获取成功"
// @Failure 404 {object} Response "桌台不存在"
// @Router /api/tables/{id} [get]
func (h *TableHandler) Get(c *gin.Context) {
	id64, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}
	var table models.Table
	if err := database.DB.First(&table, uint(id64)).Error; err != nil {
		NotFound(c, "桌台不存在")
		return
	}
	Success(c, table)
}

// Create 创建桌台
// @Summary 创建桌台
// @Description 创建桌台并生成扫码点餐用的桌台码
// @Tags 桌台
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body TableCreateRequest true "桌台信息"
// @Success 200 {object} Response{data=models.Table} "创建成功"
// @Failure 400 {object} Response "参数错误或桌号已存在"
// @Router /api/tables [post]
func (h *TableHandler) Create(c *gin.Context) {
	var req TableCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	// 桌号唯一
	var existing models.Table
	if err := database.DB.Where("number = ?", req.Number).First(&existing).Error; err == nil {
		BadRequest(c, "桌号已存在")
		return
	}

	table := models.Table{
		Number:   req.Number,
		Capacity: req.Capacity,
		Status:   models.TableStatusAvailable,
		QRCode:   uuid.NewString(),
	}
	if err := database.DB.Create(&table).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "创建失败"))
		return
	}
	SuccessWithMessage(c, "创建成功", table)
}

// Update 更新桌台
// @Summary 更新桌台
// @Tags 桌台
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "桌台ID"
// @Param request body TableUpdateRequest true "更新的桌台信息"
// @Success 200 {object} Response{data=models.Table} "更新成功"
// @Failure 400 {object} Response "参数错误或桌号已存在"
// @Failure 404 {object} Response "桌台不存在"
// @Router /api/tables/{id} [put]
func (h *TableHandler) Update(c *gin.Context) {
	id64, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var table models.Table
	if err := database.DB.First(&table, uint(id64)).Error; err != nil {
		NotFound(c, "桌台不存在")
		return
	}

	var req TableUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	updates := map[string]interface{}{}
	if req.Number != nil {
		var existing models.Table
		if err := database.DB.Where("number = ? AND id != ?", *req.Number, table.ID).First(&existing).Error; err == nil {
			BadRequest(c, "桌号已存在")
			return
		}
		updates["number"] = *req.Number
	}
	if req.Capacity != nil {
		updates["capacity"] = *req.Capacity
	}
	if len(updates) == 0 {
		SuccessWithMessage(c, "无需更新", nil)
		return
	}

	if err := database.DB.Model(&table).Updates(updates).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "更新失败"))
		return
	}
	database.DB.First(&table, table.ID)
	SuccessWithMessage(c, "更新成功", table)
}

// UpdateStatus 更新桌台状态
// @Summary 更新桌台状态
// @Tags 桌台
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "桌台ID"
// @Param request body TableStatusRequest true "目标状态"
// @Success 200 {object} Response{data=models.Table} "更新成功"
// @Failure 400 {object} Response "无效的桌台状态"
// @Failure 404 {object} Response "桌台不存在"
// @Router /api/tables/{id}/status [put]
func (h *TableHandler) UpdateStatus(c *gin.Context) {
	id64, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var table models.Table
	if err := database.DB.First(&table, uint(id64)).Error; err != nil {
		NotFound(c, "桌台不存在")
		return
	}

	var req TableStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	if !models.ValidTableStatus(req.Status) {
		BadRequest(c, "无效的桌台状态")
		return
	}

	if err := database.DB.Model(&table).Update("status", req.Status).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "更新失败"))
		return
	}
	table.Status = req.Status
	SuccessWithMessage(c, "更新成功", table)
}

// Delete 软删除桌台
// @Summary 删除桌台
// @Tags 桌台
// @Produce json
// @Security BearerAuth
// @Param id path int true "桌台ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "桌台不存在"
// @Router /api/tables/{id} [delete]
func (h *TableHandler) Delete(c *gin.Context) {
	id64, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}
	var table models.Table
	if err := database.DB.First(&table, uint(id64)).Error; err != nil {
		NotFound(c, "桌台不存在")
		return
	}
	if err := database.DB.Delete(&table).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "删除失败"))
		return
	}
	SuccessWithMessage(c, "删除成功", nil)
}
