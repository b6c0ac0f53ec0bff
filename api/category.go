package api

import (
	"strconv"
	"strings"

	"restaurant/database"
	"restaurant/models"

	"github.com/gin-gonic/gin"
)

// CategoryHandler 菜品分类管理
type CategoryHandler struct{}

func NewCategoryHandler() *CategoryHandler {
	return &CategoryHandler{}
}

type CategoryCreateRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=50"`
	Description string `json:"description" binding:"omitempty,max=255"`
}

type CategoryUpdateRequest struct {
	Name        string  `json:"name" binding:"omitempty,min=1,max=50"`
	Description *string `json:"description" binding:"omitempty,max=255"`
}

// List 列出所有分类（不包含软删除）
// @Summary 获取菜品分类列表
// @Description 获取所有菜品分类
// @Tags 菜品分类
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]models.Category} "获取成功"
// @Router /api/categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	var list []models.Category
	if err := database.DB.Order("id ASC").Find(&list).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}
	Success(c, list)
}

// Get 获取分类详情（含分类下菜品）
// @Summary 获取菜品分类详情
// @Tags 菜品分类
// @Produce json
// @Security BearerAuth
// @Param id path int true "分类ID"
// @Success 200 {object} Response{data=models.Category} "获取成功"
// @Failure 404 {object} Response "分类不存在"
// @Router /api/categories/{id} [get]
func (h *CategoryHandler) Get(c *gin.Context) {
	id64, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}
	var cat models.Category
	if err := database.DB.Preload("MenuItems").First(&cat, uint(id64)).Error; err != nil {
		NotFound(c, "分类不存在")
		return
	}
	Success(c, cat)
}

// Create 创建分类
// @Summary 创建菜品分类
// @Tags 菜品分类
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CategoryCreateRequest true "分类信息"
// @Success 200 {object} Response{data=models.Category} "创建成功"
// @Failure 400 {object} Response "参数错误或分类名称已存在"
// @Router /api/categories [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	var req CategoryCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		BadRequest(c, "名称不能为空")
		return
	}

	// 唯一性
	var existing models.Category
	if err := database.DB.Where("name = ?", req.Name).First(&existing).Error; err == nil {
		BadRequest(c, "分类名称已存在")
		return
	}

	cat := models.Category{Name: req.Name, Description: req.Description}
	if err := database.DB.Create(&cat).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "创建失败"))
		return
	}
	SuccessWithMessage(c, "创建成功", cat)
}

// Update 更新分类
// @Summary 更新菜品分类
// @Tags 菜品分类
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "分类ID"
// @Param request body CategoryUpdateRequest true "更新的分类信息"
// @Success 200 {object} Response{data=models.Category} "更新成功"
// @Failure 400 {object} Response "参数错误或分类名称已存在"
// @Failure 404 {object} Response "分类不存在"
// @Router /api/categories/{id} [put]
func (h *CategoryHandler) Update(c *gin.Context) {
	id64, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var cat models.Category
	if err := database.DB.First(&cat, uint(id64)).Error; err != nil {
		NotFound(c, "分类不存在")
		return
	}

	var req CategoryUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			BadRequest(c, "名称不能为空")
			return
		}
		var existing models.Category
		if err := database.DB.Where("name = ? AND id != ?", req.Name, cat.ID).First(&existing).Error; err == nil {
			BadRequest(c, "分类名称已存在")
			return
		}
		updates["name"] = req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if len(updates) == 0 {
		SuccessWithMessage(c, "无需更新", nil)
		return
	}

	if err := database.DB.Model(&cat).Updates(updates).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "更新失败"))
		return
	}
	database.DB.First(&cat, cat.ID)
	SuccessWithMessage(c, "更新成功", cat)
}

// Delete 软删除分类
// @Summary 删除菜品分类
// @Tags 菜品分类
// @Produce json
// @Security BearerAuth
// @Param id path int true "分类ID"
// @Success 200 {object} Response "删除成功"
// @Failure 400 {object} Response "无效的ID"
// @Failure 404 {object} Response "分类不存在"
// @Router /api/categories/{id} [delete]
func (h *CategoryHandler) Delete(c *gin.Context) {
	id64, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}
	var cat models.Category
	if err := database.DB.First(&cat, uint(id64)).Error; err != nil {
		NotFound(c, "分类不存在")
		return
	}
	if err := database.DB.Delete(&cat).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "删除失败"))
		return
	}
	SuccessWithMessage(c, "删除成功", nil)
}
