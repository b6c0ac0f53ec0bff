package api

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"restaurant/config"
	"restaurant/database"
	"restaurant/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MenuItemHandler 菜品管理
type MenuItemHandler struct {
	cfg *config.Config
}

func NewMenuItemHandler(cfg *config.Config) *MenuItemHandler {
	return &MenuItemHandler{cfg: cfg}
}

type MenuItemCreateRequest struct {
	Name        string   `json:"name" binding:"required,min=1,max=100"`
	Description string   `json:"description" binding:"omitempty,max=255"`
	Price       *float64 `json:"price" binding:"required,gte=0"`
	CategoryID  *uint    `json:"category_id"`
	IsAvailable *bool    `json:"is_available"`
}

type MenuItemUpdateRequest struct {
	Name        string   `json:"name" binding:"omitempty,min=1,max=100"`
	Description *string  `json:"description" binding:"omitempty,max=255"`
	Price       *float64 `json:"price" binding:"omitempty,gte=0"`
	CategoryID  *uint    `json:"category_id"`
	IsAvailable *bool    `json:"is_available"`
}

// List 获取菜品列表
// @Summary 获取菜品列表
// @Description 获取菜品列表，支持按分类和上架状态筛选
// @Tags 菜品
// @Produce json
// @Security BearerAuth
// @Param category_id query int false "分类筛选"
// @Param available query bool false "是否只看上架菜品"
// @Success 200 {object} Response{data=[]models.MenuItem} "获取成功"
// @Router /api/menu-items [get]
func (h *MenuItemHandler) List(c *gin.Context) {
	query := database.DB.Preload("Category")
	if categoryID := c.Query("category_id"); categoryID != "" {
		query = query.Where("category_id = ?", categoryID)
	}
	if available := c.Query("available"); available == "true" {
		query = query.Where("is_available = ?", true)
	}

	var list []models.MenuItem
	if err := query.Order("id ASC").Find(&list).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}
	Success(c, list)
}

// Get 获取菜品详情
// @Summary 获取菜品详情
// @Tags 菜品
// @Produce json
// @Security BearerAuth
// @Param id path int true "菜品ID"
// @Success 200 {object} Response{data=models.MenuItem} "获取成功"
// @Failure 404 {object} Response "菜品不存在"
// @Router /api/menu-items/{id} [get]
func (h *MenuItemHandler) Get(c *gin.Context) {
	id64, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}
	var item models.MenuItem
	if err := database.DB.Preload("Category").First(&item, uint(id64)).Error; err != nil {
		NotFound(c, "菜品不存在")
		return
	}
	Success(c, item)
}

// Create 创建菜品
// @Summary 创建菜品
// @Tags 菜品
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body MenuItemCreateRequest true "菜品信息"
// @Success 200 {object} Response{data=models.MenuItem} "创建成功"
// @Failure 400 {object} Response "参数错误或分类不存在"
// @Router /api/menu-items [post]
func (h *MenuItemHandler) Create(c *gin.Context) {
	var req MenuItemCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		BadRequest(c, "名称不能为空")
		return
	}

	// 分类可选，但给了就必须存在
	if req.CategoryID != nil {
		var cat models.Category
		if err := database.DB.First(&cat, *req.CategoryID).Error; err != nil {
			BadRequest(c, "分类不存在")
			return
		}
	}

	isAvailable := true
	if req.IsAvailable != nil {
		isAvailable = *req.IsAvailable
	}

	item := models.MenuItem{
		Name:        req.Name,
		Description: req.Description,
		Price:       decimal.NewFromFloat(*req.Price),
		CategoryID:  req.CategoryID,
		IsAvailable: isAvailable,
	}
	if err := database.DB.Create(&item).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "创建失败"))
		return
	}
	SuccessWithMessage(c, "创建成功", item)
}

// Update 更新菜品
// @Summary 更新菜品
// @Description 更新菜品信息。调价只影响之后的新订单，历史订单项价格已冻结
// @Tags 菜品
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "菜品ID"
// @Param request body MenuItemUpdateRequest true "更新的菜品信息"
// @Success 200 {object} Response{data=models.MenuItem} "更新成功"
// @Failure 400 {object} Response "参数错误"
// @Failure 404 {object} Response "菜品不存在"
// @Router /api/menu-items/{id} [put]
func (h *MenuItemHandler) Update(c *gin.Context) {
	id64, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var item models.MenuItem
	if err := database.DB.First(&item, uint(id64)).Error; err != nil {
		NotFound(c, "菜品不存在")
		return
	}

	var req MenuItemUpdateRequest
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
		updates["name"] = req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Price != nil {
		updates["price"] = decimal.NewFromFloat(*req.Price)
	}
	if req.CategoryID != nil {
		var cat models.Category
		if err := database.DB.First(&cat, *req.CategoryID).Error; err != nil {
			BadRequest(c, "分类不存在")
			return
		}
		updates["category_id"] = *req.CategoryID
	}
	if req.IsAvailable != nil {
		updates["is_available"] = *req.IsAvailable
	}
	if len(updates) == 0 {
		SuccessWithMessage(c, "无需更新", nil)
		return
	}

	if err := database.DB.Model(&item).Updates(updates).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "更新失败"))
		return
	}
	database.DB.First(&item, item.ID)
	SuccessWithMessage(c, "更新成功", item)
}

// Delete 软删除菜品
// @Summary 删除菜品
// @Tags 菜品
// @Produce json
// @Security BearerAuth
// @Param id path int true "菜品ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "菜品不存在"
// @Router /api/menu-items/{id} [delete]
func (h *MenuItemHandler) Delete(c *gin.Context) {
	id64, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}
	var item models.MenuItem
	if err := database.DB.First(&item, uint(id64)).Error; err != nil {
		NotFound(c, "菜品不存在")
		return
	}
	if err := database.DB.Delete(&item).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "删除失败"))
		return
	}
	SuccessWithMessage(c, "删除成功", nil)
}

// allowedImageExts 菜品图片允许的扩展名
var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// UploadImage 上传菜品图片
// @Summary 上传菜品图片
// @Description 上传菜品图片，保存后通过 /uploads 访问
// @Tags 菜品
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "菜品ID"
// @Param image formData file true "图片文件"
// @Success 200 {object} Response{data=models.MenuItem} "上传成功"
// @Failure 400 {object} Response "参数错误或文件类型不支持"
// @Failure 404 {object} Response "菜品不存在"
// @Router /api/menu-items/{id}/image [post]
func (h *MenuItemHandler) UploadImage(c *gin.Context) {
	id64, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}
	var item models.MenuItem
	if err := database.DB.First(&item, uint(id64)).Error; err != nil {
		NotFound(c, "菜品不存在")
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		BadRequest(c, "请选择要上传的图片")
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedImageExts[ext] {
		BadRequest(c, "仅支持 jpg/jpeg/png/webp 格式")
		return
	}

	if err := os.MkdirAll(h.cfg.Upload.Dir, 0o755); err != nil {
		InternalError(c, SafeErrorMessage(err, "创建上传目录失败"))
		return
	}

	// 随机文件名，避免覆盖与路径注入
	filename := uuid.NewString() + ext
	dst := filepath.Join(h.cfg.Upload.Dir, filename)
	if err := c.SaveUploadedFile(file, dst); err != nil {
		InternalError(c, SafeErrorMessage(err, "保存文件失败"))
		return
	}

	imageURL := fmt.Sprintf("/uploads/%s", filename)
	if err := database.DB.Model(&item).Update("image_url", imageURL).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "更新菜品失败"))
		return
	}
	item.ImageURL = imageURL
	SuccessWithMessage(c, "上传成功", item)
}
