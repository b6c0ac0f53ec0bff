package middleware

import (
	"net/http"

	"restaurant/models"

	"github.com/gin-gonic/gin"
)

// RequireRoles 角色门禁，需在 JWTAuth 之后使用。
// 角色判断统一走 models.RoleIn 的允许集合，403 与认证失败的 401 区分开。
func RequireRoles(allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := GetCurrentRole(c)
		if !models.RoleIn(role, allowed...) {
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "权限不足",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin 仅管理员可访问
func RequireAdmin() gin.HandlerFunc {
	return RequireRoles(models.RoleAdmin)
}

// RequireStaffOrAdmin 服务员或管理员可访问
func RequireStaffOrAdmin() gin.HandlerFunc {
	return RequireRoles(models.RoleStaff, models.RoleAdmin)
}
