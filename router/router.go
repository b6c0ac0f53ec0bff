package router

import (
	"net/http"
	"time"

	"restaurant/api"
	"restaurant/config"
	_ "restaurant/docs"
	"restaurant/middleware"
	"restaurant/realtime"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, hub *realtime.Hub) *gin.Engine {
	// 设置运行模式
	gin.SetMode(cfg.Server.Mode)

	r := gin.Default()

	// CORS 中间件
	r.Use(CORSMiddleware())

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Restaurant Management System API is running")
	})

	// 菜品图片静态目录
	r.Static("/uploads", cfg.Upload.Dir)

	// 订单状态实时推送
	r.GET("/ws", hub.ServeWS)

	// Swagger 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	authHandler := api.NewAuthHandler(cfg)
	categoryHandler := api.NewCategoryHandler()
	menuItemHandler := api.NewMenuItemHandler(cfg)
	tableHandler := api.NewTableHandler()
	orderHandler := api.NewOrderHandler(hub)
	exportHandler := api.NewExportHandler()

	apiGroup := r.Group("/api")
	{
		// 登录（无需认证，带限流）
		apiGroup.POST("/auth/login", middleware.LoginRateLimit(5, time.Minute), authHandler.Login)

		// 需要 JWT 认证的路由
		authorized := apiGroup.Group("")
		authorized.Use(middleware.JWTAuth())
		{
			// 认证相关
			auth := authorized.Group("/auth")
			{
				auth.POST("/register", middleware.RequireAdmin(), authHandler.Register)
				auth.GET("/profile", authHandler.GetProfile)
				auth.POST("/refresh-token", authHandler.RefreshToken)
				auth.PUT("/password", authHandler.ChangePassword)
			}

			// 菜品分类：查询全员，维护仅管理员
			categories := authorized.Group("/categories")
			{
				categories.GET("", middleware.RequireStaffOrAdmin(), categoryHandler.List)
				categories.GET("/:id", middleware.RequireStaffOrAdmin(), categoryHandler.Get)
				categories.POST("", middleware.RequireAdmin(), categoryHandler.Create)
				categories.PUT("/:id", middleware.RequireAdmin(), categoryHandler.Update)
				categories.DELETE("/:id", middleware.RequireAdmin(), categoryHandler.Delete)
			}

			// 菜品
			menuItems := authorized.Group("/menu-items")
			{
				menuItems.GET("", middleware.RequireStaffOrAdmin(), menuItemHandler.List)
				menuItems.GET("/:id", middleware.RequireStaffOrAdmin(), menuItemHandler.Get)
				menuItems.POST("", middleware.RequireAdmin(), menuItemHandler.Create)
				menuItems.PUT("/:id", middleware.RequireAdmin(), menuItemHandler.Update)
				menuItems.DELETE("/:id", middleware.RequireAdmin(), menuItemHandler.Delete)
				menuItems.POST("/:id/image", middleware.RequireAdmin(), menuItemHandler.UploadImage)
			}

			// 桌台：状态流转全员，增删改仅管理员
			tables := authorized.Group("/tables")
			{
				tables.GET("", middleware.RequireStaffOrAdmin(), tableHandler.List)
				tables.GET("/:id", middleware.RequireStaffOrAdmin(), tableHandler.Get)
				tables.PUT("/:id/status", middleware.RequireStaffOrAdmin(), tableHandler.UpdateStatus)
				tables.POST("", middleware.RequireAdmin(), tableHandler.Create)
				tables.PUT("/:id", middleware.RequireAdmin(), tableHandler.Update)
				tables.DELETE("/:id", middleware.RequireAdmin(), tableHandler.Delete)
			}

			// 订单
			orders := authorized.Group("/orders", middleware.RequireStaffOrAdmin())
			{
				orders.POST("", orderHandler.Create)
				orders.GET("", orderHandler.List)
				orders.GET("/:id", orderHandler.Get)
				orders.PUT("/:id/status", orderHandler.UpdateStatus)
				orders.POST("/:id/items", orderHandler.AddItem)
				orders.PUT("/:id/items/:itemId", orderHandler.UpdateItemQuantity)
				orders.DELETE("/:id/items/:itemId", orderHandler.RemoveItem)
			}

			// 报表导出（仅管理员）
			export := authorized.Group("/export", middleware.RequireAdmin())
			{
				export.GET("/orders/csv", exportHandler.ExportCSV)
				export.GET("/orders/excel", exportHandler.ExportExcel)
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	return r
}

// CORSMiddleware CORS 跨域中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
