package main

import (
	"flag"
	"log"
	"strings"

	"restaurant/config"
	"restaurant/database"
	"restaurant/middleware"
	"restaurant/realtime"
	"restaurant/router"
)

// @title 餐厅点餐系统 API
// @version 1.0
// @description 餐厅点餐管理系统 API，支持账号管理、菜单维护、桌台管理与订单流转，订单状态变化通过 WebSocket 实时推送
// @host localhost:5000
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

var (
	configFile  string
	port        string
	showVersion bool
)

func init() {
	flag.StringVar(&configFile, "config", "", "外部配置文件路径（可选）")
	flag.StringVar(&configFile, "c", "", "外部配置文件路径（简写）")
	flag.StringVar(&port, "port", "", "监听端口，如: 5000 或 :5000")
	flag.StringVar(&port, "p", "", "监听端口（简写）")
	flag.BoolVar(&showVersion, "version", false, "显示版本信息")
	flag.BoolVar(&showVersion, "v", false, "显示版本信息（简写）")
}

func main() {
	flag.Parse()

	if showVersion {
		log.Println("餐厅点餐系统 v1.0.0")
		return
	}

	// 加载配置（内置配置 + 可选的外部配置覆盖）
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 命令行参数覆盖端口配置
	if port != "" {
		if !strings.HasPrefix(port, ":") {
			port = ":" + port
		}
		cfg.Server.Port = port
		log.Printf("命令行指定端口: %s", port)
	}

	// 打印配置信息
	config.PrintConfig()

	// 初始化数据库（含默认管理员种子）
	if err := database.Init(cfg); err != nil {
		log.Fatalf("数据库初始化失败: %v", err)
	}

	// 初始化 JWT
	middleware.InitJWT(cfg)

	// 启动 WebSocket 广播中心
	hub := realtime.NewHub()
	go hub.Run()

	// 设置路由
	r := router.SetupRouter(cfg, hub)

	// 启动服务器
	log.Printf("==========================================")
	log.Printf("  🍽  餐厅点餐系统已启动")
	log.Printf("==========================================")
	log.Printf("  API接口:  http://localhost%s/api/", cfg.Server.Port)
	log.Printf("  Swagger:  http://localhost%s/swagger/index.html", cfg.Server.Port)
	log.Printf("  实时推送: ws://localhost%s/ws", cfg.Server.Port)
	log.Printf("==========================================")

	if err := r.Run(cfg.Server.Port); err != nil {
		log.Fatalf("服务器启动失败: %v", err)
	}
}
