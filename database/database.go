package database

import (
	"fmt"
	"log"

	"restaurant/config"
	"restaurant/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Init 初始化数据库连接
func Init(cfg *config.Config) error {
	// 构建 MySQL DSN 连接字符串
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=%s&parseTime=True&loc=Local",
		cfg.Database.Username,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.DBName,
		cfg.Database.Charset,
	)

	var err error
	DB, err = gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})
	if err != nil {
		return fmt.Errorf("连接数据库失败: %w", err)
	}

	// 获取底层 *sql.DB 连接池配置
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	// 设置连接池参数
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	// 自动迁移数据库表
	if err := DB.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.MenuItem{},
		&models.Table{},
		&models.Order{},
		&models.OrderItem{},
	); err != nil {
		return err
	}

	// 初始化默认管理员账号（仅当不存在时）。
	// 注册接口仅管理员可用，必须有一个种子账号才能进入系统。
	if err := seedAdminUser(DB); err != nil {
		return err
	}

	log.Println("数据库初始化成功")
	return nil
}

// seedAdminUser 创建默认管理员 admin/admin123，上线后请立即修改密码
func seedAdminUser(db *gorm.DB) error {
	var existing models.User
	if err := db.Where("username = ?", "admin").First(&existing).Error; err == nil {
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("生成管理员密码失败: %w", err)
	}

	admin := models.User{
		Username: "admin",
		Password: string(hashed),
		Role:     models.RoleAdmin,
		Name:     "Administrator",
		Email:    "admin@restaurant.com",
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("创建默认管理员失败: %w", err)
	}
	log.Println("已创建默认管理员账号 admin")
	return nil
}

// GetDB 获取数据库连接
func GetDB() *gorm.DB {
	return DB
}
