package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	// RoleAdmin 管理员：可管理账号、菜单、桌台并导出报表
	RoleAdmin = "admin"
	// RoleStaff 服务员：负责日常点餐与订单流转
	RoleStaff = "staff"
)

// ValidRole 检查角色是否在合法集合内
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleStaff
}

// RoleIn 检查角色是否命中允许集合，所有角色判断统一走这里
func RoleIn(role string, allowed ...string) bool {
	for _, a := range allowed {
		if role == a {
			return true
		}
	}
	return false
}

// User 用户模型
type User struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Username  string         `json:"username" gorm:"uniqueIndex;size:50;not null"`
	Password  string         `json:"-" gorm:"size:255;not null"` // bcrypt 哈希，永不落库明文
	Role      string         `json:"role" gorm:"size:20;not null;default:staff;index"`
	Name      string         `json:"name" gorm:"size:100;not null"`
	Email     string         `json:"email" gorm:"size:100"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName 设置表名
func (User) TableName() string {
	return "users"
}

// IsAdmin 是否管理员
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
