package model

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// User 后台用户模型
type User struct {
	BaseModel
	Username        string `gorm:"type:varchar(100);uniqueIndex" json:"username"`
	Email           string `gorm:"type:varchar(255);uniqueIndex" json:"email"`
	PasswordHash    string `gorm:"type:varchar(255)" json:"-"`
	FirstName       string `gorm:"type:varchar(100)" json:"first_name"`
	LastName        string `gorm:"type:varchar(100)" json:"last_name"`
	RoleID          string `gorm:"type:char(36);index" json:"role_id"` // 当前角色，一个用户同一时刻只有一个角色
	Status          string `gorm:"type:varchar(20);default:active" json:"status"`
	ProfileImageURL string `gorm:"type:varchar(500)" json:"profile_image_url,omitempty"`
	CreatedBy       string `gorm:"type:char(36)" json:"created_by,omitempty"` // 创建者用户 ID

	// 关联
	Role *Role `gorm:"foreignKey:RoleID" json:"role,omitempty"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// SetPassword 设置密码（哈希存储）
func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// VerifyPassword 验证密码
func (u *User) VerifyPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// IsActive 检查用户是否启用
func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

// FullName 返回用户全名
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}
