/*
 * @module service/models/user
 * @description 用户与会话模型，登录凭据使用 bcrypt 哈希存储
 * @architecture DDD领域驱动设计 - 实体模型
 * @documentReference ai_docs/auth.md
 * @stateFlow 迁移时写入默认用户；会话由登录创建、到期失效
 * @dependencies gorm.io/gorm, golang.org/x/crypto/bcrypt
 * @refs service/auth, api/middleware
 */

package models

import "time"

// User 登录用户
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Email        string    `json:"email" gorm:"not null;uniqueIndex;size:255"`
	PasswordHash string    `json:"-" gorm:"not null;size:255"`
	CreatedAt    time.Time `json:"created_at" gorm:"not null"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// Session 登录会话，令牌为 UUID
type Session struct {
	Token     string    `json:"token" gorm:"primaryKey;type:varchar(36)"`
	UserID    uint      `json:"user_id" gorm:"not null;index"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null;index"`
	CreatedAt time.Time `json:"created_at" gorm:"not null"`

	User User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName 指定表名
func (Session) TableName() string {
	return "sessions"
}
