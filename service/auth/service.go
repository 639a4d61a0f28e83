/*
 * @module service/auth/service
 * @description 登录认证与会话管理：bcrypt 口令校验，UUID 会话令牌，
 *              带过期时间的数据库会话表
 * @architecture 分层架构 - 领域服务层
 * @documentReference ai_docs/auth.md
 * @stateFlow 登录创建会话 → 中间件校验令牌 → 注销或过期删除会话
 * @rules 口令校验失败与用户不存在返回同一错误，不泄露账号是否存在
 * @dependencies golang.org/x/crypto/bcrypt, github.com/google/uuid, gorm.io/gorm
 * @refs api/middleware/session_auth.go, api/controllers/auth_controller.go
 */

package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"labqc-service/service/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ErrInvalidCredentials 凭证错误，对外不区分具体原因
var ErrInvalidCredentials = errors.New("邮箱或密码错误")

// ErrSessionInvalid 会话不存在或已过期
var ErrSessionInvalid = errors.New("会话无效或已过期")

// AuthService 认证服务
type AuthService struct {
	db         *gorm.DB
	sessionTTL time.Duration
}

// NewAuthService 创建认证服务实例
func NewAuthService(db *gorm.DB, sessionTTL time.Duration) *AuthService {
	return &AuthService{db: db, sessionTTL: sessionTTL}
}

// LoginResult 登录成功的返回
type LoginResult struct {
	Token     string    `json:"token"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Login 校验凭证并创建会话
func (s *AuthService) Login(email, password string) (*LoginResult, error) {
	var user models.User
	err := s.db.First(&user, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	session := models.Session{
		Token:     uuid.New().String(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(s.sessionTTL),
		CreatedAt: time.Now(),
	}
	if err := s.db.Create(&session).Error; err != nil {
		return nil, fmt.Errorf("创建会话失败: %w", err)
	}

	slog.Info("用户登录", "email", email)
	return &LoginResult{Token: session.Token, Email: user.Email, ExpiresAt: session.ExpiresAt}, nil
}

// Verify 校验会话令牌，返回对应用户
func (s *AuthService) Verify(token string) (*models.User, error) {
	var session models.Session
	err := s.db.First(&session, "token = ?", token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionInvalid
	}
	if err != nil {
		return nil, fmt.Errorf("查询会话失败: %w", err)
	}
	if time.Now().After(session.ExpiresAt) {
		s.db.Delete(&session)
		return nil, ErrSessionInvalid
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", session.UserID).Error; err != nil {
		return nil, fmt.Errorf("查询会话用户失败: %w", err)
	}
	return &user, nil
}

// Logout 删除会话，令牌不存在时视为已注销
func (s *AuthService) Logout(token string) error {
	return s.db.Delete(&models.Session{}, "token = ?", token).Error
}

// PurgeExpired 清除过期会话，由定时任务调用，返回清除数量
func (s *AuthService) PurgeExpired() (int64, error) {
	result := s.db.Delete(&models.Session{}, "expires_at < ?", time.Now())
	if result.Error != nil {
		return 0, fmt.Errorf("清除过期会话失败: %w", result.Error)
	}
	return result.RowsAffected, nil
}
