/*
 * @module api/middleware/session_auth
 * @description 会话Token鉴权中间件，验证Bearer Token对应的数据库会话
 * @architecture 中间件模式 - HTTP请求拦截和验证
 * @documentReference ai_docs/backend_requirements.md
 * @stateFlow Token提取 -> 会话验证 -> 用户注入上下文 -> 下一个处理器
 * @rules 白名单路径跳过鉴权；过期会话在校验时即被删除
 * @dependencies labqc-service/service/auth, github.com/go-chi/render
 * @refs service/auth/service.go, api/routes.go
 */

package middleware

import (
	"context"
	"net/http"
	"strings"

	"labqc-service/service/auth"
	"labqc-service/service/models"

	"github.com/go-chi/render"
)

// ContextKey 上下文键类型
type ContextKey string

const (
	// TokenKey Token在上下文中的键
	TokenKey ContextKey = "token"
	// UserKey 用户信息在上下文中的键
	UserKey ContextKey = "user"
)

// SessionAuthMiddleware 会话鉴权中间件
type SessionAuthMiddleware struct {
	authService *auth.AuthService
	// 白名单路径（不需要鉴权）
	whitelistPaths []string
}

// NewSessionAuthMiddleware 创建会话鉴权中间件实例
func NewSessionAuthMiddleware(authService *auth.AuthService) *SessionAuthMiddleware {
	return &SessionAuthMiddleware{
		authService: authService,
		whitelistPaths: []string{
			"/health",     // 健康检查
			"/ready",      // 就绪检查
			"/metrics",    // Prometheus指标
			"/swagger",    // Swagger文档
			"/auth/login", // 登录本身无需会话
		},
	}
}

// AddWhitelistPath 添加白名单路径
func (m *SessionAuthMiddleware) AddWhitelistPath(path string) {
	m.whitelistPaths = append(m.whitelistPaths, path)
}

// IsWhitelistPath 检查路径是否在白名单中，支持前缀匹配
func (m *SessionAuthMiddleware) IsWhitelistPath(path string) bool {
	for _, whitelistPath := range m.whitelistPaths {
		if strings.HasPrefix(path, whitelistPath) {
			return true
		}
	}
	return false
}

// Middleware 鉴权中间件处理函数
func (m *SessionAuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.IsWhitelistPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			m.respondUnauthorized(w, r, "缺少Authorization头")
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			m.respondUnauthorized(w, r, "无效的Authorization格式，需要Bearer Token")
			return
		}
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == "" {
			m.respondUnauthorized(w, r, "Token为空")
			return
		}

		user, err := m.authService.Verify(token)
		if err != nil {
			m.respondUnauthorized(w, r, err.Error())
			return
		}

		ctx := context.WithValue(r.Context(), TokenKey, token)
		ctx = context.WithValue(ctx, UserKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserFromContext 从请求上下文中取出已验证的用户
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(UserKey).(*models.User)
	return user, ok
}

// respondUnauthorized 返回401未授权响应
func (m *SessionAuthMiddleware) respondUnauthorized(w http.ResponseWriter, r *http.Request, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	render.JSON(w, r, map[string]interface{}{
		"status": http.StatusUnauthorized,
		"msg":    message,
	})
}
