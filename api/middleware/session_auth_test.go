/*
 * @module api/middleware/session_auth_test
 * @description 会话鉴权中间件单元测试
 * @architecture 测试层
 * @documentReference .specify/memory/test_plan.md
 * @stateFlow 测试准备 -> 请求构建 -> 响应验证
 * @rules 白名单路径放行，无效Token拒绝，有效Token注入用户上下文
 * @dependencies testing, net/http/httptest, stretchr/testify
 */

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"labqc-service/service/auth"
	"labqc-service/service/models"
	"labqc-service/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newSessionAuth(t *testing.T) (*SessionAuthMiddleware, *auth.AuthService, *testutil.TestDB) {
	t.Helper()
	tdb := testutil.NewTestDB()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, tdb.DB.Create(&models.User{
		Email:        "tech@lab.local",
		PasswordHash: string(hash),
	}).Error)

	authService := auth.NewAuthService(tdb.DB, time.Hour)
	return NewSessionAuthMiddleware(authService), authService, tdb
}

func protectedHandler(t *testing.T, called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		user, ok := UserFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, "tech@lab.local", user.Email)
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddlewareAllowsWhitelistPaths(t *testing.T) {
	mw, _, _ := newSessionAuth(t)

	for _, path := range []string{"/health", "/ready", "/metrics", "/swagger/index.html", "/auth/login"} {
		called := false
		handler := mw.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.True(t, called, "白名单路径应放行: %s", path)
	}
}

func TestMiddlewareRejectsMissingToken(t *testing.T) {
	mw, _, _ := newSessionAuth(t)

	handler := mw.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("未鉴权请求不应到达处理器")
	}))

	req := httptest.NewRequest(http.MethodGet, "/runs", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/runs", nil)
	req.Header.Set("Authorization", "Basic abc")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddlewareRejectsInvalidToken(t *testing.T) {
	mw, _, _ := newSessionAuth(t)

	called := false
	handler := mw.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/runs", nil)
	req.Header.Set("Authorization", "Bearer not-a-session")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddlewareInjectsUser(t *testing.T) {
	mw, authService, _ := newSessionAuth(t)

	login, err := authService.Login("tech@lab.local", "secret")
	require.NoError(t, err)

	called := false
	handler := mw.Middleware(protectedHandler(t, &called))

	req := httptest.NewRequest(http.MethodGet, "/runs", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, w.Code)
}
