/*
 * @module api/controllers/auth_controller
 * @description 认证控制器，处理登录、登出与会话状态查询
 * @architecture MVC架构 - 控制器层
 * @documentReference ai_docs/backend_requirements.md
 * @stateFlow 登录 -> 签发会话Token -> Bearer头携带 -> 登出删除会话
 * @rules 登录失败统一返回401，不区分用户不存在与密码错误
 * @dependencies labqc-service/service, github.com/go-chi/render
 * @refs api/middleware/session_auth.go
 */

package controllers

import (
	"errors"
	"labqc-service/api/middleware"
	"labqc-service/service"
	"labqc-service/service/auth"
	"net/http"
	"strings"

	"github.com/go-chi/render"
)

// AuthController 认证控制器
type AuthController struct {
	authService *auth.AuthService
}

// NewAuthController 创建认证控制器实例
func NewAuthController() *AuthController {
	return &AuthController{authService: service.GlobalAuthService}
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" example:"admin@labqc.local"`
	Password string `json:"password" example:"admin"`
}

// Login 用户登录
// @Summary 用户登录
// @Description 校验邮箱与密码，签发会话Token
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body LoginRequest true "登录凭证"
// @Success 200 {object} APIResponse{data=auth.LoginResult}
// @Failure 400 {object} APIResponse
// @Failure 401 {object} APIResponse
// @Router /auth/login [post]
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, BadRequestResponse("请求参数格式错误", err))
		return
	}
	if req.Email == "" || req.Password == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, BadRequestResponse("邮箱和密码不能为空", nil))
		return
	}

	result, err := c.authService.Login(req.Email, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, UnauthorizedResponse(err.Error(), nil))
		return
	}
	if err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, InternalErrorResponse("登录失败", err))
		return
	}
	render.JSON(w, r, SuccessResponse("登录成功", result))
}

// Logout 用户登出
// @Summary 用户登出
// @Description 删除当前Bearer Token对应的会话
// @Tags 认证
// @Produce json
// @Success 200 {object} APIResponse
// @Router /auth/logout [post]
func (c *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token != "" {
		if err := c.authService.Logout(token); err != nil {
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, InternalErrorResponse("登出失败", err))
			return
		}
	}
	render.JSON(w, r, SuccessResponse("登出成功", nil))
}

// Status 会话状态
// @Summary 会话状态
// @Description 返回当前会话对应的用户信息
// @Tags 认证
// @Produce json
// @Success 200 {object} APIResponse
// @Router /auth/status [get]
func (c *AuthController) Status(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, UnauthorizedResponse("会话无效", nil))
		return
	}
	render.JSON(w, r, SuccessResponse("会话有效", map[string]interface{}{
		"email": user.Email,
	}))
}

// bearerToken 从Authorization头提取Bearer Token
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}
