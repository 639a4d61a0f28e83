/*
 * @module api/controllers/health_controller
 * @description 健康检查控制器，提供存活与就绪探针
 * @architecture MVC架构 - 控制器层
 * @documentReference ai_docs/backend_requirements.md
 * @stateFlow HTTP请求处理流程
 * @rules 就绪检查需验证数据库连接可用
 * @dependencies labqc-service/service, github.com/go-chi/render
 * @refs api/routes.go
 */

package controllers

import (
	"labqc-service/service"
	"net/http"
	"time"

	"github.com/go-chi/render"
)

// HealthController 健康检查控制器
type HealthController struct{}

// NewHealthController 创建健康检查控制器实例
func NewHealthController() *HealthController {
	return &HealthController{}
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status    string    `json:"status" example:"ok"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version" example:"1.0.0"`
	Service   string    `json:"service" example:"labqc-service"`
}

// Health 健康检查
// @Summary 健康检查
// @Description 检查服务是否存活
// @Tags 系统
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (c *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   "1.0.0",
		Service:   "labqc-service",
	})
}

// Ready 就绪检查
// @Summary 就绪检查
// @Description 检查服务依赖是否就绪，包括数据库连接
// @Tags 系统
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} APIResponse
// @Router /ready [get]
func (c *HealthController) Ready(w http.ResponseWriter, r *http.Request) {
	sqlDB, err := service.DB.DB()
	if err == nil {
		err = sqlDB.Ping()
	}
	if err != nil {
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, errorResponse(http.StatusServiceUnavailable, "数据库连接不可用", err))
		return
	}
	render.JSON(w, r, HealthResponse{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   "1.0.0",
		Service:   "labqc-service",
	})
}
