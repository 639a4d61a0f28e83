/*
 * @module api/routes
 * @description API路由配置模块，负责初始化和配置所有HTTP路由
 * @architecture RESTful API架构
 * @documentReference ai_docs/backend_requirements.md
 * @stateFlow 无状态HTTP请求处理
 * @rules 遵循RESTful API设计规范，统一错误处理和响应格式
 * @dependencies github.com/go-chi/chi/v5, github.com/go-chi/cors, github.com/go-chi/render
 * @refs api/controllers, api/middleware
 */

package api

import (
	"labqc-service/api/controllers"
	authmw "labqc-service/api/middleware"
	"labqc-service/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
)

// InitRoute 初始化所有API路由
func InitRoute(r *chi.Mux) {
	// 基础中间件
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	// CORS配置
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// 会话鉴权
	sessionAuth := authmw.NewSessionAuthMiddleware(service.GlobalAuthService)
	r.Use(sessionAuth.Middleware)

	// 健康检查
	healthController := controllers.NewHealthController()
	r.Get("/health", healthController.Health)
	r.Get("/ready", healthController.Ready)

	// 认证
	authController := controllers.NewAuthController()
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", authController.Login)
		r.Post("/logout", authController.Logout)
		r.Get("/status", authController.Status)
	})

	// 批次上传
	uploadController := controllers.NewUploadController()
	r.Post("/upload", uploadController.Upload)

	// 批次管理
	runController := controllers.NewRunController()
	r.Route("/runs", func(r chi.Router) {
		r.Get("/", runController.List)
		r.Post("/{id}/hide", runController.Hide)
		r.Get("/{id}/preview", runController.Preview)
		r.Get("/{id}/download", runController.Download)
	})

	// 样品浏览
	sampleController := controllers.NewSampleController()
	r.Route("/samples", func(r chi.Router) {
		r.Get("/", sampleController.List)
		r.Get("/{id}/table", sampleController.Table)
		r.Post("/details", sampleController.Details)
	})

	// 质控报表
	qcCheckController := controllers.NewQCCheckController()
	tableController := controllers.NewTableController()
	graphController := controllers.NewGraphController()
	r.Route("/qc", func(r chi.Router) {
		r.Get("/summary", qcCheckController.Summary)
		r.Get("/table", tableController.QCTable)
		r.Get("/sjs-table", tableController.SJSTable)
		r.Get("/mini-table", tableController.QCMiniTable)
		r.Get("/sjs-mini-table", tableController.SJSMiniTable)
		r.Get("/elements", graphController.Elements)
		r.Get("/graph", graphController.Series)
		r.Get("/sjs-graph", graphController.SJSSeries)
	})

	// Dashboard
	dashboardController := controllers.NewDashboardController()
	r.Get("/dashboard", dashboardController.Overview)
}
