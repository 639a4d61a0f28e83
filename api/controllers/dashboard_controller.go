/*
 * @module api/controllers/dashboard_controller
 * @description Dashboard统计控制器，提供系统总览数据
 * @architecture MVC架构 - 控制器层
 * @documentReference ai_docs/qc_reporting.md
 * @stateFlow HTTP请求处理流程
 * @rules 质控合格率统计最近7天的活动批次
 * @dependencies labqc-service/service, github.com/go-chi/render
 * @refs service/qcreport/dashboard.go
 */

package controllers

import (
	"labqc-service/service"
	"labqc-service/service/qcreport"
	"net/http"

	"github.com/go-chi/render"
)

// DashboardController Dashboard统计控制器
type DashboardController struct {
	reportService *qcreport.Service
}

// NewDashboardController 创建Dashboard统计控制器实例
func NewDashboardController() *DashboardController {
	return &DashboardController{reportService: service.GlobalReportService}
}

// Overview Dashboard总览
// @Summary Dashboard总览
// @Description 返回活动批次总数、样品总数与最近7天质控合格率
// @Tags 系统
// @Produce json
// @Success 200 {object} APIResponse{data=qcreport.Dashboard}
// @Failure 500 {object} APIResponse
// @Router /dashboard [get]
func (c *DashboardController) Overview(w http.ResponseWriter, r *http.Request) {
	overview, err := c.reportService.DashboardSummary()
	if err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, InternalErrorResponse("获取Dashboard总览数据失败", err))
		return
	}
	render.JSON(w, r, SuccessResponse("获取Dashboard总览数据成功", overview))
}
