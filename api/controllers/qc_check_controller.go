/*
 * @module api/controllers/qc_check_controller
 * @description 质控汇总控制器，提供单批次与日期区间的质控汇总数据
 * @architecture MVC架构 - 控制器层
 * @documentReference ai_docs/qc_reporting.md
 * @stateFlow 范围参数解析 -> 汇总服务 -> 统一响应
 * @rules run_id与start_date/end_date二选一，日期区间含端点整天
 * @dependencies labqc-service/service, github.com/go-chi/render
 * @refs service/qcreport/summary.go
 */

package controllers

import (
	"fmt"
	"labqc-service/service"
	"labqc-service/service/qcreport"
	"net/http"
	"time"

	"github.com/go-chi/render"
)

// 查询参数中的日期格式
const dateLayout = "2006-01-02"

// QCCheckController 质控汇总控制器
type QCCheckController struct {
	reportService *qcreport.Service
}

// NewQCCheckController 创建质控汇总控制器实例
func NewQCCheckController() *QCCheckController {
	return &QCCheckController{reportService: service.GlobalReportService}
}

// Summary 质控汇总
// @Summary 质控汇总
// @Description 返回指定批次或日期区间的质控汇总：合格与不合格数量、平均RSD、平均误差百分比及不合格分析项
// @Tags 质控
// @Produce json
// @Param run_id query string false "批次ID"
// @Param start_date query string false "起始日期 YYYY-MM-DD"
// @Param end_date query string false "结束日期 YYYY-MM-DD"
// @Success 200 {object} APIResponse{data=qcreport.Summary}
// @Failure 400 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /qc/summary [get]
func (c *QCCheckController) Summary(w http.ResponseWriter, r *http.Request) {
	scope, err := parseScope(r)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, BadRequestResponse(err.Error(), nil))
		return
	}

	var summary *qcreport.Summary
	if scope.RunID != "" {
		summary, err = c.reportService.QCSummary(scope.RunID)
	} else {
		summary, err = c.reportService.QCSummaryByDates(scope)
	}
	if err != nil {
		respondRunError(w, r, "计算质控汇总失败", err)
		return
	}
	render.JSON(w, r, SuccessResponse("计算质控汇总成功", summary))
}

// parseScope 从查询参数解析统计范围，run_id优先于日期区间
func parseScope(r *http.Request) (qcreport.Scope, error) {
	query := r.URL.Query()
	if runID := query.Get("run_id"); runID != "" {
		return qcreport.RunScope(runID), nil
	}

	startStr := query.Get("start_date")
	endStr := query.Get("end_date")
	if startStr == "" || endStr == "" {
		return qcreport.Scope{}, fmt.Errorf("需要提供run_id或完整的start_date与end_date")
	}
	start, err := time.Parse(dateLayout, startStr)
	if err != nil {
		return qcreport.Scope{}, fmt.Errorf("无效的起始日期: %s", startStr)
	}
	end, err := time.Parse(dateLayout, endStr)
	if err != nil {
		return qcreport.Scope{}, fmt.Errorf("无效的结束日期: %s", endStr)
	}
	if end.Before(start) {
		return qcreport.Scope{}, fmt.Errorf("结束日期不能早于起始日期")
	}
	return qcreport.DateScope(start, end), nil
}
