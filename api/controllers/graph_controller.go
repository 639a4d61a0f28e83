/*
 * @module api/controllers/graph_controller
 * @description 质控图形控制器，提供分析项时间序列与可选分析项列表
 * @architecture MVC架构 - 控制器层
 * @documentReference ai_docs/qc_reporting.md
 * @stateFlow 范围参数解析 -> 报表服务 -> 统一响应
 * @rules 日期区间的分析项列表为区间内出现过的仪器类型分析项并集
 * @dependencies labqc-service/service, github.com/go-chi/render
 * @refs service/qcreport/graph.go
 */

package controllers

import (
	"labqc-service/service"
	"labqc-service/service/qcreport"
	"net/http"

	"github.com/go-chi/render"
)

// GraphController 质控图形控制器
type GraphController struct {
	reportService *qcreport.Service
}

// NewGraphController 创建质控图形控制器实例
func NewGraphController() *GraphController {
	return &GraphController{reportService: service.GlobalReportService}
}

// Series 分析项时间序列
// @Summary 分析项时间序列
// @Description 返回单个分析项在指定批次或日期区间内按采集时间排序的测量值序列
// @Tags 质控
// @Produce json
// @Param element query string true "分析项列名"
// @Param run_id query string false "批次ID"
// @Param start_date query string false "起始日期 YYYY-MM-DD"
// @Param end_date query string false "结束日期 YYYY-MM-DD"
// @Success 200 {object} APIResponse{data=qcreport.GraphData}
// @Failure 400 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /qc/graph [get]
func (c *GraphController) Series(w http.ResponseWriter, r *http.Request) {
	scope, err := parseScope(r)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, BadRequestResponse(err.Error(), nil))
		return
	}
	element := r.URL.Query().Get("element")
	if element == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, BadRequestResponse(errMissingElement.Error(), nil))
		return
	}

	data, err := c.reportService.GraphSeries(scope, element)
	if err != nil {
		respondRunError(w, r, "生成时间序列失败", err)
		return
	}
	render.JSON(w, r, SuccessResponse("生成时间序列成功", data))
}

// SJSSeries 二级标样时间序列
// @Summary 二级标样时间序列
// @Description 返回批次或日期区间内全部二级标样修正列的测量值序列，附认证值与误差上下界
// @Tags 质控
// @Produce json
// @Param run_id query string false "批次ID"
// @Param start_date query string false "起始日期 YYYY-MM-DD"
// @Param end_date query string false "结束日期 YYYY-MM-DD"
// @Success 200 {object} APIResponse{data=qcreport.SJSGraphData}
// @Failure 400 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /qc/sjs-graph [get]
func (c *GraphController) SJSSeries(w http.ResponseWriter, r *http.Request) {
	scope, err := parseScope(r)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, BadRequestResponse(err.Error(), nil))
		return
	}

	data, err := c.reportService.SJSGraphSeries(scope)
	if err != nil {
		respondRunError(w, r, "生成二级标样序列失败", err)
		return
	}
	render.JSON(w, r, SuccessResponse("生成二级标样序列成功", data))
}

// Elements 分析项列表
// @Summary 分析项列表
// @Description 返回指定批次仪器类型的分析项列名，或日期区间内出现过的分析项并集
// @Tags 质控
// @Produce json
// @Param run_id query string false "批次ID"
// @Param start_date query string false "起始日期 YYYY-MM-DD"
// @Param end_date query string false "结束日期 YYYY-MM-DD"
// @Success 200 {object} APIResponse{data=[]string}
// @Failure 400 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /qc/elements [get]
func (c *GraphController) Elements(w http.ResponseWriter, r *http.Request) {
	// 无任何范围参数时返回两种仪器类型的全部分析项
	if r.URL.Query().Get("run_id") == "" &&
		r.URL.Query().Get("start_date") == "" && r.URL.Query().Get("end_date") == "" {
		render.JSON(w, r, SuccessResponse("查询分析项列表成功", c.reportService.AllElements()))
		return
	}

	scope, err := parseScope(r)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, BadRequestResponse(err.Error(), nil))
		return
	}

	var elements []string
	if scope.RunID != "" {
		elements, err = c.reportService.ElementsByRun(scope.RunID)
	} else {
		elements, err = c.reportService.ElementsByDates(scope)
	}
	if err != nil {
		respondRunError(w, r, "查询分析项列表失败", err)
		return
	}
	render.JSON(w, r, SuccessResponse("查询分析项列表成功", elements))
}
