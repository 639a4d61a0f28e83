/*
 * @module api/controllers/table_controller
 * @description 质控表格控制器，提供质控表、二级标样表与分析项明细分页表
 * @architecture MVC架构 - 控制器层
 * @documentReference ai_docs/qc_reporting.md
 * @stateFlow 范围参数解析 -> 报表服务 -> 统一响应
 * @rules 明细表按page/size分页，未识别的分析项返回空页而非错误
 * @dependencies labqc-service/service, github.com/go-chi/render, github.com/spf13/cast
 * @refs service/qcreport/table.go, service/qcreport/minitable.go
 */

package controllers

import (
	"errors"
	"labqc-service/service"
	"labqc-service/service/qcreport"
	"net/http"

	"github.com/go-chi/render"
	"github.com/spf13/cast"
)

var errMissingElement = errors.New("element参数不能为空")

// TableController 质控表格控制器
type TableController struct {
	reportService *qcreport.Service
}

// NewTableController 创建质控表格控制器实例
func NewTableController() *TableController {
	return &TableController{reportService: service.GlobalReportService}
}

// QCTable 质控表
// @Summary 质控表
// @Description 返回指定批次或日期区间每个分析项的均值、RSD、误差百分比与容差判定
// @Tags 质控
// @Produce json
// @Param run_id query string false "批次ID"
// @Param start_date query string false "起始日期 YYYY-MM-DD"
// @Param end_date query string false "结束日期 YYYY-MM-DD"
// @Success 200 {object} APIResponse{data=qcreport.TableResult}
// @Failure 400 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /qc/table [get]
func (c *TableController) QCTable(w http.ResponseWriter, r *http.Request) {
	scope, err := parseScope(r)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, BadRequestResponse(err.Error(), nil))
		return
	}

	var result *qcreport.TableResult
	if scope.RunID != "" {
		result, err = c.reportService.QCTable(scope.RunID)
	} else {
		result, err = c.reportService.QCTableByDates(scope)
	}
	if err != nil {
		respondRunError(w, r, "生成质控表失败", err)
		return
	}
	render.JSON(w, r, SuccessResponse("生成质控表成功", result))
}

// SJSTable 二级标样表
// @Summary 二级标样表
// @Description 返回修正后的二级标样均值与认证值的对比表，认证值缺失的分析项标记为N/A
// @Tags 质控
// @Produce json
// @Param run_id query string false "批次ID"
// @Param start_date query string false "起始日期 YYYY-MM-DD"
// @Param end_date query string false "结束日期 YYYY-MM-DD"
// @Success 200 {object} APIResponse{data=qcreport.SJSResult}
// @Failure 400 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /qc/sjs-table [get]
func (c *TableController) SJSTable(w http.ResponseWriter, r *http.Request) {
	scope, err := parseScope(r)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, BadRequestResponse(err.Error(), nil))
		return
	}

	var result *qcreport.SJSResult
	if scope.RunID != "" {
		result, err = c.reportService.SJSTable(scope.RunID)
	} else {
		result, err = c.reportService.SJSTableByDates(scope)
	}
	if err != nil {
		respondRunError(w, r, "生成二级标样表失败", err)
		return
	}
	render.JSON(w, r, SuccessResponse("生成二级标样表成功", result))
}

// QCMiniTable 质控明细表
// @Summary 质控明细表
// @Description 返回单个分析项按采集时间排序的质控测量明细，分页
// @Tags 质控
// @Produce json
// @Param element query string true "分析项列名"
// @Param run_id query string false "批次ID"
// @Param start_date query string false "起始日期 YYYY-MM-DD"
// @Param end_date query string false "结束日期 YYYY-MM-DD"
// @Param page query int false "页码，默认1"
// @Param size query int false "每页条数，默认10"
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /qc/mini-table [get]
func (c *TableController) QCMiniTable(w http.ResponseWriter, r *http.Request) {
	scope, element, page, size, err := parseMiniTableParams(r)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, BadRequestResponse(err.Error(), nil))
		return
	}

	result, err := c.reportService.QCMiniTable(scope, element, page, size)
	if err != nil {
		respondRunError(w, r, "生成质控明细表失败", err)
		return
	}
	render.JSON(w, r, SuccessResponse("生成质控明细表成功", result))
}

// SJSMiniTable 二级标样明细表
// @Summary 二级标样明细表
// @Description 返回单个分析项修正后的二级标样测量明细，分页
// @Tags 质控
// @Produce json
// @Param element query string true "分析项列名"
// @Param run_id query string false "批次ID"
// @Param start_date query string false "起始日期 YYYY-MM-DD"
// @Param end_date query string false "结束日期 YYYY-MM-DD"
// @Param page query int false "页码，默认1"
// @Param size query int false "每页条数，默认10"
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /qc/sjs-mini-table [get]
func (c *TableController) SJSMiniTable(w http.ResponseWriter, r *http.Request) {
	scope, element, page, size, err := parseMiniTableParams(r)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, BadRequestResponse(err.Error(), nil))
		return
	}

	result, err := c.reportService.SJSMiniTable(scope, element, page, size)
	if err != nil {
		respondRunError(w, r, "生成二级标样明细表失败", err)
		return
	}
	render.JSON(w, r, SuccessResponse("生成二级标样明细表成功", result))
}

// parseMiniTableParams 解析明细表的范围、分析项与分页参数
func parseMiniTableParams(r *http.Request) (qcreport.Scope, string, int, int, error) {
	scope, err := parseScope(r)
	if err != nil {
		return qcreport.Scope{}, "", 0, 0, err
	}
	element := r.URL.Query().Get("element")
	if element == "" {
		return qcreport.Scope{}, "", 0, 0, errMissingElement
	}
	page := cast.ToInt(r.URL.Query().Get("page"))
	size := cast.ToInt(r.URL.Query().Get("size"))
	return scope, element, page, size, nil
}
