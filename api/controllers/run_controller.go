/*
 * @module api/controllers/run_controller
 * @description 批次管理控制器，提供批次列表、隐藏、预览与打包下载
 * @architecture MVC架构 - 控制器层
 * @documentReference ai_docs/backend_requirements.md
 * @stateFlow HTTP请求处理流程
 * @rules 隐藏为软删除且幂等；下载返回zip二进制流
 * @dependencies labqc-service/service, github.com/go-chi/chi/v5, github.com/go-chi/render
 * @refs service/runs/service.go, service/runs/bundle.go
 */

package controllers

import (
	"errors"
	"fmt"
	"labqc-service/service"
	"labqc-service/service/runs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"gorm.io/gorm"
)

// RunController 批次管理控制器
type RunController struct {
	runService *runs.RunService
}

// NewRunController 创建批次管理控制器实例
func NewRunController() *RunController {
	return &RunController{runService: service.GlobalRunService}
}

// List 批次列表
// @Summary 批次列表
// @Description 返回全部活动批次，按上传时间倒序
// @Tags 批次
// @Produce json
// @Success 200 {object} APIResponse{data=[]runs.RunInfo}
// @Failure 500 {object} APIResponse
// @Router /runs [get]
func (c *RunController) List(w http.ResponseWriter, r *http.Request) {
	list, err := c.runService.List()
	if err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, InternalErrorResponse("查询批次列表失败", err))
		return
	}
	render.JSON(w, r, SuccessResponse("查询批次列表成功", list))
}

// Hide 隐藏批次
// @Summary 隐藏批次
// @Description 软删除指定批次，释放原文件名供重新上传
// @Tags 批次
// @Produce json
// @Param id path string true "批次ID"
// @Success 200 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /runs/{id}/hide [post]
func (c *RunController) Hide(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, BadRequestResponse("批次ID参数不能为空", nil))
		return
	}
	if err := c.runService.Hide(id); err != nil {
		respondRunError(w, r, "隐藏批次失败", err)
		return
	}
	render.JSON(w, r, SuccessResponse("隐藏批次成功", nil))
}

// Preview 批次预览
// @Summary 批次预览
// @Description 返回原始CSV文件的前几行数据记录
// @Tags 批次
// @Produce json
// @Param id path string true "批次ID"
// @Success 200 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /runs/{id}/preview [get]
func (c *RunController) Preview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, BadRequestResponse("批次ID参数不能为空", nil))
		return
	}
	rows, err := c.runService.Preview(id)
	if err != nil {
		respondRunError(w, r, "读取批次预览失败", err)
		return
	}
	render.JSON(w, r, SuccessResponse("读取批次预览成功", rows))
}

// Download 下载批次结果包
// @Summary 下载批次结果包
// @Description 打包原始CSV、修正值CSV、合格与不合格分析项CSV及PDF报告为zip下载
// @Tags 批次
// @Produce application/zip
// @Param id path string true "批次ID"
// @Success 200 {file} binary
// @Failure 404 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /runs/{id}/download [get]
func (c *RunController) Download(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, BadRequestResponse("批次ID参数不能为空", nil))
		return
	}
	bundle, err := c.runService.Bundle(id)
	if err != nil {
		respondRunError(w, r, "生成批次结果包失败", err)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", bundle.Filename))
	_, _ = w.Write(bundle.Data)
}

// respondRunError 批次不存在映射为404，其余为500
func respondRunError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, NotFoundResponse("批次不存在", nil))
		return
	}
	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, InternalErrorResponse(msg, err))
}
