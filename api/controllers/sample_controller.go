/*
 * @module api/controllers/sample_controller
 * @description 样品浏览控制器：样品清单、单样品比对表与单元素明细
 * @architecture MVC架构 - 控制器层
 * @documentReference ai_docs/qc_reporting.md
 * @stateFlow 参数解析 -> 样品服务 -> 统一响应
 * @rules 样品不存在返回404；比对表按仪器类型分区，主量在前
 * @dependencies labqc-service/service, github.com/go-chi/render
 * @refs service/samples/service.go
 */

package controllers

import (
	"errors"
	"net/http"

	"labqc-service/service"
	"labqc-service/service/samples"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"gorm.io/gorm"
)

// SampleController 样品浏览控制器
type SampleController struct {
	sampleService *samples.Service
}

// NewSampleController 创建样品浏览控制器实例
func NewSampleController() *SampleController {
	return &SampleController{sampleService: service.GlobalSampleService}
}

// DetailsRequest 单元素明细请求体
type DetailsRequest struct {
	SampleID    string `json:"sampleId"`
	ElementName string `json:"elementName"`
}

// List 样品清单
// @Summary 样品清单
// @Description 返回活动批次关联的全部样品，按溶液标签排序
// @Tags 样品
// @Produce json
// @Success 200 {object} APIResponse{data=[]samples.SampleInfo}
// @Failure 500 {object} APIResponse
// @Router /samples [get]
func (c *SampleController) List(w http.ResponseWriter, r *http.Request) {
	list, err := c.sampleService.List()
	if err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, InternalErrorResponse("查询样品清单失败", err))
		return
	}
	render.JSON(w, r, SuccessResponse("查询样品清单成功", list))
}

// Table 单样品比对表
// @Summary 单样品比对表
// @Description 返回样品在各关联仪器类型下的核查均值、误差判定与修正测量值，附来源文件链接
// @Tags 样品
// @Produce json
// @Param id path string true "样品ID"
// @Success 200 {object} APIResponse{data=samples.SampleTable}
// @Failure 404 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /samples/{id}/table [get]
func (c *SampleController) Table(w http.ResponseWriter, r *http.Request) {
	sampleID := chi.URLParam(r, "id")

	table, err := c.sampleService.Table(sampleID)
	if err != nil {
		respondSampleError(w, r, "生成样品比对表失败", err)
		return
	}
	render.JSON(w, r, SuccessResponse("生成样品比对表成功", table))
}

// Details 单元素明细
// @Summary 单元素明细
// @Description 返回样品所属批次内指定元素的核查均值与RSD，元素名允许带修正后缀
// @Tags 样品
// @Accept json
// @Produce json
// @Param request body DetailsRequest true "样品与元素"
// @Success 200 {object} APIResponse{data=samples.ElementDetails}
// @Failure 400 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /samples/details [post]
func (c *SampleController) Details(w http.ResponseWriter, r *http.Request) {
	var req DetailsRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, BadRequestResponse("请求参数格式错误", err))
		return
	}
	if req.SampleID == "" || req.ElementName == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, BadRequestResponse("sampleId和elementName不能为空", nil))
		return
	}

	details, err := c.sampleService.Details(req.SampleID, req.ElementName)
	if err != nil {
		respondSampleError(w, r, "查询元素明细失败", err)
		return
	}
	render.JSON(w, r, SuccessResponse("查询元素明细成功", details))
}

func respondSampleError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, NotFoundResponse("样品不存在", nil))
		return
	}
	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, InternalErrorResponse(msg, err))
}
