/*
 * @module api/controllers/upload_controller
 * @description 上传控制器，接收仪器CSV文件与可选PDF报告并触发摄取流程
 * @architecture MVC架构 - 控制器层
 * @documentReference ai_docs/ingestion_pipeline.md
 * @stateFlow multipart解析 -> 摄取服务 -> 格式/校验错误映射为400
 * @rules csvfile字段必填，pdffile可选；摄取失败不留任何落盘文件
 * @dependencies labqc-service/service, github.com/go-chi/render
 * @refs service/runs/service.go
 */

package controllers

import (
	"errors"
	"io"
	"labqc-service/service"
	"labqc-service/service/ingest"
	"labqc-service/service/runs"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/render"
)

// 上传文件大小上限32MB
const maxUploadSize = 32 << 20

// UploadController 上传控制器
type UploadController struct {
	runService *runs.RunService
}

// NewUploadController 创建上传控制器实例
func NewUploadController() *UploadController {
	return &UploadController{runService: service.GlobalRunService}
}

// Upload 上传批次文件
// @Summary 上传批次文件
// @Description 接收仪器导出的CSV文件与可选的PDF报告，解析校验后入库并计算修正值
// @Tags 批次
// @Accept multipart/form-data
// @Produce json
// @Param csvfile formData file true "仪器CSV文件"
// @Param pdffile formData file false "PDF报告"
// @Success 200 {object} APIResponse{data=runs.IngestResult}
// @Failure 400 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /upload [post]
func (c *UploadController) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, BadRequestResponse("解析上传表单失败", err))
		return
	}

	input := &runs.IngestInput{}

	name, data, err := readFormFile(r, "csvfile")
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, BadRequestResponse("缺少csvfile文件字段", err))
		return
	}
	input.CSVName, input.CSVData = name, data

	// PDF报告可选
	if name, data, err := readFormFile(r, "pdffile"); err == nil {
		input.PDFName, input.PDFData = name, data
	}

	result, err := c.runService.Ingest(input)
	if err != nil {
		var formatErr *ingest.FormatError
		var validationErr *ingest.ValidationError
		if errors.As(err, &formatErr) || errors.As(err, &validationErr) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, BadRequestResponse(err.Error(), nil))
			return
		}
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, InternalErrorResponse("文件摄取失败", err))
		return
	}
	render.JSON(w, r, SuccessResponse("上传成功", result))
}

// readFormFile 读取multipart表单中的单个文件
func readFormFile(r *http.Request, field string) (string, []byte, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return "", nil, err
	}
	defer func(f multipart.File) { _ = f.Close() }(file)

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, err
	}
	return header.Filename, data, nil
}
