/*
 * @module service/ingest/errors
 * @description 摄取错误分类：格式错误与校验错误在任何数据持久化之前中止摄取，
 *              并原样返回给调用方
 * @architecture 分层架构 - 错误模型
 * @documentReference ai_docs/ingestion_pipeline.md
 * @stateFlow 错误产生 -> 沿调用链透传 -> 控制器映射为 HTTP 400
 * @rules 计算跳过（无数值均值、无校正因子）不是错误，静默吸收
 * @refs api/controllers/upload_controller.go
 */

package ingest

import "fmt"

// FormatError 无法识别的仪器格式或损坏的多行表头
type FormatError struct {
	Msg string
}

func (e *FormatError) Error() string {
	return e.Msg
}

// NewFormatError 创建格式错误
func NewFormatError(format string, args ...interface{}) *FormatError {
	return &FormatError{Msg: fmt.Sprintf(format, args...)}
}

// ValidationError 表头与规范模式不符、质控类别缺失、标签无法识别或文件名重复
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// NewValidationError 创建校验错误
func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}
