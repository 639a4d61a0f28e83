/*
 * @module api/controllers/response
 * @description 统一API响应结构与构造函数
 * @architecture MVC架构 - 控制器层
 * @documentReference ai_docs/backend_requirements.md
 * @stateFlow 无状态响应构造
 * @rules 成功响应status为0，错误响应status为对应HTTP状态码
 * @dependencies net/http
 * @refs api/routes.go
 */

package controllers

import "net/http"

// APIResponse 统一API响应结构
type APIResponse struct {
	Status int         `json:"status" example:"0"`
	Msg    string      `json:"msg" example:"操作成功"`
	Data   interface{} `json:"data,omitempty"`
}

// PaginatedResponse 分页响应结构
type PaginatedResponse struct {
	Status int         `json:"status" example:"0"`
	Msg    string      `json:"msg" example:"操作成功"`
	Data   interface{} `json:"data"`
	Total  int64       `json:"total" example:"100"`
	Page   int         `json:"page" example:"1"`
	Size   int         `json:"size" example:"10"`
}

// SuccessResponse 构造成功响应
func SuccessResponse(msg string, data interface{}) APIResponse {
	return APIResponse{Status: 0, Msg: msg, Data: data}
}

// BadRequestResponse 构造400错误响应
func BadRequestResponse(msg string, err error) APIResponse {
	return errorResponse(http.StatusBadRequest, msg, err)
}

// UnauthorizedResponse 构造401错误响应
func UnauthorizedResponse(msg string, err error) APIResponse {
	return errorResponse(http.StatusUnauthorized, msg, err)
}

// NotFoundResponse 构造404错误响应
func NotFoundResponse(msg string, err error) APIResponse {
	return errorResponse(http.StatusNotFound, msg, err)
}

// InternalErrorResponse 构造500错误响应
func InternalErrorResponse(msg string, err error) APIResponse {
	return errorResponse(http.StatusInternalServerError, msg, err)
}

func errorResponse(status int, msg string, err error) APIResponse {
	resp := APIResponse{Status: status, Msg: msg}
	if err != nil {
		resp.Data = err.Error()
	}
	return resp
}
