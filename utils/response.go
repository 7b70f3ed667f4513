package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every failed request. Detail is human readable;
// Code is an internal numeric code for log correlation.
type ErrorResponse struct {
	Detail string `json:"detail"`
	Code   int    `json:"code,omitempty"`
}

// MessageResponse is returned by actions that produce no entity.
type MessageResponse struct {
	Message string `json:"message"`
}

// Success writes data as a 200 JSON response.
func Success(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusOK, data)
}

// Message writes a {"message": ...} response.
func Message(ctx *gin.Context, message string) {
	ctx.JSON(http.StatusOK, MessageResponse{Message: message})
}

// Error writes an error response. Callers return right after.
func Error(ctx *gin.Context, status int, code int, detail string) {
	ctx.JSON(status, ErrorResponse{Detail: detail, Code: code})
}

// Abort writes an error response and stops the handler chain.
func Abort(ctx *gin.Context, status int, code int, detail string) {
	ctx.AbortWithStatusJSON(status, ErrorResponse{Detail: detail, Code: code})
}
