package util

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Response 接口统一响应结构
type Response struct {
	Code      int         `json:"code"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// Ok 成功响应
func Ok(c *gin.Context, data interface{}) {
	if data == nil {
		data = gin.H{}
	}

	c.JSON(http.StatusOK, Response{
		Code:      http.StatusOK,
		Message:   "success",
		Data:      data,
		Timestamp: time.Now().Unix(),
	})
}

// ErrStatus 带状态码的错误响应
func ErrStatus(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Response{
		Code:      status,
		Message:   message,
		Timestamp: time.Now().Unix(),
	})
}

// Err 内部错误响应
func Err(c *gin.Context, err error) {
	message := "Internal server error"
	if err != nil {
		message = err.Error()
	}
	ErrStatus(c, http.StatusInternalServerError, message)
}
