package handler

import (
	"net/http"

	"equipment-go/internal/middleware"
	"equipment-go/internal/service"
	"equipment-go/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var statusByKind = map[service.ErrorKind]int{
	service.ErrKindValidation:   http.StatusBadRequest,
	service.ErrKindAuth:         http.StatusBadRequest,
	service.ErrKindUnauthorized: http.StatusUnauthorized,
	service.ErrKindNotFound:     http.StatusNotFound,
	service.ErrKindBusy:         http.StatusServiceUnavailable,
	service.ErrKindInternal:     http.StatusInternalServerError,
}

// respondError 按错误类型输出状态码，内部错误只记录日志
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	kind := service.KindOf(err)
	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	message := service.MessageOf(err)
	if kind == service.ErrKindInternal {
		logger.WithError(err).WithField("request_id", middleware.GetRequestID(c)).Error("请求处理失败")
		message = "Internal server error"
	}

	utils.ErrorResponse(c, status, message)
}
