package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/easyledger/internal/middleware"
	appErr "github.com/xxxsen/easyledger/internal/pkg/errors"
	"github.com/xxxsen/easyledger/internal/pkg/response"
)

func requestLogger(c *gin.Context) *zap.Logger {
	return logutil.GetLogger(c.Request.Context()).With(
		zap.String("request_id", c.GetString(middleware.ContextRequestIDKey)),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
	)
}

func bindRequest(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		badRequest(c, "invalid request body", err)
		return false
	}
	return true
}

func badRequest(c *gin.Context, message string, err error) {
	requestLogger(c).Debug("bad request", zap.Error(err))
	response.Error(c, http.StatusBadRequest, message)
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	switch {
	case appErr.IsRejection(err):
		response.Reject(c, err.Error())
	case err == appErr.ErrInvalid:
		response.Error(c, http.StatusBadRequest, "invalid request")
	case err == appErr.ErrTooMany:
		response.Error(c, http.StatusTooManyRequests, "too many requests")
	default:
		requestLogger(c).Error("request failed", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, err.Error())
	}
}
