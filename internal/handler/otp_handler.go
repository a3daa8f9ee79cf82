package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/easyledger/internal/pkg/response"
	"github.com/xxxsen/easyledger/internal/pkg/validate"
	"github.com/xxxsen/easyledger/internal/service"
)

type OtpHandler struct {
	otps *service.OtpService
}

func NewOtpHandler(otps *service.OtpService) *OtpHandler {
	return &OtpHandler{otps: otps}
}

type sendOtpRequest struct {
	Email string `json:"email" validate:"required"`
}

type verifyOtpRequest struct {
	Email string `json:"email" validate:"required"`
	Code  string `json:"code" validate:"required"`
}

func (h *OtpHandler) Send(c *gin.Context) {
	var req sendOtpRequest
	if !bindRequest(c, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := validate.Struct(req); err != nil {
		badRequest(c, "email required", err)
		return
	}
	if _, err := h.otps.Issue(c.Request.Context(), req.Email); err != nil {
		handleError(c, err)
		return
	}
	response.OK(c)
}

func (h *OtpHandler) Verify(c *gin.Context) {
	var req verifyOtpRequest
	if !bindRequest(c, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Code = strings.TrimSpace(req.Code)
	if err := validate.Struct(req); err != nil {
		badRequest(c, "email and code required", err)
		return
	}
	if err := h.otps.Verify(c.Request.Context(), req.Email, req.Code); err != nil {
		handleError(c, err)
		return
	}
	response.OK(c)
}
