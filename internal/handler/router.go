package handler

import (
	"github.com/gin-gonic/gin"
)

type RouterDeps struct {
	Otp    *OtpHandler
	Health *HealthHandler
	// OtpLimiter guards the OTP endpoints when set.
	OtpLimiter gin.HandlerFunc
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/healthz", deps.Health.Check)

	otp := api.Group("/otp")
	if deps.OtpLimiter != nil {
		otp.Use(deps.OtpLimiter)
	}
	otp.POST("/send", deps.Otp.Send)
	otp.POST("/verify", deps.Otp.Verify)
}
