package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Body is the envelope of every OTP endpoint.
type Body struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

func OK(c *gin.Context) {
	c.JSON(http.StatusOK, Body{OK: true})
}

// Reject answers a well formed request that failed a business rule.
func Reject(c *gin.Context, message string) {
	c.JSON(http.StatusOK, Body{OK: false, Message: message})
}

func Error(c *gin.Context, status int, message string) {
	c.JSON(status, Body{OK: false, Message: message})
}
