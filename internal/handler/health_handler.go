package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/easyledger/internal/pkg/response"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	store Pinger
}

func NewHealthHandler(store Pinger) *HealthHandler {
	return &HealthHandler{store: store}
}

func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.store.Ping(ctx); err != nil {
		handleError(c, fmt.Errorf("ping store: %w", err))
		return
	}
	response.OK(c)
}
