// Package handler exposes the engine over HTTP for the billing and
// enrollment services.
package handler

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/vidaplan/paycode/internal/middleware"
	"github.com/vidaplan/paycode/internal/service"
)

type Handler struct {
	payments *service.PaymentService
}

func New(payments *service.PaymentService) *Handler {
	return &Handler{payments: payments}
}

// Router builds the gin engine with middleware and all routes registered.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recover(), middleware.Logging(), cors.Default())

	r.GET("/healthz", h.Health)

	api := r.Group("/api/v1")
	{
		api.POST("/payments/boleto", h.GenerateBoleto)
		api.POST("/payments/pix", h.GeneratePix)
		api.GET("/payments/:id", h.GetStatus)
		api.POST("/payments/:id/check", h.CheckStatus)
		api.POST("/payments/:id/refund", h.Refund)
	}

	return r
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(200, gin.H{"status": "ok"})
}
