package http

import "github.com/gin-gonic/gin"

// RegisterOrderRoutes registra las rutas del contexto de pedidos.
func RegisterOrderRoutes(r *gin.Engine, h *OrderHandler) {
	orders := r.Group("/orders")
	{
		orders.POST("", h.CreateOrder)
		orders.GET("/:id", h.GetOrder)
		orders.POST("/:id/complete", h.CompleteOrder)
		orders.POST("/:id/cancel", h.CancelOrder)
	}
}
