package http

import "github.com/gin-gonic/gin"

// RegisterPaymentRoutes registra las rutas del contexto de pagos.
func RegisterPaymentRoutes(r *gin.Engine, h *PaymentHandler) {
	payments := r.Group("/payments")
	{
		payments.POST("", h.InitiatePayment)
		payments.GET("/:id", h.GetPayment)
		payments.POST("/:id/resolve", h.ResolvePayment)
	}
}
