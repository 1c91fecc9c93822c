package http

import "github.com/gin-gonic/gin"

// RegisterWalletRoutes registra las rutas del contexto de wallet.
func RegisterWalletRoutes(r *gin.Engine, h *WalletHandler) {
	wallets := r.Group("/wallets")
	{
		wallets.GET("/:user_id", h.GetWallet)
		wallets.GET("/:user_id/balance", h.GetTotalBalance)
		wallets.GET("/:user_id/consistency", h.CheckConsistency)
		wallets.POST("/quote", h.QuotePrice)
	}
}
