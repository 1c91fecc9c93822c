package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	sharedDomain "github.com/davicafu/viajelab/internal/shared/domain"
	"github.com/davicafu/viajelab/internal/wallet/application"
	"github.com/davicafu/viajelab/internal/wallet/domain"
)

// WalletHandler encapsula los endpoints HTTP relacionados con Wallet
type WalletHandler struct {
	service *application.WalletService
}

// NewWalletHandler crea un nuevo WalletHandler
func NewWalletHandler(service *application.WalletService) *WalletHandler {
	return &WalletHandler{service: service}
}

// ---------------- Handlers ----------------

// GetWallet endpoint GET /wallets/:user_id
func (h *WalletHandler) GetWallet(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	wallet, err := h.service.GetWallet(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrWalletNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "wallet not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, wallet)
}

// GetTotalBalance endpoint GET /wallets/:user_id/balance?currency=EUR
func (h *WalletHandler) GetTotalBalance(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	currency := c.DefaultQuery("currency", "EUR")

	total, err := h.service.TotalBalance(c.Request.Context(), userID, currency)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrWalletNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "wallet not found"})
		case errors.Is(err, domain.ErrUnknownCurrency):
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown currency"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":  userID.String(),
		"currency": total.Currency(),
		"total":    total.Amount().String(),
	})
}

// QuotePrice endpoint POST /wallets/quote
func (h *WalletHandler) QuotePrice(c *gin.Context) {
	var req struct {
		Service   string `json:"service" binding:"required"`
		BasePrice string `json:"base_price" binding:"required"`
		Currency  string `json:"currency" binding:"required"`
		AgeGroup  string `json:"age_group" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	amount, err := decimal.NewFromString(req.BasePrice)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid base_price"})
		return
	}
	base, err := sharedDomain.NewMoney(amount, req.Currency)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	total, err := h.service.QuotePrice(domain.ServiceType(req.Service), base, domain.AgeGroup(req.AgeGroup))
	if err != nil {
		if sharedDomain.IsDomain(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"service":   req.Service,
		"age_group": req.AgeGroup,
		"currency":  total.Currency(),
		"total":     total.Amount().String(),
	})
}

// CheckConsistency endpoint GET /wallets/:user_id/consistency
func (h *WalletHandler) CheckConsistency(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	wallet, err := h.service.GetWallet(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrWalletNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "wallet not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	diverged, err := h.service.CheckConsistency(c.Request.Context(), wallet.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"wallet_id":  wallet.ID.String(),
		"consistent": len(diverged) == 0,
		"diverged":   diverged,
	})
}
