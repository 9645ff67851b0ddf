package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskora/services/booking"
	"taskora/services/wallet"
)

// WalletHandler exposes wallet top-up, withdrawal and statement endpoints.
type WalletHandler struct {
	Service wallet.WalletService
	Logger  *zap.Logger
}

func NewWalletHandler(service wallet.WalletService, logger *zap.Logger) *WalletHandler {
	return &WalletHandler{Service: service, Logger: logger}
}

type walletMutation struct {
	Amount float64 `json:"amount" binding:"required"`
	Note   string  `json:"note"`
}

func (h *WalletHandler) respondError(c *gin.Context, err error) {
	switch booking.ErrorCode(err) {
	case booking.CodeValidation:
		c.JSON(http.StatusBadRequest, gin.H{"code": booking.CodeValidation, "message": err.Error()})
	case booking.CodeState:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"code": booking.CodeState, "message": err.Error()})
	default:
		h.Logger.Error("wallet operation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"code": "internalError", "message": "something went wrong"})
	}
}

// Deposit handles POST /api/wallets/:ownerId/deposit.
func (h *WalletHandler) Deposit(c *gin.Context) {
	var body walletMutation
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "validationError", "message": err.Error()})
		return
	}
	w, err := h.Service.Deposit(c.Request.Context(), c.Param("ownerId"), body.Amount, body.Note)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// Withdraw handles POST /api/wallets/:ownerId/withdraw.
func (h *WalletHandler) Withdraw(c *gin.Context) {
	var body walletMutation
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "validationError", "message": err.Error()})
		return
	}
	w, err := h.Service.Withdraw(c.Request.Context(), c.Param("ownerId"), body.Amount, body.Note)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// Balance handles GET /api/wallets/:ownerId.
func (h *WalletHandler) Balance(c *gin.Context) {
	w, err := h.Service.Balance(c.Request.Context(), c.Param("ownerId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// History handles GET /api/wallets/:ownerId/transactions?limit=.
func (h *WalletHandler) History(c *gin.Context) {
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	history, err := h.Service.History(c.Request.Context(), c.Param("ownerId"), limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": history})
}
