package handlers

import (
	"net/http"

	"github.com/bituzin/stacks-boost-app/internal/engine"
	"github.com/bituzin/stacks-boost-app/internal/wallet"

	"github.com/gin-gonic/gin"
)

// WalletHandler handles wallet selection and connection
type WalletHandler struct {
	common *CommonServices
}

// NewWalletHandler creates a new WalletHandler instance
func NewWalletHandler(common *CommonServices) *WalletHandler {
	return &WalletHandler{common: common}
}

// WalletResponse represents the active wallet and its session
type WalletResponse struct {
	Object  string         `json:"object"`
	Kind    wallet.Kind    `json:"kind"`
	Session wallet.Session `json:"session"`
}

// SelectWalletRequest represents the request body for selecting a wallet
type SelectWalletRequest struct {
	Kind string `json:"kind"`
}

func (h *WalletHandler) activeWallet() WalletResponse {
	kind, session := h.common.engine.ActiveWallet()
	return WalletResponse{Object: "wallet", Kind: kind, Session: session}
}

// ListWallets godoc
// @Summary List wallets
// @Description Lists the registered wallet backends with their sessions
// @Tags wallets
// @Produce json
// @Success 200 {array} engine.WalletInfo
// @Router /wallets [get]
func (h *WalletHandler) ListWallets(c *gin.Context) {
	wallets := h.common.engine.Wallets()
	if wallets == nil {
		wallets = []engine.WalletInfo{}
	}
	sendList(c, wallets)
}

// GetActiveWallet godoc
// @Summary Get active wallet
// @Tags wallets
// @Produce json
// @Success 200 {object} WalletResponse
// @Router /wallets/active [get]
func (h *WalletHandler) GetActiveWallet(c *gin.Context) {
	sendSuccess(c, http.StatusOK, h.activeWallet())
}

// SelectWallet godoc
// @Summary Select wallet
// @Description Switches the active wallet backend. An empty kind clears the selection.
// @Tags wallets
// @Accept json
// @Produce json
// @Param wallet body SelectWalletRequest true "Wallet kind"
// @Success 200 {object} WalletResponse
// @Failure 400 {object} ErrorResponse
// @Router /wallets/select [post]
func (h *WalletHandler) SelectWallet(c *gin.Context) {
	var req SelectWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	kind, ok := wallet.ParseKind(req.Kind)
	if !ok {
		sendError(c, http.StatusBadRequest, "Unknown wallet kind", wallet.ErrUnknownWallet)
		return
	}
	if err := h.common.engine.SelectWallet(kind); err != nil {
		handleEngineError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, h.activeWallet())
}

// ConnectWallet godoc
// @Summary Connect wallet
// @Description Connects the active wallet and waits for the user to approve
// @Tags wallets
// @Produce json
// @Success 200 {object} WalletResponse
// @Failure 409 {object} ErrorResponse
// @Router /wallets/connect [post]
func (h *WalletHandler) ConnectWallet(c *gin.Context) {
	if err := h.common.engine.Connect(c.Request.Context()); err != nil {
		handleEngineError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, h.activeWallet())
}

// DisconnectWallet godoc
// @Summary Disconnect wallet
// @Tags wallets
// @Produce json
// @Success 200 {object} WalletResponse
// @Failure 409 {object} ErrorResponse
// @Router /wallets/disconnect [post]
func (h *WalletHandler) DisconnectWallet(c *gin.Context) {
	if err := h.common.engine.Disconnect(c.Request.Context()); err != nil {
		handleEngineError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, h.activeWallet())
}
