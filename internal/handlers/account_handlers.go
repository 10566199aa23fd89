package handlers

import (
	"net/http"
	"strings"

	"github.com/bituzin/stacks-boost-app/internal/amount"
	"github.com/bituzin/stacks-boost-app/internal/chain"
	"github.com/bituzin/stacks-boost-app/internal/clarity"
	"github.com/bituzin/stacks-boost-app/internal/reconcile"

	"github.com/gin-gonic/gin"
)

const defaultTransactionLimit = 5

// AccountHandler serves the connected account's position and chain data
type AccountHandler struct {
	common *CommonServices
}

// NewAccountHandler creates a new AccountHandler instance
func NewAccountHandler(common *CommonServices) *AccountHandler {
	return &AccountHandler{common: common}
}

// PositionResponse is the reconciled lending position with display amounts
type PositionResponse struct {
	Object string `json:"object"`
	reconcile.Position
	DepositedSTX string `json:"deposited_stx,omitempty"`
	BorrowedSTX  string `json:"borrowed_stx,omitempty"`
}

// BalanceResponse represents an account's STX and sBTC balances
type BalanceResponse struct {
	Object   string `json:"object"`
	Address  string `json:"address"`
	STX      uint64 `json:"stx"`
	STXText  string `json:"stx_formatted"`
	SBTC     uint64 `json:"sbtc"`
	SBTCText string `json:"sbtc_formatted"`
}

// TransactionListResponse represents recent transactions of an account
type TransactionListResponse struct {
	Object string                     `json:"object"`
	Data   []chain.TransactionSummary `json:"data"`
}

func toPositionResponse(p reconcile.Position) PositionResponse {
	resp := PositionResponse{Object: "position", Position: p}
	if p.DepositedKnown {
		resp.DepositedSTX = amount.Format(p.Deposited)
	}
	if p.BorrowedKnown {
		resp.BorrowedSTX = amount.Format(p.Borrowed)
	}
	return resp
}

// addressParam reads the optional address query parameter. An empty value
// means the connected account.
func addressParam(c *gin.Context) (string, bool) {
	address := strings.TrimSpace(c.Query("address"))
	if address == "" {
		return "", true
	}
	if _, _, err := clarity.ParseAddress(address); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid address", err)
		return "", false
	}
	return address, true
}

// GetPosition godoc
// @Summary Get lending position
// @Description Returns the last reconciled position. Pass refresh=true to reconcile first,
// @Description or address to read another account directly.
// @Tags account
// @Produce json
// @Param refresh query bool false "Reconcile before responding"
// @Param address query string false "Stacks address"
// @Success 200 {object} PositionResponse
// @Router /position [get]
func (h *AccountHandler) GetPosition(c *gin.Context) {
	address, ok := addressParam(c)
	if !ok {
		return
	}
	if address != "" {
		position, err := h.common.engine.PositionOf(c.Request.Context(), address)
		if err != nil {
			handleEngineError(c, err)
			return
		}
		sendSuccess(c, http.StatusOK, toPositionResponse(position))
		return
	}

	position := h.common.engine.Position()
	if c.Query("refresh") == "true" {
		position = h.common.engine.RefreshPosition(c.Request.Context())
	}
	sendSuccess(c, http.StatusOK, toPositionResponse(position))
}

// GetBalances godoc
// @Summary Get balances
// @Description Returns STX and sBTC balances of an address or of the connected account
// @Tags account
// @Produce json
// @Param address query string false "Stacks address"
// @Success 200 {object} BalanceResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /account/balances [get]
func (h *AccountHandler) GetBalances(c *gin.Context) {
	address, ok := addressParam(c)
	if !ok {
		return
	}

	balances, err := h.common.engine.Balances(c.Request.Context(), address)
	if err != nil {
		handleEngineError(c, err)
		return
	}
	if address == "" {
		_, session := h.common.engine.ActiveWallet()
		address = session.Address
	}

	sbtc := h.common.engine.SBTCBalance(balances)
	sendSuccess(c, http.StatusOK, BalanceResponse{
		Object:   "balance",
		Address:  address,
		STX:      balances.Native,
		STXText:  amount.Format(balances.Native),
		SBTC:     sbtc,
		SBTCText: amount.Format(sbtc),
	})
}

// ListTransactions godoc
// @Summary List recent transactions
// @Tags account
// @Produce json
// @Param address query string false "Stacks address"
// @Param limit query int false "Maximum number of transactions"
// @Success 200 {object} TransactionListResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /account/transactions [get]
func (h *AccountHandler) ListTransactions(c *gin.Context) {
	address, ok := addressParam(c)
	if !ok {
		return
	}
	limit, err := queryLimit(c, defaultTransactionLimit)
	if err != nil {
		sendError(c, http.StatusBadRequest, err.Error(), err)
		return
	}

	txs, err := h.common.engine.Transactions(c.Request.Context(), address, limit)
	if err != nil {
		handleEngineError(c, err)
		return
	}
	if txs == nil {
		txs = []chain.TransactionSummary{}
	}
	sendList(c, txs)
}

// GetTransaction godoc
// @Summary Get transaction status
// @Tags account
// @Produce json
// @Param tx_id path string true "Transaction ID"
// @Success 200 {object} chain.TransactionStatus
// @Failure 502 {object} ErrorResponse
// @Router /transactions/{tx_id} [get]
func (h *AccountHandler) GetTransaction(c *gin.Context) {
	txID := strings.TrimSpace(c.Param("tx_id"))
	if txID == "" {
		sendError(c, http.StatusBadRequest, "Transaction ID is required", nil)
		return
	}

	status, err := h.common.engine.TransactionStatus(c.Request.Context(), txID)
	if err != nil {
		handleEngineError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, status)
}
