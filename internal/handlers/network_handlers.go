package handlers

import (
	"net/http"

	"github.com/bituzin/stacks-boost-app/internal/wallet"

	"github.com/gin-gonic/gin"
)

// NetworkHandler handles network and contract configuration operations
type NetworkHandler struct {
	common *CommonServices
}

// NewNetworkHandler creates a new network handler with the required dependencies
func NewNetworkHandler(common *CommonServices) *NetworkHandler {
	return &NetworkHandler{common: common}
}

// NetworkResponse represents the network the engine is bound to
type NetworkResponse struct {
	Object       string        `json:"object"`
	Network      string        `json:"network"`
	ChainID      string        `json:"chain_id"`
	APIURL       string        `json:"api_url"`
	ContractID   string        `json:"contract_id"`
	SBTCAssetID  string        `json:"sbtc_asset_id"`
	OracleID     string        `json:"oracle_id"`
	Wallets      []wallet.Kind `json:"wallets"`
	RelayEnabled bool          `json:"relay_enabled"`
	Journal      bool          `json:"journal_enabled"`
}

// GetNetwork godoc
// @Summary Get network configuration
// @Description Returns the network, contract identifiers and registered wallets
// @Tags network
// @Produce json
// @Success 200 {object} NetworkResponse
// @Router /config [get]
func (h *NetworkHandler) GetNetwork(c *gin.Context) {
	cfg := h.common.engine.Config()

	wallets := h.common.engine.Wallets()
	kinds := make([]wallet.Kind, 0, len(wallets))
	for _, w := range wallets {
		kinds = append(kinds, w.Kind)
	}
	_, relayEnabled := h.common.engine.Relay()

	sendSuccess(c, http.StatusOK, NetworkResponse{
		Object:       "network",
		Network:      cfg.Network,
		ChainID:      cfg.ChainID(),
		APIURL:       cfg.APIBaseURL(),
		ContractID:   cfg.ContractID(),
		SBTCAssetID:  cfg.SBTCAssetID(),
		OracleID:     cfg.OracleID(),
		Wallets:      kinds,
		RelayEnabled: relayEnabled,
		Journal:      cfg.JournalEnabled(),
	})
}
