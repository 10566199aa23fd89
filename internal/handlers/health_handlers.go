package handlers

import (
	"net/http"

	"github.com/bituzin/stacks-boost-app/internal/wallet"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	common *CommonServices
}

func NewHealthHandler(common *CommonServices) *HealthHandler {
	return &HealthHandler{common: common}
}

type HealthResponse struct {
	Status  string        `json:"status"`
	Network string        `json:"network"`
	Wallet  wallet.Status `json:"wallet_status"`
}

// Health godoc
// @Summary      Health check
// @Description  Checks if the server is running
// @Tags         health
// @Produce      json
// @Success      200  {object}  HealthResponse   "Returns health status"
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	_, session := h.common.engine.ActiveWallet()
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Network: h.common.engine.Config().Network,
		Wallet:  session.Status,
	})
}
