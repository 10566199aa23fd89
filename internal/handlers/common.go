package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/bituzin/stacks-boost-app/internal/chain"
	"github.com/bituzin/stacks-boost-app/internal/engine"
	"github.com/bituzin/stacks-boost-app/internal/lifecycle"
	"github.com/bituzin/stacks-boost-app/internal/logger"
	"github.com/bituzin/stacks-boost-app/internal/wallet"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CommonServices holds common dependencies used across handlers
type CommonServices struct {
	engine *engine.Engine
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewCommonServices creates a new instance of CommonServices
func NewCommonServices(e *engine.Engine) *CommonServices {
	return &CommonServices{engine: e}
}

// sendError is a helper function that combines logging and error response
// It logs the error with the given message and sends a JSON error response
func sendError(c *gin.Context, statusCode int, message string, err error) {
	log := logger.Log.Warn
	if statusCode >= http.StatusInternalServerError {
		log = logger.Log.Error
	}
	log(message,
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
	)
	c.JSON(statusCode, ErrorResponse{Error: message})
}

// engineErrorStatus maps engine errors onto HTTP status codes
func engineErrorStatus(err error) int {
	switch {
	case errors.Is(err, wallet.ErrNoWalletSelected),
		errors.Is(err, wallet.ErrNotConnected),
		errors.Is(err, wallet.ErrNotReady),
		errors.Is(err, lifecycle.ErrBusy),
		errors.Is(err, wallet.ErrUserCancelled):
		return http.StatusConflict
	case errors.Is(err, lifecycle.ErrInvalidAmount),
		errors.Is(err, lifecycle.ErrInvalidRecipient),
		errors.Is(err, lifecycle.ErrInsufficientBalance),
		errors.Is(err, lifecycle.ErrUnknownAction),
		errors.Is(err, wallet.ErrUnknownWallet):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrJournalDisabled):
		return http.StatusNotFound
	case errors.Is(err, wallet.ErrSubmission),
		errors.Is(err, chain.ErrQueryFailed):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// handleEngineError sends err with its mapped status. Messages of expected
// errors are returned verbatim.
func handleEngineError(c *gin.Context, err error) {
	status := engineErrorStatus(err)
	if status == http.StatusInternalServerError {
		sendError(c, status, "Internal server error", err)
		return
	}
	sendError(c, status, err.Error(), err)
}

// sendSuccess is a helper function that sends a success response
func sendSuccess(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

// sendList is a helper function that sends a list response
func sendList(c *gin.Context, items interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"object": "list",
		"data":   items,
	})
}

// queryLimit reads the limit query parameter, falling back to def
func queryLimit(c *gin.Context, def int) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return def, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, errors.New("limit must be a non-negative integer")
	}
	return limit, nil
}
