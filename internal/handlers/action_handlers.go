package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/bituzin/stacks-boost-app/internal/journal"
	"github.com/bituzin/stacks-boost-app/internal/lifecycle"

	"github.com/gin-gonic/gin"
)

const defaultHistoryLimit = 50

// ActionHandler submits lending actions and reports their lifecycle
type ActionHandler struct {
	common *CommonServices
}

// NewActionHandler creates a new ActionHandler instance
func NewActionHandler(common *CommonServices) *ActionHandler {
	return &ActionHandler{common: common}
}

// SubmitActionRequest represents the request body for a lending action.
// Amounts are decimal STX.
type SubmitActionRequest struct {
	Amount     string `json:"amount"`
	Collateral string `json:"collateral,omitempty"`
	Recipient  string `json:"recipient,omitempty"`
	Memo       string `json:"memo,omitempty"`
}

// SubmitActionResponse wraps an accepted submission
type SubmitActionResponse struct {
	Object string `json:"object"`
	*lifecycle.Submission
}

// SubmitAction godoc
// @Summary Submit a lending action
// @Description Validates the action, asks the active wallet to sign it and starts confirmation polling
// @Tags actions
// @Accept json
// @Produce json
// @Param action path string true "deposit, withdraw, borrow, repay or transfer"
// @Param request body SubmitActionRequest true "Action parameters"
// @Success 202 {object} SubmitActionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /actions/{action} [post]
func (h *ActionHandler) SubmitAction(c *gin.Context) {
	action, ok := lifecycle.ParseAction(c.Param("action"))
	if !ok {
		err := fmt.Errorf("%w: %q", lifecycle.ErrUnknownAction, c.Param("action"))
		sendError(c, http.StatusBadRequest, err.Error(), err)
		return
	}

	// repay takes no parameters, so an empty body is allowed
	var req SubmitActionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		sendError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	sub, err := h.common.engine.Submit(c.Request.Context(), lifecycle.Request{
		Action:     action,
		Amount:     req.Amount,
		Collateral: req.Collateral,
		Recipient:  req.Recipient,
		Memo:       req.Memo,
	})
	if err != nil {
		// a rejected submission leaves its user-facing notice on the snapshot;
		// ErrBusy leaves the in-flight submission untouched
		if !errors.Is(err, lifecycle.ErrBusy) {
			if notice := h.common.engine.Lifecycle().Notice; notice != "" {
				sendError(c, engineErrorStatus(err), notice, err)
				return
			}
		}
		handleEngineError(c, err)
		return
	}
	sendSuccess(c, http.StatusAccepted, SubmitActionResponse{Object: "submission", Submission: sub})
}

// GetLifecycle godoc
// @Summary Get transaction lifecycle
// @Description Returns the state of the current or last submitted action
// @Tags actions
// @Produce json
// @Success 200 {object} lifecycle.Snapshot
// @Router /lifecycle [get]
func (h *ActionHandler) GetLifecycle(c *gin.Context) {
	sendSuccess(c, http.StatusOK, h.common.engine.Lifecycle())
}

// ListHistory godoc
// @Summary List submission history
// @Description Lists journaled submissions, newest first
// @Tags actions
// @Produce json
// @Param limit query int false "Maximum number of entries"
// @Success 200 {array} journal.Entry
// @Failure 404 {object} ErrorResponse
// @Router /history [get]
func (h *ActionHandler) ListHistory(c *gin.Context) {
	limit, err := queryLimit(c, defaultHistoryLimit)
	if err != nil {
		sendError(c, http.StatusBadRequest, err.Error(), err)
		return
	}

	entries, err := h.common.engine.History(c.Request.Context(), limit)
	if err != nil {
		handleEngineError(c, err)
		return
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	sendList(c, entries)
}
