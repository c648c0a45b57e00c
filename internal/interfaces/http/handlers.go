package http

import (
	"errors"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/deptfin/programme-claims/internal/application/service"
	"github.com/deptfin/programme-claims/internal/domain/entity"
	"github.com/deptfin/programme-claims/internal/reconcile"
	"github.com/deptfin/programme-claims/internal/statement"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	claimService  service.ClaimService
	reviewService service.ReviewService
	exporter      *statement.Exporter
	statementDir  string
	logger        Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	claimService service.ClaimService,
	reviewService service.ReviewService,
	exporter *statement.Exporter,
	statementDir string,
	logger Logger,
) *Handlers {
	return &Handlers{
		claimService:  claimService,
		reviewService: reviewService,
		exporter:      exporter,
		statementDir:  statementDir,
		logger:        logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// SubmitClaimRequest is the body of a claim submission
type SubmitClaimRequest struct {
	Expenses []reconcile.SubmittedExpense `json:"expenses" binding:"required"`
	Income   []reconcile.SubmittedIncome  `json:"income,omitempty"`
}

// ApproveLineRequest is the body of a line approval
type ApproveLineRequest struct {
	ApprovedAmount *float64 `json:"approved_amount,omitempty"`
	ReviewerRef    string   `json:"reviewer_ref" binding:"required"`
}

// RejectLineRequest is the body of a line rejection
type RejectLineRequest struct {
	Reason      string `json:"reason,omitempty"`
	ReviewerRef string `json:"reviewer_ref" binding:"required"`
}

// ClaimResponse bundles a claim with its ledger view
type ClaimResponse struct {
	Claim  *entity.ClaimBill    `json:"claim"`
	Ledger *entity.BudgetLedger `json:"ledger,omitempty"`
}

// DecisionResponse is the output of approve/reject operations: the mutated
// line plus the recomputed aggregate snapshot
type DecisionResponse struct {
	Line     *entity.ExpenseLine `json:"line"`
	Snapshot *service.Snapshot   `json:"snapshot"`
}

// FinalizeResponse is the output of a finalize operation
type FinalizeResponse struct {
	Claim    *entity.ClaimBill `json:"claim"`
	Snapshot *service.Snapshot `json:"snapshot"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    gin.H{"status": "healthy"},
	})
}

// SubmitClaim handles POST /api/programmes/:programme_id/claim
func (h *Handlers) SubmitClaim(c *gin.Context) {
	programmeID := c.Param("programme_id")

	var req SubmitClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	claim, ledger, err := h.claimService.SubmitExpenses(c.Request.Context(), programmeID, req.Expenses, req.Income)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    ClaimResponse{Claim: claim, Ledger: ledger},
	})
}

// GetClaim handles GET /api/programmes/:programme_id/claim
func (h *Handlers) GetClaim(c *gin.Context) {
	claim, ledger, err := h.claimService.GetClaim(c.Request.Context(), c.Param("programme_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    ClaimResponse{Claim: claim, Ledger: ledger},
	})
}

// ApproveLine handles POST /api/programmes/:programme_id/claim/lines/:line_id/approve
func (h *Handlers) ApproveLine(c *gin.Context) {
	var req ApproveLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	line, snapshot, err := h.reviewService.ApproveLine(
		c.Request.Context(),
		c.Param("programme_id"),
		c.Param("line_id"),
		req.ApprovedAmount,
		req.ReviewerRef,
	)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    DecisionResponse{Line: line, Snapshot: snapshot},
	})
}

// RejectLine handles POST /api/programmes/:programme_id/claim/lines/:line_id/reject
func (h *Handlers) RejectLine(c *gin.Context) {
	var req RejectLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	line, snapshot, err := h.reviewService.RejectLine(
		c.Request.Context(),
		c.Param("programme_id"),
		c.Param("line_id"),
		req.Reason,
		req.ReviewerRef,
	)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    DecisionResponse{Line: line, Snapshot: snapshot},
	})
}

// FinalizeClaim handles POST /api/programmes/:programme_id/claim/finalize
func (h *Handlers) FinalizeClaim(c *gin.Context) {
	claim, snapshot, err := h.reviewService.FinalizeClaim(c.Request.Context(), c.Param("programme_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    FinalizeResponse{Claim: claim, Snapshot: snapshot},
	})
}

// ExportStatement handles GET /api/programmes/:programme_id/claim/statement
func (h *Handlers) ExportStatement(c *gin.Context) {
	programmeID := c.Param("programme_id")

	claim, ledger, err := h.claimService.GetClaim(c.Request.Context(), programmeID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	filename := "claim-" + programmeID + ".xlsx"
	path := filepath.Join(h.statementDir, filename)
	if err := h.exporter.ExportClaim(claim, ledger, path); err != nil {
		h.logger.Error("Failed to export statement", "error", err, "programme_id", programmeID)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to export statement"})
		return
	}

	c.FileAttachment(path, filename)
}

// respondError maps the engine's error taxonomy to HTTP status codes
func (h *Handlers) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, reconcile.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, reconcile.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, reconcile.ErrInvalidTransition), errors.Is(err, reconcile.ErrNoApprovedItems), errors.Is(err, reconcile.ErrConcurrencyConflict):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", "error", err, "path", c.Request.URL.Path)
	}
	c.JSON(status, Response{Success: false, Error: err.Error()})
}
