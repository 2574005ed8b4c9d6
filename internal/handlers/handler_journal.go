package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/ipsas_ledger/internal/core/ports/services"
	"github.com/SscSPs/ipsas_ledger/internal/dto"
	"github.com/SscSPs/ipsas_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// journalHandler handles HTTP requests for journal entries and their workflow.
type journalHandler struct {
	journalService portssvc.JournalSvcFacade
}

// newJournalHandler creates a new journalHandler.
func newJournalHandler(journalService portssvc.JournalSvcFacade) *journalHandler {
	return &journalHandler{
		journalService: journalService,
	}
}

// RegisterEntryRoutes registers routes related to journal entries.
func RegisterEntryRoutes(rg *gin.RouterGroup, journalService portssvc.JournalSvcFacade) {
	h := newJournalHandler(journalService)

	entries := rg.Group("/entries")
	{
		entries.POST("", h.createDraft)
		entries.POST("/validate", h.validateEntry)
		entries.GET("/:id", h.getEntry)
		entries.PUT("/:id", h.updateDraft)
		entries.POST("/:id/submit", h.submitEntry)
		entries.POST("/:id/approve", h.approveEntry)
		entries.POST("/:id/post", h.postEntry)
		entries.POST("/:id/cancel", h.cancelEntry)
		entries.POST("/:id/reverse", h.reverseEntry)
	}
}

// createDraft godoc
// @Summary Create a draft journal entry
// @Description Saves a new entry in DRAFT status. It is validated again on submission.
// @Tags entries
// @Accept  json
// @Produce  json
// @Param   entry body dto.EntryRequest true "Entry header and lines"
// @Success 201 {object} dto.EntryResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 422 {object} dto.ErrorResponse "Entry failed validation"
// @Failure 500 {object} dto.ErrorResponse "Failed to create entry"
// @Security BearerAuth
// @Router /entries [post]
func (h *journalHandler) createDraft(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.EntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format", err)
		return
	}
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	entry, err := h.journalService.CreateDraft(c.Request.Context(), req, actor)
	if err != nil {
		respondError(c, err, "Failed to create entry")
		return
	}

	logger.Info("Draft entry created", slog.String("entry_id", entry.EntryID), slog.String("entry_number", entry.EntryNumber))
	c.JSON(http.StatusCreated, dto.ToEntryResponse(entry))
}

// updateDraft godoc
// @Summary Update a draft journal entry
// @Description Replaces the header and lines of an entry that is still a draft
// @Tags entries
// @Accept  json
// @Produce  json
// @Param   id path string true "Entry ID"
// @Param   entry body dto.EntryRequest true "Entry header and lines"
// @Success 200 {object} dto.EntryResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Entry not found"
// @Failure 409 {object} dto.ErrorResponse "Entry is no longer a draft"
// @Failure 500 {object} dto.ErrorResponse "Failed to update entry"
// @Security BearerAuth
// @Router /entries/{id} [put]
func (h *journalHandler) updateDraft(c *gin.Context) {
	var req dto.EntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format", err)
		return
	}
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	entry, err := h.journalService.UpdateDraft(c.Request.Context(), c.Param("id"), req, actor)
	if err != nil {
		respondError(c, err, "Failed to update entry")
		return
	}
	c.JSON(http.StatusOK, dto.ToEntryResponse(entry))
}

// getEntry godoc
// @Summary Get a journal entry
// @Description Retrieves an entry with its lines ordered by line number
// @Tags entries
// @Produce  json
// @Param   id path string true "Entry ID"
// @Success 200 {object} dto.EntryResponse
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "Entry not found"
// @Failure 500 {object} dto.ErrorResponse "Failed to retrieve entry"
// @Security BearerAuth
// @Router /entries/{id} [get]
func (h *journalHandler) getEntry(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	entry, err := h.journalService.GetEntry(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		respondError(c, err, "Failed to retrieve entry")
		return
	}
	c.JSON(http.StatusOK, dto.ToEntryResponse(entry))
}

// validateEntry godoc
// @Summary Validate a candidate journal entry
// @Description Runs the entry rules without saving anything
// @Tags entries
// @Accept  json
// @Produce  json
// @Param   entry body dto.EntryRequest true "Candidate entry"
// @Success 200 {object} dto.ValidationResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 422 {object} dto.ErrorResponse "Entry failed validation"
// @Failure 500 {object} dto.ErrorResponse "Failed to validate entry"
// @Security BearerAuth
// @Router /entries/validate [post]
func (h *journalHandler) validateEntry(c *gin.Context) {
	var req dto.EntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format", err)
		return
	}
	if _, ok := requireActor(c); !ok {
		return
	}

	candidate := req.ToCandidate()
	if err := h.journalService.Validate(c.Request.Context(), candidate); err != nil {
		respondError(c, err, "Failed to validate entry")
		return
	}

	debits, credits := candidate.Sums()
	c.JSON(http.StatusOK, dto.ValidationResponse{Valid: true, TotalDebits: debits, TotalCredits: credits})
}

// submitEntry godoc
// @Summary Submit an entry for approval
// @Description Validates a draft and moves it to PENDING. Only the author may submit.
// @Tags entries
// @Produce  json
// @Param   id path string true "Entry ID"
// @Success 200 {object} dto.StatusResponse
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Not the author"
// @Failure 404 {object} dto.ErrorResponse "Entry not found"
// @Failure 409 {object} dto.ErrorResponse "Illegal transition"
// @Failure 422 {object} dto.ErrorResponse "Entry failed validation"
// @Failure 500 {object} dto.ErrorResponse "Failed to submit entry"
// @Security BearerAuth
// @Router /entries/{id}/submit [post]
func (h *journalHandler) submitEntry(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	entryID := c.Param("id")

	status, err := h.journalService.Submit(c.Request.Context(), entryID, actor)
	if err != nil {
		respondError(c, err, "Failed to submit entry")
		return
	}
	c.JSON(http.StatusOK, dto.StatusResponse{EntryID: entryID, Status: status})
}

// approveEntry godoc
// @Summary Approve or reject a pending entry
// @Tags entries
// @Accept  json
// @Produce  json
// @Param   id path string true "Entry ID"
// @Param   decision body dto.ApproveEntryRequest true "Decision"
// @Success 200 {object} dto.StatusResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Entry not found"
// @Failure 409 {object} dto.ErrorResponse "Illegal transition"
// @Failure 500 {object} dto.ErrorResponse "Failed to record decision"
// @Security BearerAuth
// @Router /entries/{id}/approve [post]
func (h *journalHandler) approveEntry(c *gin.Context) {
	var req dto.ApproveEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format", err)
		return
	}
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	entryID := c.Param("id")

	status, err := h.journalService.Approve(c.Request.Context(), entryID, actor, req.Decision, req.Comments)
	if err != nil {
		respondError(c, err, "Failed to record decision")
		return
	}
	c.JSON(http.StatusOK, dto.StatusResponse{EntryID: entryID, Status: status})
}

// postEntry godoc
// @Summary Post an approved entry
// @Description Applies every line of an approved entry to account balances in one transaction
// @Tags entries
// @Produce  json
// @Param   id path string true "Entry ID"
// @Success 200 {object} dto.PostedReceiptResponse
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Entry not found"
// @Failure 409 {object} dto.ErrorResponse "Entry cannot be posted"
// @Failure 500 {object} dto.ErrorResponse "Posting failed"
// @Failure 503 {object} dto.ErrorResponse "Posting aborted or lock unavailable"
// @Security BearerAuth
// @Router /entries/{id}/post [post]
func (h *journalHandler) postEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	receipt, err := h.journalService.Post(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		respondError(c, err, "Posting failed")
		return
	}

	logger.Info("Entry posted via API", slog.String("entry_id", receipt.EntryID), slog.String("entry_number", receipt.EntryNumber))
	c.JSON(http.StatusOK, dto.ToPostedReceiptResponse(receipt))
}

// cancelEntry godoc
// @Summary Cancel an entry
// @Description Cancels an entry that has not been posted
// @Tags entries
// @Accept  json
// @Produce  json
// @Param   id path string true "Entry ID"
// @Param   reason body dto.CancelEntryRequest false "Cancellation reason"
// @Success 200 {object} dto.StatusResponse
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Entry not found"
// @Failure 409 {object} dto.ErrorResponse "Illegal transition"
// @Failure 500 {object} dto.ErrorResponse "Failed to cancel entry"
// @Security BearerAuth
// @Router /entries/{id}/cancel [post]
func (h *journalHandler) cancelEntry(c *gin.Context) {
	var req dto.CancelEntryRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request format", err)
			return
		}
	}
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	entryID := c.Param("id")

	status, err := h.journalService.Cancel(c.Request.Context(), entryID, actor, req.Reason)
	if err != nil {
		respondError(c, err, "Failed to cancel entry")
		return
	}
	c.JSON(http.StatusOK, dto.StatusResponse{EntryID: entryID, Status: status})
}

// reverseEntry godoc
// @Summary Reverse a posted entry
// @Description Creates a new draft with debits and credits swapped, referencing the original entry number
// @Tags entries
// @Accept  json
// @Produce  json
// @Param   id path string true "Entry ID"
// @Param   reversal body dto.ReverseEntryRequest true "Reversal date and description"
// @Success 201 {object} dto.EntryResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Entry not found"
// @Failure 409 {object} dto.ErrorResponse "Entry cannot be reversed"
// @Failure 500 {object} dto.ErrorResponse "Failed to reverse entry"
// @Security BearerAuth
// @Router /entries/{id}/reverse [post]
func (h *journalHandler) reverseEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.ReverseEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format", err)
		return
	}
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	entryID := c.Param("id")

	reversal, err := h.journalService.Reverse(c.Request.Context(), entryID, actor, req.ReverseDate, req.Description)
	if err != nil {
		respondError(c, err, "Failed to reverse entry")
		return
	}

	logger.Info("Reversing entry drafted", slog.String("original_entry_id", entryID), slog.String("reversal_entry_id", reversal.EntryID))
	c.JSON(http.StatusCreated, dto.ToEntryResponse(reversal))
}
