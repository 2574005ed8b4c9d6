package services

import (
	"context"
	"time"

	"github.com/SscSPs/ipsas_ledger/internal/core/domain"
	"github.com/SscSPs/ipsas_ledger/internal/dto"
)

// EntryValidatorSvc checks a candidate entry without changing any state.
type EntryValidatorSvc interface {
	// Validate returns nil or an *apperrors.ValidationError naming the first violated rule.
	Validate(ctx context.Context, entry domain.JournalEntry) error
}

// EntryAuthoringSvc defines draft authoring operations
type EntryAuthoringSvc interface {
	CreateDraft(ctx context.Context, req dto.EntryRequest, actor domain.Actor) (*domain.JournalEntry, error)
	UpdateDraft(ctx context.Context, entryID string, req dto.EntryRequest, actor domain.Actor) (*domain.JournalEntry, error)
	GetEntry(ctx context.Context, entryID string, actor domain.Actor) (*domain.JournalEntry, error)
}

// WorkflowSvc drives an entry through its approval states.
type WorkflowSvc interface {
	Submit(ctx context.Context, entryID string, actor domain.Actor) (domain.EntryStatus, error)
	Approve(ctx context.Context, entryID string, actor domain.Actor, decision domain.ApprovalAction, comments string) (domain.EntryStatus, error)
	Cancel(ctx context.Context, entryID string, actor domain.Actor, reason string) (domain.EntryStatus, error)

	// Reverse creates a new draft reversing entry for a posted entry. The original is not touched.
	Reverse(ctx context.Context, entryID string, actor domain.Actor, reverseDate time.Time, description string) (*domain.JournalEntry, error)
}

// PostingSvc atomically applies an approved entry to account balances.
type PostingSvc interface {
	Post(ctx context.Context, entryID string, actor domain.Actor) (*domain.PostedReceipt, error)
}

// JournalSvcFacade combines all journal-related service interfaces
type JournalSvcFacade interface {
	EntryValidatorSvc
	EntryAuthoringSvc
	WorkflowSvc
	PostingSvc
}
