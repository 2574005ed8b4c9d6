package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/ipsas_ledger/internal/core/domain"
)

// JournalReader defines read operations for journal entries
type JournalReader interface {
	// FindEntryByID retrieves an entry with its lines ordered by line number.
	FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error)

	// ListApprovals returns every approve/reject decision recorded on the entry, oldest first.
	ListApprovals(ctx context.Context, entryID string) ([]domain.ApprovalRecord, error)

	// FindEntriesByReference returns entries whose ReferenceNumber equals referenceNumber.
	FindEntriesByReference(ctx context.Context, referenceNumber string) ([]domain.JournalEntry, error)

	// CountNonTerminalEntries counts entries dated within [start, end] that are not posted, rejected or cancelled.
	CountNonTerminalEntries(ctx context.Context, start, end time.Time) (int, error)
}

// JournalWriter defines write operations for journal entries
type JournalWriter interface {
	// SaveEntry persists a new draft entry and its lines.
	SaveEntry(ctx context.Context, entry domain.JournalEntry) error

	// ReplaceDraft overwrites the header and lines of an entry that is still a draft.
	// Returns apperrors.ErrStaleState if the stored entry is no longer a draft.
	ReplaceDraft(ctx context.Context, entry domain.JournalEntry) error

	// UpdateEntryStatus applies a compare-and-set status transition and, when present,
	// records the approval decision in the same write.
	// Returns apperrors.ErrStaleState if the entry is not in change.From.
	UpdateEntryStatus(ctx context.Context, change domain.StatusChange) error
}

// EntryNumberAllocator hands out entry numbers from an atomic per-month counter.
type EntryNumberAllocator interface {
	NextEntryNumber(ctx context.Context, entryDate time.Time) (string, error)
}

// JournalRepositoryFacade combines all journal-related repository interfaces
type JournalRepositoryFacade interface {
	JournalReader
	JournalWriter
	EntryNumberAllocator
}
