package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrForbidden indicates that the acting user lacks the capability for an action.
var ErrForbidden = errors.New("forbidden")

// ErrReferenced indicates that a resource cannot be removed because posted data references it.
var ErrReferenced = errors.New("resource is referenced by posted data")

// ErrWorkflow is the sentinel behind every WorkflowError.
var ErrWorkflow = errors.New("workflow error")

// ErrPosting is the sentinel behind every PostingError.
var ErrPosting = errors.New("posting error")

// ErrConsistency is the sentinel behind every ConsistencyError.
var ErrConsistency = errors.New("ledger consistency error")

// ErrStaleState is returned by stores when a compare-and-set status update
// finds the row in a different state than expected.
var ErrStaleState = errors.New("state changed concurrently")

// ErrPeriodNotOpen is returned by the period gates when a date or period does not accept postings.
var ErrPeriodNotOpen = errors.New("period not open")

// ErrAccountInactive is returned by stores when a balance change targets an inactive account.
var ErrAccountInactive = errors.New("account is inactive")

// AppError wraps infrastructure failures with a status code suitable for the API boundary.
type AppError struct {
	Code    int
	Message string
	Err     error
}

// NewAppError creates an AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// ValidationRule names the journal entry rule that a candidate entry violated.
type ValidationRule string

const (
	RuleNoLines          ValidationRule = "no_lines"
	RuleLineAmounts      ValidationRule = "line_amounts"
	RuleAmountScale      ValidationRule = "amount_scale"
	RuleUnknownAccount   ValidationRule = "unknown_account"
	RuleInactiveAccount  ValidationRule = "inactive_account"
	RuleUnbalanced       ValidationRule = "unbalanced"
	RuleFiscalPeriod     ValidationRule = "fiscal_period_range"
	RulePeriodNotOpen    ValidationRule = "period_not_open"
	RulePeriodMismatch   ValidationRule = "fiscal_period_mismatch"
	RuleMissingEntryDate ValidationRule = "missing_entry_date"
	RuleReversalLines    ValidationRule = "reversal_lines_fixed"
)

// ValidationError reports a structural or monetary rule violated by a candidate entry.
// Lines holds the 1-based line numbers at fault, if any.
type ValidationError struct {
	Rule    ValidationRule
	Lines   []int
	Message string
}

func (e *ValidationError) Error() string {
	if len(e.Lines) == 0 {
		return fmt.Sprintf("validation failed [%s]: %s", e.Rule, e.Message)
	}
	nums := make([]string, len(e.Lines))
	for i, n := range e.Lines {
		nums[i] = fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("validation failed [%s]: %s (lines %s)", e.Rule, e.Message, strings.Join(nums, ","))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError builds a ValidationError.
func NewValidationError(rule ValidationRule, message string, lines ...int) *ValidationError {
	return &ValidationError{Rule: rule, Lines: lines, Message: message}
}

// WorkflowErrorKind classifies a rejected workflow transition.
type WorkflowErrorKind string

const (
	KindIllegalTransition WorkflowErrorKind = "illegal_transition"
	KindForbidden         WorkflowErrorKind = "forbidden"
	KindNotAuthor         WorkflowErrorKind = "not_author"
	KindPendingEntries    WorkflowErrorKind = "pending_entries"
)

// WorkflowError reports an illegal state transition or insufficient capability.
type WorkflowError struct {
	Kind    WorkflowErrorKind
	Subject string // entry id or period key
	From    string
	To      string
	ActorID string
	Message string
}

func (e *WorkflowError) Error() string {
	switch e.Kind {
	case KindIllegalTransition:
		return fmt.Sprintf("illegal transition for %s: %s -> %s", e.Subject, e.From, e.To)
	case KindForbidden:
		return fmt.Sprintf("actor %s is not permitted to %s %s", e.ActorID, e.Message, e.Subject)
	default:
		return fmt.Sprintf("workflow error for %s: %s", e.Subject, e.Message)
	}
}

func (e *WorkflowError) Unwrap() []error {
	if e.Kind == KindForbidden || e.Kind == KindNotAuthor {
		return []error{ErrWorkflow, ErrForbidden}
	}
	return []error{ErrWorkflow}
}

// IllegalTransition builds the WorkflowError for a transition the state machine does not allow.
func IllegalTransition(subject, from, to string) *WorkflowError {
	return &WorkflowError{Kind: KindIllegalTransition, Subject: subject, From: from, To: to}
}

// Forbidden builds the WorkflowError for an actor lacking a capability.
func Forbidden(subject, actorID, action string) *WorkflowError {
	return &WorkflowError{Kind: KindForbidden, Subject: subject, ActorID: actorID, Message: action}
}

// PostingReason classifies why a post attempt failed.
type PostingReason string

const (
	ReasonAlreadyPosted   PostingReason = "already posted"
	ReasonNotApproved     PostingReason = "not in approved state"
	ReasonPeriodClosed    PostingReason = "period not open"
	ReasonAccountInactive PostingReason = "account inactive"
	ReasonAccountMissing  PostingReason = "account missing"
	ReasonAborted         PostingReason = "aborted"
	ReasonLock            PostingReason = "posting lock unavailable"
	ReasonStore           PostingReason = "store failure"
)

// PostingError reports a failed post. Nothing from the attempt was applied.
type PostingError struct {
	EntryID       string
	Reason        PostingReason
	LineNumber    int
	AccountNumber string
	Err           error
}

func (e *PostingError) Error() string {
	msg := fmt.Sprintf("posting entry %s failed: %s", e.EntryID, e.Reason)
	if e.LineNumber > 0 {
		msg += fmt.Sprintf(" (line %d, account %s)", e.LineNumber, e.AccountNumber)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PostingError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrPosting}
	}
	return []error{ErrPosting, e.Err}
}

// ConsistencyError reports a ledger integrity defect, such as a trial balance that does not foot.
// It is never auto-corrected.
type ConsistencyError struct {
	FiscalYear   int
	FiscalPeriod int
	Debits       string
	Credits      string
	Message      string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("ledger consistency failure for %d/%02d: %s (debits %s, credits %s)",
		e.FiscalYear, e.FiscalPeriod, e.Message, e.Debits, e.Credits)
}

func (e *ConsistencyError) Unwrap() error {
	return ErrConsistency
}
