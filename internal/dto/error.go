package dto

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
	// Rule names the violated entry rule for validation failures.
	Rule string `json:"rule,omitempty"`
	// Lines are the 1-based entry lines at fault.
	Lines []int `json:"lines,omitempty"`
	// Reason classifies posting and workflow refusals.
	Reason string `json:"reason,omitempty"`
}
