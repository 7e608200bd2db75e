package pda

// Public mirrors of the kernel's outcome types. No internal package leaks
// through this surface; embedders depend only on what is declared here.

// Stage names the pipeline stage that produced a rejection.
type Stage string

const (
	StageValidate Stage = "validate"
	StageCompile  Stage = "compile"
	StageLease    Stage = "lease"
	StageExecute  Stage = "execute"
)

// TrustSnapshot is the read-only trust view supplied to the kernel.
type TrustSnapshot struct {
	TrustScore      float64 `json:"trust_score"`
	MinimumRequired float64 `json:"minimum_required"`
}

// Rejection is a typed refusal with a stable error code. Line and Column
// are set for validation failures only.
type Rejection struct {
	Stage   Stage  `json:"stage"`
	Code    string `json:"error_code"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// Lease is the issued execution authority for one task.
type Lease struct {
	TaskID    string `json:"task_id"`
	IssuedAt  int64  `json:"issued_at"`
	ExpiresAt int64  `json:"expires_at"`
	Signature []byte `json:"signature"`
}

// SearchMatch is one search hit.
type SearchMatch struct {
	ID         string `json:"id"`
	MatchField string `json:"match_field"`
	Snippet    string `json:"match_snippet"`
}

// SearchResult is the payload of a successful search.
type SearchResult struct {
	Results   []SearchMatch `json:"results"`
	Count     int           `json:"count"`
	Truncated bool          `json:"truncated"`
}

// ResultError is the structured error of a failed execution.
type ResultError struct {
	Code    string `json:"error_code"`
	Message string `json:"message"`
}

// Result is a signed execution result. Exactly one of Summary (with the
// optional Search payload) and Error is populated.
type Result struct {
	Status       string            `json:"status"`
	Summary      map[string]string `json:"summary,omitempty"`
	UndoMetadata map[string]string `json:"undo_metadata,omitempty"`
	Search       *SearchResult     `json:"search,omitempty"`
	Error        *ResultError      `json:"error,omitempty"`
	Signature    []byte            `json:"signature"`
}

// Outcome reports one statement's journey through the pipeline. Rejection
// and Result are mutually exclusive.
type Outcome struct {
	TaskID       string     `json:"task_id,omitempty"`
	CapabilityID string     `json:"capability_id,omitempty"`
	Lease        *Lease     `json:"lease,omitempty"`
	Rejection    *Rejection `json:"rejection,omitempty"`
	Result       *Result    `json:"result,omitempty"`
}

// SubmitRequest is one statement submission.
type SubmitRequest struct {
	// Text is the DSL statement, UTF-8, one statement per invocation.
	Text string
	// Supplements carry capability inputs the statement cannot express
	// (destination_path, query, max_results, ...), copied verbatim.
	Supplements map[string]string
	// HRCToken is an optional signed confirmation JWT from the confirmer
	// device.
	HRCToken string
	// Now overrides the evaluation time in milliseconds since the epoch;
	// zero means the kernel's clock (wall clock unless WithClock is set).
	Now int64
}
