package submission

import (
	"context"
	"time"
)

// RecordType is the record type exported by the default registry.
const RecordType = "submissions"

// Submission is one survey submission supplied to an export run.
// The static fields are exported as-is; Data holds the JSON-encoded answers
// keyed by question name and may be empty or malformed.
type Submission struct {
	// Identity
	ID       int64  `json:"id"`
	FormID   int64  `json:"formId"`
	ParentID *int64 `json:"parentId,omitempty"` // Parent submission for nested forms

	// Completion
	IsComplete  bool       `json:"isComplete"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`

	// Answers
	Data string `json:"data"` // JSON object keyed by question name
}

// Query defines filter parameters for selecting submissions to export.
type Query struct {
	FormID        int64      `json:"form_id,omitempty"`        // Required for exports, 0 matches all forms
	CompletedOnly bool       `json:"completed_only,omitempty"` // Skip drafts
	Since         *time.Time `json:"since,omitempty"`          // Inclusive lower bound on created_at
	Until         *time.Time `json:"until,omitempty"`          // Exclusive upper bound on created_at

	// Pagination
	Limit  int `json:"limit,omitempty"`  // 0 means unlimited
	Offset int `json:"offset,omitempty"` // Skip N submissions
}

// Storage defines the interface for submission storage backends.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Store persists a submission, replacing any existing row with the same ID.
	Store(ctx context.Context, s *Submission) error

	// StoreBatch persists submissions atomically where the backend allows.
	StoreBatch(ctx context.Context, subs []*Submission) error

	// QueryStream returns submissions matching the query ordered by ID.
	//
	// Returns:
	//   - rowsCh: Channel of submissions (buffered)
	//   - errCh: Channel for errors (buffered, max 1 error)
	//   - error: Immediate error (e.g., invalid query)
	//
	// Both channels are closed when the query completes or fails. Callers
	// should drain rowsCh and then read errCh.
	QueryStream(ctx context.Context, query *Query) (<-chan *Submission, <-chan error, error)

	// Count returns the number of submissions matching the query.
	Count(ctx context.Context, query *Query) (int64, error)

	// Close releases any resources held by the backend.
	Close() error
}
