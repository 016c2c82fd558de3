package ingest

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/goccy/go-json"

	"mercator-hq/harvest/pkg/submission"
)

const (
	// DefaultBatchSize is the number of submissions stored per batch.
	DefaultBatchSize = 500

	// MaxLineSize bounds a single JSON line.
	MaxLineSize = 16 << 20
)

// Result summarizes a load.
type Result struct {
	Stored   int `json:"stored"`
	Rejected int `json:"rejected"`
}

// record is the wire form of a submission line.
type record struct {
	ID          int64           `json:"id"`
	FormID      int64           `json:"formId"`
	ParentID    *int64          `json:"parentId"`
	IsComplete  bool            `json:"isComplete"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	CompletedAt *time.Time      `json:"completedAt"`
	Data        json.RawMessage `json:"data"`
}

// Loader stores decoded submissions in batches.
type Loader struct {
	store     submission.Storage
	batchSize int
	logger    *slog.Logger
}

// NewLoader creates a loader. A batchSize of zero uses DefaultBatchSize.
func NewLoader(store submission.Storage, batchSize int) *Loader {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Loader{
		store:     store,
		batchSize: batchSize,
		logger:    slog.Default().With("component", "submission.ingest"),
	}
}

// Load reads JSON lines from r until EOF. Storage and read errors stop the
// load; the returned result counts what was stored before the failure.
func (l *Loader) Load(ctx context.Context, r io.Reader) (*Result, error) {
	result := &Result{}
	batch := make([]*submission.Submission, 0, l.batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := l.store.StoreBatch(ctx, batch); err != nil {
			return err
		}
		result.Stored += len(batch)
		batch = batch[:0]
		return nil
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)

	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return result, err
		}

		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}

		sub, err := Decode(text)
		if err != nil {
			result.Rejected++
			l.logger.Warn("rejected submission line", "line", line, "error", err)
			continue
		}

		batch = append(batch, sub)
		if len(batch) >= l.batchSize {
			if err := flush(); err != nil {
				return result, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return result, fmt.Errorf("failed to read line %d: %w", line+1, err)
	}
	if err := flush(); err != nil {
		return result, err
	}

	l.logger.Info("submissions loaded",
		"stored", result.Stored,
		"rejected", result.Rejected,
	)
	return result, nil
}

// Decode parses a single submission line.
func Decode(line []byte) (*submission.Submission, error) {
	var rec record
	if err := json.Unmarshal(line, &rec); err != nil {
		return nil, fmt.Errorf("invalid submission: %w", err)
	}
	if rec.ID <= 0 {
		return nil, fmt.Errorf("invalid submission: id must be positive")
	}
	if rec.FormID <= 0 {
		return nil, fmt.Errorf("invalid submission %d: formId must be positive", rec.ID)
	}

	data, err := decodeData(rec.Data)
	if err != nil {
		return nil, fmt.Errorf("invalid submission %d: %w", rec.ID, err)
	}

	return &submission.Submission{
		ID:          rec.ID,
		FormID:      rec.FormID,
		ParentID:    rec.ParentID,
		IsComplete:  rec.IsComplete,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
		CompletedAt: rec.CompletedAt,
		Data:        data,
	}, nil
}

// decodeData returns the answers as stored text. Strings are unquoted so a
// pre-encoded blob (even a malformed one) is kept verbatim.
func decodeData(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return "", err
	}
	return buf.String(), nil
}
