package ingest

import (
	"bufio"
	"errors"
	"net/http"

	"github.com/goccy/go-json"
)

// Recorder receives ingest counts. metrics.Collector implements it.
type Recorder interface {
	RecordIngest(stored, rejected int)
}

// MaxBodySize bounds a POST /ingest request body.
const MaxBodySize = 256 << 20

// Handler returns an HTTP handler that loads a JSON-lines request body and
// answers with the Result. recorder may be nil.
func Handler(loader *Loader, recorder Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body := http.MaxBytesReader(w, r.Body, MaxBodySize)
		result, err := loader.Load(r.Context(), body)
		if recorder != nil {
			recorder.RecordIngest(result.Stored, result.Rejected)
		}

		code := http.StatusOK
		if err != nil {
			var tooLarge *http.MaxBytesError
			switch {
			case errors.As(err, &tooLarge):
				code = http.StatusRequestEntityTooLarge
			case errors.Is(err, bufio.ErrTooLong):
				code = http.StatusBadRequest
			default:
				code = http.StatusInternalServerError
			}
			loader.logger.Error("ingest request failed", "error", err)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		resp := response{Stored: result.Stored, Rejected: result.Rejected}
		if err != nil {
			resp.Error = err.Error()
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

type response struct {
	Stored   int    `json:"stored"`
	Rejected int    `json:"rejected"`
	Error    string `json:"error,omitempty"`
}
