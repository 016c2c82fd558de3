// Harvest exports survey submissions to CSV and JSON.
//
// Rows stream from the submission store into the export format without
// buffering the result set. Storage URLs embedded in answers are rewritten
// to hub-relative URLs scoped to the owning form and submission.
//
// Usage:
//
//	# Load submissions from a JSON-lines file
//	harvest ingest --file submissions.jsonl
//
//	# Export one form to exports/submissions-7.csv
//	harvest export --form-id 7
//
//	# Export completed submissions as JSON to stdout
//	harvest export --form-id 7 --format json --completed-only --output -
//
//	# Run scheduled exports and serve /metrics, /health and /ingest
//	harvest serve --config harvest.yaml
//
//	# Show version information
//	harvest version
package main

func main() {
	Execute()
}
