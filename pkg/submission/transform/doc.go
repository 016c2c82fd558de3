// Package transform defines cell value transformers and the blob-storage URL
// rewriter.
//
// A Transformer receives a cell's value and a read-only Context describing
// the owning row. It returns a replacement value, the unchanged value, or nil
// to render the cell empty. Transformers are composed into a Chain that runs
// left to right; the first error stops the chain and the cell renders as a
// sentinel.
//
// # Blob URL Rewriting
//
// BlobURLRewriter recognizes file descriptors whose "content" field holds a
// URL of the form
//
//	https://{host}/{container}/s/{formId}/{submissionId}/{fileName}[?query]
//
// and rewrites it to
//
//	{hubBase}/forms/{formId}/submissions/{submissionId}/files/{fileName}
//
// The ids in the URL only confirm the match: they must equal the row's own
// form and submission ids, so a URL copied from another submission is never
// rewritten. Matching is byte-level, case-sensitive and allocation free until
// a replacement is built. The rewriter never returns an error; anything it
// cannot recognize is returned unchanged.
package transform
