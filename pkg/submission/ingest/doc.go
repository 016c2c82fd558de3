// Package ingest loads submissions into a submission.Storage from JSON
// lines, one submission object per line:
//
//	{"id":1,"formId":7,"isComplete":true,"createdAt":"2024-05-01T00:00:00Z","data":{"q1":"a"}}
//
// The data field may be a JSON object or a string holding the encoded
// object. Lines that cannot be decoded, or that lack a positive id and
// formId, are rejected and counted; the rest are stored in batches.
//
// The same loader backs "harvest ingest" and the POST /ingest endpoint of
// "harvest serve".
package ingest
