package transform

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/ohler55/ojg/oj"

	"mercator-hq/harvest/pkg/submission/jsonnode"
)

// StorageRule identifies a blob-storage location whose URLs may be rewritten.
type StorageRule struct {
	// Host is the storage account host, e.g. "acct.blob.core.windows.net".
	Host string `yaml:"host"`

	// Container is the container name following the host.
	Container string `yaml:"container"`
}

const (
	httpsScheme = "https://"
	httpScheme  = "http://"

	// blobMarker separates the container from the form/submission path.
	blobMarker = "/s/"

	contentField = "content"
)

// BlobURLRewriter rewrites blob-storage file URLs to hub-relative URLs.
// It holds only immutable configuration and is safe to share between
// concurrent export runs.
type BlobURLRewriter struct {
	hubBase string
	rules   []StorageRule
}

// NewBlobURLRewriter creates a rewriter for the given hub base URL and
// storage rules. Rules with a blank host or container are ignored. A
// rewriter without a hub base or without rules passes every value through.
func NewBlobURLRewriter(hubBase string, rules []StorageRule) *BlobURLRewriter {
	r := &BlobURLRewriter{
		hubBase: strings.TrimRight(strings.TrimSpace(hubBase), "/"),
	}
	for _, rule := range rules {
		host := strings.TrimSpace(rule.Host)
		container := strings.Trim(strings.TrimSpace(rule.Container), "/")
		if host == "" || container == "" {
			continue
		}
		r.rules = append(r.rules, StorageRule{Host: host, Container: container})
	}
	return r
}

// Enabled reports whether the rewriter can rewrite anything.
func (r *BlobURLRewriter) Enabled() bool {
	return r != nil && r.hubBase != "" && len(r.rules) > 0
}

// Transform rewrites file descriptor URLs in value. Supported shapes are a
// single object with a "content" field, an array of such objects, a string
// holding a JSON array of them, and raw JSON text. Unrecognized values are
// returned unchanged; the error is always nil.
func (r *BlobURLRewriter) Transform(tc Context, value any) (any, error) {
	if !r.Enabled() || tc.Row == nil {
		return value, nil
	}
	formID, submissionID := tc.Row.FormID, tc.Row.ID

	switch v := value.(type) {
	case map[string]any:
		if out, ok := r.rewriteObject(v, formID, submissionID); ok {
			return out, nil
		}
	case []any:
		if out, ok := r.rewriteArray(v, formID, submissionID); ok {
			return out, nil
		}
	case string:
		if out, ok := r.rewriteText(v, formID, submissionID); ok {
			return out, nil
		}
	case json.RawMessage:
		if !r.mentionsHostBytes(v) {
			return value, nil
		}
		if out, ok := r.rewriteText(string(v), formID, submissionID); ok {
			return json.RawMessage(out), nil
		}
	}
	return value, nil
}

// RewriteURL returns the hub-relative URL for raw when raw is a blob URL
// under one of the configured rules and its embedded ids equal formID and
// submissionID.
func (r *BlobURLRewriter) RewriteURL(raw string, formID, submissionID int64) (string, bool) {
	if !r.Enabled() {
		return "", false
	}
	name, ok := r.match(raw, formID, submissionID)
	if !ok {
		return "", false
	}
	return r.hubURL(formID, submissionID, name), true
}

func (r *BlobURLRewriter) hubURL(formID, submissionID int64, name string) string {
	var sb strings.Builder
	sb.Grow(len(r.hubBase) + len(name) + 64)
	sb.WriteString(r.hubBase)
	sb.WriteString("/forms/")
	sb.WriteString(strconv.FormatInt(formID, 10))
	sb.WriteString("/submissions/")
	sb.WriteString(strconv.FormatInt(submissionID, 10))
	sb.WriteString("/files/")
	sb.WriteString(name)
	return sb.String()
}

// match scans raw in place and returns the file name segment.
func (r *BlobURLRewriter) match(raw string, formID, submissionID int64) (string, bool) {
	rest, ok := stripScheme(raw)
	if !ok {
		return "", false
	}
	for _, rule := range r.rules {
		tail, ok := matchRule(rest, rule)
		if !ok {
			continue
		}
		f, s, name, ok := parseFilePath(tail)
		if !ok {
			continue
		}
		if f != formID || s != submissionID {
			continue
		}
		return name, true
	}
	return "", false
}

func stripScheme(s string) (string, bool) {
	switch {
	case strings.HasPrefix(s, httpsScheme):
		return s[len(httpsScheme):], true
	case strings.HasPrefix(s, httpScheme):
		return s[len(httpScheme):], true
	default:
		return "", false
	}
}

// matchRule consumes "{host}/{container}/s/" and returns the remainder.
func matchRule(rest string, rule StorageRule) (string, bool) {
	if !strings.HasPrefix(rest, rule.Host) {
		return "", false
	}
	rest = rest[len(rule.Host):]
	if len(rest) == 0 || rest[0] != '/' {
		return "", false
	}
	rest = rest[1:]
	if !strings.HasPrefix(rest, rule.Container) {
		return "", false
	}
	rest = rest[len(rule.Container):]
	if !strings.HasPrefix(rest, blobMarker) {
		return "", false
	}
	return rest[len(blobMarker):], true
}

// parseFilePath parses "{formId}/{submissionId}/{fileName}[?query]".
func parseFilePath(p string) (formID, submissionID int64, name string, ok bool) {
	formID, p, ok = parseIDSegment(p)
	if !ok {
		return 0, 0, "", false
	}
	submissionID, p, ok = parseIDSegment(p)
	if !ok {
		return 0, 0, "", false
	}
	name = p
	if i := strings.IndexByte(name, '?'); i >= 0 {
		name = name[:i]
	}
	if name == "" || strings.IndexByte(name, '/') >= 0 {
		return 0, 0, "", false
	}
	return formID, submissionID, name, true
}

// parseIDSegment parses a non-empty decimal segment terminated by '/'.
func parseIDSegment(p string) (int64, string, bool) {
	end := strings.IndexByte(p, '/')
	if end <= 0 {
		return 0, "", false
	}
	var n int64
	for i := 0; i < end; i++ {
		c := p[i]
		if c < '0' || c > '9' {
			return 0, "", false
		}
		d := int64(c - '0')
		if n > (math.MaxInt64-d)/10 {
			return 0, "", false
		}
		n = n*10 + d
	}
	return n, p[end+1:], true
}

func (r *BlobURLRewriter) rewriteObject(obj map[string]any, formID, submissionID int64) (map[string]any, bool) {
	content, ok := obj[contentField].(string)
	if !ok {
		return nil, false
	}
	rewritten, ok := r.RewriteURL(content, formID, submissionID)
	if !ok {
		return nil, false
	}
	out := make(map[string]any, len(obj))
	for k, v := range obj {
		out[k] = v
	}
	out[contentField] = rewritten
	return out, true
}

// rewriteArray rewrites each descriptor independently. The input is never
// modified; a copy is returned only when at least one entry changed.
func (r *BlobURLRewriter) rewriteArray(arr []any, formID, submissionID int64) ([]any, bool) {
	var out []any
	for i, entry := range arr {
		obj, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		rewritten, ok := r.rewriteObject(obj, formID, submissionID)
		if !ok {
			continue
		}
		if out == nil {
			out = make([]any, len(arr))
			copy(out, arr)
		}
		out[i] = rewritten
	}
	return out, out != nil
}

// rewriteText handles JSON-encoded descriptors held in a string. The result
// is re-encoded so the cell keeps its string shape.
func (r *BlobURLRewriter) rewriteText(s string, formID, submissionID int64) (string, bool) {
	if !r.mentionsHost(s) {
		return "", false
	}
	trimmed := strings.TrimSpace(s)
	if !jsonnode.LooksLikeJSON(trimmed) {
		return "", false
	}
	node, err := oj.ParseString(trimmed)
	if err != nil {
		return "", false
	}

	var rewritten any
	switch v := node.(type) {
	case []any:
		out, ok := r.rewriteArray(v, formID, submissionID)
		if !ok {
			return "", false
		}
		rewritten = out
	case map[string]any:
		out, ok := r.rewriteObject(v, formID, submissionID)
		if !ok {
			return "", false
		}
		rewritten = out
	default:
		return "", false
	}

	data, err := jsonnode.Encode(rewritten)
	if err != nil {
		return "", false
	}
	return string(data), true
}

func (r *BlobURLRewriter) mentionsHost(s string) bool {
	for _, rule := range r.rules {
		if strings.Contains(s, rule.Host) {
			return true
		}
	}
	return false
}

func (r *BlobURLRewriter) mentionsHostBytes(b []byte) bool {
	for _, rule := range r.rules {
		if bytes.Contains(b, []byte(rule.Host)) {
			return true
		}
	}
	return false
}
