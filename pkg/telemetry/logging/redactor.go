package logging

import (
	"log/slog"
	"net/url"
	"strings"
)

// RedactedQuery replaces the query string of logged URLs.
const RedactedQuery = "REDACTED"

// RedactURL removes the query string and user info from an http(s) URL.
// Blob URLs carry access signatures in the query. Other strings are
// returned unchanged.
func RedactURL(raw string) string {
	if !looksLikeURL(raw) {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	if u.RawQuery == "" && u.User == nil {
		return raw
	}
	u.User = nil
	if u.RawQuery != "" {
		u.RawQuery = RedactedQuery
	}
	return u.String()
}

func looksLikeURL(s string) bool {
	return strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://")
}

// redactAttr is a slog ReplaceAttr hook that redacts URL-valued attributes,
// including URLs embedded in error messages.
func redactAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		s := a.Value.String()
		if strings.Contains(s, "http") && strings.Contains(s, "?") {
			return slog.String(a.Key, redactText(s))
		}
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			s := err.Error()
			if strings.Contains(s, "http") && strings.Contains(s, "?") {
				return slog.String(a.Key, redactText(s))
			}
		}
	}
	return a
}

// redactText redacts every whitespace-separated URL in s.
func redactText(s string) string {
	fields := strings.Fields(s)
	changed := false
	for i, f := range fields {
		trimmed := strings.Trim(f, `"'(),;:`)
		if r := RedactURL(trimmed); r != trimmed {
			fields[i] = strings.Replace(f, trimmed, r, 1)
			changed = true
		}
	}
	if !changed {
		return s
	}
	return strings.Join(fields, " ")
}
