package logging

import (
	"log/slog"
	"net/http"
	"regexp"
	"strings"
)

// Redacted replaces masked values.
const Redacted = "[REDACTED]"

var bearerPattern = regexp.MustCompile(`(?i)bearer\s+[a-z0-9\-._~+/]+=*`)

// Redactor masks sensitive log values.
type Redactor struct {
	keys map[string]struct{}
}

// NewRedactor creates a redactor masking the given keys. Header names and
// attribute keys are compared case-insensitively.
func NewRedactor(keys []string) *Redactor {
	r := &Redactor{keys: make(map[string]struct{}, len(keys))}
	for _, k := range keys {
		r.keys[normalizeKey(k)] = struct{}{}
	}
	return r
}

// Sensitive reports whether values stored under key are masked.
func (r *Redactor) Sensitive(key string) bool {
	_, ok := r.keys[normalizeKey(key)]
	return ok
}

// RedactAttr masks the attribute if its key is sensitive and scrubs bearer
// tokens from string values.
func (r *Redactor) RedactAttr(a slog.Attr) slog.Attr {
	if r.Sensitive(a.Key) {
		return slog.String(a.Key, Redacted)
	}
	if a.Value.Kind() == slog.KindString {
		if s := a.Value.String(); bearerPattern.MatchString(s) {
			return slog.String(a.Key, bearerPattern.ReplaceAllString(s, "Bearer "+Redacted))
		}
	}
	return a
}

// RedactHeaders flattens headers for logging with sensitive values masked.
func (r *Redactor) RedactHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for name, values := range h {
		if r.Sensitive(name) {
			out[name] = Redacted
			continue
		}
		out[name] = strings.Join(values, ", ")
	}
	return out
}

func normalizeKey(k string) string {
	return strings.ReplaceAll(strings.ToLower(k), "_", "-")
}
