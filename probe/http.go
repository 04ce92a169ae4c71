package probe

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// DefaultHTTPTimeout matches the request timeout most HTTP stacks
	// default to.
	DefaultHTTPTimeout = 60 * time.Second

	maxBodySize = 64 << 10
)

// BodyChecker validates response bodies of captive portal style endpoints.
type BodyChecker interface {
	CheckContains(ctx context.Context, url, expected string) bool
	CheckEquals(ctx context.Context, url, expected string) bool
}

// HTTPChecker implements BodyChecker with a plain GET request that
// bypasses HTTP caches.
type HTTPChecker struct {
	Client *http.Client
}

// NewHTTPChecker returns a checker with DefaultHTTPTimeout.
func NewHTTPChecker() *HTTPChecker {
	return &HTTPChecker{
		Client: &http.Client{Timeout: DefaultHTTPTimeout},
	}
}

// CheckContains reports whether the body of url contains expected.
func (h *HTTPChecker) CheckContains(ctx context.Context, url, expected string) bool {
	body, ok := h.fetch(ctx, url)
	return ok && strings.Contains(body, expected)
}

// CheckEquals reports whether the body of url, with surrounding white
// space removed, equals expected.
func (h *HTTPChecker) CheckEquals(ctx context.Context, url, expected string) bool {
	body, ok := h.fetch(ctx, url)
	return ok && strings.TrimSpace(body) == expected
}

// Check dispatches to CheckContains or CheckEquals.
func Check(ctx context.Context, c BodyChecker, url string, v Validator) bool {
	switch v.Match {
	case Equals:
		return c.CheckEquals(ctx, url, v.Expected)
	default:
		return c.CheckContains(ctx, url, v.Expected)
	}
}

func (h *HTTPChecker) fetch(ctx context.Context, url string) (string, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", false
	}
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")

	client := h.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultHTTPTimeout}
	}

	res, err := client.Do(req)
	if err != nil {
		return "", false
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, maxBodySize))
	if err != nil {
		return "", false
	}
	if len(data) == maxBodySize {
		data = trimPartialRune(data)
	}
	if !utf8.Valid(data) {
		return "", false
	}
	return string(data), true
}

// trimPartialRune drops an incomplete rune cut off at the end of data.
func trimPartialRune(data []byte) []byte {
	for i := len(data) - 1; i >= 0 && i >= len(data)-utf8.UTFMax; i-- {
		if utf8.RuneStart(data[i]) {
			if !utf8.FullRune(data[i:]) {
				return data[:i]
			}
			break
		}
	}
	return data
}
