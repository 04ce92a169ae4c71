// Package geo resolves the public IP address of this machine and the
// country it is located in.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultIPURL returns the public IP address as plain text.
	DefaultIPURL = "https://api.ipify.org"
	// DefaultCountryURL is formatted with the IP address and returns a JSON object.
	DefaultCountryURL = "https://ipinfo.io/%s/json"
	// CacheTTL is how long a resolved country is reused for an address.
	CacheTTL = time.Hour
	// Bogon is reported instead of a country for reserved/private addresses.
	Bogon = "bogon"

	requestTimeout  = 60 * time.Second
	maxResponseSize = 64 << 10
)

type cacheEntry struct {
	country    string
	resolvedAt time.Time
}

// Resolver resolves the public IP address and its country. Countries are
// cached per address. Entries are never removed, stale entries are simply
// overwritten on the next successful lookup. The zero value uses the
// default endpoints.
type Resolver struct {
	Client     *http.Client
	IPURL      string
	CountryURL string
	Log        *slog.Logger

	now func() time.Time

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// NewResolver returns a resolver using the default endpoints.
func NewResolver(log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{
		Client:     &http.Client{Timeout: requestTimeout},
		IPURL:      DefaultIPURL,
		CountryURL: DefaultCountryURL,
		Log:        log,
		now:        time.Now,
		cache:      make(map[string]cacheEntry),
	}
}

// PublicIP queries the public IP address. It returns false on any
// failure or an empty response.
func (r *Resolver) PublicIP(ctx context.Context) (string, bool) {
	target := r.IPURL
	if target == "" {
		target = DefaultIPURL
	}
	body, err := r.get(ctx, target)
	if err != nil {
		r.log().Debug("public ip lookup failed", "error", err)
		return "", false
	}

	ip := strings.TrimSpace(string(body))
	if ip == "" {
		return "", false
	}
	return ip, true
}

// Country returns the country code of ip, or Bogon for reserved
// addresses. Fresh cache entries are answered without a request.
// Failures are not cached.
func (r *Resolver) Country(ctx context.Context, ip string) (string, bool) {
	if country, ok := r.cached(ip); ok {
		return country, true
	}

	format := r.CountryURL
	if format == "" {
		format = DefaultCountryURL
	}
	body, err := r.get(ctx, fmt.Sprintf(format, url.PathEscape(ip)))
	if err != nil {
		r.log().Debug("country lookup failed", "ip", ip, "error", err)
		return "", false
	}

	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		r.log().Debug("country lookup returned invalid json", "ip", ip, "error", err)
		return "", false
	}

	var country string
	if value, ok := data["country"].(string); ok && value != "" {
		country = value
	} else if bogon, ok := data["bogon"].(bool); ok && bogon {
		country = Bogon
	} else {
		return "", false
	}

	r.mu.Lock()
	if r.cache == nil {
		r.cache = make(map[string]cacheEntry)
	}
	r.cache[ip] = cacheEntry{country: country, resolvedAt: r.clock()}
	r.mu.Unlock()

	return country, true
}

func (r *Resolver) cached(ip string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.cache[ip]
	if !ok || r.clock().Sub(entry.resolvedAt) >= CacheTTL {
		return "", false
	}
	return entry.country, true
}

func (r *Resolver) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json, text/plain")

	client := r.Client
	if client == nil {
		client = &http.Client{Timeout: requestTimeout}
	}
	res, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", res.StatusCode)
	}

	return io.ReadAll(io.LimitReader(res.Body, maxResponseSize))
}

func (r *Resolver) clock() time.Time {
	if r.now == nil {
		return time.Now()
	}
	return r.now()
}

func (r *Resolver) log() *slog.Logger {
	if r.Log == nil {
		return slog.Default()
	}
	return r.Log
}
