package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

// newTestResolver serves body for every /<ip>/json request and counts them.
func newTestResolver(t *testing.T, body string) (*Resolver, *int32, *fakeClock) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		switch {
		case r.URL.Path == "/ip":
			w.Write([]byte(" 203.0.113.9\n"))
		case strings.HasSuffix(r.URL.Path, "/json"):
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(body))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	clock := &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	r := NewResolver(nil)
	r.IPURL = srv.URL + "/ip"
	r.CountryURL = srv.URL + "/%s/json"
	r.now = clock.now
	return r, &hits, clock
}

func TestPublicIP(t *testing.T) {
	r, _, _ := newTestResolver(t, `{}`)

	ip, ok := r.PublicIP(context.Background())
	assert.True(t, ok)
	assert.Equal(t, "203.0.113.9", ip)
}

func TestPublicIPFailures(t *testing.T) {
	assert := assert.New(t)

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("  \n"))
	}))
	defer empty.Close()

	r := NewResolver(nil)
	r.IPURL = empty.URL
	_, ok := r.PublicIP(context.Background())
	assert.False(ok)

	empty.Close()
	_, ok = r.PublicIP(context.Background())
	assert.False(ok)

	r.IPURL = "http://[::1"
	_, ok = r.PublicIP(context.Background())
	assert.False(ok)
}

func TestCountryCache(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	r, hits, clock := newTestResolver(t, `{"ip":"203.0.113.9","country":"DE"}`)

	country, ok := r.Country(ctx, "203.0.113.9")
	require.True(ok)
	assert.Equal("DE", country)
	assert.EqualValues(1, atomic.LoadInt32(hits))

	clock.advance(CacheTTL - time.Second)
	country, ok = r.Country(ctx, "203.0.113.9")
	require.True(ok)
	assert.Equal("DE", country)
	assert.EqualValues(1, atomic.LoadInt32(hits))

	// other addresses are looked up separately
	_, ok = r.Country(ctx, "198.51.100.1")
	require.True(ok)
	assert.EqualValues(2, atomic.LoadInt32(hits))

	clock.advance(time.Second)
	_, ok = r.Country(ctx, "203.0.113.9")
	require.True(ok)
	assert.EqualValues(3, atomic.LoadInt32(hits))

	// refreshed entry is fresh again
	_, ok = r.Country(ctx, "203.0.113.9")
	require.True(ok)
	assert.EqualValues(3, atomic.LoadInt32(hits))
}

func TestCountryBogon(t *testing.T) {
	r, _, _ := newTestResolver(t, `{"ip":"192.168.1.10","bogon":true}`)

	country, ok := r.Country(context.Background(), "192.168.1.10")
	assert.True(t, ok)
	assert.Equal(t, Bogon, country)
}

func TestCountryNotCachedOnFailure(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	for _, body := range []string{
		`{"ip":"203.0.113.9"}`,
		`{"country":""}`,
		`{"bogon":false}`,
		`{"country":42}`,
		`["DE"]`,
		`not json`,
	} {
		r, hits, _ := newTestResolver(t, body)

		_, ok := r.Country(ctx, "203.0.113.9")
		assert.False(ok, body)
		_, ok = r.Country(ctx, "203.0.113.9")
		assert.False(ok, body)
		assert.EqualValues(2, atomic.LoadInt32(hits), body)
	}
}

func TestCountryTransportError(t *testing.T) {
	r := NewResolver(nil)
	r.CountryURL = "http://127.0.0.1:1/%s/json"
	r.Client.Timeout = time.Second

	_, ok := r.Country(context.Background(), "203.0.113.9")
	assert.False(t, ok)
}

func TestZeroValueResolver(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ip" {
			w.Write([]byte("203.0.113.9"))
			return
		}
		w.Write([]byte(`{"country":"NL"}`))
	}))
	defer srv.Close()

	r := &Resolver{IPURL: srv.URL + "/ip", CountryURL: srv.URL + "/%s/json"}
	ctx := context.Background()

	ip, ok := r.PublicIP(ctx)
	require.True(t, ok)

	country, ok := r.Country(ctx, ip)
	require.True(t, ok)
	assert.Equal(t, "NL", country)

	// answered from the cache
	srv.Close()
	country, ok = r.Country(ctx, ip)
	assert.True(t, ok)
	assert.Equal(t, "NL", country)
}
