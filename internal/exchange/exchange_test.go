package exchange

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPSource_FirstEndpointWins(t *testing.T) {
	srv := jsonServer(t, http.StatusOK, `{"promedio": 36.50}`)
	s := NewHTTPSource([]Endpoint{{URL: srv.URL, Fields: []string{"promedio"}}}, time.Second)

	rate, err := s.Fetch(context.Background())
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("36.50").Equal(rate), "rate %s", rate)
}

func TestHTTPSource_FallsThroughOnBadBody(t *testing.T) {
	broken := jsonServer(t, http.StatusOK, `<html>not json</html>`)
	missing := jsonServer(t, http.StatusOK, `{"unrelated": 1}`)
	good := jsonServer(t, http.StatusOK, `{"price": "37.10"}`)

	s := NewHTTPSource([]Endpoint{
		{URL: broken.URL, Fields: []string{"price"}},
		{URL: missing.URL, Fields: []string{"price"}},
		{URL: good.URL, Fields: []string{"price"}},
	}, time.Second)

	rate, err := s.Fetch(context.Background())
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("37.10").Equal(rate))
}

func TestHTTPSource_RejectsNonPositive(t *testing.T) {
	srv := jsonServer(t, http.StatusOK, `{"price": 0}`)
	s := NewHTTPSource([]Endpoint{{URL: srv.URL, Fields: []string{"price"}}}, time.Second)

	_, err := s.Fetch(context.Background())
	require.ErrorIs(t, err, ErrNoRate)
}

func TestHTTPSource_AllDown(t *testing.T) {
	srv := jsonServer(t, http.StatusServiceUnavailable, ``)
	s := NewHTTPSource([]Endpoint{{URL: srv.URL, Fields: []string{"price"}}}, time.Second)

	_, err := s.Fetch(context.Background())
	require.ErrorIs(t, err, ErrNoRate)
}

func TestParseRate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		fields  []string
		want    string
		wantErr bool
	}{
		{name: "number", body: `{"usd": 36.5}`, fields: []string{"usd"}, want: "36.5"},
		{name: "numeric string", body: `{"usd": "36.50"}`, fields: []string{"usd"}, want: "36.50"},
		{name: "comma decimal string", body: `{"usd": "36,50"}`, fields: []string{"usd"}, want: "36.50"},
		{name: "case insensitive field", body: `{"USD": 36.5}`, fields: []string{"usd"}, want: "36.5"},
		{name: "nested object", body: `{"rates": {"usd": 36.5}}`, fields: []string{"usd"}, want: "36.5"},
		{name: "field priority ignores others", body: `{"eur": 40, "usd": 36.5}`, fields: []string{"usd"}, want: "36.5"},
		{name: "missing field", body: `{"eur": 40}`, fields: []string{"usd"}, wantErr: true},
		{name: "not json", body: `oops`, fields: []string{"usd"}, wantErr: true},
		{name: "non numeric value", body: `{"usd": true}`, fields: []string{"usd"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRate([]byte(tt.body), tt.fields)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

// --- Cache tests ---

type fakeSource struct {
	mu    sync.Mutex
	rate  decimal.Decimal
	err   error
	calls atomic.Int32
	block chan struct{}
}

func (f *fakeSource) Fetch(_ context.Context) (decimal.Decimal, error) {
	f.calls.Add(1)
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rate, f.err
}

func (f *fakeSource) set(rate string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rate != "" {
		f.rate = decimal.RequireFromString(rate)
	}
	f.err = err
}

func defaultRate() decimal.Decimal { return decimal.RequireFromString("36.50") }

func TestCache_FetchesOnceWithinTTL(t *testing.T) {
	src := &fakeSource{}
	src.set("37.00", nil)
	c := NewCache(src, 6*time.Hour, defaultRate())

	for range 5 {
		rate, err := c.Rate(context.Background())
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("37.00").Equal(rate))
	}
	assert.Equal(t, int32(1), src.calls.Load(), "fresh cache must not refetch")
}

func TestCache_RefreshesAfterTTL(t *testing.T) {
	src := &fakeSource{}
	src.set("37.00", nil)
	c := NewCache(src, 6*time.Hour, defaultRate())

	current := time.Now()
	c.now = func() time.Time { return current }

	_, err := c.Rate(context.Background())
	require.NoError(t, err)

	current = current.Add(6*time.Hour + time.Minute)
	src.set("38.25", nil)

	rate, err := c.Rate(context.Background())
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("38.25").Equal(rate))
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestCache_LastKnownGoodOnFailure(t *testing.T) {
	src := &fakeSource{}
	src.set("37.00", nil)
	c := NewCache(src, 6*time.Hour, defaultRate())

	current := time.Now()
	c.now = func() time.Time { return current }

	_, err := c.Rate(context.Background())
	require.NoError(t, err)

	current = current.Add(7 * time.Hour)
	src.set("", ErrNoRate)

	rate, err := c.Rate(context.Background())
	require.NoError(t, err, "source failure must not surface")
	assert.True(t, decimal.RequireFromString("37.00").Equal(rate), "serves last known good")
}

func TestCache_DefaultWhenNeverFetched(t *testing.T) {
	src := &fakeSource{}
	src.set("", ErrNoRate)
	c := NewCache(src, 6*time.Hour, defaultRate())

	rate, err := c.Rate(context.Background())
	require.NoError(t, err)
	assert.True(t, defaultRate().Equal(rate))
}

func TestCache_SingleInFlightRefresh(t *testing.T) {
	src := &fakeSource{block: make(chan struct{})}
	src.set("37.00", nil)
	c := NewCache(src, 6*time.Hour, defaultRate())

	const callers = 8
	var wg sync.WaitGroup
	results := make([]decimal.Decimal, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rate, err := c.Rate(context.Background())
			require.NoError(t, err)
			results[i] = rate
		}()
	}

	// Let the goroutines pile up behind the blocked fetch, then release.
	time.Sleep(50 * time.Millisecond)
	close(src.block)
	wg.Wait()

	assert.Equal(t, int32(1), src.calls.Load(), "concurrent callers must share one fetch")
	for _, r := range results {
		assert.True(t, decimal.RequireFromString("37.00").Equal(r))
	}
}
