package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/staykit/subscout/config"
)

// testFetcher builds an HTTP-mode fetcher with all pacing zeroed so retry
// paths run instantly.
func testFetcher(maxAttempts int) *Fetcher {
	return New(config.BrowserConfig{}, config.FetcherConfig{
		Mode:        "http",
		MaxAttempts: maxAttempts,
		HTTPTimeout: 5 * time.Second,
	})
}

func TestFetch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><title>Ocean View Villas</title></html>"))
	}))
	defer srv.Close()

	res := testFetcher(3).Fetch(context.Background(), srv.URL, 0)

	if res.Outcome != OutcomeSuccess {
		t.Fatalf("outcome = %q, want %q (detail: %s)", res.Outcome, OutcomeSuccess, res.ErrDetail)
	}
	if res.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", res.Attempts)
	}
	if !strings.Contains(res.HTML, "Ocean View Villas") {
		t.Errorf("HTML missing body content: %q", res.HTML)
	}
	if res.Method != "http" {
		t.Errorf("method = %q, want http", res.Method)
	}
}

func TestFetch_GatedContentIsPartial(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte("<html><title>Subscription expired</title></html>"))
	}))
	defer srv.Close()

	res := testFetcher(3).Fetch(context.Background(), srv.URL, 0)

	if res.Outcome != OutcomePartial {
		t.Fatalf("outcome = %q, want %q", res.Outcome, OutcomePartial)
	}
	if res.HTML == "" {
		t.Error("partial result should keep the gated markup")
	}
	if res.Attempts != 1 {
		t.Errorf("402 should not be retried, attempts = %d", res.Attempts)
	}
}

func TestFetch_AutoModeKeepsGateFromHTTPPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte("<html><title>Subscription expired</title><body>plan lapsed</body></html>"))
	}))
	defer srv.Close()

	f := New(config.BrowserConfig{}, config.FetcherConfig{
		Mode:        "auto",
		MaxAttempts: 3,
		HTTPTimeout: 5 * time.Second,
	})
	res := f.Fetch(context.Background(), srv.URL, 0)

	// The gate must terminate on the HTTP path: a browser render would
	// replace the 402 with its own status and misreport the outcome.
	if res.Outcome != OutcomePartial {
		t.Fatalf("outcome = %q, want %q (detail: %s)", res.Outcome, OutcomePartial, res.ErrDetail)
	}
	if res.Method != "http" {
		t.Errorf("method = %q, want http", res.Method)
	}
	if res.StatusCode != http.StatusPaymentRequired {
		t.Errorf("status = %d, want %d", res.StatusCode, http.StatusPaymentRequired)
	}
	if res.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", res.Attempts)
	}
	if !strings.Contains(res.HTML, "plan lapsed") {
		t.Errorf("gated markup lost: %q", res.HTML)
	}
}

func TestFetch_BlockedAfterExhaustion(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	res := testFetcher(3).Fetch(context.Background(), srv.URL, 0)

	if res.Outcome != OutcomeBlocked {
		t.Fatalf("outcome = %q, want %q", res.Outcome, OutcomeBlocked)
	}
	if res.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", res.Attempts)
	}
	if got := int(hits.Load()); got != 3 {
		t.Errorf("server hits = %d, want 3", got)
	}
	if !strings.Contains(res.ErrDetail, "blocked after 3 attempts") {
		t.Errorf("ErrDetail = %q, want blocked-after text", res.ErrDetail)
	}
	if res.HTML != "" {
		t.Error("terminal failure must not carry markup")
	}
}

func TestFetch_RecoversAfterBlock(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write([]byte("<html><body>welcome back</body></html>"))
	}))
	defer srv.Close()

	res := testFetcher(3).Fetch(context.Background(), srv.URL, 0)

	if res.Outcome != OutcomeSuccess {
		t.Fatalf("outcome = %q, want %q", res.Outcome, OutcomeSuccess)
	}
	if res.Attempts != 2 {
		t.Errorf("attempts = %d, want 2", res.Attempts)
	}
}

func TestFetch_ServerErrorIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	res := testFetcher(2).Fetch(context.Background(), srv.URL, 0)

	if res.Outcome != OutcomeError {
		t.Fatalf("outcome = %q, want %q", res.Outcome, OutcomeError)
	}
	if res.ErrDetail == "" {
		t.Error("error outcome should carry a diagnostic")
	}
}

func TestFetch_UnreachableHostNeverPanics(t *testing.T) {
	res := testFetcher(2).Fetch(context.Background(), "http://127.0.0.1:1", 0)

	if res.Outcome != OutcomeError {
		t.Fatalf("outcome = %q, want %q", res.Outcome, OutcomeError)
	}
	if res.Attempts != 2 {
		t.Errorf("attempts = %d, want 2", res.Attempts)
	}
}

func TestFetch_CancelledContextStopsRetrying(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := testFetcher(3).Fetch(ctx, srv.URL, 0)

	if res.Outcome != OutcomeError && res.Outcome != OutcomeBlocked {
		t.Fatalf("unexpected outcome %q", res.Outcome)
	}
	if res.Attempts >= 3 {
		t.Errorf("cancelled fetch should not exhaust the budget, attempts = %d", res.Attempts)
	}
}

func TestProxyFor(t *testing.T) {
	proxies := []string{"http://a:8080", "http://b:8080", "http://c:8080"}

	for seq := 0; seq < 9; seq++ {
		got := proxyFor(proxies, seq)
		want := proxies[seq%3]
		if got != want {
			t.Errorf("proxyFor(seq=%d) = %q, want %q", seq, got, want)
		}
	}

	if got := proxyFor(nil, 5); got != "" {
		t.Errorf("no proxies should yield empty, got %q", got)
	}
}

func TestUniformDelay_Bounds(t *testing.T) {
	min, max := 10*time.Millisecond, 30*time.Millisecond
	for i := 0; i < 100; i++ {
		d := uniformDelay(min, max)
		if d < min || d > max {
			t.Fatalf("delay %v outside [%v, %v]", d, min, max)
		}
	}

	if d := uniformDelay(max, min); d != max {
		t.Errorf("inverted bounds should return min argument, got %v", d)
	}
}

func TestNeedsBrowser(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{"spa shell", `<html><body><div id="root"></div></body></html>`, true},
		{"noscript warning", `<html><body><noscript>Please enable JavaScript to view this site</noscript>` + strings.Repeat("<p>pad</p>", 60) + `</body></html>`, true},
		{"tiny body", `<html><body>hi</body></html>`, true},
		{"real content", `<html><body><p>` + strings.Repeat("Beachfront cottages with ocean views. ", 20) + `</p></body></html>`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := needsBrowser(tt.body); got != tt.want {
				t.Errorf("needsBrowser = %v, want %v", got, tt.want)
			}
		})
	}
}
