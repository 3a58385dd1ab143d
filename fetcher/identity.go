package fetcher

import (
	"context"
	"math/rand"
	"time"
)

// identity is one client fingerprint from the fixed pool: a real browser's
// User-Agent plus a matching viewport.
type identity struct {
	userAgent string
	width     int
	height    int
}

// identityPool is read-only after init; concurrent fetches share it without
// locking. Rotating these makes each attempt look like a different visitor.
var identityPool = []identity{
	{"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36", 1920, 1080},
	{"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36", 1440, 900},
	{"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36", 1920, 1080},
	{"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:133.0) Gecko/20100101 Firefox/133.0", 1536, 864},
	{"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:133.0) Gecko/20100101 Firefox/133.0", 1680, 1050},
}

// randomIdentity picks a fingerprint for one attempt.
func randomIdentity() identity {
	return identityPool[rand.Intn(len(identityPool))]
}

// proxyFor selects the outbound proxy for a fetch by its sequence number.
// The round-robin index is passed in by the caller rather than kept as a
// shared counter, so concurrent workers need no synchronization. Returns ""
// when no proxies are configured.
func proxyFor(proxies []string, seq int) string {
	if len(proxies) == 0 {
		return ""
	}
	if seq < 0 {
		seq = -seq
	}
	return proxies[seq%len(proxies)]
}

// uniformDelay returns a random duration in [min, max].
func uniformDelay(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}

// sleepCtx sleeps for d or until the context is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
