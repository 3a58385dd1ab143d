package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
)

// errDetailMax bounds the diagnostic string stored on terminal failures.
const errDetailMax = 200

// Fetch retrieves rendered markup for one URL. It never returns a Go error:
// every failure mode is encoded in the Result. seq is the caller's fetch
// sequence number, used only to rotate the outbound proxy list.
//
// Each physical attempt is preceded by a randomized human-like delay, uses
// a fresh identity from the pool, and is classified by status: 200 succeeds,
// 402 is a partial success with markup kept, 403/429 retries until the
// budget is exhausted ("blocked"), anything else retries and terminates as
// an error. Attempts within one call are strictly sequential.
func (f *Fetcher) Fetch(ctx context.Context, targetURL string, seq int) *Result {
	res := &Result{URL: targetURL}
	proxy := proxyFor(f.cfg.Proxies, seq)

	var lastErr error
	sawBlock := false

	for attempt := 0; attempt < f.cfg.MaxAttempts; attempt++ {
		if err := sleepCtx(ctx, uniformDelay(f.cfg.HumanDelayMin, f.cfg.HumanDelayMax)); err != nil {
			lastErr = err
			break
		}

		res.Attempts = attempt + 1
		got, err := f.attempt(ctx, targetURL, proxy)

		if err == nil {
			res.StatusCode = got.statusCode
			res.Method = got.method

			switch {
			case got.statusCode >= 200 && got.statusCode < 300:
				res.Outcome = OutcomeSuccess
				res.HTML = got.html
				slog.Info("fetch succeeded",
					"url", targetURL, "method", got.method, "attempts", res.Attempts)
				return res

			case got.statusCode == http.StatusPaymentRequired:
				// Gated content: the site is paywalled but the visible
				// structure is still worth extracting.
				res.Outcome = OutcomePartial
				res.HTML = got.html
				slog.Info("fetch partial (gated content)",
					"url", targetURL, "method", got.method, "attempts", res.Attempts)
				return res

			case got.statusCode == http.StatusForbidden || got.statusCode == http.StatusTooManyRequests:
				sawBlock = true
				lastErr = fmt.Errorf("HTTP %d", got.statusCode)

			default:
				lastErr = fmt.Errorf("HTTP %d", got.statusCode)
			}
		} else {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				lastErr = err
				break
			}
			lastErr = err
		}

		if attempt < f.cfg.MaxAttempts-1 {
			backoff := f.cfg.BackoffUnit*(1<<uint(attempt)) +
				uniformDelay(f.cfg.BackoffJitterMin, f.cfg.BackoffJitterMax)
			slog.Warn("fetch attempt failed, backing off",
				"url", targetURL, "attempt", attempt+1, "backoff", backoff, "error", lastErr)
			if err := sleepCtx(ctx, backoff); err != nil {
				lastErr = err
				break
			}
		}
	}

	if sawBlock {
		res.Outcome = OutcomeBlocked
		res.ErrDetail = truncate(fmt.Sprintf("%v - blocked after %d attempts", lastErr, res.Attempts), errDetailMax)
	} else {
		res.Outcome = OutcomeError
		res.ErrDetail = truncate(fmt.Sprintf("%v", lastErr), errDetailMax)
	}
	res.HTML = ""
	slog.Error("fetch exhausted",
		"url", targetURL, "outcome", res.Outcome, "attempts", res.Attempts, "error", res.ErrDetail)
	return res
}

// attempt runs one physical fetch, choosing the path per the configured
// mode. In "auto" the HTTP path goes first and the browser takes over when
// the body looks like a JS shell or the HTTP path failed outright; a payment
// gate never escalates, and a usable HTTP status (e.g. a block) is kept if
// the browser also fails.
func (f *Fetcher) attempt(ctx context.Context, targetURL, proxy string) (*capture, error) {
	id := randomIdentity()

	switch f.cfg.Mode {
	case "http":
		return f.fetchHTTP(ctx, targetURL, id, proxy)
	case "browser":
		return f.fetchBrowser(ctx, targetURL, id)
	default: // auto
		got, err := f.fetchHTTP(ctx, targetURL, id, proxy)
		if err == nil && got.statusCode >= 200 && got.statusCode < 300 && !needsBrowser(got.html) {
			return got, nil
		}
		// A payment gate is terminal: the HTTP body already holds the
		// extractable markup, and a browser render would report its own
		// status, not the gate's.
		if err == nil && got.statusCode == http.StatusPaymentRequired {
			return got, nil
		}

		bgot, berr := f.fetchBrowser(ctx, targetURL, id)
		if berr != nil {
			if err == nil {
				return got, nil
			}
			return nil, berr
		}
		return bgot, nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
