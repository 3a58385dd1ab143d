// Package pipeline runs the fetch → extract → classify chain over a
// worklist of URLs under a bounded worker pool.
package pipeline

import (
	"context"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/staykit/subscout/classify"
	"github.com/staykit/subscout/config"
	"github.com/staykit/subscout/extract"
	"github.com/staykit/subscout/fetcher"
	"github.com/staykit/subscout/models"
)

// timestampLayout matches the record schema's human-readable timestamps.
const timestampLayout = "2006-01-02 15:04:05"

// FetchFunc retrieves markup for one URL. Injected so tests can run the
// orchestrator against a stub instead of the network.
type FetchFunc func(ctx context.Context, targetURL string, seq int) *fetcher.Result

// ProgressFunc is called after each unit completes.
type ProgressFunc func(done, total int)

// Pipeline orchestrates independent fetch-extract-classify units. Units
// never depend on each other's outcome; the only shared state is the
// read-only fetch configuration.
type Pipeline struct {
	fetch FetchFunc
	cfg   config.PipelineConfig
	now   func() time.Time
}

// New creates a Pipeline around a fetch function.
func New(fetch FetchFunc, cfg config.PipelineConfig) *Pipeline {
	return &Pipeline{fetch: fetch, cfg: cfg, now: time.Now}
}

// Run processes every URL and returns exactly one ClassifiedRecord per
// input, in input order. concurrency <= 0 uses the configured pool width.
// A unit that exceeds the hard per-unit timeout is abandoned and recorded
// as failed rather than dropped, so the record count always equals the
// input count. progress may be nil.
func (p *Pipeline) Run(ctx context.Context, urls []string, concurrency int, progress ProgressFunc) ([]models.ClassifiedRecord, models.BatchSummary) {
	if concurrency <= 0 {
		concurrency = p.cfg.Concurrency
	}
	if concurrency < 1 {
		concurrency = 1
	}

	records := make([]models.ClassifiedRecord, len(urls))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	var done atomic.Int32

	for i, u := range urls {
		wg.Add(1)
		go func(idx int, targetURL string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			records[idx] = p.runUnit(ctx, targetURL, idx)

			n := int(done.Add(1))
			slog.Info("unit finished",
				"url", targetURL,
				"status", records[idx].Status,
				"belonging", records[idx].Belonging,
				"progress", float64(n)/float64(len(urls)))
			if progress != nil {
				progress(n, len(urls))
			}
		}(i, u)
	}

	wg.Wait()

	summary := summarize(records)
	slog.Info("batch finished",
		"total", summary.Total,
		"succeeded", summary.Succeeded,
		"partial", summary.Partial,
		"failed", summary.Failed,
		"customers", summary.Customers)
	return records, summary
}

// runUnit executes one URL's full sequence under the hard unit timeout.
// The timeout is independent of the fetcher's own retry budget: even a
// hung unit terminates, producing a failed record.
func (p *Pipeline) runUnit(ctx context.Context, targetURL string, seq int) models.ClassifiedRecord {
	unitCtx, cancel := context.WithTimeout(ctx, p.cfg.UnitTimeout)
	defer cancel()

	resultCh := make(chan models.ClassifiedRecord, 1)
	go func() {
		resultCh <- p.process(unitCtx, targetURL, seq)
	}()

	select {
	case rec := <-resultCh:
		return rec
	case <-unitCtx.Done():
		// Abandon the unit; its fetch is context-bound and will unwind on
		// its own, closing any browser page it holds.
		return p.failedRecord(targetURL, "unit timeout exceeded")
	}
}

// process is the unit body: fetch, then extract and classify in-memory.
func (p *Pipeline) process(ctx context.Context, targetURL string, seq int) models.ClassifiedRecord {
	fr := p.fetch(ctx, targetURL, seq)

	switch fr.Outcome {
	case fetcher.OutcomeSuccess, fetcher.OutcomePartial:
		rec := models.ClassifiedRecord{
			ExtractedRecord: extract.Extract(fr.HTML, targetURL),
			Status:          models.StatusSuccess,
			FetchMethod:     fr.Method,
			Attempts:        fr.Attempts,
			ScrapedAt:       p.now().Format(timestampLayout),
		}
		if fr.Outcome == fetcher.OutcomePartial {
			rec.Status = models.StatusPartial
		}
		rec.Belonging = classify.Classify(
			rec.Title, rec.Domain, rec.Email, rec.Phone, rec.PropertyCount, fr.HTML)
		return rec

	case fetcher.OutcomeBlocked:
		rec := p.failedRecord(targetURL, fr.ErrDetail)
		rec.Attempts = fr.Attempts
		return rec

	default:
		rec := p.failedRecord(targetURL, fr.ErrDetail)
		rec.Attempts = fr.Attempts
		return rec
	}
}

// failedRecord builds the terminal record for an unreachable unit. Failed
// units default to platform_internal as a conservative placeholder; the
// label is only meaningful on non-failed records.
func (p *Pipeline) failedRecord(targetURL, reason string) models.ClassifiedRecord {
	return models.ClassifiedRecord{
		ExtractedRecord: models.ExtractedRecord{
			URL:    targetURL,
			Domain: hostOf(targetURL),
		},
		Status:    models.StatusFailed,
		Belonging: models.BelongingPlatformInternal,
		Error:     reason,
		ScrapedAt: p.now().Format(timestampLayout),
	}
}

func summarize(records []models.ClassifiedRecord) models.BatchSummary {
	s := models.BatchSummary{Total: len(records)}
	for i := range records {
		switch records[i].Status {
		case models.StatusSuccess:
			s.Succeeded++
		case models.StatusPartial:
			s.Partial++
		default:
			s.Failed++
		}
		if records[i].Status != models.StatusFailed && records[i].Belonging == models.BelongingCustomer {
			s.Customers++
		}
	}
	return s
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}
