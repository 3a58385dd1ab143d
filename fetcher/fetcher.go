package fetcher

import (
	"log/slog"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/staykit/subscout/config"
	"github.com/staykit/subscout/models"
)

// Outcome classifies how a fetch terminated. Partial is a third variant in
// its own right (gated content with markup still captured), not a sub-case
// of success or failure.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomePartial Outcome = "partial"
	OutcomeBlocked Outcome = "blocked"
	OutcomeError   Outcome = "error"
)

// Result is the unified return type of Fetch. All failure modes are encoded
// here; Fetch never returns a Go error to its caller.
type Result struct {
	// URL is the requested URL.
	URL string

	Outcome Outcome

	// StatusCode is the final HTTP status, when one was observed.
	StatusCode int

	// HTML is the rendered markup. Empty for blocked/error outcomes.
	HTML string

	// Method records which path produced the markup: "http" or "browser".
	Method string

	// Attempts is the number of physical attempts made.
	Attempts int

	// ErrDetail is a truncated diagnostic string for blocked/error outcomes.
	ErrDetail string
}

// capture is one attempt's raw outcome, before retry classification.
type capture struct {
	html       string
	statusCode int
	method     string
}

// Fetcher retrieves rendered markup for URLs, preferring the lightweight
// HTTP path and escalating to a full browser render. It is safe for
// concurrent use; the identity pool and proxy list are read-only.
type Fetcher struct {
	cfg        config.FetcherConfig
	browserCfg config.BrowserConfig

	// The browser is launched lazily: mode "http" (and "auto" runs where
	// every page is static) never pays the Chrome startup cost.
	mu       sync.Mutex
	browser  *rod.Browser
	pagePool rod.Pool[rod.Page]
}

// New creates a Fetcher. The browser process is not launched until the
// first rendering attempt needs it.
func New(browserCfg config.BrowserConfig, cfg config.FetcherConfig) *Fetcher {
	return &Fetcher{cfg: cfg, browserCfg: browserCfg}
}

// ensureBrowser launches the headless browser and page pool on first use.
func (f *Fetcher) ensureBrowser() (*rod.Browser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.browser != nil {
		return f.browser, nil
	}

	l := launcher.New().
		Headless(f.browserCfg.Headless).
		NoSandbox(f.browserCfg.NoSandbox)

	if f.browserCfg.BrowserBin != "" {
		l = l.Bin(f.browserCfg.BrowserBin)
	}
	if f.browserCfg.Proxy != "" {
		l = l.Proxy(f.browserCfg.Proxy)
	}

	// Stealth flags: hide the automation fingerprints tenant sites and the
	// platform's edge check for.
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-ipc-flooding-protection"))
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewFetchError(models.ErrCodeBrowserCrash, "launch browser failed", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewFetchError(models.ErrCodeBrowserCrash, "connect browser failed", err)
	}

	f.browser = browser
	f.pagePool = rod.NewPagePool(f.browserCfg.MaxPages)
	slog.Info("browser launched", "controlURL", controlURL, "maxPages", f.browserCfg.MaxPages)
	return f.browser, nil
}

// Close drains the page pool and kills the browser process if one was
// launched. Call on shutdown to prevent zombie Chrome processes.
func (f *Fetcher) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.browser == nil {
		return
	}
	slog.Info("fetcher shutting down: draining page pool")
	f.pagePool.Cleanup(func(p *rod.Page) {
		_ = p.Close()
	})
	f.browser.MustClose()
	f.browser = nil
	slog.Info("fetcher shutdown complete")
}
