package fetcher

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/staykit/subscout/models"
	"github.com/ysmood/gson"
)

// fetchBrowser renders the URL in a pooled headless-browser tab.
//
// Order matters: stealth JS and the hijack router must be installed before
// navigation or they won't apply; the cleanup defer uses the original page
// reference (without the request context) so the tab is always parked and
// returned to the pool even when the context has expired.
func (f *Fetcher) fetchBrowser(ctx context.Context, targetURL string, id identity) (*capture, error) {
	browser, err := f.ensureBrowser()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, f.cfg.NavTimeout)
	defer cancel()

	page, err := f.pagePool.Get(func() (*rod.Page, error) {
		return browser.Page(proto.TargetCreateTarget{})
	})
	if err != nil {
		return nil, err
	}
	defer func() {
		if navErr := page.Navigate("about:blank"); navErr != nil {
			slog.Warn("cleanup: failed to park page", "error", navErr)
		}
		f.pagePool.Put(page)
	}()

	if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
		slog.Warn("stealth injection failed, proceeding without it", "error", evalErr)
	}

	// Apply the per-attempt identity: UA override plus a matching viewport.
	_ = proto.NetworkSetUserAgentOverride{UserAgent: id.userAgent}.Call(page)
	_ = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             id.width,
		Height:            id.height,
		DeviceScaleFactor: 1,
	})

	headers := proto.NetworkHeaders{
		"Accept-Language": gson.New("en-US,en;q=0.9"),
	}
	if u, parseErr := url.Parse(targetURL); parseErr == nil {
		headers["Referer"] = gson.New("https://www.google.com/search?q=" + url.QueryEscape(u.Hostname()))
	}
	_ = proto.NetworkSetExtraHTTPHeaders{Headers: headers}.Call(page)

	router := setupHijack(page, f.cfg.BlockedResourceTypes)
	if router != nil {
		defer func() { _ = router.Stop() }()
	}

	p := page.Context(ctx)

	if err := p.Navigate(targetURL); err != nil {
		return nil, categorizeError(err, "navigation to target URL failed")
	}

	if stableErr := p.WaitDOMStable(300*time.Millisecond, 0.1); stableErr != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM",
			"error", stableErr)
	}

	// Content-settle delay: tenant sites populate listings asynchronously
	// after the DOM reports stable.
	if err := sleepCtx(ctx, f.cfg.SettleDelay); err != nil {
		return nil, err
	}

	// The status code comes from the navigation performance entry; CDP
	// network event listeners conflict with the hijack router's Fetch
	// domain on recent Chromium.
	statusCode := 0
	if res, evalErr := p.Eval(`() => {
		try {
			const entries = performance.getEntriesByType("navigation");
			if (entries.length > 0) return entries[0].responseStatus || 0;
		} catch(e) {}
		return 0;
	}`); evalErr == nil {
		statusCode = res.Value.Int()
	}
	if statusCode == 0 {
		statusCode = 200
	}

	if f.cfg.Interact && statusCode == 200 {
		f.interact(ctx, p)
	}

	rawHTML, htmlErr := p.HTML()
	if htmlErr != nil {
		return nil, categorizeError(htmlErr, "failed to extract page HTML")
	}

	return &capture{
		html:       rawHTML,
		statusCode: statusCode,
		method:     "browser",
	}, nil
}

// categorizeError maps a raw browser-path error to a coded FetchError.
// Unwrap keeps errors.Is(ctx.Err()) checks working upstream.
func categorizeError(err error, msg string) *models.FetchError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewFetchError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewFetchError(models.ErrCodeTimeout, "request canceled", err)
	default:
		return models.NewFetchError(models.ErrCodeNavigation, msg, err)
	}
}

// interactionSelectors are tried in order after initial load to surface
// inventory hidden behind "load more" style controls. Every click is
// best-effort: a selector that does not match, or an element that refuses
// the click, is skipped without failing the fetch.
var interactionSelectors = []string{
	`button[class*="load-more"]`,
	`a[class*="load-more"]`,
	`button[class*="show-more"]`,
	`[class*="view-all"]`,
	`button[class*="more"]`,
	`[class*="all-properties"] a`,
	`select[class*="property"]`,
	`[class*="dropdown-toggle"]`,
}

// maxInteractions bounds how many controls one fetch will poke.
const maxInteractions = 3

func (f *Fetcher) interact(ctx context.Context, p *rod.Page) {
	clicked := 0
	for _, sel := range interactionSelectors {
		if clicked >= maxInteractions || ctx.Err() != nil {
			return
		}
		els, err := p.Elements(sel)
		if err != nil || len(els) == 0 {
			continue
		}
		if clickErr := els[0].Click(proto.InputMouseButtonLeft, 1); clickErr != nil {
			slog.Debug("interaction click failed", "selector", sel, "error", clickErr)
			continue
		}
		clicked++
		// Let any lazily loaded content arrive before the next control.
		_ = sleepCtx(ctx, 500*time.Millisecond)
	}
}

// configToProto maps config strings to Rod protocol resource types.
var configToProto = map[string]proto.NetworkResourceType{
	"Image":      proto.NetworkResourceTypeImage,
	"Stylesheet": proto.NetworkResourceTypeStylesheet,
	"Font":       proto.NetworkResourceTypeFont,
	"Media":      proto.NetworkResourceTypeMedia,
	"Script":     proto.NetworkResourceTypeScript,
}

// setupHijack installs a request interceptor that drops the configured
// resource types; lead extraction only needs markup, so images, styles,
// fonts and media are dead weight on every tab. Returns the running router
// for the caller to defer-Stop, or nil when nothing is blocked.
func setupHijack(page *rod.Page, blockedTypes []string) *rod.HijackRouter {
	blocked := make(map[proto.NetworkResourceType]struct{}, len(blockedTypes))
	for _, name := range blockedTypes {
		if rt, ok := configToProto[name]; ok {
			blocked[rt] = struct{}{}
		}
	}
	if len(blocked) == 0 {
		return nil
	}

	router := page.HijackRequests()
	_ = router.Add("*", "", func(ctx *rod.Hijack) {
		if _, drop := blocked[ctx.Request.Type()]; drop {
			ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		ctx.ContinueRequest(&proto.FetchContinueRequest{})
	})

	// router.Run() blocks until router.Stop().
	go router.Run()

	return router
}
