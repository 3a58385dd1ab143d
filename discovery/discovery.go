// Package discovery enumerates candidate tenant sites under the platform's
// wildcard domain. It feeds the pipeline but never participates in its
// control flow; its output is just a URL worklist.
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/staykit/subscout/config"
	"golang.org/x/time/rate"
)

// reservedSubdomains are platform-operated names excluded before the
// pipeline ever sees them.
var reservedSubdomains = map[string]struct{}{
	"www": {}, "api": {}, "app": {}, "admin": {}, "blog": {}, "help": {},
	"support": {}, "docs": {}, "cdn": {}, "assets": {}, "static": {},
	"mail": {}, "ftp": {}, "dev": {}, "test": {}, "staging": {}, "demo": {},
	"portal": {}, "dashboard": {}, "auth": {}, "login": {}, "billing": {},
	"payments": {}, "feedback": {}, "roadmap": {}, "status": {},
	"updates": {}, "academy": {}, "platform": {}, "sendy": {},
	"learning-center": {}, "omcdn": {},
}

// wordlist holds business names vacation-rental tenants actually pick.
// Used for blind probing when certificate logs come up short.
var wordlist = []string{
	"oceanview", "beachfront", "seaside", "oceanside", "coastline",
	"mountainview", "hillside", "lakeside", "riverside", "waterfront",
	"sunset", "sunrise", "paradise", "tropical", "island",
	"villa", "villas", "casa", "chalet", "lodge", "lodges",
	"cottage", "cottages", "cabin", "cabins", "retreat", "escape",
	"getaway", "hideaway", "haven", "sanctuary", "oasis",
	"luxury", "premier", "boutique", "grand", "royal",
}

// Finder discovers candidate subdomains via certificate-transparency logs
// and wordlist probing.
type Finder struct {
	cfg     config.DiscoveryConfig
	client  *http.Client
	limiter *rate.Limiter
}

// NewFinder creates a Finder with probe pacing per the config.
func NewFinder(cfg config.DiscoveryConfig) *Finder {
	return &Finder{
		cfg:     cfg,
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(cfg.ProbeRPS), 1),
	}
}

// Discover returns a deduplicated, sorted candidate URL list, capped at the
// configured maximum. Discovery is best-effort: a failing source logs a
// warning and contributes nothing.
func (f *Finder) Discover(ctx context.Context) []string {
	hosts := make(map[string]struct{})

	ctHosts, err := f.fromCertLog(ctx)
	if err != nil {
		slog.Warn("certificate-transparency lookup failed", "error", err)
	}
	for _, h := range ctHosts {
		hosts[h] = struct{}{}
	}
	slog.Info("certificate-transparency candidates", "count", len(hosts))

	for _, word := range wordlist {
		hosts[word+"."+f.cfg.Domain] = struct{}{}
	}

	candidates := make([]string, 0, len(hosts))
	for h := range hosts {
		if IsCustomerSubdomain(h, f.cfg.Domain) {
			candidates = append(candidates, h)
		}
	}
	sort.Strings(candidates)

	if f.cfg.Probe {
		candidates = f.probe(ctx, candidates)
	}

	if len(candidates) > f.cfg.MaxResults {
		candidates = candidates[:f.cfg.MaxResults]
	}

	urls := make([]string, len(candidates))
	for i, h := range candidates {
		urls[i] = "https://" + h
	}
	slog.Info("discovery finished", "candidates", len(urls))
	return urls
}

// crtEntry is one certificate record from the crt.sh JSON output.
type crtEntry struct {
	NameValue string `json:"name_value"`
}

// fromCertLog queries the certificate-transparency aggregator for every
// certificate issued under the wildcard domain.
func (f *Finder) fromCertLog(ctx context.Context) ([]string, error) {
	endpoint := fmt.Sprintf("%s/?q=%%25.%s&output=json", f.cfg.CrtShURL, f.cfg.Domain)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("discovery: build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("discovery: crt.sh request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discovery: crt.sh status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 50<<20))
	if err != nil {
		return nil, fmt.Errorf("discovery: read crt.sh body: %w", err)
	}

	var entries []crtEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("discovery: parse crt.sh JSON: %w", err)
	}

	var hosts []string
	for _, e := range entries {
		for _, name := range strings.Split(e.NameValue, "\n") {
			name = strings.ToLower(strings.TrimSpace(name))
			if name == "" || strings.HasPrefix(name, "*") {
				continue
			}
			if strings.HasSuffix(name, "."+f.cfg.Domain) && strings.Count(name, ".") >= 2 {
				hosts = append(hosts, name)
			}
		}
	}
	return hosts, nil
}

// IsCustomerSubdomain reports whether a hostname plausibly belongs to a
// tenant: not a reserved platform name, and a sane label length.
func IsCustomerSubdomain(host, domain string) bool {
	host = strings.ToLower(host)
	if !strings.HasSuffix(host, "."+domain) {
		return false
	}
	label, _, _ := strings.Cut(host, ".")
	if _, reserved := reservedSubdomains[label]; reserved {
		return false
	}
	if len(label) < 3 || len(label) > 50 {
		return false
	}
	return true
}

// probe keeps only candidates that answer HTTP at all, paced by the rate
// limiter so the probe itself does not look like an attack.
func (f *Finder) probe(ctx context.Context, hosts []string) []string {
	var live []string
	for _, h := range hosts {
		if len(live) >= f.cfg.MaxResults {
			break
		}
		if err := f.limiter.Wait(ctx); err != nil {
			break
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, "https://"+h, nil)
		if err != nil {
			continue
		}
		resp, err := f.client.Do(req)
		if err != nil {
			continue
		}
		resp.Body.Close()
		if resp.StatusCode < 500 {
			live = append(live, h)
		}
	}
	slog.Info("liveness probe finished", "in", len(hosts), "live", len(live))
	return live
}
