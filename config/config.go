package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Fetcher   FetcherConfig
	Pipeline  PipelineConfig
	Discovery DiscoveryConfig
	Export    ExportConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Webhook   WebhookConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance used for the
// rendering fetch path.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// MaxPages is the page pool capacity (max concurrent tabs).
	MaxPages int // default: 5

	// Proxy is the outbound proxy for the browser process. A Rod browser's
	// proxy is fixed at launch, so per-attempt rotation only applies to the
	// HTTP path (see FetcherConfig.Proxies).
	Proxy string

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string
}

// FetcherConfig controls fetch behavior for both paths.
type FetcherConfig struct {
	// Mode selects the fetch strategy.
	// "auto" (default): HTTP first, escalate to browser when the body looks
	// like a JS shell or the HTTP path fails.
	// "http": lightweight HTTP only. "browser": always render.
	Mode string

	// MaxAttempts is the retry budget per URL.
	MaxAttempts int // default: 3

	// HumanDelayMin/Max bound the randomized pre-attempt delay.
	HumanDelayMin time.Duration // default: 1s
	HumanDelayMax time.Duration // default: 4s

	// BackoffJitterMin/Max bound the jitter added to exponential backoff.
	BackoffJitterMin time.Duration // default: 1s
	BackoffJitterMax time.Duration // default: 3s

	// BackoffUnit scales the exponential term (2^attempt * unit). Tests
	// shrink this so retry-exhaustion paths run fast.
	BackoffUnit time.Duration // default: 1s

	// SettleDelay is how long the browser path waits after DOM stability
	// for asynchronously populated content.
	SettleDelay time.Duration // default: 2s

	// HTTPTimeout is the deadline for a single HTTP-path attempt.
	HTTPTimeout time.Duration // default: 15s

	// NavTimeout is the deadline for a single browser-path attempt.
	NavTimeout time.Duration // default: 30s

	// Proxies is the optional rotating outbound proxy list for the HTTP
	// path, selected round-robin by the fetch sequence number.
	Proxies []string

	// BlockedResourceTypes lists resource types the browser path blocks.
	// default: ["Image", "Stylesheet", "Font", "Media"]
	BlockedResourceTypes []string

	// Interact enables best-effort "load more" / "view all" clicks on the
	// browser path.
	Interact bool // default: true
}

// PipelineConfig controls the batch orchestrator.
type PipelineConfig struct {
	// Concurrency is the worker pool width. Kept single-digit by default to
	// respect target-site load and reduce block rates.
	Concurrency int // default: 3

	// UnitTimeout is the hard wall-clock bound for one URL's full
	// fetch-extract-classify sequence, independent of the fetcher's own
	// retry budget.
	UnitTimeout time.Duration // default: 3m
}

// DiscoveryConfig controls subdomain discovery.
type DiscoveryConfig struct {
	// Domain is the platform wildcard domain to enumerate (e.g. "lodgify.com").
	Domain string

	// MaxResults caps the candidate list.
	MaxResults int // default: 200

	// CrtShURL is the certificate-transparency query endpoint.
	CrtShURL string // default: "https://crt.sh"

	// ProbeRPS paces liveness probes against candidates.
	ProbeRPS float64 // default: 2

	// Probe toggles the liveness probe step.
	Probe bool // default: false
}

// ExportConfig controls output artifacts.
type ExportConfig struct {
	// OutDir is where JSON/CSV/XLSX artifacts are written.
	OutDir string // default: "."
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 5

	// Burst is the maximum burst size per API key.
	Burst int // default: 10
}

// WebhookConfig controls batch-completion notifications.
type WebhookConfig struct {
	// URL receives a POST when a batch finishes. Empty disables delivery.
	URL string

	// Secret signs the payload with HMAC-SHA256 when non-empty.
	Secret string
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("SUBSCOUT_HOST", "0.0.0.0"),
			Port: envIntOr("SUBSCOUT_PORT", 8080),
			Mode: envOr("SUBSCOUT_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:   envBoolOr("SUBSCOUT_HEADLESS", true),
			MaxPages:   envIntOr("SUBSCOUT_MAX_PAGES", 5),
			Proxy:      os.Getenv("SUBSCOUT_BROWSER_PROXY"),
			NoSandbox:  envBoolOr("SUBSCOUT_NO_SANDBOX", false),
			BrowserBin: os.Getenv("SUBSCOUT_BROWSER_BIN"),
		},
		Fetcher: FetcherConfig{
			Mode:             envOr("SUBSCOUT_FETCH_MODE", "auto"),
			MaxAttempts:      envIntOr("SUBSCOUT_MAX_ATTEMPTS", 3),
			HumanDelayMin:    envDurationOr("SUBSCOUT_HUMAN_DELAY_MIN", 1*time.Second),
			HumanDelayMax:    envDurationOr("SUBSCOUT_HUMAN_DELAY_MAX", 4*time.Second),
			BackoffJitterMin: envDurationOr("SUBSCOUT_BACKOFF_JITTER_MIN", 1*time.Second),
			BackoffJitterMax: envDurationOr("SUBSCOUT_BACKOFF_JITTER_MAX", 3*time.Second),
			BackoffUnit:      envDurationOr("SUBSCOUT_BACKOFF_UNIT", 1*time.Second),
			SettleDelay:      envDurationOr("SUBSCOUT_SETTLE_DELAY", 2*time.Second),
			HTTPTimeout:      envDurationOr("SUBSCOUT_HTTP_TIMEOUT", 15*time.Second),
			NavTimeout:       envDurationOr("SUBSCOUT_NAV_TIMEOUT", 30*time.Second),
			Proxies:          envSliceOr("SUBSCOUT_PROXIES", nil),
			BlockedResourceTypes: envSliceOr("SUBSCOUT_BLOCKED_RESOURCES", []string{
				"Image", "Stylesheet", "Font", "Media",
			}),
			Interact: envBoolOr("SUBSCOUT_INTERACT", true),
		},
		Pipeline: PipelineConfig{
			Concurrency: envIntOr("SUBSCOUT_CONCURRENCY", 3),
			UnitTimeout: envDurationOr("SUBSCOUT_UNIT_TIMEOUT", 3*time.Minute),
		},
		Discovery: DiscoveryConfig{
			Domain:     envOr("SUBSCOUT_DOMAIN", "lodgify.com"),
			MaxResults: envIntOr("SUBSCOUT_MAX_SUBDOMAINS", 200),
			CrtShURL:   envOr("SUBSCOUT_CRTSH_URL", "https://crt.sh"),
			ProbeRPS:   envFloatOr("SUBSCOUT_PROBE_RPS", 2.0),
			Probe:      envBoolOr("SUBSCOUT_PROBE", false),
		},
		Export: ExportConfig{
			OutDir: envOr("SUBSCOUT_OUT_DIR", "."),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("SUBSCOUT_AUTH_ENABLED", true),
			APIKeys: envSliceOr("SUBSCOUT_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("SUBSCOUT_RATE_RPS", 5.0),
			Burst:             envIntOr("SUBSCOUT_RATE_BURST", 10),
		},
		Webhook: WebhookConfig{
			URL:    os.Getenv("SUBSCOUT_WEBHOOK_URL"),
			Secret: os.Getenv("SUBSCOUT_WEBHOOK_SECRET"),
		},
		Log: LogConfig{
			Level:  envOr("SUBSCOUT_LOG_LEVEL", "info"),
			Format: envOr("SUBSCOUT_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
