// Command subscout runs one batch end to end from the command line:
// discover or read a URL worklist, fetch-extract-classify every unit, and
// write the JSON, CSV and XLSX artifacts.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/staykit/subscout/config"
	"github.com/staykit/subscout/discovery"
	"github.com/staykit/subscout/export"
	"github.com/staykit/subscout/fetcher"
	"github.com/staykit/subscout/pipeline"
)

func main() {
	var (
		urlsPath    = flag.String("urls", "", "path to a file with one URL per line")
		discover    = flag.Bool("discover", false, "discover candidate subdomains instead of reading -urls")
		concurrency = flag.Int("concurrency", 0, "worker pool width (0 = configured default)")
	)
	flag.Parse()

	cfg := config.Load()
	initLogger(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	urls, err := worklist(ctx, cfg, *urlsPath, *discover)
	if err != nil {
		slog.Error("building worklist failed", "error", err)
		os.Exit(1)
	}
	if len(urls) == 0 {
		slog.Error("empty worklist: pass -urls <file> or -discover")
		os.Exit(1)
	}
	slog.Info("worklist ready", "urls", len(urls))

	f := fetcher.New(cfg.Browser, cfg.Fetcher)
	defer f.Close()

	pipe := pipeline.New(f.Fetch, cfg.Pipeline)
	records, summary := pipe.Run(ctx, urls, *concurrency, func(done, total int) {
		slog.Info("progress", "done", done, "total", total)
	})

	slog.Info("batch finished",
		"total", summary.Total,
		"succeeded", summary.Succeeded,
		"partial", summary.Partial,
		"failed", summary.Failed,
		"customers", summary.Customers,
	)

	outDir := cfg.Export.OutDir
	if err := export.WriteJSON(filepath.Join(outDir, "leads.json"), records); err != nil {
		slog.Error("JSON export failed", "error", err)
		os.Exit(1)
	}
	if err := export.WriteCustomerCSV(filepath.Join(outDir, "customer_leads.csv"), records); err != nil {
		slog.Error("CSV export failed", "error", err)
		os.Exit(1)
	}
	if err := export.WriteXLSX(filepath.Join(outDir, "leads.xlsx"), records); err != nil {
		slog.Error("XLSX export failed", "error", err)
		os.Exit(1)
	}
	slog.Info("exports written", "dir", outDir)
}

// worklist builds the URL list from discovery or the -urls file.
func worklist(ctx context.Context, cfg *config.Config, urlsPath string, discover bool) ([]string, error) {
	if discover {
		finder := discovery.NewFinder(cfg.Discovery)
		return finder.Discover(ctx), nil
	}
	if urlsPath == "" {
		return nil, nil
	}
	return readURLs(urlsPath)
}

// readURLs reads one URL per line, skipping blanks and # comments.
func readURLs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var urls []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !strings.Contains(line, "://") {
			line = "https://" + line
		}
		urls = append(urls, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return urls, nil
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
