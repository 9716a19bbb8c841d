package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aluiziolira/go-scrape-to-json/config"
	"github.com/aluiziolira/go-scrape-to-json/convert"
	"github.com/aluiziolira/go-scrape-to-json/crawler"
	"github.com/aluiziolira/go-scrape-to-json/fetch"
	"github.com/aluiziolira/go-scrape-to-json/models"
	"github.com/aluiziolira/go-scrape-to-json/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	defaultCfg := config.DefaultConfig()
	depthDefault := defaultCfg.MaxDepth
	if value, ok, err := config.EnvInt("SCRAPER_DEPTH"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid SCRAPER_DEPTH: %v\n", err)
		os.Exit(1)
	} else if ok {
		depthDefault = value
	}
	pagesDefault := defaultCfg.MaxPages
	if value, ok, err := config.EnvInt("SCRAPER_PAGES"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid SCRAPER_PAGES: %v\n", err)
		os.Exit(1)
	} else if ok {
		pagesDefault = value
	}
	outputDirDefault := defaultCfg.OutputDir
	if value, ok := config.EnvString("SCRAPER_OUTPUT_DIR"); ok {
		outputDirDefault = value
	}
	providerDefault := defaultCfg.Provider
	if value, ok := config.EnvString("SCRAPER_PROVIDER"); ok {
		providerDefault = value
	}
	metricsDefault := defaultCfg.MetricsAddr
	if value, ok := config.EnvString("SCRAPER_METRICS_ADDR"); ok {
		metricsDefault = value
	}

	baseURL := flag.String("url", "", "Seed URL to crawl (required)")
	outputDir := flag.String("output-dir", outputDirDefault, "Directory for crawl artifacts")
	maxDepth := flag.Int("depth", depthDefault, "Maximum link depth from the seed")
	maxPages := flag.Int("pages", pagesDefault, "Maximum pages to crawl")
	allowExternal := flag.Bool("allow-external", false, "Follow links outside the seed domain")
	delayMs := flag.Int("delay", int(defaultCfg.Delay/time.Millisecond), "Delay between page fetches (milliseconds)")
	include := flag.String("include", "", "Comma-separated URL substrings to require")
	exclude := flag.String("exclude", "", "Comma-separated URL substrings to reject")
	render := flag.Bool("render", false, "Fetch pages with a headless browser instead of plain HTTP")
	provider := flag.String("provider", providerDefault, "AI provider: gemini, claude, openai, or grok")
	model := flag.String("model", "", "Model name override for the provider")
	maxTokens := flag.Int("max-tokens", defaultCfg.MaxTokens, "Token limit per generation call")
	batchSize := flag.Int("batch-size", defaultCfg.BatchSize, "Pages converted between output checkpoints")
	conversionDelayS := flag.Float64("conversion-delay", defaultCfg.ConversionDelay.Seconds(), "Delay between generation calls (seconds)")
	schemaFile := flag.String("schema-file", "", "Path to a pre-defined schema JSON file")
	skipConversion := flag.Bool("skip-conversion", false, "Crawl and analyze only, without converting pages")
	outputFile := flag.String("output", defaultCfg.OutputFile, "Structured output file path")
	metricsAddr := flag.String("metrics-addr", metricsDefault, "Prometheus metrics listen address (e.g. :9090)")
	verbose := flag.Bool("v", false, "Enable verbose logging")

	flag.Parse()

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	cfg := buildConfigFromFlags(*baseURL, *outputDir, *maxDepth, *maxPages, !*allowExternal, *delayMs, *include, *exclude, *render, *provider, *model, *maxTokens, *batchSize, *conversionDelayS, *schemaFile, *skipConversion, *outputFile, *metricsAddr, *verbose)
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	st, err := store.New(cfg.OutputDir)
	if err != nil {
		slog.Error("preparing output directory", slog.Any("error", err))
		os.Exit(1)
	}

	fetcher, err := newFetcher(cfg)
	if err != nil {
		slog.Error("initialising fetcher", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := fetcher.Close(); err != nil {
			slog.Error("close fetcher", slog.Any("error", err))
		}
	}()

	c, err := crawler.New(cfg, fetcher, st)
	if err != nil {
		slog.Error("initialising crawler", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received, finishing current page")
	}()

	// Skipping conversion means skipping every provider call, so a
	// crawl-only run needs no credential.
	var gen convert.Generator
	var engine *convert.Engine
	if !cfg.SkipConversion {
		gen, err = convert.NewGenerator(ctx, cfg)
		if err != nil {
			slog.Error("initialising provider", slog.Any("error", err))
			os.Exit(1)
		}
		engine = convert.NewEngine(gen, cfg.BatchSize, cfg.ConversionDelay, cfg.GenerateTimeout, cfg.MaxTokens)
	}

	registries := []prometheus.Gatherer{c.Metrics.Registry}
	if engine != nil {
		registries = append(registries, engine.Metrics.Registry)
	}
	metricsServer := startMetricsServer(cfg.MetricsAddr, registries...)

	startTime := time.Now()
	result, err := c.Run(ctx)
	if err != nil {
		slog.Error("crawl failed", slog.Any("error", err))
		os.Exit(1)
	}
	if len(result.Pages) == 0 {
		slog.Error("no pages crawled, nothing to convert")
		os.Exit(1)
	}

	var ledger *models.ConversionLedger
	if cfg.SkipConversion {
		slog.Info("conversion skipped", slog.String("scraped_data", st.PagesPath()))
	} else {
		analysis, err := resolveAnalysis(ctx, cfg, engine, gen, result.Pages)
		if err != nil {
			slog.Error("resolving schema", slog.Any("error", err))
			os.Exit(1)
		}
		if err := st.SaveAnalysis(analysis); err != nil {
			slog.Error("saving schema analysis", slog.Any("error", err))
			os.Exit(1)
		}

		ledger, err = convertPages(ctx, cfg, engine, analysis, result.Pages)
		if err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("conversion failed", slog.Any("error", err))
			os.Exit(1)
		}
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	printSummary(result, ledger, time.Since(startTime), cfg)
}

func buildConfigFromFlags(baseURL, outputDir string, maxDepth, maxPages int, sameDomain bool, delayMs int, include, exclude string, render bool, provider, model string, maxTokens, batchSize int, conversionDelayS float64, schemaFile string, skipConversion bool, outputFile, metricsAddr string, verbose bool) *config.Config {
	cfg := config.DefaultConfig()
	cfg.BaseURL = baseURL
	cfg.OutputDir = outputDir
	cfg.MaxDepth = maxDepth
	cfg.MaxPages = maxPages
	cfg.SameDomainOnly = sameDomain
	cfg.Delay = time.Duration(delayMs) * time.Millisecond
	cfg.IncludePatterns = splitPatterns(include)
	cfg.ExcludePatterns = splitPatterns(exclude)
	cfg.Render = render
	cfg.Provider = strings.ToLower(provider)
	cfg.Model = model
	cfg.MaxTokens = maxTokens
	cfg.BatchSize = batchSize
	cfg.ConversionDelay = time.Duration(conversionDelayS * float64(time.Second))
	cfg.SchemaFile = schemaFile
	cfg.SkipConversion = skipConversion
	cfg.OutputFile = outputFile
	cfg.MetricsAddr = metricsAddr
	cfg.Verbose = verbose
	return cfg
}

func splitPatterns(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var patterns []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			patterns = append(patterns, trimmed)
		}
	}
	return patterns
}

func newFetcher(cfg *config.Config) (fetch.Fetcher, error) {
	if cfg.Render {
		return fetch.NewRenderFetcher(cfg.UserAgent, cfg.Timeout)
	}
	return fetch.NewCollyFetcher(cfg.UserAgent, cfg.Timeout)
}

// resolveAnalysis loads the user-provided schema when one was given,
// otherwise infers one from the crawled pages.
func resolveAnalysis(ctx context.Context, cfg *config.Config, engine *convert.Engine, gen convert.Generator, pages []*models.PageRecord) (models.Analysis, error) {
	if cfg.SchemaFile != "" {
		analysis, err := convert.LoadAnalysisFile(cfg.SchemaFile)
		if err != nil {
			return models.Analysis{}, err
		}
		slog.Info("using provided schema",
			slog.String("file", cfg.SchemaFile),
			slog.String("content_type", analysis.ContentType),
		)
		return analysis, nil
	}

	inferrer := convert.NewInferrer(gen, cfg.MaxTokens, cfg.GenerateTimeout, engine.Metrics)
	return inferrer.Analyze(ctx, pages), nil
}

// convertPages runs the conversion stage. A failed inference leaves no
// usable schema, so the raw page records are written to the output file
// instead of spending one provider call per page against an empty schema.
func convertPages(ctx context.Context, cfg *config.Config, engine *convert.Engine, analysis models.Analysis, pages []*models.PageRecord) (*models.ConversionLedger, error) {
	if analysis.InferenceFailed() {
		slog.Warn("no schema was generated, saving raw data instead",
			slog.String("notes", analysis.Notes),
			slog.String("output", cfg.OutputFile),
		)
		return nil, store.WriteJSONAtomic(cfg.OutputFile, pages)
	}

	writer, err := store.NewRecordWriter(cfg.OutputFile)
	if err != nil {
		return nil, err
	}
	return engine.ConvertAll(ctx, pages, analysis.Schema, writer)
}

func startMetricsServer(addr string, registries ...prometheus.Gatherer) *http.Server {
	if addr == "" {
		return nil
	}

	gatherers := prometheus.Gatherers(registries)
	server := &http.Server{
		Addr:    addr,
		Handler: promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{}),
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", slog.Any("error", err))
		}
	}()
	slog.Info("metrics server enabled", slog.String("addr", addr))
	return server
}

func printSummary(result *models.CrawlResult, ledger *models.ConversionLedger, duration time.Duration, cfg *config.Config) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Run complete")

	fmt.Printf("  Pages crawled:  %d\n", result.PageCount)
	fmt.Printf("  Fetch errors:   %d\n", result.ErrorCount)
	if len(result.ErrorsByType) > 0 {
		fmt.Printf("  Error types:    %v\n", result.ErrorsByType)
	}
	if ledger != nil {
		fmt.Printf("  Converted:      %d\n", len(ledger.Succeeded))
		fmt.Printf("  Failed:         %d\n", len(ledger.Failed))
		fmt.Printf("  Output file:    %s\n", cfg.OutputFile)
	}
	fmt.Printf("  Artifacts dir:  %s\n", cfg.OutputDir)
	fmt.Printf("  Duration:       %v\n", duration)
	fmt.Println(separator)
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
