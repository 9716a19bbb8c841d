// Command salvage converts a previously crawled scraped_data.json into
// structured records without re-crawling. It exists for runs where the
// crawl succeeded but conversion failed or was skipped.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/aluiziolira/go-scrape-to-json/config"
	"github.com/aluiziolira/go-scrape-to-json/convert"
	"github.com/aluiziolira/go-scrape-to-json/models"
	"github.com/aluiziolira/go-scrape-to-json/store"
)

func main() {
	provider := flag.String("provider", "gemini", "AI provider: gemini, claude, openai, or grok")
	model := flag.String("model", "", "Model name override for the provider")
	schemaFile := flag.String("schema", "", "Path to an existing schema JSON file")
	outputFile := flag.String("output", "", "Output JSON file path (default: derived from provider)")
	maxTokens := flag.Int("max-tokens", 4000, "Token limit per generation call")
	batchSize := flag.Int("batch-size", 5, "Pages converted between output checkpoints")
	conversionDelayS := flag.Float64("conversion-delay", 2.0, "Delay between generation calls (seconds)")
	verbose := flag.Bool("v", false, "Enable verbose logging")

	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: salvage [flags] <scraped_data.json>")
		flag.PrintDefaults()
		os.Exit(2)
	}
	inputFile := flag.Arg(0)

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	pages, err := store.LoadPages(inputFile)
	if err != nil {
		slog.Error("loading scraped data", slog.Any("error", err))
		os.Exit(1)
	}
	if len(pages) == 0 {
		slog.Error("scraped data is empty, nothing to salvage", slog.String("file", inputFile))
		os.Exit(1)
	}

	logStatistics(pages)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.DefaultConfig()
	cfg.Provider = strings.ToLower(*provider)
	cfg.Model = *model
	cfg.MaxTokens = *maxTokens
	cfg.BatchSize = *batchSize
	cfg.ConversionDelay = time.Duration(*conversionDelayS * float64(time.Second))

	gen, err := convert.NewGenerator(ctx, cfg)
	if err != nil {
		slog.Error("initialising provider", slog.Any("error", err))
		os.Exit(1)
	}

	engine := convert.NewEngine(gen, cfg.BatchSize, cfg.ConversionDelay, cfg.GenerateTimeout, cfg.MaxTokens)

	var analysis models.Analysis
	if *schemaFile != "" {
		analysis, err = convert.LoadAnalysisFile(*schemaFile)
		if err != nil {
			slog.Error("loading schema file", slog.Any("error", err))
			os.Exit(1)
		}
		slog.Info("using provided schema", slog.String("file", *schemaFile), slog.String("content_type", analysis.ContentType))
	} else {
		inferrer := convert.NewInferrer(gen, cfg.MaxTokens, cfg.GenerateTimeout, engine.Metrics)
		analysis = inferrer.Analyze(ctx, pages)
	}

	if analysis.InferenceFailed() {
		slog.Error("no schema was generated or provided, cannot salvage",
			slog.String("notes", analysis.Notes),
		)
		os.Exit(1)
	}

	output := *outputFile
	if output == "" {
		output = fmt.Sprintf("salvaged_data_%s.json", cfg.Provider)
	}

	writer, err := store.NewRecordWriter(output)
	if err != nil {
		slog.Error("creating output writer", slog.Any("error", err))
		os.Exit(1)
	}

	// Persist the schema next to the output so the run is repeatable with
	// the same field layout.
	schemaPath := schemaSibling(output)
	if err := store.WriteJSONAtomic(schemaPath, analysis); err != nil {
		slog.Error("saving schema", slog.Any("error", err))
		os.Exit(1)
	}

	ledger, err := engine.ConvertAll(ctx, pages, analysis.Schema, writer)
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("conversion failed", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("salvage complete",
		slog.Int("converted", len(ledger.Succeeded)),
		slog.Int("failed", len(ledger.Failed)),
		slog.String("output", output),
		slog.String("schema", schemaPath),
	)
}

func logStatistics(pages []*models.PageRecord) {
	pagesWithTables := 0
	totalHeadings := 0
	for _, page := range pages {
		if len(page.Tables) > 0 {
			pagesWithTables++
		}
		totalHeadings += len(page.Headings)
	}

	slog.Info("loaded scraped data",
		slog.Int("pages", len(pages)),
		slog.String("first_url", pages[0].URL),
		slog.Int("pages_with_tables", pagesWithTables),
		slog.Int("total_headings", totalHeadings),
	)
}

// schemaSibling places the schema document beside the output file, named
// after it.
func schemaSibling(output string) string {
	dir := filepath.Dir(output)
	base := strings.TrimSuffix(filepath.Base(output), filepath.Ext(output))
	return filepath.Join(dir, base+"_schema.json")
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
