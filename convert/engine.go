package convert

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aluiziolira/go-scrape-to-json/models"
)

// conversionTextLimit bounds the page text carried per conversion prompt,
// in runes.
const conversionTextLimit = 8000

// Sink receives the full succeeded slice on every checkpoint. Each call
// replaces the previous output entirely, so an interrupted run always
// leaves a readable artifact behind.
type Sink interface {
	Flush(records []models.StructuredRecord) error
}

// Engine converts crawled pages into structured records one at a time, in
// input order, checkpointing through the sink as it goes.
type Engine struct {
	gen       Generator
	batchSize int
	delay     time.Duration
	timeout   time.Duration
	maxTokens int
	Metrics   *Metrics
}

// NewEngine builds a conversion engine around a generation backend.
func NewEngine(gen Generator, batchSize int, delay, timeout time.Duration, maxTokens int) *Engine {
	if batchSize <= 0 {
		batchSize = 1
	}
	return &Engine{
		gen:       gen,
		batchSize: batchSize,
		delay:     delay,
		timeout:   timeout,
		maxTokens: maxTokens,
		Metrics:   NewMetrics(),
	}
}

// ConvertAll converts every page against the schema, strictly in input
// order. A failed page lands in the ledger's Failed list and the loop moves
// on. Cancellation flushes whatever has succeeded so far and returns the
// partial ledger with ctx's error.
func (e *Engine) ConvertAll(ctx context.Context, pages []*models.PageRecord, schema map[string]any, sink Sink) (*models.ConversionLedger, error) {
	slog.Info("converting pages to structured records",
		slog.Int("pages", len(pages)),
		slog.String("provider", e.gen.Name()),
	)

	ledger := &models.ConversionLedger{}

	for i, page := range pages {
		if ctx.Err() != nil {
			if err := sink.Flush(ledger.Succeeded); err != nil {
				slog.Error("final flush after cancellation failed", slog.Any("error", err))
			}
			return ledger, ctx.Err()
		}

		slog.Info("converting page",
			slog.Int("index", i+1),
			slog.Int("total", len(pages)),
			slog.String("url", page.URL),
		)

		record, err := e.convertPage(ctx, page, schema)
		if err != nil {
			ledger.Failed = append(ledger.Failed, page.URL)
			e.Metrics.IncFailed()
			slog.Error("page conversion failed", slog.String("url", page.URL), slog.Any("error", err))
		} else {
			record.Attach(models.Provenance{
				SourceURL: page.URL,
				Title:     page.Title,
				FetchedAt: page.FetchedAt,
				URLHash:   page.URLHash,
			})
			ledger.Succeeded = append(ledger.Succeeded, record)
			e.Metrics.IncConverted()
		}

		if (i+1)%e.batchSize == 0 {
			if err := sink.Flush(ledger.Succeeded); err != nil {
				return ledger, fmt.Errorf("flushing conversion checkpoint: %w", err)
			}
			slog.Info("conversion checkpoint saved", slog.Int("converted", len(ledger.Succeeded)))
		}

		if i < len(pages)-1 {
			if !e.rateLimitSleep(ctx) {
				if err := sink.Flush(ledger.Succeeded); err != nil {
					slog.Error("final flush after cancellation failed", slog.Any("error", err))
				}
				return ledger, ctx.Err()
			}
		}
	}

	if err := sink.Flush(ledger.Succeeded); err != nil {
		return ledger, fmt.Errorf("flushing conversion output: %w", err)
	}

	slog.Info("conversion complete",
		slog.Int("converted", len(ledger.Succeeded)),
		slog.Int("failed", len(ledger.Failed)),
	)
	for _, url := range ledger.Failed {
		slog.Warn("page left unconverted", slog.String("url", url))
	}

	return ledger, nil
}

// convertPage asks the backend to reshape one page against the schema.
func (e *Engine) convertPage(ctx context.Context, page *models.PageRecord, schema map[string]any) (models.StructuredRecord, error) {
	prompt := buildConversionPrompt(page, schema)

	callCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	reply, err := e.gen.Generate(callCtx, prompt, e.maxTokens)
	e.Metrics.ObserveGenerate(time.Since(start))
	if err != nil {
		return nil, err
	}

	obj, err := DecodeObject(reply)
	if err != nil {
		slog.Error("unparseable conversion reply",
			slog.String("url", page.URL),
			slog.String("reply", truncateRunes(reply, 500)),
		)
		return nil, err
	}
	return models.StructuredRecord(obj), nil
}

func buildConversionPrompt(page *models.PageRecord, schema map[string]any) string {
	var b strings.Builder

	b.WriteString("Convert the following webpage content into structured JSON data according to the provided schema.\n\n")
	fmt.Fprintf(&b, "TARGET SCHEMA:\n%s\n\n", mustJSON(schema))
	fmt.Fprintf(&b, "WEBPAGE DATA:\nURL: %s\nTitle: %s\n\n", page.URL, page.Title)
	fmt.Fprintf(&b, "Headings:\n%s\n\n", mustJSON(page.Headings))

	if len(page.Tables) > 0 {
		fmt.Fprintf(&b, "\nTables:\n%s\n", mustJSON(page.Tables))
	}

	fmt.Fprintf(&b, "\nText Content:\n%s\n\n", truncateRunes(page.TextContent, conversionTextLimit))

	b.WriteString(`
Extract and structure the data according to the schema. Return ONLY a valid JSON object that follows the schema, no other text.
If certain fields cannot be extracted, use null or appropriate empty values.
`)

	return b.String()
}

type sinkFunc func(records []models.StructuredRecord) error

// SinkFunc adapts a plain function to the Sink interface.
func SinkFunc(fn func(records []models.StructuredRecord) error) Sink {
	return sinkFunc(fn)
}

func (fn sinkFunc) Flush(records []models.StructuredRecord) error {
	return fn(records)
}

// rateLimitSleep waits the configured inter-call delay. It reports false if
// ctx was cancelled while waiting.
func (e *Engine) rateLimitSleep(ctx context.Context) bool {
	if e.delay <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(e.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
