// Package config holds crawl and conversion configuration.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config holds every tunable for a crawl-and-convert run.
type Config struct {
	// Crawl options.
	BaseURL         string
	OutputDir       string
	MaxDepth        int
	MaxPages        int
	SameDomainOnly  bool
	Delay           time.Duration
	Timeout         time.Duration
	IncludePatterns []string
	ExcludePatterns []string
	UserAgent       string
	Render          bool

	// Conversion options.
	Provider        string
	Model           string
	APIKey          string
	MaxTokens       int
	BatchSize       int
	ConversionDelay time.Duration
	GenerateTimeout time.Duration
	SchemaFile      string
	SkipConversion  bool
	OutputFile      string

	MetricsAddr string
	Verbose     bool
}

// DefaultConfig returns conservative defaults matching the documented CLI.
func DefaultConfig() *Config {
	return &Config{
		OutputDir:       "./scraped_data",
		MaxDepth:        3,
		MaxPages:        100,
		SameDomainOnly:  true,
		Delay:           1 * time.Second,
		Timeout:         60 * time.Second,
		UserAgent:       "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		Provider:        "gemini",
		MaxTokens:       4000,
		BatchSize:       5,
		ConversionDelay: 2 * time.Second,
		GenerateTimeout: 90 * time.Second,
		OutputFile:      "structured_data.json",
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}

	if c.OutputDir == "" {
		return fmt.Errorf("output directory cannot be empty")
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("max depth cannot be negative")
	}
	if c.MaxPages <= 0 {
		return fmt.Errorf("max pages must be positive")
	}
	if c.Delay < 0 {
		return fmt.Errorf("delay cannot be negative")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if strings.TrimSpace(c.Provider) == "" {
		return fmt.Errorf("provider cannot be empty")
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max tokens must be positive")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}
	if c.ConversionDelay < 0 {
		return fmt.Errorf("conversion delay cannot be negative")
	}
	if c.GenerateTimeout <= 0 {
		return fmt.Errorf("generate timeout must be positive")
	}
	if c.OutputFile == "" {
		return fmt.Errorf("output file cannot be empty")
	}

	return nil
}
