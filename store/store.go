// Package store persists crawl artifacts as human-readable JSON. Every
// document write is an atomic replace (temp file + rename) so an
// interrupted run never leaves a torn file behind.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aluiziolira/go-scrape-to-json/models"
)

const (
	htmlDirName = "html"
	jsonDirName = "json"

	pagesFile    = "scraped_data.json"
	progressFile = "crawl_progress.json"
	analysisFile = "schema_analysis.json"
)

// Store owns the output directory layout of one crawl session.
type Store struct {
	root    string
	htmlDir string
	jsonDir string
}

// New creates the output directory tree rooted at root.
func New(root string) (*Store, error) {
	s := &Store{
		root:    root,
		htmlDir: filepath.Join(root, htmlDirName),
		jsonDir: filepath.Join(root, jsonDirName),
	}
	for _, dir := range []string{root, s.htmlDir, s.jsonDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return s, nil
}

// SaveHTML writes the raw markup of one page, keyed by its URL hash, and
// returns the file path.
func (s *Store) SaveHTML(urlHash, html string) (string, error) {
	path := filepath.Join(s.htmlDir, urlHash+".html")
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		return "", fmt.Errorf("write html file: %w", err)
	}
	return path, nil
}

// SaveProgress overwrites the per-page crawl checkpoint.
func (s *Store) SaveProgress(progress models.CrawlProgress) error {
	return WriteJSONAtomic(filepath.Join(s.jsonDir, progressFile), progress)
}

// SavePages writes the full ordered PageRecord list.
func (s *Store) SavePages(pages []*models.PageRecord) error {
	return WriteJSONAtomic(s.PagesPath(), pages)
}

// SaveAnalysis writes the schema analysis object.
func (s *Store) SaveAnalysis(analysis models.Analysis) error {
	return WriteJSONAtomic(s.AnalysisPath(), analysis)
}

// PagesPath returns the location of the scraped data document.
func (s *Store) PagesPath() string {
	return filepath.Join(s.jsonDir, pagesFile)
}

// AnalysisPath returns the location of the schema analysis document.
func (s *Store) AnalysisPath() string {
	return filepath.Join(s.jsonDir, analysisFile)
}

// LoadPages reads an ordered PageRecord list written by SavePages.
func LoadPages(path string) ([]*models.PageRecord, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scraped data: %w", err)
	}
	var pages []*models.PageRecord
	if err := json.Unmarshal(raw, &pages); err != nil {
		return nil, fmt.Errorf("decode scraped data: %w", err)
	}
	return pages, nil
}

// WriteJSONAtomic marshals v with indentation and replaces path in one
// rename, never leaving a partially written document.
func WriteJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %q: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %q: %w", path, err)
	}
	return nil
}
