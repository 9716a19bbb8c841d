package store

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aluiziolira/go-scrape-to-json/models"
)

// RecordWriter is the output sink for converted records. Each Flush
// overwrites the whole document, so the file is a valid JSON array after
// every checkpoint.
type RecordWriter struct {
	path string
}

// NewRecordWriter prepares a sink at path.
func NewRecordWriter(path string) (*RecordWriter, error) {
	if path == "" {
		return nil, fmt.Errorf("record writer path cannot be empty")
	}
	return &RecordWriter{path: path}, nil
}

// Flush replaces the output file with the full record list.
func (w *RecordWriter) Flush(records []models.StructuredRecord) error {
	if records == nil {
		records = []models.StructuredRecord{}
	}
	return WriteJSONAtomic(w.path, records)
}

// Path returns the sink location.
func (w *RecordWriter) Path() string {
	return w.path
}

// LoadRecords reads back a record list written by Flush.
func LoadRecords(path string) ([]models.StructuredRecord, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	var records []models.StructuredRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return records, nil
}
