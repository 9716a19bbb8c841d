package models

import "time"

// MetadataKey is the reserved key under which provenance is attached to a
// converted record. It is distinct from any schema field by convention.
const MetadataKey = "_metadata"

// Provenance ties a converted record back to the page it came from.
type Provenance struct {
	SourceURL string    `json:"source_url"`
	Title     string    `json:"title"`
	FetchedAt time.Time `json:"scraped_at"`
	URLHash   string    `json:"url_hash"`
}

// StructuredRecord is one page reshaped to the inferred schema, plus the
// provenance block under MetadataKey.
type StructuredRecord map[string]any

// ConversionLedger tracks the outcome of a conversion run. Every input page
// ends up in exactly one of Succeeded or Failed.
type ConversionLedger struct {
	Succeeded []StructuredRecord
	Failed    []string
}

// Attach stores prov under the reserved metadata key.
func (r StructuredRecord) Attach(prov Provenance) {
	r[MetadataKey] = prov
}
