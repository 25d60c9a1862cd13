package ingest

import "github.com/sil0410/rental-analysis-app/internal/models"

// Skip reasons recorded in per-source ingestion reports.
const (
	SkipMissingID       = "missing_property_id"
	SkipNonPositiveRent = "non_positive_rent"
	SkipMissingAddress  = "missing_address"
)

// Outcome is the typed result of normalizing one row: either a record or a
// named skip reason. Row-level failures are data, not errors.
type Outcome struct {
	Record     *models.PropertyRecord
	SkipReason string
}

func ok(record *models.PropertyRecord) Outcome {
	return Outcome{Record: record}
}

func skipped(reason string) Outcome {
	return Outcome{SkipReason: reason}
}

// Report accumulates the outcomes for one source.
type Report struct {
	Source   string         `json:"source"`
	Imported int            `json:"imported"`
	Skipped  map[string]int `json:"skipped,omitempty"`
	// LoadError is set when the source's bytes could not be read at all;
	// the source then contributes zero records.
	LoadError string `json:"load_error,omitempty"`
}

func NewReport(source string) *Report {
	return &Report{Source: source, Skipped: make(map[string]int)}
}

// Add records one outcome.
func (r *Report) Add(o Outcome) {
	if o.Record != nil {
		r.Imported++
		return
	}
	r.Skipped[o.SkipReason]++
}
