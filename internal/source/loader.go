// Package source resolves catalog entries into normalized property records.
package source

import (
	"bytes"
	"context"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/sil0410/rental-analysis-app/internal/ingest"
	"github.com/sil0410/rental-analysis-app/internal/metadata"
	"github.com/sil0410/rental-analysis-app/internal/models"
)

// Catalog is the slice of the catalog service the loader depends on.
type Catalog interface {
	Query(q models.SourceQuery) []models.SourceDescriptor
}

// Loader turns a partition query into the partition's deduplicated record
// set. A failure reading one source never aborts the others; the failed
// source contributes nothing and the failure lands in its report.
type Loader struct {
	catalog    Catalog
	fetcher    *Fetcher
	normalizer *ingest.Normalizer
	extractor  *metadata.Extractor
	logger     *logrus.Logger
}

func NewLoader(catalog Catalog, fetcher *Fetcher, normalizer *ingest.Normalizer, extractor *metadata.Extractor, logger *logrus.Logger) *Loader {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &Loader{
		catalog:    catalog,
		fetcher:    fetcher,
		normalizer: normalizer,
		extractor:  extractor,
		logger:     logger,
	}
}

// Load resolves, reads, normalizes and deduplicates the records for q.
// When the district and week are both bound and a remote origin exists, the
// remote listing is consulted directly first, which tolerates a stale or
// incomplete catalog.
func (l *Loader) Load(ctx context.Context, q models.SourceQuery) ([]models.PropertyRecord, []*ingest.Report, error) {
	if l.fetcher.Remote() && q.District != "" && q.WeekID != "" {
		records, reports := l.loadDirectRemote(ctx, q)
		if len(records) > 0 {
			return dedupe(records), reports, nil
		}
	}

	descriptors := l.catalog.Query(q)
	var records []models.PropertyRecord
	var reports []*ingest.Report
	for _, desc := range descriptors {
		recs, report := l.loadDescriptor(ctx, desc)
		records = append(records, recs...)
		reports = append(reports, report)
	}
	return dedupe(records), reports, nil
}

// LoadIDs returns the set of natural keys present in the partition.
func (l *Loader) LoadIDs(ctx context.Context, q models.SourceQuery) (map[string]struct{}, error) {
	records, _, err := l.Load(ctx, q)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]struct{}, len(records))
	for _, r := range records {
		ids[r.PropertyID] = struct{}{}
	}
	return ids, nil
}

// loadDirectRemote matches the remote listing against the query dimensions
// without going through the catalog.
func (l *Loader) loadDirectRemote(ctx context.Context, q models.SourceQuery) ([]models.PropertyRecord, []*ingest.Report) {
	files, err := l.fetcher.ListRemote(ctx)
	if err != nil {
		l.logger.WithError(err).Warn("Remote listing failed; falling back to catalog")
		return nil, nil
	}

	var records []models.PropertyRecord
	var reports []*ingest.Report
	for _, f := range files {
		meta, err := l.extractor.Extract(f.Name, f.Path)
		if err != nil || !metaMatches(meta, q) {
			continue
		}
		report := ingest.NewReport(f.Name)
		reports = append(reports, report)

		data, err := l.fetcher.Fetch(ctx, f.Handle, f.Fingerprint)
		if err != nil {
			l.logger.WithError(err).WithField("source", f.Name).Warn("Failed to fetch remote source")
			report.LoadError = err.Error()
			continue
		}
		records = append(records, l.normalizeRows(data, meta, report)...)
	}
	return records, reports
}

func (l *Loader) loadDescriptor(ctx context.Context, desc models.SourceDescriptor) ([]models.PropertyRecord, *ingest.Report) {
	report := ingest.NewReport(desc.Filename)

	var data []byte
	var err error
	switch desc.Origin {
	case models.OriginLocal:
		data, err = os.ReadFile(desc.LocalPath)
	default:
		data, err = l.fetcher.Fetch(ctx, desc.RemoteHandle, desc.Fingerprint)
	}
	if err != nil {
		l.logger.WithError(err).WithField("source", desc.Filename).Warn("Failed to load source")
		report.LoadError = err.Error()
		return nil, report
	}

	meta := metadata.Meta{
		City:             desc.City,
		District:         desc.District,
		BuildingType:     desc.BuildingType,
		PropertyCategory: desc.PropertyCategory,
		WeekID:           desc.WeekID,
	}
	return l.normalizeRows(data, meta, report), report
}

func (l *Loader) normalizeRows(data []byte, meta metadata.Meta, report *ingest.Report) []models.PropertyRecord {
	rows, err := ingest.ReadRows(bytes.NewReader(data))
	if err != nil {
		l.logger.WithError(err).WithField("source", report.Source).Warn("Failed to parse source")
		report.LoadError = err.Error()
		return nil
	}

	records := make([]models.PropertyRecord, 0, len(rows))
	for _, row := range rows {
		outcome := l.normalizer.Normalize(row, meta)
		report.Add(outcome)
		if outcome.Record != nil {
			records = append(records, *outcome.Record)
		}
	}
	return records
}

func metaMatches(meta metadata.Meta, q models.SourceQuery) bool {
	if q.City != "" && meta.City != q.City {
		return false
	}
	if q.District != "" && meta.District != q.District {
		return false
	}
	if q.BuildingType != "" && string(meta.BuildingType) != q.BuildingType {
		return false
	}
	if q.PropertyCategory != "" && string(meta.PropertyCategory) != q.PropertyCategory {
		return false
	}
	return meta.WeekID == q.WeekID
}

// dedupe keeps the first occurrence per natural key, in source iteration
// order. Ordering is stable because the catalog returns descriptors sorted
// by filename.
func dedupe(records []models.PropertyRecord) []models.PropertyRecord {
	seen := make(map[string]struct{}, len(records))
	out := records[:0]
	for _, r := range records {
		if _, dup := seen[r.PropertyID]; dup {
			continue
		}
		seen[r.PropertyID] = struct{}{}
		out = append(out, r)
	}
	return out
}
