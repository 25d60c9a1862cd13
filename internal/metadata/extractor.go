// Package metadata derives partition dimensions from source naming. It is
// pure text processing: deterministic, no I/O.
package metadata

import (
	"errors"
	"regexp"
	"strings"

	"github.com/sil0410/rental-analysis-app/config"
	"github.com/sil0410/rental-analysis-app/internal/models"
	"github.com/sil0410/rental-analysis-app/internal/version"
)

// ErrWeekUnresolved marks a source whose name carries no week token. The
// catalog quarantines such sources instead of guessing a week for them.
var ErrWeekUnresolved = errors.New("metadata: no resolvable week token")

// weekPattern matches the 4-digit group immediately preceding .csv, with an
// optional _merged suffix in between.
var weekPattern = regexp.MustCompile(`(\d{4})(?:_merged)?\.csv$`)

// Meta is the partition metadata extracted from one source's naming.
type Meta struct {
	City             string
	District         string
	BuildingType     models.BuildingType
	PropertyCategory models.PropertyCategory
	WeekID           string
}

// Extractor resolves filenames (and optional path hints) against the
// configured gazetteer and keyword tables.
type Extractor struct {
	gaz *config.Gazetteer
}

func NewExtractor(gaz *config.Gazetteer) *Extractor {
	return &Extractor{gaz: gaz}
}

// Extract derives partition metadata from filename, letting a hierarchical
// pathHint (city/district/filename) override filename-derived values. When
// no week token resolves, the remaining dimensions are still returned
// together with ErrWeekUnresolved so the caller can quarantine the source
// rather than mis-file it.
func (e *Extractor) Extract(filename, pathHint string) (Meta, error) {
	meta := Meta{
		BuildingType:     e.gaz.ClassifyBuilding(filename),
		PropertyCategory: e.gaz.ClassifyUnit(filename),
	}

	if district, ok := e.gaz.FindDistrict(filename); ok {
		meta.District = district
	}
	if city, ok := e.gaz.MatchCityPrefix(filename); ok {
		meta.City = city
	}

	// Path-derived values win over filename-derived ones.
	if pathHint != "" {
		e.applyPathHint(&meta, pathHint)
	}

	if m := weekPattern.FindStringSubmatch(filename); m != nil && version.Valid(m[1]) {
		meta.WeekID = m[1]
		return meta, nil
	}
	return meta, ErrWeekUnresolved
}

func (e *Extractor) applyPathHint(meta *Meta, pathHint string) {
	segments := strings.Split(strings.Trim(pathHint, "/"), "/")
	// The final segment is the filename itself; everything before it is the
	// city/district hierarchy.
	if len(segments) > 0 && strings.HasSuffix(segments[len(segments)-1], ".csv") {
		segments = segments[:len(segments)-1]
	}
	for _, seg := range segments {
		if city, ok := e.gaz.CanonicalCity(seg); ok {
			meta.City = city
			continue
		}
		if district, ok := e.gaz.CanonicalDistrict(seg); ok {
			meta.District = district
		}
	}
}
