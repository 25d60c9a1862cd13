// Package ingest turns raw tabular rows into canonical property records.
package ingest

import (
	"strconv"
	"strings"

	"github.com/sil0410/rental-analysis-app/internal/geo"
	"github.com/sil0410/rental-analysis-app/internal/metadata"
	"github.com/sil0410/rental-analysis-app/internal/models"
)

// Normalizer maps one raw row to a PropertyRecord, applying the schema
// alias table, type coercion, coordinate repair and validity filtering.
type Normalizer struct {
	coords *geo.Normalizer
}

func NewNormalizer(coords *geo.Normalizer) *Normalizer {
	return &Normalizer{coords: coords}
}

// Normalize builds a record from row within the partition described by meta.
// Rejected rows come back as skipped outcomes, never as errors.
func (n *Normalizer) Normalize(row Row, meta metadata.Meta) Outcome {
	id := normalizeID(row.Field("property_id"))
	if id == "" {
		return skipped(SkipMissingID)
	}

	rent := parseInt(row.Field("rent_monthly"))
	if rent <= 0 {
		return skipped(SkipNonPositiveRent)
	}

	address := enrichAddress(row.Field("address"), meta.City, meta.District)
	if address == "" {
		return skipped(SkipMissingAddress)
	}

	record := &models.PropertyRecord{
		PropertyID:       id,
		Title:            row.Field("title"),
		Address:          address,
		City:             meta.City,
		District:         meta.District,
		RentMonthly:      rent,
		Area:             parseFloat(row.Field("area")),
		RoomType:         row.Field("room_type"),
		Floor:            row.Field("floor"),
		BuildingType:     meta.BuildingType,
		PropertyCategory: meta.PropertyCategory,
		RenovationStatus: row.Field("renovation_status"),
		UploadWeek:       meta.WeekID,
	}
	record.Latitude, record.Longitude = n.resolveCoordinates(row)
	return ok(record)
}

// resolveCoordinates prefers explicit decimal columns; a combined
// coordinate-text column is the fallback. Both may fail, leaving the (0,0)
// sentinel in place.
func (n *Normalizer) resolveCoordinates(row Row) (float64, float64) {
	latText := row.Field("latitude")
	lonText := row.Field("longitude")
	if latText != "" && lonText != "" {
		lat, errLat := strconv.ParseFloat(latText, 64)
		lon, errLon := strconv.ParseFloat(lonText, 64)
		if errLat == nil && errLon == nil && (lat != 0 || lon != 0) {
			return lat, lon
		}
	}
	return n.coords.Normalize(row.Field("coordinates"))
}

// enrichAddress prepends the city when it is not already the address prefix
// and inserts the district when it appears nowhere in the result.
func enrichAddress(address, city, district string) string {
	if address == "" {
		return ""
	}
	if city != "" && !strings.HasPrefix(address, city) {
		address = city + address
	}
	if district != "" && !strings.Contains(address, district) {
		if city != "" && strings.HasPrefix(address, city) {
			address = city + district + strings.TrimPrefix(address, city)
		} else {
			address = district + address
		}
	}
	return address
}

// normalizeID trims the key and strips the ".0" tail float-typed exports
// leave on integer ids.
func normalizeID(id string) string {
	id = strings.TrimSpace(id)
	if strings.HasSuffix(id, ".0") {
		trimmed := strings.TrimSuffix(id, ".0")
		if _, err := strconv.Atoi(trimmed); err == nil {
			return trimmed
		}
	}
	return id
}

func parseInt(s string) int {
	if s == "" {
		return 0
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	// Some exports render rents as floats.
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}

func parseFloat(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}
