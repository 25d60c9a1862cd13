// Package analysis filters reconciled records by distance and aggregates
// them into summary statistics.
package analysis

import (
	"sort"

	"github.com/sil0410/rental-analysis-app/internal/geo"
	"github.com/sil0410/rental-analysis-app/internal/models"
)

// FilterByDistance keeps the records within [minDist, maxDist] meters of the
// origin, both bounds inclusive, and annotates each with its distance.
// Records carrying the (0,0) coordinate sentinel are excluded regardless of
// where the origin is; they have no position, not a position off the coast
// of Africa.
func FilterByDistance(records []models.PropertyRecord, originLat, originLon, minDist, maxDist float64) []models.PropertyRecord {
	out := make([]models.PropertyRecord, 0, len(records))
	for _, r := range records {
		if !r.HasCoordinates() {
			continue
		}
		d := geo.Haversine(originLat, originLon, r.Latitude, r.Longitude)
		if d < minDist || d > maxDist {
			continue
		}
		dist := d
		r.Distance = &dist
		out = append(out, r)
	}
	return out
}

// FilterByRoomType keeps the records whose free-text room type exactly
// matches want. An empty want keeps everything.
func FilterByRoomType(records []models.PropertyRecord, want string) []models.PropertyRecord {
	if want == "" {
		return records
	}
	out := make([]models.PropertyRecord, 0, len(records))
	for _, r := range records {
		if r.RoomType == want {
			out = append(out, r)
		}
	}
	return out
}

// Summarize computes the summary statistics and the room type breakdown for
// a filtered record set. Inactive records count toward the totals but are
// excluded from rent and area statistics and from the breakdown; a vanished
// listing's last known rent is history, not market state.
func Summarize(records []models.PropertyRecord) (models.Summary, []models.RoomTypeCount) {
	var s models.Summary
	s.TotalProperties = len(records)

	var rentSum, rentCount int
	var areaSum float64
	var areaCount int
	counts := map[string]int{}
	var order []string

	for _, r := range records {
		switch r.Status {
		case models.StatusInactive:
			s.InactiveProperties++
			continue
		case models.StatusNew:
			s.NewProperties++
		case models.StatusActive:
			s.ActiveProperties++
		}

		if s.MinRent == 0 || r.RentMonthly < s.MinRent {
			s.MinRent = r.RentMonthly
		}
		if r.RentMonthly > s.MaxRent {
			s.MaxRent = r.RentMonthly
		}
		rentSum += r.RentMonthly
		rentCount++
		if r.Area > 0 {
			areaSum += r.Area
			areaCount++
		}

		if r.RoomType != "" {
			if _, seen := counts[r.RoomType]; !seen {
				order = append(order, r.RoomType)
			}
			counts[r.RoomType]++
		}
	}

	if rentCount > 0 {
		s.AvgRent = float64(rentSum) / float64(rentCount)
	}
	if areaCount > 0 {
		s.AvgArea = areaSum / float64(areaCount)
	}

	breakdown := make([]models.RoomTypeCount, 0, len(order))
	for _, rt := range order {
		breakdown = append(breakdown, models.RoomTypeCount{RoomType: rt, Count: counts[rt]})
	}
	// Descending by count; first-encountered order breaks ties.
	sort.SliceStable(breakdown, func(i, j int) bool {
		return breakdown[i].Count > breakdown[j].Count
	})
	return s, breakdown
}
