package models

// Summary aggregates the records surviving the distance filter. Rent and
// area statistics cover the non-inactive subset only; zero areas stay in the
// counts but are excluded from the area average's denominator.
type Summary struct {
	TotalProperties    int     `json:"total_properties"`
	ActiveProperties   int     `json:"active_properties"`
	InactiveProperties int     `json:"inactive_properties"`
	NewProperties      int     `json:"new_properties"`
	MinRent            int     `json:"min_rent"`
	MaxRent            int     `json:"max_rent"`
	AvgRent            float64 `json:"avg_rent"`
	AvgArea            float64 `json:"avg_area"`
}

// RoomTypeCount is one row of the descending-count room type breakdown.
type RoomTypeCount struct {
	RoomType string `json:"room_type"`
	Count    int    `json:"count"`
}
