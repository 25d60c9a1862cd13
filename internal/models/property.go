package models

// LifecycleStatus is the derived per-week state of a listing. It is computed
// by the reconciliation engine for the queried week and never persisted.
type LifecycleStatus string

const (
	StatusNew      LifecycleStatus = "new"
	StatusActive   LifecycleStatus = "active"
	StatusInactive LifecycleStatus = "inactive"
)

// BuildingType is the coarse building class derived from source naming.
type BuildingType string

const (
	BuildingApartment BuildingType = "apartment"
	BuildingElevator  BuildingType = "building"
	BuildingUnknown   BuildingType = "unknown"
)

// PropertyCategory is the coarse unit class, distinct from the free-text
// room type carried on each row.
type PropertyCategory string

const (
	CategoryStudio   PropertyCategory = "studio"
	CategoryFullUnit PropertyCategory = "full-unit"
	CategoryUnknown  PropertyCategory = "unknown"
)

// PropertyRecord is one listing observation within one upload week.
// Free-text fields are normalized to "" when absent, never nil.
type PropertyRecord struct {
	PropertyID       string           `json:"property_id"`
	Title            string           `json:"title"`
	Address          string           `json:"address"`
	City             string           `json:"city"`
	District         string           `json:"district"`
	RentMonthly      int              `json:"rent_monthly"`
	Area             float64          `json:"area"`
	RoomType         string           `json:"room_type"`
	Floor            string           `json:"floor"`
	Latitude         float64          `json:"latitude"`
	Longitude        float64          `json:"longitude"`
	BuildingType     BuildingType     `json:"building_type"`
	PropertyCategory PropertyCategory `json:"property_category"`
	RenovationStatus string           `json:"renovation_status"`
	UploadWeek       string           `json:"upload_week"`

	Status          LifecycleStatus `json:"status,omitempty"`
	WeeksActive     int             `json:"weeks_active"`
	FirstSeenWeek   string          `json:"first_seen_week,omitempty"`
	DisappearedWeek string          `json:"disappeared_week,omitempty"`

	// Distance from the query origin in meters, set by the geo filter.
	Distance *float64 `json:"distance,omitempty"`
}

// HasCoordinates reports whether the record carries a usable position.
// (0,0) is the "unknown" sentinel and must never reach a geo operation.
func (r *PropertyRecord) HasCoordinates() bool {
	return r.Latitude != 0 || r.Longitude != 0
}
