package models

// SourceOrigin says where a source file's bytes live.
type SourceOrigin string

const (
	OriginLocal  SourceOrigin = "local"
	OriginRemote SourceOrigin = "remote"
)

// SourceDescriptor is the catalog entry for one physical source file.
// Descriptors are created by a rescan and fully replaced by the next one,
// never mutated incrementally.
type SourceDescriptor struct {
	Filename         string           `gorm:"primaryKey" json:"filename"`
	City             string           `gorm:"index" json:"city"`
	District         string           `gorm:"index" json:"district"`
	BuildingType     BuildingType     `json:"building_type"`
	PropertyCategory PropertyCategory `json:"property_category"`
	WeekID           string           `gorm:"index" json:"week_id"`
	RecordCount      int              `json:"record_count"`
	Origin           SourceOrigin     `json:"origin"`
	// RemoteHandle is the opaque fetch key for remote sources.
	RemoteHandle string `json:"remote_handle,omitempty"`
	// Fingerprint is the remote content checksum used to validate cache hits.
	Fingerprint string `json:"fingerprint,omitempty"`
	// LocalPath is set for local sources only.
	LocalPath string `json:"-"`
}

// VersionSnapshot registers one ingested week. Rows are upserted whenever a
// source contributing that week is scanned and deleted only by a full reset.
type VersionSnapshot struct {
	WeekID     string `gorm:"primaryKey" json:"week_id"`
	UploadDate string `json:"upload_date"`
}

// SourceQuery is an exact-match filter over the catalog's partition
// dimensions. Empty fields are unconstrained; "all" sentinels are normalized
// to empty before matching.
type SourceQuery struct {
	City             string
	District         string
	BuildingType     string
	PropertyCategory string
	WeekID           string
}

// WithWeek returns a copy of the query bound to another week. The
// reconciliation engine uses it to walk the lookback window over one
// partition.
func (q SourceQuery) WithWeek(weekID string) SourceQuery {
	q.WeekID = weekID
	return q
}
