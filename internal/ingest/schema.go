package ingest

// schema maps each canonical field to the column names it may appear under,
// consulted in order. Source generations renamed several columns; the
// alternates keep older exports loadable.
var schema = map[string][]string{
	"property_id":       {"物件編號", "編號", "id"},
	"title":             {"標題"},
	"address":           {"地址"},
	"rent_monthly":      {"租金", "月租金"},
	"area":              {"坪數", "面積"},
	"room_type":         {"房型", "格局"},
	"floor":             {"樓層"},
	"latitude":          {"緯度"},
	"longitude":         {"經度"},
	"coordinates":       {"座標", "經緯度"},
	"renovation_status": {"裝修狀態"},
}

// Row is one parsed source row, keyed by header name.
type Row map[string]string

// Field returns the first non-empty value among the canonical field's
// column aliases.
func (r Row) Field(name string) string {
	for _, column := range schema[name] {
		if v, ok := r[column]; ok && v != "" {
			return v
		}
	}
	return ""
}
