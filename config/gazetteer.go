package config

import (
	"sort"
	"strings"

	"github.com/paulmach/orb"

	"github.com/sil0410/rental-analysis-app/internal/models"
)

// TaiwanBound is the default plausibility window for repaired coordinates,
// expressed as (lon, lat) min/max corners. Values outside it are rejected by
// the coordinate normalizer.
var TaiwanBound = orb.Bound{
	Min: orb.Point{119.0, 21.5},
	Max: orb.Point{122.5, 25.5},
}

// CityAliases maps every accepted spelling of a municipality to its
// canonical form. 臺北市 is the historical spelling of 台北市; both must
// resolve to one name.
var CityAliases = map[string]string{
	"台北市": "台北市",
	"臺北市": "台北市",
	"新北市": "新北市",
	"桃園市": "桃園市",
	"基隆市": "基隆市",
}

// districtNames lists the canonical district names covered by the corpus.
// Abbreviated forms (the name without the trailing 區) are derived below.
var districtNames = []string{
	// 新北市
	"中和區", "永和區", "板橋區", "新店區", "土城區",
	"三重區", "新莊區", "蘆洲區", "汐止區", "淡水區",
	// 台北市
	"中正區", "大同區", "中山區", "松山區", "大安區",
	"萬華區", "信義區", "士林區", "北投區", "內湖區",
	"南港區", "文山區",
}

// KeywordRule maps a substring to a classification value. Rules are checked
// in order; the first match wins.
type KeywordRule struct {
	Keyword string
	Value   string
}

// BuildingKeywords classifies the building dimension from source naming.
// Longer keywords precede their substrings: 電梯大樓 must beat 大樓, and
// 無電梯 must beat 電梯.
var BuildingKeywords = []KeywordRule{
	{Keyword: "電梯大樓", Value: string(models.BuildingElevator)},
	{Keyword: "無電梯", Value: string(models.BuildingApartment)},
	{Keyword: "電梯", Value: string(models.BuildingElevator)},
	{Keyword: "大樓", Value: string(models.BuildingElevator)},
	{Keyword: "公寓", Value: string(models.BuildingApartment)},
}

// UnitKeywords classifies the unit dimension from source naming.
var UnitKeywords = []KeywordRule{
	{Keyword: "套房", Value: string(models.CategoryStudio)},
	{Keyword: "雅房", Value: string(models.CategoryStudio)},
	{Keyword: "整層住家", Value: string(models.CategoryFullUnit)},
	{Keyword: "整層", Value: string(models.CategoryFullUnit)},
	{Keyword: "整棟", Value: string(models.CategoryFullUnit)},
}

// Gazetteer bundles the classification tables consumed by the metadata
// extractor and record normalizer. Tables are explicit configuration so they
// can be extended without touching parsing logic.
type Gazetteer struct {
	cityAliases      map[string]string
	districtAliases  []districtAlias // sorted longest alias first
	buildingKeywords []KeywordRule
	unitKeywords     []KeywordRule
}

type districtAlias struct {
	Alias     string
	Canonical string
}

// DefaultGazetteer builds the gazetteer from the package tables.
func DefaultGazetteer() *Gazetteer {
	aliases := make([]districtAlias, 0, len(districtNames)*2)
	for _, name := range districtNames {
		aliases = append(aliases, districtAlias{Alias: name, Canonical: name})
		short := strings.TrimSuffix(name, "區")
		if short != name {
			aliases = append(aliases, districtAlias{Alias: short, Canonical: name})
		}
	}
	// Longest-match-first so 中和區 beats 中和 and neither shadows a longer
	// name that happens to contain it.
	sort.SliceStable(aliases, func(i, j int) bool {
		return len(aliases[i].Alias) > len(aliases[j].Alias)
	})

	return &Gazetteer{
		cityAliases:      CityAliases,
		districtAliases:  aliases,
		buildingKeywords: BuildingKeywords,
		unitKeywords:     UnitKeywords,
	}
}

// CanonicalCity resolves a municipality spelling to its canonical form.
// The second return is false for unknown cities.
func (g *Gazetteer) CanonicalCity(name string) (string, bool) {
	canonical, ok := g.cityAliases[name]
	return canonical, ok
}

// SameCity reports whether two spellings name the same municipality.
func (g *Gazetteer) SameCity(a, b string) bool {
	ca, okA := g.CanonicalCity(a)
	cb, okB := g.CanonicalCity(b)
	if okA && okB {
		return ca == cb
	}
	return a == b
}

// MatchCityPrefix finds the municipality whose name (in any spelling)
// prefixes s, returning the canonical form.
func (g *Gazetteer) MatchCityPrefix(s string) (string, bool) {
	for alias, canonical := range g.cityAliases {
		if strings.HasPrefix(s, alias) {
			return canonical, true
		}
	}
	return "", false
}

// FindDistrict searches s for a known district name, longest match first,
// and returns the canonical full form.
func (g *Gazetteer) FindDistrict(s string) (string, bool) {
	for _, d := range g.districtAliases {
		if strings.Contains(s, d.Alias) {
			return d.Canonical, true
		}
	}
	return "", false
}

// CanonicalDistrict resolves an exact district spelling (full or
// abbreviated) to the canonical full form.
func (g *Gazetteer) CanonicalDistrict(name string) (string, bool) {
	for _, d := range g.districtAliases {
		if d.Alias == name {
			return d.Canonical, true
		}
	}
	return "", false
}

// ClassifyBuilding matches s against the building keyword set.
func (g *Gazetteer) ClassifyBuilding(s string) models.BuildingType {
	for _, rule := range g.buildingKeywords {
		if strings.Contains(s, rule.Keyword) {
			return models.BuildingType(rule.Value)
		}
	}
	return models.BuildingUnknown
}

// ClassifyUnit matches s against the unit keyword set.
func (g *Gazetteer) ClassifyUnit(s string) models.PropertyCategory {
	for _, rule := range g.unitKeywords {
		if strings.Contains(s, rule.Keyword) {
			return models.PropertyCategory(rule.Value)
		}
	}
	return models.CategoryUnknown
}
