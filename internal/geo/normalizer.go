// Package geo repairs raw coordinate text and provides the distance
// primitives used by the proximity filter.
package geo

import (
	"math"
	"regexp"
	"strconv"

	"github.com/paulmach/orb"
)

var (
	dmsPattern    = regexp.MustCompile(`(\d+)°(\d+)'([\d.]+)"\s*([NSEW])`)
	numberPattern = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
)

// Normalizer converts raw coordinate text (degree-minute-second or loose
// decimal pairs) into validated decimal degrees. It fails soft: any
// unparseable input yields (0,0), never an error.
type Normalizer struct {
	bound orb.Bound
}

// NewNormalizer builds a normalizer that accepts decimal pairs inside the
// given (lon, lat) plausibility bound.
func NewNormalizer(bound orb.Bound) *Normalizer {
	return &Normalizer{bound: bound}
}

// Normalize parses raw into (lat, lon). DMS notation is tried first; when
// that fails, any two numeric substrings are tried in both orderings against
// the plausibility bound.
func (n *Normalizer) Normalize(raw string) (float64, float64) {
	if lat, lon, ok := n.parseDMS(raw); ok {
		return lat, lon
	}
	if lat, lon, ok := n.parseDecimalPair(raw); ok {
		return lat, lon
	}
	return 0, 0
}

// parseDMS expects exactly one N/S and one E/W component; anything else
// falls through to the decimal-pair path.
func (n *Normalizer) parseDMS(raw string) (float64, float64, bool) {
	matches := dmsPattern.FindAllStringSubmatch(raw, -1)
	if len(matches) < 2 {
		return 0, 0, false
	}

	var lat, lon float64
	var haveLat, haveLon bool
	for _, m := range matches {
		deg, errD := strconv.ParseFloat(m[1], 64)
		min, errM := strconv.ParseFloat(m[2], 64)
		sec, errS := strconv.ParseFloat(m[3], 64)
		if errD != nil || errM != nil || errS != nil {
			return 0, 0, false
		}
		value := deg + min/60 + sec/3600
		switch m[4] {
		case "N", "S":
			if haveLat {
				return 0, 0, false
			}
			if m[4] == "S" {
				value = -value
			}
			lat, haveLat = value, true
		case "E", "W":
			if haveLon {
				return 0, 0, false
			}
			if m[4] == "W" {
				value = -value
			}
			lon, haveLon = value, true
		}
	}
	if !haveLat || !haveLon {
		return 0, 0, false
	}
	return round6(lat), round6(lon), true
}

// parseDecimalPair scans every numeric substring for a pair that fits the
// plausibility bound in either ordering. Stray numbers (house numbers, floor
// counts) are skipped over rather than poisoning the parse.
func (n *Normalizer) parseDecimalPair(raw string) (float64, float64, bool) {
	tokens := numberPattern.FindAllString(raw, -1)
	values := make([]float64, 0, len(tokens))
	for _, tok := range tokens {
		if v, err := strconv.ParseFloat(tok, 64); err == nil {
			values = append(values, v)
		}
	}
	for i := 0; i < len(values); i++ {
		for j := i + 1; j < len(values); j++ {
			if n.plausible(values[i], values[j]) {
				return values[i], values[j], true
			}
			if n.plausible(values[j], values[i]) {
				return values[j], values[i], true
			}
		}
	}
	return 0, 0, false
}

func (n *Normalizer) plausible(lat, lon float64) bool {
	return lat >= n.bound.Min.Y() && lat <= n.bound.Max.Y() &&
		lon >= n.bound.Min.X() && lon <= n.bound.Max.X()
}

// round6 keeps ~0.11 m of precision, enough for listing positions.
func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
