// Package version handles the YYWW week tokens used as the snapshot axis.
// The format is two-digit year followed by two-digit ISO week, zero padded,
// so tokens sort lexicographically in chronological order within a century.
package version

import (
	"fmt"
	"regexp"
	"time"
)

var weekPattern = regexp.MustCompile(`^\d{4}$`)

// Format renders the week token for a point in time.
func Format(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%02d%02d", year%100, week)
}

// Current returns the week token for now.
func Current() string {
	return Format(time.Now())
}

// Valid reports whether s is a well-formed week token.
func Valid(s string) bool {
	if !weekPattern.MatchString(s) {
		return false
	}
	week := int(s[2]-'0')*10 + int(s[3]-'0')
	return week >= 1 && week <= 53
}

// timeOf returns the Monday of the token's ISO week. Two-digit years are
// anchored to the 2000s, matching the data this system ingests.
func timeOf(s string) (time.Time, error) {
	if !Valid(s) {
		return time.Time{}, fmt.Errorf("invalid week token %q", s)
	}
	year := 2000 + int(s[0]-'0')*10 + int(s[1]-'0')
	week := int(s[2]-'0')*10 + int(s[3]-'0')

	// January 4th is always inside ISO week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	offset := (int(jan4.Weekday()) + 6) % 7 // days since Monday
	week1Monday := jan4.AddDate(0, 0, -offset)
	return week1Monday.AddDate(0, 0, (week-1)*7), nil
}

// Prev returns the token for the week before s.
func Prev(s string) (string, error) {
	t, err := timeOf(s)
	if err != nil {
		return "", err
	}
	return Format(t.AddDate(0, 0, -7)), nil
}

// Priors returns up to n week tokens older than s, most recent first.
func Priors(s string, n int) ([]string, error) {
	t, err := timeOf(s)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, Format(t.AddDate(0, 0, -7*i)))
	}
	return out, nil
}
