package version

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		date     time.Time
		expected string
	}{
		{
			name:     "Mid-year week",
			date:     time.Date(2026, 1, 19, 12, 0, 0, 0, time.UTC),
			expected: "2604",
		},
		{
			name:     "Single-digit week is zero padded",
			date:     time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
			expected: "2602",
		},
		{
			name:     "Early January can belong to previous ISO year",
			date:     time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
			expected: "2653",
		},
		{
			name:     "Late December can belong to next ISO year",
			date:     time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC),
			expected: "2501",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Format(tt.date))
		})
	}
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("2604"))
	assert.True(t, Valid("2653"))
	assert.False(t, Valid("2600"))
	assert.False(t, Valid("2654"))
	assert.False(t, Valid("260"))
	assert.False(t, Valid("26045"))
	assert.False(t, Valid("26ab"))
	assert.False(t, Valid(""))
}

func TestPrev(t *testing.T) {
	prev, err := Prev("2604")
	require.NoError(t, err)
	assert.Equal(t, "2603", prev)

	// Crossing a year boundary lands on the final week of the prior year.
	prev, err = Prev("2601")
	require.NoError(t, err)
	assert.Equal(t, "2552", prev)

	_, err = Prev("bogus")
	assert.Error(t, err)
}

func TestPriors(t *testing.T) {
	priors, err := Priors("2604", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"2603", "2602", "2601", "2552", "2551"}, priors)

	// Tokens stay lexicographically ordered, newest first.
	for i := 1; i < len(priors); i++ {
		assert.Less(t, priors[i], priors[i-1])
	}
}
