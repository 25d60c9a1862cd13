package reconcile

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sil0410/rental-analysis-app/internal/ingest"
	"github.com/sil0410/rental-analysis-app/internal/models"
)

type fakeLoader struct {
	byWeek  map[string][]models.PropertyRecord
	failing map[string]bool
	calls   []string
}

func (f *fakeLoader) Load(ctx context.Context, q models.SourceQuery) ([]models.PropertyRecord, []*ingest.Report, error) {
	f.calls = append(f.calls, q.WeekID)
	if f.failing[q.WeekID] {
		return nil, nil, errors.New("load failed")
	}
	return f.byWeek[q.WeekID], nil, nil
}

type fakeWeeks struct {
	weeks []string
}

func (f *fakeWeeks) PriorWeeks(week string, n int) []string {
	var out []string
	for _, w := range f.weeks {
		if w >= week {
			continue
		}
		out = append(out, w)
	}
	// weeks are stored oldest first; flip to newest first and cap.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func rec(id string, week string) models.PropertyRecord {
	return models.PropertyRecord{PropertyID: id, UploadWeek: week, RentMonthly: 10000}
}

func newEngine(loader *fakeLoader, weeks *fakeWeeks) *Engine {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewEngine(loader, weeks, 10, logger)
}

func byID(records []models.PropertyRecord) map[string]models.PropertyRecord {
	out := make(map[string]models.PropertyRecord, len(records))
	for _, r := range records {
		out[r.PropertyID] = r
	}
	return out
}

func TestReconcile_FirstWeekAllNew(t *testing.T) {
	loader := &fakeLoader{byWeek: map[string][]models.PropertyRecord{
		"2604": {rec("1", "2604"), rec("2", "2604")},
	}}
	e := newEngine(loader, &fakeWeeks{})

	result, err := e.Reconcile(context.Background(), models.SourceQuery{WeekID: "2604"})
	require.NoError(t, err)
	require.Len(t, result.Records, 2)
	for _, r := range result.Records {
		assert.Equal(t, models.StatusNew, r.Status)
		assert.Equal(t, 1, r.WeeksActive)
		assert.Equal(t, "2604", r.FirstSeenWeek)
	}
}

func TestReconcile_Lifecycle(t *testing.T) {
	loader := &fakeLoader{byWeek: map[string][]models.PropertyRecord{
		"2602": {rec("stale", "2602"), rec("survivor", "2602")},
		"2603": {rec("survivor", "2603"), rec("vanishing", "2603")},
		"2604": {rec("survivor", "2604"), rec("fresh", "2604")},
	}}
	e := newEngine(loader, &fakeWeeks{weeks: []string{"2602", "2603"}})

	result, err := e.Reconcile(context.Background(), models.SourceQuery{WeekID: "2604"})
	require.NoError(t, err)

	records := byID(result.Records)
	require.Len(t, records, 3)

	survivor := records["survivor"]
	assert.Equal(t, models.StatusActive, survivor.Status)
	assert.Equal(t, 3, survivor.WeeksActive)
	assert.Equal(t, "2602", survivor.FirstSeenWeek)

	fresh := records["fresh"]
	assert.Equal(t, models.StatusNew, fresh.Status)
	assert.Equal(t, 1, fresh.WeeksActive)
	assert.Equal(t, "2604", fresh.FirstSeenWeek)

	vanishing := records["vanishing"]
	assert.Equal(t, models.StatusInactive, vanishing.Status)
	assert.Equal(t, 0, vanishing.WeeksActive)
	assert.Equal(t, "2604", vanishing.DisappearedWeek)
	assert.Equal(t, "2603", vanishing.UploadWeek)

	// "stale" vanished before the most recent prior week and is not
	// resurrected.
	_, present := records["stale"]
	assert.False(t, present)
}

func TestReconcile_GapInsideWindowStillCounts(t *testing.T) {
	loader := &fakeLoader{byWeek: map[string][]models.PropertyRecord{
		"2601": {rec("comeback", "2601")},
		"2603": {},
		"2604": {rec("comeback", "2604")},
	}}
	e := newEngine(loader, &fakeWeeks{weeks: []string{"2601", "2603"}})

	result, err := e.Reconcile(context.Background(), models.SourceQuery{WeekID: "2604"})
	require.NoError(t, err)

	records := byID(result.Records)
	comeback := records["comeback"]
	assert.Equal(t, models.StatusActive, comeback.Status)
	assert.Equal(t, 2, comeback.WeeksActive)
	assert.Equal(t, "2601", comeback.FirstSeenWeek)
}

func TestReconcile_PriorWeekFailureTreatedAsEmpty(t *testing.T) {
	loader := &fakeLoader{
		byWeek: map[string][]models.PropertyRecord{
			"2604": {rec("1", "2604")},
		},
		failing: map[string]bool{"2603": true},
	}
	e := newEngine(loader, &fakeWeeks{weeks: []string{"2603"}})

	result, err := e.Reconcile(context.Background(), models.SourceQuery{WeekID: "2604"})
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, models.StatusNew, result.Records[0].Status)
}

func TestReconcile_LookbackCapsWeeksLoaded(t *testing.T) {
	byWeek := map[string][]models.PropertyRecord{"2604": {rec("1", "2604")}}
	var all []string
	for _, w := range []string{"2540", "2541", "2542", "2543", "2544", "2545", "2546", "2547", "2548", "2549", "2550", "2551", "2552"} {
		byWeek[w] = nil
		all = append(all, w)
	}
	loader := &fakeLoader{byWeek: byWeek}

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	e := NewEngine(loader, &fakeWeeks{weeks: all}, 3, logger)

	_, err := e.Reconcile(context.Background(), models.SourceQuery{WeekID: "2604"})
	require.NoError(t, err)
	assert.Equal(t, []string{"2604", "2552", "2551", "2550"}, loader.calls)
}
