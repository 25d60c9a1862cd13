// Package reconcile derives listing lifecycle state by comparing a week's
// records against a bounded window of prior weeks in the same partition.
package reconcile

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/sil0410/rental-analysis-app/internal/ingest"
	"github.com/sil0410/rental-analysis-app/internal/models"
)

// RecordLoader loads the deduplicated record set for one partition week.
type RecordLoader interface {
	Load(ctx context.Context, q models.SourceQuery) ([]models.PropertyRecord, []*ingest.Report, error)
}

// WeekSource enumerates the ingested weeks strictly before a given week,
// most recent first, capped at n.
type WeekSource interface {
	PriorWeeks(week string, n int) []string
}

// Result is a reconciled week: the current records tagged with lifecycle
// state, plus the records that vanished since the most recent prior week.
type Result struct {
	Records []models.PropertyRecord `json:"records"`
	Reports []*ingest.Report        `json:"reports"`
}

// Engine computes lifecycle state. It holds no mutable state between calls;
// prior-week loads are cached only within a single reconciliation.
type Engine struct {
	loader   RecordLoader
	weeks    WeekSource
	lookback int
	logger   *logrus.Logger
}

func NewEngine(loader RecordLoader, weeks WeekSource, lookback int, logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &Engine{loader: loader, weeks: weeks, lookback: lookback, logger: logger}
}

// Reconcile loads the queried week and tags each record new, active, or
// inactive. A prior week that fails to load contributes an empty set; the
// current week is never dropped because history is unavailable.
func (e *Engine) Reconcile(ctx context.Context, q models.SourceQuery) (*Result, error) {
	current, reports, err := e.loader.Load(ctx, q)
	if err != nil {
		return nil, err
	}

	priors := e.weeks.PriorWeeks(q.WeekID, e.lookback)
	if len(priors) == 0 {
		for i := range current {
			markNew(&current[i], q.WeekID)
		}
		return &Result{Records: current, Reports: reports}, nil
	}

	// priorIDs[i] is the ID set for priors[i]; the most recent prior also
	// keeps full records so vanished listings can be reported with their
	// last known attributes.
	priorIDs := make([]map[string]struct{}, len(priors))
	var lastWeekRecords []models.PropertyRecord
	for i, week := range priors {
		records, _, err := e.loader.Load(ctx, q.WithWeek(week))
		if err != nil {
			e.logger.WithError(err).WithField("week", week).Warn("Failed to load prior week")
			priorIDs[i] = map[string]struct{}{}
			continue
		}
		ids := make(map[string]struct{}, len(records))
		for _, r := range records {
			ids[r.PropertyID] = struct{}{}
		}
		priorIDs[i] = ids
		if i == 0 {
			lastWeekRecords = records
		}
	}

	currentIDs := make(map[string]struct{}, len(current))
	for i := range current {
		r := &current[i]
		currentIDs[r.PropertyID] = struct{}{}

		appearances := 0
		firstSeen := q.WeekID
		for j, ids := range priorIDs {
			if _, ok := ids[r.PropertyID]; ok {
				appearances++
				// priors runs newest to oldest, so the last hit is the
				// earliest sighting inside the window.
				firstSeen = priors[j]
			}
		}
		if appearances == 0 {
			markNew(r, q.WeekID)
			continue
		}
		r.Status = models.StatusActive
		r.WeeksActive = appearances + 1
		r.FirstSeenWeek = firstSeen
	}

	for _, r := range lastWeekRecords {
		if _, ok := currentIDs[r.PropertyID]; ok {
			continue
		}
		r.Status = models.StatusInactive
		r.WeeksActive = 0
		r.DisappearedWeek = q.WeekID
		current = append(current, r)
	}

	return &Result{Records: current, Reports: reports}, nil
}

func markNew(r *models.PropertyRecord, week string) {
	r.Status = models.StatusNew
	r.WeeksActive = 1
	r.FirstSeenWeek = week
}
