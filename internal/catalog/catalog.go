// Package catalog maintains the source inventory: which CSV files exist,
// locally and remotely, and which partition each one belongs to.
package catalog

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sil0410/rental-analysis-app/config"
	"github.com/sil0410/rental-analysis-app/internal/drive"
	"github.com/sil0410/rental-analysis-app/internal/ingest"
	"github.com/sil0410/rental-analysis-app/internal/metadata"
	"github.com/sil0410/rental-analysis-app/internal/models"
	"github.com/sil0410/rental-analysis-app/internal/source"
	"github.com/sil0410/rental-analysis-app/internal/version"
)

// RescanReport summarizes one inventory rebuild.
type RescanReport struct {
	LocalSources  int      `json:"local_sources"`
	RemoteSources int      `json:"remote_sources"`
	Quarantined   []string `json:"quarantined,omitempty"`
	Weeks         []string `json:"weeks"`
}

// Status is the admin view of the catalog's persistent state.
type Status struct {
	SourceCount  int    `json:"source_count"`
	VersionCount int    `json:"version_count"`
	LatestWeek   string `json:"latest_week,omitempty"`
}

// Service owns the descriptor inventory. Reads go against an immutable
// in-memory snapshot swapped atomically by Rescan; the database carries the
// inventory across restarts.
type Service struct {
	db        *gorm.DB
	extractor *metadata.Extractor
	gaz       *config.Gazetteer
	fetcher   *source.Fetcher
	localDir  string
	logger    *logrus.Logger

	snapshot atomic.Pointer[[]models.SourceDescriptor]
}

func NewService(db *gorm.DB, extractor *metadata.Extractor, gaz *config.Gazetteer, fetcher *source.Fetcher, localDir string, logger *logrus.Logger) (*Service, error) {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if err := db.AutoMigrate(&models.SourceDescriptor{}, &models.VersionSnapshot{}); err != nil {
		return nil, fmt.Errorf("failed to migrate catalog schema: %w", err)
	}

	s := &Service{
		db:        db,
		extractor: extractor,
		gaz:       gaz,
		fetcher:   fetcher,
		localDir:  localDir,
		logger:    logger,
	}

	var persisted []models.SourceDescriptor
	if err := db.Order("filename").Find(&persisted).Error; err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	s.snapshot.Store(&persisted)
	return s, nil
}

// Rescan rebuilds the inventory from the local upload directory and the
// remote listing, replacing the previous inventory wholesale. Sources whose
// naming yields no week are quarantined: logged, reported, and excluded,
// never filed under a guessed week. Rescan is idempotent.
func (s *Service) Rescan(ctx context.Context) (*RescanReport, error) {
	report := &RescanReport{}
	var descriptors []models.SourceDescriptor
	weeks := map[string]struct{}{}

	localNames := map[string]struct{}{}
	if err := s.scanLocal(report, &descriptors, weeks, localNames); err != nil {
		return nil, err
	}
	if err := s.scanRemote(ctx, report, &descriptors, weeks, localNames); err != nil {
		s.logger.WithError(err).Warn("Remote scan failed; keeping local inventory only")
	}

	sort.Slice(descriptors, func(i, j int) bool {
		return descriptors[i].Filename < descriptors[j].Filename
	})

	today := time.Now().Format("2006-01-02")
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.SourceDescriptor{}).Error; err != nil {
			return err
		}
		if len(descriptors) > 0 {
			if err := tx.Create(&descriptors).Error; err != nil {
				return err
			}
		}
		for week := range weeks {
			snapshot := models.VersionSnapshot{WeekID: week, UploadDate: today}
			// Re-scanning a week keeps its original upload date.
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&snapshot).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist catalog: %w", err)
	}

	s.snapshot.Store(&descriptors)

	for week := range weeks {
		report.Weeks = append(report.Weeks, week)
	}
	sort.Strings(report.Weeks)
	s.logger.WithFields(logrus.Fields{
		"local":       report.LocalSources,
		"remote":      report.RemoteSources,
		"quarantined": len(report.Quarantined),
		"weeks":       len(report.Weeks),
	}).Info("Catalog rescan complete")
	return report, nil
}

func (s *Service) scanLocal(report *RescanReport, descriptors *[]models.SourceDescriptor, weeks map[string]struct{}, localNames map[string]struct{}) error {
	entries, err := os.ReadDir(s.localDir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read upload dir: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, "_converted.csv") {
			continue
		}
		meta, err := s.extractor.Extract(name, "")
		if err != nil {
			s.logger.WithError(err).WithField("source", name).Warn("Quarantined source")
			report.Quarantined = append(report.Quarantined, name)
			continue
		}

		path := filepath.Join(s.localDir, name)
		*descriptors = append(*descriptors, models.SourceDescriptor{
			Filename:         name,
			City:             meta.City,
			District:         meta.District,
			BuildingType:     meta.BuildingType,
			PropertyCategory: meta.PropertyCategory,
			WeekID:           meta.WeekID,
			RecordCount:      s.countLocalRows(path),
			Origin:           models.OriginLocal,
			LocalPath:        path,
		})
		weeks[meta.WeekID] = struct{}{}
		localNames[name] = struct{}{}
		report.LocalSources++
	}
	return nil
}

func (s *Service) scanRemote(ctx context.Context, report *RescanReport, descriptors *[]models.SourceDescriptor, weeks map[string]struct{}, localNames map[string]struct{}) error {
	if !s.fetcher.Remote() {
		return nil
	}
	files, err := s.fetcher.ListRemote(ctx)
	if err != nil {
		return err
	}

	for _, f := range files {
		// A local copy shadows the remote original.
		if _, ok := localNames[f.Name]; ok {
			continue
		}
		meta, err := s.extractor.Extract(f.Name, f.Path)
		if err != nil {
			s.logger.WithError(err).WithField("source", f.Name).Warn("Quarantined source")
			report.Quarantined = append(report.Quarantined, f.Name)
			continue
		}

		*descriptors = append(*descriptors, models.SourceDescriptor{
			Filename:         f.Name,
			City:             meta.City,
			District:         meta.District,
			BuildingType:     meta.BuildingType,
			PropertyCategory: meta.PropertyCategory,
			WeekID:           meta.WeekID,
			RecordCount:      s.countRemoteRows(ctx, f),
			Origin:           models.OriginRemote,
			RemoteHandle:     f.Handle,
			Fingerprint:      f.Fingerprint,
		})
		weeks[meta.WeekID] = struct{}{}
		report.RemoteSources++
	}
	return nil
}

func (s *Service) countLocalRows(path string) int {
	f, err := os.Open(path)
	if err != nil {
		s.logger.WithError(err).WithField("path", path).Warn("Failed to count rows")
		return 0
	}
	defer f.Close()
	rows, err := ingest.ReadRows(f)
	if err != nil {
		return 0
	}
	return len(rows)
}

// countRemoteRows pulls the source through the fetcher, which also warms the
// byte cache for the loads that follow.
func (s *Service) countRemoteRows(ctx context.Context, f drive.SourceFile) int {
	data, err := s.fetcher.Fetch(ctx, f.Handle, f.Fingerprint)
	if err != nil {
		s.logger.WithError(err).WithField("source", f.Name).Warn("Failed to count rows")
		return 0
	}
	rows, err := ingest.ReadRows(bytes.NewReader(data))
	if err != nil {
		return 0
	}
	return len(rows)
}

// Query returns the descriptors matching q, sorted by filename. Empty and
// "all" fields are unconstrained; city matching tolerates alias spellings.
func (s *Service) Query(q models.SourceQuery) []models.SourceDescriptor {
	descriptors := *s.snapshot.Load()
	var out []models.SourceDescriptor
	for _, d := range descriptors {
		if !s.matches(d, q) {
			continue
		}
		out = append(out, d)
	}
	return out
}

func (s *Service) matches(d models.SourceDescriptor, q models.SourceQuery) bool {
	if c := normalize(q.City); c != "" && !s.gaz.SameCity(d.City, c) {
		return false
	}
	if v := normalize(q.District); v != "" && d.District != v {
		return false
	}
	if v := normalize(q.BuildingType); v != "" && string(d.BuildingType) != v {
		return false
	}
	if v := normalize(q.PropertyCategory); v != "" && string(d.PropertyCategory) != v {
		return false
	}
	if v := normalize(q.WeekID); v != "" && d.WeekID != v {
		return false
	}
	return true
}

func normalize(v string) string {
	if v == "all" {
		return ""
	}
	return v
}

// Versions lists the ingested weeks, most recent first.
func (s *Service) Versions() ([]models.VersionSnapshot, error) {
	var versions []models.VersionSnapshot
	if err := s.db.Order("week_id desc").Find(&versions).Error; err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	return versions, nil
}

// LatestWeek returns the most recent ingested week, if any.
func (s *Service) LatestWeek() (string, bool) {
	var v models.VersionSnapshot
	err := s.db.Order("week_id desc").First(&v).Error
	if err != nil {
		return "", false
	}
	return v.WeekID, true
}

// PriorWeeks returns the ingested weeks inside the n-calendar-week window
// before week, most recent first. Weeks in the window with no ingested data
// are simply absent.
func (s *Service) PriorWeeks(week string, n int) []string {
	window, err := version.Priors(week, n)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to compute lookback window")
		return nil
	}
	var versions []models.VersionSnapshot
	err = s.db.Where("week_id IN ?", window).Order("week_id desc").Find(&versions).Error
	if err != nil {
		s.logger.WithError(err).Warn("Failed to list prior weeks")
		return nil
	}
	out := make([]string, 0, len(versions))
	for _, v := range versions {
		out = append(out, v.WeekID)
	}
	return out
}

// Status reports the persistent state counts for the admin surface.
func (s *Service) Status() (Status, error) {
	var st Status
	var sources, versions int64
	if err := s.db.Model(&models.SourceDescriptor{}).Count(&sources).Error; err != nil {
		return st, err
	}
	if err := s.db.Model(&models.VersionSnapshot{}).Count(&versions).Error; err != nil {
		return st, err
	}
	st.SourceCount = int(sources)
	st.VersionCount = int(versions)
	if week, ok := s.LatestWeek(); ok {
		st.LatestWeek = week
	}
	return st, nil
}

// Reset wipes the inventory and version history, returning the counts
// removed. The next rescan rebuilds from scratch.
func (s *Service) Reset() (Status, error) {
	before, err := s.Status()
	if err != nil {
		return Status{}, err
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.SourceDescriptor{}).Error; err != nil {
			return err
		}
		return tx.Where("1 = 1").Delete(&models.VersionSnapshot{}).Error
	})
	if err != nil {
		return Status{}, fmt.Errorf("failed to reset catalog: %w", err)
	}
	empty := []models.SourceDescriptor{}
	s.snapshot.Store(&empty)
	s.logger.WithFields(logrus.Fields{
		"sources":  before.SourceCount,
		"versions": before.VersionCount,
	}).Warn("Catalog reset")
	return before, nil
}
