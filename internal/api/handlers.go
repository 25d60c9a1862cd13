package api

import (
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/sil0410/rental-analysis-app/config"
	"github.com/sil0410/rental-analysis-app/internal/analysis"
	"github.com/sil0410/rental-analysis-app/internal/catalog"
	"github.com/sil0410/rental-analysis-app/internal/models"
	"github.com/sil0410/rental-analysis-app/internal/reconcile"
	"github.com/sil0410/rental-analysis-app/internal/version"
)

type Handler struct {
	catalog *catalog.Service
	engine  *reconcile.Engine
	gaz     *config.Gazetteer
	cfg     *config.Config
	logger  *logrus.Logger
}

type ResetRequest struct {
	Password string `json:"password" binding:"required"`
	Confirm  bool   `json:"confirm"`
}

func NewHandler(catalogSvc *catalog.Service, engine *reconcile.Engine, gaz *config.Gazetteer, cfg *config.Config, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &Handler{
		catalog: catalogSvc,
		engine:  engine,
		gaz:     gaz,
		cfg:     cfg,
		logger:  logger,
	}
}

// GetAnalysis reconciles one partition week and returns the geo-filtered
// records with summary statistics.
func (h *Handler) GetAnalysis(c *gin.Context) {
	district := c.Query("district")
	if district == "" {
		// A free-text address can stand in for an explicit district.
		if d, ok := h.gaz.FindDistrict(c.Query("address")); ok {
			district = d
		}
	}

	week := c.Query("week")
	if week == "" {
		if latest, ok := h.catalog.LatestWeek(); ok {
			week = latest
		} else {
			week = version.Current()
		}
	} else if !version.Valid(week) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid week identifier"})
		return
	}

	q := models.SourceQuery{
		City:             c.Query("city"),
		District:         district,
		BuildingType:     c.Query("building_type"),
		PropertyCategory: c.Query("property_category"),
		WeekID:           week,
	}

	result, err := h.engine.Reconcile(c.Request.Context(), q)
	if err != nil {
		h.logger.WithError(err).Error("Failed to reconcile records")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to analyze records"})
		return
	}

	lat := h.floatQuery(c, "lat", h.cfg.Query.DefaultLatitude)
	lng := h.floatQuery(c, "lng", h.cfg.Query.DefaultLongitude)
	if lat == 0 && lng == 0 {
		lat = h.cfg.Query.DefaultLatitude
		lng = h.cfg.Query.DefaultLongitude
	}
	distanceMin := h.floatQuery(c, "distance_min", h.cfg.Query.DefaultDistanceMin)
	distanceMax := h.floatQuery(c, "distance_max", h.cfg.Query.DefaultDistanceMax)

	properties := analysis.FilterByDistance(result.Records, lat, lng, distanceMin, distanceMax)
	properties = analysis.FilterByRoomType(properties, c.Query("room_type"))
	summary, roomTypes := analysis.Summarize(properties)

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"query": gin.H{
			"city":              q.City,
			"district":          q.District,
			"building_type":     q.BuildingType,
			"property_category": q.PropertyCategory,
			"week":              week,
			"lat":               lat,
			"lng":               lng,
			"distance_min":      distanceMin,
			"distance_max":      distanceMax,
		},
		"summary":            summary,
		"properties":         properties,
		"room_type_analysis": roomTypes,
		"reports":            result.Reports,
	})
}

// GetVersions lists the ingested weeks, most recent first.
func (h *Handler) GetVersions(c *gin.Context) {
	versions, err := h.catalog.Versions()
	if err != nil {
		h.logger.WithError(err).Error("Failed to get versions")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get versions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "versions": versions})
}

// GetSources lists the catalog entries matching the query dimensions.
func (h *Handler) GetSources(c *gin.Context) {
	sources := h.catalog.Query(models.SourceQuery{
		City:             c.Query("city"),
		District:         c.Query("district"),
		BuildingType:     c.Query("building_type"),
		PropertyCategory: c.Query("property_category"),
		WeekID:           c.Query("week"),
	})
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"count":   len(sources),
		"sources": sources,
	})
}

// Rescan rebuilds the source inventory.
func (h *Handler) Rescan(c *gin.Context) {
	report, err := h.catalog.Rescan(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to rescan sources")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to rescan sources"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "report": report})
}

// GetDatabaseStatus reports the persistent inventory counts.
func (h *Handler) GetDatabaseStatus(c *gin.Context) {
	status, err := h.catalog.Status()
	if err != nil {
		h.logger.WithError(err).Error("Failed to get database status")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get database status"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "database": status})
}

// ResetDatabase wipes the inventory. It requires the admin password and an
// explicit confirmation flag.
func (h *Handler) ResetDatabase(c *gin.Context) {
	var req ResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.Password != h.cfg.Admin.Password {
		h.logger.Warn("Database reset rejected: wrong password")
		c.JSON(http.StatusForbidden, gin.H{"error": "Invalid password"})
		return
	}
	if !req.Confirm {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Reset not confirmed"})
		return
	}

	removed, err := h.catalog.Reset()
	if err != nil {
		h.logger.WithError(err).Error("Failed to reset database")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset database"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":           "success",
		"removed_sources":  removed.SourceCount,
		"removed_versions": removed.VersionCount,
	})
}

// ExportCatalog dumps the full inventory and version history.
func (h *Handler) ExportCatalog(c *gin.Context) {
	versions, err := h.catalog.Versions()
	if err != nil {
		h.logger.WithError(err).Error("Failed to export catalog")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export catalog"})
		return
	}
	c.Header("Content-Disposition", "attachment; filename=catalog-export.json")
	c.JSON(http.StatusOK, gin.H{
		"sources":  h.catalog.Query(models.SourceQuery{}),
		"versions": versions,
	})
}

func (h *Handler) floatQuery(c *gin.Context, name string, fallback float64) float64 {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		h.logger.WithField("param", name).Warn("Ignoring unparseable query parameter")
		return fallback
	}
	return v
}
