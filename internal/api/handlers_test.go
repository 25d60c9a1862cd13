package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/sil0410/rental-analysis-app/config"
	"github.com/sil0410/rental-analysis-app/internal/catalog"
	"github.com/sil0410/rental-analysis-app/internal/geo"
	"github.com/sil0410/rental-analysis-app/internal/ingest"
	"github.com/sil0410/rental-analysis-app/internal/metadata"
	"github.com/sil0410/rental-analysis-app/internal/reconcile"
	"github.com/sil0410/rental-analysis-app/internal/source"
)

const (
	week2603CSV = "物件編號,地址,租金,緯度,經度\n" +
		"1,景平路100號,15000,25.0288,121.4625\n" +
		"2,景平路200號,18000,25.0298,121.4625\n"
	week2604CSV = "物件編號,地址,租金,緯度,經度\n" +
		"1,景平路100號,15500,25.0288,121.4625\n" +
		"3,景平路300號,20000,25.0290,121.4630\n"
)

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	uploadDir := t.TempDir()
	files := map[string]string{
		"新北市_中和區_公寓_套房_2603.csv": week2603CSV,
		"新北市_中和區_公寓_套房_2604.csv": week2604CSV,
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(uploadDir, name), []byte(content), 0644))
	}

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "api.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	gaz := config.DefaultGazetteer()
	extractor := metadata.NewExtractor(gaz)
	cache := source.NewCache(t.TempDir(), time.Hour, logger)
	fetcher := source.NewFetcher(cache, nil, logger)

	catalogSvc, err := catalog.NewService(db, extractor, gaz, fetcher, uploadDir, logger)
	require.NoError(t, err)
	_, err = catalogSvc.Rescan(context.Background())
	require.NoError(t, err)

	normalizer := ingest.NewNormalizer(geo.NewNormalizer(config.TaiwanBound))
	loader := source.NewLoader(catalogSvc, fetcher, normalizer, extractor, logger)
	engine := reconcile.NewEngine(loader, catalogSvc, cfg.Reconcile.LookbackWeeks, logger)

	router := gin.New()
	SetupRoutes(router, NewHandler(catalogSvc, engine, gaz, cfg, logger), "")
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	return w.Code, payload
}

func TestGetAnalysis(t *testing.T) {
	router := testRouter(t)

	code, payload := doJSON(t, router, http.MethodGet,
		"/api/analysis?district=中和區&distance_min=0&distance_max=5000", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", payload["status"])

	query := payload["query"].(map[string]interface{})
	// The latest ingested week is the default.
	assert.Equal(t, "2604", query["week"])

	summary := payload["summary"].(map[string]interface{})
	assert.Equal(t, float64(3), summary["total_properties"])
	assert.Equal(t, float64(1), summary["active_properties"])
	assert.Equal(t, float64(1), summary["new_properties"])
	assert.Equal(t, float64(1), summary["inactive_properties"])
	// Rent statistics ignore the vanished listing.
	assert.Equal(t, float64(15500), summary["min_rent"])
	assert.Equal(t, float64(20000), summary["max_rent"])

	properties := payload["properties"].([]interface{})
	statuses := map[string]string{}
	for _, p := range properties {
		prop := p.(map[string]interface{})
		statuses[prop["property_id"].(string)] = prop["status"].(string)
		assert.NotNil(t, prop["distance"])
	}
	assert.Equal(t, map[string]string{"1": "active", "3": "new", "2": "inactive"}, statuses)
}

func TestGetAnalysis_AddressInfersDistrict(t *testing.T) {
	router := testRouter(t)

	code, payload := doJSON(t, router, http.MethodGet,
		"/api/analysis?address=新北市中和區景平路100號&distance_min=0&distance_max=5000", "")
	require.Equal(t, http.StatusOK, code)
	query := payload["query"].(map[string]interface{})
	assert.Equal(t, "中和區", query["district"])
}

func TestGetAnalysis_ExplicitWeek(t *testing.T) {
	router := testRouter(t)

	code, payload := doJSON(t, router, http.MethodGet,
		"/api/analysis?district=中和區&week=2603&distance_min=0&distance_max=5000", "")
	require.Equal(t, http.StatusOK, code)
	summary := payload["summary"].(map[string]interface{})
	// Week 2603 has no prior weeks, so everything is new.
	assert.Equal(t, float64(2), summary["new_properties"])
	assert.Equal(t, float64(0), summary["inactive_properties"])
}

func TestGetAnalysis_InvalidWeek(t *testing.T) {
	router := testRouter(t)
	code, payload := doJSON(t, router, http.MethodGet, "/api/analysis?week=abcd", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, payload["error"], "week")
}

func TestGetAnalysis_DistanceWindowExcludes(t *testing.T) {
	router := testRouter(t)

	// Every record sits within a few hundred meters of the default origin,
	// so a faraway window matches nothing.
	code, payload := doJSON(t, router, http.MethodGet,
		"/api/analysis?district=中和區&distance_min=100000&distance_max=200000", "")
	require.Equal(t, http.StatusOK, code)
	summary := payload["summary"].(map[string]interface{})
	assert.Equal(t, float64(0), summary["total_properties"])
}

func TestGetVersions(t *testing.T) {
	router := testRouter(t)
	code, payload := doJSON(t, router, http.MethodGet, "/api/versions", "")
	require.Equal(t, http.StatusOK, code)

	versions := payload["versions"].([]interface{})
	require.Len(t, versions, 2)
	first := versions[0].(map[string]interface{})
	assert.Equal(t, "2604", first["week_id"])
}

func TestGetSources(t *testing.T) {
	router := testRouter(t)
	code, payload := doJSON(t, router, http.MethodGet, "/api/sources?week=2604", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), payload["count"])
}

func TestRescanEndpoint(t *testing.T) {
	router := testRouter(t)
	code, payload := doJSON(t, router, http.MethodPost, "/api/rescan", "")
	require.Equal(t, http.StatusOK, code)
	report := payload["report"].(map[string]interface{})
	assert.Equal(t, float64(2), report["local_sources"])
}

func TestDatabaseStatus(t *testing.T) {
	router := testRouter(t)
	code, payload := doJSON(t, router, http.MethodGet, "/api/admin/database-status", "")
	require.Equal(t, http.StatusOK, code)
	db := payload["database"].(map[string]interface{})
	assert.Equal(t, float64(2), db["source_count"])
	assert.Equal(t, "2604", db["latest_week"])
}

func TestResetDatabase(t *testing.T) {
	router := testRouter(t)

	code, _ := doJSON(t, router, http.MethodPost, "/api/admin/reset-database",
		`{"password":"wrong","confirm":true}`)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = doJSON(t, router, http.MethodPost, "/api/admin/reset-database",
		`{"password":"1234","confirm":false}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, payload := doJSON(t, router, http.MethodPost, "/api/admin/reset-database",
		`{"password":"1234","confirm":true}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(2), payload["removed_sources"])

	code, payload = doJSON(t, router, http.MethodGet, "/api/sources", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(0), payload["count"])
}

func TestExportCatalog(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/export", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "catalog-export.json")

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Len(t, payload["sources"], 2)
	assert.Len(t, payload["versions"], 2)
}
