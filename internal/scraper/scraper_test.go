package scraper

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viraldeals/viraldeals-backend/pkg/config"
	"github.com/viraldeals/viraldeals-backend/pkg/db/models"
	pkgerrors "github.com/viraldeals/viraldeals-backend/pkg/errors"
	"github.com/viraldeals/viraldeals-backend/pkg/logger"
)

type memoryCatalog struct {
	bySKU     map[string]*models.Product
	upsertErr error
}

func newMemoryCatalog() *memoryCatalog {
	return &memoryCatalog{bySKU: map[string]*models.Product{}}
}

func (c *memoryCatalog) UpsertBySKU(_ context.Context, product *models.Product) error {
	if c.upsertErr != nil {
		return c.upsertErr
	}
	c.bySKU[product.SKU] = product
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
}

func newTestImporter(t *testing.T, cfg config.ScraperConfig, repo *memoryCatalog) *Importer {
	t.Helper()
	imp, err := NewImporter(cfg, repo, testLogger())
	require.NoError(t, err)
	return imp
}

func serveFeed(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRunImportsValidItems(t *testing.T) {
	t.Parallel()

	srv := serveFeed(t, `[
		{"sku":"SPK-01","name":"Bluetooth Speaker","category":"electronics","price":1299,"mrp":1999,"stock":25,"images":["a.jpg"],"rating":4.5},
		{"sku":"LMP-02","name":"Galaxy Lamp","category":"unknown-cat","price":799,"stock":0}
	]`)

	repo := newMemoryCatalog()
	imp := newTestImporter(t, config.ScraperConfig{}, repo)

	report, err := imp.Run(context.Background(), srv.URL+"/feed.json")
	require.NoError(t, err)
	assert.Equal(t, 2, report.Fetched)
	assert.Equal(t, 2, report.Imported)
	assert.Equal(t, 0, report.Skipped)

	speaker := repo.bySKU["SPK-01"]
	require.NotNil(t, speaker)
	assert.Equal(t, 1299, speaker.Price)
	require.NotNil(t, speaker.MRP)
	assert.Equal(t, 1999, *speaker.MRP)
	assert.True(t, speaker.IsActive)
	require.NotNil(t, speaker.Source)
	assert.Equal(t, srv.Listener.Addr().String(), *speaker.Source)

	lamp := repo.bySKU["LMP-02"]
	require.NotNil(t, lamp)
	assert.Equal(t, "other", string(lamp.Category), "unrecognized category falls back to other")
}

func TestRunSkipsInvalidItems(t *testing.T) {
	t.Parallel()

	srv := serveFeed(t, `[
		{"sku":"","name":"No SKU","price":100,"stock":1},
		{"sku":"BAD-PRICE","name":"Free","price":0,"stock":1},
		{"sku":"OK-1","name":"Fine","price":100,"stock":-3}
	]`)

	repo := newMemoryCatalog()
	imp := newTestImporter(t, config.ScraperConfig{}, repo)

	report, err := imp.Run(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Imported)
	assert.Equal(t, 2, report.Skipped)
	assert.Len(t, report.Errors, 2)

	ok := repo.bySKU["OK-1"]
	require.NotNil(t, ok)
	assert.Equal(t, 0, ok.Stock, "negative stock clamps to zero")
}

func TestRunHonorsMaxItems(t *testing.T) {
	t.Parallel()

	srv := serveFeed(t, `[
		{"sku":"A","name":"A","price":10,"stock":1},
		{"sku":"B","name":"B","price":10,"stock":1},
		{"sku":"C","name":"C","price":10,"stock":1}
	]`)

	repo := newMemoryCatalog()
	imp := newTestImporter(t, config.ScraperConfig{MaxItems: 2}, repo)

	report, err := imp.Run(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Fetched)
	assert.Equal(t, 2, report.Imported)
	assert.Len(t, repo.bySKU, 2)
}

func TestRunFailsOnBadFeed(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	imp := newTestImporter(t, config.ScraperConfig{}, newMemoryCatalog())
	_, err := imp.Run(context.Background(), srv.URL)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeDependency, typed.Code())
}

func TestRunRequiresSourceURL(t *testing.T) {
	t.Parallel()

	imp := newTestImporter(t, config.ScraperConfig{}, newMemoryCatalog())
	_, err := imp.Run(context.Background(), "")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestRunContinuesPastUpsertFailures(t *testing.T) {
	t.Parallel()

	srv := serveFeed(t, `[{"sku":"A","name":"A","price":10,"stock":1}]`)
	repo := newMemoryCatalog()
	repo.upsertErr = context.DeadlineExceeded

	imp := newTestImporter(t, config.ScraperConfig{}, repo)
	report, err := imp.Run(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Imported)
	assert.Equal(t, 1, report.Skipped)
}
