package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/viraldeals/viraldeals-backend/pkg/config"
	"github.com/viraldeals/viraldeals-backend/pkg/db/models"
	"github.com/viraldeals/viraldeals-backend/pkg/enums"
	pkgerrors "github.com/viraldeals/viraldeals-backend/pkg/errors"
	"github.com/viraldeals/viraldeals-backend/pkg/logger"
)

const maxFeedBytes = 8 << 20

// FeedItem is the neutral catalog shape the importer consumes. Any upstream
// source that can emit this JSON can feed the store; there is no
// site-specific parsing here.
type FeedItem struct {
	SKU         string   `json:"sku"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Price       int      `json:"price"`
	MRP         *int     `json:"mrp,omitempty"`
	Stock       int      `json:"stock"`
	Images      []string `json:"images,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
}

// Report summarizes one import run.
type Report struct {
	Fetched  int      `json:"fetched"`
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

type catalogWriter interface {
	UpsertBySKU(ctx context.Context, product *models.Product) error
}

// Importer pulls a JSON product feed and upserts it into the catalog.
type Importer struct {
	cfg    config.ScraperConfig
	repo   catalogWriter
	logg   *logger.Logger
	client *http.Client
}

// NewImporter builds the catalog importer.
func NewImporter(cfg config.ScraperConfig, repo catalogWriter, logg *logger.Logger) (*Importer, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog writer is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Importer{
		cfg:    cfg,
		repo:   repo,
		logg:   logg,
		client: &http.Client{Timeout: timeout},
	}, nil
}

// Run fetches the configured feed and imports every valid item, up to the
// configured cap. Invalid items are skipped and reported, never fatal.
func (i *Importer) Run(ctx context.Context, sourceURL string) (*Report, error) {
	if sourceURL == "" {
		sourceURL = i.cfg.SourceURL
	}
	if strings.TrimSpace(sourceURL) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "feed url is required")
	}

	items, err := i.fetch(ctx, sourceURL)
	if err != nil {
		return nil, err
	}

	report := &Report{Fetched: len(items)}
	if i.cfg.MaxItems > 0 && len(items) > i.cfg.MaxItems {
		items = items[:i.cfg.MaxItems]
	}

	source := sourceHost(sourceURL)
	for idx, item := range items {
		product, err := normalize(item, source)
		if err != nil {
			report.Skipped++
			report.Errors = append(report.Errors, fmt.Sprintf("item %d: %v", idx, err))
			continue
		}
		if err := i.repo.UpsertBySKU(ctx, product); err != nil {
			report.Skipped++
			report.Errors = append(report.Errors, fmt.Sprintf("item %d (%s): %v", idx, product.SKU, err))
			continue
		}
		report.Imported++
	}

	ctx = i.logg.WithFields(ctx, map[string]any{
		"fetched":  report.Fetched,
		"imported": report.Imported,
		"skipped":  report.Skipped,
	})
	i.logg.Info(ctx, "catalog import finished")
	return report, nil
}

func (i *Importer) fetch(ctx context.Context, sourceURL string) ([]FeedItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "building feed request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := i.client.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetching product feed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("product feed returned http %d", resp.StatusCode))
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading product feed")
	}

	var items []FeedItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding product feed")
	}
	return items, nil
}

func sourceHost(sourceURL string) string {
	parsed, err := url.Parse(sourceURL)
	if err != nil || parsed.Host == "" {
		return "feed"
	}
	return parsed.Host
}

func normalize(item FeedItem, source string) (*models.Product, error) {
	sku := strings.TrimSpace(item.SKU)
	if sku == "" {
		return nil, fmt.Errorf("missing sku")
	}
	name := strings.TrimSpace(item.Name)
	if name == "" {
		return nil, fmt.Errorf("missing name")
	}
	if item.Price <= 0 {
		return nil, fmt.Errorf("non-positive price")
	}
	stock := item.Stock
	if stock < 0 {
		stock = 0
	}

	category := enums.ProductCategory(strings.ToLower(strings.TrimSpace(item.Category)))
	if !category.IsValid() {
		category = enums.CategoryOther
	}

	var description *string
	if desc := strings.TrimSpace(item.Description); desc != "" {
		description = &desc
	}

	return &models.Product{
		SKU:         sku,
		Name:        name,
		Description: description,
		Category:    category,
		Price:       item.Price,
		MRP:         item.MRP,
		Stock:       stock,
		Images:      pq.StringArray(item.Images),
		Rating:      item.Rating,
		IsActive:    true,
		Source:      &source,
	}, nil
}
