package controllers

import (
	"net/http"

	"github.com/viraldeals/viraldeals-backend/api/responses"
	"github.com/viraldeals/viraldeals-backend/api/validators"
	scrapersvc "github.com/viraldeals/viraldeals-backend/internal/scraper"
	"github.com/viraldeals/viraldeals-backend/pkg/logger"
)

type scraperRunRequest struct {
	SourceURL string `json:"source_url,omitempty" validate:"omitempty,url"`
}

// AdminScraperRun triggers a catalog import from the configured feed, or from
// an explicit source url.
func AdminScraperRun(importer *scrapersvc.Importer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload scraperRunRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		report, err := importer.Run(r.Context(), payload.SourceURL)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, report)
	}
}
