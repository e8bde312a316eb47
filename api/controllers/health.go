package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/viraldeals/viraldeals-backend/api/responses"
	"github.com/viraldeals/viraldeals-backend/pkg/config"
	"github.com/viraldeals/viraldeals-backend/pkg/db"
	pkgerrors "github.com/viraldeals/viraldeals-backend/pkg/errors"
	"github.com/viraldeals/viraldeals-backend/pkg/logger"
	pkgredis "github.com/viraldeals/viraldeals-backend/pkg/redis"
)

const readinessTimeout = 3 * time.Second

// HealthLive answers liveness probes without touching dependencies.
func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{
			"status": "ok",
			"env":    cfg.App.Env,
		})
	}
}

// HealthReady verifies the database and Redis before reporting ready.
func HealthReady(logg *logger.Logger, dbP db.Pinger, redisP pkgredis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := map[string]string{}

		if dbP != nil {
			if err := dbP.Ping(ctx); err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unavailable"))
				return
			}
			checks["database"] = "ok"
		}
		if redisP != nil {
			if err := redisP.Ping(ctx); err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unavailable"))
				return
			}
			checks["redis"] = "ok"
		}

		responses.WriteSuccess(w, checks)
	}
}
