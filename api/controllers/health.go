package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/kukumart/marketplace-backend/api/responses"
	"github.com/kukumart/marketplace-backend/pkg/config"
	pkgerrors "github.com/kukumart/marketplace-backend/pkg/errors"
	"github.com/kukumart/marketplace-backend/pkg/logger"
)

// Pinger is a dependency the readiness check pings.
type Pinger interface {
	Ping(ctx context.Context) error
}

type healthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
	Env    string `json:"env"`
}

// Health answers the liveness check with a bare {status, time, env} object.
func Health(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteRaw(w, http.StatusOK, healthResponse{
			Status: "ok",
			Time:   time.Now().UTC().Format(time.RFC3339),
			Env:    cfg.App.Env,
		})
	}
}

// HealthReady checks the database and Redis before reporting ready.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable"))
				return
			}
		}
		responses.WriteRaw(w, http.StatusOK, healthResponse{
			Status: "ready",
			Time:   time.Now().UTC().Format(time.RFC3339),
			Env:    cfg.App.Env,
		})
	}
}
