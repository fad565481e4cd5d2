package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/arcanium-studios/arcanium-backend/api/responses"
	"github.com/arcanium-studios/arcanium-backend/pkg/config"
	pkgerrors "github.com/arcanium-studios/arcanium-backend/pkg/errors"
	"github.com/arcanium-studios/arcanium-backend/pkg/logger"
)

const (
	envHeader        = "X-Arcanium-Env"
	readinessTimeout = 2 * time.Second
)

type pinger interface {
	Ping(ctx context.Context) error
}

// ReadinessCheck names a dependency probed by the readiness endpoint.
type ReadinessCheck struct {
	Name   string
	Pinger pinger
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every configured dependency. Memory-only deployments have
// no checks and are always ready.
func HealthReady(cfg *config.Config, logg *logger.Logger, checks ...ReadinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		failures := map[string]string{}
		for _, check := range checks {
			if check.Pinger == nil {
				continue
			}
			if err := check.Pinger.Ping(ctx); err != nil {
				failures[check.Name] = err.Error()
			}
		}
		if len(failures) > 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "dependencies unavailable").WithDetails(failures))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
