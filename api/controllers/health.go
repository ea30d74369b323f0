package controllers

import (
	"net/http"

	"github.com/chowline/chowline-backend/api/responses"
	"github.com/chowline/chowline-backend/pkg/config"
	"github.com/chowline/chowline-backend/pkg/db"
	"github.com/chowline/chowline-backend/pkg/logger"
	"github.com/chowline/chowline-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Chowline-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports readiness of the backing stores. A failing dependency
// returns 503 with the per-dependency status map.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Chowline-Env", cfg.App.Env)

		status := map[string]string{}
		healthy := true

		check := func(name string, ping func() error) {
			if ping == nil {
				status[name] = "unconfigured"
				return
			}
			if err := ping(); err != nil {
				healthy = false
				status[name] = "down"
				if logg != nil {
					ctx := logg.WithFields(r.Context(), map[string]any{"dependency": name})
					logg.Error(ctx, "health.dependency_down", err)
				}
				return
			}
			status[name] = "up"
		}

		if dbP != nil {
			check("database", func() error { return dbP.Ping(r.Context()) })
		} else {
			status["database"] = "unconfigured"
		}
		if redisP != nil {
			check("redis", func() error { return redisP.Ping(r.Context()) })
		} else {
			status["redis"] = "unconfigured"
		}

		if !healthy {
			responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, status)
			return
		}
		status["status"] = "ready"
		responses.WriteSuccess(w, status)
	}
}
