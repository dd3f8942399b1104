package handler

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vfg2006/ads-sync/internal/api/handler/router"
	"github.com/vfg2006/ads-sync/internal/usecases/authenticating"
	"github.com/vfg2006/ads-sync/pkg/middleware"
)

func Healthcheck(db Pinger) []router.Route {
	return []router.Route{
		{
			Path:    "/healthcheck",
			Method:  http.MethodGet,
			Handler: HealthcheckHandler(),
		},
		{
			Path:    "/readiness",
			Method:  http.MethodGet,
			Handler: ReadinessHandler(db),
		},
	}
}

func Metrics() []router.Route {
	return []router.Route{
		{
			Path:    "/metrics",
			Method:  http.MethodGet,
			Handler: promhttp.Handler(),
		},
	}
}

func Authentication(service authenticating.Authenticator) []router.Route {
	return []router.Route{
		{
			Path:    "/v1/login",
			Method:  http.MethodPost,
			Handler: Login(service),
		},
	}
}

func Sync(jobs SyncJobs, validator middleware.TokenValidator) []router.Route {
	auth := []func(http.Handler) http.Handler{middleware.AuthMiddleware(validator)}

	return []router.Route{
		{
			Path:        "/v1/sync/:type",
			Method:      http.MethodPost,
			Handler:     RunSync(jobs),
			Middlewares: auth,
		},
		{
			Path:        "/v1/sync/status",
			Method:      http.MethodGet,
			Handler:     GetSyncStatus(jobs),
			Middlewares: auth,
		},
	}
}
