package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"devgateway/internal/config"
	"devgateway/internal/metrics"
)

// RegisterRoutes wires the dispatcher onto the public Echo instance. Every
// path goes through the dispatcher; methods outside Methods get a 405 from
// the router.
func RegisterRoutes(e *echo.Echo, d *Dispatcher) {
	e.Match(Methods, "/", d.Handle)
	e.Match(Methods, "/*", d.Handle)
}

// RegisterAdminRoutes wires health, status and metrics onto the admin Echo instance.
func RegisterAdminRoutes(e *echo.Echo, health *HealthHandler, m *metrics.Metrics, cfg *config.Config) {
	e.GET("/healthz", health.Healthz)
	e.GET("/status", health.Status)

	if cfg.Metrics.Enabled {
		e.GET(cfg.Metrics.Path, echo.WrapHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	}
}
