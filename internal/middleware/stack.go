package middleware

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"devgateway/internal/config"
	"devgateway/internal/metrics"
	"devgateway/internal/model"
)

// SkipAPI skips requests relayed to the upstream. Their responses carry the
// upstream's headers only.
func SkipAPI(c echo.Context) bool {
	return model.IsAPI(c.Request().URL.RequestURI())
}

// Public returns the middleware chain of the public listener, outermost first.
// m may be nil when metrics are disabled.
func Public(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) []echo.MiddlewareFunc {
	chain := []echo.MiddlewareFunc{
		echomw.Recover(),
		echomw.RequestIDWithConfig(echomw.RequestIDConfig{Skipper: SkipAPI}),
		RequestLogger(logger),
	}
	if cfg.Metrics.Enabled && m != nil {
		chain = append(chain, MetricsMiddleware(m))
	}
	// Unlimited unless configured; a limit answers 413 before dispatch.
	if cfg.Server.BodyLimit != "" {
		chain = append(chain, echomw.BodyLimit(cfg.Server.BodyLimit))
	}
	if cfg.Server.RateLimit.Enabled {
		chain = append(chain, RateLimit(cfg.Server.RateLimit.RequestsPerSecond))
	}
	return chain
}
