package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"devgateway/internal/model"
)

// Methods are the request methods the gateway accepts. Anything else is
// rejected by the router before dispatch.
var Methods = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodOptions,
}

// allowNonAPI is the Allow header sent with 405 responses on static paths.
const allowNonAPI = "GET, OPTIONS"

// Action is what the dispatcher does with a request.
type Action int

const (
	ActionStatic Action = iota
	ActionProxy
	ActionNoContent
	ActionMethodNotAllowed
)

func (a Action) String() string {
	switch a {
	case ActionStatic:
		return "static"
	case ActionProxy:
		return "proxy"
	case ActionNoContent:
		return "no_content"
	case ActionMethodNotAllowed:
		return "method_not_allowed"
	}
	return "unknown"
}

// Route decides what to do with a request from its method and raw request
// target alone. The target keeps its query string, so "/api?x=1" is not an
// API path.
func Route(method, target string) Action {
	if model.IsAPI(target) {
		switch method {
		case http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions:
			return ActionProxy
		}
		return ActionMethodNotAllowed
	}

	switch method {
	case http.MethodGet:
		return ActionStatic
	case http.MethodOptions:
		return ActionNoContent
	}
	return ActionMethodNotAllowed
}

// Dispatcher hands each request to exactly one of the static handler, the
// proxy handler or a fixed-status reply.
type Dispatcher struct {
	proxy  *ProxyHandler
	static *StaticHandler
	logger *slog.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(proxy *ProxyHandler, static *StaticHandler, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		proxy:  proxy,
		static: static,
		logger: logger.With("component", "dispatcher"),
	}
}

// Handle routes the request in c.
func (d *Dispatcher) Handle(c echo.Context) error {
	req := c.Request()
	action := Route(req.Method, req.URL.RequestURI())

	d.logger.Debug("dispatch",
		"method", req.Method,
		"target", req.URL.RequestURI(),
		"action", action,
	)

	switch action {
	case ActionProxy:
		return d.proxy.Handle(c)
	case ActionStatic:
		return d.static.Handle(c)
	case ActionNoContent:
		return c.NoContent(http.StatusNoContent)
	default:
		c.Response().Header().Set(echo.HeaderAllow, allowNonAPI)
		return echo.NewHTTPError(http.StatusMethodNotAllowed, "unsupported method")
	}
}
