package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"syscall"

	"github.com/labstack/echo/v4"

	"devgateway/internal/model"
	"devgateway/internal/service"
)

// gatewayErrorContentType is the exact Content-Type of synthesized 502 replies.
const gatewayErrorContentType = "text/plain; charset=utf-8"

// ProxyHandler forwards API-routed requests to the upstream API server.
type ProxyHandler struct {
	service *service.ProxyService
	logger  *slog.Logger
}

// NewProxyHandler creates a ProxyHandler.
func NewProxyHandler(svc *service.ProxyService, logger *slog.Logger) *ProxyHandler {
	return &ProxyHandler{
		service: svc,
		logger:  logger.With("component", "proxy_handler"),
	}
}

// Handle buffers the request, relays it upstream and writes back the complete
// upstream response. Upstream failures become a 502 and are never returned
// to Echo.
func (h *ProxyHandler) Handle(c echo.Context) error {
	req := c.Request()

	body, err := readBody(req)
	if err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return he
		}
		return echo.NewHTTPError(http.StatusBadRequest, "could not read request body").SetInternal(err)
	}

	pr := &model.ProxyRequest{
		Ctx:    req.Context(),
		Method: req.Method,
		Target: service.BuildTarget(req.URL.EscapedPath(), req.URL.RawQuery),
		Header: req.Header,
		Body:   body,
	}

	resp, err := h.service.Forward(pr)
	if err != nil {
		return h.writeGatewayError(c, err)
	}

	h.logger.Debug("upstream response",
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"reason", resp.Reason,
		"body_bytes", len(resp.Body),
	)

	dst := c.Response().Header()
	for key, vals := range resp.Header {
		dst.Del(key)
		for _, v := range vals {
			dst.Add(key, v)
		}
	}
	// A nil entry stops net/http from sniffing a type the upstream never sent.
	if _, ok := resp.Header["Content-Type"]; !ok {
		dst["Content-Type"] = nil
	}

	c.Response().WriteHeader(resp.StatusCode)

	if len(resp.Body) > 0 {
		// The status line is already out; a failed write means the client went away.
		if _, err := c.Response().Write(resp.Body); err != nil {
			h.logger.Warn("writing response body",
				"err", err,
				"path", req.URL.Path,
			)
		}
	}
	return nil
}

// readBody reads the request body when a positive Content-Length was declared.
func readBody(req *http.Request) ([]byte, error) {
	if req.ContentLength <= 0 || req.Body == nil {
		return nil, nil
	}
	return io.ReadAll(req.Body)
}

func (h *ProxyHandler) writeGatewayError(c echo.Context, err error) error {
	h.logger.Error("proxy error",
		"err", err,
		"method", c.Request().Method,
		"path", c.Request().URL.Path,
	)

	msg := "proxy error: " + describeError(err) + "\n"
	return c.Blob(http.StatusBadGateway, gatewayErrorContentType, []byte(msg))
}

// describeError turns an upstream failure into a one-line message for the client.
func describeError(err error) string {
	var summary string

	var dnsErr *net.DNSError
	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled):
		summary = "client disconnected"
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		summary = "upstream request timed out"
	case errors.As(err, &dnsErr):
		summary = "upstream host not found"
	case errors.Is(err, syscall.ECONNREFUSED):
		summary = "upstream connection refused"
	default:
		summary = "upstream request failed"
	}

	detail := strings.Join(strings.Fields(err.Error()), " ")
	return fmt.Sprintf("%s (%s)", summary, detail)
}
