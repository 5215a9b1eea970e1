// Package service implements the core proxy forwarding logic.
package service

import (
	"fmt"
	"log/slog"
	"net/http"

	"devgateway/internal/config"
	"devgateway/internal/model"
)

// droppedRequestHeaders are never copied from the client request. Host is
// replaced with the upstream address; the transport recomputes the others.
var droppedRequestHeaders = map[string]bool{
	"Host":           true,
	"Connection":     true,
	"Content-Length": true,
}

// hopByHopResponseHeaders are stripped from the upstream response before it
// is written to the client.
var hopByHopResponseHeaders = map[string]bool{
	"Transfer-Encoding": true,
	"Connection":        true,
	"Keep-Alive":        true,
}

// Upstream performs one complete exchange with the upstream API server.
type Upstream interface {
	Do(pr *model.ProxyRequest) (*model.ProxyResponse, error)
}

// ProxyService handles the forwarding logic for API-routed requests.
type ProxyService struct {
	upstream Upstream
	host     string
	logger   *slog.Logger
}

// NewProxyService creates a ProxyService targeting cfg.Upstream.
func NewProxyService(u Upstream, cfg *config.Config, logger *slog.Logger) *ProxyService {
	return &ProxyService{
		upstream: u,
		host:     cfg.Upstream.Addr(),
		logger:   logger.With("component", "proxy_service"),
	}
}

// Forward relays pr to the upstream and returns its response with hop-by-hop
// headers removed. Exactly one attempt is made; any failure is returned
// wrapped and the caller decides how to surface it.
func (s *ProxyService) Forward(pr *model.ProxyRequest) (*model.ProxyResponse, error) {
	out := &model.ProxyRequest{
		Ctx:    pr.Ctx,
		Method: pr.Method,
		Target: pr.Target,
		Header: s.filterRequestHeaders(pr.Header),
		Body:   pr.Body,
	}

	s.logger.Debug("forwarding request",
		"method", out.Method,
		"target", out.Target,
		"body_bytes", len(out.Body),
	)

	resp, err := s.upstream.Do(out)
	if err != nil {
		return nil, fmt.Errorf("forward to upstream %s: %w", s.host, err)
	}

	resp.Header = filterResponseHeaders(resp.Header)
	return resp, nil
}

// BuildTarget rebuilds the request target exactly as the client sent it.
// The /api prefix is kept; the upstream mounts its API under the same path.
func BuildTarget(escapedPath, rawQuery string) string {
	if rawQuery == "" {
		return escapedPath
	}
	return escapedPath + "?" + rawQuery
}

func (s *ProxyService) filterRequestHeaders(src http.Header) http.Header {
	dst := make(http.Header, len(src)+1)
	for key, vals := range src {
		if droppedRequestHeaders[http.CanonicalHeaderKey(key)] {
			continue
		}
		dst[key] = append([]string(nil), vals...)
	}
	dst.Set("Host", s.host)
	return dst
}

func filterResponseHeaders(src http.Header) http.Header {
	dst := make(http.Header, len(src))
	for key, vals := range src {
		if hopByHopResponseHeaders[http.CanonicalHeaderKey(key)] {
			continue
		}
		dst[key] = vals
	}
	return dst
}
