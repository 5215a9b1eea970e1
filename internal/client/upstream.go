// Package client provides the HTTP client for the upstream API server.
package client

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"devgateway/internal/config"
	"devgateway/internal/metrics"
	"devgateway/internal/model"
)

// UpstreamClient sends buffered requests to the upstream API server.
// Every call dials its own connection and closes it afterwards.
type UpstreamClient struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewUpstreamClient creates an UpstreamClient for cfg.Upstream.
// The timeout bounds both the dial and the whole exchange, body included.
// The metrics parameter is optional; pass nil to disable upstream metrics recording.
func NewUpstreamClient(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *UpstreamClient {
	timeout := time.Duration(cfg.Upstream.TimeoutSeconds) * time.Second

	transport := &http.Transport{
		DisableKeepAlives:     true,
		DisableCompression:    true,
		ResponseHeaderTimeout: timeout,
		DialContext: (&net.Dialer{
			Timeout: timeout,
		}).DialContext,
	}

	return &UpstreamClient{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   timeout,
			// Redirects belong to the browser, not the gateway.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		baseURL: "http://" + cfg.Upstream.Addr(),
		logger:  logger.With("component", "upstream_client"),
		metrics: m,
	}
}

// Do relays pr to the upstream and returns the complete response.
// The Host entry of pr.Header, if any, becomes the request's Host line.
func (c *UpstreamClient) Do(pr *model.ProxyRequest) (*model.ProxyResponse, error) {
	var body io.Reader
	if len(pr.Body) > 0 {
		body = bytes.NewReader(pr.Body)
	}

	req, err := http.NewRequestWithContext(pr.Ctx, pr.Method, c.baseURL+pr.Target, body)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	req.Header = pr.Header.Clone()
	if host := req.Header.Get("Host"); host != "" {
		req.Host = host
		req.Header.Del("Host")
	}

	c.logger.Debug("upstream request",
		"method", req.Method,
		"target", pr.Target,
	)

	start := time.Now()
	resp, err := c.do(req)
	duration := time.Since(start).Seconds()

	method := metrics.NormalizeMethod(req.Method)
	if c.metrics != nil {
		c.metrics.UpstreamDuration.WithLabelValues(method).Observe(duration)
	}
	if err != nil {
		if c.metrics != nil {
			c.metrics.UpstreamErrors.WithLabelValues(method).Inc()
		}
		return nil, err
	}

	if c.metrics != nil {
		c.metrics.UpstreamResponses.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()
	}
	return resp, nil
}

// do performs the exchange and reads the body in full. The response body is
// closed on every path, which also closes the connection.
func (c *UpstreamClient) do(req *http.Request) (*model.ProxyResponse, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read upstream response: %w", err)
	}

	return &model.ProxyResponse{
		StatusCode: resp.StatusCode,
		Reason:     reasonPhrase(resp),
		Header:     resp.Header,
		Body:       payload,
	}, nil
}

// reasonPhrase extracts the text after the status code in the status line.
func reasonPhrase(resp *http.Response) string {
	reason := strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode))
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return http.StatusText(resp.StatusCode)
	}
	return reason
}
