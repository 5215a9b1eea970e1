package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"testing"

	"devgateway/internal/config"
	"devgateway/internal/model"
)

// fakeUpstream records the request it receives and replays a canned result.
type fakeUpstream struct {
	got  *model.ProxyRequest
	resp *model.ProxyResponse
	err  error
}

func (f *fakeUpstream) Do(pr *model.ProxyRequest) (*model.ProxyResponse, error) {
	f.got = pr
	return f.resp, f.err
}

func newTestService(u Upstream) *ProxyService {
	cfg := &config.Config{Upstream: config.UpstreamConfig{Host: "127.0.0.1", Port: 3000}}
	return NewProxyService(u, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func okResponse() *model.ProxyResponse {
	return &model.ProxyResponse{StatusCode: http.StatusOK, Header: http.Header{}}
}

func TestForward_RequestHeaders(t *testing.T) {
	up := &fakeUpstream{resp: okResponse()}
	s := newTestService(up)

	src := http.Header{
		"Host":           {"localhost:8080"},
		"Connection":     {"keep-alive"},
		"Content-Length": {"5"},
		"Content-Type":   {"application/json"},
		"Authorization":  {"Bearer token"},
		"Cookie":         {"session=abc"},
		"X-Custom":       {"a", "b"},
	}

	_, err := s.Forward(&model.ProxyRequest{
		Ctx:    context.Background(),
		Method: http.MethodPost,
		Target: "/api/users",
		Header: src,
		Body:   []byte("hello"),
	})
	if err != nil {
		t.Fatalf("Forward() error = %v", err)
	}
	if up.got == nil {
		t.Fatal("upstream was not called")
	}

	want := http.Header{
		"Host":          {"127.0.0.1:3000"},
		"Content-Type":  {"application/json"},
		"Authorization": {"Bearer token"},
		"Cookie":        {"session=abc"},
		"X-Custom":      {"a", "b"},
	}
	if !reflect.DeepEqual(up.got.Header, want) {
		t.Errorf("forwarded header = %v, want %v", up.got.Header, want)
	}

	if up.got.Method != http.MethodPost {
		t.Errorf("method = %q, want %q", up.got.Method, http.MethodPost)
	}
	if up.got.Target != "/api/users" {
		t.Errorf("target = %q, want %q", up.got.Target, "/api/users")
	}
	if string(up.got.Body) != "hello" {
		t.Errorf("body = %q, want %q", up.got.Body, "hello")
	}

	// The caller's header is left untouched.
	if got := src.Get("Host"); got != "localhost:8080" {
		t.Errorf("source Host = %q, want %q", got, "localhost:8080")
	}
	if got := src.Get("Connection"); got != "keep-alive" {
		t.Errorf("source Connection = %q, want %q", got, "keep-alive")
	}
}

func TestForward_DroppedHeadersCaseInsensitive(t *testing.T) {
	up := &fakeUpstream{resp: okResponse()}
	s := newTestService(up)

	// Non-canonical keys can appear when headers are built by hand.
	src := http.Header{
		"host":           {"evil"},
		"CONNECTION":     {"close"},
		"content-length": {"9"},
	}

	if _, err := s.Forward(&model.ProxyRequest{Ctx: context.Background(), Method: http.MethodGet, Target: "/api", Header: src}); err != nil {
		t.Fatalf("Forward() error = %v", err)
	}

	want := http.Header{"Host": {"127.0.0.1:3000"}}
	if !reflect.DeepEqual(up.got.Header, want) {
		t.Errorf("forwarded header = %v, want %v", up.got.Header, want)
	}
}

func TestForward_ResponseHeaders(t *testing.T) {
	up := &fakeUpstream{resp: &model.ProxyResponse{
		StatusCode: http.StatusOK,
		Reason:     "OK",
		Header: http.Header{
			"Transfer-Encoding": {"chunked"},
			"Connection":        {"keep-alive"},
			"Keep-Alive":        {"timeout=5"},
			"Content-Type":      {"application/json; charset=utf-8"},
			"Set-Cookie":        {"a=1", "b=2"},
			"X-Test":            {"v"},
		},
		Body: []byte(`{"ok":true}`),
	}}
	s := newTestService(up)

	resp, err := s.Forward(&model.ProxyRequest{Ctx: context.Background(), Method: http.MethodGet, Target: "/api/x", Header: http.Header{}})
	if err != nil {
		t.Fatalf("Forward() error = %v", err)
	}

	tests := []struct {
		name    string
		key     string
		wantLen int
	}{
		{"Transfer-Encoding stripped", "Transfer-Encoding", 0},
		{"Connection stripped", "Connection", 0},
		{"Keep-Alive stripped", "Keep-Alive", 0},
		{"Content-Type forwarded", "Content-Type", 1},
		{"Set-Cookie forwarded", "Set-Cookie", 2},
		{"X-Test forwarded", "X-Test", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resp.Header.Values(tt.key); len(got) != tt.wantLen {
				t.Errorf("%s = %v, want %d values", tt.key, got, tt.wantLen)
			}
		})
	}

	if got := resp.Header.Get("Content-Type"); got != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q, want %q", got, "application/json; charset=utf-8")
	}
	if string(resp.Body) != `{"ok":true}` {
		t.Errorf("body = %q, want %q", resp.Body, `{"ok":true}`)
	}
	if resp.Reason != "OK" {
		t.Errorf("reason = %q, want %q", resp.Reason, "OK")
	}
}

func TestForward_Error(t *testing.T) {
	cause := errors.New("connection refused")
	s := newTestService(&fakeUpstream{err: cause})

	resp, err := s.Forward(&model.ProxyRequest{Ctx: context.Background(), Method: http.MethodGet, Target: "/api", Header: http.Header{}})
	if err == nil {
		t.Fatal("Forward() error = nil, want error")
	}
	if resp != nil {
		t.Errorf("response = %+v, want nil", resp)
	}
	if !errors.Is(err, cause) {
		t.Errorf("error %v does not wrap %v", err, cause)
	}
	if !strings.Contains(err.Error(), "127.0.0.1:3000") {
		t.Errorf("error %q should name the upstream address", err)
	}
}

func TestBuildTarget(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		rawQuery string
		want     string
	}{
		{"bare prefix", "/api", "", "/api"},
		{"nested path", "/api/users/1", "", "/api/users/1"},
		{"query preserved", "/api/search", "q=abc", "/api/search?q=abc"},
		{"encoded query untouched", "/api/search", "q=a%20b&z=1&a=2", "/api/search?q=a%20b&z=1&a=2"},
		{"escaped path untouched", "/api/files/a%2Fb", "", "/api/files/a%2Fb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildTarget(tt.path, tt.rawQuery); got != tt.want {
				t.Errorf("BuildTarget(%q, %q) = %q, want %q", tt.path, tt.rawQuery, got, tt.want)
			}
		})
	}
}
