// Package model defines shared types for the gateway.
package model

import (
	"context"
	"net/http"
)

// ProxyRequest is an API-routed client request, fully buffered, on its way upstream.
type ProxyRequest struct {
	Ctx    context.Context
	Method string
	// Target is the escaped path plus "?" and the raw query when one was sent.
	Target string
	Header http.Header
	Body   []byte
}

// ProxyResponse is a complete upstream response. Body holds every byte the
// upstream sent; nothing is forwarded until it has been read in full.
type ProxyResponse struct {
	StatusCode int
	Reason     string
	Header     http.Header
	Body       []byte
}
