package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"devgateway/internal/config"
)

// StaticHandler serves files from the configured web directory: plain files,
// index.html or a listing for directories, 404 for anything missing.
type StaticHandler struct {
	fs http.Handler
}

// NewStaticHandler creates a StaticHandler rooted at cfg.Web.Dir.
func NewStaticHandler(cfg *config.Config) *StaticHandler {
	return &StaticHandler{
		fs: http.FileServer(http.Dir(cfg.Web.Dir)),
	}
}

// Handle serves the file named by the request path.
func (h *StaticHandler) Handle(c echo.Context) error {
	h.fs.ServeHTTP(c.Response(), c.Request())
	return nil
}
