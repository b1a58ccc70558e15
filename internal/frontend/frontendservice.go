// Package frontend serves the static pages (paint canvas, gallery, display
// overlay) and the raw uploaded files. All UI logic lives in the static
// assets; the server is a passthrough.
package frontend

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"

	"github.com/jajady/love-from-fans/internal/core"
	"github.com/jajady/love-from-fans/internal/fsutil"
	"github.com/jajady/love-from-fans/internal/gallery"
)

type FrontendService struct {
	config  *core.ServiceConfig
	gallery *gallery.Store
}

func NewFrontendService(config *core.ServiceConfig, store *gallery.Store) *FrontendService {
	return &FrontendService{
		config:  config,
		gallery: store,
	}
}

func (service *FrontendService) SetRoutes(e *echo.Echo) {
	e.GET("/uploads/*", service.uploadFileHandler)
	// Static asset passthrough from the public root; unknown paths 404.
	e.Static("/", service.config.PublicDir)
}

// uploadFileHandler serves raw uploaded bytes. The wildcard is user input
// and must never resolve outside the upload root.
func (service *FrontendService) uploadFileHandler(ctx echo.Context) error {
	rel := ctx.Param("*")

	abs, err := fsutil.JoinWithinRoot(service.gallery.Root(), rel)
	if err != nil {
		slog.Warn("uploadFileHandler: rejected path", "status", http.StatusBadRequest, "path", rel, "error", err)
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid path"})
	}

	info, err := os.Stat(abs)
	if err != nil || info.IsDir() {
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Error("uploadFileHandler: stat failed", "path", rel, "error", err)
		}
		return ctx.JSON(http.StatusNotFound, map[string]string{"error": "not found"})
	}

	// ctx.File sets the content type from the file extension.
	service.setNoCache(ctx)
	return ctx.File(abs)
}

func (service *FrontendService) setNoCache(ctx echo.Context) {
	ctx.Response().Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	ctx.Response().Header().Set("Pragma", "no-cache")
	ctx.Response().Header().Set("Expires", "0")
}
