package backend

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/crypto/bcrypt"

	"github.com/jajady/love-from-fans/internal/backend/events"
	"github.com/jajady/love-from-fans/internal/core"
	"github.com/jajady/love-from-fans/internal/fsutil"
	"github.com/jajady/love-from-fans/internal/gallery"
	"github.com/jajady/love-from-fans/internal/imagemeta"
	"github.com/jajady/love-from-fans/internal/layout"
)

const (
	sessionCookieName = "session"
	dataURLPrefix     = "data:image/png;base64,"

	// Aspect ratio used when an image's PNG header is unreadable.
	fallbackWidth  = 600
	fallbackHeight = 400
)

type APIService struct {
	config   *core.ServiceConfig
	core     *core.CoreService
	hub      *events.Hub
	upgrader websocket.Upgrader
}

func NewAPIService(config *core.ServiceConfig, coreService *core.CoreService, hub *events.Hub) *APIService {
	return &APIService{
		config: config,
		core:   coreService,
		hub:    hub,
		upgrader: websocket.Upgrader{
			// The overlay runs on a local display; cross-origin pages are fine.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (service *APIService) SetRoutes(e *echo.Echo) {
	e.GET("/healthz", service.healthHandler)

	api := e.Group("/api")
	api.POST("/login", service.loginHandler)
	// The display overlay is a passive reader and stays outside the login gate.
	api.GET("/slots", service.slotsHandler)
	api.GET("/events", service.eventsHandler)

	protected := api.Group("", service.requireSession)
	protected.GET("/list", service.listHandler)
	protected.GET("/folders", service.foldersHandler)
	protected.GET("/batches", service.batchesHandler)
	protected.POST("/batches/select", service.selectBatchHandler)
	protected.GET("/trash", service.trashHandler)
	protected.POST("/restore", service.restoreHandler)
	protected.POST("/upload", service.uploadHandler,
		middleware.BodyLimit(strconv.FormatInt(service.config.MaxUploadBytes, 10)))
	protected.DELETE("/delete", service.deleteHandler)
	protected.POST("/delete", service.deleteHandler)
	protected.POST("/logout", service.logoutHandler)
}

type uploadRequest struct {
	DataURL string `json:"dataUrl" validate:"required"`
}

type selectBatchRequest struct {
	Index *int `json:"index" validate:"required"`
}

type restoreRequest struct {
	ID string `json:"id" validate:"required"`
}

type deleteRequest struct {
	Path     string `json:"path"`
	Filename string `json:"filename"`
}

type loginRequest struct {
	Password string `json:"password" validate:"required"`
}

type imageItem struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
	URL      string `json:"url"`
}

func newImageItem(image gallery.Image) imageItem {
	return imageItem{
		Filename: image.Filename,
		Path:     image.RelPath,
		URL:      "/uploads/" + image.RelPath,
	}
}

func (service *APIService) healthHandler(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "ok")
}

func (service *APIService) listHandler(ctx echo.Context) error {
	folder := ctx.QueryParam("folder")
	if folder != "" {
		cleaned, err := fsutil.CleanRelPath(folder)
		if err != nil {
			return service.errorResponse(ctx, "listHandler", err)
		}
		folder = cleaned
	}

	images, err := service.core.Gallery.Images()
	if err != nil {
		return service.errorResponse(ctx, "listHandler", err)
	}

	items := make([]imageItem, 0, len(images))
	for _, image := range images {
		if folder != "" && path.Dir(image.RelPath) != folder {
			continue
		}
		items = append(items, newImageItem(image))
	}
	return ctx.JSON(http.StatusOK, items)
}

func (service *APIService) foldersHandler(ctx echo.Context) error {
	folders, err := service.core.Gallery.Folders()
	if err != nil {
		return service.errorResponse(ctx, "foldersHandler", err)
	}
	return ctx.JSON(http.StatusOK, folders)
}

type batchItem struct {
	Index      int         `json:"index"`
	Count      int         `json:"count"`
	Items      []imageItem `json:"items"`
	IsSelected bool        `json:"isSelected"`
}

type batchesResponse struct {
	BatchSize     int         `json:"batchSize"`
	SelectedIndex *int        `json:"selectedIndex"`
	Batches       []batchItem `json:"batches"`
}

func (service *APIService) batchesHandler(ctx echo.Context) error {
	batches, err := service.core.Gallery.Batches()
	if err != nil {
		return service.errorResponse(ctx, "batchesHandler", err)
	}

	response := batchesResponse{
		BatchSize: service.core.Gallery.BatchSize(),
		Batches:   make([]batchItem, 0, len(batches)),
	}
	if selected, ok := service.core.Gallery.SelectedBatch(len(batches)); ok {
		response.SelectedIndex = &selected
	}
	for _, batch := range batches {
		items := make([]imageItem, 0, len(batch.Items))
		for _, image := range batch.Items {
			items = append(items, newImageItem(image))
		}
		response.Batches = append(response.Batches, batchItem{
			Index:      batch.Index,
			Count:      len(batch.Items),
			Items:      items,
			IsSelected: response.SelectedIndex != nil && *response.SelectedIndex == batch.Index,
		})
	}
	return ctx.JSON(http.StatusOK, response)
}

func (service *APIService) selectBatchHandler(ctx echo.Context) error {
	var request selectBatchRequest
	if err := ctx.Bind(&request); err != nil {
		return service.badRequest(ctx, "selectBatchHandler", "invalid request body")
	}
	if err := ctx.Validate(&request); err != nil {
		return service.badRequest(ctx, "selectBatchHandler", "index is required")
	}

	if err := service.core.Gallery.SelectBatch(*request.Index); err != nil {
		return service.errorResponse(ctx, "selectBatchHandler", err)
	}
	service.hub.Broadcast("selection")
	return ctx.JSON(http.StatusOK, map[string]bool{"ok": true})
}

type trashItem struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	OriginalPath string    `json:"originalPath"`
	TrashedAt    time.Time `json:"trashedAt"`
	URL          string    `json:"url"`
}

func (service *APIService) trashHandler(ctx echo.Context) error {
	entries, err := service.core.Gallery.Trash()
	if err != nil {
		return service.errorResponse(ctx, "trashHandler", err)
	}

	items := make([]trashItem, 0, len(entries))
	for _, entry := range entries {
		items = append(items, trashItem{
			ID:           entry.ID,
			Filename:     entry.Filename,
			OriginalPath: entry.OriginalPath,
			TrashedAt:    entry.TrashedAt,
			URL:          "/uploads/" + service.core.Gallery.TrashedURLPath(entry),
		})
	}
	return ctx.JSON(http.StatusOK, items)
}

func (service *APIService) restoreHandler(ctx echo.Context) error {
	var request restoreRequest
	if err := ctx.Bind(&request); err != nil {
		return service.badRequest(ctx, "restoreHandler", "invalid request body")
	}
	if err := ctx.Validate(&request); err != nil {
		return service.badRequest(ctx, "restoreHandler", "id is required")
	}

	restoredPath, err := service.core.Gallery.Restore(request.ID)
	if err != nil {
		return service.errorResponse(ctx, "restoreHandler", err)
	}
	service.hub.Broadcast("gallery")
	return ctx.JSON(http.StatusOK, map[string]string{"path": restoredPath})
}

type slotItem struct {
	layout.Placement
	URL string `json:"url"`
}

func (service *APIService) slotsHandler(ctx echo.Context) error {
	slots, err := service.core.Slots()
	if err != nil {
		return service.errorResponse(ctx, "slotsHandler", err)
	}

	batches, err := service.core.Gallery.Batches()
	if err != nil {
		return service.errorResponse(ctx, "slotsHandler", err)
	}
	var window []gallery.Image
	if selected, ok := service.core.Gallery.SelectedBatch(len(batches)); ok {
		window = batches[selected].Items
	}

	items := make([]layout.Item, 0, len(window))
	for _, image := range window {
		item := layout.Item{Path: image.RelPath}
		abs := filepath.Join(service.core.Gallery.Root(), filepath.FromSlash(image.RelPath))
		if dims, err := imagemeta.ReadDimensions(abs); err != nil {
			// Unreadable headers never fail layout; use the default ratio.
			item.Width, item.Height = fallbackWidth, fallbackHeight
		} else {
			item.Width, item.Height = dims.Width, dims.Height
		}
		items = append(items, item)
	}

	placements := service.core.Engine.ArrangeSlots(slots, items)
	response := make([]slotItem, 0, len(placements))
	for _, placement := range placements {
		response = append(response, slotItem{
			Placement: placement,
			URL:       "/uploads/" + placement.Path,
		})
	}

	service.setNoCache(ctx)
	return ctx.JSON(http.StatusOK, response)
}

func (service *APIService) uploadHandler(ctx echo.Context) error {
	var request uploadRequest
	if err := ctx.Bind(&request); err != nil {
		return service.badRequest(ctx, "uploadHandler", "invalid request body")
	}
	if err := ctx.Validate(&request); err != nil {
		return service.badRequest(ctx, "uploadHandler", "dataUrl is required")
	}
	if !strings.HasPrefix(request.DataURL, dataURLPrefix) {
		return service.badRequest(ctx, "uploadHandler", "dataUrl must be a base64 PNG data URL")
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(request.DataURL, dataURLPrefix))
	if err != nil {
		return service.badRequest(ctx, "uploadHandler", "dataUrl is not valid base64")
	}
	if _, err := imagemeta.ParseDimensions(data); err != nil {
		return service.badRequest(ctx, "uploadHandler", "payload is not a PNG image")
	}

	image, err := service.core.Gallery.Add(data)
	if err != nil {
		return service.errorResponse(ctx, "uploadHandler", err)
	}
	slog.Info("image uploaded", "path", image.RelPath, "bytes", len(data))
	service.hub.Broadcast("gallery")
	return ctx.JSON(http.StatusOK, newImageItem(image))
}

func (service *APIService) deleteHandler(ctx echo.Context) error {
	var request deleteRequest
	// Body is optional; the target may arrive via query parameters instead.
	_ = ctx.Bind(&request)

	target := request.Path
	if target == "" {
		target = request.Filename
	}
	if target == "" {
		target = ctx.QueryParam("path")
	}
	if target == "" {
		target = ctx.QueryParam("filename")
	}
	if target == "" {
		return service.badRequest(ctx, "deleteHandler", "path or filename is required")
	}

	entry, err := service.core.Gallery.MoveToTrash(target)
	if err != nil {
		return service.errorResponse(ctx, "deleteHandler", err)
	}
	slog.Info("image moved to trash", "path", entry.OriginalPath, "id", entry.ID)
	service.hub.Broadcast("gallery")
	return ctx.JSON(http.StatusOK, map[string]string{"path": entry.OriginalPath})
}

func (service *APIService) loginHandler(ctx echo.Context) error {
	var request loginRequest
	if err := ctx.Bind(&request); err != nil {
		return service.badRequest(ctx, "loginHandler", "invalid request body")
	}
	if err := ctx.Validate(&request); err != nil {
		return service.badRequest(ctx, "loginHandler", "password is required")
	}

	if !passwordMatches(service.config.Password, request.Password) {
		slog.Warn("loginHandler: rejected login attempt", "status", http.StatusUnauthorized)
		return ctx.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}

	token, err := service.core.Sessions.Create(ctx.Request().Context())
	if err != nil {
		return service.errorResponse(ctx, "loginHandler", err)
	}
	ctx.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   service.config.Sessions.TTLHours * 3600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return ctx.JSON(http.StatusOK, map[string]bool{"ok": true})
}

func (service *APIService) logoutHandler(ctx echo.Context) error {
	if cookie, err := ctx.Cookie(sessionCookieName); err == nil {
		if err := service.core.Sessions.Revoke(ctx.Request().Context(), cookie.Value); err != nil {
			slog.Error("logoutHandler: failed to revoke session", "error", err)
		}
	}
	ctx.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return ctx.JSON(http.StatusOK, map[string]bool{"ok": true})
}

func (service *APIService) eventsHandler(ctx echo.Context) error {
	conn, err := service.upgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		slog.Warn("eventsHandler: websocket upgrade failed", "error", err)
		return nil
	}
	service.hub.Register(conn)
	go func() {
		defer service.hub.Unregister(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	return nil
}

// requireSession gates a route on a valid session cookie. With no password
// configured the server runs in open mode and the gate is a no-op.
func (service *APIService) requireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if service.config.Password == "" {
			return next(ctx)
		}
		if cookie, err := ctx.Cookie(sessionCookieName); err == nil {
			valid, err := service.core.Sessions.Valid(ctx.Request().Context(), cookie.Value)
			if err != nil {
				slog.Error("requireSession: session lookup failed", "error", err)
			} else if valid {
				return next(ctx)
			}
		}
		return ctx.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}
}

// passwordMatches supports both a plaintext shared password (compared in
// constant time) and a bcrypt hash in the config.
func passwordMatches(configured, supplied string) bool {
	if configured == "" {
		return false
	}
	if strings.HasPrefix(configured, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(configured), []byte(supplied)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(configured), []byte(supplied)) == 1
}

func (service *APIService) badRequest(ctx echo.Context, handler, message string) error {
	slog.Warn(handler+": "+message, "status", http.StatusBadRequest)
	return ctx.JSON(http.StatusBadRequest, map[string]string{"error": message})
}

// errorResponse maps domain errors onto HTTP statuses. Internal failures are
// logged and surfaced as bare 500s without leaking detail.
func (service *APIService) errorResponse(ctx echo.Context, handler string, err error) error {
	switch {
	case errors.Is(err, fsutil.ErrInvalidPath):
		slog.Warn(handler+": invalid path", "status", http.StatusBadRequest, "error", err)
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid path"})
	case errors.Is(err, gallery.ErrValidation):
		slog.Warn(handler+": validation failed", "status", http.StatusBadRequest, "error", err)
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid value"})
	case errors.Is(err, gallery.ErrAlreadyTrashed):
		slog.Warn(handler+": target already trashed", "status", http.StatusBadRequest, "error", err)
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "already in trash"})
	case errors.Is(err, gallery.ErrNotFound):
		slog.Warn(handler+": target not found", "status", http.StatusNotFound, "error", err)
		return ctx.JSON(http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, layout.ErrConfiguration):
		slog.Error(handler+": slot configuration error", "status", http.StatusInternalServerError, "error", err)
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": "slot configuration error"})
	default:
		slog.Error(handler+": internal error", "status", http.StatusInternalServerError, "error", err)
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func (service *APIService) setNoCache(ctx echo.Context) {
	ctx.Response().Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	ctx.Response().Header().Set("Pragma", "no-cache")
	ctx.Response().Header().Set("Expires", "0")
}
