package frontend

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/jajady/love-from-fans/internal/core"
	"github.com/jajady/love-from-fans/internal/gallery"
	"github.com/jajady/love-from-fans/internal/persist"
)

func newTestFrontend(t *testing.T) (*FrontendService, *echo.Echo, *gallery.Store) {
	t.Helper()

	records, err := persist.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create record store: %v", err)
	}
	t.Cleanup(func() { _ = records.Close() })

	uploadDir := filepath.Join(t.TempDir(), "uploads")
	store, err := gallery.NewStore(uploadDir, 24, records)
	if err != nil {
		t.Fatalf("failed to create gallery store: %v", err)
	}

	publicDir := filepath.Join(t.TempDir(), "public")
	if err := os.MkdirAll(publicDir, 0o755); err != nil {
		t.Fatalf("failed to create public dir: %v", err)
	}
	config := &core.ServiceConfig{PublicDir: publicDir, UploadDir: uploadDir}

	service := NewFrontendService(config, store)
	e := echo.New()
	service.SetRoutes(e)
	return service, e, store
}

func TestUploadFileHandler(t *testing.T) {
	_, e, store := newTestFrontend(t)

	image, err := store.Add([]byte("png bytes"))
	if err != nil {
		t.Fatalf("failed to add image: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/uploads/"+image.RelPath, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Body.String(); got != "png bytes" {
		t.Errorf("unexpected body %q", got)
	}
	if cacheControl := rec.Header().Get("Cache-Control"); cacheControl == "" {
		t.Error("expected a Cache-Control header on served uploads")
	}
}

func TestUploadFileHandler_Missing(t *testing.T) {
	_, e, _ := newTestFrontend(t)

	req := httptest.NewRequest(http.MethodGet, "/uploads/batch-0001/absent.png", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestUploadFileHandler_Traversal(t *testing.T) {
	service, e, _ := newTestFrontend(t)

	// Exercise the handler directly so URL normalization in the client
	// cannot mask a traversal attempt.
	req := httptest.NewRequest(http.MethodGet, "/uploads/x", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.SetPath("/uploads/*")
	ctx.SetParamNames("*")
	ctx.SetParamValues("../../etc/passwd")

	if err := service.uploadFileHandler(ctx); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}
