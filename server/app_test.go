package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"formfill/config"
)

func sqliteConfig() *config.Config {
	var c config.Config
	c.Server.Address = "127.0.0.1"
	c.Server.HTTPPort = "0"
	c.Server.MaxBodyBytes = 1 << 20
	c.Logging.Level = "error"
	c.Database.Driver = "sqlite"
	c.Database.DSN = "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	c.Database.OpTimeout = 5 * time.Second
	c.Redtail.APIURL = "http://127.0.0.1:1"
	return &c
}

func TestInitializeWiresRoutes(t *testing.T) {
	app := &App{}
	if err := app.Initialize(sqliteConfig()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	t.Cleanup(func() { _ = app.stores.Close(context.Background()) })

	tests := []struct {
		method, path, body string
		want               int
	}{
		{method: http.MethodGet, path: "/healthz", want: http.StatusOK},
		{method: http.MethodGet, path: "/readyz", want: http.StatusOK},
		{method: http.MethodGet, path: "/templates", want: http.StatusOK},
		{method: http.MethodGet, path: "/bundles", want: http.StatusOK},
		{method: http.MethodPost, path: "/bundles", body: `{"bundle_name":"x","filenames":["missing.pdf"]}`, want: http.StatusInternalServerError},
		{method: http.MethodDelete, path: "/bundles", body: `{"bundle_name":"nope"}`, want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			app.Handler.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body)))
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestBodyLimitFromConfig(t *testing.T) {
	app := &App{}
	if err := app.Initialize(sqliteConfig()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	t.Cleanup(func() { _ = app.stores.Close(context.Background()) })

	req := httptest.NewRequest(http.MethodPost, "/bundles", strings.NewReader(`{}`))
	req.ContentLength = 2 << 20
	rec := httptest.NewRecorder()
	app.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rec.Code)
	}
}

func TestRedtailConfig(t *testing.T) {
	c := sqliteConfig()
	c.Redtail.APIKey, c.Redtail.Username, c.Redtail.Password = "k", "u", "p"
	rc := RedtailConfig(c)
	if rc.BaseURL != "http://127.0.0.1:1" || rc.AuthHeader() != "Basic azp1OnA=" {
		t.Fatalf("redtail config = %+v auth=%q", rc, rc.AuthHeader())
	}
}

func TestBodyLimitCoversUnmatchedRoutes(t *testing.T) {
	app := &App{}
	if err := app.Initialize(sqliteConfig()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	t.Cleanup(func() { _ = app.stores.Close(context.Background()) })

	tests := []struct {
		method, path string
	}{
		{method: http.MethodPost, path: "/no/such/route"},    // 404
		{method: http.MethodPut, path: "/bundles"},           // 405
		{method: http.MethodPost, path: "/templates/upload"}, // маршрут есть
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(`{}`))
			req.ContentLength = 600000000
			rec := httptest.NewRecorder()
			app.Handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusRequestEntityTooLarge {
				t.Fatalf("status = %d, want 413", rec.Code)
			}
			if rec.Header().Get("X-Request-ID") == "" {
				t.Fatal("missing X-Request-ID on rejected request")
			}
		})
	}
}

func TestUnknownRouteStill404(t *testing.T) {
	app := &App{}
	if err := app.Initialize(sqliteConfig()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	t.Cleanup(func() { _ = app.stores.Close(context.Background()) })

	rec := httptest.NewRecorder()
	app.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/no/such/route", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
