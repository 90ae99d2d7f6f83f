package adminapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/stocklight/stocklight/config"
	"github.com/stocklight/stocklight/internal/app"
	"github.com/stocklight/stocklight/internal/webserver"
)

// fakeAssetStore counts uploads and remembers released asset ids.
// Setting uploadErr or releaseErr makes the corresponding operation
// fail, for exercising the failure paths.
type fakeAssetStore struct {
	uploads    int
	releases   []string
	uploadErr  error
	releaseErr error
}

func (f *fakeAssetStore) Upload(ctx context.Context, r io.Reader) (string, string, error) {
	if f.uploadErr != nil {
		return "", "", f.uploadErr
	}
	f.uploads++
	id := fmt.Sprintf("asset-%d", f.uploads)
	return "https://img.test/" + id, id, nil
}

func (f *fakeAssetStore) Release(ctx context.Context, assetID string) error {
	if f.releaseErr != nil {
		return f.releaseErr
	}
	f.releases = append(f.releases, assetID)
	return nil
}

func setupServer(t *testing.T) (*app.Application, *fakeAssetStore, http.Handler) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	cfg := &config.AppConfig{}
	*cfg = *config.DefaultAppConfig
	cfg.Web.Secret = "test-session-secret"
	cfg.Web.AllowSeed = true

	store := &fakeAssetStore{}
	application := app.NewTestApplication(cfg, db, store)
	if err := application.MigrateDB(false); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := application.SeedDefaultOpr(); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	webserver.Init(application)
	InitRouter()
	return application, store, webserver.Handler()
}

func doJSON(handler http.Handler, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func loginCookie(t *testing.T, handler http.Handler) *http.Cookie {
	t.Helper()
	rec := doJSON(handler, http.MethodPost, "/api/auth/login",
		`{"username":"admin","password":"admin123"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: status %d body %s", rec.Code, rec.Body.String())
	}
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == webserver.SessionName {
			return ck
		}
	}
	t.Fatal("login response did not set a session cookie")
	return nil
}
