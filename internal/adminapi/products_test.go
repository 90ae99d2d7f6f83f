package adminapi

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/stocklight/stocklight/internal/domain"
	"github.com/stocklight/stocklight/pkg/common"
)

func doForm(handler http.Handler, method, path string, fields map[string]string, withFile bool) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = w.WriteField(k, v)
	}
	if withFile {
		fw, _ := w.CreateFormFile("file", "product.png")
		_, _ = fw.Write([]byte("not-a-real-png"))
	}
	_ = w.Close()

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestCreateProductWithURL(t *testing.T) {
	_, store, handler := setupServer(t)

	rec := doForm(handler, http.MethodPost, "/api/products", map[string]string{
		"name":  "Widget",
		"price": "9.99",
		"stock": "25",
		"image": "https://example.com/widget.png",
	}, false)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var p domain.Product
	if err := jsoniter.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Name != "Widget" || p.Price != 9.99 || p.Stock != 25 {
		t.Fatalf("unexpected product: %+v", p)
	}
	if p.Image != "https://example.com/widget.png" {
		t.Fatalf("expected raw url, got %q", p.Image)
	}
	if p.ImageAssetID != "" {
		t.Fatal("a raw url must not own an asset id")
	}
	if store.uploads != 0 {
		t.Fatalf("expected no uploads, got %d", store.uploads)
	}
}

func TestCreateProductWithFileUpload(t *testing.T) {
	_, store, handler := setupServer(t)

	rec := doForm(handler, http.MethodPost, "/api/products", map[string]string{
		"name":  "Gadget",
		"price": "19.50",
		"stock": "5",
	}, true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var p domain.Product
	_ = jsoniter.Unmarshal(rec.Body.Bytes(), &p)
	if store.uploads != 1 {
		t.Fatalf("expected one upload, got %d", store.uploads)
	}
	if p.ImageAssetID != "asset-1" {
		t.Fatalf("expected owned asset id, got %q", p.ImageAssetID)
	}
	if p.Image != "https://img.test/asset-1" {
		t.Fatalf("expected uploaded url, got %q", p.Image)
	}
}

func TestCreateProductValidation(t *testing.T) {
	_, _, handler := setupServer(t)

	tests := []struct {
		name   string
		fields map[string]string
	}{
		{"short name", map[string]string{"name": "W", "price": "1", "stock": "1"}},
		{"zero price", map[string]string{"name": "Widget", "price": "0", "stock": "1"}},
		{"bad price", map[string]string{"name": "Widget", "price": "cheap", "stock": "1"}},
		{"negative stock", map[string]string{"name": "Widget", "price": "1", "stock": "-3"}},
		{"fractional stock", map[string]string{"name": "Widget", "price": "1", "stock": "2.5"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := doForm(handler, http.MethodPost, "/api/products", tc.fields, false)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
			var body map[string]interface{}
			_ = jsoniter.Unmarshal(rec.Body.Bytes(), &body)
			if body["code"] != "INVALID_REQUEST" {
				t.Fatalf("expected INVALID_REQUEST, got %v", body["code"])
			}
		})
	}
}

func TestCreateProductUploadFailure(t *testing.T) {
	application, store, handler := setupServer(t)
	store.uploadErr = errors.New("storage unavailable")

	rec := doForm(handler, http.MethodPost, "/api/products", map[string]string{
		"name": "Gadget", "price": "19.50", "stock": "5",
	}, true)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", rec.Code, rec.Body.String())
	}
	var body map[string]interface{}
	_ = jsoniter.Unmarshal(rec.Body.Bytes(), &body)
	if body["code"] != "UPLOAD_FAILED" {
		t.Fatalf("expected UPLOAD_FAILED, got %v", body["code"])
	}

	var count int64
	application.DB().Model(&domain.Product{}).Count(&count)
	if count != 0 {
		t.Fatalf("no record must be persisted on upload failure, got %d", count)
	}
}

func TestUpdateProductUploadFailure(t *testing.T) {
	application, store, handler := setupServer(t)

	p := domain.Product{ID: common.UUIDint64(), Name: "Widget", Price: 9.99, Stock: 10,
		Image: "https://example.com/widget.png"}
	if err := application.DB().Create(&p).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	store.uploadErr = errors.New("storage unavailable")

	rec := doForm(handler, http.MethodPut, "/api/products", map[string]string{
		"id": strconv.FormatInt(p.ID, 10), "stock": "1",
	}, true)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", rec.Code, rec.Body.String())
	}
	var body map[string]interface{}
	_ = jsoniter.Unmarshal(rec.Body.Bytes(), &body)
	if body["code"] != "UPLOAD_FAILED" {
		t.Fatalf("expected UPLOAD_FAILED, got %v", body["code"])
	}

	var got domain.Product
	if err := application.DB().First(&got, p.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Stock != 10 || got.Image != "https://example.com/widget.png" {
		t.Fatalf("record must be unchanged on upload failure: %+v", got)
	}
}

func TestListProductsNewestFirst(t *testing.T) {
	application, _, handler := setupServer(t)

	base := time.Now().Add(-time.Hour)
	for i, name := range []string{"oldest", "middle", "newest"} {
		p := domain.Product{
			ID:        common.UUIDint64(),
			Name:      name,
			Price:     1,
			Stock:     1,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := application.DB().Create(&p).Error; err != nil {
			t.Fatalf("seed product: %v", err)
		}
	}

	rec := doJSON(handler, http.MethodGet, "/api/products", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var rows []domain.Product
	if err := jsoniter.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 products, got %d", len(rows))
	}
	if rows[0].Name != "newest" || rows[2].Name != "oldest" {
		t.Fatalf("expected newest-first ordering, got %s..%s", rows[0].Name, rows[2].Name)
	}
}

func TestUpdateProductRetainsOmittedFields(t *testing.T) {
	application, _, handler := setupServer(t)

	p := domain.Product{ID: common.UUIDint64(), Name: "Widget", Price: 9.99, Stock: 10,
		Image: "https://example.com/widget.png"}
	if err := application.DB().Create(&p).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}

	rec := doForm(handler, http.MethodPut, "/api/products", map[string]string{
		"id":    strconv.FormatInt(p.ID, 10),
		"stock": "42",
		"price": "not-a-number",
	}, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var got domain.Product
	if err := application.DB().First(&got, p.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Stock != 42 {
		t.Fatalf("expected stock 42, got %d", got.Stock)
	}
	if got.Name != "Widget" || got.Price != 9.99 {
		t.Fatalf("omitted fields must be retained: %+v", got)
	}
	if got.Image != "https://example.com/widget.png" {
		t.Fatalf("image must be retained, got %q", got.Image)
	}
}

func TestUpdateProductReplacesImage(t *testing.T) {
	application, store, handler := setupServer(t)

	p := domain.Product{ID: common.UUIDint64(), Name: "Widget", Price: 5, Stock: 3,
		Image: "https://img.test/asset-old", ImageAssetID: "asset-old"}
	if err := application.DB().Create(&p).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}

	rec := doForm(handler, http.MethodPut, "/api/products", map[string]string{
		"id": strconv.FormatInt(p.ID, 10),
	}, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var got domain.Product
	_ = application.DB().First(&got, p.ID).Error
	if got.ImageAssetID != "asset-1" {
		t.Fatalf("expected new asset id, got %q", got.ImageAssetID)
	}
	if len(store.releases) != 1 || store.releases[0] != "asset-old" {
		t.Fatalf("expected old asset released, got %v", store.releases)
	}
}

func TestUpdateProductReleaseFailureStillSucceeds(t *testing.T) {
	application, store, handler := setupServer(t)

	p := domain.Product{ID: common.UUIDint64(), Name: "Widget", Price: 5, Stock: 3,
		Image: "https://img.test/asset-old", ImageAssetID: "asset-old"}
	if err := application.DB().Create(&p).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	store.releaseErr = errors.New("storage unavailable")

	rec := doForm(handler, http.MethodPut, "/api/products", map[string]string{
		"id": strconv.FormatInt(p.ID, 10),
	}, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("release failure must not fail the update, got %d: %s", rec.Code, rec.Body.String())
	}

	var got domain.Product
	if err := application.DB().First(&got, p.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.ImageAssetID != "asset-1" {
		t.Fatalf("record must carry the new asset, got %q", got.ImageAssetID)
	}
}

func TestUpdateProductNotFound(t *testing.T) {
	_, _, handler := setupServer(t)

	rec := doForm(handler, http.MethodPut, "/api/products", map[string]string{
		"id": "123456789", "stock": "1",
	}, false)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestDeleteProduct(t *testing.T) {
	application, store, handler := setupServer(t)

	p := domain.Product{ID: common.UUIDint64(), Name: "Widget", Price: 5, Stock: 3,
		Image: "https://img.test/asset-9", ImageAssetID: "asset-9"}
	if err := application.DB().Create(&p).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}

	rec := doJSON(handler, http.MethodDelete,
		"/api/products?id="+strconv.FormatInt(p.ID, 10), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var count int64
	application.DB().Model(&domain.Product{}).Where("id = ?", p.ID).Count(&count)
	if count != 0 {
		t.Fatal("product record must be deleted")
	}
	if len(store.releases) != 1 || store.releases[0] != "asset-9" {
		t.Fatalf("expected owned asset released, got %v", store.releases)
	}

	// deleting again is a 404
	rec = doJSON(handler, http.MethodDelete,
		"/api/products?id="+strconv.FormatInt(p.ID, 10), "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestDeleteProductReleaseFailureStillSucceeds(t *testing.T) {
	application, store, handler := setupServer(t)

	p := domain.Product{ID: common.UUIDint64(), Name: "Widget", Price: 5, Stock: 3,
		Image: "https://img.test/asset-9", ImageAssetID: "asset-9"}
	if err := application.DB().Create(&p).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	store.releaseErr = errors.New("storage unavailable")

	rec := doJSON(handler, http.MethodDelete,
		"/api/products?id="+strconv.FormatInt(p.ID, 10), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("release failure must not fail the delete, got %d: %s", rec.Code, rec.Body.String())
	}

	var count int64
	application.DB().Model(&domain.Product{}).Where("id = ?", p.ID).Count(&count)
	if count != 0 {
		t.Fatal("record must be deleted even when the asset release fails")
	}
}

func TestDeleteProductWithoutOwnedAsset(t *testing.T) {
	application, store, handler := setupServer(t)

	p := domain.Product{ID: common.UUIDint64(), Name: "Widget", Price: 5, Stock: 3,
		Image: "https://example.com/external.png"}
	if err := application.DB().Create(&p).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}

	rec := doJSON(handler, http.MethodDelete,
		"/api/products?id="+strconv.FormatInt(p.ID, 10), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(store.releases) != 0 {
		t.Fatalf("external urls must never be released, got %v", store.releases)
	}
}

func TestProductMutationsAudited(t *testing.T) {
	application, _, handler := setupServer(t)

	rec := doForm(handler, http.MethodPost, "/api/products", map[string]string{
		"name": "Widget", "price": "9.99", "stock": "10",
	}, false)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	// the audit recorder subscribes synchronously on the bus
	var count int64
	application.DB().Model(&domain.SysOprLog{}).
		Where("opt_action = ?", "product.created").Count(&count)
	if count != 1 {
		t.Fatalf("expected one audit row, got %d", count)
	}
}
