package adminapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/stocklight/stocklight/internal/audit"
	"github.com/stocklight/stocklight/internal/domain"
	"github.com/stocklight/stocklight/internal/webserver"
	"github.com/stocklight/stocklight/pkg/common"
)

func registerProductRoutes() {
	webserver.ApiGET("/products", listProducts)
	webserver.ApiGET("/products/:id", getProduct)
	webserver.ApiPOST("/products", createProduct)
	webserver.ApiPUT("/products", updateProduct)
	webserver.ApiDELETE("/products", deleteProduct)
}

func listProducts(c echo.Context) error {
	db := GetDB(c).Model(&domain.Product{}).Order("created_at desc")

	// the admin pages consume the full catalog; pagination is opt-in
	if c.QueryParam("page") == "" {
		var rows []domain.Product
		if err := db.Find(&rows).Error; err != nil {
			return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
		}
		return ok(c, rows)
	}

	page, pageSize := parsePagination(c)
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}
	var rows []domain.Product
	if err := db.Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

func getProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid product id", nil)
	}
	var product domain.Product
	if err := GetDB(c).Where("id = ?", id).First(&product).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
	}
	return ok(c, product)
}

// resolveImage reads the optional image from the multipart form: an
// uploaded file wins over a raw url. Only uploaded files produce an
// asset id owned by the catalog.
func resolveImage(c echo.Context) (url, assetID string, err error) {
	fh, ferr := c.FormFile("file")
	if ferr != nil || fh == nil {
		return strings.TrimSpace(c.FormValue("image")), "", nil
	}
	src, err := fh.Open()
	if err != nil {
		return "", "", err
	}
	defer src.Close()
	return GetAppCtx(c).Assets().Upload(c.Request().Context(), src)
}

func createProduct(c echo.Context) error {
	name := strings.TrimSpace(c.FormValue("name"))
	if len([]rune(name)) < 2 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Name must be at least 2 characters", nil)
	}
	price, err := strconv.ParseFloat(c.FormValue("price"), 64)
	if err != nil || price <= 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Price must be a positive number", nil)
	}
	stock, err := strconv.Atoi(c.FormValue("stock"))
	if err != nil || stock < 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Stock must be a non-negative integer", nil)
	}

	image, assetID, err := resolveImage(c)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "UPLOAD_FAILED", "Failed to upload image", err.Error())
	}

	product := domain.Product{
		ID:           common.UUIDint64(),
		Name:         name,
		Price:        price,
		Stock:        stock,
		Image:        image,
		ImageAssetID: assetID,
	}
	if err := GetDB(c).Create(&product).Error; err != nil {
		releaseAsset(c, assetID)
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create product", err.Error())
	}

	GetAppCtx(c).Bus().Publish(audit.TopicProductCreated, webserver.CurrentUsername(c),
		"created product "+product.Name)

	return created(c, product)
}

func updateProduct(c echo.Context) error {
	id, err := strconv.ParseInt(c.FormValue("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid product id", nil)
	}
	var product domain.Product
	if err := GetDB(c).Where("id = ?", id).First(&product).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
	}

	// omitted or unparseable fields keep their stored value
	if name := strings.TrimSpace(c.FormValue("name")); len([]rune(name)) >= 2 {
		product.Name = name
	}
	if price, err := strconv.ParseFloat(c.FormValue("price"), 64); err == nil && price > 0 {
		product.Price = price
	}
	if stock, err := strconv.Atoi(c.FormValue("stock")); err == nil && stock >= 0 {
		product.Stock = stock
	}

	oldAssetID := product.ImageAssetID
	imageReplaced := false
	if fh, ferr := c.FormFile("file"); ferr == nil && fh != nil {
		src, err := fh.Open()
		if err != nil {
			return fail(c, http.StatusInternalServerError, "UPLOAD_FAILED", "Failed to read image", err.Error())
		}
		url, assetID, err := GetAppCtx(c).Assets().Upload(c.Request().Context(), src)
		src.Close()
		if err != nil {
			return fail(c, http.StatusInternalServerError, "UPLOAD_FAILED", "Failed to upload image", err.Error())
		}
		product.Image = url
		product.ImageAssetID = assetID
		imageReplaced = true
	} else if image := strings.TrimSpace(c.FormValue("image")); image != "" && image != product.Image {
		product.Image = image
		product.ImageAssetID = ""
		imageReplaced = true
	}

	product.UpdatedAt = time.Now()
	if err := GetDB(c).Save(&product).Error; err != nil {
		if imageReplaced {
			releaseAsset(c, product.ImageAssetID)
		}
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update product", err.Error())
	}

	// the record is authoritative, releasing the replaced asset is
	// best effort
	if imageReplaced && oldAssetID != "" {
		releaseAsset(c, oldAssetID)
	}

	GetAppCtx(c).Bus().Publish(audit.TopicProductUpdated, webserver.CurrentUsername(c),
		"updated product "+product.Name)

	return ok(c, product)
}

func deleteProduct(c echo.Context) error {
	id, err := strconv.ParseInt(c.QueryParam("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid product id", nil)
	}
	var product domain.Product
	if err := GetDB(c).Where("id = ?", id).First(&product).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
	}

	if err := GetDB(c).Delete(&domain.Product{}, id).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete product", err.Error())
	}

	releaseAsset(c, product.ImageAssetID)

	GetAppCtx(c).Bus().Publish(audit.TopicProductDeleted, webserver.CurrentUsername(c),
		"deleted product "+product.Name)

	return ok(c, map[string]interface{}{"success": true})
}

func releaseAsset(c echo.Context, assetID string) {
	if assetID == "" {
		return
	}
	if err := GetAppCtx(c).Assets().Release(c.Request().Context(), assetID); err != nil {
		zap.L().Warn("failed to release image asset",
			zap.String("assetId", assetID), zap.Error(err))
	}
}
