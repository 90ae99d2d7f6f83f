package adminapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/labstack/echo/v4"

	"github.com/stocklight/stocklight/internal/catalog"
	"github.com/stocklight/stocklight/internal/domain"
	"github.com/stocklight/stocklight/internal/webserver"
)

func registerDashboardRoutes() {
	webserver.ApiGET("/dashboard/metrics", dashboardMetrics)
	webserver.ApiGET("/dashboard/export", dashboardExport)
}

func dashboardLimits(c echo.Context) (threshold, lowStockLimit, topSellersLimit int) {
	appCtx := GetAppCtx(c)
	threshold = int(appCtx.GetSettingsInt64Value("dashboard", "lowStockThreshold"))
	if threshold <= 0 {
		threshold = catalog.DefaultLowStockThreshold
	}
	lowStockLimit = int(appCtx.GetSettingsInt64Value("dashboard", "lowStockLimit"))
	if lowStockLimit <= 0 {
		lowStockLimit = 3
	}
	topSellersLimit = int(appCtx.GetSettingsInt64Value("dashboard", "topSellersLimit"))
	if topSellersLimit <= 0 {
		topSellersLimit = 5
	}
	return threshold, lowStockLimit, topSellersLimit
}

func dashboardMetrics(c echo.Context) error {
	var products []domain.Product
	if err := GetDB(c).Order("created_at desc").Find(&products).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}

	threshold, lowStockLimit, topSellersLimit := dashboardLimits(c)

	return ok(c, map[string]interface{}{
		"productCount":      len(products),
		"valuation":         catalog.Valuation(products),
		"averagePrice":      catalog.AveragePrice(products),
		"lowStockThreshold": threshold,
		"lowStock":          catalog.LowStock(products, threshold, lowStockLimit),
		"topSellers":        catalog.TopSellers(products, topSellersLimit),
	})
}

type inventoryCSVRow struct {
	ID    int64   `csv:"id"`
	Name  string  `csv:"name"`
	Price float64 `csv:"price"`
	Stock int     `csv:"stock"`
	Sales string  `csv:"sales"`
	Image string  `csv:"image"`
}

// dashboardExport streams the catalog as a csv attachment, mirroring
// the dashboard's export button.
func dashboardExport(c echo.Context) error {
	var products []domain.Product
	if err := GetDB(c).Order("created_at desc").Find(&products).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}

	rows := make([]inventoryCSVRow, 0, len(products))
	for _, p := range products {
		row := inventoryCSVRow{
			ID:    p.ID,
			Name:  p.Name,
			Price: p.Price,
			Stock: p.Stock,
			Image: p.Image,
		}
		if p.Sales != nil {
			row.Sales = fmt.Sprintf("%d", *p.Sales)
		}
		rows = append(rows, row)
	}

	out, err := gocsv.MarshalString(&rows)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to encode csv", err.Error())
	}

	filename := fmt.Sprintf("inventory-%s.csv", time.Now().Format("20060102"))
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Blob(http.StatusOK, "text/csv", []byte(out))
}
