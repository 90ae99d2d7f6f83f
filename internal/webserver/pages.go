package webserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/stocklight/stocklight/internal/catalog"
	"github.com/stocklight/stocklight/internal/domain"
)

func (s *WebServer) registerPages() {
	s.root.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusFound, "/admin/dashboard")
	})
	s.root.GET("/admin", func(c echo.Context) error {
		return c.Redirect(http.StatusFound, "/admin/dashboard")
	})
	s.root.GET("/admin/login", s.loginPage)
	s.root.GET("/admin/dashboard", s.dashboardPage)
	s.root.GET("/admin/products", s.productsPage)
	s.root.GET("/admin/create-admin", s.createAdminPage)
}

func (s *WebServer) loginPage(c echo.Context) error {
	if IsAuthenticated(c) {
		return c.Redirect(http.StatusFound, "/admin/dashboard")
	}
	return c.Render(http.StatusOK, "login.html", nil)
}

func (s *WebServer) dashboardPage(c echo.Context) error {
	var products []domain.Product
	if err := s.appCtx.DB().Order("created_at desc").Find(&products).Error; err != nil {
		zap.L().Error("dashboard page query failed", zap.Error(err))
		return c.Render(http.StatusInternalServerError, "error.html", map[string]interface{}{
			"Message": "Failed to load the catalog",
		})
	}

	threshold := int(s.appCtx.GetSettingsInt64Value("dashboard", "lowStockThreshold"))
	if threshold <= 0 {
		threshold = catalog.DefaultLowStockThreshold
	}
	lowStockLimit := int(s.appCtx.GetSettingsInt64Value("dashboard", "lowStockLimit"))
	if lowStockLimit <= 0 {
		lowStockLimit = 3
	}
	topSellersLimit := int(s.appCtx.GetSettingsInt64Value("dashboard", "topSellersLimit"))
	if topSellersLimit <= 0 {
		topSellersLimit = 5
	}

	return c.Render(http.StatusOK, "dashboard.html", map[string]interface{}{
		"Username":     CurrentUsername(c),
		"ProductCount": len(products),
		"Valuation":    catalog.Valuation(products),
		"AveragePrice": catalog.AveragePrice(products),
		"LowStock":     catalog.LowStock(products, threshold, lowStockLimit),
		"TopSellers":   catalog.TopSellers(products, topSellersLimit),
		"Threshold":    threshold,
	})
}

func (s *WebServer) productsPage(c echo.Context) error {
	var products []domain.Product
	if err := s.appCtx.DB().Order("created_at desc").Find(&products).Error; err != nil {
		zap.L().Error("products page query failed", zap.Error(err))
		return c.Render(http.StatusInternalServerError, "error.html", map[string]interface{}{
			"Message": "Failed to load the catalog",
		})
	}
	return c.Render(http.StatusOK, "products.html", map[string]interface{}{
		"Username": CurrentUsername(c),
		"Products": products,
	})
}

func (s *WebServer) createAdminPage(c echo.Context) error {
	return c.Render(http.StatusOK, "create_admin.html", map[string]interface{}{
		"Username": CurrentUsername(c),
	})
}
