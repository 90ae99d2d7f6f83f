package app

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/stocklight/stocklight/internal/domain"
)

// lowStockMailBody renders the plain-text alert listing every product
// below the threshold, scarcest first.
func lowStockMailBody(low []domain.Product, threshold int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d product(s) are below the stock threshold of %d:\n\n", len(low), threshold)
	for _, p := range low {
		fmt.Fprintf(&b, "  - %s: %d left (price %.2f)\n", p.Name, p.Stock, p.Price)
	}
	b.WriteString("\nRestock from the products page.\n")
	return b.String()
}

// sendLowStockAlert emails the configured recipient about products
// running low. Failures are logged, never fatal; the scan job keeps
// running either way.
func (a *Application) sendLowStockAlert(low []domain.Product, threshold int) {
	cfg := a.appConfig.Smtp
	if !cfg.Enable || cfg.To == "" || len(low) == 0 {
		return
	}

	m := gomail.NewMessage()
	m.SetHeader("From", cfg.From)
	m.SetHeader("To", cfg.To)
	m.SetHeader("Subject", fmt.Sprintf("Low stock alert: %d product(s) below %d", len(low), threshold))
	m.SetBody("text/plain", lowStockMailBody(low, threshold))

	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	if err := d.DialAndSend(m); err != nil {
		zap.L().Error("failed to send low-stock alert mail",
			zap.String("to", cfg.To), zap.Error(err))
		return
	}
	zap.L().Info("sent low-stock alert mail",
		zap.String("to", cfg.To), zap.Int("products", len(low)))
}
