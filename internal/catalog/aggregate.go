// Package catalog derives dashboard aggregates from a product listing.
// Nothing here is persisted; every value is recomputed per request.
package catalog

import (
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/stocklight/stocklight/internal/domain"
)

// DefaultLowStockThreshold is used when no dashboard.lowStockThreshold
// setting exists.
const DefaultLowStockThreshold = 15

// Valuation returns the total inventory value, sum of price*stock.
func Valuation(products []domain.Product) float64 {
	if len(products) == 0 {
		return 0
	}
	values := make([]float64, 0, len(products))
	for _, p := range products {
		values = append(values, p.Price*float64(p.Stock))
	}
	total, err := stats.Sum(values)
	if err != nil {
		return 0
	}
	return total
}

// AveragePrice returns the mean product price, 0 for an empty catalog.
func AveragePrice(products []domain.Product) float64 {
	if len(products) == 0 {
		return 0
	}
	prices := make([]float64, 0, len(products))
	for _, p := range products {
		prices = append(prices, p.Price)
	}
	mean, err := stats.Mean(prices)
	if err != nil {
		return 0
	}
	return mean
}

// LowStock returns up to limit products with stock strictly below
// threshold, lowest stock first.
func LowStock(products []domain.Product, threshold, limit int) []domain.Product {
	low := make([]domain.Product, 0)
	for _, p := range products {
		if p.Stock < threshold {
			low = append(low, p)
		}
	}
	sort.SliceStable(low, func(i, j int) bool { return low[i].Stock < low[j].Stock })
	if limit > 0 && len(low) > limit {
		low = low[:limit]
	}
	return low
}

// TopSellers ranks products by their external sales counter, highest
// first. Products without sales data rank last; the counter is never
// synthesized locally.
func TopSellers(products []domain.Product, limit int) []domain.Product {
	ranked := make([]domain.Product, len(products))
	copy(ranked, products)
	sort.SliceStable(ranked, func(i, j int) bool {
		si, sj := ranked[i].Sales, ranked[j].Sales
		switch {
		case si == nil:
			return false
		case sj == nil:
			return true
		default:
			return *si > *sj
		}
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
