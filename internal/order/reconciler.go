package order

import (
	"context"

	"aurelia-be/internal/logger"
	"aurelia-be/internal/product"

	"go.uber.org/zap"
)

// StockReconciler applies the stock decrements for a committed order. It
// never fails the order: each item is attempted and failures are reported.
type StockReconciler struct {
	products product.Repository
}

func NewStockReconciler(products product.Repository) *StockReconciler {
	return &StockReconciler{products: products}
}

func (r *StockReconciler) Reconcile(ctx context.Context, orderID string, items []OrderItem) ReconcileReport {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "ReconcileStock"),
		zap.String("order_id", orderID),
	)

	report := ReconcileReport{
		Updated:  make([]product.StockLevel, 0, len(items)),
		Failures: []ReconcileFailure{},
	}

	for _, item := range items {
		level, err := r.products.DecrementStock(ctx, item.ProductID, item.Quantity)
		if err != nil {
			log.Error("stock decrement failed",
				zap.String("product_id", item.ProductID),
				zap.Int("quantity", item.Quantity),
				zap.Error(err),
			)
			report.Failures = append(report.Failures, ReconcileFailure{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				Error:     err.Error(),
			})
			continue
		}
		report.Updated = append(report.Updated, level)
	}

	if !report.OK() {
		log.Warn("order committed with stock drift", zap.Int("failed_items", len(report.Failures)))
	}

	return report
}
