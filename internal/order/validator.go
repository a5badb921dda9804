package order

import (
	"context"
	"fmt"

	"aurelia-be/internal/logger"
	"aurelia-be/internal/product"

	"go.uber.org/zap"
)

type StockValidator struct {
	products product.Repository
}

func NewStockValidator(products product.Repository) *StockValidator {
	return &StockValidator{products: products}
}

// Validate checks every line against one snapshot of the catalog and reports
// all problems at once. Quantities for a product listed on several lines are
// summed before comparing against stock.
func (v *StockValidator) Validate(
	ctx context.Context,
	lines []CheckoutLine,
) (map[string]product.Product, []Violation, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "ValidateStock"),
		zap.Int("line_count", len(lines)),
	)

	if len(lines) == 0 {
		return nil, nil, ErrEmptyCart
	}

	ids := make([]string, 0, len(lines))
	seen := make(map[string]struct{}, len(lines))
	for _, l := range lines {
		if l.ProductID == "" {
			continue
		}
		if _, ok := seen[l.ProductID]; !ok {
			seen[l.ProductID] = struct{}{}
			ids = append(ids, l.ProductID)
		}
	}

	products, err := v.products.GetByIDs(ctx, ids)
	if err != nil {
		log.Error("failed to load products for validation", zap.Error(err))
		return nil, nil, fmt.Errorf("load products: %w", err)
	}

	var violations []Violation
	demand := make(map[string]int, len(ids))

	for _, l := range lines {
		if l.ProductID == "" || l.Quantity < 1 || l.Price.IsNegative() {
			violations = append(violations, Violation{
				ProductID: l.ProductID,
				Reason:    ReasonInvalidLine,
				Message:   "Each item needs a product id, a quantity of at least 1 and a non-negative price",
				Requested: l.Quantity,
			})
			continue
		}

		p, ok := products[l.ProductID]
		if !ok {
			violations = append(violations, Violation{
				ProductID: l.ProductID,
				Reason:    ReasonMissing,
				Message:   fmt.Sprintf("Product %s is no longer available", l.ProductID),
				Requested: l.Quantity,
			})
			continue
		}

		if !p.InStock || p.StockCount <= 0 {
			violations = append(violations, Violation{
				ProductID: l.ProductID,
				Reason:    ReasonOutOfStock,
				Message:   fmt.Sprintf("%s is out of stock", p.Name),
				Requested: l.Quantity,
			})
			continue
		}

		demand[l.ProductID] += l.Quantity
		if requested := demand[l.ProductID]; requested > p.StockCount {
			violations = append(violations, Violation{
				ProductID: l.ProductID,
				Reason:    ReasonInsufficient,
				Message: fmt.Sprintf(
					"Insufficient stock for %s. Available: %d, Requested: %d",
					p.Name, p.StockCount, requested,
				),
				Available: p.StockCount,
				Requested: requested,
			})
		}
	}

	if len(violations) > 0 {
		log.Info("stock validation rejected cart", zap.Int("violations", len(violations)))
	}

	return products, violations, nil
}
