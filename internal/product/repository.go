package product

import (
	"context"
	"database/sql"
	"errors"

	"aurelia-be/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	GetByIDs(ctx context.Context, ids []string) (map[string]Product, error)
	DecrementStock(ctx context.Context, productID string, qty int) (StockLevel, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// GetByIDs loads every requested product in one round trip. Unknown ids are
// simply absent from the result.
func (r *repository) GetByIDs(ctx context.Context, ids []string) (map[string]Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "GetByIDs"),
		zap.Int("id_count", len(ids)),
	)

	products := make(map[string]Product, len(ids))
	if len(ids) == 0 {
		return products, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, image_url, price, shipping_cost, stock_count, in_stock, updated_at
		FROM products
		WHERE id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		log.Error("db: failed to query products", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p Product
		if err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.ImageURL,
			&p.Price,
			&p.ShippingCost,
			&p.StockCount,
			&p.InStock,
			&p.UpdatedAt,
		); err != nil {
			log.Error("db: failed to scan product", zap.Error(err))
			return nil, err
		}
		products[p.ID] = p
	}

	if err := rows.Err(); err != nil {
		log.Error("db: rows iteration failed", zap.Error(err))
		return nil, err
	}

	log.Debug("products loaded", zap.Int("found", len(products)))
	return products, nil
}

// DecrementStock subtracts qty in a single statement, clamping at zero and
// keeping in_stock consistent with the new count.
func (r *repository) DecrementStock(ctx context.Context, productID string, qty int) (StockLevel, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "DecrementStock"),
		zap.String("product_id", productID),
		zap.Int("quantity", qty),
	)

	if qty <= 0 {
		return StockLevel{}, ErrInvalidQuantity
	}

	level := StockLevel{ProductID: productID}
	err := r.db.QueryRowContext(ctx, `
		UPDATE products
		SET stock_count = GREATEST(stock_count - $1, 0),
			in_stock = GREATEST(stock_count - $1, 0) > 0,
			updated_at = NOW()
		WHERE id = $2
		RETURNING stock_count, in_stock
	`, qty, productID).Scan(&level.StockCount, &level.InStock)

	if errors.Is(err, sql.ErrNoRows) {
		log.Warn("product vanished before stock update")
		return StockLevel{}, ErrProductNotFound
	}
	if err != nil {
		log.Error("db: failed to decrement stock", zap.Error(err))
		return StockLevel{}, err
	}

	log.Debug("stock decremented",
		zap.Int("stock_count", level.StockCount),
		zap.Bool("in_stock", level.InStock),
	)
	return level, nil
}
