package order

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"aurelia-be/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Repository interface {
	CreateOrderTx(ctx context.Context, order *Order) error
	GetOrderDetail(ctx context.Context, orderID uuid.UUID) (*Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, from OrderStatus, upd StatusUpdate, shippedAt *time.Time) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// CreateOrderTx writes the order header and every item, or nothing.
func (r *repository) CreateOrderTx(ctx context.Context, order *Order) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "CreateOrderTx"),
		zap.String("order_id", order.ID.String()),
		zap.Uint("user_id", order.UserID),
		zap.Int("item_count", len(order.Items)),
	)

	log.Debug("starting order transaction")

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction", zap.Error(err))
		return err
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error("failed to rollback transaction", zap.Error(rbErr))
			} else {
				log.Debug("transaction rolled back")
			}
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (
			id, user_id, total, status,
			customer_name, customer_email, customer_phone,
			shipping_address, address_verification,
			payment_order_id, payment_id,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`,
		order.ID,
		order.UserID,
		order.Total,
		order.Status,
		order.CustomerName,
		order.CustomerEmail,
		order.CustomerPhone,
		order.ShippingAddress,
		order.AddressVerification,
		order.PaymentOrderID,
		order.PaymentID,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to insert order", zap.Error(err))
		return err
	}

	for i, item := range order.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (
				id, order_id, position, product_id, quantity, price, created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7)
		`,
			item.ID,
			order.ID,
			i,
			item.ProductID,
			item.Quantity,
			item.Price,
			order.CreatedAt,
		)
		if err != nil {
			log.Error("failed to insert order item",
				zap.Int("item_index", i),
				zap.String("product_id", item.ProductID),
				zap.Error(err),
			)
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit order transaction", zap.Error(err))
		return err
	}

	committed = true
	log.Info("order transaction committed")

	return nil
}

func (r *repository) GetOrderDetail(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "GetOrderDetail"),
		zap.String("order_id", orderID.String()),
	)

	var o Order
	err := r.db.QueryRowContext(ctx, `
		SELECT
			id, user_id, total, status,
			customer_name, customer_email, customer_phone,
			shipping_address, address_verification,
			payment_order_id, payment_id,
			tracking_carrier, tracking_number, shipped_at,
			created_at, updated_at
		FROM orders
		WHERE id = $1
	`, orderID).Scan(
		&o.ID,
		&o.UserID,
		&o.Total,
		&o.Status,
		&o.CustomerName,
		&o.CustomerEmail,
		&o.CustomerPhone,
		&o.ShippingAddress,
		&o.AddressVerification,
		&o.PaymentOrderID,
		&o.PaymentID,
		&o.TrackingCarrier,
		&o.TrackingNumber,
		&o.ShippedAt,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		log.Error("db: failed to load order", zap.Error(err))
		return nil, err
	}

	// Products may have been removed from the catalog since; the line keeps
	// its own price and quantity either way.
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			oi.id, oi.product_id, oi.quantity, oi.price,
			COALESCE(p.name, ''), p.image_url, COALESCE(p.shipping_cost, 0)
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.position
	`, orderID)
	if err != nil {
		log.Error("db: failed to load order items", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		item := OrderItem{OrderID: o.ID}
		if err := rows.Scan(
			&item.ID,
			&item.ProductID,
			&item.Quantity,
			&item.Price,
			&item.Product.Name,
			&item.Product.ImageURL,
			&item.Product.ShippingCost,
		); err != nil {
			log.Error("db: failed to scan order item", zap.Error(err))
			return nil, err
		}
		item.Product.ID = item.ProductID
		o.Items = append(o.Items, item)
	}

	if err := rows.Err(); err != nil {
		log.Error("db: order items iteration failed", zap.Error(err))
		return nil, err
	}

	return &o, nil
}

// UpdateStatus moves an order from one status to the next. It only applies
// when the stored status still equals from.
func (r *repository) UpdateStatus(
	ctx context.Context,
	orderID uuid.UUID,
	from OrderStatus,
	upd StatusUpdate,
	shippedAt *time.Time,
) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "UpdateStatus"),
		zap.String("order_id", orderID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(upd.Status)),
	)

	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $1,
			tracking_carrier = COALESCE($2, tracking_carrier),
			tracking_number = COALESCE($3, tracking_number),
			shipped_at = COALESCE($4, shipped_at),
			updated_at = NOW()
		WHERE id = $5 AND status = $6
	`,
		upd.Status,
		upd.TrackingCarrier,
		upd.TrackingNumber,
		shippedAt,
		orderID,
		from,
	)
	if err != nil {
		log.Error("db: failed to update order status", zap.Error(err))
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		log.Warn("order status changed underneath update")
		return ErrStatusConflict
	}

	log.Info("order status updated")
	return nil
}
