package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"aurelia-be/internal/inventory"
	"aurelia-be/internal/logger"
	"aurelia-be/internal/metrics"
	"aurelia-be/internal/payment"
	"aurelia-be/internal/product"
	"aurelia-be/internal/status"
	"aurelia-be/internal/user"
	"aurelia-be/internal/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Notifier delivers the invoice for a freshly placed order. It must not block
// on delivery.
type Notifier interface {
	NotifyOrderPlaced(ctx context.Context, order *Order, candidates ...string) NotificationStatus
}

// IdempotencyStore keys are scoped per user, so two customers may send the
// same Idempotency-Key without blocking each other.
type IdempotencyStore interface {
	Claim(ctx context.Context, userID uint, key string) (bool, error)
	Release(ctx context.Context, userID uint, key string) error
}

const defaultReconcileTimeout = 15 * time.Second

type Service interface {
	Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error)
	CheckoutWithPayment(ctx context.Context, req CheckoutRequest, conf payment.Confirmation) (*CheckoutResult, error)
	GetOrderDetail(ctx context.Context, orderID uuid.UUID, userID uint, isAdmin bool) (*Order, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, upd StatusUpdate) (*Order, error)
}

type Deps struct {
	Repo        Repository
	Products    product.Repository
	Users       user.Repository
	Gate        status.Gate
	Verifier    payment.Verifier
	Locker      inventory.Locker
	Notifier    Notifier
	Idempotency IdempotencyStore
	Metrics     *metrics.CheckoutMetrics

	// ReconcileTimeout bounds the stock decrement that follows a committed
	// order. It runs detached from the request.
	ReconcileTimeout time.Duration
}

type service struct {
	repo        Repository
	users       user.Repository
	gate        status.Gate
	verifier    payment.Verifier
	locker      inventory.Locker
	notifier    Notifier
	idempotency IdempotencyStore
	metrics     *metrics.CheckoutMetrics

	validator        *StockValidator
	reconciler       *StockReconciler
	reconcileTimeout time.Duration
	now              func() time.Time
}

func NewService(d Deps) Service {
	s := &service{
		repo:        d.Repo,
		users:       d.Users,
		gate:        d.Gate,
		verifier:    d.Verifier,
		locker:      d.Locker,
		notifier:    d.Notifier,
		idempotency: d.Idempotency,
		metrics:     d.Metrics,
		validator:   NewStockValidator(d.Products),
		reconciler:  NewStockReconciler(d.Products),
		now:         time.Now,

		reconcileTimeout: d.ReconcileTimeout,
	}
	if s.reconcileTimeout <= 0 {
		s.reconcileTimeout = defaultReconcileTimeout
	}
	if s.locker == nil {
		s.locker = inventory.NewLocalLocker()
	}
	if s.metrics == nil {
		s.metrics = metrics.NewCheckoutMetrics()
	}
	return s
}

func (s *service) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	return s.checkout(ctx, req, nil)
}

// CheckoutWithPayment places an order that the gateway reports as paid. The
// signature is checked before anything is written.
func (s *service) CheckoutWithPayment(
	ctx context.Context,
	req CheckoutRequest,
	conf payment.Confirmation,
) (*CheckoutResult, error) {
	return s.checkout(ctx, req, &conf)
}

func (s *service) checkout(
	ctx context.Context,
	req CheckoutRequest,
	conf *payment.Confirmation,
) (*CheckoutResult, error) {
	timer := metrics.StartTimer()
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Checkout"),
		zap.Uint("user_id", req.UserID),
		zap.Bool("paid", conf != nil),
	)

	// 1. Stop flag
	avail, err := s.gate.CheckServiceAvailable(ctx)
	if err != nil {
		log.Error("failed to check service status", zap.Error(err))
		return nil, err
	}
	if avail.Stopped {
		s.metrics.ServiceUnavailable.Inc()
		log.Info("checkout refused, service stopped")
		return nil, &UnavailableError{Message: avail.Message}
	}

	if req.UserID == 0 {
		return nil, ErrUnauthorized
	}

	// 2. Gateway signature
	if conf != nil {
		if err := s.verifier.Verify(*conf); err != nil {
			s.metrics.SignatureFailures.Inc()
			log.Warn("payment signature rejected",
				zap.String("gateway_order_id", conf.GatewayOrderID),
				zap.Error(err),
			)
			return nil, err
		}
	}

	if len(req.Lines) == 0 {
		s.metrics.CheckoutsRejected.Inc()
		return nil, ErrEmptyCart
	}
	if req.Total != nil && req.Total.IsNegative() {
		s.metrics.CheckoutsRejected.Inc()
		return nil, ErrInvalidTotal
	}

	// 3. Idempotency
	succeeded := false
	if req.IdempotencyKey != "" && s.idempotency != nil {
		claimed, err := s.idempotency.Claim(ctx, req.UserID, req.IdempotencyKey)
		switch {
		case err != nil:
			log.Warn("idempotency store unavailable, continuing without it", zap.Error(err))
		case !claimed:
			log.Info("duplicate checkout request", zap.String("idempotency_key", req.IdempotencyKey))
			return nil, ErrDuplicateRequest
		default:
			defer func() {
				if succeeded {
					return
				}
				if err := s.idempotency.Release(logger.Detach(ctx), req.UserID, req.IdempotencyKey); err != nil {
					log.Warn("failed to release idempotency key", zap.Error(err))
				}
			}()
		}
	}

	// 4. Hold the products until stock has been reconciled
	productIDs := make([]string, 0, len(req.Lines))
	for _, l := range req.Lines {
		productIDs = append(productIDs, l.ProductID)
	}

	release, err := s.locker.Acquire(ctx, productIDs)
	if err != nil {
		log.Warn("could not lock products", zap.Error(err))
		if errors.Is(err, inventory.ErrLockTimeout) {
			return nil, fmt.Errorf("%w: %w", ErrCheckoutBusy, err)
		}
		return nil, fmt.Errorf("lock products: %w", err)
	}
	defer release()

	// 5. Stock
	products, violations, err := s.validator.Validate(ctx, req.Lines)
	if err != nil {
		return nil, err
	}
	if len(violations) > 0 {
		s.metrics.StockConflicts.Inc()
		s.metrics.CheckoutsRejected.Inc()
		return nil, &ValidationError{Violations: violations}
	}

	// 6. Build and persist
	order := s.buildOrder(ctx, req, products)
	if conf != nil {
		order.Status = StatusProcessing
		order.PaymentOrderID = utils.StrPtr(conf.GatewayOrderID)
		order.PaymentID = utils.StrPtr(conf.GatewayPaymentID)
	}

	if err := s.repo.CreateOrderTx(ctx, order); err != nil {
		s.metrics.PersistenceFailures.Inc()
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	succeeded = true

	// 7. Stock decrement, best effort. The order is committed, so a client
	// disconnect or checkout timeout must not skip it.
	report := s.reconcile(ctx, order)
	s.metrics.ReconcileFailures.Add(uint64(len(report.Failures)))
	release()

	// 8. Invoice, detached
	note := NotificationStatus{Status: NotificationSkipped, Reason: "notifications disabled"}
	if s.notifier != nil {
		var requestEmail string
		if req.Customer != nil {
			requestEmail = req.Customer.Email
		}
		note = s.notifier.NotifyOrderPlaced(ctx, order, order.CustomerEmail, requestEmail, req.SessionEmail)
	}

	s.metrics.OrdersCreated.Inc()
	s.metrics.ObserveCheckout(timer)

	log.Info("order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("status", string(order.Status)),
		zap.String("total", order.Total.StringFixed(2)),
		zap.Int("reconcile_failures", len(report.Failures)),
		zap.String("notification", note.Status),
		zap.Duration("took", timer.Duration()),
	)

	return &CheckoutResult{
		Order:          order,
		Reconciliation: report,
		Notification:   note,
	}, nil
}

func (s *service) reconcile(ctx context.Context, order *Order) ReconcileReport {
	rctx, cancel := context.WithTimeout(logger.Detach(ctx), s.reconcileTimeout)
	defer cancel()

	return s.reconciler.Reconcile(rctx, order.ID.String(), order.Items)
}

func (s *service) buildOrder(
	ctx context.Context,
	req CheckoutRequest,
	products map[string]product.Product,
) *Order {
	now := s.now().UTC()
	order := &Order{
		ID:                  uuid.New(),
		UserID:              req.UserID,
		Status:              StatusPending,
		AddressVerification: req.AddressVerification,
		CreatedAt:           now,
		UpdatedAt:           now,
		Items:               make([]OrderItem, 0, len(req.Lines)),
	}

	computed := decimal.Zero
	for _, l := range req.Lines {
		item := OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			Price:     l.Price,
			Product:   product.ToSummary(products[l.ProductID]),
		}
		computed = computed.Add(item.LineTotal())
		order.Items = append(order.Items, item)
	}

	order.Total = computed
	if req.Total != nil {
		order.Total = *req.Total
		if !req.Total.Equal(computed) {
			logger.FromCtx(ctx).Warn("client total differs from line items",
				zap.String("layer", "service"),
				zap.String("order_id", order.ID.String()),
				zap.String("client_total", req.Total.StringFixed(2)),
				zap.String("computed_total", computed.StringFixed(2)),
			)
		}
	}

	s.fillCustomer(ctx, order, req)
	return order
}

// fillCustomer snapshots contact details. Anything the request leaves out
// is taken from the account.
func (s *service) fillCustomer(ctx context.Context, order *Order, req CheckoutRequest) {
	var c Customer
	if req.Customer != nil {
		c = *req.Customer
	}

	name, email := c.Name, c.Email
	if utils.FirstNonEmpty(name) == "" || utils.FirstNonEmpty(email) == "" {
		if s.users != nil {
			u, err := s.users.FindByID(ctx, req.UserID)
			if err != nil {
				logger.FromCtx(ctx).Warn("could not load account for customer snapshot",
					zap.String("layer", "service"),
					zap.Uint("user_id", req.UserID),
					zap.Error(err),
				)
			} else {
				name = utils.FirstNonEmpty(name, u.Name)
				email = utils.FirstNonEmpty(email, u.Email)
			}
		}
	}

	order.CustomerName = utils.FirstNonEmpty(name)
	order.CustomerEmail = utils.FirstNonEmpty(email, req.SessionEmail)
	order.CustomerPhone = utils.FirstNonEmpty(c.Phone)
	order.ShippingAddress = c.Address
}

func (s *service) GetOrderDetail(
	ctx context.Context,
	orderID uuid.UUID,
	userID uint,
	isAdmin bool,
) (*Order, error) {
	order, err := s.repo.GetOrderDetail(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !isAdmin && order.UserID != userID {
		logger.FromCtx(ctx).Warn("order access denied",
			zap.String("layer", "service"),
			zap.String("method", "GetOrderDetail"),
			zap.String("order_id", orderID.String()),
			zap.Uint("user_id", userID),
		)
		return nil, ErrForbidden
	}

	return order, nil
}

// UpdateOrderStatus is the admin lifecycle step. Items and total are never
// touched here.
func (s *service) UpdateOrderStatus(
	ctx context.Context,
	orderID uuid.UUID,
	upd StatusUpdate,
) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "UpdateOrderStatus"),
		zap.String("order_id", orderID.String()),
		zap.String("to", string(upd.Status)),
	)

	if !upd.Status.Valid() {
		return nil, ErrUnknownStatus
	}

	current, err := s.repo.GetOrderDetail(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !CanTransition(current.Status, upd.Status) {
		log.Info("rejected status transition", zap.String("from", string(current.Status)))
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, current.Status, upd.Status)
	}

	var shippedAt *time.Time
	if upd.Status == StatusShipped {
		t := s.now().UTC()
		shippedAt = &t
	}

	if err := s.repo.UpdateStatus(ctx, orderID, current.Status, upd, shippedAt); err != nil {
		return nil, err
	}

	return s.repo.GetOrderDetail(ctx, orderID)
}
