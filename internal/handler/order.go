package handler

import (
	"context"
	"errors"
	"net/http"

	"aurelia-be/internal/logger"
	"aurelia-be/internal/order"
	"aurelia-be/internal/payment"
	"aurelia-be/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type checkoutResponse struct {
	Success        bool                     `json:"success"`
	Order          *order.OrderResponse     `json:"order"`
	Reconciliation order.ReconcileReport    `json:"reconciliation"`
	Notification   order.NotificationStatus `json:"notification"`
}

type orderResponse struct {
	Success bool                 `json:"success"`
	Order   *order.OrderResponse `json:"order"`
}

func (h *Handler) checkoutContext(r *http.Request) (context.Context, context.CancelFunc) {
	if h.checkoutTimeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), h.checkoutTimeout)
}

// CreateOrder handles POST /api/orders.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	ctx, cancel := h.checkoutContext(r)
	defer cancel()

	result, err := h.orders.Checkout(ctx, req.toCheckout(r))
	if err != nil {
		writeCheckoutError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, checkoutResponse{
		Success:        true,
		Order:          order.ToOrderResponse(result.Order),
		Reconciliation: result.Reconciliation,
		Notification:   result.Notification,
	})
}

// VerifyPayment handles POST /api/payments/verify: the gateway's callback
// data is checked and the paid order is created in one step.
func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentVerifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payment_payload", "Invalid JSON body")
		return
	}

	ctx, cancel := h.checkoutContext(r)
	defer cancel()

	result, err := h.orders.CheckoutWithPayment(ctx, req.toCheckout(r), req.confirmation())
	if err != nil {
		writeCheckoutError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, checkoutResponse{
		Success:        true,
		Order:          order.ToOrderResponse(result.Order),
		Reconciliation: result.Reconciliation,
		Notification:   result.Notification,
	})
}

func writeCheckoutError(w http.ResponseWriter, r *http.Request, err error) {
	var unavailable *order.UnavailableError
	var invalid *order.ValidationError

	switch {
	case errors.As(err, &unavailable):
		writeError(w, http.StatusServiceUnavailable, "service_unavailable", unavailable.Message)
	case errors.Is(err, order.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized", "Sign in to place an order")
	case errors.Is(err, payment.ErrMissingSecret):
		logger.FromCtx(r.Context()).Error("payment verification is not configured", zap.String("layer", "handler"))
		writeError(w, http.StatusInternalServerError, "payment_verification_unavailable", "Payment verification is unavailable")
	case errors.Is(err, payment.ErrMissingPaymentFields):
		writeError(w, http.StatusBadRequest, "invalid_payment_payload", err.Error())
	case errors.Is(err, payment.ErrSignatureMismatch):
		writeError(w, http.StatusBadRequest, "signature_mismatch", "Payment signature could not be verified")
	case errors.Is(err, order.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, "empty_cart", "Cart is empty")
	case errors.Is(err, order.ErrInvalidTotal):
		writeError(w, http.StatusBadRequest, "invalid_total", "Order total must not be negative")
	case errors.As(err, &invalid):
		utils.WriteJSON(w, http.StatusConflict, errorResponse{
			Error:      "stock_unavailable",
			Message:    "Some items are no longer available in the requested quantity",
			Violations: invalid.Violations,
		})
	case errors.Is(err, order.ErrDuplicateRequest):
		writeError(w, http.StatusConflict, "duplicate_request", "This checkout is already being processed")
	case errors.Is(err, order.ErrCheckoutBusy):
		writeError(w, http.StatusConflict, "checkout_busy", "These items are being checked out right now, please retry")
	default:
		logger.FromCtx(r.Context()).Error("checkout failed",
			zap.String("layer", "handler"),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "order_creation_failed", "Failed to create order")
	}
}

// GetOrder handles GET /api/orders/{id} for the owner or an admin.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_order_id", "Order id must be a UUID")
		return
	}

	userID, _ := utils.GetUserIDFromContext(r.Context())
	o, err := h.orders.GetOrderDetail(r.Context(), id, userID, utils.IsAdmin(r.Context()))
	if err != nil {
		writeOrderError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, orderResponse{Success: true, Order: order.ToOrderResponse(o)})
}

// UpdateOrderStatus handles PATCH /api/admin/orders/{id}/status.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_order_id", "Order id must be a UUID")
		return
	}

	var req statusUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	st, err := order.ParseStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_status", err.Error())
		return
	}

	o, err := h.orders.UpdateOrderStatus(r.Context(), id, order.StatusUpdate{
		Status:          st,
		TrackingCarrier: req.TrackingCarrier,
		TrackingNumber:  req.TrackingNumber,
	})
	if err != nil {
		writeOrderError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, orderResponse{Success: true, Order: order.ToOrderResponse(o)})
}

func writeOrderError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, order.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, "not_found", "Order not found")
	case errors.Is(err, order.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", "You do not have access to this order")
	case errors.Is(err, order.ErrUnknownStatus):
		writeError(w, http.StatusBadRequest, "invalid_status", err.Error())
	case errors.Is(err, order.ErrInvalidStatusTransition):
		writeError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, order.ErrStatusConflict):
		writeError(w, http.StatusConflict, "status_conflict", "Order was updated by someone else, reload and retry")
	default:
		logger.FromCtx(r.Context()).Error("order request failed",
			zap.String("layer", "handler"),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "internal_error", "Something went wrong")
	}
}
