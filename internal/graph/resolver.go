package graph

import (
	"context"
	"time"

	"aurelia-be/internal/order"
	"aurelia-be/internal/utils"

	"github.com/google/uuid"
)

type Resolver struct {
	Orders          order.Service
	CheckoutTimeout time.Duration
}

func (r *Resolver) checkoutContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.CheckoutTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.CheckoutTimeout)
}

// --- MUTATIONS ---

func (r *Resolver) checkout(ctx context.Context, a args) (any, error) {
	req, err := checkoutRequest(ctx, a.obj("input"))
	if err != nil {
		return nil, err
	}

	ctx, cancel := r.checkoutContext(ctx)
	defer cancel()

	res, err := r.Orders.Checkout(ctx, req)
	if err != nil {
		return nil, err
	}
	return checkoutPayload(res), nil
}

func (r *Resolver) verifyPayment(ctx context.Context, a args) (any, error) {
	req, err := checkoutRequest(ctx, a.obj("input"))
	if err != nil {
		return nil, err
	}

	ctx, cancel := r.checkoutContext(ctx)
	defer cancel()

	res, err := r.Orders.CheckoutWithPayment(ctx, req, paymentConfirmation(a.obj("payment")))
	if err != nil {
		return nil, err
	}
	return checkoutPayload(res), nil
}

func (r *Resolver) updateOrderStatus(ctx context.Context, a args) (any, error) {
	in := a.obj("input")

	id, err := uuid.Parse(in.str("orderId"))
	if err != nil {
		return nil, invalidInput("invalid_order_id", "Order id must be a UUID")
	}

	st, err := order.ParseStatus(in.str("status"))
	if err != nil {
		return nil, err
	}

	o, err := r.Orders.UpdateOrderStatus(ctx, id, order.StatusUpdate{
		Status:          st,
		TrackingCarrier: in.optStr("trackingCarrier"),
		TrackingNumber:  in.optStr("trackingNumber"),
	})
	if err != nil {
		return nil, err
	}
	return orderObject(o), nil
}

// --- QUERIES ---

func (r *Resolver) order(ctx context.Context, a args) (any, error) {
	id, err := uuid.Parse(a.str("id"))
	if err != nil {
		return nil, invalidInput("invalid_order_id", "Order id must be a UUID")
	}

	userID, _ := utils.GetUserIDFromContext(ctx)
	o, err := r.Orders.GetOrderDetail(ctx, id, userID, utils.IsAdmin(ctx))
	if err != nil {
		return nil, err
	}
	return orderObject(o), nil
}
