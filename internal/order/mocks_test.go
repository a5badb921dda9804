package order

import (
	"context"
	"sync"
	"time"

	"aurelia-be/internal/payment"
	"aurelia-be/internal/product"
	"aurelia-be/internal/status"
	"aurelia-be/internal/user"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// --- testify mocks ---

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateOrderTx(ctx context.Context, order *Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockRepository) GetOrderDetail(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) UpdateStatus(ctx context.Context, orderID uuid.UUID, from OrderStatus, upd StatusUpdate, shippedAt *time.Time) error {
	args := m.Called(ctx, orderID, from, upd, shippedAt)
	return args.Error(0)
}

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) GetByIDs(ctx context.Context, ids []string) (map[string]product.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]product.Product), args.Error(1)
}

func (m *MockProductRepository) DecrementStock(ctx context.Context, productID string, qty int) (product.StockLevel, error) {
	args := m.Called(ctx, productID, qty)
	return args.Get(0).(product.StockLevel), args.Error(1)
}

type MockGate struct {
	mock.Mock
}

func (m *MockGate) CheckServiceAvailable(ctx context.Context) (status.Availability, error) {
	args := m.Called(ctx)
	return args.Get(0).(status.Availability), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uint) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(c payment.Confirmation) error {
	args := m.Called(c)
	return args.Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyOrderPlaced(ctx context.Context, order *Order, candidates ...string) NotificationStatus {
	args := m.Called(ctx, order, candidates)
	return args.Get(0).(NotificationStatus)
}

type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) Claim(ctx context.Context, userID uint, key string) (bool, error) {
	args := m.Called(ctx, userID, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Release(ctx context.Context, userID uint, key string) error {
	args := m.Called(ctx, userID, key)
	return args.Error(0)
}

// --- in-memory fakes for race tests ---

// memCatalog mimics the products table including the clamped decrement.
type memCatalog struct {
	mu       sync.Mutex
	products map[string]product.Product
}

func newMemCatalog(ps ...product.Product) *memCatalog {
	c := &memCatalog{products: make(map[string]product.Product)}
	for _, p := range ps {
		c.products[p.ID] = p
	}
	return c
}

func (c *memCatalog) GetByIDs(_ context.Context, ids []string) (map[string]product.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]product.Product, len(ids))
	for _, id := range ids {
		if p, ok := c.products[id]; ok {
			out[id] = p
		}
	}
	// Widen the window between read and write.
	time.Sleep(5 * time.Millisecond)
	return out, nil
}

// DecrementStock fails on a finished context like a database/sql call would.
func (c *memCatalog) DecrementStock(ctx context.Context, productID string, qty int) (product.StockLevel, error) {
	if err := ctx.Err(); err != nil {
		return product.StockLevel{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.products[productID]
	if !ok {
		return product.StockLevel{}, product.ErrProductNotFound
	}
	p.StockCount -= qty
	if p.StockCount < 0 {
		p.StockCount = 0
	}
	p.InStock = p.StockCount > 0
	c.products[productID] = p
	return product.StockLevel{ProductID: productID, StockCount: p.StockCount, InStock: p.InStock}, nil
}

func (c *memCatalog) stock(id string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.products[id].StockCount
}

type memOrders struct {
	mu     sync.Mutex
	orders []*Order

	// afterCommit runs once the order is stored.
	afterCommit func()
}

func (r *memOrders) CreateOrderTx(_ context.Context, o *Order) error {
	r.mu.Lock()
	r.orders = append(r.orders, o)
	r.mu.Unlock()

	if r.afterCommit != nil {
		r.afterCommit()
	}
	return nil
}

func (r *memOrders) GetOrderDetail(_ context.Context, id uuid.UUID) (*Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, ErrOrderNotFound
}

func (r *memOrders) UpdateStatus(context.Context, uuid.UUID, OrderStatus, StatusUpdate, *time.Time) error {
	return nil
}

type openGate struct{}

func (openGate) CheckServiceAvailable(context.Context) (status.Availability, error) {
	return status.Availability{}, nil
}

func ring(stock int) product.Product {
	return product.Product{
		ID:           "ring-01",
		Name:         "Solitaire Ring",
		Price:        decimal.NewFromInt(1200),
		ShippingCost: decimal.NewFromInt(15),
		StockCount:   stock,
		InStock:      stock > 0,
	}
}

func chain(stock int) product.Product {
	return product.Product{
		ID:           "chain-02",
		Name:         "Rope Chain",
		Price:        decimal.RequireFromString("300.50"),
		ShippingCost: decimal.NewFromInt(5),
		StockCount:   stock,
		InStock:      stock > 0,
	}
}
