package notification

import (
	"testing"
	"time"

	"aurelia-be/internal/order"
	"aurelia-be/internal/product"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOrder(total string) *order.Order {
	return &order.Order{
		ID:            uuid.MustParse("5f0c2a9e-1b7d-4c1e-9a55-0d3c2b1a0f11"),
		UserID:        7,
		Total:         decimal.RequireFromString(total),
		Status:        order.StatusPending,
		CustomerName:  "Asha Rao",
		CustomerEmail: "asha@example.com",
		ShippingAddress: order.Address{
			Line1: "12 Brigade Road", City: "Bengaluru", PostalCode: "560001", Country: "IN",
		},
		Items: []order.OrderItem{
			{
				ProductID: "ring-01",
				Quantity:  2,
				Price:     decimal.NewFromInt(1200),
				Product:   product.Summary{ID: "ring-01", Name: "Solitaire Ring", ShippingCost: decimal.NewFromInt(15)},
			},
			{
				ProductID: "chain-02",
				Quantity:  1,
				Price:     decimal.RequireFromString("300.50"),
				Product:   product.Summary{ID: "chain-02", Name: "Rope Chain", ShippingCost: decimal.NewFromInt(5)},
			},
		},
	}
}

func TestBuildInvoice(t *testing.T) {
	issued := time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)
	inv := BuildInvoice(testOrder("2900"), "Aurelia Jewels", "INV-20260504-5F0C2A9E-0001", issued)

	assert.Equal(t, "2700.50", inv.Subtotal.StringFixed(2))
	assert.Equal(t, "20.00", inv.Shipping.StringFixed(2), "shipping is per line, not per unit")
	assert.Equal(t, "81.02", inv.Tax.StringFixed(2))
	assert.Equal(t, "98.48", inv.MakingCost.StringFixed(2))
	assert.Equal(t, "2900.00", inv.Total.StringFixed(2))

	require.Len(t, inv.Lines, 2)
	assert.Equal(t, "2400.00", inv.Lines[0].Amount.StringFixed(2))
	assert.Equal(t, "Asha Rao", inv.CustomerName)
}

func TestBuildInvoice_MakingCostNeverNegative(t *testing.T) {
	inv := BuildInvoice(testOrder("2500"), "Aurelia Jewels", "INV-1", time.Now())
	assert.True(t, inv.MakingCost.IsZero())
}

func TestBuildInvoice_MissingProductName(t *testing.T) {
	o := testOrder("100")
	o.Items[1].Product = product.Summary{}

	inv := BuildInvoice(o, "Aurelia Jewels", "INV-1", time.Now())
	assert.Equal(t, "chain-02", inv.Lines[1].Name)
	assert.Equal(t, "15.00", inv.Shipping.StringFixed(2))
}

func TestRenderInvoice(t *testing.T) {
	o := testOrder("2900")
	o.CustomerName = "<script>alert(1)</script>"

	inv := BuildInvoice(o, "Aurelia Jewels", "INV-20260504-5F0C2A9E-0001", time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC))
	html, err := RenderInvoice(inv)
	require.NoError(t, err)

	assert.Contains(t, html, "INV-20260504-5F0C2A9E-0001")
	assert.Contains(t, html, "04 May 2026")
	assert.Contains(t, html, "Solitaire Ring")
	assert.Contains(t, html, "2700.50")
	assert.Contains(t, html, "98.48")
	assert.Contains(t, html, "12 Brigade Road")
	assert.NotContains(t, html, "<script>")

	assert.Equal(t, "Aurelia Jewels invoice INV-1", invoiceSubject(Invoice{StoreName: "Aurelia Jewels", Number: "INV-1"}))
}
