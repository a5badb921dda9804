package notification

import (
	"time"

	"aurelia-be/internal/order"

	"github.com/shopspring/decimal"
)

var taxRate = decimal.RequireFromString("0.03")

type InvoiceLine struct {
	Name      string
	ProductID string
	Quantity  int
	Price     decimal.Decimal
	Amount    decimal.Decimal
}

type Invoice struct {
	Number       string
	StoreName    string
	OrderID      string
	IssuedAt     time.Time
	CustomerName string
	Address      order.Address
	Lines        []InvoiceLine

	Subtotal   decimal.Decimal
	Shipping   decimal.Decimal
	Tax        decimal.Decimal
	MakingCost decimal.Decimal
	Total      decimal.Decimal
}

// BuildInvoice splits the order total into its printed components. Shipping
// is charged once per line, not per unit. Whatever the charged total holds
// beyond goods, shipping and tax is shown as making cost.
func BuildInvoice(o *order.Order, storeName, number string, issuedAt time.Time) Invoice {
	inv := Invoice{
		Number:       number,
		StoreName:    storeName,
		OrderID:      o.ID.String(),
		IssuedAt:     issuedAt,
		CustomerName: o.CustomerName,
		Address:      o.ShippingAddress,
		Lines:        make([]InvoiceLine, 0, len(o.Items)),
		Subtotal:     decimal.Zero,
		Shipping:     decimal.Zero,
	}

	for _, item := range o.Items {
		amount := item.LineTotal()
		name := item.Product.Name
		if name == "" {
			name = item.ProductID
		}
		inv.Lines = append(inv.Lines, InvoiceLine{
			Name:      name,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price.Round(2),
			Amount:    amount.Round(2),
		})
		inv.Subtotal = inv.Subtotal.Add(amount)
		inv.Shipping = inv.Shipping.Add(item.Product.ShippingCost)
	}

	inv.Tax = inv.Subtotal.Mul(taxRate).Round(2)
	inv.Subtotal = inv.Subtotal.Round(2)
	inv.Shipping = inv.Shipping.Round(2)
	inv.Total = o.Total.Round(2)

	making := inv.Total.Sub(inv.Subtotal.Add(inv.Shipping).Add(inv.Tax))
	if making.IsNegative() {
		making = decimal.Zero
	}
	inv.MakingCost = making.Round(2)

	return inv
}
