package product

import "github.com/shopspring/decimal"

// Summary is the slice of a product shown next to an order line.
type Summary struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	ImageURL     *string         `json:"imageUrl,omitempty"`
	ShippingCost decimal.Decimal `json:"shippingCost"`
}

func ToSummary(p Product) Summary {
	return Summary{
		ID:           p.ID,
		Name:         p.Name,
		ImageURL:     p.ImageURL,
		ShippingCost: p.ShippingCost,
	}
}
