package product

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID           string
	Name         string
	ImageURL     *string
	Price        decimal.Decimal
	ShippingCost decimal.Decimal
	StockCount   int
	InStock      bool
	UpdatedAt    time.Time
}

// Available reports the quantity a checkout may take. A product flagged out of
// stock has nothing available regardless of its count.
func (p Product) Available() int {
	if !p.InStock || p.StockCount < 0 {
		return 0
	}
	return p.StockCount
}

// StockLevel is the state of a product row after a decrement.
type StockLevel struct {
	ProductID  string
	StockCount int
	InStock    bool
}
