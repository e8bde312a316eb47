package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/viraldeals/viraldeals-backend/pkg/config"
)

// Storefront money rules. All amounts are whole rupees.
const (
	DefaultGSTRatePercent    = 18
	DefaultFreeShippingAbove = 499
	DefaultShippingBaseCost  = 49
)

var oneHundred = decimal.NewFromInt(100)

// GSTAmount computes the GST owed on a subtotal at the given percentage rate,
// rounded half away from zero to the nearest rupee.
func GSTAmount(subtotal, ratePercent int) int {
	if subtotal <= 0 || ratePercent <= 0 {
		return 0
	}
	gst := decimal.NewFromInt(int64(subtotal)).
		Mul(decimal.NewFromInt(int64(ratePercent))).
		Div(oneHundred).
		Round(0)
	return int(gst.IntPart())
}

// ShippingCost returns the flat shipping charge, waived once the subtotal
// reaches the free-shipping threshold.
func ShippingCost(subtotal, freeThreshold, baseCost int) int {
	if subtotal >= freeThreshold {
		return 0
	}
	return baseCost
}

// FinalTotal combines the parts of an order total. A discount can never push
// the total below zero.
func FinalTotal(subtotal, gst, shipping, discount int) int {
	total := subtotal + gst + shipping - discount
	if total < 0 {
		return 0
	}
	return total
}

// Breakdown is the full pricing snapshot for a cart subtotal.
type Breakdown struct {
	Subtotal int `json:"subtotal"`
	GST      int `json:"gst"`
	Shipping int `json:"shipping"`
	Discount int `json:"discount"`
	Total    int `json:"total"`
}

// Calculator applies configured rates; zero values fall back to the defaults.
type Calculator struct {
	gstRate           int
	freeShippingAbove int
	shippingBaseCost  int
}

// NewCalculator builds a calculator from configuration.
func NewCalculator(cfg config.PricingConfig) *Calculator {
	c := &Calculator{
		gstRate:           cfg.GSTRatePercent,
		freeShippingAbove: cfg.FreeShippingAbove,
		shippingBaseCost:  cfg.ShippingBaseCost,
	}
	if c.gstRate <= 0 {
		c.gstRate = DefaultGSTRatePercent
	}
	if c.freeShippingAbove <= 0 {
		c.freeShippingAbove = DefaultFreeShippingAbove
	}
	if c.shippingBaseCost <= 0 {
		c.shippingBaseCost = DefaultShippingBaseCost
	}
	return c
}

// Quote derives the pricing breakdown for a subtotal and discount.
func (c *Calculator) Quote(subtotal, discount int) Breakdown {
	if subtotal < 0 {
		subtotal = 0
	}
	if discount < 0 {
		discount = 0
	}
	gst := GSTAmount(subtotal, c.gstRate)
	shipping := ShippingCost(subtotal, c.freeShippingAbove, c.shippingBaseCost)
	return Breakdown{
		Subtotal: subtotal,
		GST:      gst,
		Shipping: shipping,
		Discount: discount,
		Total:    FinalTotal(subtotal, gst, shipping, discount),
	}
}
