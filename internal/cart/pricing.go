package cart

import (
	"fmt"
	"math"
	"strings"

	"github.com/wolfman30/salon-scheduler/internal/catalog"
)

// Line is a product and the number of units in the cart. Quantity is always
// positive; a line that would drop to zero is removed instead.
type Line struct {
	Product  catalog.Product `json:"product"`
	Quantity int             `json:"quantity"`
}

// Subtotal is price times quantity, rounded to cents.
func (l Line) Subtotal() float64 {
	return roundCents(l.Product.Price * float64(l.Quantity))
}

// Summary is derived from lines on every read and never stored.
type Summary struct {
	Subtotal        float64 `json:"subtotal"`
	DiscountPercent int     `json:"discount_percent"`
	Discount        float64 `json:"discount"`
	Total           float64 `json:"total"`
	ItemCount       int     `json:"item_count"`
}

// DiscountPolicy maps a unit count to a discount percentage.
type DiscountPolicy interface {
	Name() string
	Percent(itemCount int) int
}

const (
	PolicyTiered = "tiered"
	PolicyFlat   = "flat"
)

// TieredDiscount gives 5% from 3 units and 10% from 5 units.
type TieredDiscount struct{}

func (TieredDiscount) Name() string { return PolicyTiered }

func (TieredDiscount) Percent(itemCount int) int {
	switch {
	case itemCount >= 5:
		return 10
	case itemCount >= 3:
		return 5
	default:
		return 0
	}
}

// FlatDiscount gives 20% from 3 units.
type FlatDiscount struct{}

func (FlatDiscount) Name() string { return PolicyFlat }

func (FlatDiscount) Percent(itemCount int) int {
	if itemCount >= 3 {
		return 20
	}
	return 0
}

// PolicyByName resolves a configured policy name. Empty means tiered.
func PolicyByName(name string) (DiscountPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PolicyTiered:
		return TieredDiscount{}, nil
	case PolicyFlat:
		return FlatDiscount{}, nil
	default:
		return nil, fmt.Errorf("cart: unknown discount policy %q", name)
	}
}

// Summarize computes subtotal, discount and total for lines.
func Summarize(lines []Line, policy DiscountPolicy) Summary {
	if policy == nil {
		policy = TieredDiscount{}
	}
	var sum Summary
	var subtotal float64
	for _, l := range lines {
		subtotal += l.Product.Price * float64(l.Quantity)
		sum.ItemCount += l.Quantity
	}
	sum.DiscountPercent = policy.Percent(sum.ItemCount)
	sum.Subtotal = roundCents(subtotal)
	sum.Discount = roundCents(subtotal * float64(sum.DiscountPercent) / 100)
	sum.Total = roundCents(sum.Subtotal - sum.Discount)
	return sum
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
