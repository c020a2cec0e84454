package pricing

import (
	"errors"
	"fmt"
	"strings"
)

// Money represents a monetary value stored in minor units.
type Money = int64

// ErrBadAmount is returned when a price cannot be parsed into minor units.
var ErrBadAmount = errors.New("pricing: malformed amount")

// Item describes a line item used for subtotal calculation.
type Item struct {
	Qty       int
	UnitPrice Money
}

// Summary aggregates computed order totals.
type Summary struct {
	Subtotal Money
	Delivery Money
	Total    Money
}

// Subtotal sums unit price times quantity across line items. Non-positive
// quantities contribute nothing.
func Subtotal(items []Item) Money {
	var subtotal Money
	for _, it := range items {
		if it.Qty <= 0 {
			continue
		}
		subtotal += Money(it.Qty) * it.UnitPrice
	}
	return subtotal
}

// Compute calculates order totals given store subtotals and a delivery fee.
func Compute(storeSubtotals []Money, delivery Money) Summary {
	var subtotal Money
	for _, s := range storeSubtotals {
		if s < 0 {
			continue
		}
		subtotal += s
	}
	if delivery < 0 {
		delivery = 0
	}
	return Summary{
		Subtotal: subtotal,
		Delivery: delivery,
		Total:    subtotal + delivery,
	}
}

// ParseAmount normalises a decimal amount that may arrive as a JSON string or
// number ("12.5", "500", "0.05") into minor units. All arithmetic stays in
// integers; amounts with more than two fractional digits are rejected.
func ParseAmount(raw string) (Money, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrBadAmount)
	}
	negative := false
	if s[0] == '-' {
		negative = true
		s = s[1:]
	}
	whole, frac := s, ""
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		whole, frac = s[:idx], s[idx+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("%w: too many fractional digits in %q", ErrBadAmount, raw)
	}
	for len(frac) < 2 {
		frac += "0"
	}
	var value Money
	for _, part := range []string{whole, frac} {
		for _, ch := range part {
			if ch < '0' || ch > '9' {
				return 0, fmt.Errorf("%w: %q", ErrBadAmount, raw)
			}
			value = value*10 + Money(ch-'0')
		}
	}
	if negative {
		value = -value
	}
	return value, nil
}

// FormatAmount renders minor units as a decimal string ("1250" -> "12.50").
func FormatAmount(m Money) string {
	negative := m < 0
	if negative {
		m = -m
	}
	out := fmt.Sprintf("%d.%02d", m/100, m%100)
	if negative {
		return "-" + out
	}
	return out
}
