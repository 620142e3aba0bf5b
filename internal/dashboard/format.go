package dashboard

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PricePlaceholder is rendered wherever a price is unknown.
const PricePlaceholder = "N/A"

var pricePrinter = message.NewPrinter(language.English)

// FormatPrice renders a USD price for the table. Prices at or above one
// dollar use thousand separators with two decimals; sub-dollar prices keep
// four decimals; dust prices keep eight so they do not collapse to zero.
// A nil price renders the placeholder.
func FormatPrice(price *float64) string {
	if price == nil {
		return PricePlaceholder
	}
	v := *price
	switch {
	case v >= 1 || v <= -1:
		return pricePrinter.Sprintf("$%.2f", v)
	case v >= 0.001 || v <= -0.001:
		return pricePrinter.Sprintf("$%.4f", v)
	default:
		return pricePrinter.Sprintf("$%.8f", v)
	}
}

// CalculateChange computes the percent change from a historical price to the
// current one. Returns nil when the historical price is unknown or zero, in
// which case the change is undefined.
func CalculateChange(historical *float64, current float64) *float64 {
	if historical == nil || *historical == 0 {
		return nil
	}
	change := (current - *historical) / *historical * 100
	return &change
}
