package domain

import "github.com/shopspring/decimal"

// Round2 rounds a monetary amount to cents. Core sizing math stays in full
// precision; rounding happens only at formatting and response boundaries.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// Round4 rounds a ratio (conversion rates, probabilities) to four places.
func Round4(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(4).Float64()
	return f
}

// FormatUSD renders a monetary amount for alert text.
func FormatUSD(v float64) string {
	return "$" + decimal.NewFromFloat(v).StringFixed(2)
}
