package util

import "github.com/shopspring/decimal"

// Round2 rounds a price to two decimal places (paise).
func Round2(v float64) float64 {
	return Round(v, 2)
}

// Round rounds half away from zero to the given number of decimal places.
func Round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
