package payment

import (
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ToMinorUnits converts a major-unit amount to the smallest currency unit,
// rounding half away from zero. The multiplication is done in decimal so
// 99.99 becomes 9999 rather than 9998.
func ToMinorUnits(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(hundred).Round(0).IntPart()
}

// LineTotal returns price*quantity rounded to cents.
func LineTotal(price float64, quantity int) decimal.Decimal {
	return decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}

// NormalizeCurrency lower-cases a currency code, defaulting to ZAR.
func NormalizeCurrency(currency string) string {
	currency = strings.TrimSpace(currency)
	if currency == "" {
		currency = DefaultCurrency
	}
	return strings.ToLower(currency)
}
