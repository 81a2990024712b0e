// Package currencypkg provides common currency related functionality for apps.
package currencypkg

// Constants for all supported currencies.
const (
	USD = "USD"
	EUR = "EUR"
	JPY = "JPY"
)

// SupportedCurrencies holds all the supported currencies.
var SupportedCurrencies = []string{
	USD,
	EUR,
	JPY,
}

// scales maps a currency to the number of decimal places of its minor unit.
var scales = map[string]int32{
	USD: 2,
	EUR: 2,
	JPY: 0,
}

// IsSupportedCurrency returns true if the currency is supported.
func IsSupportedCurrency(currency string) bool {
	for _, c := range SupportedCurrencies {
		if c == currency {
			return true
		}
	}

	return false
}

// Scale returns the number of decimal places for the currency's minor unit.
// Unknown currencies default to 2.
func Scale(currency string) int32 {
	if s, ok := scales[currency]; ok {
		return s
	}

	return 2
}
