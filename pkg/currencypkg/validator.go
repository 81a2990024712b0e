package currencypkg

import "github.com/go-playground/validator/v10"

// ValidCurrency is a gin binding validator for supported currency codes.
var ValidCurrency validator.Func = func(fieldLevel validator.FieldLevel) bool {
	if currency, ok := fieldLevel.Field().Interface().(string); ok {
		return IsSupportedCurrency(currency)
	}

	return false
}
