package pricing

import "github.com/shopspring/decimal"

// Money is a currency amount that always renders with MoneyPlaces decimals
// in JSON, so 6 is written as "6.00". It follows decimal.MarshalJSONWithoutQuotes
// for quoting.
type Money struct {
	decimal.Decimal
}

// NewMoney rounds d to MoneyPlaces.
func NewMoney(d decimal.Decimal) Money {
	return Money{d.Round(MoneyPlaces)}
}

func (m Money) MarshalJSON() ([]byte, error) {
	s := m.StringFixed(MoneyPlaces)
	if decimal.MarshalJSONWithoutQuotes {
		return []byte(s), nil
	}
	return []byte(`"` + s + `"`), nil
}

// WithinMoneyPlaces reports whether d is already exact to MoneyPlaces, so
// 12.5 and 10.500 pass and 1.234 does not.
func WithinMoneyPlaces(d decimal.Decimal) bool {
	return d.Equal(d.Round(MoneyPlaces))
}
