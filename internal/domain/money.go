package domain

import "github.com/shopspring/decimal"

// Money is a fixed-point currency amount. Prices come off the wire as plain
// JSON numbers and go back out the same way, always rendered to two decimals.
type Money struct {
	amount decimal.Decimal
}

func NewMoney(amount decimal.Decimal) Money {
	return Money{amount: amount}
}

func MoneyFromFloat(f float64) Money {
	return Money{amount: decimal.NewFromFloat(f)}
}

func ZeroMoney() Money {
	return Money{}
}

func (m Money) Add(other Money) Money {
	return Money{amount: m.amount.Add(other.amount)}
}

// MulInt scales the amount by an integer quantity.
func (m Money) MulInt(n int) Money {
	return Money{amount: m.amount.Mul(decimal.NewFromInt(int64(n)))}
}

func (m Money) Equal(other Money) bool {
	return m.amount.Equal(other.amount)
}

func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

// String renders the amount with two decimal places, e.g. "13.50".
func (m Money) String() string {
	return m.amount.StringFixed(2)
}

func (m Money) Float64() float64 {
	f, _ := m.amount.Float64()
	return f
}

func (m Money) MarshalJSON() ([]byte, error) {
	// unquoted, so the order service sees a JSON number
	return []byte(m.amount.StringFixed(2)), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	return m.amount.UnmarshalJSON(data)
}
