package money_test

import (
	"testing"

	"github.com/amirasaad/bankledger/pkg/domain/money"
)

// FuzzMoney_AddSubConserves checks that adding then subtracting the same amount
// always returns the original value.
func FuzzMoney_AddSubConserves(f *testing.F) {
	f.Add("100.00", "40.00")
	f.Add("0", "0.01")
	f.Add("99999999999.99", "0.01")
	f.Fuzz(func(t *testing.T, a, b string) {
		x, err := money.New(a)
		if err != nil {
			return
		}
		y, err := money.New(b)
		if err != nil {
			return
		}
		if got := x.Add(y).Sub(y); !got.Equals(x) {
			t.Errorf("(%s + %s) - %s = %s, want %s", x, y, y, got, x)
		}
	})
}
