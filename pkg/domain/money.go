package domain

import "fmt"

// Cents is a money amount in integer minor units. All wallet and order math
// happens in cents so splits and remainders stay exact.
type Cents int64

// SplitEven divides the amount across n shares. The remainder cents are
// distributed one each to the first shares so the split always sums back to
// the original amount.
func (c Cents) SplitEven(n int) []Cents {
	if n <= 0 {
		return nil
	}
	base := int64(c) / int64(n)
	remainder := int64(c) % int64(n)
	shares := make([]Cents, n)
	for i := range shares {
		shares[i] = Cents(base)
		if int64(i) < remainder {
			shares[i]++
		}
	}
	return shares
}

// String renders the amount as a decimal, e.g. 1050 -> "10.50".
func (c Cents) String() string {
	sign := ""
	v := int64(c)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}
