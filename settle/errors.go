package settle

import "fmt"

// Business-rule rejections are typed errors so callers can branch on them
// with errors.As and surface the diagnostic fields. The ledger is untouched
// when any of these is returned.

// InvalidAmountError rejects a non-positive trade size. It is checked before
// any lock is taken.
type InvalidAmountError struct {
	Amount float64
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("amount must be positive, got %g", e.Amount)
}

// InsufficientCashError rejects a buy whose cost exceeds the cash balance.
type InsufficientCashError struct {
	Required  float64
	Available float64
}

func (e *InsufficientCashError) Error() string {
	return fmt.Sprintf("insufficient cash: need %.2f, have %.2f", e.Required, e.Available)
}

// InsufficientHoldingsError rejects a sell larger than the held quantity.
type InsufficientHoldingsError struct {
	Symbol    string
	Held      float64
	Attempted float64
}

func (e *InsufficientHoldingsError) Error() string {
	return fmt.Sprintf("insufficient %s to sell: hold %g, attempted %g", e.Symbol, e.Held, e.Attempted)
}
