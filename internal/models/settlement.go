package models

// Settlement represents one settlement event: the moment all live
// expenses were archived and balances reset to zero. Immutable once
// created.
type Settlement struct {
	// ID is the store-assigned identifier (autoincrement).
	ID int64 `json:"id"`

	// SettledAt is the settlement timestamp in YYYYMMDDHHMMSS form.
	SettledAt string `json:"settled_at"`
}

// Balance is one simplified pairwise debt: Debtor owes Creditor Amount.
// The netting engine never emits a zero or negative amount, and never
// emits both directions for the same pair.
type Balance struct {
	Debtor   string  `json:"debtor"`
	Creditor string  `json:"creditor"`
	Amount   float64 `json:"amount"`
}
