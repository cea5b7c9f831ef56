package models

// Expense represents a single recorded cost event: one payer, one or
// more debtors sharing the cost evenly.
type Expense struct {
	// ID is the store-assigned identifier (autoincrement).
	ID int64

	// Title is the non-empty, trimmed description of the expense.
	Title string

	// Cost is the full amount paid, strictly positive.
	Cost float64

	// Date is the expense date in YYYYMMDD form, today or earlier.
	// Kept as the validated string so it round-trips exactly.
	Date string

	// PayerID references the user who paid.
	PayerID int64

	// DebtorIDs are the users sharing the cost. At least one entry.
	// Duplicates are preserved: each occurrence is its own share, so a
	// duplicated debtor carries a proportionally larger portion.
	DebtorIDs []int64
}

// ExpenseDetail is an Expense with user references resolved to names,
// as returned by the read side of the ledger.
type ExpenseDetail struct {
	ID      int64    `json:"id"`
	Title   string   `json:"title"`
	Cost    float64  `json:"cost"`
	Date    string   `json:"date"`
	Payer   string   `json:"payer"`
	Debtors []string `json:"debtors"`

	// Share is the per-debtor portion, Cost / len(Debtors).
	Share float64 `json:"share"`
}
