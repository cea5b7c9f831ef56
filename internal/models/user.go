package models

// User represents a registered member of the shared ledger.
//
// Users are created by explicit registration and renamed in place; the
// id stays stable for the lifetime of the database. There is no delete:
// live and archived expenses reference users by id, and removing one
// would orphan those references.
type User struct {
	// ID is the store-assigned identifier (autoincrement).
	ID int64 `json:"id"`

	// Name is the unique display name. Validation guarantees it is
	// non-empty, trimmed, contains no comma and is not an integer, so
	// names and ids stay distinguishable in ambiguous contexts.
	Name string `json:"name"`
}
