// Package models defines the core domain types for Fairshare.
//
// # Lifecycle
//
// Users are registered once and never deleted; live and archived
// expenses keep referencing them. Expenses and their shares live in the
// open ledger until a settlement, at which point they are copied into
// the archive under a Settlement id and removed from the open ledger.
//
// # Design principles
//
//  1. Relationships are expressed with integer ids, not pointers, to
//     avoid circular references between types.
//  2. Dates round-trip as their original YYYYMMDD strings; parsing them
//     into time.Time and back would risk reformatting stored values.
//  3. Amounts are float64 throughout; rounding is a presentation
//     concern handled by consumers.
package models
