// Package validate holds the input validation rules for usernames and
// expense fields. Every function is pure: it either returns the
// normalized value or an *Error naming the field and the reason, and
// never touches storage. Uniqueness and referential checks belong to
// the store, not here.
package validate

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Field identifies which input a validation error refers to.
type Field string

const (
	FieldUsername Field = "username"
	FieldCost     Field = "cost"
	FieldDate     Field = "date"
	FieldTitle    Field = "title"
)

// Error is a validation failure with a human-readable reason.
type Error struct {
	Field  Field
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// dateFormat is the only accepted expense date layout.
const dateFormat = "20060102"

// Username checks a username and returns it unchanged.
//
// A valid username is already trimmed, non-empty, contains no comma
// (commas separate usernames in list input) and is not an integer
// (integers are reserved for ids). Uniqueness is not checked here; the
// store enforces it on insert and rename.
func Username(name string) (string, error) {
	if name != strings.TrimSpace(name) {
		return "", &Error{FieldUsername, "no leading or trailing whitespace allowed"}
	}
	if name == "" {
		return "", &Error{FieldUsername, "cannot be empty or whitespace only"}
	}
	if strings.Contains(name, ",") {
		return "", &Error{FieldUsername, "no ',' allowed"}
	}
	if _, err := strconv.ParseInt(name, 10, 64); err == nil {
		return "", &Error{FieldUsername, "cannot be a number"}
	}
	return name, nil
}

// Cost parses a cost string and returns it as a float64. The cost must
// parse as a finite real number strictly greater than zero.
func Cost(cost string) (float64, error) {
	c, err := strconv.ParseFloat(cost, 64)
	if err != nil || math.IsNaN(c) || math.IsInf(c, 0) {
		return 0, &Error{FieldCost, "cost must be a number"}
	}
	if c <= 0 {
		return 0, &Error{FieldCost, "cost must be a positive number"}
	}
	return c, nil
}

// Date checks an expense date and returns it unchanged. The date must
// be a real calendar date in YYYYMMDD form, today or earlier. The
// string form is returned rather than a time.Time so stored dates
// round-trip byte for byte.
func Date(date string) (string, error) {
	if _, err := time.Parse(dateFormat, date); err != nil {
		return "", &Error{FieldDate, "date format should be 'YYYYMMDD'"}
	}
	// Both sides are YYYYMMDD, so string order is date order.
	if date > time.Now().Format(dateFormat) {
		return "", &Error{FieldDate, "date must be today or before"}
	}
	return date, nil
}

// Title checks an expense title and returns it unchanged. A valid
// title is already trimmed and non-empty.
func Title(title string) (string, error) {
	if title != strings.TrimSpace(title) {
		return "", &Error{FieldTitle, "no leading or trailing whitespace allowed"}
	}
	if title == "" {
		return "", &Error{FieldTitle, "cannot be empty or whitespace only"}
	}
	return title, nil
}

// Timestamp returns t in the YYYYMMDDHHMMSS form used for settlement
// timestamps.
func Timestamp(t time.Time) string {
	return t.Format("20060102150405")
}
