package validation

import (
	"errors"
	"net/mail"
	"strconv"
	"strings"
	"time"
)

type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// DateLayout is the wire format of date-only query parameters.
const DateLayout = "2006-01-02"

// ErrInvalidID is returned by ParseID for anything that is not a canonical positive integer.
var ErrInvalidID = errors.New("invalid id")

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

func Email(field, value string, v Violations) {
	value = strings.TrimSpace(value)
	if value == "" {
		v[field] = "required"
		return
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		v[field] = "invalid_email"
	}
}

func NonNegativeInt(field string, val int, v Violations) {
	if val < 0 {
		v[field] = "must_not_be_negative"
	}
}

func OneOf(field, value string, allowed []string, v Violations) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	v[field] = "invalid_choice"
}

// MaxLen flags values longer than n runes.
func MaxLen(field, value string, n int, v Violations) {
	if len([]rune(value)) > n {
		v[field] = "too_long"
	}
}

// ParseID accepts only canonical decimal identifiers: digits only, no sign,
// no leading zero and strictly positive.
func ParseID(s string) (uint64, error) {
	if s == "" || len(s) > 20 {
		return 0, ErrInvalidID
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, ErrInvalidID
		}
	}
	if s[0] == '0' {
		return 0, ErrInvalidID
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}

// ParseDate parses an optional YYYY-MM-DD value. An empty string yields the zero time.
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(DateLayout, s, time.UTC)
}
