// Package coerce converts raw request strings into typed values.
package coerce

import (
	"math"
	"strconv"
	"strings"
	"time"

	"moviedb/errs"
)

var ErrInvalidDate = errs.Errorf(errs.EINVALID, "Invalid date format. Date must be in the format YYYY-MM-DD.")

// ToNumber converts a non-empty string to a number. Empty input is passed
// through: ok is false and the caller keeps the original string. Text that
// is not numeric yields NaN.
func ToNumber(s string) (n float64, ok bool) {
	if s == "" {
		return 0, false
	}
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, true
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return math.NaN(), true
	}
	return v, true
}

// IsNumeric reports whether s converts to a finite number.
func IsNumeric(s string) bool {
	n, ok := ToNumber(s)
	return ok && !math.IsNaN(n) && !math.IsInf(n, 0)
}

// ToDate parses a strict YYYY-MM-DD date and returns it at local midnight.
func ToDate(s string) (time.Time, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return time.Time{}, ErrInvalidDate
	}

	year, ok := fixedWidth(parts[0], 4)
	if !ok {
		return time.Time{}, ErrInvalidDate
	}
	month, ok := fixedWidth(parts[1], 2)
	if !ok || month < 1 || month > 12 {
		return time.Time{}, ErrInvalidDate
	}
	day, ok := fixedWidth(parts[2], 2)
	if !ok || day < 1 || day > daysIn(month, year) {
		return time.Time{}, ErrInvalidDate
	}

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local), nil
}

func fixedWidth(s string, width int) (int, bool) {
	if len(s) != width {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return v, true
}

func daysIn(month, year int) int {
	switch month {
	case 2:
		if IsLeapYear(year) {
			return 29
		}
		return 28
	case 4, 6, 9, 11:
		return 30
	default:
		return 31
	}
}

// IsLeapYear applies the Gregorian rule.
func IsLeapYear(year int) bool {
	return (year%4 == 0 && year%100 != 0) || year%400 == 0
}
