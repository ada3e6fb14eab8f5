// Package academicyear computes and checks "YYYY-YYYY" academic year labels.
//
// The academic year turns over on September 1: any date in September or
// later belongs to the year that starts in that calendar year.
package academicyear

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrMalformed is returned by Parse for labels that are not "YYYY-(YYYY+1)".
var ErrMalformed = errors.New(`academic year must look like "2024-2025"`)

// For returns the academic year label that contains t.
func For(t time.Time) string {
	y := t.Year()
	if t.Month() >= time.September {
		return Label(y)
	}
	return Label(y - 1)
}

// Label formats the academic year that starts in startYear.
func Label(startYear int) string {
	return fmt.Sprintf("%d-%d", startYear, startYear+1)
}

// Parse validates label and returns the year it starts in.
func Parse(label string) (int, error) {
	if len(label) != 9 || label[4] != '-' {
		return 0, ErrMalformed
	}
	start, err := strconv.Atoi(label[:4])
	if err != nil {
		return 0, ErrMalformed
	}
	end, err := strconv.Atoi(label[5:])
	if err != nil {
		return 0, ErrMalformed
	}
	if end != start+1 {
		return 0, ErrMalformed
	}
	return start, nil
}

// Valid reports whether label is a well-formed academic year.
func Valid(label string) bool {
	_, err := Parse(label)
	return err == nil
}
