// Package checksum implements the FEBRABAN check digit arithmetic used by
// boleto barcodes and typeable lines.
package checksum

import (
	"github.com/vidaplan/paycode/internal/domain"
)

// Mod11CheckDigit computes the general barcode check digit. Digits are
// weighted right to left with the cycle 2..9; the digit is 11 - (sum mod 11),
// with 0, 10 and 11 collapsing to 1 per the FEBRABAN convention.
func Mod11CheckDigit(digits string) (int, error) {
	if err := requireNumeric(digits); err != nil {
		return 0, err
	}

	sum := 0
	weight := 2
	for i := len(digits) - 1; i >= 0; i-- {
		sum += int(digits[i]-'0') * weight
		if weight == 9 {
			weight = 2
		} else {
			weight++
		}
	}

	dv := 11 - sum%11
	if dv == 0 || dv == 10 || dv == 11 {
		return 1, nil
	}
	return dv, nil
}

// Mod10CheckDigit computes a typeable line field check digit. Digits are
// weighted right to left alternating 2, 1; products above 9 collapse by
// summing their own digits.
func Mod10CheckDigit(field string) (int, error) {
	if err := requireNumeric(field); err != nil {
		return 0, err
	}

	sum := 0
	weight := 2
	for i := len(field) - 1; i >= 0; i-- {
		p := int(field[i]-'0') * weight
		if p > 9 {
			p -= 9
		}
		sum += p
		if weight == 2 {
			weight = 1
		} else {
			weight = 2
		}
	}

	if rem := sum % 10; rem != 0 {
		return 10 - rem, nil
	}
	return 0, nil
}

func requireNumeric(s string) error {
	if s == "" {
		return &domain.InvalidInputError{Input: s, Reason: "empty digit string"}
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return &domain.InvalidInputError{Input: s, Reason: "digit string must be numeric"}
		}
	}
	return nil
}
