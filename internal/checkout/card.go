package checkout

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Card carries the payment form fields for credit and debit methods.
// Number and CVV may arrive with the spacing the form mask produced.
type Card struct {
	Holder       string `json:"holder"`
	Number       string `json:"number"`
	Expiration   string `json:"expiration"` // MM/YY
	CVV          string `json:"cvv"`
	Installments int    `json:"installments"`
}

// FieldErrors maps a form field to a human-readable problem.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	return "invalid card fields: " + strings.Join(fields, ", ")
}

var expirationPattern = regexp.MustCompile(`^\d{2}/\d{2}$`)

// Validate checks the card the way the payment forms do: holder present,
// number 13-19 digits passing Luhn, unexpired MM/YY, CVV of 3-4 digits for
// credit and exactly 3 for debit. A nil return means the card is usable.
func (c Card) Validate(now time.Time, debit bool) FieldErrors {
	errs := FieldErrors{}

	if strings.TrimSpace(c.Holder) == "" {
		errs["holder"] = "informe o nome como está no cartão"
	}

	number := OnlyDigits(c.Number)
	if len(number) < 13 || len(number) > 19 || !ValidLuhn(number) {
		errs["number"] = "informe um número de cartão válido"
	}

	if !ValidExpiration(c.Expiration, now) {
		errs["expiration"] = "validade inválida"
	}

	cvv := OnlyDigits(c.CVV)
	if debit {
		if len(cvv) != 3 {
			errs["cvv"] = "CVV inválido"
		}
	} else if len(cvv) < 3 || len(cvv) > 4 {
		errs["cvv"] = "CVV inválido"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// OnlyDigits strips everything but 0-9.
func OnlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidLuhn reports whether a digit string passes the Luhn checksum.
func ValidLuhn(number string) bool {
	if number == "" {
		return false
	}

	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		d := number[i]
		if d < '0' || d > '9' {
			return false
		}
		digit := int(d - '0')
		if double {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
		double = !double
	}
	return sum%10 == 0
}

// ValidExpiration accepts an MM/YY pair that is this month or later.
func ValidExpiration(value string, now time.Time) bool {
	cleaned := strings.ReplaceAll(value, " ", "")
	if !expirationPattern.MatchString(cleaned) {
		return false
	}

	parts := strings.SplitN(cleaned, "/", 2)
	month, _ := strconv.Atoi(parts[0])
	year, _ := strconv.Atoi(parts[1])
	if month < 1 || month > 12 {
		return false
	}

	currentYear := now.Year() % 100
	currentMonth := int(now.Month())
	if year < currentYear {
		return false
	}
	if year == currentYear && month < currentMonth {
		return false
	}
	return true
}
