// internal/core/ingest/phone.go
package ingest

import (
	"regexp"
	"strings"
)

var (
	nonDigitRe    = regexp.MustCompile(`\D`)
	kenyanPhoneRe = regexp.MustCompile(`^254\d{9}$`)
)

// NormalizePhone reduces a phone cell to digits and normalizes the usual
// Kenyan forms (07XXXXXXXX, 7XXXXXXXX, bare 9 digits) to 254XXXXXXXXX.
// Anything that cannot be normalized comes back empty.
func NormalizePhone(raw string) string {
	digits := nonDigitRe.ReplaceAllString(raw, "")
	switch {
	case len(digits) == 12 && strings.HasPrefix(digits, "254"):
		return digits
	case len(digits) == 10 && strings.HasPrefix(digits, "07"):
		return "254" + digits[1:]
	case len(digits) == 9 && !strings.HasPrefix(digits, "0"):
		return "254" + digits
	default:
		return ""
	}
}

// ValidPhone reports whether the number is in canonical 254XXXXXXXXX form.
func ValidPhone(phone string) bool {
	return kenyanPhoneRe.MatchString(nonDigitRe.ReplaceAllString(phone, ""))
}

// FormatPhoneDisplay renders a normalized number as "+254 XXX XXX XXX" for
// printed reports. Input that does not match a known shape is returned as-is.
func FormatPhoneDisplay(phone string) string {
	digits := nonDigitRe.ReplaceAllString(phone, "")
	switch {
	case len(digits) == 12 && strings.HasPrefix(digits, "254"):
		return "+254 " + digits[3:6] + " " + digits[6:9] + " " + digits[9:]
	case len(digits) == 10 && strings.HasPrefix(digits, "0"):
		return "+254 " + digits[1:4] + " " + digits[4:7] + " " + digits[7:]
	case len(digits) == 9:
		return "+254 " + digits[0:3] + " " + digits[3:6] + " " + digits[6:]
	default:
		return phone
	}
}
