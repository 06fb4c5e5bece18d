package normalization

import "strings"

// NormalizePhone reduces a phone number to an E.164-style key: digits only,
// 10-digit numbers are treated as US numbers. Returns "" when no digits remain.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	switch {
	case digits == "":
		return ""
	case len(digits) == 10:
		return "+1" + digits
	default:
		return "+" + digits
	}
}

// PhoneDigits returns the normalized phone without its leading "+".
func PhoneDigits(raw string) string {
	return strings.TrimPrefix(NormalizePhone(raw), "+")
}
