package transformers

import (
	"strings"
	"unicode"
)

type addressTransformer struct{}

func NewAddressTransformer() AddressTransformer {
	return &addressTransformer{}
}

// FormatAddress turns "764 E FAKE ST, 1, SOUTH BOSTON, MA, 02127" into
// "764 E FAKE ST, 1\nSOUTH BOSTON, MA, 02127". The geocoder always puts
// city, state, and zip in the last three comma-separated fields; anything
// before them is street lines (including unit designators).
func (t *addressTransformer) FormatAddress(address string) string {
	parts := strings.Split(address, ",")
	for i, part := range parts {
		parts[i] = strings.TrimSpace(part)
	}
	if len(parts) <= 3 {
		return strings.Join(parts, ", ")
	}

	street := strings.Join(parts[:len(parts)-3], ", ")
	cityStateZip := strings.Join(parts[len(parts)-3:], ", ")
	return street + "\n" + cityStateZip
}

// NormalizePhone strips formatting and returns a +1XXXXXXXXXX string.
// Inputs that don't reduce to a 10-digit US number are returned trimmed
// and unchanged; the validator rejects those before submission.
func (t *addressTransformer) NormalizePhone(phone string) string {
	trimmed := strings.TrimSpace(phone)
	if trimmed == "" {
		return ""
	}

	var digits strings.Builder
	for _, r := range trimmed {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
		}
	}

	d := digits.String()
	switch {
	case len(d) == 10:
		return "+1" + d
	case len(d) == 11 && d[0] == '1':
		return "+1" + d[1:]
	default:
		return trimmed
	}
}
