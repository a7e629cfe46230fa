package options

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// DefaultPulsesPerKWh is the meter constant of most Swedish electricity
// meters.
const DefaultPulsesPerKWh = 1000

const serialDigits = 9

// ParseSerial decodes the serial as printed on the transmitter label, e.g.
// "400-565-321". Dashes and whitespace are ignored.
func ParseSerial(input string) (uint32, error) {
	clean := stripSeparators(input)
	if clean == "" {
		return 0, fmt.Errorf("serial is empty")
	}
	if len(clean) > serialDigits {
		return 0, fmt.Errorf("serial must be at most %d digits, got %d", serialDigits, len(clean))
	}
	v, err := strconv.ParseUint(clean, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid serial %q: %w", input, err)
	}
	return uint32(v), nil
}

// FormatSerial renders serial in the nnn-nnn-nnn label form.
func FormatSerial(serial uint32) string {
	s := fmt.Sprintf("%09d", serial)
	n := len(s)
	return s[:n-6] + "-" + s[n-6:n-3] + "-" + s[n-3:]
}

// PulsesPerKWh applies the default meter constant to a zero value.
func PulsesPerKWh(v uint32) uint32 {
	if v == 0 {
		return DefaultPulsesPerKWh
	}
	return v
}

func stripSeparators(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) || r == '-' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
