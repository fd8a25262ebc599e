package paypal

import (
	"fmt"
	"strconv"
	"strings"
)

// The provider speaks decimal strings ("20.00"); local records are integer
// cents. Conversion is done with string math, never floating point.

func fromCents(cents int) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

func toCents(amount string) (int, error) {
	s := strings.TrimSpace(amount)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}

	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" {
		whole = "0"
	}
	switch len(frac) {
	case 0:
		frac = "00"
	case 1:
		frac += "0"
	case 2:
	default:
		return 0, fmt.Errorf("amount %q has sub-cent precision", amount)
	}

	w, err := strconv.Atoi(whole)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", amount)
	}
	f, err := strconv.Atoi(frac)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", amount)
	}

	cents := w*100 + f
	if neg {
		cents = -cents
	}
	return cents, nil
}
