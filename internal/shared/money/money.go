package money

import "fmt"

// Format renders integer cents with a currency symbol. Integer math only;
// amounts never pass through floats.
func Format(currency string, cents int) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	major, minor := cents/100, cents%100

	switch currency {
	case "EUR":
		return fmt.Sprintf("%s€%d.%02d", sign, major, minor)
	case "GBP":
		return fmt.Sprintf("%s£%d.%02d", sign, major, minor)
	case "USD":
		return fmt.Sprintf("%s$%d.%02d", sign, major, minor)
	default:
		return fmt.Sprintf("%s%d.%02d %s", sign, major, minor, currency)
	}
}
