package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	cases := []struct {
		currency string
		cents    int
		want     string
	}{
		{"USD", 1250, "$12.50"},
		{"USD", 5, "$0.05"},
		{"USD", -307, "-$3.07"},
		{"EUR", 999, "€9.99"},
		{"GBP", 100, "£1.00"},
		{"SEK", 2500, "25.00 SEK"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Format(c.currency, c.cents), "%s %d", c.currency, c.cents)
	}
}
