package storecookie

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skizzles/Nameless-Store/internal/modules/cart"
)

func TestCodecRoundTrip(t *testing.T) {
	c := New([]byte("secret"), "store", false)

	state := cart.State{
		Items: []cart.StateItem{
			{ProductID: 3, Quantity: 2, Fields: map[string]string{"username": "steve"}},
		},
		CouponID:         5,
		SubscriptionMode: true,
		OrderID:          9,
	}

	v, err := c.Encode(state)
	require.NoError(t, err)

	got, err := c.Decode(v)
	require.NoError(t, err)
	assert.Equal(t, state, got)
}

func TestCodecRejectsTampering(t *testing.T) {
	c := New([]byte("secret"), "store", false)

	v, err := c.Encode(cart.State{OrderID: 9})
	require.NoError(t, err)

	parts := strings.Split(v, ".")
	require.Len(t, parts, 2)

	// Flip payload, keep signature.
	other, err := c.Encode(cart.State{OrderID: 10})
	require.NoError(t, err)
	tampered := strings.Split(other, ".")[0] + "." + parts[1]

	_, err = c.Decode(tampered)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestCodecRejectsWrongSecret(t *testing.T) {
	a := New([]byte("secret-a"), "store", false)
	b := New([]byte("secret-b"), "store", false)

	v, err := a.Encode(cart.State{OrderID: 9})
	require.NoError(t, err)

	_, err = b.Decode(v)
	assert.ErrorIs(t, err, ErrInvalid)
}
