package storecookie

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Skizzles/Nameless-Store/internal/modules/cart"
)

var ErrInvalid = errors.New("invalid store cookie")

// Codec signs and serializes the customer's cart state into a cookie. The
// state travels with the browser, so the signature is what keeps prices
// and order references trustworthy.
type Codec struct {
	Secret     []byte
	CookieName string
	Secure     bool
}

func New(secret []byte, name string, secure bool) *Codec {
	return &Codec{Secret: secret, CookieName: name, Secure: secure}
}

// value format: base64(json(state)).base64(hmac(payload))
func (c *Codec) Encode(s cart.State) (string, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	payload := base64.RawURLEncoding.EncodeToString(raw)
	return payload + "." + sign(c.Secret, payload), nil
}

func (c *Codec) Decode(v string) (cart.State, error) {
	parts := strings.Split(v, ".")
	if len(parts) != 2 || parts[0] == "" {
		return cart.State{}, ErrInvalid
	}
	if !verify(c.Secret, parts[0], parts[1]) {
		return cart.State{}, ErrInvalid
	}
	raw, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return cart.State{}, ErrInvalid
	}
	var s cart.State
	if err := json.Unmarshal(raw, &s); err != nil {
		return cart.State{}, ErrInvalid
	}
	return s, nil
}

// GetState reads the cookie; a missing or tampered cookie yields an empty
// cart and, in the tampered case, clears the cookie.
func (c *Codec) GetState(ctx *gin.Context) cart.State {
	v, err := ctx.Cookie(c.CookieName)
	if err != nil || v == "" {
		return cart.State{}
	}
	s, err := c.Decode(v)
	if err != nil {
		c.Clear(ctx)
		return cart.State{}
	}
	return s
}

func (c *Codec) Set(ctx *gin.Context, s cart.State) error {
	val, err := c.Encode(s)
	if err != nil {
		return err
	}
	maxAge := int((30 * 24 * time.Hour).Seconds())
	ctx.SetSameSite(2) // Lax
	ctx.SetCookie(c.CookieName, val, maxAge, "/", "", c.Secure, true)
	return nil
}

func (c *Codec) Clear(ctx *gin.Context) {
	ctx.SetSameSite(2) // Lax
	ctx.SetCookie(c.CookieName, "", -1, "/", "", c.Secure, true)
}

func sign(secret []byte, payload string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func verify(secret []byte, payload, sig string) bool {
	return hmac.Equal([]byte(sign(secret, payload)), []byte(sig))
}
