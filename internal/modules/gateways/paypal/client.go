package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// API is the outbound surface of the provider's REST API. The gateway
// depends on this interface; tests substitute a fake.
type API interface {
	CreatePayment(ctx context.Context, p Payment) (Payment, error)
	ExecutePayment(ctx context.Context, paymentID, payerID string) (Payment, error)
	GetPayment(ctx context.Context, paymentID string) (Payment, error)

	CreateAgreement(ctx context.Context, a Agreement) (Agreement, error)
	ExecuteAgreement(ctx context.Context, token string) (Agreement, error)
	GetAgreement(ctx context.Context, agreementID string) (Agreement, error)
	CancelAgreement(ctx context.Context, agreementID, note string) error

	CreatePlan(ctx context.Context, p Plan) (Plan, error)
	ActivatePlan(ctx context.Context, planID string) error

	CreateWebhook(ctx context.Context, listenerURL string, eventTypes []string) (webhookID string, err error)
	VerifyWebhookSignature(ctx context.Context, v VerifySignature) (bool, error)
}

// VerifySignature is the provider's webhook signature check request, built
// from the transmission headers of an inbound event.
type VerifySignature struct {
	AuthAlgo         string          `json:"auth_algo"`
	CertURL          string          `json:"cert_url"`
	TransmissionID   string          `json:"transmission_id"`
	TransmissionSig  string          `json:"transmission_sig"`
	TransmissionTime string          `json:"transmission_time"`
	WebhookID        string          `json:"webhook_id"`
	WebhookEvent     json.RawMessage `json:"webhook_event"`
}

// APIError is a non-2xx provider response, kept verbatim for the log.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("provider returned %d: %s", e.Status, e.Body)
}

const (
	LiveBase    = "https://api.paypal.com"
	SandboxBase = "https://api.sandbox.paypal.com"
)

// Client is a thin REST client over the provider API with cached OAuth
// client-credentials tokens.
type Client struct {
	base         string
	clientID     string
	clientSecret string
	http         *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewClient(base, clientID, clientSecret string) *Client {
	if base == "" {
		base = LiveBase
	}
	return &Client{
		base:         base,
		clientID:     clientID,
		clientSecret: clientSecret,
		http:         &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.base+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", err
	}

	c.accessToken = tok.AccessToken
	// renew a minute early
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn-60) * time.Second)
	return c.accessToken, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	tok, err := c.token(ctx)
	if err != nil {
		return err
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Body: string(raw)}
	}
	if out != nil && len(raw) > 0 {
		return json.Unmarshal(raw, out)
	}
	return nil
}

func (c *Client) CreatePayment(ctx context.Context, p Payment) (Payment, error) {
	var out Payment
	err := c.do(ctx, http.MethodPost, "/v1/payments/payment", p, &out)
	return out, err
}

func (c *Client) ExecutePayment(ctx context.Context, paymentID, payerID string) (Payment, error) {
	var out Payment
	in := map[string]string{"payer_id": payerID}
	err := c.do(ctx, http.MethodPost, "/v1/payments/payment/"+url.PathEscape(paymentID)+"/execute", in, &out)
	return out, err
}

func (c *Client) GetPayment(ctx context.Context, paymentID string) (Payment, error) {
	var out Payment
	err := c.do(ctx, http.MethodGet, "/v1/payments/payment/"+url.PathEscape(paymentID), nil, &out)
	return out, err
}

func (c *Client) CreateAgreement(ctx context.Context, a Agreement) (Agreement, error) {
	var out Agreement
	err := c.do(ctx, http.MethodPost, "/v1/payments/billing-agreements", a, &out)
	return out, err
}

func (c *Client) ExecuteAgreement(ctx context.Context, token string) (Agreement, error) {
	var out Agreement
	err := c.do(ctx, http.MethodPost,
		"/v1/payments/billing-agreements/"+url.PathEscape(token)+"/agreement-execute", struct{}{}, &out)
	return out, err
}

func (c *Client) GetAgreement(ctx context.Context, agreementID string) (Agreement, error) {
	var out Agreement
	err := c.do(ctx, http.MethodGet, "/v1/payments/billing-agreements/"+url.PathEscape(agreementID), nil, &out)
	return out, err
}

func (c *Client) CancelAgreement(ctx context.Context, agreementID, note string) error {
	in := map[string]string{"note": note}
	return c.do(ctx, http.MethodPost,
		"/v1/payments/billing-agreements/"+url.PathEscape(agreementID)+"/cancel", in, nil)
}

func (c *Client) CreatePlan(ctx context.Context, p Plan) (Plan, error) {
	var out Plan
	err := c.do(ctx, http.MethodPost, "/v1/payments/billing-plans", p, &out)
	return out, err
}

// ActivatePlan flips a freshly created plan to ACTIVE via JSON patch.
func (c *Client) ActivatePlan(ctx context.Context, planID string) error {
	patch := []map[string]any{{
		"op":    "replace",
		"path":  "/",
		"value": map[string]string{"state": "ACTIVE"},
	}}
	return c.do(ctx, http.MethodPatch, "/v1/payments/billing-plans/"+url.PathEscape(planID), patch, nil)
}

func (c *Client) CreateWebhook(ctx context.Context, listenerURL string, eventTypes []string) (string, error) {
	type eventType struct {
		Name string `json:"name"`
	}
	in := struct {
		URL        string      `json:"url"`
		EventTypes []eventType `json:"event_types"`
	}{URL: listenerURL}
	for _, n := range eventTypes {
		in.EventTypes = append(in.EventTypes, eventType{Name: n})
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/notifications/webhooks", in, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *Client) VerifyWebhookSignature(ctx context.Context, v VerifySignature) (bool, error) {
	var out struct {
		VerificationStatus string `json:"verification_status"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/notifications/verify-webhook-signature", v, &out); err != nil {
		return false, err
	}
	return out.VerificationStatus == "SUCCESS", nil
}
