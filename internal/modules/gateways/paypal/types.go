package paypal

// Wire shapes of the provider's REST payment API. Only the fields the
// reconciliation engine reads are declared.

type Amount struct {
	Total    string `json:"total"`
	Currency string `json:"currency"`
}

type Currency struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

type Link struct {
	Href   string `json:"href"`
	Rel    string `json:"rel"`
	Method string `json:"method"`
}

type Sale struct {
	ID             string    `json:"id"`
	State          string    `json:"state"`
	TransactionFee *Currency `json:"transaction_fee,omitempty"`
}

type RelatedResource struct {
	Sale *Sale `json:"sale,omitempty"`
}

type Transaction struct {
	Amount           Amount            `json:"amount"`
	Description      string            `json:"description,omitempty"`
	InvoiceNumber    string            `json:"invoice_number,omitempty"`
	Custom           string            `json:"custom,omitempty"`
	RelatedResources []RelatedResource `json:"related_resources,omitempty"`
}

type PayerInfo struct {
	Email   string `json:"email"`
	PayerID string `json:"payer_id"`
}

type Payer struct {
	PaymentMethod string     `json:"payment_method"`
	Status        string     `json:"status,omitempty"`
	PayerInfo     *PayerInfo `json:"payer_info,omitempty"`
}

type RedirectURLs struct {
	ReturnURL string `json:"return_url"`
	CancelURL string `json:"cancel_url"`
}

type Payment struct {
	ID           string        `json:"id,omitempty"`
	Intent       string        `json:"intent"`
	State        string        `json:"state,omitempty"`
	Payer        Payer         `json:"payer"`
	Transactions []Transaction `json:"transactions"`
	RedirectURLs *RedirectURLs `json:"redirect_urls,omitempty"`
	Links        []Link        `json:"links,omitempty"`
}

type PaymentDefinition struct {
	Name              string   `json:"name"`
	Type              string   `json:"type"`
	Frequency         string   `json:"frequency"`
	FrequencyInterval string   `json:"frequency_interval"`
	Amount            Currency `json:"amount"`
}

type MerchantPreferences struct {
	ReturnURL               string `json:"return_url"`
	CancelURL               string `json:"cancel_url"`
	InitialFailAmountAction string `json:"initial_fail_amount_action,omitempty"`
	MaxFailAttempts         string `json:"max_fail_attempts,omitempty"`
}

type Plan struct {
	ID                  string               `json:"id,omitempty"`
	Name                string               `json:"name"`
	Description         string               `json:"description"`
	Type                string               `json:"type"`
	State               string               `json:"state,omitempty"`
	PaymentDefinitions  []PaymentDefinition  `json:"payment_definitions,omitempty"`
	MerchantPreferences *MerchantPreferences `json:"merchant_preferences,omitempty"`
}

type AgreementDetails struct {
	LastPaymentDate string `json:"last_payment_date,omitempty"`
	NextBillingDate string `json:"next_billing_date,omitempty"`
}

type Agreement struct {
	ID               string            `json:"id,omitempty"`
	Name             string            `json:"name,omitempty"`
	Description      string            `json:"description,omitempty"`
	StartDate        string            `json:"start_date,omitempty"`
	State            string            `json:"state,omitempty"`
	Payer            *Payer            `json:"payer,omitempty"`
	Plan             *Plan             `json:"plan,omitempty"`
	AgreementDetails *AgreementDetails `json:"agreement_details,omitempty"`
	Links            []Link            `json:"links,omitempty"`
}

// ApprovalLink returns the href the customer's browser is redirected to.
func approvalLink(links []Link) string {
	for _, l := range links {
		if l.Rel == "approval_url" {
			return l.Href
		}
	}
	return ""
}

// webhookEvent is the inbound push notification envelope.
type webhookEvent struct {
	ID        string `json:"id"`
	EventType string `json:"event_type"`
	Resource  struct {
		ID                 string    `json:"id"`
		State              string    `json:"state"`
		ParentPayment      string    `json:"parent_payment"`
		BillingAgreementID string    `json:"billing_agreement_id"`
		SaleID             string    `json:"sale_id"`
		InvoiceNumber      string    `json:"invoice_number"`
		Amount             Amount    `json:"amount"`
		TransactionFee     *Currency `json:"transaction_fee"`
	} `json:"resource"`
}
