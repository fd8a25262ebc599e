package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// Sends a provider-shaped webhook event to a local listener. Signature
// verification must be stubbed or running against the sandbox for the
// event to be accepted.

type webhookEvent struct {
	ID        string          `json:"id"`
	EventType string          `json:"event_type"`
	Resource  webhookResource `json:"resource"`
}

type webhookResource struct {
	ID                 string  `json:"id"`
	State              string  `json:"state,omitempty"`
	ParentPayment      string  `json:"parent_payment,omitempty"`
	BillingAgreementID string  `json:"billing_agreement_id,omitempty"`
	SaleID             string  `json:"sale_id,omitempty"`
	InvoiceNumber      string  `json:"invoice_number,omitempty"`
	Amount             *amount `json:"amount,omitempty"`
}

type amount struct {
	Total    string `json:"total"`
	Currency string `json:"currency"`
}

func main() {
	url := flag.String("url", "http://localhost:8080/store/listener?gateway=paypal_business", "Listener URL (without key)")
	key := flag.String("key", os.Getenv("STORE_WEBHOOK_KEY"), "Webhook shared key")
	eventID := flag.String("event-id", "WH-"+randomHex(8), "Event ID")
	eventType := flag.String("type", "PAYMENT.SALE.COMPLETED", "Event type")
	resourceID := flag.String("resource-id", "SALE-"+randomHex(8), "Resource (sale/agreement) ID")
	parentPayment := flag.String("parent-payment", "", "Parent payment ID (one-off sale events)")
	agreementID := flag.String("agreement-id", "", "Billing agreement ID (subscription events)")
	saleID := flag.String("sale-id", "", "Original sale ID (refund events)")
	invoice := flag.String("invoice", "", "Invoice number (local order ID)")
	total := flag.String("total", "10.00", "Amount total")
	currency := flag.String("currency", "USD", "Currency")
	dryRun := flag.Bool("dry-run", false, "Only print payload, don't send")

	flag.Parse()

	if *key == "" {
		fmt.Fprintf(os.Stderr, "Error: key not provided and STORE_WEBHOOK_KEY not set\n")
		os.Exit(1)
	}

	ev := webhookEvent{
		ID:        *eventID,
		EventType: *eventType,
		Resource: webhookResource{
			ID:                 *resourceID,
			State:              "completed",
			ParentPayment:      *parentPayment,
			BillingAgreementID: *agreementID,
			SaleID:             *saleID,
			InvoiceNumber:      *invoice,
			Amount:             &amount{Total: *total, Currency: *currency},
		},
	}

	body, err := json.MarshalIndent(ev, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling payload: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Body: %s\n", string(body))

	if *dryRun {
		fmt.Println("\n[DRY RUN] Not sending request")
		return
	}

	target := fmt.Sprintf("%s&key=%s", *url, *key)
	fmt.Printf("\nSending to %s...\n", target)
	req, err := http.NewRequest("POST", target, bytes.NewReader(body))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating request: %v\n", err)
		os.Exit(1)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error sending request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	fmt.Printf("Status: %d\n", resp.StatusCode)
	fmt.Printf("Response: %s\n", string(respBody))

	if resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}
}

func randomHex(n int) string {
	b := make([]byte, n)
	for i := 0; i < n; i++ {
		b[i] = "0123456789abcdef"[time.Now().UnixNano()%16]
	}
	return string(b)
}
