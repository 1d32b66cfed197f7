package gateway

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
)

// Notification is the webhook payload the gateway posts on every payment
// status change.
type Notification struct {
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	SignatureKey      string `json:"signature_key"`
}

// Status maps the notification to the normalized payment status.
func (n *Notification) Status() Status {
	return MapStatus(n.TransactionStatus, n.FraudStatus)
}

// VerifySignature checks the sha512(order_id + status_code + gross_amount +
// server_key) signature carried in the payload. An empty serverKey disables
// the check (local development).
func (n *Notification) VerifySignature(serverKey string) bool {
	if serverKey == "" {
		return true
	}
	sum := sha512.Sum512([]byte(n.OrderID + n.StatusCode + n.GrossAmount + serverKey))
	expected := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(expected), []byte(n.SignatureKey)) == 1
}
