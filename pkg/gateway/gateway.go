package gateway

import (
	"context"
	"errors"
)

// Status is the normalized payment state as seen by callers. CHALLENGE is
// treated like PENDING everywhere: the money is not actionable yet.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusChallenge Status = "CHALLENGE"
	StatusFailed    Status = "FAILED"
)

// ErrGateway marks upstream gateway failures during session creation.
var ErrGateway = errors.New("payment gateway error")

// Session is a hosted-checkout handle returned at order creation.
type Session struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirectUrl"`
}

type SessionRequest struct {
	OrderID   string
	Amount    int
	ItemName  string
	UserID    string
	UserEmail string
}

// Gateway creates checkout sessions and reports payment status. It never
// mutates order state; transitions belong to the reconciliation engine.
type Gateway interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
	QueryStatus(ctx context.Context, orderID string) (Status, error)
}

// MapStatus normalizes the gateway's transaction/fraud status pair. Unknown
// or missing values map to PENDING; this function never fails.
func MapStatus(transactionStatus, fraudStatus string) Status {
	switch transactionStatus {
	case "capture":
		switch fraudStatus {
		case "challenge":
			return StatusChallenge
		case "accept":
			return StatusPaid
		}
		return StatusPending
	case "settlement":
		return StatusPaid
	case "cancel", "deny", "expire":
		return StatusFailed
	case "pending":
		return StatusPending
	}
	return StatusPending
}
