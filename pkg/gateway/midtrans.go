package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

const (
	snapSandboxURL = "https://app.sandbox.midtrans.com/snap/v1"
	snapProdURL    = "https://app.midtrans.com/snap/v1"
	coreSandboxURL = "https://api.sandbox.midtrans.com/v2"
	coreProdURL    = "https://api.midtrans.com/v2"
)

// MidtransGateway talks to the Midtrans Snap API (session creation) and the
// Core API (status lookup). Authentication is HTTP basic with the server key
// as username and an empty password.
type MidtransGateway struct {
	serverKey string
	snapBase  string
	coreBase  string
	client    *http.Client
}

func NewMidtransGateway(serverKey string, isProduction bool, timeout time.Duration) *MidtransGateway {
	snapBase, coreBase := snapSandboxURL, coreSandboxURL
	if isProduction {
		snapBase, coreBase = snapProdURL, coreProdURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &MidtransGateway{
		serverKey: serverKey,
		snapBase:  snapBase,
		coreBase:  coreBase,
		client:    &http.Client{Timeout: timeout},
	}
}

type snapItem struct {
	ID       string `json:"id"`
	Price    int    `json:"price"`
	Quantity int    `json:"quantity"`
	Name     string `json:"name"`
}

type snapRequest struct {
	TransactionDetails struct {
		OrderID     string `json:"order_id"`
		GrossAmount int    `json:"gross_amount"`
	} `json:"transaction_details"`
	CreditCard struct {
		Secure bool `json:"secure"`
	} `json:"credit_card"`
	CustomerDetails struct {
		FirstName string `json:"first_name"`
		Email     string `json:"email"`
	} `json:"customer_details"`
	ItemDetails []snapItem `json:"item_details"`
}

type snapResponse struct {
	Token         string   `json:"token"`
	RedirectURL   string   `json:"redirect_url"`
	ErrorMessages []string `json:"error_messages"`
}

func (g *MidtransGateway) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	var payload snapRequest
	payload.TransactionDetails.OrderID = req.OrderID
	payload.TransactionDetails.GrossAmount = req.Amount
	payload.CreditCard.Secure = true
	payload.CustomerDetails.FirstName = req.UserID
	payload.CustomerDetails.Email = req.UserEmail
	payload.ItemDetails = []snapItem{{
		ID:       req.OrderID,
		Price:    req.Amount,
		Quantity: 1,
		Name:     req.ItemName,
	}}

	body, _ := json.Marshal(payload)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.snapBase+"/transactions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	g.setHeaders(httpReq)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		log.Printf("[midtrans] snap create %s failed: status=%d body=%s", req.OrderID, resp.StatusCode, respBody)
		return nil, fmt.Errorf("%w: snap returned %d", ErrGateway, resp.StatusCode)
	}
	var out snapResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	if out.Token == "" {
		return nil, fmt.Errorf("%w: empty token", ErrGateway)
	}
	log.Printf("[midtrans] snap token created for %s", req.OrderID)
	return &Session{Token: out.Token, RedirectURL: out.RedirectURL}, nil
}

type statusResponse struct {
	StatusCode        string `json:"status_code"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
}

// QueryStatus looks up the current payment status for an order. A 404 from
// the Core API means the order has not reached the gateway yet and maps to
// PENDING rather than an error.
func (g *MidtransGateway) QueryStatus(ctx context.Context, orderID string) (Status, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, g.coreBase+"/"+orderID+"/status", nil)
	if err != nil {
		return StatusPending, err
	}
	g.setHeaders(httpReq)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return StatusPending, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return StatusPending, nil
	}
	if resp.StatusCode != http.StatusOK {
		return StatusPending, fmt.Errorf("status lookup returned %d", resp.StatusCode)
	}
	var out statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return StatusPending, err
	}
	if out.StatusCode == "404" {
		return StatusPending, nil
	}
	return MapStatus(out.TransactionStatus, out.FraudStatus), nil
}

func (g *MidtransGateway) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	auth := base64.StdEncoding.EncodeToString([]byte(g.serverKey + ":"))
	req.Header.Set("Authorization", "Basic "+auth)
}
