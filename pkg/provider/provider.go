// Package provider submits paid top-up orders to the game-credit API.
//
// A delivery call is NOT idempotent upstream: submitting the same order
// twice can credit the player twice. Callers must guarantee at most one
// Deliver per order; the request signature is deterministic per
// (merchant, secret, order) so a network retry of the same attempt is safe.
package provider

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNotConfigured marks missing catalog/provider configuration (absent
// brand code or item SKU, missing credentials). It is permanent: retrying
// cannot succeed until an admin fixes the catalog.
var ErrNotConfigured = errors.New("provider not configured")

// Error is an upstream rejection with the provider's message attached.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return "provider: " + e.Message
}

// DeliverRequest identifies what to credit and to whom. RefID is the order
// id; ProductCode is the provider SKU.
type DeliverRequest struct {
	RefID       string
	ProductCode string
	AccountID   string
	ServerID    string
}

// DeliverResult carries the provider transaction reference on success.
type DeliverResult struct {
	SN string
}

// Client is the fulfillment API surface the reconciliation engine depends on.
type Client interface {
	Deliver(ctx context.Context, req DeliverRequest) (*DeliverResult, error)
	CheckUsername(ctx context.Context, brand, accountID, zoneID string) (string, error)
}

// HTTPClient talks to the apigames-compatible REST API with md5-signed GET
// requests.
type HTTPClient struct {
	merchantID string
	secretKey  string
	baseURL    string
	client     *http.Client
}

func NewHTTPClient(merchantID, secretKey, baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		merchantID: merchantID,
		secretKey:  secretKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		client:     &http.Client{Timeout: timeout},
	}
}

// ParseAccountRef splits a composite "accountId(serverId)" reference and
// strips everything but digits from both parts. Without a parenthesis the
// whole value is the account id.
func ParseAccountRef(ref string) (accountID, serverID string) {
	accountID = ref
	if i := strings.Index(ref, "("); i >= 0 {
		accountID = ref[:i]
		serverID = strings.TrimSuffix(strings.TrimSpace(ref[i+1:]), ")")
	}
	return digitsOnly(accountID), digitsOnly(serverID)
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// deliverSignature is md5(merchantID:secretKey:refID), per the upstream
// transaction contract.
func (c *HTTPClient) deliverSignature(refID string) string {
	sum := md5.Sum([]byte(c.merchantID + ":" + c.secretKey + ":" + refID))
	return hex.EncodeToString(sum[:])
}

type deliverResponse struct {
	Status  json.RawMessage `json:"status"`
	Message string          `json:"message"`
	Data    struct {
		SN string `json:"sn"`
	} `json:"data"`
}

// ok reports whether the upstream status field signals success; the API
// returns either numeric 1 or the string "Sukses".
func (r *deliverResponse) ok() bool {
	s := strings.Trim(string(r.Status), `"`)
	return s == "1" || s == "Sukses"
}

func (c *HTTPClient) Deliver(ctx context.Context, req DeliverRequest) (*DeliverResult, error) {
	if c.merchantID == "" || c.secretKey == "" {
		return nil, fmt.Errorf("%w: missing merchant credentials", ErrNotConfigured)
	}

	params := url.Values{}
	params.Set("ref_id", req.RefID)
	params.Set("merchant_id", c.merchantID)
	params.Set("produk", req.ProductCode)
	params.Set("tujuan", req.AccountID)
	params.Set("signature", c.deliverSignature(req.RefID))
	if req.ServerID != "" {
		params.Set("server_id", req.ServerID)
	}

	endpoint := c.baseURL + "/v2/transaksi?" + params.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	log.Printf("[provider] deliver ref=%s produk=%s tujuan=%s server=%s", req.RefID, req.ProductCode, req.AccountID, req.ServerID)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, &Error{Message: err.Error()}
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	var out deliverResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &Error{Message: fmt.Sprintf("unreadable response (%d)", resp.StatusCode)}
	}
	if !out.ok() {
		msg := out.Message
		if msg == "" {
			msg = fmt.Sprintf("provider returned status %s", strings.Trim(string(out.Status), `"`))
		}
		log.Printf("[provider] deliver ref=%s rejected: %s", req.RefID, msg)
		return nil, &Error{Message: msg}
	}
	log.Printf("[provider] deliver ref=%s ok sn=%s", req.RefID, out.Data.SN)
	return &DeliverResult{SN: out.Data.SN}, nil
}

type checkUsernameResponse struct {
	Status json.RawMessage `json:"status"`
	Data   struct {
		Username string `json:"username"`
		Name     string `json:"name"`
	} `json:"data"`
}

// CheckUsername resolves the in-game display name for an account before
// checkout. The lookup signature is md5(merchantID + secretKey), distinct
// from the transaction signature.
func (c *HTTPClient) CheckUsername(ctx context.Context, brand, accountID, zoneID string) (string, error) {
	if c.merchantID == "" || c.secretKey == "" {
		return "", fmt.Errorf("%w: missing merchant credentials", ErrNotConfigured)
	}
	sum := md5.Sum([]byte(c.merchantID + c.secretKey))

	userID := accountID
	if zoneID != "" {
		userID = accountID + zoneID
	}
	params := url.Values{}
	params.Set("user_id", userID)
	params.Set("signature", hex.EncodeToString(sum[:]))

	endpoint := fmt.Sprintf("%s/merchant/%s/cek-username/%s?%s", c.baseURL, c.merchantID, brand, params.Encode())
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out checkUsernameResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if strings.Trim(string(out.Status), `"`) != "1" {
		return "", nil
	}
	if out.Data.Username != "" {
		return out.Data.Username, nil
	}
	return out.Data.Name, nil
}
