package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"avalon/internal/handler"
	"avalon/internal/models"
	"avalon/internal/repository"
	"avalon/internal/service"
	"avalon/pkg/gateway"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type memTxStore struct {
	mu             sync.Mutex
	orders         map[string]*models.Transaction
	voucher        *models.Voucher
	forceExhausted bool
}

func newMemTxStore(voucher *models.Voucher) *memTxStore {
	return &memTxStore{orders: make(map[string]*models.Transaction), voucher: voucher}
}

func (m *memTxStore) Create(t *models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[t.ID] = t
	return nil
}

// CreateWithVoucher mirrors the repository's conditional increment: the
// redemption and the order land together or not at all.
func (m *memTxStore) CreateWithVoucher(t *models.Transaction, voucherID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.forceExhausted || m.voucher == nil || m.voucher.ID != voucherID ||
		m.voucher.CurrentUsage >= m.voucher.MaxUsage {
		return repository.ErrVoucherExhausted
	}
	m.voucher.CurrentUsage++
	m.orders[t.ID] = t
	return nil
}

func (m *memTxStore) GetByID(id string) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return t, nil
}

func (m *memTxStore) ListByUser(userID string) ([]models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []models.Transaction
	for _, t := range m.orders {
		if t.UserID == userID {
			list = append(list, *t)
		}
	}
	return list, nil
}

func (m *memTxStore) ListAll() ([]models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []models.Transaction
	for _, t := range m.orders {
		list = append(list, *t)
	}
	return list, nil
}

func (m *memTxStore) GetStats() (*repository.Stats, error) { return &repository.Stats{}, nil }

func (m *memTxStore) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.orders, id)
	return nil
}

func (m *memTxStore) usage() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.voucher.CurrentUsage
}

type stubVouchers struct {
	byCode map[string]*models.Voucher
}

func (s *stubVouchers) GetByCode(code string) (*models.Voucher, error) {
	v, ok := s.byCode[strings.ToUpper(code)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return v, nil
}

type fakeGateway struct {
	err error
}

func (g *fakeGateway) CreateSession(ctx context.Context, req gateway.SessionRequest) (*gateway.Session, error) {
	if g.err != nil {
		return nil, g.err
	}
	return &gateway.Session{Token: "snap-token", RedirectURL: "https://pay.example/" + req.OrderID}, nil
}

func (g *fakeGateway) QueryStatus(ctx context.Context, orderID string) (gateway.Status, error) {
	return gateway.StatusPending, nil
}

type recordingWatcher struct {
	mu  sync.Mutex
	ids []string
}

func (w *recordingWatcher) Watch(ctx context.Context, orderID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ids = append(w.ids, orderID)
}

func (w *recordingWatcher) watched() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.ids)
}

type errCatalog struct {
	err error
}

func (c *errCatalog) GetByID(id string) (*models.Game, error) { return nil, c.err }
func (c *errCatalog) FindItemByName(gameID, name string) (*models.GameItem, error) {
	return nil, c.err
}

type createdOrder struct {
	ID          string `json:"id"`
	Price       int    `json:"price"`
	Discount    int    `json:"discount"`
	VoucherCode string `json:"voucherCode"`
	Status      string `json:"status"`
	Payment     struct {
		Token string `json:"token"`
	} `json:"payment"`
}

func newOrderRouter(store *memTxStore, vouchers *stubVouchers, watcher *recordingWatcher) *gin.Engine {
	catalog := &memCatalog{
		game: &models.Game{ID: "mlbb", Name: "Mobile Legends", Brand: "mobilelegend"},
		item: &models.GameItem{ID: 1, GameID: "mlbb", Name: "86 Diamonds", Code: "MLBB86"},
	}
	h := handler.NewTransactionHandler(store, catalog,
		service.NewVoucherService(vouchers), &fakeGateway{}, watcher,
		service.NewAuditLogger(nullSink{}), context.Background())
	r := gin.New()
	r.POST("/api/transactions", h.Create)
	return r
}

func postOrder(t *testing.T, r *gin.Engine, body string) (*httptest.ResponseRecorder, *createdOrder) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/transactions", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var order createdOrder
	if w.Code == http.StatusCreated {
		if err := json.Unmarshal(w.Body.Bytes(), &order); err != nil {
			t.Fatalf("unmarshal response: %v", err)
		}
	}
	return w, &order
}

func TestCreateAppliesVoucher(t *testing.T) {
	v := &models.Voucher{ID: 1, Code: "SAVE10", DiscountPercent: 10, MaxUsage: 5}
	store := newMemTxStore(v)
	watcher := &recordingWatcher{}
	r := newOrderRouter(store, &stubVouchers{byCode: map[string]*models.Voucher{"SAVE10": v}}, watcher)

	w, order := postOrder(t, r, `{"gameId":"mlbb","userId":"u1","item":"86 Diamonds","price":20000,"voucherCode":"SAVE10"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}
	if order.Price != 18000 || order.Discount != 2000 || order.VoucherCode != "SAVE10" {
		t.Errorf("order = %+v, want price 18000 / discount 2000 / code SAVE10", order)
	}
	if store.usage() != 1 {
		t.Errorf("voucher usage = %d, want 1", store.usage())
	}
	stored, err := store.GetByID(order.ID)
	if err != nil {
		t.Fatalf("order not persisted: %v", err)
	}
	if stored.Price != 18000 {
		t.Errorf("persisted price = %d, want 18000", stored.Price)
	}
	if order.Payment.Token != "snap-token" {
		t.Errorf("payment token = %q", order.Payment.Token)
	}
	if watcher.watched() != 1 {
		t.Errorf("watched orders = %d, want 1", watcher.watched())
	}
}

func TestCreateVoucherBoundaryRedemption(t *testing.T) {
	v := &models.Voucher{ID: 1, Code: "LAST", DiscountPercent: 10, MaxUsage: 5, CurrentUsage: 4}
	store := newMemTxStore(v)
	r := newOrderRouter(store, &stubVouchers{byCode: map[string]*models.Voucher{"LAST": v}}, &recordingWatcher{})

	body := `{"gameId":"mlbb","userId":"u1","item":"86 Diamonds","price":10000,"voucherCode":"LAST"}`

	// The final slot redeems normally.
	w, order := postOrder(t, r, body)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}
	if order.Price != 9000 || store.usage() != 5 {
		t.Errorf("price = %d, usage = %d; want 9000 and 5", order.Price, store.usage())
	}

	// Past the limit the code no longer applies and usage stays bounded.
	w, order = postOrder(t, r, body)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}
	if order.Price != 10000 || order.VoucherCode != "" {
		t.Errorf("order = %+v, want full price without code", order)
	}
	if store.usage() != 5 {
		t.Errorf("voucher usage = %d, must never exceed max 5", store.usage())
	}
}

func TestCreateExhaustedVoucherFallsBack(t *testing.T) {
	v := &models.Voucher{ID: 1, Code: "SAVE10", DiscountPercent: 10, MaxUsage: 5}
	store := newMemTxStore(v)
	// The pre-check passes but another redemption takes the last slot
	// before the order transaction commits.
	store.forceExhausted = true
	r := newOrderRouter(store, &stubVouchers{byCode: map[string]*models.Voucher{"SAVE10": v}}, &recordingWatcher{})

	w, order := postOrder(t, r, `{"gameId":"mlbb","userId":"u1","item":"86 Diamonds","price":20000,"voucherCode":"SAVE10"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}
	if order.Price != 20000 || order.Discount != 0 || order.VoucherCode != "" {
		t.Errorf("order = %+v, want full price with no voucher", order)
	}
	if store.usage() != 0 {
		t.Errorf("voucher usage = %d, want 0 when the redemption lost", store.usage())
	}
}

func TestCreateWrongGameVoucherFullPrice(t *testing.T) {
	genshin := "genshin"
	v := &models.Voucher{ID: 1, Code: "GENSHIN10", DiscountPercent: 10, MaxUsage: 5, GameID: &genshin}
	store := newMemTxStore(v)
	r := newOrderRouter(store, &stubVouchers{byCode: map[string]*models.Voucher{"GENSHIN10": v}}, &recordingWatcher{})

	w, order := postOrder(t, r, `{"gameId":"mlbb","userId":"u1","item":"86 Diamonds","price":10000,"voucherCode":"GENSHIN10"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}
	if order.Price != 10000 || order.VoucherCode != "" {
		t.Errorf("order = %+v, want full price", order)
	}
	if store.usage() != 0 {
		t.Errorf("voucher usage = %d, want 0", store.usage())
	}
}

func TestCreateUnknownGame(t *testing.T) {
	store := newMemTxStore(nil)
	r := newOrderRouter(store, &stubVouchers{byCode: map[string]*models.Voucher{}}, &recordingWatcher{})

	w, _ := postOrder(t, r, `{"gameId":"nope","userId":"u1","item":"86 Diamonds","price":10000}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestCreateGameLookupFailure(t *testing.T) {
	h := handler.NewTransactionHandler(newMemTxStore(nil), &errCatalog{err: errors.New("connection refused")},
		nil, &fakeGateway{}, &recordingWatcher{}, service.NewAuditLogger(nullSink{}), context.Background())
	r := gin.New()
	r.POST("/api/transactions", h.Create)

	w, _ := postOrder(t, r, `{"gameId":"mlbb","userId":"u1","item":"86 Diamonds","price":10000}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500 for storage failure", w.Code)
	}
}

// Validation runs before any dependency is touched, so nil collaborators
// are fine for these cases.
func newCreateRouter() *gin.Engine {
	h := handler.NewTransactionHandler(nil, nil, nil, nil, nil, nil, context.Background())
	r := gin.New()
	r.POST("/api/transactions", h.Create)
	return r
}

func TestCreateRejectsMissingFields(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing gameId", `{"userId":"u1","item":"86 Diamonds","price":15000}`},
		{"missing userId", `{"gameId":"mlbb","item":"86 Diamonds","price":15000}`},
		{"empty body", `{}`},
	}
	r := newCreateRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/transactions", bytes.NewReader([]byte(tt.body)))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
			if !strings.Contains(w.Body.String(), "gameId and userId are required") {
				t.Errorf("body = %s, want required-fields message", w.Body.String())
			}
		})
	}
}

func TestCreateRejectsMalformedBody(t *testing.T) {
	r := newCreateRouter()
	req := httptest.NewRequest(http.MethodPost, "/api/transactions", bytes.NewReader([]byte(`{"gameId":`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}
