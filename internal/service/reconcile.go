package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"avalon/internal/domain"
	"avalon/internal/models"
	"avalon/pkg/gateway"
	"avalon/pkg/provider"

	"gorm.io/gorm"
)

// ErrOrderNotFound is returned when a payment status refers to an unknown
// order reference.
var ErrOrderNotFound = errors.New("order not found")

// Source identifies which trigger observed the payment status.
type Source string

const (
	SourceWebhook Source = "WEBHOOK"
	SourcePoller  Source = "POLLER"
)

type OrderStore interface {
	GetByID(id string) (*models.Transaction, error)
	CompareAndSwapStatus(id, from, to string, updates map[string]interface{}) (bool, error)
}

type Catalog interface {
	GetByID(id string) (*models.Game, error)
	GetItem(id uint) (*models.GameItem, error)
	FindItemByName(gameID, name string) (*models.GameItem, error)
}

// StatusNotifier pushes transitions to connected clients. Implementations
// must not block.
type StatusNotifier interface {
	BroadcastStatus(orderID, status string)
}

// Reconciler owns the order state machine:
//
//	Pending -> Processing -> Success | Failed
//
// Both the webhook handler and the poller feed observations through Apply;
// the conditional Pending->Processing update in the store is the only gate
// into fulfillment, so the provider is called at most once per order no
// matter how many times a paid status is observed.
type Reconciler struct {
	orders    OrderStore
	catalog   Catalog
	fulfiller provider.Client
	audit     *AuditLogger
	notifier  StatusNotifier
}

func NewReconciler(orders OrderStore, catalog Catalog, fulfiller provider.Client, audit *AuditLogger, notifier StatusNotifier) *Reconciler {
	return &Reconciler{orders: orders, catalog: catalog, fulfiller: fulfiller, audit: audit, notifier: notifier}
}

// Apply advances the order identified by orderID according to one observed
// payment status. Duplicate and late observations are absorbed silently;
// only storage failures and unknown orders surface as errors.
func (r *Reconciler) Apply(ctx context.Context, orderID string, status gateway.Status, source Source) error {
	t, err := r.orders.GetByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		return err
	}
	if t.Terminal() {
		return nil
	}

	switch status {
	case gateway.StatusPaid:
		return r.onPaid(ctx, t, source)
	case gateway.StatusFailed:
		return r.onPaymentFailed(t)
	default:
		// PENDING and CHALLENGE are not actionable yet.
		return nil
	}
}

func (r *Reconciler) onPaid(ctx context.Context, t *models.Transaction, source Source) error {
	won, err := r.orders.CompareAndSwapStatus(t.ID, domain.StatusPending, domain.StatusProcessing, nil)
	if err != nil {
		return err
	}
	if !won {
		// The other trigger moved the order first; nothing left to do.
		return nil
	}
	log.Printf("[reconcile] payment received for %s via %s", t.ID, strings.ToLower(string(source)))
	r.audit.Record("", "system", paymentReceivedAction(source), "order "+t.ID, "")
	r.broadcast(t.ID, domain.StatusProcessing)

	result, err := r.fulfill(ctx, t)
	if err != nil {
		reason := err.Error()
		if errors.Is(err, provider.ErrNotConfigured) {
			log.Printf("[reconcile] %s not fulfillable, catalog fix required: %v", t.ID, err)
		} else {
			log.Printf("[reconcile] provider failed for %s: %v", t.ID, err)
		}
		if _, casErr := r.orders.CompareAndSwapStatus(t.ID, domain.StatusProcessing, domain.StatusFailed,
			map[string]interface{}{"fail_reason": reason}); casErr != nil {
			return casErr
		}
		r.audit.Record("", "system", domain.ActionTransactionFailed,
			map[string]string{"order": t.ID, "reason": reason}, "")
		r.broadcast(t.ID, domain.StatusFailed)
		return nil
	}

	if _, err := r.orders.CompareAndSwapStatus(t.ID, domain.StatusProcessing, domain.StatusSuccess,
		map[string]interface{}{"provider_ref": result.SN}); err != nil {
		return err
	}
	log.Printf("[reconcile] %s delivered, sn=%s", t.ID, result.SN)
	r.audit.Record("", "system", domain.ActionTransactionSuccess,
		map[string]string{"order": t.ID, "sn": result.SN}, "")
	r.broadcast(t.ID, domain.StatusSuccess)
	return nil
}

func (r *Reconciler) onPaymentFailed(t *models.Transaction) error {
	won, err := r.orders.CompareAndSwapStatus(t.ID, domain.StatusPending, domain.StatusFailed,
		map[string]interface{}{"fail_reason": "payment cancelled or expired"})
	if err != nil {
		return err
	}
	if !won {
		return nil
	}
	log.Printf("[reconcile] payment failed for %s, no delivery attempted", t.ID)
	r.audit.Record("", "system", domain.ActionTransactionFailed,
		map[string]string{"order": t.ID, "reason": "payment cancelled or expired"}, "")
	r.broadcast(t.ID, domain.StatusFailed)
	return nil
}

// fulfill resolves the provider mapping for the order and submits it. A
// missing brand or SKU is a configuration problem and fails without
// touching the provider.
func (r *Reconciler) fulfill(ctx context.Context, t *models.Transaction) (*provider.DeliverResult, error) {
	game, err := r.catalog.GetByID(t.GameID)
	if err != nil || game.Brand == "" {
		return nil, fmt.Errorf("%w: no brand code for game %s", provider.ErrNotConfigured, t.GameID)
	}

	var item *models.GameItem
	if t.ItemID != 0 {
		item, err = r.catalog.GetItem(t.ItemID)
	} else {
		item, err = r.catalog.FindItemByName(t.GameID, t.Item)
	}
	if err != nil || item.Code == "" {
		return nil, fmt.Errorf("%w: no provider SKU for item %q", provider.ErrNotConfigured, t.Item)
	}

	ref := t.UserGameID
	if ref == "" {
		ref = t.UserID
	}
	accountID, serverID := provider.ParseAccountRef(ref)

	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	return r.fulfiller.Deliver(ctx, provider.DeliverRequest{
		RefID:       t.ID,
		ProductCode: item.Code,
		AccountID:   accountID,
		ServerID:    serverID,
	})
}

func (r *Reconciler) broadcast(orderID, status string) {
	if r.notifier != nil {
		r.notifier.BroadcastStatus(orderID, status)
	}
}

func paymentReceivedAction(source Source) string {
	if source == SourcePoller {
		return domain.ActionPaymentReceivedPoller
	}
	return domain.ActionPaymentReceivedWebhook
}
