package service_test

import (
	"testing"
	"time"

	"avalon/internal/models"
	"avalon/internal/service"

	"gorm.io/gorm"
)

func strPtr(s string) *string { return &s }

func TestApplyDiscountTruncates(t *testing.T) {
	discount, final := service.ApplyDiscount(15000, 10)
	if discount != 1500 {
		t.Errorf("discount = %d, want 1500", discount)
	}
	if final != 13500 {
		t.Errorf("final = %d, want 13500", final)
	}

	// 3% of 9999 is 299.97; integer math floors, never rounds.
	discount, final = service.ApplyDiscount(9999, 3)
	if discount != 299 {
		t.Errorf("discount = %d, want 299", discount)
	}
	if final != 9700 {
		t.Errorf("final = %d, want 9700", final)
	}
}

func TestEvaluateChain(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name     string
		voucher  models.Voucher
		gameID   string
		price    int
		valid    bool
		final    int
		contains string
	}{
		{
			name:    "global voucher applies",
			voucher: models.Voucher{Code: "SAVE10", DiscountPercent: 10, MaxUsage: 5},
			gameID:  "genshin",
			price:   20000,
			valid:   true,
			final:   18000,
		},
		{
			name:     "usage limit reached",
			voucher:  models.Voucher{Code: "FULL", DiscountPercent: 10, MaxUsage: 3, CurrentUsage: 3},
			gameID:   "genshin",
			price:    10000,
			valid:    false,
			final:    10000,
			contains: "usage limit",
		},
		{
			name:     "expired",
			voucher:  models.Voucher{Code: "OLD", DiscountPercent: 10, MaxUsage: 5, ExpiresAt: &past},
			gameID:   "genshin",
			price:    10000,
			valid:    false,
			final:    10000,
			contains: "expired",
		},
		{
			name:    "not yet expired",
			voucher: models.Voucher{Code: "FRESH", DiscountPercent: 25, MaxUsage: 5, ExpiresAt: &future},
			gameID:  "genshin",
			price:   10000,
			valid:   true,
			final:   7500,
		},
		{
			name:     "wrong game",
			voucher:  models.Voucher{Code: "GENSHIN10", DiscountPercent: 10, MaxUsage: 5, GameID: strPtr("genshin")},
			gameID:   "valorant",
			price:    10000,
			valid:    false,
			final:    10000,
			contains: "only valid",
		},
		{
			name:    "matching game restriction",
			voucher: models.Voucher{Code: "GENSHIN10", DiscountPercent: 10, MaxUsage: 5, GameID: strPtr("genshin")},
			gameID:  "genshin",
			price:   10000,
			valid:   true,
			final:   9000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eval := service.Evaluate(&tt.voucher, tt.gameID, tt.price, now)
			if eval.Valid != tt.valid {
				t.Fatalf("valid = %v, want %v (%s)", eval.Valid, tt.valid, eval.Message)
			}
			if eval.FinalPrice != tt.final {
				t.Errorf("final = %d, want %d", eval.FinalPrice, tt.final)
			}
			if tt.contains != "" && !containsFold(eval.Message, tt.contains) {
				t.Errorf("message %q does not mention %q", eval.Message, tt.contains)
			}
		})
	}
}

type memVouchers struct {
	byCode map[string]*models.Voucher
}

func (m *memVouchers) GetByCode(code string) (*models.Voucher, error) {
	v, ok := m.byCode[code]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *v
	return &cp, nil
}

func TestCheckUnknownCode(t *testing.T) {
	svc := service.NewVoucherService(&memVouchers{byCode: map[string]*models.Voucher{}})
	eval, err := svc.Check("NOPE", "genshin", 5000, time.Now())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if eval.Valid {
		t.Error("unknown code should be invalid")
	}
	if eval.FinalPrice != 5000 {
		t.Errorf("final = %d, want untouched 5000", eval.FinalPrice)
	}
}
