package service

import (
	"errors"
	"fmt"
	"time"

	"avalon/internal/models"

	"gorm.io/gorm"
)

type VoucherStore interface {
	GetByCode(code string) (*models.Voucher, error)
}

// Evaluation is the outcome of checking a voucher against an order. When
// Valid is false, Message carries the first failed rule; FinalPrice equals
// the base price untouched.
type Evaluation struct {
	Valid      bool
	Voucher    *models.Voucher
	Message    string
	Discount   int
	FinalPrice int
}

// ApplyDiscount computes the percent discount with integer truncation, not
// rounding: floor(price * percent / 100).
func ApplyDiscount(price, percent int) (discount, finalPrice int) {
	discount = price * percent / 100
	return discount, price - discount
}

// Evaluate runs the validation chain over an already-loaded voucher. Rules
// short-circuit in order: usage limit, expiry, game restriction.
func Evaluate(v *models.Voucher, gameID string, price int, now time.Time) *Evaluation {
	if v.CurrentUsage >= v.MaxUsage {
		return &Evaluation{Message: "Voucher usage limit reached.", FinalPrice: price}
	}
	if v.ExpiresAt != nil && now.After(*v.ExpiresAt) {
		return &Evaluation{Message: "Voucher expired.", FinalPrice: price}
	}
	if v.GameID != nil && *v.GameID != gameID {
		return &Evaluation{Message: fmt.Sprintf("Voucher only valid for game %s.", *v.GameID), FinalPrice: price}
	}
	discount, final := ApplyDiscount(price, v.DiscountPercent)
	return &Evaluation{
		Valid:      true,
		Voucher:    v,
		Message:    "Voucher Applied!",
		Discount:   discount,
		FinalPrice: final,
	}
}

type VoucherService struct {
	vouchers VoucherStore
}

func NewVoucherService(vouchers VoucherStore) *VoucherService {
	return &VoucherService{vouchers: vouchers}
}

// Check looks the code up (case-insensitively) and evaluates it. A missing
// voucher is an invalid evaluation, not an error; errors are storage
// failures only.
func (s *VoucherService) Check(code, gameID string, price int, now time.Time) (*Evaluation, error) {
	v, err := s.vouchers.GetByCode(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &Evaluation{Message: "Voucher not found.", FinalPrice: price}, nil
		}
		return nil, err
	}
	return Evaluate(v, gameID, price, now), nil
}
