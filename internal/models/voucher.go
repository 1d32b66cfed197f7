package models

import "time"

// Voucher is a percent-off discount code. GameID empty means the code is
// valid for every game. CurrentUsage only ever increases.
type Voucher struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Code            string     `gorm:"uniqueIndex;size:64;not null" json:"code"`
	GameID          *string    `gorm:"size:64;index" json:"gameId"`
	DiscountPercent int        `gorm:"not null;default:0" json:"discountPercent"`
	MaxUsage        int        `gorm:"not null;default:100" json:"maxUsage"`
	CurrentUsage    int        `gorm:"not null;default:0" json:"currentUsage"`
	ExpiresAt       *time.Time `json:"expiresAt"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func (Voucher) TableName() string {
	return "vouchers"
}
