package models

import (
	"time"

	"avalon/internal/domain"
)

// Transaction is a single top-up order. Its ID doubles as the idempotency
// and correlation key shared with the payment gateway and the provider.
type Transaction struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	GameID      string    `gorm:"size:64;not null;index" json:"gameId"`
	GameName    string    `gorm:"size:255" json:"gameName"`
	ItemID      uint      `gorm:"index" json:"itemId"`
	Item        string    `gorm:"size:255" json:"item"`
	Amount      string    `gorm:"size:64" json:"amount"`
	Price       int       `gorm:"not null" json:"price"`
	Discount    int       `gorm:"default:0" json:"discount"`
	VoucherCode string    `gorm:"size:64" json:"voucherCode,omitempty"`
	Status      string    `gorm:"size:20;not null;index;default:'Pending'" json:"status"`
	UserID      string    `gorm:"size:64;not null;index" json:"userId"`
	UserGameID  string    `gorm:"size:128" json:"userGameId"`
	ProviderRef string    `gorm:"size:128" json:"providerRef,omitempty"`
	FailReason  string    `gorm:"size:512" json:"failReason,omitempty"`
	Timestamp   time.Time `gorm:"autoCreateTime" json:"timestamp"`
	UpdatedAt   time.Time `json:"updatedAt"`

	Game *Game `gorm:"foreignKey:GameID;references:ID" json:"-"`
}

func (Transaction) TableName() string {
	return "transactions"
}

func (t *Transaction) Terminal() bool {
	return domain.IsTerminal(t.Status)
}
