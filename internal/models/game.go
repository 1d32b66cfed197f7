package models

import "time"

// Game is a catalog entry. Brand is the provider-side game code used when
// submitting a top-up; without it the game cannot be fulfilled.
type Game struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Category    string    `gorm:"size:64" json:"category"`
	Image       string    `gorm:"type:text" json:"image"`
	Brand       string    `gorm:"size:64" json:"brand"`
	IsHot       bool      `gorm:"default:false" json:"isHot"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	Items []GameItem `gorm:"foreignKey:GameID" json:"items,omitempty"`
}

func (Game) TableName() string {
	return "games"
}

// GameItem is a purchasable denomination. Code is the provider SKU.
type GameItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	GameID    string    `gorm:"size:64;not null;index" json:"gameId"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Price     int       `gorm:"not null" json:"price"`
	Code      string    `gorm:"size:64;not null" json:"code"`
	Bonus     string    `gorm:"size:64" json:"bonus"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (GameItem) TableName() string {
	return "game_items"
}
