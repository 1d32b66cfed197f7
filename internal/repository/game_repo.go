package repository

import (
	"avalon/internal/models"

	"gorm.io/gorm"
)

type GameRepository struct {
	db *gorm.DB
}

func NewGameRepository(db *gorm.DB) *GameRepository {
	return &GameRepository{db: db}
}

func (r *GameRepository) GetByID(id string) (*models.Game, error) {
	var g models.Game
	if err := r.db.Preload("Items").First(&g, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *GameRepository) ListAll() ([]models.Game, error) {
	var list []models.Game
	err := r.db.Preload("Items").Order("name").Find(&list).Error
	return list, err
}

func (r *GameRepository) GetItem(id uint) (*models.GameItem, error) {
	var item models.GameItem
	if err := r.db.First(&item, id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// FindItemByName matches a denomination by display label. Kept as a
// fallback for orders written before ItemID existed; new orders resolve
// their SKU through GetItem.
func (r *GameRepository) FindItemByName(gameID, name string) (*models.GameItem, error) {
	var item models.GameItem
	if err := r.db.Where("game_id = ? AND name = ?", gameID, name).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}
