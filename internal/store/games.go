package store

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"gamenight-backend/internal/models"
)

func GetGame(tx *gorm.DB, id uuid.UUID) (*models.Game, error) {
	var g models.Game
	if err := tx.First(&g, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "game")
	}
	return &g, nil
}

func CreateGame(tx *gorm.DB, g *models.Game) error {
	if err := tx.Create(g).Error; err != nil {
		return fmt.Errorf("create game: %w", err)
	}
	return nil
}

// ListGames lists games whose name contains q, case-insensitively.
func ListGames(tx *gorm.DB, q string, limit, offset int) ([]models.Game, error) {
	query := tx.Model(&models.Game{})
	if q = strings.TrimSpace(q); q != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(q)+"%")
	}
	var out []models.Game
	if err := query.Order("name").Limit(limit).Offset(offset).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	return out, nil
}
