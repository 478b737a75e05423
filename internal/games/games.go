// Package games is the catalogue of games events can be planned around.
package games

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"gamenight-backend/internal/apperr"
	"gamenight-backend/internal/models"
	"gamenight-backend/internal/store"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

type Service struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Service {
	return &Service{db: db}
}

type CreateInput struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
	PlayerCount *int    `json:"player_count"`
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Game, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation("game name is required")
	}
	if in.PlayerCount != nil && *in.PlayerCount < 1 {
		return nil, apperr.Validation("player count must be positive")
	}
	g := &models.Game{Name: name, Description: in.Description, PlayerCount: in.PlayerCount}
	if err := store.CreateGame(s.db.WithContext(ctx), g); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	return store.GetGame(s.db.WithContext(ctx), id)
}

// List returns games whose name contains q, by name.
func (s *Service) List(ctx context.Context, q string, limit, offset int) ([]models.Game, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	out, err := store.ListGames(s.db.WithContext(ctx), q, min(limit, maxLimit), max(offset, 0))
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Game{}
	}
	return out, nil
}
