package store

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"gamenight-backend/internal/models"
)

func AppendMessage(tx *gorm.DB, m *models.EventMessage) error {
	if err := tx.Create(m).Error; err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

// ListMessages returns up to limit messages newest first. With before set,
// only messages older than that id are returned; ids are time ordered.
func ListMessages(tx *gorm.DB, eventID uuid.UUID, before *uuid.UUID, limit int) ([]models.EventMessage, error) {
	q := tx.Where("event_id = ?", eventID)
	if before != nil {
		q = q.Where("id < ?", *before)
	}
	var out []models.EventMessage
	if err := q.Order("id DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return out, nil
}
