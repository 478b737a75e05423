package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"gamenight-backend/internal/models"
)

func GetEvent(tx *gorm.DB, id uuid.UUID) (*models.Event, error) {
	var ev models.Event
	if err := tx.First(&ev, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "event")
	}
	return &ev, nil
}

// LockEvent loads the event and holds a row lock on it until the surrounding
// transaction ends. Every mutation of an event or its memberships goes
// through this lock so concurrent writers on one event run one at a time.
func LockEvent(tx *gorm.DB, id uuid.UUID) (*models.Event, error) {
	var ev models.Event
	if err := forUpdate(tx).First(&ev, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "event")
	}
	return &ev, nil
}

func CreateEvent(tx *gorm.DB, ev *models.Event) error {
	if err := tx.Create(ev).Error; err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// BumpPlan writes the changed plan fields and increments plan_version by one
// relative to the stored value.
func BumpPlan(tx *gorm.DB, id uuid.UUID, fields map[string]any, now time.Time) error {
	values := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		values[k] = v
	}
	values["plan_version"] = gorm.Expr("plan_version + ?", 1)
	values["plan_updated_at"] = now
	res := tx.Model(&models.Event{}).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		return fmt.Errorf("update plan: %w", res.Error)
	}
	return nil
}

func SetEventStatus(tx *gorm.DB, id uuid.UUID, status models.EventStatus) error {
	if err := tx.Model(&models.Event{}).Where("id = ?", id).Update("status", status).Error; err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	return nil
}

// DeleteEvent removes the event together with its memberships and messages.
func DeleteEvent(tx *gorm.DB, id uuid.UUID) error {
	if err := tx.Where("event_id = ?", id).Delete(&models.EventMessage{}).Error; err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	if err := tx.Where("event_id = ?", id).Delete(&models.EventMembership{}).Error; err != nil {
		return fmt.Errorf("delete memberships: %w", err)
	}
	if err := tx.Delete(&models.Event{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

// EventFilter narrows event listings.
type EventFilter struct {
	IDs              []uuid.UUID
	ChannelID        *string
	Status           *models.EventStatus
	IncludeCancelled bool
	Limit            int
	Offset           int
}

func ListEvents(tx *gorm.DB, f EventFilter) ([]models.Event, error) {
	q := tx.Model(&models.Event{})
	if f.ChannelID != nil {
		q = q.Where("channel_id = ?", *f.ChannelID)
	} else {
		if len(f.IDs) == 0 {
			return []models.Event{}, nil
		}
		q = q.Where("id IN ?", f.IDs)
	}
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if !f.IncludeCancelled {
		q = q.Where("status <> ?", models.EventStatusCancelled)
	}
	var out []models.Event
	if err := q.Order("created_at DESC").Order("id").Limit(f.Limit).Offset(f.Offset).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return out, nil
}

// PersonalEventIDs keeps the ids of events that are not owned by a channel.
func PersonalEventIDs(tx *gorm.DB, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []uuid.UUID
	err := tx.Model(&models.Event{}).Where("id IN ? AND channel_id IS NULL", ids).Pluck("id", &out).Error
	if err != nil {
		return nil, fmt.Errorf("personal events: %w", err)
	}
	return out, nil
}
