package store

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"gamenight-backend/internal/models"
)

// FindMembership returns the member's row for the event, or nil when there
// is none.
func FindMembership(tx *gorm.DB, eventID uuid.UUID, memberKey string) (*models.EventMembership, error) {
	var m models.EventMembership
	err := tx.Where("event_id = ? AND member_key = ?", eventID, memberKey).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load membership: %w", err)
	}
	return &m, nil
}

func CreateMembership(tx *gorm.DB, m *models.EventMembership) error {
	if err := tx.Create(m).Error; err != nil {
		return fmt.Errorf("create membership: %w", err)
	}
	return nil
}

// UpdateMembership writes the given columns and reloads the row into m.
func UpdateMembership(tx *gorm.DB, m *models.EventMembership, values map[string]any) error {
	err := tx.Model(&models.EventMembership{}).
		Where("event_id = ? AND member_key = ?", m.EventID, m.MemberKey).
		Updates(values).Error
	if err != nil {
		return fmt.Errorf("update membership: %w", err)
	}
	return tx.Where("event_id = ? AND member_key = ?", m.EventID, m.MemberKey).Take(m).Error
}

func DeleteMembership(tx *gorm.DB, eventID uuid.UUID, memberKey string) error {
	err := tx.Where("event_id = ? AND member_key = ?", eventID, memberKey).
		Delete(&models.EventMembership{}).Error
	if err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	return nil
}

// CountOtherAcceptedHosts counts accepted hosts of the event other than
// memberKey. Callers hold the event lock so the count cannot go stale before
// the delete that depends on it.
func CountOtherAcceptedHosts(tx *gorm.DB, eventID uuid.UUID, memberKey string) (int64, error) {
	var n int64
	err := tx.Model(&models.EventMembership{}).
		Where("event_id = ? AND role = ? AND status = ? AND member_key <> ?",
			eventID, models.RoleHost, models.MembershipAccepted, memberKey).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count hosts: %w", err)
	}
	return n, nil
}

func ListMemberships(tx *gorm.DB, eventIDs ...uuid.UUID) ([]models.EventMembership, error) {
	if len(eventIDs) == 0 {
		return nil, nil
	}
	var out []models.EventMembership
	err := tx.Where("event_id IN ?", eventIDs).Order("created_at").Order("member_key").Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	return out, nil
}

// MemberEventIDs returns the events where memberKey holds one of statuses.
func MemberEventIDs(tx *gorm.DB, memberKey string, statuses ...models.MembershipStatus) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := tx.Model(&models.EventMembership{}).
		Where("member_key = ? AND status IN ?", memberKey, statuses).
		Pluck("event_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("member events: %w", err)
	}
	return ids, nil
}

// AcceptedEventIDsForUsers returns events where any of userIDs is an
// accepted member.
func AcceptedEventIDsForUsers(tx *gorm.DB, userIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var ids []uuid.UUID
	err := tx.Model(&models.EventMembership{}).
		Distinct("event_id").
		Where("user_id IN ? AND status = ?", userIDs, models.MembershipAccepted).
		Pluck("event_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("friend events: %w", err)
	}
	return ids, nil
}

// AnyAcceptedMember reports whether one of userIDs is an accepted member of
// the event.
func AnyAcceptedMember(tx *gorm.DB, eventID uuid.UUID, userIDs []uuid.UUID) (bool, error) {
	if len(userIDs) == 0 {
		return false, nil
	}
	var n int64
	err := tx.Model(&models.EventMembership{}).
		Where("event_id = ? AND user_id IN ? AND status = ?", eventID, userIDs, models.MembershipAccepted).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("friend membership: %w", err)
	}
	return n > 0, nil
}
