package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"gamenight-backend/internal/models"
)

// FindFriendship returns the directed row from->to, or nil.
func FindFriendship(tx *gorm.DB, from, to uuid.UUID) (*models.Friendship, error) {
	var f models.Friendship
	err := tx.Where("user_id = ? AND friend_user_id = ?", from, to).Take(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load friendship: %w", err)
	}
	return &f, nil
}

func CreateFriendship(tx *gorm.DB, f *models.Friendship) error {
	if err := tx.Create(f).Error; err != nil {
		return fmt.Errorf("create friendship: %w", err)
	}
	return nil
}

// AcceptFriendship marks the directed row from->to accepted.
func AcceptFriendship(tx *gorm.DB, from, to uuid.UUID, at time.Time) error {
	err := tx.Model(&models.Friendship{}).
		Where("user_id = ? AND friend_user_id = ?", from, to).
		Updates(map[string]any{"status": models.FriendshipAccepted, "responded_at": at}).Error
	if err != nil {
		return fmt.Errorf("accept friendship: %w", err)
	}
	return nil
}

func DeleteFriendship(tx *gorm.DB, from, to uuid.UUID) error {
	if err := tx.Where("user_id = ? AND friend_user_id = ?", from, to).Delete(&models.Friendship{}).Error; err != nil {
		return fmt.Errorf("delete friendship: %w", err)
	}
	return nil
}

// AcceptedFriendIDs returns the ids of users with an accepted friendship
// with userID, looking at rows in either direction.
func AcceptedFriendIDs(tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error) {
	var rows []models.Friendship
	err := tx.Where("status = ? AND (user_id = ? OR friend_user_id = ?)",
		models.FriendshipAccepted, userID, userID).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load friends: %w", err)
	}
	seen := make(map[uuid.UUID]bool, len(rows))
	ids := make([]uuid.UUID, 0, len(rows))
	for _, r := range rows {
		id := r.FriendUserID
		if r.FriendUserID == userID {
			id = r.UserID
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// PendingFriendships returns pending rows addressed to userID (incoming) and
// sent by userID (outgoing).
func PendingFriendships(tx *gorm.DB, userID uuid.UUID) (incoming, outgoing []models.Friendship, err error) {
	if err = tx.Where("friend_user_id = ? AND status = ?", userID, models.FriendshipPending).
		Order("created_at").Find(&incoming).Error; err != nil {
		return nil, nil, fmt.Errorf("incoming requests: %w", err)
	}
	if err = tx.Where("user_id = ? AND status = ?", userID, models.FriendshipPending).
		Order("created_at").Find(&outgoing).Error; err != nil {
		return nil, nil, fmt.Errorf("outgoing requests: %w", err)
	}
	return incoming, outgoing, nil
}
