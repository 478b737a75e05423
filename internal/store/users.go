package store

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"gamenight-backend/internal/models"
)

func GetUser(tx *gorm.DB, id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := tx.First(&u, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return &u, nil
}

// GetUserByLogin finds a user by email or, failing that, by username.
func GetUserByLogin(tx *gorm.DB, login string) (*models.User, error) {
	var u models.User
	login = strings.TrimSpace(login)
	err := tx.Where("email = ?", strings.ToLower(login)).Or("username = ?", login).Take(&u).Error
	if err != nil {
		return nil, notFound(err, "user")
	}
	return &u, nil
}

// UsersByID batch-loads users keyed by id. Unknown ids are skipped.
func UsersByID(tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]models.User, error) {
	out := make(map[uuid.UUID]models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []models.User
	if err := tx.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

// FilterUsers matches users by case-insensitive partial username and email.
// Both filters must match when both are given.
func FilterUsers(tx *gorm.DB, username, email string, limit int) ([]models.User, error) {
	q := tx.Model(&models.User{})
	if username != "" {
		q = q.Where("LOWER(username) LIKE ?", "%"+strings.ToLower(username)+"%")
	}
	if email != "" {
		q = q.Where("LOWER(email) LIKE ?", "%"+strings.ToLower(email)+"%")
	}
	var out []models.User
	if err := q.Order("username").Limit(limit).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("filter users: %w", err)
	}
	return out, nil
}

// DeleteUser removes the user and every friendship row that references it.
func DeleteUser(tx *gorm.DB, id uuid.UUID) error {
	if err := tx.Where("user_id = ? OR friend_user_id = ?", id, id).Delete(&models.Friendship{}).Error; err != nil {
		return fmt.Errorf("delete friendships: %w", err)
	}
	res := tx.Delete(&models.User{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "user")
	}
	return nil
}
