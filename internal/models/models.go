package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a registered user
type User struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Username     string    `json:"username" gorm:"uniqueIndex;not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

type Game struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name        string    `json:"name" gorm:"not null;index"`
	Description *string   `json:"description,omitempty"`
	PlayerCount *int      `json:"player_count,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (g *Game) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// Event is the core event model. The plan fields are EventName, EventDatetime
// and LocationOrLink; PlanVersion only moves when one of them changes value.
type Event struct {
	ID             uuid.UUID   `json:"id" gorm:"type:uuid;primaryKey"`
	GameID         *uuid.UUID  `json:"game_id,omitempty" gorm:"type:uuid;index"`
	GameName       string      `json:"game_name" gorm:"not null"`
	EventName      string      `json:"event_name" gorm:"not null"`
	EventDatetime  *time.Time  `json:"event_datetime,omitempty"`
	LocationOrLink *string     `json:"location_or_link,omitempty"`
	Status         EventStatus `json:"status" gorm:"type:varchar(16);not null;index"`
	PlanVersion    int         `json:"plan_version" gorm:"not null;default:1"`
	PlanUpdatedAt  time.Time   `json:"plan_updated_at" gorm:"not null"`
	// ChannelID is nil for personal events and set for events owned by an
	// integration channel.
	ChannelID *string   `json:"channel_id,omitempty" gorm:"type:varchar(128);index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Memberships []EventMembership `json:"-" gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE"`
	Messages    []EventMessage    `json:"-" gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE"`
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// EventMembership links a member to an event. MemberKey is the canonical
// identity ("app_user:<uuid>" or "<platform>:<id>") and is unique per event.
type EventMembership struct {
	EventID              uuid.UUID        `json:"event_id" gorm:"type:uuid;primaryKey"`
	MemberKey            string           `json:"member_key" gorm:"type:varchar(160);primaryKey"`
	Source               MemberSource     `json:"source" gorm:"type:varchar(16);not null"`
	MemberID             string           `json:"member_id" gorm:"type:varchar(128);not null"`
	UserID               *uuid.UUID       `json:"user_id,omitempty" gorm:"type:uuid;index"`
	DisplayName          *string          `json:"display_name,omitempty"`
	Role                 MembershipRole   `json:"role" gorm:"type:varchar(16);not null"`
	Status               MembershipStatus `json:"status" gorm:"type:varchar(16);not null;index"`
	ConfirmedPlanVersion *int             `json:"confirmed_plan_version,omitempty"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
}

// EventMessage is an append-only chat line. IDs are UUIDv7 so they sort by
// creation time.
type EventMessage struct {
	ID          uuid.UUID   `json:"id" gorm:"type:uuid;primaryKey"`
	EventID     uuid.UUID   `json:"event_id" gorm:"type:uuid;not null;index"`
	AuthorKey   *string     `json:"author_key,omitempty" gorm:"type:varchar(160)"`
	UserID      *uuid.UUID  `json:"user_id,omitempty" gorm:"type:uuid"`
	Content     string      `json:"content" gorm:"type:text;not null"`
	MessageType MessageType `json:"message_type" gorm:"type:varchar(16);not null"`
	CreatedAt   time.Time   `json:"created_at"`
}

func (m *EventMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		m.ID = id
	}
	return nil
}

// Friendship is stored one row per direction. A request is a single PENDING
// row sender->target; an accepted friendship is two ACCEPTED rows.
type Friendship struct {
	UserID       uuid.UUID        `json:"user_id" gorm:"type:uuid;primaryKey"`
	FriendUserID uuid.UUID        `json:"friend_user_id" gorm:"type:uuid;primaryKey"`
	Status       FriendshipStatus `json:"status" gorm:"type:varchar(16);not null;index"`
	CreatedAt    time.Time        `json:"created_at"`
	RespondedAt  *time.Time       `json:"responded_at,omitempty"`
}

// All lists every model managed by migrations.
func All() []any {
	return []any{&User{}, &Game{}, &Event{}, &EventMembership{}, &EventMessage{}, &Friendship{}}
}
