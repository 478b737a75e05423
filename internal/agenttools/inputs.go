package agenttools

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"gamenight-backend/internal/apperr"
)

type CreateEventInput struct {
	Actor          string `json:"actor" jsonschema:"acting user id, or platform id inside a channel"`
	GameID         string `json:"game_id,omitempty" jsonschema:"catalogue game id"`
	GameName       string `json:"game_name,omitempty" jsonschema:"game name when no catalogue id is known"`
	EventName      string `json:"event_name" jsonschema:"name of the event"`
	EventDatetime  string `json:"event_datetime,omitempty" jsonschema:"start time, RFC 3339"`
	LocationOrLink string `json:"location_or_link,omitempty" jsonschema:"where to meet or a voice/stream link"`
}

type EventInput struct {
	Actor   string `json:"actor" jsonschema:"acting user id, or platform id inside a channel"`
	EventID string `json:"event_id" jsonschema:"event id"`
}

type ListEventsInput struct {
	Actor            string `json:"actor" jsonschema:"acting user id, or platform id inside a channel"`
	Status           string `json:"status,omitempty" jsonschema:"PLANNING, CONFIRMED or CANCELLED"`
	IncludeCancelled bool   `json:"include_cancelled,omitempty" jsonschema:"also list cancelled events"`
	Limit            int    `json:"limit,omitempty" jsonschema:"page size, default 100"`
	Offset           int    `json:"offset,omitempty" jsonschema:"number of events to skip"`
}

type UpdatePlanInput struct {
	Actor          string  `json:"actor" jsonschema:"acting user id, or platform id inside a channel"`
	EventID        string  `json:"event_id" jsonschema:"event id"`
	EventName      *string `json:"event_name,omitempty" jsonschema:"new event name"`
	EventDatetime  *string `json:"event_datetime,omitempty" jsonschema:"new start time, RFC 3339"`
	LocationOrLink *string `json:"location_or_link,omitempty" jsonschema:"new location or link"`
}

type InviteInput struct {
	Actor   string `json:"actor" jsonschema:"acting user id, or platform id inside a channel"`
	EventID string `json:"event_id" jsonschema:"event id"`
	Invitee string `json:"invitee" jsonschema:"user id, or platform id inside a channel"`
	Role    string `json:"role,omitempty" jsonschema:"HOST or ATTENDEE, default ATTENDEE"`
}

type PostMessageInput struct {
	Actor   string `json:"actor" jsonschema:"acting user id, or platform id inside a channel"`
	EventID string `json:"event_id" jsonschema:"event id"`
	Content string `json:"content" jsonschema:"message text"`
}

type ListMessagesInput struct {
	Actor   string `json:"actor" jsonschema:"acting user id, or platform id inside a channel"`
	EventID string `json:"event_id" jsonschema:"event id"`
	Before  string `json:"before,omitempty" jsonschema:"only messages older than this message id"`
	Limit   int    `json:"limit,omitempty" jsonschema:"page size, default 50"`
}

type ListGamesInput struct {
	Query  string `json:"query,omitempty" jsonschema:"part of the game name"`
	Limit  int    `json:"limit,omitempty" jsonschema:"page size"`
	Offset int    `json:"offset,omitempty" jsonschema:"number of games to skip"`
}

type FindUsersInput struct {
	Username string `json:"username,omitempty" jsonschema:"part of the username"`
	Email    string `json:"email,omitempty" jsonschema:"part of the email address"`
	Limit    int    `json:"limit,omitempty" jsonschema:"maximum number of users"`
}

func parseID(field, s string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, apperr.Validation(fmt.Sprintf("%s must be a UUID", field))
	}
	return id, nil
}

func parseOptionalID(field, s string) (*uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	id, err := parseID(field, s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func parseTime(field, s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
	if err != nil {
		return nil, apperr.Validation(fmt.Sprintf("%s must be an RFC 3339 time", field))
	}
	return &t, nil
}

func optional(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}
