package events

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"gamenight-backend/internal/actor"
	"gamenight-backend/internal/models"
	"gamenight-backend/internal/store"
)

// MembershipView is one member's own membership on an event.
type MembershipView struct {
	EventID              uuid.UUID               `json:"event_id"`
	MemberKey            string                  `json:"member_key"`
	Role                 models.MembershipRole   `json:"role"`
	Status               models.MembershipStatus `json:"status"`
	ConfirmedPlanVersion *int                    `json:"confirmed_plan_version"`
	// Stale is true when the member has not confirmed the current plan.
	Stale     bool      `json:"stale"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MemberView is how a member appears to other readers of an event.
type MemberView struct {
	MemberKey            string                  `json:"member_key"`
	Source               models.MemberSource     `json:"source"`
	UserID               *uuid.UUID              `json:"user_id,omitempty"`
	Username             string                  `json:"username,omitempty"`
	DisplayName          string                  `json:"display_name"`
	Role                 models.MembershipRole   `json:"role"`
	Status               models.MembershipStatus `json:"status"`
	ConfirmedPlanVersion *int                    `json:"confirmed_plan_version"`
}

type Counts struct {
	AcceptedHosts     int `json:"accepted_hosts"`
	AcceptedAttendees int `json:"accepted_attendees"`
	Pending           int `json:"pending"`
}

// EventView is an event as seen by one actor.
type EventView struct {
	ID             uuid.UUID          `json:"id"`
	GameID         *uuid.UUID         `json:"game_id,omitempty"`
	GameName       string             `json:"game_name"`
	EventName      string             `json:"event_name"`
	EventDatetime  *time.Time         `json:"event_datetime,omitempty"`
	LocationOrLink *string            `json:"location_or_link,omitempty"`
	Status         models.EventStatus `json:"status"`
	PlanVersion    int                `json:"plan_version"`
	PlanUpdatedAt  time.Time          `json:"plan_updated_at"`
	ChannelID      *string            `json:"channel_id,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`

	MyMembership       *MembershipView `json:"my_membership"`
	IsConfirmedForPlan bool            `json:"is_confirmed_for_plan"`
	Hosts              []MemberView    `json:"hosts"`
	Attendees          []MemberView    `json:"attendees"`
	Counts             Counts          `json:"counts"`
}

func membershipView(m *models.EventMembership, ev *models.Event) *MembershipView {
	return &MembershipView{
		EventID:              m.EventID,
		MemberKey:            m.MemberKey,
		Role:                 m.Role,
		Status:               m.Status,
		ConfirmedPlanVersion: m.ConfirmedPlanVersion,
		Stale:                m.ConfirmedPlanVersion == nil || *m.ConfirmedPlanVersion != ev.PlanVersion,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}

func (s *Service) view(tx *gorm.DB, who actor.MemberRef, ev *models.Event) (*EventView, error) {
	views, err := s.views(tx, who, []models.Event{*ev})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// views builds EventViews for evs with two extra queries: one for all
// memberships, one for the usernames of app-user members.
func (s *Service) views(tx *gorm.DB, who actor.MemberRef, evs []models.Event) ([]EventView, error) {
	ids := make([]uuid.UUID, len(evs))
	for i := range evs {
		ids[i] = evs[i].ID
	}
	members, err := store.ListMemberships(tx, ids...)
	if err != nil {
		return nil, err
	}
	var userIDs []uuid.UUID
	byEvent := make(map[uuid.UUID][]models.EventMembership, len(evs))
	for _, m := range members {
		byEvent[m.EventID] = append(byEvent[m.EventID], m)
		if m.UserID != nil {
			userIDs = append(userIDs, *m.UserID)
		}
	}
	users, err := store.UsersByID(tx, userIDs)
	if err != nil {
		return nil, err
	}

	out := make([]EventView, len(evs))
	for i := range evs {
		out[i] = buildView(&evs[i], byEvent[evs[i].ID], users, who.Key())
	}
	return out, nil
}

func buildView(ev *models.Event, members []models.EventMembership, users map[uuid.UUID]models.User, myKey string) EventView {
	v := EventView{
		ID:             ev.ID,
		GameID:         ev.GameID,
		GameName:       ev.GameName,
		EventName:      ev.EventName,
		EventDatetime:  ev.EventDatetime,
		LocationOrLink: ev.LocationOrLink,
		Status:         ev.Status,
		PlanVersion:    ev.PlanVersion,
		PlanUpdatedAt:  ev.PlanUpdatedAt,
		ChannelID:      ev.ChannelID,
		CreatedAt:      ev.CreatedAt,
		UpdatedAt:      ev.UpdatedAt,
		Hosts:          []MemberView{},
		Attendees:      []MemberView{},
	}
	for i := range members {
		m := &members[i]
		if m.MemberKey == myKey {
			v.MyMembership = membershipView(m, ev)
			v.IsConfirmedForPlan = !v.MyMembership.Stale
		}
		mv := memberView(m, users)
		if m.Role == models.RoleHost {
			v.Hosts = append(v.Hosts, mv)
		} else {
			v.Attendees = append(v.Attendees, mv)
		}
		switch {
		case m.Status == models.MembershipPending:
			v.Counts.Pending++
		case m.Role == models.RoleHost:
			v.Counts.AcceptedHosts++
		default:
			v.Counts.AcceptedAttendees++
		}
	}
	return v
}

func memberView(m *models.EventMembership, users map[uuid.UUID]models.User) MemberView {
	mv := MemberView{
		MemberKey:            m.MemberKey,
		Source:               m.Source,
		UserID:               m.UserID,
		Role:                 m.Role,
		Status:               m.Status,
		ConfirmedPlanVersion: m.ConfirmedPlanVersion,
		DisplayName:          m.MemberID,
	}
	if m.UserID != nil {
		if u, ok := users[*m.UserID]; ok {
			mv.Username = u.Username
			mv.DisplayName = u.Username
		}
	}
	if m.DisplayName != nil && *m.DisplayName != "" {
		mv.DisplayName = *m.DisplayName
	}
	return mv
}
