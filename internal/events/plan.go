package events

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"gamenight-backend/internal/actor"
	"gamenight-backend/internal/apperr"
	"gamenight-backend/internal/models"
	"gamenight-backend/internal/notify"
	"gamenight-backend/internal/store"
)

// CreateInput describes a new event. Either GameID or GameName is required;
// a known game id wins over the name.
type CreateInput struct {
	GameID         *uuid.UUID `json:"game_id,omitempty"`
	GameName       string     `json:"game_name,omitempty"`
	EventName      string     `json:"event_name"`
	EventDatetime  *time.Time `json:"event_datetime,omitempty"`
	LocationOrLink *string    `json:"location_or_link,omitempty"`
}

// PlanUpdate is a partial update of the plan fields. Nil fields are left
// untouched.
type PlanUpdate struct {
	EventName      *string    `json:"event_name,omitempty"`
	EventDatetime  *time.Time `json:"event_datetime,omitempty"`
	LocationOrLink *string    `json:"location_or_link,omitempty"`
}

// Create makes a PLANNING event with the actor as its accepted host. In a
// channel scope the event belongs to that channel.
func (s *Service) Create(ctx context.Context, scope actor.Scope, who actor.MemberRef, in CreateInput) (_ *EventView, err error) {
	ctx, end := s.span(ctx, "Create", scope, who, uuid.Nil)
	defer end(&err)

	if err := checkActor(scope, who); err != nil {
		return nil, err
	}
	in.EventName = strings.TrimSpace(in.EventName)
	in.GameName = strings.TrimSpace(in.GameName)
	if in.EventName == "" {
		return nil, apperr.Validation("event name is required")
	}
	if in.GameID == nil && in.GameName == "" {
		return nil, apperr.Validation("game id or game name is required")
	}

	var (
		out *EventView
		box outbox
	)
	err = store.Tx(ctx, s.db, func(tx *gorm.DB) error {
		if err := ensureUser(tx, who); err != nil {
			return err
		}
		gameName := in.GameName
		if in.GameID != nil {
			game, err := store.GetGame(tx, *in.GameID)
			if err != nil {
				return err
			}
			gameName = game.Name
		}

		now := s.clock()
		ev := &models.Event{
			GameID:         in.GameID,
			GameName:       gameName,
			EventName:      in.EventName,
			EventDatetime:  truncTime(in.EventDatetime),
			LocationOrLink: in.LocationOrLink,
			Status:         models.EventStatusPlanning,
			PlanVersion:    1,
			PlanUpdatedAt:  now,
		}
		if scope.IsChannel() {
			channel := scope.ChannelID
			ev.ChannelID = &channel
		}
		if err := store.CreateEvent(tx, ev); err != nil {
			return err
		}
		host := newMembership(ev.ID, who, scope.Label(who), models.RoleHost, models.MembershipAccepted)
		if err := store.CreateMembership(tx, host); err != nil {
			return err
		}
		box.add(notify.EventCreated, ev, who, "", map[string]string{"event_name": ev.EventName}, now)
		v, err := s.view(tx, who, ev)
		out = v
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "event created", "op", "create", "event_id", out.ID, "actor", who.Key(), "channel_id", scope.ChannelID)
	s.flush(ctx, box)
	return out, nil
}

// UpdatePlan applies the non-nil fields of upd. When at least one of them
// changes the stored value, plan_version moves up by one.
func (s *Service) UpdatePlan(ctx context.Context, scope actor.Scope, who actor.MemberRef, eventID uuid.UUID, upd PlanUpdate) (_ *EventView, err error) {
	ctx, end := s.span(ctx, "UpdatePlan", scope, who, eventID)
	defer end(&err)

	if err := checkActor(scope, who); err != nil {
		return nil, err
	}
	if upd.EventName != nil && strings.TrimSpace(*upd.EventName) == "" {
		return nil, apperr.Validation("event name cannot be empty")
	}

	var (
		out     *EventView
		box     outbox
		changed []string
	)
	err = store.Tx(ctx, s.db, func(tx *gorm.DB) error {
		ev, mine, err := loadForWrite(tx, scope, who, eventID)
		if err != nil {
			return err
		}
		if err := requireAcceptedHost(mine); err != nil {
			return err
		}

		fields := map[string]any{}
		if upd.EventName != nil {
			if name := strings.TrimSpace(*upd.EventName); name != ev.EventName {
				fields["event_name"] = name
				changed = append(changed, "name")
			}
		}
		if upd.EventDatetime != nil {
			if t := truncTime(upd.EventDatetime); ev.EventDatetime == nil || !ev.EventDatetime.Equal(*t) {
				fields["event_datetime"] = *t
				changed = append(changed, "time")
			}
		}
		if upd.LocationOrLink != nil {
			if ev.LocationOrLink == nil || *ev.LocationOrLink != *upd.LocationOrLink {
				fields["location_or_link"] = *upd.LocationOrLink
				changed = append(changed, "location")
			}
		}

		if len(fields) > 0 {
			now := s.clock()
			if err := store.BumpPlan(tx, ev.ID, fields, now); err != nil {
				return err
			}
			if ev, err = store.GetEvent(tx, ev.ID); err != nil {
				return err
			}
			note := fmt.Sprintf("Plan updated (%s), now version %d.", strings.Join(changed, ", "), ev.PlanVersion)
			if err := appendSystemMessage(tx, ev.ID, note); err != nil {
				return err
			}
			box.add(notify.EventPlanUpdated, ev, who, "", map[string]string{
				"plan_version": strconv.Itoa(ev.PlanVersion),
				"changed":      strings.Join(changed, ","),
			}, now)
		}
		out, err = s.view(tx, who, ev)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(changed) > 0 {
		s.log.InfoContext(ctx, "plan updated", "op", "update_plan", "event_id", eventID, "actor", who.Key(), "fields", changed, "plan_version", out.PlanVersion)
	}
	s.flush(ctx, box)
	return out, nil
}

// SetStatus overwrites the event status. Any accepted host may move the event
// to any status.
func (s *Service) SetStatus(ctx context.Context, scope actor.Scope, who actor.MemberRef, eventID uuid.UUID, status models.EventStatus) (_ *EventView, err error) {
	ctx, end := s.span(ctx, "SetStatus", scope, who, eventID)
	defer end(&err)

	if err := checkActor(scope, who); err != nil {
		return nil, err
	}
	status, err = actor.ParseEventStatus(string(status))
	if err != nil {
		return nil, err
	}

	var (
		out *EventView
		box outbox
	)
	err = store.Tx(ctx, s.db, func(tx *gorm.DB) error {
		ev, mine, err := loadForWrite(tx, scope, who, eventID)
		if err != nil {
			return err
		}
		if err := requireAcceptedHost(mine); err != nil {
			return err
		}
		previous := ev.Status
		if err := store.SetEventStatus(tx, ev.ID, status); err != nil {
			return err
		}
		ev.Status = status
		if previous != status {
			if err := appendSystemMessage(tx, ev.ID, fmt.Sprintf("Event is now %s.", status)); err != nil {
				return err
			}
			box.add(notify.EventStatusChanged, ev, who, string(status), map[string]string{"previous": string(previous)}, s.clock())
		}
		out, err = s.view(tx, who, ev)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "status set", "op", "set_status", "event_id", eventID, "actor", who.Key(), "status", status)
	s.flush(ctx, box)
	return out, nil
}

// ConfirmPlan records that the actor has seen the event's current plan.
func (s *Service) ConfirmPlan(ctx context.Context, scope actor.Scope, who actor.MemberRef, eventID uuid.UUID) (_ *MembershipView, err error) {
	ctx, end := s.span(ctx, "ConfirmPlan", scope, who, eventID)
	defer end(&err)

	if err := checkActor(scope, who); err != nil {
		return nil, err
	}
	var out *MembershipView
	err = store.Tx(ctx, s.db, func(tx *gorm.DB) error {
		ev, mine, err := loadForWrite(tx, scope, who, eventID)
		if err != nil {
			return err
		}
		if err := requireAccepted(mine); err != nil {
			return err
		}
		if err := store.UpdateMembership(tx, mine, map[string]any{"confirmed_plan_version": ev.PlanVersion}); err != nil {
			return err
		}
		out = membershipView(mine, ev)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.DebugContext(ctx, "plan confirmed", "op", "confirm_plan", "event_id", eventID, "member", who.Key(), "plan_version", out.ConfirmedPlanVersion)
	return out, nil
}

// Delete removes the event with its memberships and messages.
func (s *Service) Delete(ctx context.Context, scope actor.Scope, who actor.MemberRef, eventID uuid.UUID) (err error) {
	ctx, end := s.span(ctx, "Delete", scope, who, eventID)
	defer end(&err)

	if err := checkActor(scope, who); err != nil {
		return err
	}
	var box outbox
	err = store.Tx(ctx, s.db, func(tx *gorm.DB) error {
		ev, mine, err := loadForWrite(tx, scope, who, eventID)
		if err != nil {
			return err
		}
		if err := requireAcceptedHost(mine); err != nil {
			return err
		}
		if err := store.DeleteEvent(tx, ev.ID); err != nil {
			return err
		}
		box.add(notify.EventDeleted, ev, who, "", nil, s.clock())
		return nil
	})
	if err != nil {
		return err
	}
	s.log.InfoContext(ctx, "event deleted", "op", "delete", "event_id", eventID, "actor", who.Key())
	s.flush(ctx, box)
	return nil
}

func truncTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC().Truncate(time.Microsecond)
	return &v
}
