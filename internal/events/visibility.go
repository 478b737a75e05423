package events

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"gamenight-backend/internal/actor"
	"gamenight-backend/internal/models"
	"gamenight-backend/internal/store"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// ListFilter narrows List. The zero value lists every visible event that is
// not cancelled.
type ListFilter struct {
	Status           *models.EventStatus
	IncludeCancelled bool
	// MembersOnly drops events that are only visible through friends.
	MembersOnly bool
	Limit       int
	Offset      int
}

// Get returns the event as seen by the actor, or NotFound when the actor may
// not see it.
func (s *Service) Get(ctx context.Context, scope actor.Scope, who actor.MemberRef, eventID uuid.UUID) (_ *EventView, err error) {
	ctx, end := s.span(ctx, "Get", scope, who, eventID)
	defer end(&err)

	if err := checkActor(scope, who); err != nil {
		return nil, err
	}
	var out *EventView
	err = store.Tx(ctx, s.db, func(tx *gorm.DB) error {
		ev, err := store.GetEvent(tx, eventID)
		if err != nil {
			return err
		}
		mine, err := store.FindMembership(tx, ev.ID, who.Key())
		if err != nil {
			return err
		}
		if err := checkVisible(tx, scope, who, ev, mine); err != nil {
			return err
		}
		out, err = s.view(tx, who, ev)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// List returns the events visible to the actor, newest first.
//
// In personal scope that is every event the actor is a pending or accepted
// member of, plus personal events where an accepted friend is an accepted
// member. In channel scope it is every event of the channel.
func (s *Service) List(ctx context.Context, scope actor.Scope, who actor.MemberRef, f ListFilter) (_ []EventView, err error) {
	ctx, end := s.span(ctx, "List", scope, who, uuid.Nil)
	defer end(&err)

	if err := checkActor(scope, who); err != nil {
		return nil, err
	}
	filter := store.EventFilter{
		Status:           f.Status,
		IncludeCancelled: f.IncludeCancelled || (f.Status != nil && *f.Status == models.EventStatusCancelled),
		Limit:            clampLimit(f.Limit, defaultListLimit, maxListLimit),
		Offset:           max(f.Offset, 0),
	}

	var out []EventView
	err = store.Tx(ctx, s.db, func(tx *gorm.DB) error {
		if scope.IsChannel() {
			channel := scope.ChannelID
			filter.ChannelID = &channel
		} else {
			ids, err := s.personalEventIDs(tx, who, f.MembersOnly)
			if err != nil {
				return err
			}
			filter.IDs = ids
		}
		evs, err := store.ListEvents(tx, filter)
		if err != nil {
			return err
		}
		out, err = s.views(tx, who, evs)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) personalEventIDs(tx *gorm.DB, who actor.MemberRef, membersOnly bool) ([]uuid.UUID, error) {
	ids, err := store.MemberEventIDs(tx, who.Key(), models.MembershipPending, models.MembershipAccepted)
	if err != nil {
		return nil, err
	}
	userID, ok := who.UserID()
	if membersOnly || !ok {
		return ids, nil
	}
	friends, err := store.AcceptedFriendIDs(tx, userID)
	if err != nil {
		return nil, err
	}
	viaFriends, err := store.AcceptedEventIDsForUsers(tx, friends)
	if err != nil {
		return nil, err
	}
	viaFriends, err = store.PersonalEventIDs(tx, viaFriends)
	if err != nil {
		return nil, err
	}
	seen := make(map[uuid.UUID]bool, len(ids)+len(viaFriends))
	out := make([]uuid.UUID, 0, len(ids)+len(viaFriends))
	for _, id := range append(ids, viaFriends...) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out, nil
}

func clampLimit(limit, def, maxLimit int) int {
	if limit <= 0 {
		return def
	}
	return min(limit, maxLimit)
}
