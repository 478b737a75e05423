package events

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"gamenight-backend/internal/actor"
	"gamenight-backend/internal/apperr"
	"gamenight-backend/internal/models"
	"gamenight-backend/internal/notify"
	"gamenight-backend/internal/store"
)

// Invite adds invitee to the event as a PENDING member with role. Inviting a
// member who is still pending returns the existing row untouched.
func (s *Service) Invite(ctx context.Context, scope actor.Scope, who actor.MemberRef, eventID uuid.UUID, invitee actor.MemberRef, role models.MembershipRole) (_ *MembershipView, err error) {
	ctx, end := s.span(ctx, "Invite", scope, who, eventID)
	defer end(&err)

	if err := checkActor(scope, who); err != nil {
		return nil, err
	}
	if err := checkActor(scope, invitee); err != nil {
		return nil, err
	}
	if role != models.RoleHost && role != models.RoleAttendee {
		return nil, apperr.Validation(fmt.Sprintf("unknown role %q", role))
	}

	var (
		out     *MembershipView
		box     outbox
		created bool
	)
	err = store.Tx(ctx, s.db, func(tx *gorm.DB) error {
		ev, mine, err := loadForWrite(tx, scope, who, eventID)
		if err != nil {
			return err
		}
		if err := requireNotCancelled(ev); err != nil {
			return err
		}
		if err := requireAccepted(mine); err != nil {
			return err
		}
		if role == models.RoleHost && mine.Role != models.RoleHost {
			return apperr.Forbidden("only hosts can invite hosts")
		}
		if !scope.Allows(invitee) {
			return apperr.Validation(fmt.Sprintf("%s is not a member of this channel", invitee))
		}
		if err := ensureUser(tx, invitee); err != nil {
			return err
		}

		existing, err := store.FindMembership(tx, ev.ID, invitee.Key())
		if err != nil {
			return err
		}
		switch {
		case isAccepted(existing):
			return apperr.Conflict(fmt.Sprintf("%s is already a member", invitee))
		case existing != nil:
			out = membershipView(existing, ev)
			return nil
		}

		m := newMembership(ev.ID, invitee, scope.Label(invitee), role, models.MembershipPending)
		if err := store.CreateMembership(tx, m); err != nil {
			return err
		}
		created = true
		out = membershipView(m, ev)
		box.add(notify.MembershipInvited, ev, who, invitee.Key(), map[string]string{"role": string(role)}, s.clock())
		return nil
	})
	if err != nil {
		return nil, err
	}
	if created {
		s.log.InfoContext(ctx, "member invited", "op", "invite", "event_id", eventID, "actor", who.Key(), "member", invitee.Key(), "role", role)
	}
	s.flush(ctx, box)
	return out, nil
}

// Accept turns the actor's pending invitation into an accepted membership.
func (s *Service) Accept(ctx context.Context, scope actor.Scope, who actor.MemberRef, eventID uuid.UUID) (_ *MembershipView, err error) {
	ctx, end := s.span(ctx, "Accept", scope, who, eventID)
	defer end(&err)

	if err := checkActor(scope, who); err != nil {
		return nil, err
	}
	var (
		out *MembershipView
		box outbox
	)
	err = store.Tx(ctx, s.db, func(tx *gorm.DB) error {
		ev, mine, err := loadForWrite(tx, scope, who, eventID)
		if err != nil {
			return err
		}
		if mine == nil || mine.Status != models.MembershipPending {
			return apperr.NotFound("no pending invitation for this event")
		}
		if err := requireNotCancelled(ev); err != nil {
			return err
		}
		if err := store.UpdateMembership(tx, mine, map[string]any{"status": models.MembershipAccepted}); err != nil {
			return err
		}
		out = membershipView(mine, ev)
		box.add(notify.MembershipAccepted, ev, who, who.Key(), nil, s.clock())
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "invitation accepted", "op", "accept", "event_id", eventID, "member", who.Key())
	s.flush(ctx, box)
	return out, nil
}

// Decline removes the actor's pending invitation.
func (s *Service) Decline(ctx context.Context, scope actor.Scope, who actor.MemberRef, eventID uuid.UUID) (err error) {
	ctx, end := s.span(ctx, "Decline", scope, who, eventID)
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
		if mine == nil || mine.Status != models.MembershipPending {
			return apperr.NotFound("no pending invitation for this event")
		}
		if err := store.DeleteMembership(tx, ev.ID, mine.MemberKey); err != nil {
			return err
		}
		box.add(notify.MembershipRemoved, ev, who, who.Key(), map[string]string{"reason": "declined"}, s.clock())
		return nil
	})
	if err != nil {
		return err
	}
	s.log.InfoContext(ctx, "invitation declined", "op", "decline", "event_id", eventID, "member", who.Key())
	s.flush(ctx, box)
	return nil
}

// Leave removes the actor's membership. The last accepted host cannot leave.
func (s *Service) Leave(ctx context.Context, scope actor.Scope, who actor.MemberRef, eventID uuid.UUID) (err error) {
	ctx, end := s.span(ctx, "Leave", scope, who, eventID)
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
		if mine == nil {
			return apperr.NotFound("not a member of this event")
		}
		if isAcceptedHost(mine) {
			others, err := store.CountOtherAcceptedHosts(tx, ev.ID, mine.MemberKey)
			if err != nil {
				return err
			}
			if others == 0 {
				return apperr.Conflict("at least one accepted host must remain")
			}
		}
		if err := store.DeleteMembership(tx, ev.ID, mine.MemberKey); err != nil {
			return err
		}
		box.add(notify.MembershipRemoved, ev, who, who.Key(), map[string]string{"reason": "left"}, s.clock())
		return nil
	})
	if err != nil {
		return err
	}
	s.log.InfoContext(ctx, "member left", "op", "leave", "event_id", eventID, "member", who.Key())
	s.flush(ctx, box)
	return nil
}
