package events

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"gamenight-backend/internal/actor"
	"gamenight-backend/internal/apperr"
	"gamenight-backend/internal/models"
	"gamenight-backend/internal/notify"
	"gamenight-backend/internal/store"
)

const (
	defaultMessageLimit = 50
	maxMessageLimit     = 200
	maxMessageLength    = 4000
)

// PostMessage appends a USER message from an accepted member.
func (s *Service) PostMessage(ctx context.Context, scope actor.Scope, who actor.MemberRef, eventID uuid.UUID, content string) (_ *models.EventMessage, err error) {
	ctx, end := s.span(ctx, "PostMessage", scope, who, eventID)
	defer end(&err)

	if err := checkActor(scope, who); err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.Validation("message content is required")
	}
	if len(content) > maxMessageLength {
		return nil, apperr.Validation("message is too long")
	}

	var (
		out *models.EventMessage
		box outbox
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
		key := mine.MemberKey
		msg := &models.EventMessage{
			EventID:     ev.ID,
			AuthorKey:   &key,
			UserID:      mine.UserID,
			Content:     content,
			MessageType: models.MessageUser,
		}
		if err := store.AppendMessage(tx, msg); err != nil {
			return err
		}
		out = msg
		box.add(notify.EventMessagePosted, ev, who, msg.ID.String(), nil, s.clock())
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.flush(ctx, box)
	return out, nil
}

// ListMessages returns an accepted member's view of the event log, newest
// first. With before set only older messages are returned.
func (s *Service) ListMessages(ctx context.Context, scope actor.Scope, who actor.MemberRef, eventID uuid.UUID, before *uuid.UUID, limit int) (_ []models.EventMessage, err error) {
	ctx, end := s.span(ctx, "ListMessages", scope, who, eventID)
	defer end(&err)

	if err := checkActor(scope, who); err != nil {
		return nil, err
	}
	var out []models.EventMessage
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
		if err := requireAccepted(mine); err != nil {
			return err
		}
		out, err = store.ListMessages(tx, ev.ID, before, clampLimit(limit, defaultMessageLimit, maxMessageLimit))
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// PostSystemMessage appends a SYSTEM message with no author, for
// integrations announcing things on an event.
func (s *Service) PostSystemMessage(ctx context.Context, eventID uuid.UUID, content string) (_ *models.EventMessage, err error) {
	ctx, end := s.span(ctx, "PostSystemMessage", actor.Personal(), actor.MemberRef{}, eventID)
	defer end(&err)

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.Validation("message content is required")
	}
	var out *models.EventMessage
	err = store.Tx(ctx, s.db, func(tx *gorm.DB) error {
		ev, err := store.LockEvent(tx, eventID)
		if err != nil {
			return err
		}
		out = &models.EventMessage{EventID: ev.ID, Content: content, MessageType: models.MessageSystem}
		return store.AppendMessage(tx, out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func appendSystemMessage(tx *gorm.DB, eventID uuid.UUID, content string) error {
	return store.AppendMessage(tx, &models.EventMessage{
		EventID:     eventID,
		Content:     content,
		MessageType: models.MessageSystem,
	})
}
