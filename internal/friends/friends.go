// Package friends handles friend requests. Accepted friendships widen what a
// user can see in their personal event listings.
package friends

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"gamenight-backend/internal/apperr"
	"gamenight-backend/internal/models"
	"gamenight-backend/internal/notify"
	"gamenight-backend/internal/store"
)

type Service struct {
	db  *gorm.DB
	log *slog.Logger
	pub notify.Publisher
	now func() time.Time
}

func New(db *gorm.DB, log *slog.Logger, pub notify.Publisher) *Service {
	if log == nil {
		log = slog.Default()
	}
	if pub == nil {
		pub = notify.Nop{}
	}
	return &Service{db: db, log: log, pub: pub, now: time.Now}
}

// Request is a pending friend request with the other user's name resolved.
type Request struct {
	UserID    uuid.UUID `json:"user_id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

type Requests struct {
	Incoming []Request `json:"incoming"`
	Outgoing []Request `json:"outgoing"`
}

// Send creates a pending request from -> to. Repeating a pending request is a
// no-op; a request against an opposite pending one is a conflict, the target
// should accept instead.
func (s *Service) Send(ctx context.Context, from, to uuid.UUID) (*models.Friendship, error) {
	if from == to {
		return nil, apperr.Validation("cannot befriend yourself")
	}
	var (
		out     *models.Friendship
		created bool
	)
	err := store.Tx(ctx, s.db, func(tx *gorm.DB) error {
		if _, err := store.GetUser(tx, to); err != nil {
			return err
		}
		forward, err := store.FindFriendship(tx, from, to)
		if err != nil {
			return err
		}
		backward, err := store.FindFriendship(tx, to, from)
		if err != nil {
			return err
		}
		switch {
		case accepted(forward) || accepted(backward):
			return apperr.Conflict("already friends")
		case forward != nil:
			out = forward
			return nil
		case backward != nil:
			return apperr.Conflict("that user already sent you a request")
		}
		out = &models.Friendship{UserID: from, FriendUserID: to, Status: models.FriendshipPending}
		created = true
		return store.CreateFriendship(tx, out)
	})
	if err != nil {
		return nil, err
	}
	if created {
		s.publish(ctx, notify.FriendshipRequested, from, to)
	}
	return out, nil
}

// Accept accepts the pending request requester -> userID, leaving one
// accepted row in each direction.
func (s *Service) Accept(ctx context.Context, userID, requester uuid.UUID) error {
	err := store.Tx(ctx, s.db, func(tx *gorm.DB) error {
		req, err := store.FindFriendship(tx, requester, userID)
		if err != nil {
			return err
		}
		if req == nil || req.Status != models.FriendshipPending {
			return apperr.NotFound("friend request not found")
		}
		now := s.now().UTC()
		if err := store.AcceptFriendship(tx, requester, userID, now); err != nil {
			return err
		}
		back, err := store.FindFriendship(tx, userID, requester)
		if err != nil {
			return err
		}
		if back != nil {
			return store.AcceptFriendship(tx, userID, requester, now)
		}
		return store.CreateFriendship(tx, &models.Friendship{
			UserID:       userID,
			FriendUserID: requester,
			Status:       models.FriendshipAccepted,
			RespondedAt:  &now,
		})
	})
	if err != nil {
		return err
	}
	s.log.InfoContext(ctx, "friend request accepted", "user_id", userID, "requester_id", requester)
	s.publish(ctx, notify.FriendshipAccepted, userID, requester)
	return nil
}

// Decline drops the pending request requester -> userID.
func (s *Service) Decline(ctx context.Context, userID, requester uuid.UUID) error {
	return store.Tx(ctx, s.db, func(tx *gorm.DB) error {
		req, err := store.FindFriendship(tx, requester, userID)
		if err != nil {
			return err
		}
		if req == nil || req.Status != models.FriendshipPending {
			return apperr.NotFound("friend request not found")
		}
		return store.DeleteFriendship(tx, requester, userID)
	})
}

// Remove ends a friendship, or withdraws a request, in both directions.
func (s *Service) Remove(ctx context.Context, userID, other uuid.UUID) error {
	return store.Tx(ctx, s.db, func(tx *gorm.DB) error {
		forward, err := store.FindFriendship(tx, userID, other)
		if err != nil {
			return err
		}
		backward, err := store.FindFriendship(tx, other, userID)
		if err != nil {
			return err
		}
		if forward == nil && backward == nil {
			return apperr.NotFound("friendship not found")
		}
		if err := store.DeleteFriendship(tx, userID, other); err != nil {
			return err
		}
		return store.DeleteFriendship(tx, other, userID)
	})
}

// List returns the accepted friends of userID ordered by username.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]models.User, error) {
	db := s.db.WithContext(ctx)
	ids, err := store.AcceptedFriendIDs(db, userID)
	if err != nil {
		return nil, err
	}
	out := []models.User{}
	if len(ids) == 0 {
		return out, nil
	}
	if err := db.Where("id IN ?", ids).Order("username").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) Requests(ctx context.Context, userID uuid.UUID) (*Requests, error) {
	db := s.db.WithContext(ctx)
	incoming, outgoing, err := store.PendingFriendships(db, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(incoming)+len(outgoing))
	for _, f := range incoming {
		ids = append(ids, f.UserID)
	}
	for _, f := range outgoing {
		ids = append(ids, f.FriendUserID)
	}
	names, err := store.UsersByID(db, ids)
	if err != nil {
		return nil, err
	}
	out := &Requests{Incoming: []Request{}, Outgoing: []Request{}}
	for _, f := range incoming {
		out.Incoming = append(out.Incoming, Request{UserID: f.UserID, Username: names[f.UserID].Username, CreatedAt: f.CreatedAt})
	}
	for _, f := range outgoing {
		out.Outgoing = append(out.Outgoing, Request{UserID: f.FriendUserID, Username: names[f.FriendUserID].Username, CreatedAt: f.CreatedAt})
	}
	return out, nil
}

func (s *Service) publish(ctx context.Context, key string, from, to uuid.UUID) {
	msg := notify.Message{Key: key, Actor: from.String(), Subject: to.String(), At: s.now().UTC()}
	if err := s.pub.Publish(ctx, msg); err != nil {
		s.log.WarnContext(ctx, "publish notification", "key", key, "error", err)
	}
}

func accepted(f *models.Friendship) bool {
	return f != nil && f.Status == models.FriendshipAccepted
}
