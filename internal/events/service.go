// Package events implements the event lifecycle: the membership state
// machine, the plan engine, visibility scoping and the event message log.
//
// Every operation runs in one transaction. Mutations first lock the event
// row, so concurrent writers on the same event are serialized and the
// "at least one accepted host" check cannot race with another removal.
package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"gamenight-backend/internal/actor"
	"gamenight-backend/internal/apperr"
	"gamenight-backend/internal/models"
	"gamenight-backend/internal/notify"
	"gamenight-backend/internal/store"
	"gamenight-backend/internal/telemetry"
)

type Service struct {
	db     *gorm.DB
	log    *slog.Logger
	pub    notify.Publisher
	now    func() time.Time
	tracer trace.Tracer
}

type Option func(*Service)

func WithLogger(l *slog.Logger) Option { return func(s *Service) { s.log = l } }

func WithPublisher(p notify.Publisher) Option { return func(s *Service) { s.pub = p } }

// WithClock overrides the time source used for plan timestamps.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func New(db *gorm.DB, opts ...Option) *Service {
	s := &Service{
		db:     db,
		log:    slog.Default(),
		pub:    notify.Nop{},
		now:    time.Now,
		tracer: otel.Tracer("gamenight-backend/internal/events"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) clock() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *Service) span(ctx context.Context, op string, scope actor.Scope, who actor.MemberRef, eventID uuid.UUID) (context.Context, func(*error)) {
	attrs := []attribute.KeyValue{attribute.String("actor", who.Key())}
	if eventID != uuid.Nil {
		attrs = append(attrs, attribute.String("event.id", eventID.String()))
	}
	if scope.IsChannel() {
		attrs = append(attrs, attribute.String("channel.id", scope.ChannelID))
	}
	return telemetry.Start(ctx, s.tracer, "events."+op, attrs...)
}

// outbox collects notifications inside a transaction; they are published
// only after it commits.
type outbox []notify.Message

func (o *outbox) add(key string, ev *models.Event, who actor.MemberRef, subject string, data map[string]string, at time.Time) {
	msg := notify.Message{Key: key, EventID: ev.ID.String(), Actor: who.Key(), Subject: subject, Data: data, At: at}
	if ev.ChannelID != nil {
		msg.ChannelID = *ev.ChannelID
	}
	*o = append(*o, msg)
}

func (s *Service) flush(ctx context.Context, box outbox) {
	for _, msg := range box {
		if err := s.pub.Publish(ctx, msg); err != nil {
			s.log.WarnContext(ctx, "publish notification", "key", msg.Key, "event_id", msg.EventID, "error", err)
		}
	}
}

// checkActor rejects refs that are not valid in scope. Personal scope only
// knows app users.
func checkActor(scope actor.Scope, ref actor.MemberRef) error {
	if ref.Source == "" || ref.ID == "" {
		return apperr.InvalidActor("actor is required")
	}
	if !scope.IsChannel() && !ref.IsAppUser() {
		return apperr.InvalidActor("only app users can act outside a channel")
	}
	return nil
}

// checkVisible reports NotFound when ev is outside what who may see. mine is
// the actor's own membership, possibly nil.
func checkVisible(tx *gorm.DB, scope actor.Scope, who actor.MemberRef, ev *models.Event, mine *models.EventMembership) error {
	if scope.IsChannel() {
		if ev.ChannelID == nil || *ev.ChannelID != scope.ChannelID {
			return apperr.NotFound("event not found")
		}
		return nil
	}
	if mine != nil {
		return nil
	}
	userID, ok := who.UserID()
	if !ok || ev.ChannelID != nil {
		return apperr.NotFound("event not found")
	}
	friends, err := store.AcceptedFriendIDs(tx, userID)
	if err != nil {
		return err
	}
	seen, err := store.AnyAcceptedMember(tx, ev.ID, friends)
	if err != nil {
		return err
	}
	if !seen {
		return apperr.NotFound("event not found")
	}
	return nil
}

// loadForWrite locks the event and returns it with the actor's membership,
// after checking visibility.
func loadForWrite(tx *gorm.DB, scope actor.Scope, who actor.MemberRef, eventID uuid.UUID) (*models.Event, *models.EventMembership, error) {
	ev, err := store.LockEvent(tx, eventID)
	if err != nil {
		return nil, nil, err
	}
	mine, err := store.FindMembership(tx, ev.ID, who.Key())
	if err != nil {
		return nil, nil, err
	}
	if err := checkVisible(tx, scope, who, ev, mine); err != nil {
		return nil, nil, err
	}
	return ev, mine, nil
}

func isAccepted(m *models.EventMembership) bool {
	return m != nil && m.Status == models.MembershipAccepted
}

func isAcceptedHost(m *models.EventMembership) bool {
	return isAccepted(m) && m.Role == models.RoleHost
}

func requireAcceptedHost(m *models.EventMembership) error {
	if !isAcceptedHost(m) {
		return apperr.Forbidden("only an accepted host can do this")
	}
	return nil
}

func requireAccepted(m *models.EventMembership) error {
	if !isAccepted(m) {
		return apperr.Forbidden("only accepted members can do this")
	}
	return nil
}

func requireNotCancelled(ev *models.Event) error {
	if ev.Status == models.EventStatusCancelled {
		return apperr.Conflict("event is cancelled")
	}
	return nil
}

func newMembership(eventID uuid.UUID, ref actor.MemberRef, label string, role models.MembershipRole, status models.MembershipStatus) *models.EventMembership {
	m := &models.EventMembership{
		EventID:   eventID,
		MemberKey: ref.Key(),
		Source:    ref.Source,
		MemberID:  ref.ID,
		Role:      role,
		Status:    status,
	}
	if id, ok := ref.UserID(); ok {
		m.UserID = &id
	}
	if label != "" {
		m.DisplayName = &label
	}
	return m
}

// ensureUser returns NotFound for app-user refs without an account.
func ensureUser(tx *gorm.DB, ref actor.MemberRef) error {
	id, ok := ref.UserID()
	if !ok {
		return nil
	}
	_, err := store.GetUser(tx, id)
	return err
}
