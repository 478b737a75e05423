package events_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"gamenight-backend/internal/actor"
	"gamenight-backend/internal/apperr"
	"gamenight-backend/internal/events"
	"gamenight-backend/internal/models"
	"gamenight-backend/internal/notify"
	"gamenight-backend/internal/store"
	"gamenight-backend/internal/store/storetest"
)

var personal = actor.Personal()

func newUser(t *testing.T, db *gorm.DB, name string) actor.MemberRef {
	t.Helper()
	u := &models.User{Username: name, Email: name + "@example.com", PasswordHash: "x"}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return actor.AppUser(u.ID)
}

func befriend(t *testing.T, db *gorm.DB, a, b actor.MemberRef) {
	t.Helper()
	aID, _ := a.UserID()
	bID, _ := b.UserID()
	now := time.Now().UTC()
	for _, f := range []models.Friendship{
		{UserID: aID, FriendUserID: bID, Status: models.FriendshipAccepted, RespondedAt: &now},
		{UserID: bID, FriendUserID: aID, Status: models.FriendshipAccepted, RespondedAt: &now},
	} {
		if err := store.CreateFriendship(db, &f); err != nil {
			t.Fatalf("create friendship: %v", err)
		}
	}
}

func wantKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("err = nil, want %s", kind)
	}
	if got := apperr.KindOf(err); got != kind {
		t.Fatalf("err kind = %s (%v), want %s", got, err, kind)
	}
}

func mustCreate(t *testing.T, svc *events.Service, scope actor.Scope, who actor.MemberRef, name string) *events.EventView {
	t.Helper()
	ev, err := svc.Create(context.Background(), scope, who, events.CreateInput{GameName: "Catan", EventName: name})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	return ev
}

func mustJoin(t *testing.T, svc *events.Service, host, member actor.MemberRef, eventID uuid.UUID, role models.MembershipRole) {
	t.Helper()
	ctx := context.Background()
	if _, err := svc.Invite(ctx, personal, host, eventID, member, role); err != nil {
		t.Fatalf("invite: %v", err)
	}
	if _, err := svc.Accept(ctx, personal, member, eventID); err != nil {
		t.Fatalf("accept: %v", err)
	}
}

func ptr[T any](v T) *T { return &v }

func TestCreateMakesCreatorAcceptedHost(t *testing.T) {
	db := storetest.Open(t)
	svc := events.New(db)
	alice := newUser(t, db, "alice")

	ev := mustCreate(t, svc, personal, alice, "Friday night")
	if ev.Status != models.EventStatusPlanning || ev.PlanVersion != 1 {
		t.Fatalf("status/version = %s/%d, want PLANNING/1", ev.Status, ev.PlanVersion)
	}
	if ev.MyMembership == nil || ev.MyMembership.Role != models.RoleHost || ev.MyMembership.Status != models.MembershipAccepted {
		t.Fatalf("my membership = %+v, want accepted host", ev.MyMembership)
	}
	if len(ev.Hosts) != 1 || ev.Hosts[0].Username != "alice" {
		t.Fatalf("hosts = %+v", ev.Hosts)
	}
	if ev.Counts.AcceptedHosts != 1 || ev.ChannelID != nil {
		t.Fatalf("counts = %+v channel = %v", ev.Counts, ev.ChannelID)
	}
}

func TestCreateValidation(t *testing.T) {
	db := storetest.Open(t)
	svc := events.New(db)
	alice := newUser(t, db, "alice")
	ctx := context.Background()

	_, err := svc.Create(ctx, personal, alice, events.CreateInput{GameName: "Catan"})
	wantKind(t, err, apperr.KindValidation)

	_, err = svc.Create(ctx, personal, alice, events.CreateInput{EventName: "x"})
	wantKind(t, err, apperr.KindValidation)

	missing := uuid.New()
	_, err = svc.Create(ctx, personal, alice, events.CreateInput{GameID: &missing, EventName: "x"})
	wantKind(t, err, apperr.KindNotFound)

	_, err = svc.Create(ctx, personal, actor.AppUser(uuid.New()), events.CreateInput{GameName: "Catan", EventName: "x"})
	wantKind(t, err, apperr.KindNotFound)

	_, err = svc.Create(ctx, personal, actor.External(models.SourceDiscord, "42"), events.CreateInput{GameName: "Catan", EventName: "x"})
	wantKind(t, err, apperr.KindInvalidActor)
}

func TestCreateUsesGameName(t *testing.T) {
	db := storetest.Open(t)
	svc := events.New(db)
	alice := newUser(t, db, "alice")
	game := &models.Game{Name: "Gloomhaven"}
	if err := store.CreateGame(db, game); err != nil {
		t.Fatalf("create game: %v", err)
	}
	ev, err := svc.Create(context.Background(), personal, alice, events.CreateInput{GameID: &game.ID, GameName: "ignored", EventName: "Campaign"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if ev.GameName != "Gloomhaven" || ev.GameID == nil || *ev.GameID != game.ID {
		t.Fatalf("game = %v %q", ev.GameID, ev.GameName)
	}
}

func TestExampleScenario(t *testing.T) {
	db := storetest.Open(t)
	svc := events.New(db)
	ctx := context.Background()
	a := newUser(t, db, "a")
	b := newUser(t, db, "b")

	ev := mustCreate(t, svc, personal, a, "E")
	inv, err := svc.Invite(ctx, personal, a, ev.ID, b, models.RoleAttendee)
	if err != nil {
		t.Fatalf("invite: %v", err)
	}
	if inv.Status != models.MembershipPending {
		t.Fatalf("invite status = %s, want PENDING", inv.Status)
	}
	if _, err := svc.Accept(ctx, personal, b, ev.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	updated, err := svc.UpdatePlan(ctx, personal, a, ev.ID, events.PlanUpdate{LocationOrLink: ptr("Discord #voice")})
	if err != nil {
		t.Fatalf("update plan: %v", err)
	}
	if updated.PlanVersion != 2 {
		t.Fatalf("plan version = %d, want 2", updated.PlanVersion)
	}

	wantKind(t, svc.Leave(ctx, personal, a, ev.ID), apperr.KindConflict)

	_, err = svc.Invite(ctx, personal, a, ev.ID, b, models.RoleHost)
	wantKind(t, err, apperr.KindConflict)

	got, err := svc.Get(ctx, personal, a, ev.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Counts.AcceptedHosts != 1 || got.Counts.AcceptedAttendees != 1 {
		t.Fatalf("counts = %+v", got.Counts)
	}
}

func TestInviteIsIdempotentWhilePending(t *testing.T) {
	db := storetest.Open(t)
	svc := events.New(db)
	ctx := context.Background()
	a := newUser(t, db, "a")
	b := newUser(t, db, "b")
	ev := mustCreate(t, svc, personal, a, "E")

	first, err := svc.Invite(ctx, personal, a, ev.ID, b, models.RoleAttendee)
	if err != nil {
		t.Fatalf("first invite: %v", err)
	}
	before, _ := store.FindMembership(db, ev.ID, b.Key())

	second, err := svc.Invite(ctx, personal, a, ev.ID, b, models.RoleHost)
	if err != nil {
		t.Fatalf("second invite: %v", err)
	}
	after, _ := store.FindMembership(db, ev.ID, b.Key())

	if second.Role != first.Role || second.Role != models.RoleAttendee {
		t.Fatalf("role changed: %s -> %s", first.Role, second.Role)
	}
	if !before.CreatedAt.Equal(after.CreatedAt) {
		t.Fatalf("created_at changed: %v -> %v", before.CreatedAt, after.CreatedAt)
	}
	var n int64
	db.Model(&models.EventMembership{}).Where("event_id = ?", ev.ID).Count(&n)
	if n != 2 {
		t.Fatalf("membership rows = %d, want 2", n)
	}
}

func TestInviteAuthorization(t *testing.T) {
	db := storetest.Open(t)
	svc := events.New(db)
	ctx := context.Background()
	host := newUser(t, db, "host")
	att := newUser(t, db, "att")
	pending := newUser(t, db, "pending")
	stranger := newUser(t, db, "stranger")
	target := newUser(t, db, "target")

	ev := mustCreate(t, svc, personal, host, "E")
	mustJoin(t, svc, host, att, ev.ID, models.RoleAttendee)
	if _, err := svc.Invite(ctx, personal, host, ev.ID, pending, models.RoleAttendee); err != nil {
		t.Fatalf("invite pending: %v", err)
	}

	tests := []struct {
		name string
		who  actor.MemberRef
		id   uuid.UUID
		inv  actor.MemberRef
		role models.MembershipRole
		want apperr.Kind
	}{
		{"missing event", host, uuid.New(), target, models.RoleAttendee, apperr.KindNotFound},
		{"stranger cannot see event", stranger, ev.ID, target, models.RoleAttendee, apperr.KindNotFound},
		{"pending member", pending, ev.ID, target, models.RoleAttendee, apperr.KindForbidden},
		{"attendee invites host", att, ev.ID, target, models.RoleHost, apperr.KindForbidden},
		{"unknown user", host, ev.ID, actor.AppUser(uuid.New()), models.RoleAttendee, apperr.KindNotFound},
		{"bad role", host, ev.ID, target, models.MembershipRole("OWNER"), apperr.KindValidation},
		{"external in personal scope", host, ev.ID, actor.External(models.SourceDiscord, "1"), models.RoleAttendee, apperr.KindInvalidActor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Invite(ctx, personal, tt.who, tt.id, tt.inv, tt.role)
			wantKind(t, err, tt.want)
		})
	}

	if _, err := svc.Invite(ctx, personal, att, ev.ID, target, models.RoleAttendee); err != nil {
		t.Fatalf("attendee inviting attendee: %v", err)
	}
}

func TestAcceptDeclineLeave(t *testing.T) {
	db := storetest.Open(t)
	svc := events.New(db)
	ctx := context.Background()
	a := newUser(t, db, "a")
	b := newUser(t, db, "b")
	c := newUser(t, db, "c")
	ev := mustCreate(t, svc, personal, a, "E")

	_, err := svc.Accept(ctx, personal, b, ev.ID)
	wantKind(t, err, apperr.KindNotFound)
	wantKind(t, svc.Decline(ctx, personal, b, ev.ID), apperr.KindNotFound)
	wantKind(t, svc.Leave(ctx, personal, b, ev.ID), apperr.KindNotFound)

	if _, err := svc.Invite(ctx, personal, a, ev.ID, b, models.RoleAttendee); err != nil {
		t.Fatalf("invite: %v", err)
	}
	if err := svc.Decline(ctx, personal, b, ev.ID); err != nil {
		t.Fatalf("decline: %v", err)
	}
	if m, _ := store.FindMembership(db, ev.ID, b.Key()); m != nil {
		t.Fatalf("declined membership still present: %+v", m)
	}

	mustJoin(t, svc, a, c, ev.ID, models.RoleHost)
	_, err = svc.Accept(ctx, personal, c, ev.ID)
	wantKind(t, err, apperr.KindNotFound)
	wantKind(t, svc.Decline(ctx, personal, c, ev.ID), apperr.KindNotFound)

	if err := svc.Leave(ctx, personal, a, ev.ID); err != nil {
		t.Fatalf("leave with co-host: %v", err)
	}
	wantKind(t, svc.Leave(ctx, personal, c, ev.ID), apperr.KindConflict)
	if m, _ := store.FindMembership(db, ev.ID, c.Key()); m == nil {
		t.Fatal("last host was removed")
	}
}

func TestUpdatePlanVersioning(t *testing.T) {
	db := storetest.Open(t)
	svc := events.New(db)
	ctx := context.Background()
	a := newUser(t, db, "a")
	b := newUser(t, db, "b")
	ev := mustCreate(t, svc, personal, a, "E")
	mustJoin(t, svc, a, b, ev.ID, models.RoleAttendee)

	when := time.Date(2030, 5, 1, 19, 0, 0, 0, time.UTC)
	steps := []struct {
		name string
		upd  events.PlanUpdate
		want int
	}{
		{"empty update", events.PlanUpdate{}, 1},
		{"same name", events.PlanUpdate{EventName: ptr("E")}, 1},
		{"new time", events.PlanUpdate{EventDatetime: &when}, 2},
		{"same time", events.PlanUpdate{EventDatetime: ptr(when.In(time.FixedZone("x", 3600)))}, 2},
		{"two fields", events.PlanUpdate{EventName: ptr("E2"), LocationOrLink: ptr("here")}, 3},
		{"same two fields", events.PlanUpdate{EventName: ptr("E2"), LocationOrLink: ptr("here")}, 3},
		{"location only", events.PlanUpdate{LocationOrLink: ptr("there")}, 4},
	}
	for _, st := range steps {
		got, err := svc.UpdatePlan(ctx, personal, a, ev.ID, st.upd)
		if err != nil {
			t.Fatalf("%s: %v", st.name, err)
		}
		if got.PlanVersion != st.want {
			t.Fatalf("%s: plan version = %d, want %d", st.name, got.PlanVersion, st.want)
		}
	}

	_, err := svc.UpdatePlan(ctx, personal, b, ev.ID, events.PlanUpdate{EventName: ptr("mine")})
	wantKind(t, err, apperr.KindForbidden)
	_, err = svc.UpdatePlan(ctx, personal, a, ev.ID, events.PlanUpdate{EventName: ptr("  ")})
	wantKind(t, err, apperr.KindValidation)
	_, err = svc.UpdatePlan(ctx, personal, a, uuid.New(), events.PlanUpdate{EventName: ptr("x")})
	wantKind(t, err, apperr.KindNotFound)
}

func TestConfirmPlanStaleness(t *testing.T) {
	db := storetest.Open(t)
	svc := events.New(db)
	ctx := context.Background()
	a := newUser(t, db, "a")
	b := newUser(t, db, "b")
	c := newUser(t, db, "c")
	ev := mustCreate(t, svc, personal, a, "E")
	mustJoin(t, svc, a, b, ev.ID, models.RoleAttendee)

	m, err := svc.ConfirmPlan(ctx, personal, b, ev.ID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if m.ConfirmedPlanVersion == nil || *m.ConfirmedPlanVersion != 1 || m.Stale {
		t.Fatalf("confirmed = %+v, want version 1 and fresh", m)
	}

	if _, err := svc.UpdatePlan(ctx, personal, a, ev.ID, events.PlanUpdate{LocationOrLink: ptr("new place")}); err != nil {
		t.Fatalf("update: %v", err)
	}
	view, _ := svc.Get(ctx, personal, b, ev.ID)
	if view.IsConfirmedForPlan || !view.MyMembership.Stale {
		t.Fatalf("member should be stale after plan change: %+v", view.MyMembership)
	}

	if _, err := svc.ConfirmPlan(ctx, personal, b, ev.ID); err != nil {
		t.Fatalf("reconfirm: %v", err)
	}
	view, _ = svc.Get(ctx, personal, b, ev.ID)
	if !view.IsConfirmedForPlan || *view.MyMembership.ConfirmedPlanVersion != 2 {
		t.Fatalf("after reconfirm = %+v", view.MyMembership)
	}

	if _, err := svc.Invite(ctx, personal, a, ev.ID, c, models.RoleAttendee); err != nil {
		t.Fatalf("invite: %v", err)
	}
	_, err = svc.ConfirmPlan(ctx, personal, c, ev.ID)
	wantKind(t, err, apperr.KindForbidden)
}

func TestSetStatusAndCancelledLockout(t *testing.T) {
	db := storetest.Open(t)
	svc := events.New(db)
	ctx := context.Background()
	a := newUser(t, db, "a")
	b := newUser(t, db, "b")
	c := newUser(t, db, "c")
	d := newUser(t, db, "d")
	ev := mustCreate(t, svc, personal, a, "E")
	mustJoin(t, svc, a, b, ev.ID, models.RoleAttendee)
	if _, err := svc.Invite(ctx, personal, a, ev.ID, c, models.RoleAttendee); err != nil {
		t.Fatalf("invite c: %v", err)
	}

	_, err := svc.SetStatus(ctx, personal, b, ev.ID, models.EventStatusCancelled)
	wantKind(t, err, apperr.KindForbidden)
	_, err = svc.SetStatus(ctx, personal, a, ev.ID, models.EventStatus("DONE"))
	wantKind(t, err, apperr.KindValidation)

	for _, st := range []models.EventStatus{models.EventStatusConfirmed, models.EventStatusPlanning, models.EventStatusCancelled} {
		got, err := svc.SetStatus(ctx, personal, a, ev.ID, st)
		if err != nil {
			t.Fatalf("set %s: %v", st, err)
		}
		if got.Status != st {
			t.Fatalf("status = %s, want %s", got.Status, st)
		}
	}

	_, err = svc.Invite(ctx, personal, a, ev.ID, d, models.RoleAttendee)
	wantKind(t, err, apperr.KindConflict)
	_, err = svc.Accept(ctx, personal, c, ev.ID)
	wantKind(t, err, apperr.KindConflict)
	_, err = svc.PostMessage(ctx, personal, b, ev.ID, "still on?")
	wantKind(t, err, apperr.KindConflict)

	if _, err := svc.Get(ctx, personal, b, ev.ID); err != nil {
		t.Fatalf("get cancelled: %v", err)
	}
	if _, err := svc.ListMessages(ctx, personal, b, ev.ID, nil, 0); err != nil {
		t.Fatalf("list messages cancelled: %v", err)
	}
	if err := svc.Decline(ctx, personal, c, ev.ID); err != nil {
		t.Fatalf("decline cancelled: %v", err)
	}
	if err := svc.Leave(ctx, personal, b, ev.ID); err != nil {
		t.Fatalf("leave cancelled: %v", err)
	}

	list, _ := svc.List(ctx, personal, a, events.ListFilter{})
	if len(list) != 0 {
		t.Fatalf("cancelled event listed by default")
	}
	list, _ = svc.List(ctx, personal, a, events.ListFilter{IncludeCancelled: true})
	if len(list) != 1 {
		t.Fatalf("list with cancelled = %d, want 1", len(list))
	}
	cancelled := models.EventStatusCancelled
	list, _ = svc.List(ctx, personal, a, events.ListFilter{Status: &cancelled})
	if len(list) != 1 {
		t.Fatalf("list status=CANCELLED = %d, want 1", len(list))
	}
}

func TestDeleteRequiresHost(t *testing.T) {
	db := storetest.Open(t)
	svc := events.New(db)
	ctx := context.Background()
	a := newUser(t, db, "a")
	b := newUser(t, db, "b")
	ev := mustCreate(t, svc, personal, a, "E")
	mustJoin(t, svc, a, b, ev.ID, models.RoleAttendee)
	if _, err := svc.PostMessage(ctx, personal, b, ev.ID, "hi"); err != nil {
		t.Fatalf("post: %v", err)
	}

	wantKind(t, svc.Delete(ctx, personal, b, ev.ID), apperr.KindForbidden)
	if err := svc.Delete(ctx, personal, a, ev.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, err := svc.Get(ctx, personal, a, ev.ID)
	wantKind(t, err, apperr.KindNotFound)

	var n int64
	db.Model(&models.EventMessage{}).Where("event_id = ?", ev.ID).Count(&n)
	if n != 0 {
		t.Fatalf("messages left after delete: %d", n)
	}
}

func TestVisibilityIsSound(t *testing.T) {
	db := storetest.Open(t)
	svc := events.New(db)
	ctx := context.Background()
	host := newUser(t, db, "host")
	friend := newUser(t, db, "friend")
	pendingFriend := newUser(t, db, "pf")
	viewer := newUser(t, db, "viewer")
	stranger := newUser(t, db, "stranger")

	ev := mustCreate(t, svc, personal, host, "E")
	befriend(t, db, viewer, friend)
	befriend(t, db, stranger, pendingFriend)
	mustJoin(t, svc, host, friend, ev.ID, models.RoleAttendee)
	if _, err := svc.Invite(ctx, personal, host, ev.ID, pendingFriend, models.RoleAttendee); err != nil {
		t.Fatalf("invite: %v", err)
	}

	got, err := svc.Get(ctx, personal, viewer, ev.ID)
	if err != nil {
		t.Fatalf("friend-of-member get: %v", err)
	}
	if got.MyMembership != nil {
		t.Fatalf("viewer has no membership, got %+v", got.MyMembership)
	}
	list, _ := svc.List(ctx, personal, viewer, events.ListFilter{})
	if len(list) != 1 {
		t.Fatalf("friend list = %d, want 1", len(list))
	}
	list, _ = svc.List(ctx, personal, viewer, events.ListFilter{MembersOnly: true})
	if len(list) != 0 {
		t.Fatalf("members-only list = %d, want 0", len(list))
	}

	// A pending friend membership grants nothing.
	_, err = svc.Get(ctx, personal, stranger, ev.ID)
	wantKind(t, err, apperr.KindNotFound)
	list, _ = svc.List(ctx, personal, stranger, events.ListFilter{})
	if len(list) != 0 {
		t.Fatalf("stranger list = %d, want 0", len(list))
	}

	// Pending invitees see the event they were invited to.
	if _, err := svc.Get(ctx, personal, pendingFriend, ev.ID); err != nil {
		t.Fatalf("pending invitee get: %v", err)
	}

	// Seeing is not acting.
	_, err = svc.PostMessage(ctx, personal, viewer, ev.ID, "hi")
	wantKind(t, err, apperr.KindForbidden)
	_, err = svc.ListMessages(ctx, personal, viewer, ev.ID, nil, 0)
	wantKind(t, err, apperr.KindForbidden)
}

func TestListPagination(t *testing.T) {
	db := storetest.Open(t)
	svc := events.New(db)
	ctx := context.Background()
	a := newUser(t, db, "a")
	for _, name := range []string{"one", "two", "three"} {
		mustCreate(t, svc, personal, a, name)
	}
	page, err := svc.List(ctx, personal, a, events.ListFilter{Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	rest, _ := svc.List(ctx, personal, a, events.ListFilter{Limit: 2, Offset: 2})
	if len(page) != 2 || len(rest) != 1 {
		t.Fatalf("pages = %d+%d, want 2+1", len(page), len(rest))
	}
	for _, v := range page {
		if v.ID == rest[0].ID {
			t.Fatalf("event %s on both pages", v.ID)
		}
	}
}

func TestChannelScope(t *testing.T) {
	db := storetest.Open(t)
	svc := events.New(db)
	ctx := context.Background()
	scope := actor.Channel("chan-1", models.SourceDiscord, []string{"111", "222", "444"}).
		WithLabels(map[string]string{"111": "Ann", "222": "Ben"})
	other := actor.Channel("chan-2", models.SourceDiscord, nil)

	ann, _ := actor.Resolve("111", scope)
	ben, _ := actor.Resolve("discord:222", scope)
	dee, _ := actor.Resolve("444", scope)

	ev := mustCreate(t, svc, scope, ann, "Raid")
	if ev.ChannelID == nil || *ev.ChannelID != "chan-1" {
		t.Fatalf("channel id = %v, want chan-1", ev.ChannelID)
	}
	if ev.Hosts[0].DisplayName != "Ann" {
		t.Fatalf("host display name = %q, want Ann", ev.Hosts[0].DisplayName)
	}

	if _, err := svc.Invite(ctx, scope, ann, ev.ID, ben, models.RoleAttendee); err != nil {
		t.Fatalf("invite ben: %v", err)
	}
	_, err := svc.Invite(ctx, scope, ann, ev.ID, actor.External(models.SourceDiscord, "333"), models.RoleAttendee)
	wantKind(t, err, apperr.KindValidation)

	// Channel members see every channel event without a membership.
	list, err := svc.List(ctx, scope, dee, events.ListFilter{})
	if err != nil || len(list) != 1 {
		t.Fatalf("channel list = %d, %v; want 1", len(list), err)
	}
	if _, err := svc.PostMessage(ctx, scope, dee, ev.ID, "can I join?"); apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("non-member post err = %v, want forbidden", err)
	}

	_, err = svc.Get(ctx, other, ann, ev.ID)
	wantKind(t, err, apperr.KindNotFound)
	list, _ = svc.List(ctx, other, ann, events.ListFilter{})
	if len(list) != 0 {
		t.Fatalf("other channel sees %d events", len(list))
	}

	// App users that are friends of channel members do not see channel events.
	alice := newUser(t, db, "alice")
	if _, err := svc.Invite(ctx, scope, ann, ev.ID, alice, models.RoleAttendee); err != nil {
		t.Fatalf("invite app user: %v", err)
	}
	if _, err := svc.Accept(ctx, scope, alice, ev.ID); err != nil {
		t.Fatalf("app user accept: %v", err)
	}
	bob := newUser(t, db, "bob")
	befriend(t, db, alice, bob)
	_, err = svc.Get(ctx, personal, bob, ev.ID)
	wantKind(t, err, apperr.KindNotFound)
	if _, err := svc.Get(ctx, personal, alice, ev.ID); err != nil {
		t.Fatalf("member sees channel event in personal scope: %v", err)
	}

	if _, err := svc.Accept(ctx, scope, ben, ev.ID); err != nil {
		t.Fatalf("ben accept: %v", err)
	}
	view, _ := svc.Get(ctx, scope, ben, ev.ID)
	if view.Counts.AcceptedAttendees != 2 || view.Attendees[0].DisplayName == "" {
		t.Fatalf("view = %+v", view)
	}
}

func TestMessages(t *testing.T) {
	db := storetest.Open(t)
	svc := events.New(db)
	ctx := context.Background()
	a := newUser(t, db, "a")
	b := newUser(t, db, "b")
	ev := mustCreate(t, svc, personal, a, "E")
	mustJoin(t, svc, a, b, ev.ID, models.RoleAttendee)

	_, err := svc.PostMessage(ctx, personal, a, ev.ID, "   ")
	wantKind(t, err, apperr.KindValidation)

	var posted []uuid.UUID
	for _, text := range []string{"one", "two", "three", "four"} {
		m, err := svc.PostMessage(ctx, personal, b, ev.ID, text)
		if err != nil {
			t.Fatalf("post %q: %v", text, err)
		}
		if m.MessageType != models.MessageUser || m.AuthorKey == nil || *m.AuthorKey != b.Key() {
			t.Fatalf("message = %+v", m)
		}
		posted = append(posted, m.ID)
	}

	page, err := svc.ListMessages(ctx, personal, a, ev.ID, nil, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != 2 || page[0].Content != "four" || page[1].Content != "three" {
		t.Fatalf("first page = %+v", page)
	}
	older, _ := svc.ListMessages(ctx, personal, a, ev.ID, &page[1].ID, 10)
	if len(older) != 2 || older[0].Content != "two" || older[1].Content != "one" {
		t.Fatalf("older page = %+v", older)
	}

	if _, err := svc.UpdatePlan(ctx, personal, a, ev.ID, events.PlanUpdate{EventName: ptr("Renamed")}); err != nil {
		t.Fatalf("update: %v", err)
	}
	latest, _ := svc.ListMessages(ctx, personal, a, ev.ID, nil, 1)
	if len(latest) != 1 || latest[0].MessageType != models.MessageSystem || latest[0].AuthorKey != nil {
		t.Fatalf("latest = %+v, want system message", latest)
	}

	sys, err := svc.PostSystemMessage(ctx, ev.ID, "Reminder: bring snacks")
	if err != nil {
		t.Fatalf("system message: %v", err)
	}
	if sys.MessageType != models.MessageSystem {
		t.Fatalf("system message type = %s", sys.MessageType)
	}
	_, err = svc.PostSystemMessage(ctx, uuid.New(), "x")
	wantKind(t, err, apperr.KindNotFound)
}

func TestNotificationsPublishedAfterCommit(t *testing.T) {
	db := storetest.Open(t)
	rec := &notify.Recorder{}
	svc := events.New(db, events.WithPublisher(rec))
	ctx := context.Background()
	a := newUser(t, db, "a")
	b := newUser(t, db, "b")

	ev := mustCreate(t, svc, personal, a, "E")
	mustJoin(t, svc, a, b, ev.ID, models.RoleAttendee)
	// Failed and idempotent operations publish nothing.
	_ = svc.Leave(ctx, personal, a, ev.ID)
	if _, err := svc.UpdatePlan(ctx, personal, a, ev.ID, events.PlanUpdate{EventName: ptr("E")}); err != nil {
		t.Fatalf("noop update: %v", err)
	}
	if _, err := svc.UpdatePlan(ctx, personal, a, ev.ID, events.PlanUpdate{EventName: ptr("E2")}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := svc.Delete(ctx, personal, a, ev.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	want := []string{
		notify.EventCreated,
		notify.MembershipInvited,
		notify.MembershipAccepted,
		notify.EventPlanUpdated,
		notify.EventDeleted,
	}
	got := rec.Keys()
	if len(got) != len(want) {
		t.Fatalf("keys = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("keys = %v, want %v", got, want)
		}
	}
	if msg := rec.Messages()[1]; msg.Subject != b.Key() || msg.EventID != ev.ID.String() {
		t.Fatalf("invite message = %+v", msg)
	}
	if msg := rec.Messages()[1]; msg.Data["role"] != string(models.RoleAttendee) {
		t.Fatalf("invite data = %v", msg.Data)
	}
	if msg := rec.Messages()[3]; msg.Data["plan_version"] != "2" || msg.Data["changed"] != "name" {
		t.Fatalf("plan update data = %v", msg.Data)
	}
}

func TestOperationsRejectEmptyActor(t *testing.T) {
	db := storetest.Open(t)
	svc := events.New(db)
	_, err := svc.Get(context.Background(), personal, actor.MemberRef{}, uuid.New())
	if !errors.Is(err, apperr.ErrInvalidActor) {
		t.Fatalf("err = %v, want invalid actor", err)
	}
}
