package users_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"gamenight-backend/internal/apperr"
	"gamenight-backend/internal/models"
	"gamenight-backend/internal/store"
	"gamenight-backend/internal/store/storetest"
	"gamenight-backend/internal/users"
)

func newService(t *testing.T) *users.Service {
	t.Helper()
	return users.New(storetest.Open(t), nil).WithCost(bcrypt.MinCost)
}

func TestSignupAndAuthenticate(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	u, err := svc.Signup(ctx, users.SignupInput{Username: "alice", Email: "Alice@Example.com", Password: "password1"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if u.Email != "alice@example.com" {
		t.Fatalf("email = %q, want lowercased", u.Email)
	}
	if u.PasswordHash == "password1" {
		t.Fatal("password stored in clear")
	}

	for _, login := range []string{"alice", "ALICE@example.com"} {
		got, err := svc.Authenticate(ctx, login, "password1")
		if err != nil {
			t.Fatalf("authenticate %q: %v", login, err)
		}
		if got.ID != u.ID {
			t.Fatalf("authenticate %q returned %s, want %s", login, got.ID, u.ID)
		}
	}

	_, err = svc.Authenticate(ctx, "alice", "wrong-password")
	if apperr.KindOf(err) != apperr.KindUnauthenticated {
		t.Fatalf("wrong password err = %v", err)
	}
	_, err = svc.Authenticate(ctx, "nobody", "password1")
	if apperr.KindOf(err) != apperr.KindUnauthenticated {
		t.Fatalf("unknown user err = %v", err)
	}
}

func TestSignupValidation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	if _, err := svc.Signup(ctx, users.SignupInput{Username: "bob", Email: "bob@example.com", Password: "password1"}); err != nil {
		t.Fatalf("signup: %v", err)
	}

	tests := []struct {
		name string
		in   users.SignupInput
		want apperr.Kind
	}{
		{"short password", users.SignupInput{Username: "c", Email: "c@example.com", Password: "short"}, apperr.KindValidation},
		{"bad email", users.SignupInput{Username: "c", Email: "not-an-email", Password: "password1"}, apperr.KindValidation},
		{"bad username", users.SignupInput{Username: "a b", Email: "c@example.com", Password: "password1"}, apperr.KindValidation},
		{"duplicate username", users.SignupInput{Username: "bob", Email: "other@example.com", Password: "password1"}, apperr.KindConflict},
		{"duplicate email", users.SignupInput{Username: "bobby", Email: "BOB@example.com", Password: "password1"}, apperr.KindConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Signup(ctx, tt.in)
			if got := apperr.KindOf(err); got != tt.want {
				t.Fatalf("kind = %s (%v), want %s", got, err, tt.want)
			}
		})
	}
}

func TestFind(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	for _, name := range []string{"carol", "caroline", "dave"} {
		if _, err := svc.Signup(ctx, users.SignupInput{Username: name, Email: name + "@example.com", Password: "password1"}); err != nil {
			t.Fatalf("signup %s: %v", name, err)
		}
	}
	got, err := svc.Find(ctx, "CAROL", "", 0)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(got) != 2 || got[0].Username != "carol" {
		t.Fatalf("find carol = %+v", got)
	}
	got, _ = svc.Find(ctx, "carol", "caroline@", 0)
	if len(got) != 1 || got[0].Username != "caroline" {
		t.Fatalf("find both filters = %+v", got)
	}
	if _, err := svc.Find(ctx, "", "", 0); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("empty filter err = %v", err)
	}
}

func TestDeleteCascadesFriendships(t *testing.T) {
	db := storetest.Open(t)
	svc := users.New(db, nil).WithCost(bcrypt.MinCost)
	ctx := context.Background()
	a, _ := svc.Signup(ctx, users.SignupInput{Username: "a", Email: "a@example.com", Password: "password1"})
	b, _ := svc.Signup(ctx, users.SignupInput{Username: "b", Email: "b@example.com", Password: "password1"})
	now := time.Now().UTC()
	for _, f := range []models.Friendship{
		{UserID: a.ID, FriendUserID: b.ID, Status: models.FriendshipAccepted, RespondedAt: &now},
		{UserID: b.ID, FriendUserID: a.ID, Status: models.FriendshipAccepted, RespondedAt: &now},
	} {
		if err := store.CreateFriendship(db, &f); err != nil {
			t.Fatalf("friendship: %v", err)
		}
	}

	if err := svc.Delete(ctx, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if ids, _ := store.AcceptedFriendIDs(db, b.ID); len(ids) != 0 {
		t.Fatalf("friends of b after delete = %v", ids)
	}
	if _, err := svc.Get(ctx, a.ID); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("get deleted err = %v", err)
	}
	if err := svc.Delete(ctx, uuid.New()); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("delete unknown err = %v", err)
	}
}
