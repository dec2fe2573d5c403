package auth

import (
	"context"
	"testing"
)

func TestWithAuthFromContext(t *testing.T) {
	ac := AuthContext{UserID: 7, Username: "alice", Role: "user", SessionID: 3}
	ctx := WithAuth(context.Background(), ac)

	got, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected AuthContext in context")
	}
	if got != ac {
		t.Errorf("got %+v, want %+v", got, ac)
	}
}

func TestFromContextMissing(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Error("expected no AuthContext in empty context")
	}
}

func TestHelpers(t *testing.T) {
	empty := context.Background()
	if UserID(empty) != 0 {
		t.Error("UserID on empty context should be 0")
	}
	if Username(empty) != "" {
		t.Error("Username on empty context should be empty")
	}
	if IsAdmin(empty) {
		t.Error("IsAdmin on empty context should be false")
	}

	ctx := WithAuth(empty, AuthContext{UserID: 9, Username: "root", Role: "admin"})
	if UserID(ctx) != 9 {
		t.Errorf("UserID = %d, want 9", UserID(ctx))
	}
	if Username(ctx) != "root" {
		t.Errorf("Username = %q, want %q", Username(ctx), "root")
	}
	if !IsAdmin(ctx) {
		t.Error("expected admin")
	}
}
