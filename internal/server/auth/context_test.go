package auth

import (
	"context"
	"testing"
)

func TestUserIDFromContext(t *testing.T) {
	if _, ok := UserIDFromContext(context.Background()); ok {
		t.Fatal("expected no user in empty context")
	}

	ctx := WithUserID(context.Background(), 7)
	id, ok := UserIDFromContext(ctx)
	if !ok || id != 7 {
		t.Fatalf("expected user 7, got %d (%v)", id, ok)
	}

	if _, ok := UserIDFromContext(WithUserID(context.Background(), 0)); ok {
		t.Fatal("user id 0 must not count as authenticated")
	}
}
