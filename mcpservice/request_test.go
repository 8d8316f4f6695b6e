package mcpservice

import (
	"context"
	"net/http"
	"testing"
)

func TestRequest_Headers(t *testing.T) {
	h := http.Header{}
	h.Set("Authorization", "Bearer tok")
	req := NewRequest(WithHeaders(h))
	if req.Header("Authorization") != "Bearer tok" {
		t.Fatalf("unexpected header: %q", req.Header("Authorization"))
	}
	if req.Header("X-Missing") != "" {
		t.Fatal("missing header must be empty")
	}
}

func TestState_TypedAccess(t *testing.T) {
	req := NewRequest(WithState(map[string]any{"count": 3}))

	got, err := State[int](req, "count")
	if err != nil {
		t.Fatalf("State error: %v", err)
	}
	if got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
}

func TestState_MissingKey(t *testing.T) {
	req := NewRequest()
	_, err := State[int](req, "tracker")
	if err == nil {
		t.Fatal("expected error for unconfigured key")
	}
	if err.Error() != "Server error: State key tracker is not configured" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestState_WrongType(t *testing.T) {
	req := NewRequest(WithState(map[string]any{"tracker": "nope"}))
	_, err := State[int](req, "tracker")
	if err == nil {
		t.Fatal("expected error for mistyped value")
	}
	if err.Error() != "Server error: State key tracker has unexpected type string" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestContextWithState_CopyOnWrite(t *testing.T) {
	ctx := ContextWithState(context.Background(), "a", 1)
	child := ContextWithState(ctx, "b", 2)

	parentBag := StateFromContext(ctx)
	if len(parentBag) != 1 {
		t.Fatalf("parent bag mutated: %#v", parentBag)
	}
	childBag := StateFromContext(child)
	if childBag["a"] != 1 || childBag["b"] != 2 {
		t.Fatalf("unexpected child bag: %#v", childBag)
	}

	if StateFromContext(context.Background()) != nil {
		t.Fatal("empty context must yield nil bag")
	}
}
