package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yuqie6/SkillBridge/internal/pkg/apperrors"
	"github.com/yuqie6/SkillBridge/internal/schema"
	"github.com/yuqie6/SkillBridge/internal/testutil"
)

func newRequest(id, from, to string) *schema.ConnectionRequest {
	now := time.Now()
	return &schema.ConnectionRequest{
		ID:             id,
		RequesterID:    from,
		TargetID:       to,
		Status:         schema.ConnectionPending,
		ConnectionType: schema.ConnectionTypeDirect,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestConnectionCreateRejectsActivePairEitherDirection(t *testing.T) {
	store := NewStore(testutil.OpenTestDB(t))
	ctx := context.Background()

	if err := store.Connections.Create(ctx, newRequest("r1", "alice", "bob")); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	err := store.Connections.Create(ctx, newRequest("r2", "bob", "alice"))
	if !errors.Is(err, apperrors.ErrDuplicateRequest) {
		t.Fatalf("reverse err=%v, want ErrDuplicateRequest", err)
	}
	err = store.Connections.Create(ctx, newRequest("r3", "alice", "bob"))
	if !errors.Is(err, apperrors.ErrDuplicateRequest) {
		t.Fatalf("same direction err=%v, want ErrDuplicateRequest", err)
	}
}

func TestConnectionDeclineFreesPair(t *testing.T) {
	store := NewStore(testutil.OpenTestDB(t))
	ctx := context.Background()

	if err := store.Connections.Create(ctx, newRequest("r1", "alice", "bob")); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	ok, err := store.Connections.Transition(ctx, "r1", schema.ConnectionPending, schema.ConnectionDeclined, time.Now())
	if err != nil || !ok {
		t.Fatalf("Transition ok=%v err=%v", ok, err)
	}
	if err := store.Connections.Create(ctx, newRequest("r2", "bob", "alice")); err != nil {
		t.Fatalf("re-request after decline error: %v", err)
	}
	active, _ := store.Connections.FindActiveBetween(ctx, "alice", "bob")
	if active == nil || active.ID != "r2" {
		t.Fatalf("active=%+v, want r2", active)
	}
}

func TestConnectionTransitionIsCompareAndSet(t *testing.T) {
	store := NewStore(testutil.OpenTestDB(t))
	ctx := context.Background()

	if err := store.Connections.Create(ctx, newRequest("r1", "alice", "bob")); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	first, _ := store.Connections.Transition(ctx, "r1", schema.ConnectionPending, schema.ConnectionAccepted, time.Now())
	second, _ := store.Connections.Transition(ctx, "r1", schema.ConnectionPending, schema.ConnectionAccepted, time.Now())
	if !first || second {
		t.Fatalf("first=%v second=%v, want true/false", first, second)
	}

	// Accepted still occupies the pair.
	err := store.Connections.Create(ctx, newRequest("r2", "bob", "alice"))
	if !errors.Is(err, apperrors.ErrDuplicateRequest) {
		t.Fatalf("err=%v, want ErrDuplicateRequest", err)
	}
	n, _ := store.Connections.CountAccepted(ctx, "bob")
	if n != 1 {
		t.Fatalf("accepted=%d, want 1", n)
	}
}

func TestConnectionListFilters(t *testing.T) {
	store := NewStore(testutil.OpenTestDB(t))
	ctx := context.Background()

	_ = store.Connections.Create(ctx, newRequest("r1", "alice", "bob"))
	_ = store.Connections.Create(ctx, newRequest("r2", "carol", "bob"))
	_ = store.Connections.Create(ctx, newRequest("r3", "alice", "dave"))
	_, _ = store.Connections.Transition(ctx, "r2", schema.ConnectionPending, schema.ConnectionDeclined, time.Now())

	incoming, err := store.Connections.List(ctx, ConnectionFilter{TargetID: "bob", Status: schema.ConnectionPending})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(incoming) != 1 || incoming[0].ID != "r1" {
		t.Fatalf("incoming=%+v, want r1", incoming)
	}
	sent, _ := store.Connections.List(ctx, ConnectionFilter{RequesterID: "alice"})
	if len(sent) != 2 {
		t.Fatalf("sent=%d, want 2", len(sent))
	}
	partners, _ := store.Connections.ActivePartners(ctx, "alice")
	if _, ok := partners["bob"]; !ok || len(partners) != 2 {
		t.Fatalf("partners=%v, want bob and dave", partners)
	}
}
