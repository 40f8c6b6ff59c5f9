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

func TestLedgerAppendCreditsProfileTotal(t *testing.T) {
	store := NewStore(testutil.OpenTestDB(t))
	ctx := context.Background()
	seedProfile(t, store, "alice", "Engineering")

	now := time.Now().UnixMilli()
	written, err := store.Ledger.Append(ctx,
		schema.ActivityEvent{UserID: "alice", Kind: schema.ActionMeet, Points: 10, Timestamp: now},
		schema.ActivityEvent{UserID: "alice", Kind: schema.ActionIcebreaker, Points: 5, Timestamp: now + 1},
	)
	if err != nil {
		t.Fatalf("Append error: %v", err)
	}
	if len(written) != 2 {
		t.Fatalf("written=%d, want 2", len(written))
	}

	p, _ := store.Profiles.GetByUserID(ctx, "alice")
	sum, _ := store.Ledger.SumByUser(ctx, "alice")
	if p.TotalPoints != 15 || sum != 15 {
		t.Fatalf("profile total=%d ledger sum=%d, want 15/15", p.TotalPoints, sum)
	}
}

func TestLedgerAppendSkipsDuplicateDedupeKey(t *testing.T) {
	store := NewStore(testutil.OpenTestDB(t))
	ctx := context.Background()
	seedProfile(t, store, "alice", "Engineering")

	e := schema.ActivityEvent{UserID: "alice", Kind: schema.ActionConnect, Points: 10, Timestamp: 1, DedupeKey: strPtr("connect:r1:alice")}
	if _, err := store.Ledger.Append(ctx, e); err != nil {
		t.Fatalf("first Append error: %v", err)
	}
	written, err := store.Ledger.Append(ctx, e)
	if err != nil {
		t.Fatalf("second Append error: %v", err)
	}
	if len(written) != 0 {
		t.Fatalf("duplicate event written: %+v", written)
	}
	p, _ := store.Profiles.GetByUserID(ctx, "alice")
	if p.TotalPoints != 10 {
		t.Fatalf("total=%d, want 10", p.TotalPoints)
	}
	events, _ := store.Ledger.ListByUser(ctx, "alice", schema.ActionConnect)
	if len(events) != 1 || events[0].DedupeKey == nil || *events[0].DedupeKey != "connect:r1:alice" {
		t.Fatalf("events=%+v, want one keyed connect", events)
	}
}

func TestLedgerAppendWithoutProfileRollsBack(t *testing.T) {
	store := NewStore(testutil.OpenTestDB(t))
	ctx := context.Background()

	_, err := store.Ledger.Append(ctx, schema.ActivityEvent{UserID: "ghost", Kind: schema.ActionMeet, Points: 10, Timestamp: 1})
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("err=%v, want ErrNotFound", err)
	}
	events, _ := store.Ledger.ListByUser(ctx, "ghost")
	if len(events) != 0 {
		t.Fatalf("event persisted despite rollback: %+v", events)
	}
}

func TestLedgerListByUserOrdersByTimestamp(t *testing.T) {
	store := NewStore(testutil.OpenTestDB(t))
	ctx := context.Background()
	seedProfile(t, store, "alice", "Engineering")

	_, err := store.Ledger.Append(ctx,
		schema.ActivityEvent{UserID: "alice", Kind: schema.ActionConnect, Points: 10, Timestamp: 300},
		schema.ActivityEvent{UserID: "alice", Kind: schema.ActionMeet, Points: 10, Timestamp: 200},
		schema.ActivityEvent{UserID: "alice", Kind: schema.ActionConnect, Points: 10, Timestamp: 100},
	)
	if err != nil {
		t.Fatalf("Append error: %v", err)
	}

	connects, err := store.Ledger.ListByUser(ctx, "alice", schema.ActionConnect)
	if err != nil {
		t.Fatalf("ListByUser error: %v", err)
	}
	if len(connects) != 2 || connects[0].Timestamp != 100 || connects[1].Timestamp != 300 {
		t.Fatalf("connects=%+v, want ts 100 then 300", connects)
	}
	n, _ := store.Ledger.CountByKind(ctx, "alice", schema.ActionMeet)
	if n != 1 {
		t.Fatalf("meet count=%d, want 1", n)
	}
}
