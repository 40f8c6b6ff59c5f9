package service

import (
	"testing"

	"github.com/yuqie6/SkillBridge/internal/schema"
)

func TestLedgerReconcile_RepairsDrift(t *testing.T) {
	f := newFixture(t)
	f.user("alice", "Engineering")
	f.user("bob", "Design")
	f.connect("alice", "bob")

	if err := f.store.Profiles.SetPoints(f.ctx, "alice", 999); err != nil {
		t.Fatalf("SetPoints error: %v", err)
	}
	if err := f.store.Profiles.SetConnectionCount(f.ctx, "alice", 4); err != nil {
		t.Fatalf("SetConnectionCount error: %v", err)
	}

	res, err := f.ledger.Reconcile(f.ctx, "alice")
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	if !res.Repaired || res.ProfileTotal != 999 || res.LedgerTotal != 10 || res.AcceptedCount != 1 {
		t.Fatalf("res=%+v", res)
	}
	p := f.profile("alice")
	if p.TotalPoints != 10 || p.ConnectionCount != 1 {
		t.Fatalf("profile=%d/%d, want 10/1", p.TotalPoints, p.ConnectionCount)
	}

	all, err := f.ledger.ReconcileAll(f.ctx)
	if err != nil {
		t.Fatalf("ReconcileAll error: %v", err)
	}
	for _, r := range all {
		if r.Repaired {
			t.Fatalf("nothing should drift after repair: %+v", r)
		}
	}
}

func TestLedgerSummary(t *testing.T) {
	f := newFixture(t)
	f.user("alice", "Engineering", "go")
	f.user("bob", "Design")
	f.connect("bob", "alice")
	if _, err := f.activities.CompleteIcebreaker(f.ctx, IcebreakerInput{UserID: "alice", Module: "m", QuestionID: "q"}); err != nil {
		t.Fatalf("CompleteIcebreaker error: %v", err)
	}

	sum, err := f.ledger.Summary(f.ctx, "alice")
	if err != nil {
		t.Fatalf("Summary error: %v", err)
	}
	if sum.TotalPoints != 15 || sum.ByKind[schema.ActionConnect] != 10 || sum.ByKind[schema.ActionIcebreaker] != 5 {
		t.Fatalf("summary=%+v", sum)
	}
	if len(sum.Recent) != 2 {
		t.Fatalf("recent=%d, want 2", len(sum.Recent))
	}
	connects, _ := f.ledger.Events(f.ctx, "alice", schema.ActionConnect)
	if len(connects) != 1 {
		t.Fatalf("connect events=%d, want 1", len(connects))
	}
}
