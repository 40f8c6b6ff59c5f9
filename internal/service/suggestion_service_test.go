package service

import (
	"errors"
	"testing"
	"time"

	"github.com/yuqie6/SkillBridge/internal/pkg/apperrors"
	"github.com/yuqie6/SkillBridge/internal/schema"
)

func TestSuggestionGenerate_EndToEndScenario(t *testing.T) {
	f := newFixture(t)
	f.addProfile(ProfileInput{UserID: "a", Name: "A", Role: "Engineering", Skills: []string{"SQL", "Figma"}, LearningNow: "Public speaking"})
	f.addProfile(ProfileInput{UserID: "b", Name: "B", Role: "Design", Skills: []string{"SQL", "Excel"}, CanTeach: "Public speaking basics"})
	f.addProfile(ProfileInput{UserID: "c", Name: "C", Role: "Engineering", Skills: []string{"SQL"}}) // 20: not eligible

	rows, err := f.suggestions.Generate(f.ctx, "a")
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if len(rows) != 1 || rows[0].CandidateID != "b" || rows[0].Score != 70 {
		t.Fatalf("rows=%+v, want only b scoring 70", rows)
	}
	if rows[0].Cycle != "2026-10" || len(rows[0].Reasons) != 4 {
		t.Fatalf("row=%+v", rows[0])
	}

	views, err := f.suggestions.List(f.ctx, "a", "")
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(views) != 1 || views[0].Candidate.Name != "B" || views[0].Suggestion.Reasons[0] != "Shared 1 skills in common" {
		t.Fatalf("views=%+v", views)
	}
}

func TestSuggestionGenerate_TieKeepsProfileOrder(t *testing.T) {
	f := newFixture(t)
	f.user("me", "Engineering", "go")
	f.user("zed", "Design", "go")
	f.user("amy", "Ops", "go")
	f.user("kim", "Sales", "go")

	if _, err := f.suggestions.Generate(f.ctx, "me"); err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	views, _ := f.suggestions.List(f.ctx, "me", schema.SuggestionPending)
	if len(views) != 3 {
		t.Fatalf("views=%d, want 3", len(views))
	}
	want := []string{"zed", "amy", "kim"}
	for i, v := range views {
		if v.Suggestion.Score != 30 || v.Suggestion.CandidateID != want[i] {
			t.Fatalf("views[%d]=%s/%d, want %s/30", i, v.Suggestion.CandidateID, v.Suggestion.Score, want[i])
		}
	}
}

func TestSuggestionDismiss_ExcludedForCycle(t *testing.T) {
	f := newFixture(t)
	f.user("me", "Engineering", "go")
	f.user("bob", "Design", "go")

	rows, _ := f.suggestions.Generate(f.ctx, "me")
	if len(rows) != 1 {
		t.Fatalf("rows=%d, want 1", len(rows))
	}
	if err := f.suggestions.Dismiss(f.ctx, "bob", rows[0].ID); !errors.Is(err, apperrors.ErrNotAuthorized) {
		t.Fatalf("foreign dismiss err=%v, want ErrNotAuthorized", err)
	}
	if err := f.suggestions.Dismiss(f.ctx, "me", rows[0].ID); err != nil {
		t.Fatalf("Dismiss error: %v", err)
	}
	if err := f.suggestions.Dismiss(f.ctx, "me", rows[0].ID); !errors.Is(err, apperrors.ErrStaleState) {
		t.Fatalf("second dismiss err=%v, want ErrStaleState", err)
	}

	again, _ := f.suggestions.Generate(f.ctx, "me")
	if len(again) != 0 {
		t.Fatalf("dismissed candidate suggested again in the same cycle: %+v", again)
	}

	f.advance(31 * 24 * time.Hour)
	next, _ := f.suggestions.Generate(f.ctx, "me")
	if len(next) != 1 || next[0].Cycle != "2026-11" {
		t.Fatalf("next cycle rows=%+v, want bob again", next)
	}
}

func TestSuggestionConnect_CreatesSkillMatchRequest(t *testing.T) {
	f := newFixture(t)
	f.user("me", "Engineering", "go")
	f.user("bob", "Design", "go")
	f.user("cat", "Ops", "go")

	rows, _ := f.suggestions.Generate(f.ctx, "me")
	if len(rows) != 2 {
		t.Fatalf("rows=%d, want 2", len(rows))
	}
	req, err := f.suggestions.Connect(f.ctx, "me", rows[0].ID)
	if err != nil {
		t.Fatalf("Connect error: %v", err)
	}
	if req.ConnectionType != schema.ConnectionTypeSkillMatch || req.TargetID != rows[0].CandidateID || req.MatchScore != rows[0].Score {
		t.Fatalf("req=%+v", req)
	}

	connected, _ := f.suggestions.List(f.ctx, "me", schema.SuggestionConnected)
	if len(connected) != 1 {
		t.Fatalf("connected suggestions=%d, want 1", len(connected))
	}
	notes, _ := f.notes.List(f.ctx, rows[0].CandidateID, false, 0)
	if len(notes) != 1 || notes[0].Type != schema.NotifyConnectionRequest {
		t.Fatalf("notes=%+v", notes)
	}

	// pending request excludes the pair from the next generation
	again, _ := f.suggestions.Generate(f.ctx, "me")
	if len(again) != 1 || again[0].CandidateID != rows[1].CandidateID {
		t.Fatalf("again=%+v, want only %s", again, rows[1].CandidateID)
	}
}

func TestSuggestionConnect_DuplicateRollsBack(t *testing.T) {
	f := newFixture(t)
	f.user("me", "Engineering", "go")
	f.user("bob", "Design", "go")

	rows, _ := f.suggestions.Generate(f.ctx, "me")
	if _, err := f.connections.Request(f.ctx, ConnectionInput{RequesterID: "bob", TargetID: "me"}); err != nil {
		t.Fatalf("Request error: %v", err)
	}
	if _, err := f.suggestions.Connect(f.ctx, "me", rows[0].ID); !errors.Is(err, apperrors.ErrDuplicateRequest) {
		t.Fatalf("err=%v, want ErrDuplicateRequest", err)
	}
	pending, _ := f.suggestions.List(f.ctx, "me", schema.SuggestionPending)
	if len(pending) != 1 {
		t.Fatalf("suggestion should stay pending after a failed connect")
	}
}

func TestSuggestionList_SkipsVanishedCandidate(t *testing.T) {
	f := newFixture(t)
	f.user("me", "Engineering", "go")
	f.user("bob", "Design", "go")

	rows, _ := f.suggestions.Generate(f.ctx, "me")
	ghost := schema.MatchSuggestion{ID: "ghost-row", SubjectID: "me", CandidateID: "ghost", Score: 90, Status: schema.SuggestionPending, Cycle: "2026-10"}
	if err := f.store.Suggestions.ReplacePending(f.ctx, "me", append(rows, ghost)); err != nil {
		t.Fatalf("ReplacePending error: %v", err)
	}

	views, err := f.suggestions.List(f.ctx, "me", "")
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(views) != 1 || views[0].Candidate.UserID != "bob" {
		t.Fatalf("views=%+v, want only bob", views)
	}
}

func TestSuggestionGenerate_IndexDoesNotChangeResult(t *testing.T) {
	f := newFixture(t)
	f.addProfile(ProfileInput{UserID: "me", Name: "Me", Role: "Eng", Skills: []string{"A"}, LearningNow: "go"})
	for _, id := range []string{"f1", "f2", "f3"} {
		f.user(id, "Eng", "A") // 20: not eligible
	}
	f.addProfile(ProfileInput{UserID: "x", Name: "X", Role: "Design", Skills: []string{"Z"}, CanTeach: "golang"})

	exact, err := f.suggestions.Generate(f.ctx, "me")
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	f.suggestions.index = NewCandidateIndex(2)
	narrowed, err := f.suggestions.Generate(f.ctx, "me")
	if err != nil {
		t.Fatalf("Generate with index error: %v", err)
	}

	if len(exact) != 1 || exact[0].CandidateID != "x" || exact[0].Score != 50 {
		t.Fatalf("exact=%+v, want only x scoring 50", exact)
	}
	if len(narrowed) != len(exact) {
		t.Fatalf("narrowed=%d rows, exact=%d", len(narrowed), len(exact))
	}
	for i := range exact {
		if narrowed[i].CandidateID != exact[i].CandidateID || narrowed[i].Score != exact[i].Score || narrowed[i].Rank != exact[i].Rank {
			t.Fatalf("row %d: narrowed=%+v exact=%+v", i, narrowed[i], exact[i])
		}
	}
}
