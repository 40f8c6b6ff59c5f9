package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/yuqie6/SkillBridge/internal/pkg/apperrors"
	"github.com/yuqie6/SkillBridge/internal/schema"
)

func TestMeetupCode_RoundTrip(t *testing.T) {
	f := newFixture(t)
	code := MeetupCode("alice", f.now)
	if code != fmt.Sprintf("skillbridge://meet/alice/%d", f.now.UnixMilli()) {
		t.Fatalf("code=%s", code)
	}
	owner, at, err := ParseMeetupCode(code)
	if err != nil || owner != "alice" || !at.Equal(f.now) {
		t.Fatalf("owner=%s at=%v err=%v", owner, at, err)
	}
	for _, bad := range []string{"", "skillbridge://meet/alice", "http://meet/alice/1", "skillbridge://meet/a/b/1"} {
		if _, _, err := ParseMeetupCode(bad); !errors.Is(err, apperrors.ErrValidation) {
			t.Errorf("ParseMeetupCode(%q) err=%v, want ErrValidation", bad, err)
		}
	}
}

func TestRecordMeetup_CreditsBothOnce(t *testing.T) {
	f := newFixture(t)
	f.user("alice", "Engineering")
	f.user("bob", "Design")

	_, err := f.activities.RecordMeetup(f.ctx, MeetupInput{ScannerID: "alice", Code: MeetupCode("alice", f.now)})
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("self scan err=%v, want ErrValidation", err)
	}

	code := MeetupCode("bob", f.now)
	written, err := f.activities.RecordMeetup(f.ctx, MeetupInput{ScannerID: "alice", Code: code, Rating: 5, Notes: "coffee"})
	if err != nil {
		t.Fatalf("RecordMeetup error: %v", err)
	}
	if len(written) != 2 {
		t.Fatalf("written=%d, want 2", len(written))
	}
	if _, err := f.activities.RecordMeetup(f.ctx, MeetupInput{ScannerID: "alice", Code: code}); !errors.Is(err, apperrors.ErrStaleState) {
		t.Fatalf("rescan err=%v, want ErrStaleState", err)
	}
	if f.points("alice") != 10 || f.points("bob") != 10 {
		t.Fatalf("points alice=%d bob=%d, want 10/10", f.points("alice"), f.points("bob"))
	}
	if _, err := f.activities.RecordMeetup(f.ctx, MeetupInput{ScannerID: "alice", Code: code, Rating: 9}); !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("bad rating err=%v, want ErrValidation", err)
	}
}

func TestLogSwap_GrantsKnowledgeExchanger(t *testing.T) {
	f := newFixture(t)
	f.user("alice", "Engineering")
	f.user("bob", "Design")

	if _, err := f.activities.LogSwap(f.ctx, SwapInput{TeacherID: "alice", LearnerID: "alice", SkillTaught: "Go"}); !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("self swap err=%v, want ErrValidation", err)
	}
	for i := 0; i < 3; i++ {
		if f.hasBadge("alice", BadgeKnowledgeExchanger) {
			t.Fatalf("badge granted after %d swaps", i)
		}
		if _, err := f.activities.LogSwap(f.ctx, SwapInput{TeacherID: "alice", LearnerID: "bob", SkillTaught: "Go", Rating: 4}); err != nil {
			t.Fatalf("LogSwap error: %v", err)
		}
	}
	if !f.hasBadge("alice", BadgeKnowledgeExchanger) {
		t.Fatalf("knowledge exchanger not granted after 3 swaps")
	}
	if f.points("alice") != 45 || f.points("bob") != 0 {
		t.Fatalf("points alice=%d bob=%d, want 45/0", f.points("alice"), f.points("bob"))
	}
	swaps, _ := f.activities.Swaps(f.ctx, "bob")
	if len(swaps) != 3 {
		t.Fatalf("bob swaps=%d, want 3", len(swaps))
	}
}

func TestCompleteIcebreaker(t *testing.T) {
	f := newFixture(t)
	f.user("alice", "Engineering")

	e, err := f.activities.CompleteIcebreaker(f.ctx, IcebreakerInput{UserID: "alice", Module: "would_you_rather", QuestionID: "q1"})
	if err != nil || e.Points != 5 {
		t.Fatalf("event=%+v err=%v", e, err)
	}
	if _, err := f.activities.CompleteIcebreaker(f.ctx, IcebreakerInput{UserID: "alice", Module: "would_you_rather", QuestionID: "q1"}); !errors.Is(err, apperrors.ErrStaleState) {
		t.Fatalf("repeat err=%v, want ErrStaleState", err)
	}
	if _, err := f.activities.CompleteIcebreaker(f.ctx, IcebreakerInput{UserID: "alice", Module: "would_you_rather"}); err != nil {
		t.Fatalf("unkeyed icebreaker error: %v", err)
	}
	if f.points("alice") != 10 {
		t.Fatalf("points=%d, want 10", f.points("alice"))
	}
}

func TestEndorse(t *testing.T) {
	f := newFixture(t)
	f.user("alice", "Engineering", "go")
	f.user("bob", "Design", "figma")

	cases := []struct {
		name string
		in   EndorsementInput
		want error
	}{
		{"self", EndorsementInput{EndorserID: "alice", EndorsedUserID: "alice", SkillID: "go", Message: "great"}, apperrors.ErrValidation},
		{"no message", EndorsementInput{EndorserID: "alice", EndorsedUserID: "bob", SkillID: "figma", Message: "  "}, apperrors.ErrValidation},
		{"skill not listed", EndorsementInput{EndorserID: "alice", EndorsedUserID: "bob", SkillID: "go", Message: "great"}, apperrors.ErrValidation},
		{"unknown user", EndorsementInput{EndorserID: "alice", EndorsedUserID: "ghost", SkillID: "go", Message: "great"}, apperrors.ErrNotFound},
	}
	for _, tc := range cases {
		if _, err := f.activities.Endorse(f.ctx, tc.in); !errors.Is(err, tc.want) {
			t.Errorf("%s: err=%v, want %v", tc.name, err, tc.want)
		}
	}

	e, err := f.activities.Endorse(f.ctx, EndorsementInput{EndorserID: "alice", EndorsedUserID: "bob", SkillID: "figma", Message: "clean layouts"})
	if err != nil {
		t.Fatalf("Endorse error: %v", err)
	}
	if f.points("alice") != 5 || f.points("bob") != 10 {
		t.Fatalf("points alice=%d bob=%d, want 5/10", f.points("alice"), f.points("bob"))
	}
	notes, _ := f.notes.List(f.ctx, "bob", true, 0)
	if len(notes) != 1 || notes[0].Type != schema.NotifySkillEndorsement || notes[0].Payload.GetString("endorsement_id") != e.ID {
		t.Fatalf("notes=%+v", notes)
	}
	list, _ := f.activities.Endorsements(f.ctx, "bob")
	if len(list) != 1 {
		t.Fatalf("endorsements=%d, want 1", len(list))
	}
}

func TestLearningSessionLifecycle(t *testing.T) {
	f := newFixture(t)
	f.user("teacher", "Engineering")
	f.user("learner", "Design")
	f.user("other", "Ops")

	sess, err := f.activities.RequestSession(f.ctx, SessionRequestInput{LearnerID: "learner", TeacherID: "teacher", SkillTopic: "Go testing"})
	if err != nil {
		t.Fatalf("RequestSession error: %v", err)
	}
	if sess.Status != schema.SessionRequested || sess.SessionType != "virtual" || sess.DurationMinutes != 15 {
		t.Fatalf("sess=%+v", sess)
	}
	notes, _ := f.notes.List(f.ctx, "teacher", true, 0)
	if len(notes) != 1 || notes[0].Type != schema.NotifyLearningRequest {
		t.Fatalf("teacher notes=%+v", notes)
	}

	if _, err := f.activities.CompleteSession(f.ctx, "learner", sess.ID); !errors.Is(err, apperrors.ErrStaleState) {
		t.Fatalf("complete before accept err=%v, want ErrStaleState", err)
	}
	if _, err := f.activities.RespondSession(f.ctx, "learner", sess.ID, true); !errors.Is(err, apperrors.ErrNotAuthorized) {
		t.Fatalf("learner accept err=%v, want ErrNotAuthorized", err)
	}
	if _, err := f.activities.RespondSession(f.ctx, "teacher", sess.ID, true); err != nil {
		t.Fatalf("RespondSession error: %v", err)
	}
	if _, err := f.activities.CompleteSession(f.ctx, "other", sess.ID); !errors.Is(err, apperrors.ErrNotAuthorized) {
		t.Fatalf("outsider complete err=%v, want ErrNotAuthorized", err)
	}

	done, err := f.activities.CompleteSession(f.ctx, "learner", sess.ID)
	if err != nil || done.Status != schema.SessionCompleted {
		t.Fatalf("CompleteSession=%+v err=%v", done, err)
	}
	if _, err := f.activities.CompleteSession(f.ctx, "teacher", sess.ID); !errors.Is(err, apperrors.ErrStaleState) {
		t.Fatalf("second complete err=%v, want ErrStaleState", err)
	}
	if f.points("teacher") != 20 || f.points("learner") != 15 {
		t.Fatalf("points teacher=%d learner=%d, want 20/15", f.points("teacher"), f.points("learner"))
	}
	f.assertLedgerMatchesProfile("teacher")
	f.assertLedgerMatchesProfile("learner")
}

func TestLogSwap_CommittedWhenBadgeEvaluationFails(t *testing.T) {
	f := newFixture(t)
	f.user("alice", "Engineering", "go")
	f.user("bob", "Design")

	f.breakTable(&schema.BadgeGrant{})
	swap, err := f.activities.LogSwap(f.ctx, SwapInput{TeacherID: "alice", LearnerID: "bob", SkillTaught: "go"})
	if err != nil {
		t.Fatalf("LogSwap error: %v", err)
	}
	if swap == nil || swap.ID == "" {
		t.Fatalf("swap=%+v", swap)
	}
	if f.points("alice") != 15 {
		t.Fatalf("alice points=%d, want 15", f.points("alice"))
	}
}
