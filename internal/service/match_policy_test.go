package service

import (
	"errors"
	"reflect"
	"testing"

	"github.com/yuqie6/SkillBridge/internal/pkg/apperrors"
	"github.com/yuqie6/SkillBridge/internal/schema"
)

func profile(userID, role string, skills ...string) schema.Profile {
	return schema.Profile{ID: "p-" + userID, UserID: userID, Name: userID, Role: role, Skills: skills, Visible: true}
}

func hasReason(reasons []string, want string) bool {
	for _, r := range reasons {
		if r == want {
			return true
		}
	}
	return false
}

func TestDefaultMatchPolicy_SharedAndComplementary(t *testing.T) {
	subject := profile("a", "", "X", "Y")
	candidate := profile("b", "", "X", "Z")

	got, err := DefaultMatchPolicy{}.Score(&subject, &candidate)
	if err != nil {
		t.Fatalf("Score error: %v", err)
	}
	if got.Value < 35 {
		t.Fatalf("value=%d, want >= 35", got.Value)
	}
	if !hasReason(got.Reasons, "Shared 1 skills in common") || !hasReason(got.Reasons, reasonComplementary) {
		t.Fatalf("reasons=%v", got.Reasons)
	}
}

func TestDefaultMatchPolicy_LearningMatch(t *testing.T) {
	subject := profile("a", "")
	subject.LearningNow = "Figma"
	candidate := profile("b", "")
	candidate.CanTeach = "Figma design basics"

	got, err := DefaultMatchPolicy{}.Score(&subject, &candidate)
	if err != nil {
		t.Fatalf("Score error: %v", err)
	}
	if got.Value < 25 || !hasReason(got.Reasons, reasonLearningMatch) {
		t.Fatalf("got=%+v, want learning match >= 25", got)
	}
}

func TestDefaultMatchPolicy_EndToEndScenario(t *testing.T) {
	a := profile("a", "Engineering", "SQL", "Figma")
	a.LearningNow = "Public speaking"
	b := profile("b", "Design", "SQL", "Excel")
	b.CanTeach = "Public speaking basics"

	got, err := DefaultMatchPolicy{}.Score(&a, &b)
	if err != nil {
		t.Fatalf("Score error: %v", err)
	}
	if got.Value != 70 {
		t.Fatalf("value=%d, want 70 (reasons %v)", got.Value, got.Reasons)
	}
	want := []string{
		"Shared 1 skills in common",
		reasonComplementary,
		reasonLearningMatch,
		reasonCrossDepartment,
	}
	if !reflect.DeepEqual(got.Reasons, want) {
		t.Fatalf("reasons=%v, want %v", got.Reasons, want)
	}
}

func TestDefaultMatchPolicy_ClampedAndDeterministic(t *testing.T) {
	a := profile("a", "Eng", "s1", "s2", "s3", "s4", "s5")
	a.WorkingStyles = schema.JSONArray{"async", "pairing"}
	a.LearningNow = "go"
	b := profile("b", "Ops", "s1", "s2", "s3", "s4", "s5", "s6")
	b.WorkingStyles = schema.JSONArray{"async", "pairing"}
	b.CanTeach = "go"

	first, _ := DefaultMatchPolicy{}.Score(&a, &b)
	second, _ := DefaultMatchPolicy{}.Score(&a, &b)
	if first.Value != 100 || first.Raw <= 100 {
		t.Fatalf("first=%+v, want clamped to 100", first)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("score not deterministic: %+v vs %+v", first, second)
	}
}

func TestDefaultMatchPolicy_WorkingStyleReasonOnce(t *testing.T) {
	a := profile("a", "")
	a.WorkingStyles = schema.JSONArray{"async", "pairing"}
	b := profile("b", "")
	b.WorkingStyles = schema.JSONArray{"pairing", "async"}

	got, _ := DefaultMatchPolicy{}.Score(&a, &b)
	if got.Value != 20 || len(got.Reasons) != 1 {
		t.Fatalf("got=%+v, want 20 with one reason", got)
	}
}

func TestDefaultMatchPolicy_EmptyLearningNeverMatches(t *testing.T) {
	a := profile("a", "")
	b := profile("b", "")
	b.CanTeach = "anything"
	got, _ := DefaultMatchPolicy{}.Score(&a, &b)
	if got.Value != 0 || len(got.Reasons) != 0 {
		t.Fatalf("got=%+v, want zero", got)
	}
}

func TestDefaultMatchPolicy_Validation(t *testing.T) {
	good := profile("a", "")
	cases := []struct {
		name      string
		candidate *schema.Profile
	}{
		{"nil", nil},
		{"blank id", &schema.Profile{}},
		{"blank skill", &schema.Profile{UserID: "b", Skills: schema.JSONArray{"go", " "}}},
		{"blank style", &schema.Profile{UserID: "b", WorkingStyles: schema.JSONArray{""}}},
	}
	for _, tc := range cases {
		_, err := DefaultMatchPolicy{}.Score(&good, tc.candidate)
		if !errors.Is(err, apperrors.ErrValidation) {
			t.Errorf("%s: err=%v, want ErrValidation", tc.name, err)
		}
	}
}

func TestRankCandidates_ThresholdOrderAndCap(t *testing.T) {
	subject := profile("me", "Eng", "go", "sql")
	candidates := []schema.Profile{
		profile("low", "Eng", "rust"),               // complementary only: 15
		profile("edge", "Ops", "java"),              // 15 + 10 = 25
		profile("tieA", "Eng", "go"),                // shared 20 only: excluded (== 20)
		profile("tieB", "Ops", "go"),                // 20 + 10 = 30
		profile("tieC", "Ops", "sql"),               // 30, after tieB
		profile("top", "Ops", "go", "sql", "x"),     // 40 + 15 + 10 = 65
		profile("me", "Eng", "go", "sql"),           // self, ignored
		profile("mid", "Ops", "go", "sql"),          // 40 + 10 = 50
		profile("extra", "Ops", "kotlin"),           // 25, cut by the cap
		{UserID: "bad", Skills: schema.JSONArray{""}}, // malformed, skipped
	}

	got, err := RankCandidates(DefaultMatchPolicy{}, &subject, candidates, 20, 5)
	if err != nil {
		t.Fatalf("RankCandidates error: %v", err)
	}
	var ids []string
	for _, c := range got {
		ids = append(ids, c.Candidate.UserID)
		if c.Score.Raw <= 20 {
			t.Fatalf("candidate %s raw=%d below threshold", c.Candidate.UserID, c.Score.Raw)
		}
	}
	want := []string{"top", "mid", "tieB", "tieC", "edge"}
	if !reflect.DeepEqual(ids, want) {
		t.Fatalf("ids=%v, want %v", ids, want)
	}
}

func TestRankCandidates_EqualScoresKeepInputOrder(t *testing.T) {
	subject := profile("me", "Eng", "go")
	candidates := []schema.Profile{
		profile("c", "Ops", "go"),
		profile("a", "Ops", "go"),
		profile("b", "Ops", "go"),
	}
	got, _ := RankCandidates(DefaultMatchPolicy{}, &subject, candidates, 20, 5)
	if len(got) != 3 || got[0].Candidate.UserID != "c" || got[1].Candidate.UserID != "a" || got[2].Candidate.UserID != "b" {
		t.Fatalf("got order %v, want c a b", got)
	}
}

func TestRankCandidates_InvalidSubject(t *testing.T) {
	_, err := RankCandidates(nil, &schema.Profile{}, nil, 20, 5)
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("err=%v, want ErrValidation", err)
	}
}
