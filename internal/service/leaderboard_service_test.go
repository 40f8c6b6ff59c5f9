package service

import (
	"errors"
	"testing"

	"github.com/yuqie6/SkillBridge/internal/pkg/apperrors"
	"github.com/yuqie6/SkillBridge/internal/schema"
)

func scored(userID, role string, points int) schema.Profile {
	return schema.Profile{UserID: userID, Name: userID, Role: role, TotalPoints: points}
}

func TestAggregate_GroupsAndConservesPoints(t *testing.T) {
	profiles := []schema.Profile{
		scored("a", "Engineering", 30),
		scored("b", "Design", 100),
		scored("c", "", 5),
		scored("d", "Engineering", 31),
		scored("e", "  ", 10),
		scored("f", "Engineering", 30),
		scored("g", "Engineering", 50),
	}
	teams := Aggregate(profiles)

	sumTeams, sumProfiles := 0, 0
	for _, tm := range teams {
		sumTeams += tm.TotalPoints
	}
	for _, p := range profiles {
		sumProfiles += p.TotalPoints
	}
	if sumTeams != sumProfiles {
		t.Fatalf("team sum=%d, profile sum=%d", sumTeams, sumProfiles)
	}

	if len(teams) != 3 {
		t.Fatalf("teams=%d, want 3", len(teams))
	}
	eng := teams[0]
	if eng.Department != "Engineering" || eng.TotalPoints != 141 || eng.MemberCount != 4 {
		t.Fatalf("first team=%+v, want Engineering 141/4", eng)
	}
	if eng.AvgPoints != 35 { // 141/4 = 35.25
		t.Fatalf("avg=%d, want 35", eng.AvgPoints)
	}
	top := []string{eng.TopMembers[0].UserID, eng.TopMembers[1].UserID, eng.TopMembers[2].UserID}
	if len(eng.TopMembers) != 3 || top[0] != "g" || top[1] != "d" || top[2] != "a" {
		t.Fatalf("top=%v, want g d a", top)
	}
	if teams[1].Department != "Design" || teams[2].Department != schema.UnknownDepartment {
		t.Fatalf("order=%s,%s", teams[1].Department, teams[2].Department)
	}
	if teams[2].MemberCount != 2 || teams[2].TotalPoints != 15 || teams[2].AvgPoints != 8 { // 7.5 rounds up
		t.Fatalf("unknown team=%+v", teams[2])
	}
}

func TestAggregate_EqualTotalsKeepFirstAppearance(t *testing.T) {
	teams := Aggregate([]schema.Profile{
		scored("a", "Ops", 10),
		scored("b", "Sales", 10),
	})
	if teams[0].Department != "Ops" || teams[1].Department != "Sales" {
		t.Fatalf("order=%s,%s, want Ops,Sales", teams[0].Department, teams[1].Department)
	}
	if len(Aggregate(nil)) != 0 {
		t.Fatalf("empty input should give no teams")
	}
}

func TestRank_WithinDepartment(t *testing.T) {
	profiles := []schema.Profile{
		scored("a", "Engineering", 30),
		scored("b", "Design", 100),
		scored("c", "Engineering", 30),
		scored("d", "Engineering", 40),
	}
	cases := map[string]int{"d": 1, "a": 2, "c": 3, "b": 1, "ghost": 0}
	for uid, want := range cases {
		if got := Rank(profiles, uid); got != want {
			t.Errorf("Rank(%s)=%d, want %d", uid, got, want)
		}
	}
}

func TestLeaderboardService_Standing(t *testing.T) {
	f := newFixture(t)
	f.user("alice", "Engineering")
	f.user("bob", "Engineering")
	f.user("carol", "Design")
	f.connect("alice", "carol")

	hidden := false
	if _, err := f.profiles.Update(f.ctx, ProfileInput{UserID: "bob", Name: "bob", Role: "Engineering", Visible: &hidden}); err != nil {
		t.Fatalf("Update error: %v", err)
	}

	teams, err := f.leaderboard.Teams(f.ctx)
	if err != nil {
		t.Fatalf("Teams error: %v", err)
	}
	if len(teams) != 2 || teams[0].MemberCount != 1 || teams[1].MemberCount != 1 {
		t.Fatalf("teams=%+v, want two teams of one visible member", teams)
	}

	st, err := f.leaderboard.Standing(f.ctx, "bob")
	if err != nil {
		t.Fatalf("Standing error: %v", err)
	}
	if st.Rank != 2 || st.TeamSize != 2 {
		t.Fatalf("standing=%+v, want rank 2 of 2", st)
	}
	if _, err := f.leaderboard.Standing(f.ctx, "ghost"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("ghost err=%v, want ErrNotFound", err)
	}
}
