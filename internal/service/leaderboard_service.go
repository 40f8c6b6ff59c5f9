package service

import (
	"context"
	"math"
	"sort"

	"github.com/yuqie6/SkillBridge/internal/pkg/apperrors"
	"github.com/yuqie6/SkillBridge/internal/repository"
	"github.com/yuqie6/SkillBridge/internal/schema"
)

const topMembersPerTeam = 3

// LeaderboardMember is one ranked profile.
type LeaderboardMember struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Points int    `json:"points"`
}

// TeamStats aggregates one department.
type TeamStats struct {
	Department  string              `json:"department"`
	TotalPoints int                 `json:"total_points"`
	MemberCount int                 `json:"member_count"`
	AvgPoints   int                 `json:"avg_points"`
	TopMembers  []LeaderboardMember `json:"top_members"`
}

// Aggregate groups profiles by department, best total first.
// Equal totals keep the order in which departments first appear.
func Aggregate(profiles []schema.Profile) []TeamStats {
	order := make([]string, 0)
	groups := make(map[string][]schema.Profile)
	for _, p := range profiles {
		dept := p.Department()
		if _, ok := groups[dept]; !ok {
			order = append(order, dept)
		}
		groups[dept] = append(groups[dept], p)
	}

	out := make([]TeamStats, 0, len(order))
	for _, dept := range order {
		members := groups[dept]
		total := 0
		for _, m := range members {
			total += m.TotalPoints
		}
		ranked := rankMembers(members)
		top := make([]LeaderboardMember, 0, topMembersPerTeam)
		for i := 0; i < len(ranked) && i < topMembersPerTeam; i++ {
			top = append(top, LeaderboardMember{UserID: ranked[i].UserID, Name: ranked[i].Name, Points: ranked[i].TotalPoints})
		}
		out = append(out, TeamStats{
			Department:  dept,
			TotalPoints: total,
			MemberCount: len(members),
			AvgPoints:   roundHalfUp(float64(total) / float64(len(members))),
			TopMembers:  top,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalPoints > out[j].TotalPoints
	})
	return out
}

// Rank is userID's 1-based position within their department, or 0 when absent.
func Rank(profiles []schema.Profile, userID string) int {
	var dept string
	found := false
	for _, p := range profiles {
		if p.UserID == userID {
			dept = p.Department()
			found = true
			break
		}
	}
	if !found {
		return 0
	}

	var members []schema.Profile
	for _, p := range profiles {
		if p.Department() == dept {
			members = append(members, p)
		}
	}
	for i, p := range rankMembers(members) {
		if p.UserID == userID {
			return i + 1
		}
	}
	return 0
}

func rankMembers(members []schema.Profile) []schema.Profile {
	ranked := make([]schema.Profile, len(members))
	copy(ranked, members)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].TotalPoints > ranked[j].TotalPoints
	})
	return ranked
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

// Standing is a user's place on their department board.
type Standing struct {
	UserID     string `json:"user_id"`
	Department string `json:"department"`
	Rank       int    `json:"rank"`
	TeamSize   int    `json:"team_size"`
	Points     int    `json:"points"`
}

// LeaderboardService reads profile snapshots and aggregates them.
type LeaderboardService struct {
	profiles *repository.ProfileRepository
}

// NewLeaderboardService creates the service.
func NewLeaderboardService(store *repository.Store) *LeaderboardService {
	return &LeaderboardService{profiles: store.Profiles}
}

// Teams aggregates all visible profiles.
func (s *LeaderboardService) Teams(ctx context.Context) ([]TeamStats, error) {
	profiles, err := s.profiles.ListVisible(ctx, "")
	if err != nil {
		return nil, err
	}
	return Aggregate(profiles), nil
}

// Standing ranks userID among the visible members of their department.
// A hidden user is still ranked against the visible members.
func (s *LeaderboardService) Standing(ctx context.Context, userID string) (*Standing, error) {
	me, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	profiles, err := s.profiles.ListVisible(ctx, "")
	if err != nil {
		return nil, err
	}
	if !me.Visible {
		profiles = append(profiles, *me)
	}

	rank := Rank(profiles, userID)
	if rank == 0 {
		return nil, apperrors.NotFound("profile", userID)
	}
	size := 0
	for _, p := range profiles {
		if p.Department() == me.Department() {
			size++
		}
	}
	return &Standing{
		UserID:     userID,
		Department: me.Department(),
		Rank:       rank,
		TeamSize:   size,
		Points:     me.TotalPoints,
	}, nil
}
