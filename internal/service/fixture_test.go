package service

import (
	"context"
	"testing"
	"time"

	"github.com/yuqie6/SkillBridge/internal/eventbus"
	"github.com/yuqie6/SkillBridge/internal/pkg/config"
	"github.com/yuqie6/SkillBridge/internal/repository"
	"github.com/yuqie6/SkillBridge/internal/schema"
	"github.com/yuqie6/SkillBridge/internal/testutil"
	"gorm.io/gorm"
)

// fixture wires every service over one in-memory store and a fixed clock.
type fixture struct {
	t     *testing.T
	ctx   context.Context
	now   time.Time
	db    *gorm.DB
	store *repository.Store
	hub   *eventbus.Hub

	notes       *NotificationService
	streaks     *StreakService
	badges      *BadgeService
	connections *ConnectionService
	suggestions *SuggestionService
	activities  *ActivityService
	ledger      *LedgerService
	profiles    *ProfileService
	leaderboard *LeaderboardService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		t:     t,
		ctx:   context.Background(),
		now:   time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC),
		db:    testutil.OpenTestDB(t),
		hub:   eventbus.NewHub(),
	}
	f.store = repository.NewStore(f.db)
	clock := func() time.Time { return f.now }

	f.notes = NewNotificationService(f.store, f.hub)
	f.notes.now = clock
	f.streaks = NewStreakService(f.store, DefaultStreakPolicy(), f.hub)
	f.streaks.now = clock
	f.badges = NewBadgeService(f.store, nil, f.hub)
	f.badges.now = clock
	if err := f.badges.EnsureCatalog(f.ctx); err != nil {
		t.Fatalf("EnsureCatalog error: %v", err)
	}
	f.connections = NewConnectionService(f.store, DefaultMatchPolicy{}, f.notes, f.streaks, f.badges)
	f.connections.now = clock
	f.suggestions = NewSuggestionService(f.store, DefaultMatchPolicy{}, f.connections, nil,
		config.MatchingConfig{MinScore: 20, MaxSuggestions: 5, ExcludeConnected: true})
	f.suggestions.now = clock
	f.activities = NewActivityService(f.store, f.notes, f.badges, f.hub)
	f.activities.now = clock
	f.ledger = NewLedgerService(f.store)
	f.profiles = NewProfileService(f.store, f.badges)
	f.leaderboard = NewLeaderboardService(f.store)
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func (f *fixture) addProfile(in ProfileInput) *schema.Profile {
	f.t.Helper()
	p, err := f.profiles.Create(f.ctx, in)
	if err != nil {
		f.t.Fatalf("create profile %s: %v", in.UserID, err)
	}
	// keep creation order distinct for order-sensitive assertions
	time.Sleep(2 * time.Millisecond)
	return p
}

func (f *fixture) user(id, role string, skills ...string) *schema.Profile {
	f.t.Helper()
	return f.addProfile(ProfileInput{UserID: id, Name: id, Role: role, Skills: skills})
}

func (f *fixture) profile(id string) *schema.Profile {
	f.t.Helper()
	p, err := f.store.Profiles.GetByUserID(f.ctx, id)
	if err != nil {
		f.t.Fatalf("load profile %s: %v", id, err)
	}
	return p
}

func (f *fixture) connect(requester, target string) *schema.ConnectionRequest {
	f.t.Helper()
	req, err := f.connections.Request(f.ctx, ConnectionInput{RequesterID: requester, TargetID: target})
	if err != nil {
		f.t.Fatalf("request %s->%s: %v", requester, target, err)
	}
	accepted, err := f.connections.Accept(f.ctx, target, req.ID)
	if err != nil {
		f.t.Fatalf("accept %s: %v", req.ID, err)
	}
	return accepted
}

// assertLedgerMatchesProfile checks the ledger/profile point invariant.
func (f *fixture) assertLedgerMatchesProfile(userID string) {
	f.t.Helper()
	sum, err := f.store.Ledger.SumByUser(f.ctx, userID)
	if err != nil {
		f.t.Fatalf("sum ledger: %v", err)
	}
	if p := f.profile(userID); p.TotalPoints != sum {
		f.t.Fatalf("%s: profile total=%d ledger sum=%d", userID, p.TotalPoints, sum)
	}
}

func (f *fixture) points(userID string) int {
	f.t.Helper()
	return f.profile(userID).TotalPoints
}

func (f *fixture) hasBadge(userID, badgeID string) bool {
	f.t.Helper()
	ids, err := f.store.Badges.GrantedIDs(f.ctx, userID)
	if err != nil {
		f.t.Fatalf("granted ids: %v", err)
	}
	_, ok := ids[badgeID]
	return ok
}

// breakTable drops model's table so later reads and writes on it fail.
func (f *fixture) breakTable(model any) {
	f.t.Helper()
	if err := f.db.Migrator().DropTable(model); err != nil {
		f.t.Fatalf("drop table: %v", err)
	}
}
