package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/yuqie6/SkillBridge/internal/eventbus"
	"github.com/yuqie6/SkillBridge/internal/repository"
	"github.com/yuqie6/SkillBridge/internal/schema"
)

// Badge ids.
const (
	BadgeKnowledgeExchanger = "knowledge_exchanger"
	BadgeQRHunter           = "qr_hunter"
	BadgeStreakMaster       = "streak_master"
	BadgeKnowledgeSharer    = "knowledge_sharer"
	BadgeCodeWizard         = "code_wizard"
)

// BadgeFacts is the derived state badge predicates are checked against.
type BadgeFacts struct {
	Profile *schema.Profile
	Counts  map[schema.ActionKind]int64
	Streak  *schema.StreakState
}

// BadgePredicate is a conjunction of thresholds; zero fields are ignored.
type BadgePredicate struct {
	Action           schema.ActionKind
	MinActions       int64
	MinCurrentStreak int
	MinSkills        int
	CanTeachAtSetup  bool
}

// Satisfied reports whether every set threshold holds.
func (p BadgePredicate) Satisfied(f BadgeFacts) bool {
	if p.Action != "" && f.Counts[p.Action] < p.MinActions {
		return false
	}
	if p.MinCurrentStreak > 0 && (f.Streak == nil || f.Streak.CurrentStreak < p.MinCurrentStreak) {
		return false
	}
	if p.MinSkills > 0 && (f.Profile == nil || len(f.Profile.Skills) < p.MinSkills) {
		return false
	}
	if p.CanTeachAtSetup && (f.Profile == nil || !f.Profile.CanTeachAtSetup) {
		return false
	}
	return true
}

// BadgeRule binds a badge definition to its predicate.
type BadgeRule struct {
	Badge schema.Badge
	When  BadgePredicate
}

// DefaultBadgeRules is the badge catalog.
var DefaultBadgeRules = []BadgeRule{
	{
		Badge: schema.Badge{ID: BadgeKnowledgeExchanger, Name: "Knowledge Exchanger", Icon: "🔄", Description: "Taught three skill swaps"},
		When:  BadgePredicate{Action: schema.ActionSwap, MinActions: 3},
	},
	{
		Badge: schema.Badge{ID: BadgeQRHunter, Name: "QR Hunter", Icon: "🏆", Description: "Met five colleagues in person"},
		When:  BadgePredicate{Action: schema.ActionMeet, MinActions: 5},
	},
	{
		Badge: schema.Badge{ID: BadgeStreakMaster, Name: "Streak Master", Icon: "🔥", Description: "Kept a seven-connection streak"},
		When:  BadgePredicate{MinCurrentStreak: 7},
	},
	{
		Badge: schema.Badge{ID: BadgeKnowledgeSharer, Name: "Knowledge Sharer", Icon: "📚", Description: "Offered to teach when joining"},
		When:  BadgePredicate{CanTeachAtSetup: true},
	},
	{
		Badge: schema.Badge{ID: BadgeCodeWizard, Name: "Code Wizard", Icon: "🧙", Description: "Listed five or more skills"},
		When:  BadgePredicate{MinSkills: 5},
	},
}

// BadgeService grants badges whose predicate holds and that the user does not hold yet.
type BadgeService struct {
	store *repository.Store
	rules []BadgeRule
	hub   *eventbus.Hub
	now   func() time.Time
}

// NewBadgeService creates the service; nil rules means DefaultBadgeRules.
func NewBadgeService(store *repository.Store, rules []BadgeRule, hub *eventbus.Hub) *BadgeService {
	if rules == nil {
		rules = DefaultBadgeRules
	}
	return &BadgeService{store: store, rules: rules, hub: hub, now: time.Now}
}

// EnsureCatalog seeds the badge definitions.
func (s *BadgeService) EnsureCatalog(ctx context.Context) error {
	badges := make([]schema.Badge, 0, len(s.rules))
	for _, r := range s.rules {
		badges = append(badges, r.Badge)
	}
	return s.store.Badges.EnsureCatalog(ctx, badges)
}

// Catalog lists the badge definitions.
func (s *BadgeService) Catalog() []schema.Badge {
	out := make([]schema.Badge, 0, len(s.rules))
	for _, r := range s.rules {
		out = append(out, r.Badge)
	}
	return out
}

// Facts gathers userID's current derived state.
func (s *BadgeService) Facts(ctx context.Context, userID string) (BadgeFacts, error) {
	p, err := s.store.Profiles.GetByUserID(ctx, userID)
	if err != nil {
		return BadgeFacts{}, err
	}
	facts := BadgeFacts{Profile: p, Counts: make(map[schema.ActionKind]int64)}
	for _, r := range s.rules {
		if r.When.Action == "" {
			continue
		}
		if _, ok := facts.Counts[r.When.Action]; ok {
			continue
		}
		n, err := s.store.Ledger.CountByKind(ctx, userID, r.When.Action)
		if err != nil {
			return BadgeFacts{}, err
		}
		facts.Counts[r.When.Action] = n
	}
	st, err := s.store.Streaks.Get(ctx, userID)
	if err != nil {
		return BadgeFacts{}, err
	}
	facts.Streak = st
	return facts, nil
}

// Evaluate grants every newly satisfied badge and returns only the new grants.
// Evaluating again without new activity grants nothing.
func (s *BadgeService) Evaluate(ctx context.Context, userID string) ([]schema.BadgeGrant, error) {
	facts, err := s.Facts(ctx, userID)
	if err != nil {
		return nil, err
	}
	held, err := s.store.Badges.GrantedIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	var granted []schema.BadgeGrant
	for _, r := range s.rules {
		if _, ok := held[r.Badge.ID]; ok {
			continue
		}
		if !r.When.Satisfied(facts) {
			continue
		}
		g, created, err := s.store.Badges.Grant(ctx, userID, r.Badge.ID, s.now())
		if err != nil {
			return nil, err
		}
		if !created {
			// a concurrent evaluation granted it first
			continue
		}
		granted = append(granted, *g)
		slog.Info("badge granted", "user", userID, "badge", r.Badge.ID)
		s.hub.Publish(eventbus.Event{
			Type:        eventbus.TypeBadge,
			RecipientID: userID,
			Data:        map[string]any{"badge_id": r.Badge.ID, "name": r.Badge.Name},
		})
	}
	return granted, nil
}

// List returns userID's grants.
func (s *BadgeService) List(ctx context.Context, userID string) ([]schema.BadgeGrant, error) {
	return s.store.Badges.ListGrants(ctx, userID)
}
