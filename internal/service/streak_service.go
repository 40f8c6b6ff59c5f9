package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yuqie6/SkillBridge/internal/eventbus"
	"github.com/yuqie6/SkillBridge/internal/pkg/config"
	"github.com/yuqie6/SkillBridge/internal/repository"
	"github.com/yuqie6/SkillBridge/internal/schema"
)

const day = 24 * time.Hour

// StreakPolicy holds the streak window and bonus rules.
type StreakPolicy struct {
	Window         time.Duration
	BonusThreshold int
	BonusPoints    int
}

// DefaultStreakPolicy is a 7-day window with a 50-point bonus at 7.
func DefaultStreakPolicy() StreakPolicy {
	return StreakPolicy{Window: 7 * day, BonusThreshold: 7, BonusPoints: schema.DefaultPoints[schema.ActionStreakBonus]}
}

// StreakPolicyFromConfig falls back to the defaults for unset values.
func StreakPolicyFromConfig(cfg config.StreakConfig) StreakPolicy {
	p := DefaultStreakPolicy()
	if cfg.WindowDays > 0 {
		p.Window = time.Duration(cfg.WindowDays) * day
	}
	if cfg.BonusThreshold > 0 {
		p.BonusThreshold = cfg.BonusThreshold
	}
	if cfg.BonusPoints > 0 {
		p.BonusPoints = cfg.BonusPoints
	}
	return p
}

// StreakReplay is the outcome of replaying connect events.
// Crossings are the events at which the current streak reached the bonus threshold.
type StreakReplay struct {
	State     schema.StreakState
	Crossings []schema.ActivityEvent
}

// ReplayStreak derives streak state from connect events in ascending time order.
func ReplayStreak(userID string, connects []schema.ActivityEvent, now time.Time, p StreakPolicy) StreakReplay {
	if p.Window <= 0 {
		p = DefaultStreakPolicy()
	}

	var (
		current, best int
		last          int64
		seen          bool
		crossings     []schema.ActivityEvent
	)
	window := p.Window.Milliseconds()
	for _, e := range connects {
		if !seen || e.Timestamp-last <= window {
			current++
		} else {
			current = 1
		}
		seen = true
		if current > best {
			best = current
		}
		last = e.Timestamp
		if p.BonusThreshold > 0 && current == p.BonusThreshold {
			crossings = append(crossings, e)
		}
	}

	if seen && now.UnixMilli()-last > window {
		current = 0
	}

	st := schema.StreakState{
		UserID:         userID,
		CurrentStreak:  current,
		BestStreak:     best,
		LastConnection: last,
		UpdatedAt:      now,
	}
	if seen {
		windowDays := int(p.Window / day)
		since := int(now.Sub(time.UnixMilli(last)) / day)
		st.DaysUntilBreak = max(0, windowDays-since)
	}
	return StreakReplay{State: st, Crossings: crossings}
}

// StreakService keeps the cached streak state in step with the ledger and
// awards the streak bonus once per threshold crossing.
type StreakService struct {
	store  *repository.Store
	policy StreakPolicy
	hub    *eventbus.Hub
	now    func() time.Time
}

// NewStreakService creates the service.
func NewStreakService(store *repository.Store, policy StreakPolicy, hub *eventbus.Hub) *StreakService {
	return &StreakService{store: store, policy: policy, hub: hub, now: time.Now}
}

// Recompute replays userID's connect events, appends any missing bonus and
// stores the derived state.
func (s *StreakService) Recompute(ctx context.Context, userID string) (*schema.StreakState, error) {
	connects, err := s.store.Ledger.ListByUser(ctx, userID, schema.ActionConnect)
	if err != nil {
		return nil, err
	}
	replay := ReplayStreak(userID, connects, s.now(), s.policy)

	if len(replay.Crossings) > 0 {
		bonuses := make([]schema.ActivityEvent, 0, len(replay.Crossings))
		for _, c := range replay.Crossings {
			key := fmt.Sprintf("streak_bonus:%s:%s", userID, c.ID)
			bonuses = append(bonuses, schema.ActivityEvent{
				UserID:    userID,
				Kind:      schema.ActionStreakBonus,
				Points:    s.policy.BonusPoints,
				Metadata:  schema.JSONMap{"streak": s.policy.BonusThreshold, "crossing_event_id": c.ID},
				Timestamp: c.Timestamp,
				DedupeKey: &key,
			})
		}
		written, err := s.store.Ledger.Append(ctx, bonuses...)
		if err != nil {
			return nil, fmt.Errorf("award streak bonus failed: %w", err)
		}
		for _, e := range written {
			slog.Info("streak bonus awarded", "user", userID, "points", e.Points)
		}
		publishPoints(s.hub, written)
	}

	st := replay.State
	if err := s.store.Streaks.Upsert(ctx, &st); err != nil {
		return nil, err
	}
	return &st, nil
}
