package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/yuqie6/SkillBridge/internal/eventbus"
	"github.com/yuqie6/SkillBridge/internal/repository"
	"github.com/yuqie6/SkillBridge/internal/schema"
)

const defaultRecentActivity = 20

// credit builds a ledger event worth the default points of kind.
// An empty dedupeKey leaves the event unguarded.
func credit(userID string, kind schema.ActionKind, at time.Time, dedupeKey string, meta schema.JSONMap) schema.ActivityEvent {
	e := schema.ActivityEvent{
		UserID:    userID,
		Kind:      kind,
		Points:    schema.DefaultPoints[kind],
		Metadata:  meta,
		Timestamp: at.UnixMilli(),
	}
	if dedupeKey != "" {
		e.DedupeKey = &dedupeKey
	}
	return e
}

// publishPoints tells live subscribers about written ledger events.
func publishPoints(hub *eventbus.Hub, events []schema.ActivityEvent) {
	for _, e := range events {
		hub.Publish(eventbus.Event{
			Type:        eventbus.TypePoints,
			RecipientID: e.UserID,
			Data:        map[string]any{"kind": string(e.Kind), "points": e.Points, "event_id": e.ID},
		})
	}
}

// PointsSummary is a user's ledger at a glance.
type PointsSummary struct {
	UserID      string                    `json:"user_id"`
	TotalPoints int                       `json:"total_points"`
	ByKind      map[schema.ActionKind]int `json:"by_kind"`
	Recent      []schema.ActivityEvent    `json:"recent"`
}

// ReconcileResult reports the drift a reconcile repaired.
type ReconcileResult struct {
	UserID             string `json:"user_id"`
	ProfileTotal       int    `json:"profile_total"`
	LedgerTotal        int    `json:"ledger_total"`
	ProfileConnections int    `json:"profile_connections"`
	AcceptedCount      int    `json:"accepted_count"`
	Repaired           bool   `json:"repaired"`
}

// LedgerService reads the activity ledger and repairs denormalized totals.
type LedgerService struct {
	store *repository.Store
}

// NewLedgerService creates the service.
func NewLedgerService(store *repository.Store) *LedgerService {
	return &LedgerService{store: store}
}

// Summary totals userID's ledger by kind and lists the latest events.
func (s *LedgerService) Summary(ctx context.Context, userID string) (*PointsSummary, error) {
	if _, err := s.store.Profiles.GetByUserID(ctx, userID); err != nil {
		return nil, err
	}
	events, err := s.store.Ledger.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := &PointsSummary{UserID: userID, ByKind: make(map[schema.ActionKind]int)}
	for _, e := range events {
		out.TotalPoints += e.Points
		out.ByKind[e.Kind] += e.Points
	}
	out.Recent, err = s.store.Ledger.Recent(ctx, userID, defaultRecentActivity)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Events lists userID's ledger events, optionally of one kind, oldest first.
func (s *LedgerService) Events(ctx context.Context, userID string, kinds ...schema.ActionKind) ([]schema.ActivityEvent, error) {
	return s.store.Ledger.ListByUser(ctx, userID, kinds...)
}

// Reconcile recomputes userID's point total from the ledger and the
// connection count from accepted requests, fixing any drift.
func (s *LedgerService) Reconcile(ctx context.Context, userID string) (*ReconcileResult, error) {
	var res *ReconcileResult
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		p, err := tx.Profiles.GetByUserID(ctx, userID)
		if err != nil {
			return err
		}
		sum, err := tx.Ledger.SumByUser(ctx, userID)
		if err != nil {
			return err
		}
		accepted, err := tx.Connections.CountAccepted(ctx, userID)
		if err != nil {
			return err
		}
		res = &ReconcileResult{
			UserID:             userID,
			ProfileTotal:       p.TotalPoints,
			LedgerTotal:        sum,
			ProfileConnections: p.ConnectionCount,
			AcceptedCount:      int(accepted),
		}
		if p.TotalPoints != sum {
			if err := tx.Profiles.SetPoints(ctx, userID, sum); err != nil {
				return err
			}
			res.Repaired = true
		}
		if p.ConnectionCount != int(accepted) {
			if err := tx.Profiles.SetConnectionCount(ctx, userID, int(accepted)); err != nil {
				return err
			}
			res.Repaired = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if res.Repaired {
		slog.Warn("profile totals repaired", "user", userID,
			"profile_total", res.ProfileTotal, "ledger_total", res.LedgerTotal,
			"profile_connections", res.ProfileConnections, "accepted", res.AcceptedCount)
	}
	return res, nil
}

// ReconcileAll reconciles every profile, visible or not.
func (s *LedgerService) ReconcileAll(ctx context.Context) ([]ReconcileResult, error) {
	ids, err := s.store.Profiles.ListUserIDs(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ReconcileResult, 0, len(ids))
	for _, id := range ids {
		r, err := s.Reconcile(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, nil
}
