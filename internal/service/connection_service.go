package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yuqie6/SkillBridge/internal/pkg/apperrors"
	"github.com/yuqie6/SkillBridge/internal/repository"
	"github.com/yuqie6/SkillBridge/internal/schema"
)

// ConnectionInput is a connection request as submitted by the requester.
type ConnectionInput struct {
	RequesterID string
	TargetID    string
	Message     string
	Type        schema.ConnectionType
}

// ConnectionView is a request plus the profile on the other side.
type ConnectionView struct {
	Request     schema.ConnectionRequest `json:"request"`
	Counterpart *schema.Profile          `json:"counterpart"`
}

// ConnectionService runs the pending → accepted | declined state machine.
type ConnectionService struct {
	store    *repository.Store
	policy   MatchPolicy
	notifier NotificationSink
	streaks  *StreakService
	badges   *BadgeService
	now      func() time.Time
}

// NewConnectionService creates the service.
func NewConnectionService(store *repository.Store, policy MatchPolicy, notifier NotificationSink, streaks *StreakService, badges *BadgeService) *ConnectionService {
	if policy == nil {
		policy = DefaultMatchPolicy{}
	}
	return &ConnectionService{
		store:    store,
		policy:   policy,
		notifier: notifier,
		streaks:  streaks,
		badges:   badges,
		now:      time.Now,
	}
}

// Request creates a pending request from in.RequesterID to in.TargetID.
func (s *ConnectionService) Request(ctx context.Context, in ConnectionInput) (*schema.ConnectionRequest, error) {
	var (
		req  *schema.ConnectionRequest
		note *schema.Notification
	)
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		req, note, err = s.requestIn(ctx, tx, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notifier.Publish(note)
	return req, nil
}

// requestIn validates and inserts the request through tx and records the
// target's notification.
func (s *ConnectionService) requestIn(ctx context.Context, tx *repository.Store, in ConnectionInput) (*schema.ConnectionRequest, *schema.Notification, error) {
	in.RequesterID = strings.TrimSpace(in.RequesterID)
	in.TargetID = strings.TrimSpace(in.TargetID)
	if in.RequesterID == "" || in.TargetID == "" {
		return nil, nil, apperrors.Validation("requester and target are required")
	}
	if in.RequesterID == in.TargetID {
		return nil, nil, apperrors.Validation("cannot connect with yourself")
	}
	if in.Type == "" {
		in.Type = schema.ConnectionTypeDirect
	}

	requester, err := tx.Profiles.GetByUserID(ctx, in.RequesterID)
	if err != nil {
		return nil, nil, err
	}
	target, err := tx.Profiles.GetByUserID(ctx, in.TargetID)
	if err != nil {
		return nil, nil, err
	}

	active, err := tx.Connections.FindActiveBetween(ctx, in.RequesterID, in.TargetID)
	if err != nil {
		return nil, nil, err
	}
	if active != nil {
		return nil, nil, fmt.Errorf("request %s is %s: %w", active.ID, active.Status, apperrors.ErrDuplicateRequest)
	}

	// The score is advisory; an unscorable pair can still connect.
	score, err := s.policy.Score(requester, target)
	if err != nil {
		slog.Warn("connection score unavailable", "requester", in.RequesterID, "target", in.TargetID, "error", err)
	}

	now := s.now()
	req := &schema.ConnectionRequest{
		ID:             uuid.NewString(),
		RequesterID:    in.RequesterID,
		TargetID:       in.TargetID,
		Status:         schema.ConnectionPending,
		Message:        strings.TrimSpace(in.Message),
		ConnectionType: in.Type,
		MatchScore:     score.Value,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := tx.Connections.Create(ctx, req); err != nil {
		return nil, nil, err
	}

	note, err := s.notifier.Record(ctx, tx, NotificationRequest{
		RecipientID: in.TargetID,
		Type:        schema.NotifyConnectionRequest,
		Title:       "New connection request",
		Message:     fmt.Sprintf("%s wants to connect with you", requester.Name),
		Payload: map[string]any{
			"request_id":      req.ID,
			"requester_id":    req.RequesterID,
			"connection_type": string(req.ConnectionType),
			"match_score":     req.MatchScore,
		},
	})
	if err != nil {
		return nil, nil, err
	}

	slog.Info("connection requested", "request", req.ID, "requester", req.RequesterID, "target", req.TargetID)
	return req, note, nil
}

// Accept moves a pending request to accepted. Only the target may accept.
// Both parties earn the connect points once; streaks and badges are
// refreshed for both after the commit.
func (s *ConnectionService) Accept(ctx context.Context, actorID, requestID string) (*schema.ConnectionRequest, error) {
	var req *schema.ConnectionRequest
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		req, err = s.transition(ctx, tx, actorID, requestID, schema.ConnectionAccepted)
		if err != nil {
			return err
		}

		points := schema.DefaultPoints[schema.ActionConnect]
		at := req.UpdatedAt.UnixMilli()
		events := make([]schema.ActivityEvent, 0, 2)
		for _, uid := range []string{req.TargetID, req.RequesterID} {
			key := fmt.Sprintf("connect:%s:%s", req.ID, uid)
			events = append(events, schema.ActivityEvent{
				UserID:    uid,
				Kind:      schema.ActionConnect,
				Points:    points,
				Metadata:  schema.JSONMap{"request_id": req.ID, "partner_id": req.Counterpart(uid)},
				Timestamp: at,
				DedupeKey: &key,
			})
		}
		if _, err := tx.Ledger.Append(ctx, events...); err != nil {
			return err
		}
		return tx.Profiles.IncrementConnections(ctx, req.RequesterID, req.TargetID)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("connection accepted", "request", req.ID, "requester", req.RequesterID, "target", req.TargetID)
	if err := s.refreshDerived(ctx, req.TargetID, req.RequesterID); err != nil {
		slog.Warn("connection accepted, refresh derived state failed", "request", req.ID, "error", err)
	}
	return req, nil
}

// Decline moves a pending request to declined. Only the target may decline;
// the pair may request again afterwards.
func (s *ConnectionService) Decline(ctx context.Context, actorID, requestID string) (*schema.ConnectionRequest, error) {
	var req *schema.ConnectionRequest
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		req, err = s.transition(ctx, tx, actorID, requestID, schema.ConnectionDeclined)
		return err
	})
	if err != nil {
		return nil, err
	}
	slog.Info("connection declined", "request", req.ID, "target", req.TargetID)
	return req, nil
}

// transition applies a compare-and-set from pending to `to`. A lost race is
// re-read once so the caller learns what the request became.
func (s *ConnectionService) transition(ctx context.Context, tx *repository.Store, actorID, requestID string, to schema.ConnectionStatus) (*schema.ConnectionRequest, error) {
	req, err := tx.Connections.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.TargetID != actorID {
		return nil, apperrors.NotAuthorized("only the target can %s request %s", verbFor(to), requestID)
	}
	if req.Status != schema.ConnectionPending {
		return nil, apperrors.Stale("request %s is already %s", requestID, req.Status)
	}

	now := s.now()
	ok, err := tx.Connections.Transition(ctx, requestID, schema.ConnectionPending, to, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		fresh, err := tx.Connections.GetByID(ctx, requestID)
		if err != nil {
			return nil, err
		}
		return nil, apperrors.Stale("request %s is already %s", requestID, fresh.Status)
	}
	req.Status = to
	req.UpdatedAt = now
	if !to.IsActive() {
		req.ActiveSlot = nil
	}
	return req, nil
}

func verbFor(to schema.ConnectionStatus) string {
	if to == schema.ConnectionAccepted {
		return "accept"
	}
	return "decline"
}

func (s *ConnectionService) refreshDerived(ctx context.Context, userIDs ...string) error {
	var errs []error
	for _, uid := range userIDs {
		if s.streaks != nil {
			if _, err := s.streaks.Recompute(ctx, uid); err != nil {
				errs = append(errs, fmt.Errorf("streak %s: %w", uid, err))
			}
		}
		if s.badges != nil {
			if _, err := s.badges.Evaluate(ctx, uid); err != nil {
				errs = append(errs, fmt.Errorf("badges %s: %w", uid, err))
			}
		}
	}
	return errors.Join(errs...)
}

// List returns requests matching filter.
func (s *ConnectionService) List(ctx context.Context, filter repository.ConnectionFilter) ([]schema.ConnectionRequest, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperrors.Validation("unknown status %q", filter.Status)
	}
	return s.store.Connections.List(ctx, filter)
}

// Connections returns userID's accepted connections with the other side's
// profile. A counterpart whose profile is gone is left out.
func (s *ConnectionService) Connections(ctx context.Context, userID string) ([]ConnectionView, error) {
	accepted, err := s.store.Connections.ListAccepted(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(accepted))
	for _, r := range accepted {
		ids = append(ids, r.Counterpart(userID))
	}
	profiles, err := resolveProfiles(ctx, s.store.Profiles, ids)
	if err != nil {
		return nil, err
	}

	out := make([]ConnectionView, 0, len(accepted))
	for _, r := range accepted {
		p, ok := profiles[r.Counterpart(userID)]
		if !ok {
			continue
		}
		out = append(out, ConnectionView{Request: r, Counterpart: p})
	}
	return out, nil
}
