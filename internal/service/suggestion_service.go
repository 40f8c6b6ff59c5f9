package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/yuqie6/SkillBridge/internal/pkg/apperrors"
	"github.com/yuqie6/SkillBridge/internal/pkg/config"
	"github.com/yuqie6/SkillBridge/internal/repository"
	"github.com/yuqie6/SkillBridge/internal/schema"
)

// SuggestionView is a stored suggestion plus the candidate's current profile.
type SuggestionView struct {
	Suggestion schema.MatchSuggestion `json:"suggestion"`
	Candidate  *schema.Profile        `json:"candidate"`
}

// SuggestionService generates and serves match suggestions on demand.
type SuggestionService struct {
	store       *repository.Store
	policy      MatchPolicy
	connections *ConnectionService
	index       *CandidateIndex
	cfg         config.MatchingConfig
	now         func() time.Time
}

// NewSuggestionService creates the service. index may be nil.
func NewSuggestionService(store *repository.Store, policy MatchPolicy, connections *ConnectionService, index *CandidateIndex, cfg config.MatchingConfig) *SuggestionService {
	if policy == nil {
		policy = DefaultMatchPolicy{}
	}
	if cfg.MaxSuggestions <= 0 {
		cfg.MaxSuggestions = 5
	}
	return &SuggestionService{
		store:       store,
		policy:      policy,
		connections: connections,
		index:       index,
		cfg:         cfg,
		now:         time.Now,
	}
}

// Cycle is the generation cycle key for t: one cycle per calendar month.
func Cycle(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// Generate rescores subjectID against every visible profile and replaces the
// pending suggestions. Candidates connected or dismissed this cycle, and (when
// configured) candidates with an active request, are not suggested again.
func (s *SuggestionService) Generate(ctx context.Context, subjectID string) ([]schema.MatchSuggestion, error) {
	subject, err := s.store.Profiles.GetByUserID(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	cycle := Cycle(now)

	candidates, err := s.store.Profiles.ListVisible(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	excluded, err := s.store.Suggestions.TerminalCandidates(ctx, subjectID, cycle)
	if err != nil {
		return nil, err
	}
	if s.cfg.ExcludeConnected {
		partners, err := s.store.Connections.ActivePartners(ctx, subjectID)
		if err != nil {
			return nil, err
		}
		for id := range partners {
			excluded[id] = struct{}{}
		}
	}
	pool := make([]schema.Profile, 0, len(candidates))
	for _, c := range candidates {
		if _, skip := excluded[c.UserID]; !skip {
			pool = append(pool, c)
		}
	}

	pool, err = s.index.Shortlist(ctx, subject, pool)
	if err != nil {
		return nil, err
	}
	ranked, err := RankCandidates(s.policy, subject, pool, s.cfg.MinScore, s.cfg.MaxSuggestions)
	if err != nil {
		return nil, err
	}

	rows := make([]schema.MatchSuggestion, 0, len(ranked))
	for i, r := range ranked {
		rows = append(rows, schema.MatchSuggestion{
			ID:          uuid.NewString(),
			SubjectID:   subjectID,
			CandidateID: r.Candidate.UserID,
			Score:       r.Score.Value,
			Rank:        i + 1,
			Reasons:     schema.JSONArray(r.Score.Reasons),
			Status:      schema.SuggestionPending,
			Cycle:       cycle,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	if err := s.store.Suggestions.ReplacePending(ctx, subjectID, rows); err != nil {
		return nil, err
	}

	slog.Info("suggestions generated", "subject", subjectID, "pool", len(pool), "kept", len(rows), "cycle", cycle)
	return rows, nil
}

// List returns subjectID's suggestions with status (pending by default) and
// their candidates. Suggestions whose candidate profile is gone are left out.
func (s *SuggestionService) List(ctx context.Context, subjectID string, status schema.SuggestionStatus) ([]SuggestionView, error) {
	if status == "" {
		status = schema.SuggestionPending
	}
	if !status.Valid() {
		return nil, apperrors.Validation("unknown status %q", status)
	}
	rows, err := s.store.Suggestions.ListByStatus(ctx, subjectID, status, 0)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.CandidateID)
	}
	profiles, err := resolveProfiles(ctx, s.store.Profiles, ids)
	if err != nil {
		return nil, err
	}

	out := make([]SuggestionView, 0, len(rows))
	for _, r := range rows {
		p, ok := profiles[r.CandidateID]
		if !ok {
			continue
		}
		out = append(out, SuggestionView{Suggestion: r, Candidate: p})
	}
	return out, nil
}

// Connect turns a pending suggestion into a skill-match connection request.
func (s *SuggestionService) Connect(ctx context.Context, actorID, suggestionID string) (*schema.ConnectionRequest, error) {
	var (
		req  *schema.ConnectionRequest
		note *schema.Notification
	)
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		sug, err := s.pendingFor(ctx, tx, actorID, suggestionID)
		if err != nil {
			return err
		}
		req, note, err = s.connections.requestIn(ctx, tx, ConnectionInput{
			RequesterID: actorID,
			TargetID:    sug.CandidateID,
			Type:        schema.ConnectionTypeSkillMatch,
		})
		if err != nil {
			return err
		}
		return s.finish(ctx, tx, suggestionID, schema.SuggestionConnected)
	})
	if err != nil {
		return nil, err
	}
	s.connections.notifier.Publish(note)
	return req, nil
}

// Dismiss hides a pending suggestion for the rest of the cycle.
func (s *SuggestionService) Dismiss(ctx context.Context, actorID, suggestionID string) error {
	return s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := s.pendingFor(ctx, tx, actorID, suggestionID); err != nil {
			return err
		}
		return s.finish(ctx, tx, suggestionID, schema.SuggestionDismissed)
	})
}

func (s *SuggestionService) pendingFor(ctx context.Context, tx *repository.Store, actorID, suggestionID string) (*schema.MatchSuggestion, error) {
	sug, err := tx.Suggestions.GetByID(ctx, suggestionID)
	if err != nil {
		return nil, err
	}
	if sug.SubjectID != actorID {
		return nil, apperrors.NotAuthorized("suggestion %s belongs to another user", suggestionID)
	}
	if sug.Status != schema.SuggestionPending {
		return nil, apperrors.Stale("suggestion %s is already %s", suggestionID, sug.Status)
	}
	return sug, nil
}

func (s *SuggestionService) finish(ctx context.Context, tx *repository.Store, suggestionID string, to schema.SuggestionStatus) error {
	ok, err := tx.Suggestions.Transition(ctx, suggestionID, schema.SuggestionPending, to)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.Stale("suggestion %s was already handled", suggestionID)
	}
	return nil
}
