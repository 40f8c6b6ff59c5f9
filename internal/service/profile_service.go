package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/yuqie6/SkillBridge/internal/pkg/apperrors"
	"github.com/yuqie6/SkillBridge/internal/repository"
	"github.com/yuqie6/SkillBridge/internal/schema"
)

// ProfileInput is the owner-editable part of a profile.
type ProfileInput struct {
	UserID        string   `json:"-" validate:"required,max=64"`
	Name          string   `json:"name" validate:"required,max=255"`
	Role          string   `json:"role" validate:"max=255"`
	Bio           string   `json:"bio" validate:"max=2000"`
	Skills        []string `json:"skills" validate:"max=50,dive,required,max=100"`
	WorkingStyles []string `json:"working_styles" validate:"max=20,dive,required,max=64"`
	LearningNow   string   `json:"learning_now" validate:"max=512"`
	CanTeach      string   `json:"can_teach" validate:"max=512"`
	Visible       *bool    `json:"visible"`
}

func (in *ProfileInput) normalize() {
	in.UserID = strings.TrimSpace(in.UserID)
	in.Name = strings.TrimSpace(in.Name)
	in.Role = strings.TrimSpace(in.Role)
	in.Bio = strings.TrimSpace(in.Bio)
	in.Skills = cleanList(in.Skills)
	in.WorkingStyles = cleanList(in.WorkingStyles)
	in.LearningNow = strings.TrimSpace(in.LearningNow)
	in.CanTeach = strings.TrimSpace(in.CanTeach)
}

func (in *ProfileInput) apply(p *schema.Profile) {
	p.Name = in.Name
	p.Role = in.Role
	p.Bio = in.Bio
	p.Skills = schema.JSONArray(in.Skills)
	p.WorkingStyles = schema.JSONArray(in.WorkingStyles)
	p.LearningNow = in.LearningNow
	p.CanTeach = in.CanTeach
	if in.Visible != nil {
		p.Visible = *in.Visible
	}
}

// ProfileService handles profile setup and discovery.
type ProfileService struct {
	store  *repository.Store
	badges *BadgeService
}

// NewProfileService creates the service.
func NewProfileService(store *repository.Store, badges *BadgeService) *ProfileService {
	return &ProfileService{store: store, badges: badges}
}

// Create completes profile setup for in.UserID and grants setup badges.
func (s *ProfileService) Create(ctx context.Context, in ProfileInput) (*schema.Profile, error) {
	in.normalize()
	if err := validateStruct(&in); err != nil {
		return nil, err
	}

	p := &schema.Profile{
		ID:              uuid.NewString(),
		UserID:          in.UserID,
		Visible:         true,
		CanTeachAtSetup: in.CanTeach != "",
	}
	in.apply(p)
	if err := s.store.Profiles.Create(ctx, p); err != nil {
		return nil, err
	}
	slog.Info("profile created", "user", p.UserID, "skills", len(p.Skills))

	s.evaluateBadges(ctx, p.UserID)
	return p, nil
}

// Update rewrites the owner-editable fields of in.UserID's profile.
func (s *ProfileService) Update(ctx context.Context, in ProfileInput) (*schema.Profile, error) {
	in.normalize()
	if err := validateStruct(&in); err != nil {
		return nil, err
	}
	p, err := s.store.Profiles.GetByUserID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	in.apply(p)
	if err := s.store.Profiles.UpdateOwnerFields(ctx, p); err != nil {
		return nil, err
	}
	s.evaluateBadges(ctx, p.UserID)
	return s.store.Profiles.GetByUserID(ctx, in.UserID)
}

// evaluateBadges runs after the profile write is stored; a failure is logged
// and healed by the next evaluation.
func (s *ProfileService) evaluateBadges(ctx context.Context, userID string) {
	if s.badges == nil {
		return
	}
	if _, err := s.badges.Evaluate(ctx, userID); err != nil {
		slog.Warn("profile badge evaluation failed", "user", userID, "error", err)
	}
}

// Get loads userID's profile.
func (s *ProfileService) Get(ctx context.Context, userID string) (*schema.Profile, error) {
	return s.store.Profiles.GetByUserID(ctx, userID)
}

// View loads userID's profile as seen by viewerID. A hidden profile is
// reported as not found to everyone but its owner.
func (s *ProfileService) View(ctx context.Context, viewerID, userID string) (*schema.Profile, error) {
	p, err := s.store.Profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !p.Visible && p.UserID != viewerID {
		return nil, apperrors.NotFound("profile", userID)
	}
	return p, nil
}

// Discover lists the visible profiles other than userID's.
func (s *ProfileService) Discover(ctx context.Context, userID string) ([]schema.Profile, error) {
	return s.store.Profiles.ListVisible(ctx, userID)
}
