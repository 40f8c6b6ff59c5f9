package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yuqie6/SkillBridge/internal/eventbus"
	"github.com/yuqie6/SkillBridge/internal/pkg/apperrors"
	"github.com/yuqie6/SkillBridge/internal/repository"
	"github.com/yuqie6/SkillBridge/internal/schema"
)

// SwapInput logs a skill swap taught by TeacherID.
type SwapInput struct {
	TeacherID    string `json:"-" validate:"required"`
	LearnerID    string `json:"learner_id" validate:"required,nefield=TeacherID"`
	SkillTaught  string `json:"skill_taught" validate:"required,max=255"`
	SkillLearned string `json:"skill_learned" validate:"max=255"`
	Notes        string `json:"notes" validate:"max=2000"`
	Rating       int    `json:"rating" validate:"omitempty,min=1,max=5"`
}

// MeetupInput records ScannerID scanning another user's meetup code.
type MeetupInput struct {
	ScannerID string `json:"-" validate:"required"`
	Code      string `json:"code" validate:"required"`
	Rating    int    `json:"rating" validate:"omitempty,min=1,max=5"`
	Notes     string `json:"notes" validate:"max=1000"`
}

// IcebreakerInput records a completed conversation starter.
type IcebreakerInput struct {
	UserID     string `json:"-" validate:"required"`
	Module     string `json:"module" validate:"required,max=64"`
	QuestionID string `json:"question_id" validate:"max=64"`
}

// EndorsementInput vouches for one of EndorsedUserID's skills.
type EndorsementInput struct {
	EndorserID     string `json:"-" validate:"required"`
	EndorsedUserID string `json:"endorsed_user_id" validate:"required,nefield=EndorserID"`
	SkillID        string `json:"skill_id" validate:"required,max=100"`
	Message        string `json:"message" validate:"required,max=1000"`
}

// SessionRequestInput asks TeacherID for a learning session.
type SessionRequestInput struct {
	LearnerID       string     `json:"-" validate:"required"`
	TeacherID       string     `json:"teacher_id" validate:"required,nefield=LearnerID"`
	SkillTopic      string     `json:"skill_topic" validate:"required,max=255"`
	SessionType     string     `json:"session_type" validate:"omitempty,oneof=virtual in_person"`
	ScheduledAt     *time.Time `json:"scheduled_at"`
	DurationMinutes int        `json:"duration_minutes" validate:"omitempty,min=5,max=240"`
	Notes           string     `json:"notes" validate:"max=2000"`
}

// ActivityService records point-earning actions: each one writes its domain
// row and ledger events in one transaction, then refreshes badges.
type ActivityService struct {
	store    *repository.Store
	notifier NotificationSink
	badges   *BadgeService
	hub      *eventbus.Hub
	now      func() time.Time
}

// NewActivityService creates the service.
func NewActivityService(store *repository.Store, notifier NotificationSink, badges *BadgeService, hub *eventbus.Hub) *ActivityService {
	return &ActivityService{store: store, notifier: notifier, badges: badges, hub: hub, now: time.Now}
}

// afterCommit publishes written events and notes, then evaluates badges for
// userIDs. The write is already committed, so evaluation failures are logged
// and left for the next evaluation to heal.
func (s *ActivityService) afterCommit(ctx context.Context, written []schema.ActivityEvent, note *schema.Notification, userIDs ...string) {
	publishPoints(s.hub, written)
	if note != nil {
		s.notifier.Publish(note)
	}
	if s.badges == nil {
		return
	}
	for _, uid := range userIDs {
		if _, err := s.badges.Evaluate(ctx, uid); err != nil {
			slog.Warn("badge evaluation after commit failed", "user", uid, "error", err)
		}
	}
}

func requireProfiles(ctx context.Context, tx *repository.Store, userIDs ...string) (map[string]*schema.Profile, error) {
	out := make(map[string]*schema.Profile, len(userIDs))
	for _, id := range userIDs {
		p, err := tx.Profiles.GetByUserID(ctx, id)
		if err != nil {
			return nil, err
		}
		out[id] = p
	}
	return out, nil
}

// LogSwap records a swap; the teacher earns the swap points.
func (s *ActivityService) LogSwap(ctx context.Context, in SwapInput) (*schema.SkillSwap, error) {
	in.SkillTaught = strings.TrimSpace(in.SkillTaught)
	in.SkillLearned = strings.TrimSpace(in.SkillLearned)
	in.Notes = strings.TrimSpace(in.Notes)
	if err := validateStruct(&in); err != nil {
		return nil, err
	}

	now := s.now()
	swap := &schema.SkillSwap{
		ID:           uuid.NewString(),
		TeacherID:    in.TeacherID,
		LearnerID:    in.LearnerID,
		SkillTaught:  in.SkillTaught,
		SkillLearned: in.SkillLearned,
		Notes:        in.Notes,
		Rating:       in.Rating,
		CreatedAt:    now,
	}
	var written []schema.ActivityEvent
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := requireProfiles(ctx, tx, in.TeacherID, in.LearnerID); err != nil {
			return err
		}
		if err := tx.Swaps.Create(ctx, swap); err != nil {
			return err
		}
		var err error
		written, err = tx.Ledger.Append(ctx, credit(in.TeacherID, schema.ActionSwap, now, "swap:"+swap.ID,
			schema.JSONMap{"swap_id": swap.ID, "learner_id": in.LearnerID, "skill": in.SkillTaught}))
		return err
	})
	if err != nil {
		return nil, err
	}
	slog.Info("skill swap logged", "swap", swap.ID, "teacher", in.TeacherID, "learner", in.LearnerID)
	s.afterCommit(ctx, written, nil, in.TeacherID)
	return swap, nil
}

// Swaps lists userID's swaps on either side.
func (s *ActivityService) Swaps(ctx context.Context, userID string) ([]schema.SkillSwap, error) {
	return s.store.Swaps.ListByUser(ctx, userID)
}

const meetupPrefix = "skillbridge://meet/"

var meetupPattern = regexp.MustCompile(`^skillbridge://meet/([^/]+)/(\d+)$`)

// MeetupCode is the code userID shows for others to scan.
func MeetupCode(userID string, at time.Time) string {
	return meetupPrefix + userID + "/" + strconv.FormatInt(at.UnixMilli(), 10)
}

// ParseMeetupCode extracts the owner and issue time of a meetup code.
func ParseMeetupCode(code string) (string, time.Time, error) {
	m := meetupPattern.FindStringSubmatch(strings.TrimSpace(code))
	if m == nil {
		return "", time.Time{}, apperrors.Validation("invalid meetup code")
	}
	ms, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return "", time.Time{}, apperrors.Validation("invalid meetup code timestamp")
	}
	return m[1], time.UnixMilli(ms), nil
}

// RecordMeetup credits both the scanner and the code owner once per code.
func (s *ActivityService) RecordMeetup(ctx context.Context, in MeetupInput) ([]schema.ActivityEvent, error) {
	in.Notes = strings.TrimSpace(in.Notes)
	if err := validateStruct(&in); err != nil {
		return nil, err
	}
	ownerID, issued, err := ParseMeetupCode(in.Code)
	if err != nil {
		return nil, err
	}
	if ownerID == in.ScannerID {
		return nil, apperrors.Validation("cannot scan your own meetup code")
	}

	now := s.now()
	var written []schema.ActivityEvent
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := requireProfiles(ctx, tx, in.ScannerID, ownerID); err != nil {
			return err
		}
		base := fmt.Sprintf("meet:%s:%d:%s", ownerID, issued.UnixMilli(), in.ScannerID)
		events := make([]schema.ActivityEvent, 0, 2)
		for _, pair := range [][2]string{{in.ScannerID, ownerID}, {ownerID, in.ScannerID}} {
			meta := schema.JSONMap{"met_with": pair[1]}
			if in.Rating > 0 {
				meta["rating"] = in.Rating
			}
			if in.Notes != "" {
				meta["notes"] = in.Notes
			}
			events = append(events, credit(pair[0], schema.ActionMeet, now, base+":"+pair[0], meta))
		}
		var err error
		written, err = tx.Ledger.Append(ctx, events...)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(written) == 0 {
		return nil, apperrors.Stale("meetup code was already scanned")
	}
	slog.Info("meetup recorded", "scanner", in.ScannerID, "owner", ownerID)
	s.afterCommit(ctx, written, nil, in.ScannerID, ownerID)
	return written, nil
}

// CompleteIcebreaker credits a finished conversation starter. The same
// question completed twice in one module earns once.
func (s *ActivityService) CompleteIcebreaker(ctx context.Context, in IcebreakerInput) (*schema.ActivityEvent, error) {
	in.Module = strings.TrimSpace(in.Module)
	in.QuestionID = strings.TrimSpace(in.QuestionID)
	if err := validateStruct(&in); err != nil {
		return nil, err
	}
	key := ""
	if in.QuestionID != "" {
		key = fmt.Sprintf("icebreaker:%s:%s:%s", in.UserID, in.Module, in.QuestionID)
	}

	written, err := s.store.Ledger.Append(ctx, credit(in.UserID, schema.ActionIcebreaker, s.now(), key,
		schema.JSONMap{"module": in.Module, "question_id": in.QuestionID}))
	if err != nil {
		return nil, err
	}
	if len(written) == 0 {
		return nil, apperrors.Stale("icebreaker %s/%s already completed", in.Module, in.QuestionID)
	}
	s.afterCommit(ctx, written, nil, in.UserID)
	return &written[0], nil
}

// Endorse records an endorsement of a skill listed on the endorsed profile.
func (s *ActivityService) Endorse(ctx context.Context, in EndorsementInput) (*schema.Endorsement, error) {
	in.SkillID = strings.TrimSpace(in.SkillID)
	in.Message = strings.TrimSpace(in.Message)
	if err := validateStruct(&in); err != nil {
		return nil, err
	}

	now := s.now()
	e := &schema.Endorsement{
		ID:             uuid.NewString(),
		EndorserID:     in.EndorserID,
		EndorsedUserID: in.EndorsedUserID,
		SkillID:        in.SkillID,
		Message:        in.Message,
		CreatedAt:      now,
	}
	var (
		written []schema.ActivityEvent
		note    *schema.Notification
	)
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		profiles, err := requireProfiles(ctx, tx, in.EndorserID, in.EndorsedUserID)
		if err != nil {
			return err
		}
		if !profiles[in.EndorsedUserID].HasSkill(in.SkillID) {
			return apperrors.Validation("skill %q is not on %s's profile", in.SkillID, in.EndorsedUserID)
		}
		if err := tx.Endorsements.Create(ctx, e); err != nil {
			return err
		}
		meta := schema.JSONMap{"endorsement_id": e.ID, "skill_id": e.SkillID}
		written, err = tx.Ledger.Append(ctx,
			credit(in.EndorserID, schema.ActionEndorseSkill, now, "endorse:"+e.ID+":"+in.EndorserID, meta),
			credit(in.EndorsedUserID, schema.ActionReceiveEndorsement, now, "endorse:"+e.ID+":"+in.EndorsedUserID, meta),
		)
		if err != nil {
			return err
		}
		note, err = s.notifier.Record(ctx, tx, NotificationRequest{
			RecipientID: in.EndorsedUserID,
			Type:        schema.NotifySkillEndorsement,
			Title:       "New Skill Endorsement",
			Message:     fmt.Sprintf("%s endorsed your %s skills!", profiles[in.EndorserID].Name, in.SkillID),
			Payload:     map[string]any{"endorser_id": in.EndorserID, "skill_id": in.SkillID, "endorsement_id": e.ID},
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	slog.Info("skill endorsed", "endorser", in.EndorserID, "endorsed", in.EndorsedUserID, "skill", in.SkillID)
	s.afterCommit(ctx, written, note, in.EndorserID, in.EndorsedUserID)
	return e, nil
}

// Endorsements lists the endorsements userID received.
func (s *ActivityService) Endorsements(ctx context.Context, userID string) ([]schema.Endorsement, error) {
	return s.store.Endorsements.ListForUser(ctx, userID)
}

// RequestSession creates a requested session and notifies the teacher.
func (s *ActivityService) RequestSession(ctx context.Context, in SessionRequestInput) (*schema.LearningSession, error) {
	in.SkillTopic = strings.TrimSpace(in.SkillTopic)
	in.Notes = strings.TrimSpace(in.Notes)
	if err := validateStruct(&in); err != nil {
		return nil, err
	}
	if in.SessionType == "" {
		in.SessionType = "virtual"
	}
	if in.DurationMinutes == 0 {
		in.DurationMinutes = 15
	}

	now := s.now()
	sess := &schema.LearningSession{
		ID:              uuid.NewString(),
		TeacherID:       in.TeacherID,
		LearnerID:       in.LearnerID,
		SkillTopic:      in.SkillTopic,
		SessionType:     in.SessionType,
		ScheduledAt:     in.ScheduledAt,
		DurationMinutes: in.DurationMinutes,
		Status:          schema.SessionRequested,
		Notes:           in.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	var note *schema.Notification
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		profiles, err := requireProfiles(ctx, tx, in.LearnerID, in.TeacherID)
		if err != nil {
			return err
		}
		if err := tx.Sessions.Create(ctx, sess); err != nil {
			return err
		}
		note, err = s.notifier.Record(ctx, tx, NotificationRequest{
			RecipientID: in.TeacherID,
			Type:        schema.NotifyLearningRequest,
			Title:       "New Learning Session Request",
			Message:     fmt.Sprintf("%s wants to learn %s from you!", profiles[in.LearnerID].Name, in.SkillTopic),
			Payload: map[string]any{
				"session_id":       sess.ID,
				"learner_id":       in.LearnerID,
				"skill_topic":      in.SkillTopic,
				"session_type":     in.SessionType,
				"duration_minutes": in.DurationMinutes,
			},
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notifier.Publish(note)
	return sess, nil
}

// RespondSession lets the teacher accept or decline a requested session.
func (s *ActivityService) RespondSession(ctx context.Context, actorID, sessionID string, accept bool) (*schema.LearningSession, error) {
	to := schema.SessionDeclined
	if accept {
		to = schema.SessionAccepted
	}
	var sess *schema.LearningSession
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		sess, err = tx.Sessions.GetByID(ctx, sessionID)
		if err != nil {
			return err
		}
		if sess.TeacherID != actorID {
			return apperrors.NotAuthorized("only the teacher can respond to session %s", sessionID)
		}
		return s.moveSession(ctx, tx, sess, schema.SessionRequested, to)
	})
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// CompleteSession marks an accepted session completed; either party may do
// it. The teacher and the learner are credited once.
func (s *ActivityService) CompleteSession(ctx context.Context, actorID, sessionID string) (*schema.LearningSession, error) {
	var (
		sess    *schema.LearningSession
		written []schema.ActivityEvent
	)
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		sess, err = tx.Sessions.GetByID(ctx, sessionID)
		if err != nil {
			return err
		}
		if actorID != sess.TeacherID && actorID != sess.LearnerID {
			return apperrors.NotAuthorized("only the session's participants can complete session %s", sessionID)
		}
		if err := s.moveSession(ctx, tx, sess, schema.SessionAccepted, schema.SessionCompleted); err != nil {
			return err
		}
		meta := schema.JSONMap{"session_id": sess.ID, "skill_topic": sess.SkillTopic}
		written, err = tx.Ledger.Append(ctx,
			credit(sess.TeacherID, schema.ActionTeachSession, sess.UpdatedAt, "session:"+sess.ID+":teach", meta),
			credit(sess.LearnerID, schema.ActionCompleteLearning, sess.UpdatedAt, "session:"+sess.ID+":learn", meta),
		)
		return err
	})
	if err != nil {
		return nil, err
	}
	slog.Info("learning session completed", "session", sess.ID, "teacher", sess.TeacherID, "learner", sess.LearnerID)
	s.afterCommit(ctx, written, nil, sess.TeacherID, sess.LearnerID)
	return sess, nil
}

func (s *ActivityService) moveSession(ctx context.Context, tx *repository.Store, sess *schema.LearningSession, from, to schema.SessionStatus) error {
	if sess.Status != from {
		return apperrors.Stale("session %s is %s, not %s", sess.ID, sess.Status, from)
	}
	now := s.now()
	ok, err := tx.Sessions.Transition(ctx, sess.ID, from, to, now)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.Stale("session %s was already handled", sess.ID)
	}
	sess.Status = to
	sess.UpdatedAt = now
	return nil
}

// Sessions lists userID's sessions as teacher or learner.
func (s *ActivityService) Sessions(ctx context.Context, userID string) ([]schema.LearningSession, error) {
	return s.store.Sessions.ListForUser(ctx, userID)
}
