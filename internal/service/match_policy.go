package service

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/yuqie6/SkillBridge/internal/pkg/apperrors"
	"github.com/yuqie6/SkillBridge/internal/schema"
)

// Score weights.
const (
	weightSharedSkill     = 20
	weightComplementary   = 15
	weightSharedStyle     = 10
	weightLearningMatch   = 25
	weightCrossDepartment = 10
	maxMatchScore         = 100
)

// Match reasons.
const (
	reasonComplementary   = "Has complementary skills you could learn"
	reasonWorkingStyles   = "Compatible working styles"
	reasonLearningMatch   = "Perfect learning match opportunity"
	reasonCrossDepartment = "Cross-department networking opportunity"
)

func reasonSharedSkills(n int) string {
	return fmt.Sprintf("Shared %d skills in common", n)
}

// MatchScore is the result of scoring one candidate against a subject.
// Raw is the unclamped sum; eligibility is decided on Raw.
type MatchScore struct {
	Value   int      `json:"value"`
	Raw     int      `json:"raw"`
	Reasons []string `json:"reasons"`
}

// MatchPolicy scores compatibility between two profiles (replaceable).
type MatchPolicy interface {
	Score(subject, candidate *schema.Profile) (MatchScore, error)
}

// DefaultMatchPolicy is the weighted heuristic sum clamped to 100.
type DefaultMatchPolicy struct{}

// Score is pure: same profiles, same result.
func (p DefaultMatchPolicy) Score(subject, candidate *schema.Profile) (MatchScore, error) {
	if err := validateForScoring("subject", subject); err != nil {
		return MatchScore{}, err
	}
	if err := validateForScoring("candidate", candidate); err != nil {
		return MatchScore{}, err
	}

	raw := 0
	reasons := make([]string, 0, 5)

	subjectSkills := subject.Skills.Set()
	shared := 0
	complementary := false
	for _, s := range uniqueStrings(candidate.Skills) {
		if _, ok := subjectSkills[s]; ok {
			shared++
		} else {
			complementary = true
		}
	}
	if shared > 0 {
		raw += shared * weightSharedSkill
		reasons = append(reasons, reasonSharedSkills(shared))
	}
	if complementary && len(candidate.Skills) > 0 {
		raw += weightComplementary
		reasons = append(reasons, reasonComplementary)
	}

	subjectStyles := subject.WorkingStyles.Set()
	sharedStyles := 0
	for _, s := range uniqueStrings(candidate.WorkingStyles) {
		if _, ok := subjectStyles[s]; ok {
			sharedStyles++
		}
	}
	if sharedStyles > 0 {
		raw += sharedStyles * weightSharedStyle
		reasons = append(reasons, reasonWorkingStyles)
	}

	if learningMatches(subject.LearningNow, candidate.CanTeach) {
		raw += weightLearningMatch
		reasons = append(reasons, reasonLearningMatch)
	}

	if crossDepartment(subject.Role, candidate.Role) {
		raw += weightCrossDepartment
		reasons = append(reasons, reasonCrossDepartment)
	}

	value := raw
	if value > maxMatchScore {
		value = maxMatchScore
	}
	return MatchScore{Value: value, Raw: raw, Reasons: reasons}, nil
}

// learningMatches is a case-insensitive substring check in either direction.
func learningMatches(learning, teach string) bool {
	l := strings.ToLower(strings.TrimSpace(learning))
	t := strings.ToLower(strings.TrimSpace(teach))
	if l == "" || t == "" {
		return false
	}
	return strings.Contains(l, t) || strings.Contains(t, l)
}

// crossDepartment reports two non-empty, different roles.
func crossDepartment(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	return a != "" && b != "" && a != b
}

func validateForScoring(label string, p *schema.Profile) error {
	if p == nil {
		return apperrors.Validation("%s profile is required", label)
	}
	if strings.TrimSpace(p.UserID) == "" {
		return apperrors.Validation("%s user id is required", label)
	}
	for i, s := range p.Skills {
		if strings.TrimSpace(s) == "" {
			return apperrors.Validation("%s skill #%d is blank", label, i)
		}
	}
	for i, s := range p.WorkingStyles {
		if strings.TrimSpace(s) == "" {
			return apperrors.Validation("%s working style #%d is blank", label, i)
		}
	}
	return nil
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// ScoredCandidate pairs a candidate with its score.
type ScoredCandidate struct {
	Candidate schema.Profile `json:"candidate"`
	Score     MatchScore     `json:"score"`
}

// RankCandidates scores candidates in input order, keeps those with Raw > minScore,
// sorts by Value descending (equal values keep input order) and truncates to limit.
// A malformed subject fails the call; a malformed candidate is skipped.
func RankCandidates(policy MatchPolicy, subject *schema.Profile, candidates []schema.Profile, minScore, limit int) ([]ScoredCandidate, error) {
	if policy == nil {
		policy = DefaultMatchPolicy{}
	}
	if err := validateForScoring("subject", subject); err != nil {
		return nil, err
	}

	out := make([]ScoredCandidate, 0, len(candidates))
	for i := range candidates {
		c := candidates[i]
		if c.UserID == subject.UserID {
			continue
		}
		score, err := policy.Score(subject, &c)
		if err != nil {
			slog.Warn("skip unscorable candidate", "subject", subject.UserID, "candidate", c.UserID, "error", err)
			continue
		}
		if score.Raw <= minScore {
			continue
		}
		out = append(out, ScoredCandidate{Candidate: c, Score: score})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score.Value > out[j].Score.Value
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
