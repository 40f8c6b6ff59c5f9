package service

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"runtime"
	"strings"

	chromem "github.com/philippgille/chromem-go"
	"github.com/yuqie6/SkillBridge/internal/schema"
)

const indexDimensions = 128

// CandidateIndex narrows a large candidate pool to the profiles most similar
// to the subject before exact scoring. Vectors are feature-hashed from the
// profile's skills, styles and teaching topics, so no embedding model is needed.
// Only skill and style overlap are approximated: candidates that earn the
// learning-match or cross-department terms are always kept.
type CandidateIndex struct {
	size int
}

// NewCandidateIndex keeps at most size approximated candidates; size <= 0
// disables narrowing.
func NewCandidateIndex(size int) *CandidateIndex {
	return &CandidateIndex{size: size}
}

// pinned reports whether c earns a score term the vectors cannot see.
func pinned(subject, c *schema.Profile) bool {
	return learningMatches(subject.LearningNow, c.CanTeach) || crossDepartment(subject.Role, c.Role)
}

// Shortlist returns the pinned candidates plus the nearest others, in their
// input order. Pools whose unpinned part fits the size are returned unchanged.
func (x *CandidateIndex) Shortlist(ctx context.Context, subject *schema.Profile, candidates []schema.Profile) ([]schema.Profile, error) {
	if x == nil || x.size <= 0 || len(candidates) <= x.size {
		return candidates, nil
	}

	keep := make(map[string]struct{}, x.size)
	rest := make([]schema.Profile, 0, len(candidates))
	for _, c := range candidates {
		if pinned(subject, &c) {
			keep[c.UserID] = struct{}{}
		} else {
			rest = append(rest, c)
		}
	}
	if len(rest) <= x.size {
		return candidates, nil
	}

	db := chromem.NewDB()
	col, err := db.CreateCollection("candidates", nil, hashEmbedding)
	if err != nil {
		return nil, fmt.Errorf("create candidate collection failed: %w", err)
	}

	docs := make([]chromem.Document, 0, len(rest))
	for _, c := range rest {
		docs = append(docs, chromem.Document{
			ID:      c.UserID,
			Content: candidateText(&c),
		})
	}
	if err := col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return nil, fmt.Errorf("index candidates failed: %w", err)
	}

	query, err := hashEmbedding(ctx, subjectText(subject))
	if err != nil {
		return nil, err
	}
	results, err := col.QueryEmbedding(ctx, query, x.size, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query candidates failed: %w", err)
	}

	for _, r := range results {
		keep[r.ID] = struct{}{}
	}
	out := make([]schema.Profile, 0, len(keep))
	for _, c := range candidates {
		if _, ok := keep[c.UserID]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// candidateText describes what a candidate offers.
func candidateText(p *schema.Profile) string {
	var b strings.Builder
	for _, s := range p.Skills {
		b.WriteString("skill:" + strings.ToLower(s) + " ")
	}
	for _, s := range p.WorkingStyles {
		b.WriteString("style:" + strings.ToLower(s) + " ")
	}
	for _, w := range strings.Fields(strings.ToLower(p.CanTeach)) {
		b.WriteString("topic:" + w + " ")
	}
	return b.String()
}

// subjectText describes what a subject looks for, in the same vocabulary.
func subjectText(p *schema.Profile) string {
	var b strings.Builder
	for _, s := range p.Skills {
		b.WriteString("skill:" + strings.ToLower(s) + " ")
	}
	for _, s := range p.WorkingStyles {
		b.WriteString("style:" + strings.ToLower(s) + " ")
	}
	for _, w := range strings.Fields(strings.ToLower(p.LearningNow)) {
		b.WriteString("topic:" + w + " ")
	}
	return b.String()
}

// hashEmbedding maps tokens onto a fixed-size normalized vector. The last
// dimension is a constant bias so an empty profile still has a direction.
func hashEmbedding(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, indexDimensions)
	vec[indexDimensions-1] = 1
	for _, tok := range strings.Fields(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		sum := h.Sum32()
		idx := int(sum % (indexDimensions - 1))
		if sum&(1<<31) != 0 {
			vec[idx] -= 1
		} else {
			vec[idx] += 1
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec, nil
}
