// Package gesture provides similarity matching and feature extraction over hand landmarks.
package gesture

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrDimensionMismatch is returned when a query and a reference differ in length.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Reference is a labelled exemplar vector, usually a flattened normalized hand.
type Reference struct {
	Label  string
	Vector []float64
}

// Match represents the similarity between a query and one reference.
type Match struct {
	Label string  // Label of the matched reference
	Score float64 // Cosine similarity clamped to [0, 1]
	Index int     // Position of the reference in the matcher
}

// Matcher ranks query vectors against an ordered list of references.
// It is read-only after construction and safe for concurrent use.
type Matcher struct {
	references []Reference
}

// NewMatcher creates a Matcher over refs. The order of refs decides ties.
func NewMatcher(refs []Reference) *Matcher {
	copied := make([]Reference, len(refs))
	copy(copied, refs)
	return &Matcher{references: copied}
}

// Len returns the number of references.
func (m *Matcher) Len() int {
	if m == nil {
		return 0
	}
	return len(m.references)
}

// Best returns the reference with the strictly greatest similarity to query.
// Ties keep the earliest reference. ok is false when no reference scores above 0.
func (m *Matcher) Best(query []float64) (best Match, ok bool, err error) {
	if m.Len() == 0 {
		return Match{}, false, nil
	}

	best = Match{Index: -1}
	for i, ref := range m.references {
		if len(ref.Vector) != len(query) {
			return Match{}, false, fmt.Errorf("reference %q has %d values, query has %d: %w",
				ref.Label, len(ref.Vector), len(query), ErrDimensionMismatch)
		}
		score := CosineSimilarity(query, ref.Vector)
		if score > best.Score {
			best = Match{Label: ref.Label, Score: score, Index: i}
		}
	}

	if best.Index < 0 {
		return Match{}, false, nil
	}
	return best, true, nil
}

// Rank scores query against every reference and returns the matches sorted by
// score in descending order. Equal scores keep reference order.
func (m *Matcher) Rank(query []float64) ([]Match, error) {
	matches := make([]Match, 0, m.Len())
	for i := 0; i < m.Len(); i++ {
		ref := m.references[i]
		if len(ref.Vector) != len(query) {
			return nil, fmt.Errorf("reference %q has %d values, query has %d: %w",
				ref.Label, len(ref.Vector), len(query), ErrDimensionMismatch)
		}
		matches = append(matches, Match{
			Label: ref.Label,
			Score: CosineSimilarity(query, ref.Vector),
			Index: i,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	return matches, nil
}

// CosineSimilarity returns dot(a, b) / (|a| |b|) clamped to [0, 1].
// Zero-norm, empty, mismatched or non-finite inputs score 0. Both vectors are
// scaled by their largest component first, so very large or very small
// magnitudes neither overflow nor underflow.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	scaleA, okA := maxAbs(a)
	scaleB, okB := maxAbs(b)
	if !okA || !okB || scaleA == 0 || scaleB == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := a[i]/scaleA, b[i]/scaleB
		dot += x * y
		normA += x * x
		normB += y * y
	}

	similarity := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if math.IsNaN(similarity) {
		return 0
	}
	return math.Max(0, math.Min(1, similarity))
}

// maxAbs returns the largest absolute component of v, or false if v holds a
// NaN or an infinity.
func maxAbs(v []float64) (float64, bool) {
	var m float64
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, false
		}
		if a := math.Abs(x); a > m {
			m = a
		}
	}
	return m, true
}
