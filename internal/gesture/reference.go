package gesture

import (
	"errors"
	"fmt"

	"github.com/ayusman/mudra/internal/detector"
)

// ErrNoSamples is returned when a reference is built from zero samples.
var ErrNoSamples = errors.New("no samples provided")

// BuildReference normalizes every sample, averages them point by point and
// returns the flattened result, ready to be stored in a reference dictionary.
func BuildReference(samples []detector.Landmarks) ([]float64, error) {
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}

	var sum detector.Landmarks
	for _, sample := range samples {
		normalized := sample.Normalize()
		for i, p := range normalized {
			sum[i].X += p.X
			sum[i].Y += p.Y
			sum[i].Z += p.Z
		}
	}

	n := float64(len(samples))
	for i := range sum {
		sum[i].X /= n
		sum[i].Y /= n
		sum[i].Z /= n
	}

	return sum.Flatten(), nil
}

// ReferenceFromRows builds a reference from raw sample rows, validating each one.
func ReferenceFromRows(samples [][][]float64) ([]float64, error) {
	parsed := make([]detector.Landmarks, 0, len(samples))
	for i, rows := range samples {
		lm, err := detector.ParseLandmarks(rows)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		parsed = append(parsed, lm)
	}
	return BuildReference(parsed)
}
