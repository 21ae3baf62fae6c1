package gesture

import (
	"github.com/ayusman/mudra/internal/detector"
)

// Feature vector layout.
const (
	// NumDistances is the number of unordered landmark pairs.
	NumDistances = detector.NumLandmarks * (detector.NumLandmarks - 1) / 2
	// NumAngles is the number of interior landmarks (1..19).
	NumAngles = detector.NumLandmarks - 2
	// FeatureLen is coordinates + pairwise distances + angles.
	FeatureLen = detector.FlatLen + NumDistances + NumAngles
)

const angleEpsilon = 1e-8

// ExtractFeatures validates rows and returns their feature vector.
func ExtractFeatures(rows [][]float64) ([]float64, error) {
	lm, err := detector.ParseLandmarks(rows)
	if err != nil {
		return nil, err
	}
	return Features(lm), nil
}

// Features returns the normalized coordinates, the Euclidean distance of every
// pair i < j, and for each interior landmark the cosine of the angle between
// the incoming and outgoing segments.
func Features(lm detector.Landmarks) []float64 {
	normalized := lm.Normalize()

	features := make([]float64, 0, FeatureLen)
	features = append(features, normalized.Flatten()...)

	for i := 0; i < detector.NumLandmarks; i++ {
		for j := i + 1; j < detector.NumLandmarks; j++ {
			features = append(features, normalized[i].Sub(normalized[j]).Norm())
		}
	}

	for i := 1; i < detector.NumLandmarks-1; i++ {
		in := normalized[i].Sub(normalized[i-1])
		out := normalized[i+1].Sub(normalized[i])
		features = append(features, in.Dot(out)/(in.Norm()*out.Norm()+angleEpsilon))
	}

	return features
}
