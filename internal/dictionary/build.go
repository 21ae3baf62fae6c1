package dictionary

import (
	"fmt"

	"github.com/ayusman/mudra/internal/gesture"
)

// Samples holds the recordings of one sign, each a list of 21 [x, y, z] rows.
type Samples struct {
	Label   string        `json:"label"`
	Samples [][][]float64 `json:"samples"`
}

// Build averages the normalized recordings of every sign into one reference
// each, keeping the order of signs. It also returns the number of recordings
// behind every label.
func Build(signs []Samples) (*Dictionary, map[string]int, error) {
	entries := make([]Entry, 0, len(signs))
	counts := make(map[string]int, len(signs))

	for _, s := range signs {
		vec, err := gesture.ReferenceFromRows(s.Samples)
		if err != nil {
			return nil, nil, fmt.Errorf("sign %q: %w", s.Label, err)
		}
		entries = append(entries, Entry{Label: s.Label, Vector: vec})
		counts[s.Label] = len(s.Samples)
	}

	d, err := New(entries...)
	if err != nil {
		return nil, nil, err
	}
	return d, counts, nil
}
