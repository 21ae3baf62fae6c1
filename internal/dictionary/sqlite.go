package dictionary

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/store"
)

// LoadSQLite reads the signs of an existing reference database, ordered by position.
func LoadSQLite(path string) (*Dictionary, error) {
	st, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	return FromStore(st)
}

// FromStore builds a dictionary from every sign in st.
func FromStore(st *store.Store) (*Dictionary, error) {
	signs, err := st.Signs().List()
	if err != nil {
		return nil, fmt.Errorf("list signs: %w", err)
	}

	entries := make([]Entry, 0, len(signs))
	for _, s := range signs {
		landmarks, err := st.Signs().GetLandmarks(s.ID)
		if err != nil {
			return nil, fmt.Errorf("landmarks of %q: %w", s.Label, err)
		}
		vec := make([]float64, 0, len(landmarks)*3)
		for _, l := range landmarks {
			vec = append(vec, l.X, l.Y, l.Z)
		}
		entries = append(entries, Entry{Label: s.Label, Vector: vec})
	}

	return New(entries...)
}

// SaveSQLite replaces the signs of the database at path with the entries of d.
func SaveSQLite(path string, d *Dictionary) error {
	st, err := store.New(path)
	if err != nil {
		return err
	}
	defer st.Close()

	return ToStore(st, d, nil)
}

// ToStore replaces every sign in st with the entries of d. samples optionally
// records how many recordings each label was averaged from.
func ToStore(st *store.Store, d *Dictionary, samples map[string]int) error {
	signs := make([]*store.Sign, 0, d.Len())
	landmarks := make([][]store.Landmark, 0, d.Len())

	for i, e := range d.Entries() {
		points, err := storeLandmarks(e)
		if err != nil {
			return err
		}
		signs = append(signs, &store.Sign{
			ID:       uuid.NewString(),
			Label:    e.Label,
			Position: i,
			Samples:  samples[e.Label],
		})
		landmarks = append(landmarks, points)
	}

	return st.Signs().ReplaceAll(signs, landmarks)
}

// AddSign averages the recordings of one sign and appends it after the
// signs already in st. The label must not exist yet.
func AddSign(st *store.Store, s Samples) error {
	if s.Label == "" {
		return ErrEmptyLabel
	}
	vec, err := gesture.ReferenceFromRows(s.Samples)
	if err != nil {
		return fmt.Errorf("sign %q: %w", s.Label, err)
	}

	if _, err := st.Signs().GetByLabel(s.Label); err == nil {
		return fmt.Errorf("%w: %q", ErrDuplicateLabel, s.Label)
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	points, err := storeLandmarks(Entry{Label: s.Label, Vector: vec})
	if err != nil {
		return err
	}
	position, err := st.Signs().NextPosition()
	if err != nil {
		return err
	}

	return st.Signs().Create(&store.Sign{
		ID:       uuid.NewString(),
		Label:    s.Label,
		Position: position,
		Samples:  len(s.Samples),
	}, points)
}

// RemoveSign deletes the sign called label from st. The remaining signs keep
// their relative order.
func RemoveSign(st *store.Store, label string) error {
	sign, err := st.Signs().GetByLabel(label)
	if err != nil {
		return fmt.Errorf("sign %q: %w", label, err)
	}
	return st.Signs().Delete(sign.ID)
}

func storeLandmarks(e Entry) ([]store.Landmark, error) {
	if len(e.Vector)%3 != 0 {
		return nil, fmt.Errorf("%q: %d values is not a list of 3-D points", e.Label, len(e.Vector))
	}
	points := make([]store.Landmark, 0, len(e.Vector)/3)
	for j := 0; j < len(e.Vector); j += 3 {
		points = append(points, store.Landmark{
			Index: j / 3,
			X:     e.Vector[j],
			Y:     e.Vector[j+1],
			Z:     e.Vector[j+2],
		})
	}
	return points, nil
}
