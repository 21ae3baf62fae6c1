// Package dictionary holds the reference sign dictionary and its archive formats.
//
// A dictionary maps sign labels to reference vectors. Label order is captured
// once at load time and is significant: a trained classifier's output index i
// names the i-th label.
package dictionary

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ayusman/mudra/internal/gesture"
)

var (
	// ErrDuplicateLabel is returned when two entries share a label.
	ErrDuplicateLabel = errors.New("duplicate label")
	// ErrEmptyLabel is returned for an entry without a label.
	ErrEmptyLabel = errors.New("empty label")
	// ErrEmptyVector is returned for an entry without values.
	ErrEmptyVector = errors.New("empty reference vector")
	// ErrUnsupportedFormat is returned for an archive extension that has no codec.
	ErrUnsupportedFormat = errors.New("unsupported dictionary format")
)

// Entry is one labelled reference vector.
type Entry struct {
	Label  string
	Vector []float64
}

// Dictionary is an immutable, ordered set of reference vectors.
type Dictionary struct {
	labels  []string
	vectors [][]float64
	index   map[string]int
}

// New builds a Dictionary keeping the order of entries.
func New(entries ...Entry) (*Dictionary, error) {
	d := &Dictionary{
		labels:  make([]string, 0, len(entries)),
		vectors: make([][]float64, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}

	for _, e := range entries {
		if e.Label == "" {
			return nil, ErrEmptyLabel
		}
		if len(e.Vector) == 0 {
			return nil, fmt.Errorf("%q: %w", e.Label, ErrEmptyVector)
		}
		if _, ok := d.index[e.Label]; ok {
			return nil, fmt.Errorf("%q: %w", e.Label, ErrDuplicateLabel)
		}
		vec := make([]float64, len(e.Vector))
		copy(vec, e.Vector)

		d.index[e.Label] = len(d.labels)
		d.labels = append(d.labels, e.Label)
		d.vectors = append(d.vectors, vec)
	}

	return d, nil
}

// Empty returns a dictionary with no entries.
func Empty() *Dictionary {
	d, _ := New()
	return d
}

// Len returns the number of entries. A nil dictionary is empty.
func (d *Dictionary) Len() int {
	if d == nil {
		return 0
	}
	return len(d.labels)
}

// Labels returns a copy of the ordered label list.
func (d *Dictionary) Labels() []string {
	if d == nil {
		return nil
	}
	out := make([]string, len(d.labels))
	copy(out, d.labels)
	return out
}

// Label returns the i-th label.
func (d *Dictionary) Label(i int) (string, bool) {
	if i < 0 || i >= d.Len() {
		return "", false
	}
	return d.labels[i], true
}

// Vector returns a copy of the vector stored under label.
func (d *Dictionary) Vector(label string) ([]float64, bool) {
	if d == nil {
		return nil, false
	}
	i, ok := d.index[label]
	if !ok {
		return nil, false
	}
	out := make([]float64, len(d.vectors[i]))
	copy(out, d.vectors[i])
	return out, true
}

// Entries returns the entries in order.
func (d *Dictionary) Entries() []Entry {
	entries := make([]Entry, d.Len())
	for i := range entries {
		entries[i] = Entry{Label: d.labels[i], Vector: d.vectors[i]}
	}
	return entries
}

// References returns the entries as matcher references, in order.
func (d *Dictionary) References() []gesture.Reference {
	refs := make([]gesture.Reference, d.Len())
	for i := range refs {
		refs[i] = gesture.Reference{Label: d.labels[i], Vector: d.vectors[i]}
	}
	return refs
}

// Format identifies an archive codec.
type Format string

const (
	FormatNPZ    Format = "npz"
	FormatSQLite Format = "sqlite"
)

// FormatOf returns the archive format implied by the file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".npz":
		return FormatNPZ, nil
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Load reads a dictionary archive, choosing the codec from the extension.
func Load(path string) (*Dictionary, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatSQLite:
		return LoadSQLite(path)
	default:
		return LoadNPZ(path)
	}
}

// Save writes d to path, choosing the codec from the extension.
func Save(path string, d *Dictionary) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	switch format {
	case FormatSQLite:
		return SaveSQLite(path, d)
	default:
		return SaveNPZ(path, d)
	}
}
