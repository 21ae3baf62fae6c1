package dictionary

import (
	"archive/zip"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sbinet/npyio/npy"
)

const npyExt = ".npy"

// ErrUnsupportedDtype is returned for npz members that are not numeric arrays.
var ErrUnsupportedDtype = errors.New("unsupported npy dtype")

// LoadNPZ reads a NumPy .npz archive of named arrays. Each array becomes one
// entry named after its member, flattened in C order. Entry order follows the
// archive's member order, the same order numpy reports as NpzFile.files.
func LoadNPZ(path string) (*Dictionary, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open npz %s: %w", path, err)
	}
	defer zr.Close()

	entries := make([]Entry, 0, len(zr.File))
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !strings.HasSuffix(f.Name, npyExt) {
			continue
		}
		vec, err := readMember(f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		entries = append(entries, Entry{
			Label:  strings.TrimSuffix(f.Name, npyExt),
			Vector: vec,
		})
	}

	return New(entries...)
}

func readMember(f *zip.File) ([]float64, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	r, err := npy.NewReader(rc)
	if err != nil {
		return nil, err
	}

	descr := r.Header.Descr
	kind := descr.Type
	if len(kind) > 2 {
		kind = kind[len(kind)-2:]
	}

	var vec []float64
	switch kind {
	case "f8":
		err = r.Read(&vec)
	case "f4":
		vec, err = readAs[float32](r)
	case "i1":
		vec, err = readAs[int8](r)
	case "i2":
		vec, err = readAs[int16](r)
	case "i4":
		vec, err = readAs[int32](r)
	case "i8":
		vec, err = readAs[int64](r)
	case "u1":
		vec, err = readAs[uint8](r)
	case "u2":
		vec, err = readAs[uint16](r)
	case "u4":
		vec, err = readAs[uint32](r)
	case "u8":
		vec, err = readAs[uint64](r)
	default:
		return nil, fmt.Errorf("%w: dtype %q", ErrUnsupportedDtype, descr.Type)
	}
	if err != nil {
		return nil, err
	}

	if descr.Fortran && len(descr.Shape) == 2 {
		vec = fortranToC(vec, descr.Shape[0], descr.Shape[1])
	}

	return vec, nil
}

type numeric interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~float32
}

// readAs reads the member as []T and widens every value to float64.
func readAs[T numeric](r *npy.Reader) ([]float64, error) {
	var raw []T
	if err := r.Read(&raw); err != nil {
		return nil, err
	}
	vec := make([]float64, len(raw))
	for i, v := range raw {
		vec[i] = float64(v)
	}
	return vec, nil
}

// fortranToC reorders a column-major rows x cols matrix into row-major order.
func fortranToC(vec []float64, rows, cols int) []float64 {
	if rows*cols != len(vec) {
		return vec
	}
	out := make([]float64, len(vec))
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out[i*cols+j] = vec[j*rows+i]
		}
	}
	return out
}

// SaveNPZ writes d as a .npz archive with one float64 array per label, in order.
func SaveNPZ(path string, d *Dictionary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create npz %s: %w", path, err)
	}

	zw := zip.NewWriter(f)
	for _, e := range d.Entries() {
		w, err := zw.Create(e.Label + npyExt)
		if err != nil {
			f.Close()
			return fmt.Errorf("add %s: %w", e.Label, err)
		}
		if err := npy.Write(w, e.Vector); err != nil {
			f.Close()
			return fmt.Errorf("encode %s: %w", e.Label, err)
		}
	}

	if err := zw.Close(); err != nil {
		f.Close()
		return fmt.Errorf("finalize npz %s: %w", path, err)
	}
	return f.Close()
}
