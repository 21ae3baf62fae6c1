// Package detector provides hand landmark types, shape validation and normalization.
package detector

import (
	"errors"
	"fmt"
	"math"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Dimensions is the number of coordinates per landmark.
const Dimensions = 3

// FlatLen is the length of a flattened landmark set.
const FlatLen = NumLandmarks * Dimensions

var (
	// ErrInvalidShape is returned when input landmarks are not 21 rows of 3 columns.
	ErrInvalidShape = errors.New("invalid landmarks shape")
	// ErrEmptyLandmarks is returned when no landmarks are supplied at all.
	ErrEmptyLandmarks = fmt.Errorf("%w: landmarks array is empty", ErrInvalidShape)
)

// ShapeError describes the shape of rejected landmark input.
type ShapeError struct {
	Rows int
	Cols int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("invalid landmarks shape: expected (%d, %d), got (%d, %d)",
		NumLandmarks, Dimensions, e.Rows, e.Cols)
}

// Is reports ShapeError as an ErrInvalidShape.
func (e *ShapeError) Is(target error) bool {
	return target == ErrInvalidShape
}

// Point3D represents a 3D point in space with x, y, z coordinates.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Sub returns p - q.
func (p Point3D) Sub(q Point3D) Point3D {
	return Point3D{X: p.X - q.X, Y: p.Y - q.Y, Z: p.Z - q.Z}
}

// Dot returns the dot product of p and q.
func (p Point3D) Dot(q Point3D) float64 {
	return p.X*q.X + p.Y*q.Y + p.Z*q.Z
}

// Norm returns the Euclidean length of p.
func (p Point3D) Norm() float64 {
	return math.Sqrt(p.Dot(p))
}

// Landmarks is an ordered set of 21 hand landmarks.
type Landmarks [NumLandmarks]Point3D

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     Landmarks `json:"points"`
	Handedness string    `json:"handedness"` // "Left" or "Right"
	Score      float64   `json:"score"`
}

// ParseLandmarks validates raw rows and converts them into a Landmarks set.
// The input must contain exactly 21 rows of exactly 3 values each.
func ParseLandmarks(rows [][]float64) (Landmarks, error) {
	var lm Landmarks

	if len(rows) == 0 {
		return lm, ErrEmptyLandmarks
	}

	cols := len(rows[0])
	for _, row := range rows {
		if len(row) != cols {
			// Ragged input: report the first row width that breaks the pattern.
			cols = len(row)
			break
		}
	}
	if len(rows) != NumLandmarks || cols != Dimensions {
		return lm, &ShapeError{Rows: len(rows), Cols: cols}
	}
	for i, row := range rows {
		if len(row) != Dimensions {
			return lm, &ShapeError{Rows: len(rows), Cols: len(row)}
		}
		lm[i] = Point3D{X: row[0], Y: row[1], Z: row[2]}
	}

	return lm, nil
}

// NormalizeRows validates rows and returns their normalized form.
func NormalizeRows(rows [][]float64) (Landmarks, error) {
	lm, err := ParseLandmarks(rows)
	if err != nil {
		return lm, err
	}
	return lm.Normalize(), nil
}

// Centroid returns the element-wise mean of the landmarks.
func (l Landmarks) Centroid() Point3D {
	var c Point3D
	for _, p := range l {
		c.X += p.X
		c.Y += p.Y
		c.Z += p.Z
	}
	n := float64(NumLandmarks)
	return Point3D{X: c.X / n, Y: c.Y / n, Z: c.Z / n}
}

// Normalize returns the landmarks translated so their centroid is at the origin
// and scaled so the farthest point lies at distance 1.0.
// A degenerate set (all points identical) is returned centered but unscaled.
func (l Landmarks) Normalize() Landmarks {
	var normalized Landmarks

	centroid := l.Centroid()

	var maxDist float64
	for i, p := range l {
		normalized[i] = p.Sub(centroid)
		if d := normalized[i].Norm(); d > maxDist {
			maxDist = d
		}
	}

	if maxDist <= 0 {
		return normalized
	}

	for i := range normalized {
		normalized[i].X /= maxDist
		normalized[i].Y /= maxDist
		normalized[i].Z /= maxDist
	}

	return normalized
}

// Flatten returns the coordinates as x0, y0, z0, x1, ... in landmark order.
func (l Landmarks) Flatten() []float64 {
	flat := make([]float64, 0, FlatLen)
	for _, p := range l {
		flat = append(flat, p.X, p.Y, p.Z)
	}
	return flat
}

// Float32 returns the flattened coordinates as float32, the classifier input layout.
func (l Landmarks) Float32() []float32 {
	flat := make([]float32, 0, FlatLen)
	for _, p := range l {
		flat = append(flat, float32(p.X), float32(p.Y), float32(p.Z))
	}
	return flat
}

// Rows converts the landmarks back to [][]float64 rows.
func (l Landmarks) Rows() [][]float64 {
	rows := make([][]float64, NumLandmarks)
	for i, p := range l {
		rows[i] = []float64{p.X, p.Y, p.Z}
	}
	return rows
}
