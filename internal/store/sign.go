package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Sign represents a reference sign stored in the database.
type Sign struct {
	ID        string
	Label     string
	Position  int
	Samples   int
	CreatedAt time.Time
}

// Landmark is one reference point of a sign.
type Landmark struct {
	Index int
	X     float64
	Y     float64
	Z     float64
}

// SignRepository provides CRUD operations for reference signs.
type SignRepository struct {
	db *sql.DB
}

// Signs returns the sign repository for this store.
func (s *Store) Signs() *SignRepository {
	return &SignRepository{db: s.db}
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func insertSign(ex execer, sign *Sign, landmarks []Landmark) error {
	sign.CreatedAt = time.Now()

	if _, err := ex.Exec(
		`INSERT INTO signs (id, label, position, samples, created_at) VALUES (?, ?, ?, ?, ?)`,
		sign.ID, sign.Label, sign.Position, sign.Samples, sign.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert sign %q: %w", sign.Label, err)
	}

	for _, l := range landmarks {
		if _, err := ex.Exec(
			`INSERT INTO sign_landmarks (sign_id, landmark_index, x, y, z) VALUES (?, ?, ?, ?, ?)`,
			sign.ID, l.Index, l.X, l.Y, l.Z,
		); err != nil {
			return fmt.Errorf("insert landmark %d of %q: %w", l.Index, sign.Label, err)
		}
	}

	return nil
}

// Create inserts a sign and its landmarks in a single transaction.
func (r *SignRepository) Create(sign *Sign, landmarks []Landmark) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertSign(tx, sign, landmarks); err != nil {
		return err
	}

	return tx.Commit()
}

// ReplaceAll removes every sign and inserts the given ones in a single transaction.
// landmarks[i] belongs to signs[i].
func (r *SignRepository) ReplaceAll(signs []*Sign, landmarks [][]Landmark) error {
	if len(signs) != len(landmarks) {
		return fmt.Errorf("replace signs: %d signs but %d landmark sets", len(signs), len(landmarks))
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM signs`); err != nil {
		return err
	}

	for i, sign := range signs {
		if err := insertSign(tx, sign, landmarks[i]); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetByLabel retrieves a sign by its label.
func (r *SignRepository) GetByLabel(label string) (*Sign, error) {
	s := &Sign{}

	err := r.db.QueryRow(
		`SELECT id, label, position, samples, created_at FROM signs WHERE label = ?`,
		label,
	).Scan(&s.ID, &s.Label, &s.Position, &s.Samples, &s.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return s, nil
}

// List retrieves all signs ordered by position.
func (r *SignRepository) List() ([]*Sign, error) {
	rows, err := r.db.Query(
		`SELECT id, label, position, samples, created_at FROM signs ORDER BY position, label`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var signs []*Sign
	for rows.Next() {
		s := &Sign{}
		if err := rows.Scan(&s.ID, &s.Label, &s.Position, &s.Samples, &s.CreatedAt); err != nil {
			return nil, err
		}
		signs = append(signs, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return signs, nil
}

// GetLandmarks retrieves the landmarks of a sign ordered by landmark index.
func (r *SignRepository) GetLandmarks(signID string) ([]Landmark, error) {
	rows, err := r.db.Query(
		`SELECT landmark_index, x, y, z FROM sign_landmarks WHERE sign_id = ? ORDER BY landmark_index`,
		signID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var landmarks []Landmark
	for rows.Next() {
		var l Landmark
		if err := rows.Scan(&l.Index, &l.X, &l.Y, &l.Z); err != nil {
			return nil, err
		}
		landmarks = append(landmarks, l)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return landmarks, nil
}

// NextPosition returns the position after the last stored sign, 0 when empty.
func (r *SignRepository) NextPosition() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COALESCE(MAX(position) + 1, 0) FROM signs`).Scan(&n)
	return n, err
}

// Delete removes a sign by ID. Its landmarks are removed by cascade.
func (r *SignRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM signs WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
