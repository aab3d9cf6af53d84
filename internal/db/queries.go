package db

import (
	"crypto/rand"
	"database/sql"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/obspack/obspack/internal/errors"
)

// Run is one recorded pack invocation.
type Run struct {
	// ID is a ULID that uniquely identifies this run
	ID string `json:"id"`
	// Vault is the resolved vault directory that was packed
	Vault string `json:"vault"`
	// OutputPath is where the packed document was written
	OutputPath string `json:"output_path"`
	// Notes is the number of notes included
	Notes int `json:"notes"`
	// Words is the estimated word count of the output
	Words int `json:"words"`
	// TokensEstimate is the estimated model token count of the output
	TokensEstimate int `json:"tokens_estimate"`
	// Truncated reports whether the estimate exceeded the word limit
	Truncated bool `json:"truncated"`
	// CreatedAt is the Unix timestamp of the run
	CreatedAt int64 `json:"created_at"`
}

// NewRunID generates a ULID for a run record.
func NewRunID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// InsertRun stores a run record. A zero ID or CreatedAt is filled in.
func InsertRun(db *sql.DB, r *Run) error {
	if r.ID == "" {
		r.ID = NewRunID()
	}
	if r.CreatedAt == 0 {
		r.CreatedAt = time.Now().Unix()
	}

	query := `
		INSERT INTO runs (
			id, vault, output_path, notes, words,
			tokens_estimate, truncated, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query,
		r.ID, r.Vault, r.OutputPath, r.Notes, r.Words,
		r.TokensEstimate, boolToInt(r.Truncated), r.CreatedAt,
	)
	if err != nil {
		return errors.NewInternal(err)
	}

	return nil
}

// GetRun retrieves a run by its ULID.
func GetRun(db *sql.DB, id string) (*Run, error) {
	query := `
		SELECT id, vault, output_path, notes, words,
			tokens_estimate, truncated, created_at
		FROM runs
		WHERE id = ?
	`

	r, err := scanRun(db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	return r, nil
}

// ListRuns returns run records newest-first. An empty vault matches all
// vaults; limit <= 0 means no limit.
func ListRuns(db *sql.DB, vault string, limit int) ([]*Run, error) {
	query := `
		SELECT id, vault, output_path, notes, words,
			tokens_estimate, truncated, created_at
		FROM runs
	`
	var args []any
	if vault != "" {
		query += " WHERE vault = ?"
		args = append(args, vault)
	}
	query += " ORDER BY created_at DESC, id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	return runs, nil
}

// scanner abstracts sql.Row and sql.Rows for scanRun.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var r Run
	var truncated int
	err := s.Scan(
		&r.ID, &r.Vault, &r.OutputPath, &r.Notes, &r.Words,
		&r.TokensEstimate, &truncated, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.Truncated = truncated != 0
	return &r, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
