package repository

import "errors"

var (
	ErrNotFound        = errors.New("record not found")
	ErrVersionConflict = errors.New("version conflict")
)

// pgxRows is a minimal interface to allow scanning from pgx rows and simplify testing.
type pgxRows interface {
	Next() bool
	Scan(...interface{}) error
	Err() error
	Close()
}
