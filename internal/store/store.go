// Package store holds the typed data accessors for the relational tables.
// All deletes are soft (the Active flag is cleared); default reads exclude
// inactive rows unless a method says otherwise.
package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrNotFound reports that no row matched
var ErrNotFound = errors.New("record not found")

// DataAccessError wraps a failure from the underlying store, keeping the
// driver's message for logs while callers branch on ErrNotFound only.
type DataAccessError struct {
	Op  string
	Err error
}

func (e *DataAccessError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *DataAccessError) Unwrap() error {
	return e.Err
}

// wrap converts a gorm error into the store error vocabulary
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return &DataAccessError{Op: op, Err: err}
}

// Stores bundles every accessor over one database handle
type Stores struct {
	Usuarios   *UsuarioStore
	Empresas   *EmpresaStore
	Conexoes   *ConexaoStore
	Posts      *PostStore
	Activities *ActivityStore
}

// New creates the accessor bundle
func New(db *gorm.DB) *Stores {
	return &Stores{
		Usuarios:   &UsuarioStore{db: db},
		Empresas:   &EmpresaStore{db: db},
		Conexoes:   &ConexaoStore{db: db},
		Posts:      &PostStore{db: db},
		Activities: &ActivityStore{db: db},
	}
}
