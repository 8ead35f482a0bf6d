// Package stores persists sessions, orders and the menu catalog with gorm.
package stores

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fragisir/automatic-resturent-system/utils"
)

// Store groups the repositories over one gorm handle, which may be a transaction.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// WithContext binds every query issued through the returned store to ctx.
func (s *Store) WithContext(ctx context.Context) *Store {
	return &Store{db: s.db.WithContext(ctx)}
}

// Transaction runs fn inside a database transaction. Errors returned by fn are
// passed through untouched; driver failures become ErrStoreUnavailable.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
	return mapError(err)
}

func (s *Store) Sessions() *SessionStore {
	return &SessionStore{db: s.db}
}

func (s *Store) Orders() *OrderStore {
	return &OrderStore{db: s.db}
}

func (s *Store) Menu() *MenuStore {
	return &MenuStore{db: s.db}
}

// forUpdate adds a row lock where the dialect has one. SQLite serializes
// writers on its own.
func forUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "sqlite" {
		return db
	}
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.WrapError(utils.ErrNotFound, "", err)
	}
	return utils.WrapError(utils.ErrStoreUnavailable, "", err)
}
