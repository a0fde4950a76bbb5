package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository aggregates all repositories.
type Repository struct {
	Event EventRepository
	User  UserRepository

	db *gorm.DB
}

// NewRepository builds the repository aggregate.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Event: NewEventRepo(db),
		User:  NewUserRepo(db),
		db:    db,
	}
}

// Transaction runs fn against a transaction-scoped copy of the aggregate.
// Every row change inside fn commits or rolls back as one unit; series edits
// rely on this so a half-applied split is never observable.
//
// Aggregates assembled without a database (in-memory repositories in tests)
// run fn directly against themselves.
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(txDB *gorm.DB) error {
		return fn(NewRepository(txDB))
	})
}
