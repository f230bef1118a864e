// Package repo persists users and projects. Two backends implement the
// same interfaces: whole-document JSON files (the default) and PostgreSQL.
package repo

import (
	"context"

	"github.com/pkg/errors"

	"github.com/tombers/tombers/internal/models"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrEmailTaken    = errors.New("email already registered")
	ErrUsernameTaken = errors.New("username already taken")
)

// UserRepository stores user records, password digest included.
type UserRepository interface {
	// Create assigns the next id and stores u. It fails with ErrEmailTaken
	// or ErrUsernameTaken when either is already in use.
	Create(ctx context.Context, u models.User) (models.User, error)
	GetByID(ctx context.Context, id int) (models.User, error)
	// GetByEmail matches case-insensitively.
	GetByEmail(ctx context.Context, email string) (models.User, error)
	// Update loads the user, applies fn and stores the result atomically.
	Update(ctx context.Context, id int, fn func(u *models.User) error) (models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Ping(ctx context.Context) error
}

// ProjectRepository stores projects in insertion order.
type ProjectRepository interface {
	List(ctx context.Context) ([]models.Project, error)
	GetByID(ctx context.Context, id int) (models.Project, error)
	// Create assigns the next id and appends p.
	Create(ctx context.Context, p models.Project) (models.Project, error)
	Update(ctx context.Context, id int, fn func(p *models.Project) error) (models.Project, error)
	// Delete removes the project and returns it.
	Delete(ctx context.Context, id int) (models.Project, error)
	Ping(ctx context.Context) error
}

// nextID returns the id after both the persisted sequence and every id in
// use, so ids are never handed out twice even if the sequence was lost.
func nextID(sequence int, ids []int) int {
	high := sequence
	for _, id := range ids {
		if id > high {
			high = id
		}
	}
	return high + 1
}
