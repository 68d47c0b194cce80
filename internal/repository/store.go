package repository

import (
	"context"
	"errors"

	"github.com/eaglebank/user-crud/internal/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailExists  = errors.New("email already exists")
)

// UserStore is the persistence collaborator for user records.
// Implementations report missing records with ErrUserNotFound and email
// collisions with ErrEmailExists; any other error is a store failure.
type UserStore interface {
	List(ctx context.Context, offset, limit int) ([]models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
}
