package repository

import (
	"context"

	"github.com/eaglebank/user-crud/internal/cache"
	"github.com/eaglebank/user-crud/internal/models"
)

const userViewKeyPrefix = "user:view:"

// UserReadRepository serves user views, trying the view cache first and
// falling back to the store. Only the command side writes the cache: a read
// that raced a delete must not put the deleted user back.
type UserReadRepository struct {
	store UserStore
	cache *cache.ViewCache[models.UserView]
}

// NewUserReadRepository wires a read repository. viewCache may be nil.
func NewUserReadRepository(store UserStore, viewCache *cache.ViewCache[models.UserView]) *UserReadRepository {
	return &UserReadRepository{store: store, cache: viewCache}
}

// GetByID returns a UserView from the cache first, then the store.
func (r *UserReadRepository) GetByID(ctx context.Context, id string) (*models.UserView, error) {
	if view, ok := r.cache.Get(ctx, userViewKeyPrefix+id); ok {
		return view, nil
	}

	user, err := r.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.View(), nil
}

// List returns one window of users straight from the store.
func (r *UserReadRepository) List(ctx context.Context, offset, limit int) ([]*models.UserView, error) {
	users, err := r.store.List(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	return models.Views(users), nil
}

// CacheUserView stores or refreshes the cached view of a user.
// Called by the command service after every mutation.
func (r *UserReadRepository) CacheUserView(ctx context.Context, view *models.UserView) {
	r.cache.Set(ctx, userViewKeyPrefix+view.ID, view)
}

// InvalidateUserView removes the cached view of a deleted user.
func (r *UserReadRepository) InvalidateUserView(ctx context.Context, userID string) {
	r.cache.Delete(ctx, userViewKeyPrefix+userID)
}
