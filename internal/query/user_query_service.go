package query

import (
	"context"
	"errors"
	"math"

	"github.com/eaglebank/user-crud/internal/cqrs"
	"github.com/eaglebank/user-crud/internal/models"
	"github.com/eaglebank/user-crud/internal/repository"
	"github.com/eaglebank/user-crud/internal/validation"
)

// UserQueryService reads user views through the read repository.
type UserQueryService struct {
	readRepo *repository.UserReadRepository
}

func NewUserQueryService(readRepo *repository.UserReadRepository) *UserQueryService {
	return &UserQueryService{readRepo: readRepo}
}

func (s *UserQueryService) GetUser(ctx context.Context, q cqrs.GetUserQuery) (*models.UserView, error) {
	if issues := validation.ID(q.UserID); issues != nil {
		return nil, issues
	}
	view, err := s.readRepo.GetByID(ctx, q.UserID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, validation.Issues{validation.UserNotFound}
	}
	return view, err
}

// ListUsers returns one page of users. An empty page is reported as an issue.
func (s *UserQueryService) ListUsers(ctx context.Context, q cqrs.ListUsersQuery) ([]*models.UserView, error) {
	page, limit, issues := validation.Pagination(q.Page, q.Limit)
	if issues != nil {
		return nil, issues
	}

	if page-1 > math.MaxInt/limit {
		return nil, validation.Issues{validation.NoUsers}
	}
	offset := (page - 1) * limit
	views, err := s.readRepo.List(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, validation.Issues{validation.NoUsers}
	}
	return views, nil
}
