package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eaglebank/user-crud/internal/cqrs"
	"github.com/eaglebank/user-crud/internal/events"
	"github.com/eaglebank/user-crud/internal/logger"
	"github.com/eaglebank/user-crud/internal/models"
	"github.com/eaglebank/user-crud/internal/repository"
	"github.com/eaglebank/user-crud/internal/utils"
	"github.com/eaglebank/user-crud/internal/validation"
	"github.com/sirupsen/logrus"
)

// EventPublisher appends an event to a stream.
type EventPublisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

// UserCommandService writes user state to the store and keeps the cached
// read model up to date.
//
// Validation and business-rule failures are returned as validation.Issues;
// any other error is a store failure.
type UserCommandService struct {
	store     repository.UserStore
	readRepo  *repository.UserReadRepository
	publisher EventPublisher
	hashCost  int
	now       func() time.Time
}

func NewUserCommandService(
	store repository.UserStore,
	readRepo *repository.UserReadRepository,
	publisher EventPublisher,
	hashCost int,
) *UserCommandService {
	return &UserCommandService{
		store:     store,
		readRepo:  readRepo,
		publisher: publisher,
		hashCost:  hashCost,
		now:       time.Now,
	}
}

func (s *UserCommandService) CreateUser(ctx context.Context, cmd cqrs.CreateUserCommand) (*models.UserView, error) {
	req := cmd.Request
	if issues := validation.CreateUser(req); issues != nil {
		return nil, issues
	}

	id := utils.GenerateID()
	if issues := validation.Struct(validation.User{
		ID:       id,
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Gender:   req.Gender,
	}); issues != nil {
		return nil, issues
	}

	if err := s.ensureEmailFree(ctx, req.Email, ""); err != nil {
		return nil, err
	}

	passwordHash, err := utils.HashPassword(req.Password, s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	now := s.now().UTC()
	user := &models.User{
		ID:           id,
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Gender:       req.Gender,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, validation.Issues{validation.EmailTaken}
		}
		return nil, err
	}

	view := user.View()
	s.readRepo.CacheUserView(ctx, view)
	s.publish(ctx, events.UserCreated, events.UserCreatedEvent{
		UserID:   user.ID,
		Email:    user.Email,
		Username: user.Username,
	})
	return view, nil
}

// UpdateUser applies the fields present in the request and leaves the others
// untouched.
func (s *UserCommandService) UpdateUser(ctx context.Context, cmd cqrs.UpdateUserCommand) (*models.UserView, error) {
	if issues := validation.ID(cmd.UserID); issues != nil {
		return nil, issues
	}
	req := cmd.Request
	if issues := validation.Struct(req); issues != nil {
		return nil, issues
	}

	user, err := s.store.GetByID(ctx, cmd.UserID)
	if err != nil {
		return nil, notFoundIssue(err)
	}

	if req.Email != nil && *req.Email != user.Email {
		if err := s.ensureEmailFree(ctx, *req.Email, user.ID); err != nil {
			return nil, err
		}
		user.Email = *req.Email
	}
	if req.Username != nil {
		user.Username = *req.Username
	}
	if req.Gender != nil {
		user.Gender = *req.Gender
	}
	if req.Password != nil {
		passwordHash, err := utils.HashPassword(*req.Password, s.hashCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = passwordHash
	}
	user.UpdatedAt = s.now().UTC()

	if err := s.store.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, validation.Issues{validation.EmailTaken}
		}
		return nil, notFoundIssue(err)
	}

	view := user.View()
	s.readRepo.CacheUserView(ctx, view)
	s.publish(ctx, events.UserUpdated, events.UserUpdatedEvent{
		UserID:   user.ID,
		Email:    user.Email,
		Username: user.Username,
	})
	return view, nil
}

func (s *UserCommandService) DeleteUser(ctx context.Context, cmd cqrs.DeleteUserCommand) error {
	if issues := validation.ID(cmd.UserID); issues != nil {
		return issues
	}
	if err := s.store.Delete(ctx, cmd.UserID); err != nil {
		return notFoundIssue(err)
	}
	s.readRepo.InvalidateUserView(ctx, cmd.UserID)
	s.publish(ctx, events.UserDeleted, events.UserDeletedEvent{UserID: cmd.UserID})
	return nil
}

// ensureEmailFree fails with an email issue when another user owns email.
func (s *UserCommandService) ensureEmailFree(ctx context.Context, email, selfID string) error {
	existing, err := s.store.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != selfID {
		return validation.Issues{validation.EmailTaken}
	}
	return nil
}

func (s *UserCommandService) publish(ctx context.Context, eventType string, data any) {
	if err := s.publisher.Publish(ctx, events.UserEventsStream, eventType, data); err != nil {
		logger.Log.WithFields(logrus.Fields{"event": eventType}).Errorf("Failed to publish event: %v", err)
	}
}

func notFoundIssue(err error) error {
	if errors.Is(err, repository.ErrUserNotFound) {
		return validation.Issues{validation.UserNotFound}
	}
	return err
}
