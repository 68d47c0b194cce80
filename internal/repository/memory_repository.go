package repository

import (
	"context"
	"sync"

	"github.com/eaglebank/user-crud/internal/models"
)

var _ UserStore = (*MemoryUserStore)(nil)

// MemoryUserStore keeps users in process memory, in insertion order.
// Safe for concurrent use.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[string]models.User
	order []string
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[string]models.User)}
}

func (s *MemoryUserStore) List(_ context.Context, offset, limit int) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if offset >= len(s.order) {
		return []models.User{}, nil
	}
	end := offset + limit
	if end > len(s.order) {
		end = len(s.order)
	}
	users := make([]models.User, 0, end-offset)
	for _, id := range s.order[offset:end] {
		users = append(users, s.users[id])
	}
	return users, nil
}

func (s *MemoryUserStore) GetByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &user, nil
}

func (s *MemoryUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id, ok := s.emailOwner(email); ok {
		user := s.users[id]
		return &user, nil
	}
	return nil, ErrUserNotFound
}

func (s *MemoryUserStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.emailOwner(user.Email); ok {
		return ErrEmailExists
	}
	s.users[user.ID] = *user
	s.order = append(s.order, user.ID)
	return nil
}

func (s *MemoryUserStore) Update(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return ErrUserNotFound
	}
	if owner, ok := s.emailOwner(user.Email); ok && owner != user.ID {
		return ErrEmailExists
	}
	s.users[user.ID] = *user
	return nil
}

func (s *MemoryUserStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return ErrUserNotFound
	}
	delete(s.users, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// emailOwner must be called with mu held.
func (s *MemoryUserStore) emailOwner(email string) (string, bool) {
	for id, u := range s.users {
		if u.Email == email {
			return id, true
		}
	}
	return "", false
}
