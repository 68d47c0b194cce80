package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/eaglebank/user-crud/internal/cache"
	"github.com/eaglebank/user-crud/internal/command"
	"github.com/eaglebank/user-crud/internal/events"
	"github.com/eaglebank/user-crud/internal/models"
	"github.com/eaglebank/user-crud/internal/query"
	"github.com/eaglebank/user-crud/internal/repository"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// memRedis is a concurrency-safe stand-in for the commands ViewCache uses.
type memRedis struct {
	goredis.Cmdable
	mu   sync.Mutex
	data map[string]string
}

func newMemRedis() *memRedis {
	return &memRedis{data: map[string]string{}}
}

func (m *memRedis) Get(_ context.Context, key string) *goredis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return goredis.NewStringResult("", goredis.Nil)
	}
	return goredis.NewStringResult(v, nil)
}

func (m *memRedis) Set(_ context.Context, key string, value interface{}, _ time.Duration) *goredis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = string(value.([]byte))
	return goredis.NewStatusResult("OK", nil)
}

func (m *memRedis) Del(_ context.Context, keys ...string) *goredis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return goredis.NewIntResult(int64(len(keys)), nil)
}

// expireAll drops every key, as if the TTL had passed.
func (m *memRedis) expireAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = map[string]string{}
}

// pausingStore holds GetByID after the row was read until release is closed.
type pausingStore struct {
	*repository.MemoryUserStore
	pause   bool
	read    chan struct{}
	release chan struct{}
}

func (s *pausingStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.MemoryUserStore.GetByID(ctx, id)
	if s.pause {
		s.read <- struct{}{}
		<-s.release
	}
	return user, err
}

func TestFlow_DeleteDuringColdGetIsNotResurrected(t *testing.T) {
	store := &pausingStore{
		MemoryUserStore: repository.NewMemoryUserStore(),
		read:            make(chan struct{}),
		release:         make(chan struct{}),
	}
	redis := newMemRedis()
	readRepo := repository.NewUserReadRepository(store, cache.NewViewCache[models.UserView](redis, "users-test", time.Minute))
	cmds := command.NewUserCommandService(store, readRepo, events.NopPublisher{}, bcrypt.MinCost)
	router := newUserTestRouter(cmds, query.NewUserQueryService(readRepo))

	id := createAnn(t, router)["id"].(string)
	redis.expireAll()
	store.pause = true

	done := make(chan *httptest.ResponseRecorder)
	go func() {
		done <- userDoRequest(router, http.MethodGet, "/users/"+id, nil)
	}()
	<-store.read

	w := userDoRequest(router, http.MethodDelete, "/users/"+id, nil)
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	close(store.release)
	<-done
	store.pause = false

	w = userDoRequest(router, http.MethodGet, "/users/"+id, nil)
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	issues := decodeIssues(t, w.Body.Bytes())
	require.Len(t, issues, 1)
	assert.Equal(t, "User not found.", issues[0].Message)
}

func TestFlow_ColdGetDoesNotFillCache(t *testing.T) {
	store := repository.NewMemoryUserStore()
	redis := newMemRedis()
	readRepo := repository.NewUserReadRepository(store, cache.NewViewCache[models.UserView](redis, "users-test", time.Minute))
	cmds := command.NewUserCommandService(store, readRepo, events.NopPublisher{}, bcrypt.MinCost)
	router := newUserTestRouter(cmds, query.NewUserQueryService(readRepo))

	id := createAnn(t, router)["id"].(string)
	redis.expireAll()

	w := userDoRequest(router, http.MethodGet, "/users/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Empty(t, redis.data)
}
