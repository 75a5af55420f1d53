package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/xtrntr/marketplace/internal/models"
)

var (
	ErrUserExists   = errors.New("user already exists")
	ErrUserNotFound = errors.New("user not found")
)

// MemoryStore keeps users in process memory, for running without Postgres.
type MemoryStore struct {
	mu     sync.Mutex
	nextID int
	users  map[string]*models.User
}

var _ UserStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]*models.User)}
}

func (m *MemoryStore) CreateUser(_ context.Context, username, passwordHash string, address models.Address) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[username]; ok {
		return nil, ErrUserExists
	}
	m.nextID++
	u := &models.User{
		ID:           m.nextID,
		Username:     username,
		PasswordHash: passwordHash,
		Address:      address,
		CreatedAt:    time.Now().UTC(),
	}
	m.users[username] = u
	out := *u
	return &out, nil
}

func (m *MemoryStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	out := *u
	return &out, nil
}
