// AngelaMos | 2026
// mocks_test.go

package user

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/carterperez-dev/templates/user-api/internal/core"
)

type memoryRepository struct {
	mu      sync.Mutex
	users   map[string]User
	order   []string
	saves   int
	findErr error
	saveErr error
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{users: make(map[string]User)}
}

func (m *memoryRepository) FindByID(_ context.Context, id string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.findErr != nil {
		return nil, m.findErr
	}

	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("find user: %w", core.ErrNotFound)
	}
	return cloneUser(u), nil
}

func (m *memoryRepository) FindByEmail(_ context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.findErr != nil {
		return nil, m.findErr
	}

	for _, id := range m.order {
		if u := m.users[id]; u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, fmt.Errorf("find user by email: %w", core.ErrNotFound)
}

func (m *memoryRepository) FindAll(_ context.Context) ([]User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	users := make([]User, 0, len(m.order))
	for _, id := range m.order {
		users = append(users, *cloneUser(m.users[id]))
	}
	return users, nil
}

func (m *memoryRepository) Save(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.saveErr != nil {
		return m.saveErr
	}

	if u.ID == "" {
		for _, existing := range m.users {
			if existing.Email == u.Email {
				return fmt.Errorf("save user: %w", core.ErrDuplicateKey)
			}
		}
		u.ID = uuid.New().String()
		m.order = append(m.order, u.ID)
	}

	m.users[u.ID] = *cloneUser(*u)
	m.saves++
	return nil
}

func (m *memoryRepository) Count(_ context.Context) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	active := 0
	for _, u := range m.users {
		if u.IsActive {
			active++
		}
	}
	return len(m.users), active, nil
}

func (m *memoryRepository) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func (m *memoryRepository) stored(id string) User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *cloneUser(m.users[id])
}

func cloneUser(u User) *User {
	c := u
	c.Phones = append([]Phone{}, u.Phones...)
	c.Roles = append([]Role{}, u.Roles...)
	if u.Token != nil {
		token := *u.Token
		c.Token = &token
	}
	return &c
}

type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) Issue(subject string) (string, error) {
	args := m.Called(subject)
	return args.String(0), args.Error(1)
}
