package account

import (
	"context"
	"sync"
	"time"

	"github.com/storefront/accounts/internal/shared"
)

// memStore is an in-memory UserStore with a unique email index.
type memStore struct {
	mu        sync.Mutex
	users     map[int64]*User
	nextID    int64
	mutations int

	findErr   error
	createErr error
	updateErr error
}

func newMemStore() *memStore {
	return &memStore{users: make(map[int64]*User), nextID: 1}
}

func (m *memStore) Create(ctx context.Context, in NewUser) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	for _, u := range m.users {
		if u.Email == in.Email {
			return nil, shared.ErrDuplicateAccount
		}
	}
	now := time.Now().UTC()
	user := &User{
		ID:           m.nextID,
		Email:        in.Email,
		Username:     in.Username,
		PhoneNumber:  in.PhoneNumber,
		Address:      in.Address,
		PasswordHash: in.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.users[user.ID] = user
	m.nextID++
	m.mutations++
	copied := *user
	return &copied, nil
}

func (m *memStore) FindByID(ctx context.Context, id int64) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	user, ok := m.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (m *memStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, user := range m.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memStore) Update(ctx context.Context, id int64, patch UserPatch) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	user, ok := m.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	if patch.Email != nil {
		for otherID, other := range m.users {
			if otherID != id && other.Email == *patch.Email {
				return nil, shared.ErrDuplicateAccount
			}
		}
		user.Email = *patch.Email
	}
	if patch.Username != nil {
		user.Username = *patch.Username
	}
	if patch.PhoneNumber != nil {
		user.PhoneNumber = *patch.PhoneNumber
	}
	if patch.Address != nil {
		user.Address = *patch.Address
	}
	user.UpdatedAt = time.Now().UTC()
	m.mutations++
	copied := *user
	return &copied, nil
}

func (m *memStore) countEmail(email string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, user := range m.users {
		if user.Email == email {
			n++
		}
	}
	return n
}

func (m *memStore) remove(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
}

func (m *memStore) mutationCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mutations
}

// fakeSession is an in-memory SessionStore.
type fakeSession struct {
	userID         int64
	bound          bool
	destroyed      bool
	establishCalls int
	establishErr   error
	destroyErr     error
}

func (f *fakeSession) UserID() (int64, bool) {
	if f.destroyed || !f.bound {
		return 0, false
	}
	return f.userID, true
}

func (f *fakeSession) Establish(ctx context.Context, userID int64) error {
	f.establishCalls++
	if f.establishErr != nil {
		return f.establishErr
	}
	f.userID = userID
	f.bound = true
	f.destroyed = false
	return nil
}

func (f *fakeSession) Destroy(ctx context.Context) error {
	if f.destroyErr != nil {
		return f.destroyErr
	}
	f.destroyed = true
	f.bound = false
	return nil
}

func strptr(s string) *string {
	return &s
}
