package fakeuserrepo

import (
	"context"
	"sort"
	"strings"
	"sync"

	apperrors "github.com/jrsteele09/wildlife-registry/internal/errors"
	"github.com/jrsteele09/wildlife-registry/users"
)

var _ users.UserRepo = (*FakeUserRepo)(nil)

type FakeUserRepo struct {
	users       map[int64]*users.User
	usernameIds map[string]int64 // lower-cased username to user id
	nextID      int64
	lock        sync.RWMutex

	// FailLookups makes GetByID and GetByUsername return ErrInternal, to
	// simulate an unavailable database.
	FailLookups bool
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		users:       make(map[int64]*users.User),
		usernameIds: make(map[string]int64),
	}
}

func (ur *FakeUserRepo) Upsert(_ context.Context, user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if user.ID == 0 {
		ur.nextID++
		user.ID = ur.nextID
	} else if user.ID > ur.nextID {
		ur.nextID = user.ID
	}
	if existing, ok := ur.users[user.ID]; ok {
		delete(ur.usernameIds, strings.ToLower(existing.Username))
	}
	ur.users[user.ID] = user.Clone()
	ur.usernameIds[strings.ToLower(user.Username)] = user.ID
	return nil
}

func (ur *FakeUserRepo) GetByID(_ context.Context, id int64) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	if ur.FailLookups {
		return nil, apperrors.ErrInternal
	}
	user, ok := ur.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return user.Clone(), nil
}

func (ur *FakeUserRepo) GetByUsername(_ context.Context, username string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	if ur.FailLookups {
		return nil, apperrors.ErrInternal
	}
	id, ok := ur.usernameIds[strings.ToLower(username)]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return ur.users[id].Clone(), nil
}

func (ur *FakeUserRepo) PersistCredential(_ context.Context, id int64, credential string) (bool, error) {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	user, ok := ur.users[id]
	if !ok {
		return false, nil
	}
	user.Credential = credential
	return true, nil
}

func (ur *FakeUserRepo) List(_ context.Context, offset, limit int) ([]*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	userList := make([]*users.User, 0, len(ur.users))
	for _, v := range ur.users {
		userList = append(userList, v.Clone())
	}
	sort.Slice(userList, func(i, j int) bool {
		return userList[i].ID < userList[j].ID
	})

	if offset >= len(userList) {
		return []*users.User{}, nil
	}
	end := len(userList)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return userList[offset:end], nil
}

// SetActive flips the active flag, mimicking an administrator action in the external store.
func (ur *FakeUserRepo) SetActive(id int64, active bool) {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if user, ok := ur.users[id]; ok {
		user.Active = active
	}
}

// SetRole changes the role of an identity.
func (ur *FakeUserRepo) SetRole(id int64, role users.RoleType) {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if user, ok := ur.users[id]; ok {
		user.Role = role
	}
}

// Remove deletes an identity.
func (ur *FakeUserRepo) Remove(id int64) {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if user, ok := ur.users[id]; ok {
		delete(ur.usernameIds, strings.ToLower(user.Username))
		delete(ur.users, id)
	}
}
