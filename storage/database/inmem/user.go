package inmemdb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/edulearn/core"
	"github.com/trezcool/edulearn/core/user"
)

type userRepository struct {
	db *userTable
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db.user}
}

func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.t))
	for _, usr := range repo.db.t {
		users = append(users, *usr)
	}
	return users
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User, _ ...core.DBExecutor) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	email := core.CleanString(usr.Email, true)
	for _, u := range repo.db.t {
		if core.CleanString(u.Email, true) == email {
			return user.User{}, user.ErrEmailExists
		}
	}

	usr.ID = uuid.New().String()
	repo.db.t[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter, _ ...core.DBExecutor) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if filter.ID != "" {
		if usr, ok := repo.db.t[filter.ID]; ok {
			return *usr, nil
		}
		return user.User{}, user.ErrNotFound
	}

	email := core.CleanString(filter.Email, true)
	for _, usr := range repo.db.t {
		if core.CleanString(usr.Email, true) == email {
			return *usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering, _ ...core.DBExecutor) ([]user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	users := make([]user.User, 0)
	for _, usr := range repo.query() {
		if matchUser(usr, filter) {
			users = append(users, usr)
		}
	}
	sortUsers(users, ordering)
	return users, nil
}

func matchUser(usr user.User, filter *user.QueryFilter) bool {
	if filter == nil {
		return true
	}
	if filter.Search != "" {
		search := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(usr.Name), search) &&
			!strings.Contains(strings.ToLower(usr.Email), search) &&
			!strings.Contains(strings.ToLower(usr.CollegeName), search) {
			return false
		}
	}
	if filter.Role != "" && usr.Role != filter.Role {
		return false
	}
	if filter.Online != nil && usr.Online != *filter.Online {
		return false
	}
	return true
}

func sortUsers(users []user.User, ordering []core.DBOrdering) {
	if len(ordering) == 0 {
		return
	}
	// created_at is the only ordering the services ask for
	ord := ordering[0]
	sort.SliceStable(users, func(i, j int) bool {
		if ord.Ascending {
			return users[i].CreatedAt.Before(users[j].CreatedAt)
		}
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User, _ ...core.DBExecutor) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	origUsr, ok := repo.db.t[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	origUsr.Name = usr.Name
	origUsr.CollegeName = usr.CollegeName
	origUsr.PasswordHash = usr.PasswordHash
	origUsr.UpdatedAt = usr.UpdatedAt
	return *origUsr, nil
}

func (repo *userRepository) SetOnline(ctx context.Context, id string, online bool, lastLogin *time.Time, _ ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	usr, ok := repo.db.t[id]
	if !ok {
		return user.ErrNotFound
	}
	usr.Online = online
	if lastLogin != nil {
		usr.LastLogin = *lastLogin
	}
	return nil
}

func (repo *userRepository) CountUsers(ctx context.Context, role string, online *bool, _ ...core.DBExecutor) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var count int
	for _, usr := range repo.db.t {
		if usr.Role != role {
			continue
		}
		if online != nil && usr.Online != *online {
			continue
		}
		count++
	}
	return count, nil
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids []string, _ ...core.DBExecutor) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	var count int
	for _, id := range ids {
		if _, ok := repo.db.t[id]; ok {
			delete(repo.db.t, id)
			count++
		}
	}
	return count, nil
}
