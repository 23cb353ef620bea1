package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/edulearn/core"
	"github.com/trezcool/edulearn/core/signup"
)

type signupRepository struct {
	db *signupTable
}

var _ signup.Repository = (*signupRepository)(nil)

func NewSignupRepository(db *DB) *signupRepository {
	return &signupRepository{db: db.signup}
}

func (repo *signupRepository) CreateRequest(ctx context.Context, req signup.Request, _ ...core.DBExecutor) (signup.Request, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	email := core.CleanString(req.Email, true)
	for _, r := range repo.db.t {
		if r.IsPending() && core.CleanString(r.Email, true) == email {
			return signup.Request{}, signup.ErrPendingExists
		}
	}

	req.ID = uuid.New().String()
	repo.db.t[req.ID] = &req
	return req, nil
}

func (repo *signupRepository) GetRequest(ctx context.Context, id string, _ ...core.DBExecutor) (signup.Request, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if req, ok := repo.db.t[id]; ok {
		return *req, nil
	}
	return signup.Request{}, signup.ErrNotFound
}

// GetRequestForUpdate behaves like GetRequest; there is no row locking here.
// The conditional UpdateRequestStatus keeps transitions race-free regardless.
func (repo *signupRepository) GetRequestForUpdate(ctx context.Context, id string, exec ...core.DBExecutor) (signup.Request, error) {
	return repo.GetRequest(ctx, id, exec...)
}

func (repo *signupRepository) QueryRequestsByStatus(ctx context.Context, status string, _ ...core.DBExecutor) ([]signup.Request, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	reqs := make([]signup.Request, 0)
	for _, req := range repo.db.t {
		if req.Status == status {
			reqs = append(reqs, *req)
		}
	}
	sort.SliceStable(reqs, func(i, j int) bool { return reqs[i].CreatedAt.After(reqs[j].CreatedAt) })
	return reqs, nil
}

func (repo *signupRepository) UpdateRequestStatus(ctx context.Context, id, fromStatus, toStatus string, _ ...core.DBExecutor) (signup.Request, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	req, ok := repo.db.t[id]
	if !ok || req.Status != fromStatus {
		return signup.Request{}, signup.ErrNotFound
	}
	req.Status = toStatus
	req.UpdatedAt = time.Now().UTC()
	return *req, nil
}

func (repo *signupRepository) CountRequestsByStatus(ctx context.Context, status string, _ ...core.DBExecutor) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var count int
	for _, req := range repo.db.t {
		if req.Status == status {
			count++
		}
	}
	return count, nil
}
