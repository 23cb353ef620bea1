package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/edulearn/core"
	"github.com/trezcool/edulearn/core/progress"
)

type progressRepository struct {
	db *progressTable
}

var _ progress.Repository = (*progressRepository)(nil)

func NewProgressRepository(db *DB) *progressRepository {
	return &progressRepository{db: db.progress}
}

func progressKey(userID, videoID string) string {
	return userID + "/" + videoID
}

func (repo *progressRepository) UpsertProgress(ctx context.Context, prog progress.Progress, _ ...core.DBExecutor) (progress.Progress, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	key := progressKey(prog.UserID, prog.VideoID)
	if orig, ok := repo.db.t[key]; ok {
		orig.LastWatchedTime = prog.LastWatchedTime
		orig.Completed = prog.Completed
		orig.UpdatedAt = prog.UpdatedAt
		return *orig, nil
	}

	prog.ID = uuid.New().String()
	repo.db.t[key] = &prog
	return prog, nil
}

func (repo *progressRepository) GetProgress(ctx context.Context, userID, videoID string, _ ...core.DBExecutor) (progress.Progress, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if prog, ok := repo.db.t[progressKey(userID, videoID)]; ok {
		return *prog, nil
	}
	return progress.Progress{}, progress.ErrNotFound
}

func (repo *progressRepository) SetCompleted(ctx context.Context, userID, videoID string, at time.Time, _ ...core.DBExecutor) (progress.Progress, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	prog, ok := repo.db.t[progressKey(userID, videoID)]
	if !ok {
		return progress.Progress{}, progress.ErrNotFound
	}
	prog.Completed = true
	prog.UpdatedAt = at
	return *prog, nil
}

func (repo *progressRepository) QueryProgressByVideo(ctx context.Context, videoID string, _ ...core.DBExecutor) ([]progress.Progress, error) {
	return repo.query(func(prog progress.Progress) bool { return prog.VideoID == videoID })
}

func (repo *progressRepository) QueryProgressByUser(ctx context.Context, userID string, _ ...core.DBExecutor) ([]progress.Progress, error) {
	return repo.query(func(prog progress.Progress) bool { return prog.UserID == userID })
}

func (repo *progressRepository) query(match func(progress.Progress) bool) ([]progress.Progress, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	progs := make([]progress.Progress, 0)
	for _, prog := range repo.db.t {
		if match(*prog) {
			progs = append(progs, *prog)
		}
	}
	sort.SliceStable(progs, func(i, j int) bool { return progs[i].UpdatedAt.After(progs[j].UpdatedAt) })
	return progs, nil
}

func (repo *progressRepository) DeleteProgress(ctx context.Context, userID, videoID string, _ ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	key := progressKey(userID, videoID)
	if _, ok := repo.db.t[key]; !ok {
		return progress.ErrNotFound
	}
	delete(repo.db.t, key)
	return nil
}
