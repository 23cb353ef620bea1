package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/edulearn/core"
	"github.com/trezcool/edulearn/core/video"
)

type videoRepository struct {
	db *videoTable
}

var _ video.Repository = (*videoRepository)(nil)

func NewVideoRepository(db *DB) *videoRepository {
	return &videoRepository{db: db.video}
}

func (repo *videoRepository) CreateVideo(ctx context.Context, vid video.Video, _ ...core.DBExecutor) (video.Video, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	vid.ID = uuid.New().String()
	repo.db.t[vid.ID] = &vid
	return vid, nil
}

func (repo *videoRepository) GetVideoByID(ctx context.Context, id string, _ ...core.DBExecutor) (video.Video, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if vid, ok := repo.db.t[id]; ok {
		return *vid, nil
	}
	return video.Video{}, video.ErrNotFound
}

func (repo *videoRepository) QueryVideos(ctx context.Context, filter *video.QueryFilter, ordering []core.DBOrdering, _ ...core.DBExecutor) ([]video.Video, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	videos := make([]video.Video, 0)
	for _, vid := range repo.db.t {
		if matchVideo(*vid, filter) {
			videos = append(videos, *vid)
		}
	}
	if len(ordering) > 0 {
		ord := ordering[0]
		sort.SliceStable(videos, func(i, j int) bool {
			if ord.Ascending {
				return videos[i].CreatedAt.Before(videos[j].CreatedAt)
			}
			return videos[i].CreatedAt.After(videos[j].CreatedAt)
		})
	}
	return videos, nil
}

func matchVideo(vid video.Video, filter *video.QueryFilter) bool {
	if filter == nil {
		return true
	}
	if filter.Search != "" {
		search := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(vid.Title), search) &&
			!strings.Contains(strings.ToLower(vid.Description), search) &&
			!strings.Contains(strings.ToLower(vid.Subject), search) {
			return false
		}
	}
	if filter.Subject != "" && vid.Subject != filter.Subject {
		return false
	}
	if filter.UploadedBy != "" && vid.UploadedBy != filter.UploadedBy {
		return false
	}
	return true
}

func (repo *videoRepository) UpdateVideo(ctx context.Context, vid video.Video, _ ...core.DBExecutor) (video.Video, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	origVid, ok := repo.db.t[vid.ID]
	if !ok {
		return video.Video{}, video.ErrNotFound
	}
	origVid.Title = vid.Title
	origVid.Description = vid.Description
	origVid.Subject = vid.Subject
	origVid.VideoURL = vid.VideoURL
	origVid.UpdatedAt = vid.UpdatedAt
	return *origVid, nil
}

func (repo *videoRepository) DeleteVideo(ctx context.Context, id string, _ ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.t[id]; !ok {
		return video.ErrNotFound
	}
	delete(repo.db.t, id)
	return nil
}

func (repo *videoRepository) QuerySubjects(ctx context.Context, _ ...core.DBExecutor) ([]string, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	seen := make(map[string]struct{})
	subjects := make([]string, 0)
	for _, vid := range repo.db.t {
		if _, ok := seen[vid.Subject]; !ok {
			seen[vid.Subject] = struct{}{}
			subjects = append(subjects, vid.Subject)
		}
	}
	sort.Strings(subjects)
	return subjects, nil
}

func (repo *videoRepository) CountVideos(ctx context.Context, _ ...core.DBExecutor) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return len(repo.db.t), nil
}
