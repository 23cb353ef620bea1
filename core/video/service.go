package video

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/edulearn/core"
)

var (
	// errors
	ErrNotFound = errors.New("video not found")
)

type (
	Repository interface {
		CreateVideo(ctx context.Context, vid Video, exec ...core.DBExecutor) (Video, error)
		GetVideoByID(ctx context.Context, id string, exec ...core.DBExecutor) (Video, error)
		// QueryVideos applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of
		// Video.Title, Video.Description or Video.Subject.
		QueryVideos(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Video, error)
		UpdateVideo(ctx context.Context, vid Video, exec ...core.DBExecutor) (Video, error)
		DeleteVideo(ctx context.Context, id string, exec ...core.DBExecutor) error
		// QuerySubjects returns the distinct subjects in use, sorted.
		QuerySubjects(ctx context.Context, exec ...core.DBExecutor) ([]string, error)
		CountVideos(ctx context.Context, exec ...core.DBExecutor) (int, error)
	}

	// FileStore is the boundary to wherever uploaded video blobs live.
	FileStore interface {
		Remove(path string) error
	}

	Service interface {
		Create(ctx context.Context, uploaderID string, nv NewVideo) (Video, error)
		GetByID(ctx context.Context, id string) (Video, error)
		Filter(ctx context.Context, filter QueryFilter) ([]Video, error)
		Update(ctx context.Context, vid Video, uv UpdateVideo) (Video, error)
		Delete(ctx context.Context, id string) error
		Subjects(ctx context.Context) ([]string, error)
		Count(ctx context.Context) (int, error)
	}

	service struct {
		repo   Repository
		files  FileStore
		logger core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, files FileStore, logger core.Logger) *service {
	return &service{repo: repo, files: files, logger: logger}
}

func (svc *service) Create(ctx context.Context, uploaderID string, nv NewVideo) (Video, error) {
	if err := nv.Validate(); err != nil {
		return Video{}, err
	}

	now := time.Now().UTC()
	vid := Video{
		Title:       nv.Title,
		Description: nv.Description,
		Subject:     nv.Subject,
		VideoURL:    nv.VideoURL,
		VideoType:   nv.VideoType,
		StoragePath: nv.StoragePath,
		UploadedBy:  uploaderID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateVideo(ctx, vid)
}

func (svc *service) GetByID(ctx context.Context, id string) (Video, error) {
	return svc.repo.GetVideoByID(ctx, id)
}

func (svc *service) Filter(ctx context.Context, filter QueryFilter) ([]Video, error) {
	filter.Clean()
	return svc.repo.QueryVideos(ctx, &filter, []core.DBOrdering{{Field: "created_at"}})
}

func (svc *service) Update(ctx context.Context, vid Video, uv UpdateVideo) (Video, error) {
	if err := uv.Validate(vid); err != nil {
		return Video{}, err
	}

	vid.Title = uv.Title
	vid.Description = uv.Description
	vid.Subject = uv.Subject
	vid.VideoURL = uv.VideoURL
	vid.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateVideo(ctx, vid)
}

// Delete removes the catalog row; for uploaded sources the blob goes first,
// best-effort (a dangling blob beats a dangling row).
func (svc *service) Delete(ctx context.Context, id string) error {
	vid, err := svc.repo.GetVideoByID(ctx, id)
	if err != nil {
		return err
	}
	if vid.VideoType == TypeUploaded && vid.StoragePath != "" {
		if err := svc.files.Remove(vid.StoragePath); err != nil {
			svc.logger.Warn("removing video blob", err)
		}
	}
	return svc.repo.DeleteVideo(ctx, id)
}

func (svc *service) Subjects(ctx context.Context) ([]string, error) {
	return svc.repo.QuerySubjects(ctx)
}

func (svc *service) Count(ctx context.Context) (int, error) {
	return svc.repo.CountVideos(ctx)
}
