package progress

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/edulearn/core"
)

var (
	// errors
	ErrNotFound         = errors.New("watch progress not found")
	errNegativePosition = errors.New("watch position cannot be negative")
)

type (
	Repository interface {
		// UpsertProgress inserts or updates the record keyed on the unique
		// (user, video) pair in a single atomic store operation; two
		// concurrent reports for the same pair must never yield two rows.
		UpsertProgress(ctx context.Context, p Progress, exec ...core.DBExecutor) (Progress, error)
		GetProgress(ctx context.Context, userID, videoID string, exec ...core.DBExecutor) (Progress, error)
		// SetCompleted marks the existing record completed; ErrNotFound when
		// the pair was never reported.
		SetCompleted(ctx context.Context, userID, videoID string, at time.Time, exec ...core.DBExecutor) (Progress, error)
		QueryProgressByVideo(ctx context.Context, videoID string, exec ...core.DBExecutor) ([]Progress, error)
		// QueryProgressByUser returns the user's records, most recent first.
		QueryProgressByUser(ctx context.Context, userID string, exec ...core.DBExecutor) ([]Progress, error)
		DeleteProgress(ctx context.Context, userID, videoID string, exec ...core.DBExecutor) error
	}

	Service interface {
		Save(ctx context.Context, userID, videoID string, lastWatchedTime int, completed bool) (Progress, error)
		MarkCompleted(ctx context.Context, userID, videoID string) (Progress, error)
		Get(ctx context.Context, userID, videoID string) (Progress, error)
		ListForUser(ctx context.Context, userID string) ([]Progress, error)
		CompletedVideoIDs(ctx context.Context, userID string) ([]string, error)
		InProgress(ctx context.Context, userID string) ([]Progress, error)
		StatsForVideo(ctx context.Context, videoID string) (WatchStats, error)
		Delete(ctx context.Context, userID, videoID string) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) *service {
	return &service{repo: repo}
}

// Save records a playback report. The lookup-or-create decision is delegated
// to the store's upsert so the last applied write always wins and the
// (user, video) pair never splits into two records.
func (svc *service) Save(ctx context.Context, userID, videoID string, lastWatchedTime int, completed bool) (Progress, error) {
	if lastWatchedTime < 0 {
		return Progress{}, core.NewValidationError(errNegativePosition,
			core.FieldError{Field: "last_watched_time", Error: errNegativePosition.Error()})
	}

	now := time.Now().UTC()
	p := Progress{
		UserID:          userID,
		VideoID:         videoID,
		LastWatchedTime: lastWatchedTime,
		Completed:       completed,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	return svc.repo.UpsertProgress(ctx, p)
}

// MarkCompleted flags the existing record; a completion event with no prior
// report is a caller error.
func (svc *service) MarkCompleted(ctx context.Context, userID, videoID string) (Progress, error) {
	return svc.repo.SetCompleted(ctx, userID, videoID, time.Now().UTC())
}

func (svc *service) Get(ctx context.Context, userID, videoID string) (Progress, error) {
	return svc.repo.GetProgress(ctx, userID, videoID)
}

func (svc *service) ListForUser(ctx context.Context, userID string) ([]Progress, error) {
	return svc.repo.QueryProgressByUser(ctx, userID)
}

func (svc *service) CompletedVideoIDs(ctx context.Context, userID string) ([]string, error) {
	records, err := svc.repo.QueryProgressByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(records))
	for _, p := range records {
		if p.Completed {
			ids = append(ids, p.VideoID)
		}
	}
	return ids, nil
}

func (svc *service) InProgress(ctx context.Context, userID string) ([]Progress, error) {
	records, err := svc.repo.QueryProgressByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	inProgress := make([]Progress, 0, len(records))
	for _, p := range records {
		if !p.Completed {
			inProgress = append(inProgress, p)
		}
	}
	return inProgress, nil
}

func (svc *service) StatsForVideo(ctx context.Context, videoID string) (WatchStats, error) {
	records, err := svc.repo.QueryProgressByVideo(ctx, videoID)
	if err != nil {
		return WatchStats{}, errors.Wrap(err, "querying video progress")
	}

	var stats WatchStats
	stats.TotalWatches = len(records)
	var sum int
	for _, p := range records {
		if p.Completed {
			stats.Completed++
		}
		sum += p.LastWatchedTime
	}
	stats.InProgress = stats.TotalWatches - stats.Completed
	if stats.TotalWatches > 0 {
		stats.AvgWatchTime = int(math.Round(float64(sum) / float64(stats.TotalWatches)))
	}
	return stats, nil
}

func (svc *service) Delete(ctx context.Context, userID, videoID string) error {
	return svc.repo.DeleteProgress(ctx, userID, videoID)
}
