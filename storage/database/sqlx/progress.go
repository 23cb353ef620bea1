package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/edulearn/core"
	"github.com/trezcool/edulearn/core/progress"
)

type progressRepository struct {
	exec core.DBExecutor
}

var _ progress.Repository = (*progressRepository)(nil) // interface compliance check

func NewProgressRepository(exec core.DBExecutor) *progressRepository {
	return &progressRepository{exec: exec}
}

func (repo progressRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

const progressColumns = "id, user_id, video_id, last_watched_time, completed, created_at, updated_at"

func (repo progressRepository) scan(row interface{ Scan(...interface{}) error }) (progress.Progress, error) {
	var prog progress.Progress
	err := row.Scan(
		&prog.ID, &prog.UserID, &prog.VideoID, &prog.LastWatchedTime,
		&prog.Completed, &prog.CreatedAt, &prog.UpdatedAt,
	)
	return prog, err
}

// trapNoRowsErr maps psql "no rows" err to progress.ErrNotFound
func (repo progressRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return progress.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo progressRepository) UpsertProgress(ctx context.Context, prog progress.Progress, exec ...core.DBExecutor) (progress.Progress, error) {
	// the unique index on (user_id, video_id) makes concurrent saves for the
	// same pair collapse into a single row; the last write wins
	row := repo.getExec(exec).QueryRowContext(ctx, `
		INSERT INTO video_progress (id, user_id, video_id, last_watched_time, completed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, video_id) DO UPDATE
		SET last_watched_time = EXCLUDED.last_watched_time,
		    completed = EXCLUDED.completed,
		    updated_at = EXCLUDED.updated_at
		RETURNING `+progressColumns,
		uuid.New().String(), prog.UserID, prog.VideoID, prog.LastWatchedTime,
		prog.Completed, prog.CreatedAt.UTC(), prog.UpdatedAt.UTC(),
	)

	saved, err := repo.scan(row)
	if err != nil {
		return progress.Progress{}, errors.Wrap(err, "upserting watch progress")
	}
	return saved, nil
}

func (repo progressRepository) GetProgress(ctx context.Context, userID, videoID string, exec ...core.DBExecutor) (progress.Progress, error) {
	row := repo.getExec(exec).QueryRowContext(ctx,
		"SELECT "+progressColumns+" FROM video_progress WHERE user_id = $1 AND video_id = $2", userID, videoID)

	prog, err := repo.scan(row)
	if err != nil {
		return progress.Progress{}, repo.trapNoRowsErr(err, "finding watch progress")
	}
	return prog, nil
}

func (repo progressRepository) SetCompleted(ctx context.Context, userID, videoID string, at time.Time, exec ...core.DBExecutor) (progress.Progress, error) {
	row := repo.getExec(exec).QueryRowContext(ctx, `
		UPDATE video_progress SET completed = TRUE, updated_at = $3 WHERE user_id = $1 AND video_id = $2
		RETURNING `+progressColumns,
		userID, videoID, at.UTC(),
	)

	prog, err := repo.scan(row)
	if err != nil {
		return progress.Progress{}, repo.trapNoRowsErr(err, "marking watch progress completed")
	}
	return prog, nil
}

func (repo progressRepository) QueryProgressByVideo(ctx context.Context, videoID string, exec ...core.DBExecutor) ([]progress.Progress, error) {
	return repo.query(ctx, "video_id", videoID, exec)
}

func (repo progressRepository) QueryProgressByUser(ctx context.Context, userID string, exec ...core.DBExecutor) ([]progress.Progress, error) {
	return repo.query(ctx, "user_id", userID, exec)
}

func (repo progressRepository) query(ctx context.Context, column, val string, exec []core.DBExecutor) ([]progress.Progress, error) {
	rows, err := repo.getExec(exec).QueryContext(ctx,
		"SELECT "+progressColumns+" FROM video_progress WHERE "+column+" = $1 ORDER BY updated_at DESC", val)
	if err != nil {
		return nil, errors.Wrap(err, "querying watch progress")
	}
	defer func() { _ = rows.Close() }()

	progs := make([]progress.Progress, 0)
	for rows.Next() {
		prog, err := repo.scan(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning watch progress")
		}
		progs = append(progs, prog)
	}
	return progs, errors.Wrap(rows.Err(), "querying watch progress")
}

func (repo progressRepository) DeleteProgress(ctx context.Context, userID, videoID string, exec ...core.DBExecutor) error {
	res, err := repo.getExec(exec).ExecContext(ctx,
		"DELETE FROM video_progress WHERE user_id = $1 AND video_id = $2", userID, videoID)
	if err != nil {
		return errors.Wrap(err, "deleting watch progress")
	}
	if cnt, _ := res.RowsAffected(); cnt == 0 {
		return progress.ErrNotFound
	}
	return nil
}
