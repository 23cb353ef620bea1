package sqlxrepos

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/edulearn/core"
	"github.com/trezcool/edulearn/core/video"
)

type videoRepository struct {
	exec core.DBExecutor
}

var _ video.Repository = (*videoRepository)(nil) // interface compliance check

func NewVideoRepository(exec core.DBExecutor) *videoRepository {
	return &videoRepository{exec: exec}
}

func (repo videoRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

const videoColumns = "id, title, description, subject, video_url, video_type, storage_path, uploaded_by, created_at, updated_at"

func (repo videoRepository) scan(row interface{ Scan(...interface{}) error }) (video.Video, error) {
	var vid video.Video
	var storagePath null.String
	err := row.Scan(
		&vid.ID, &vid.Title, &vid.Description, &vid.Subject, &vid.VideoURL,
		&vid.VideoType, &storagePath, &vid.UploadedBy, &vid.CreatedAt, &vid.UpdatedAt,
	)
	vid.StoragePath = storagePath.String
	return vid, err
}

// trapNoRowsErr maps psql "no rows" err to video.ErrNotFound
func (repo videoRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return video.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo videoRepository) CreateVideo(ctx context.Context, vid video.Video, exec ...core.DBExecutor) (video.Video, error) {
	vid.ID = uuid.New().String()
	_, err := repo.getExec(exec).ExecContext(ctx, `
		INSERT INTO videos (id, title, description, subject, video_url, video_type, storage_path, uploaded_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		vid.ID, vid.Title, vid.Description, vid.Subject, vid.VideoURL, vid.VideoType,
		null.NewString(vid.StoragePath, vid.StoragePath != ""), vid.UploadedBy, vid.CreatedAt.UTC(), vid.UpdatedAt.UTC(),
	)
	if err != nil {
		return video.Video{}, errors.Wrap(err, "inserting video")
	}
	return vid, nil
}

func (repo videoRepository) GetVideoByID(ctx context.Context, id string, exec ...core.DBExecutor) (video.Video, error) {
	if _, err := uuid.Parse(id); err != nil {
		return video.Video{}, video.ErrNotFound
	}
	row := repo.getExec(exec).QueryRowContext(ctx,
		"SELECT "+videoColumns+" FROM videos WHERE id = $1", id)

	vid, err := repo.scan(row)
	if err != nil {
		return video.Video{}, repo.trapNoRowsErr(err, "finding video")
	}
	return vid, nil
}

func (repo videoRepository) QueryVideos(ctx context.Context, filter *video.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]video.Video, error) {
	query := "SELECT " + videoColumns + " FROM videos"
	var conds []string
	var args []interface{}

	arg := func(val interface{}) string {
		args = append(args, val)
		return "$" + strconv.Itoa(len(args))
	}

	if filter != nil {
		if filter.Search != "" {
			ph := arg("%" + filter.Search + "%")
			conds = append(conds, "(title ILIKE "+ph+" OR description ILIKE "+ph+" OR subject ILIKE "+ph+")")
		}
		if filter.Subject != "" {
			conds = append(conds, "subject = "+arg(filter.Subject))
		}
		if filter.UploadedBy != "" {
			conds = append(conds, "uploaded_by = "+arg(filter.UploadedBy))
		}
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	if len(ordering) > 0 {
		orderList := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			orderList = append(orderList, ord.String())
		}
		query += " ORDER BY " + strings.Join(orderList, ", ")
	}

	rows, err := repo.getExec(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying videos")
	}
	defer func() { _ = rows.Close() }()

	videos := make([]video.Video, 0)
	for rows.Next() {
		vid, err := repo.scan(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning video")
		}
		videos = append(videos, vid)
	}
	return videos, errors.Wrap(rows.Err(), "querying videos")
}

func (repo videoRepository) UpdateVideo(ctx context.Context, vid video.Video, exec ...core.DBExecutor) (video.Video, error) {
	// video_type and storage_path are fixed at upload time
	_, err := repo.getExec(exec).ExecContext(ctx, `
		UPDATE videos SET title = $2, description = $3, subject = $4, video_url = $5, updated_at = $6 WHERE id = $1`,
		vid.ID, vid.Title, vid.Description, vid.Subject, vid.VideoURL, vid.UpdatedAt.UTC(),
	)
	if err != nil {
		return video.Video{}, errors.Wrap(err, "updating video")
	}
	return vid, nil
}

func (repo videoRepository) DeleteVideo(ctx context.Context, id string, exec ...core.DBExecutor) error {
	res, err := repo.getExec(exec).ExecContext(ctx, "DELETE FROM videos WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting video")
	}
	if cnt, _ := res.RowsAffected(); cnt == 0 {
		return video.ErrNotFound
	}
	return nil
}

func (repo videoRepository) QuerySubjects(ctx context.Context, exec ...core.DBExecutor) ([]string, error) {
	rows, err := repo.getExec(exec).QueryContext(ctx,
		"SELECT DISTINCT subject FROM videos ORDER BY subject ASC")
	if err != nil {
		return nil, errors.Wrap(err, "querying subjects")
	}
	defer func() { _ = rows.Close() }()

	subjects := make([]string, 0)
	for rows.Next() {
		var subject string
		if err := rows.Scan(&subject); err != nil {
			return nil, errors.Wrap(err, "scanning subject")
		}
		subjects = append(subjects, subject)
	}
	return subjects, errors.Wrap(rows.Err(), "querying subjects")
}

func (repo videoRepository) CountVideos(ctx context.Context, exec ...core.DBExecutor) (int, error) {
	var count int
	if err := repo.getExec(exec).QueryRowContext(ctx, "SELECT COUNT(*) FROM videos").Scan(&count); err != nil {
		return 0, errors.Wrap(err, "counting videos")
	}
	return count, nil
}
