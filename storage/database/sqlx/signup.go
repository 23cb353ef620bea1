package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/edulearn/core"
	"github.com/trezcool/edulearn/core/signup"
)

type signupRepository struct {
	exec core.DBExecutor
}

var _ signup.Repository = (*signupRepository)(nil) // interface compliance check

func NewSignupRepository(exec core.DBExecutor) *signupRepository {
	return &signupRepository{exec: exec}
}

func (repo signupRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

const requestColumns = "id, email, name, role, college_name, status, created_at, updated_at"

func (repo signupRepository) scan(row interface{ Scan(...interface{}) error }) (signup.Request, error) {
	var req signup.Request
	err := row.Scan(
		&req.ID, &req.Email, &req.Name, &req.Role, &req.CollegeName,
		&req.Status, &req.CreatedAt, &req.UpdatedAt,
	)
	return req, err
}

// trapNoRowsErr maps psql "no rows" err to signup.ErrNotFound
func (repo signupRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return signup.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo signupRepository) CreateRequest(ctx context.Context, req signup.Request, exec ...core.DBExecutor) (signup.Request, error) {
	req.ID = uuid.New().String()
	// a partial unique index on (email) WHERE status = 'pending' enforces
	// at most one open request per email
	_, err := repo.getExec(exec).ExecContext(ctx, `
		INSERT INTO pending_requests (id, email, name, role, college_name, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		req.ID, req.Email, req.Name, req.Role, req.CollegeName, req.Status, req.CreatedAt.UTC(), req.UpdatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return signup.Request{}, signup.ErrPendingExists
		}
		return signup.Request{}, errors.Wrap(err, "inserting signup request")
	}
	return req, nil
}

func (repo signupRepository) GetRequest(ctx context.Context, id string, exec ...core.DBExecutor) (signup.Request, error) {
	if _, err := uuid.Parse(id); err != nil {
		return signup.Request{}, signup.ErrNotFound
	}
	row := repo.getExec(exec).QueryRowContext(ctx,
		"SELECT "+requestColumns+" FROM pending_requests WHERE id = $1", id)

	req, err := repo.scan(row)
	if err != nil {
		return signup.Request{}, repo.trapNoRowsErr(err, "finding signup request")
	}
	return req, nil
}

func (repo signupRepository) GetRequestForUpdate(ctx context.Context, id string, exec ...core.DBExecutor) (signup.Request, error) {
	if _, err := uuid.Parse(id); err != nil {
		return signup.Request{}, signup.ErrNotFound
	}
	row := repo.getExec(exec).QueryRowContext(ctx,
		"SELECT "+requestColumns+" FROM pending_requests WHERE id = $1 FOR UPDATE", id)

	req, err := repo.scan(row)
	if err != nil {
		return signup.Request{}, repo.trapNoRowsErr(err, "locking signup request")
	}
	return req, nil
}

func (repo signupRepository) QueryRequestsByStatus(ctx context.Context, status string, exec ...core.DBExecutor) ([]signup.Request, error) {
	rows, err := repo.getExec(exec).QueryContext(ctx,
		"SELECT "+requestColumns+" FROM pending_requests WHERE status = $1 ORDER BY created_at DESC", status)
	if err != nil {
		return nil, errors.Wrap(err, "querying signup requests")
	}
	defer func() { _ = rows.Close() }()

	reqs := make([]signup.Request, 0)
	for rows.Next() {
		req, err := repo.scan(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning signup request")
		}
		reqs = append(reqs, req)
	}
	return reqs, errors.Wrap(rows.Err(), "querying signup requests")
}

func (repo signupRepository) UpdateRequestStatus(ctx context.Context, id, fromStatus, toStatus string, exec ...core.DBExecutor) (signup.Request, error) {
	row := repo.getExec(exec).QueryRowContext(ctx, `
		UPDATE pending_requests SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2
		RETURNING `+requestColumns,
		id, fromStatus, toStatus, time.Now().UTC(),
	)

	req, err := repo.scan(row)
	if err != nil {
		return signup.Request{}, repo.trapNoRowsErr(err, "updating signup request status")
	}
	return req, nil
}

func (repo signupRepository) CountRequestsByStatus(ctx context.Context, status string, exec ...core.DBExecutor) (int, error) {
	var count int
	err := repo.getExec(exec).QueryRowContext(ctx,
		"SELECT COUNT(*) FROM pending_requests WHERE status = $1", status).Scan(&count)
	if err != nil {
		return 0, errors.Wrap(err, "counting signup requests")
	}
	return count, nil
}
