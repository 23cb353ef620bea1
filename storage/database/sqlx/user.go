package sqlxrepos

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/edulearn/core"
	"github.com/trezcool/edulearn/core/user"
)

const pqUniqueViolation = pq.ErrorCode("23505")

type userRepository struct {
	exec core.DBExecutor
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) *userRepository {
	return &userRepository{exec: exec}
}

func (repo userRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

const userColumns = "id, email, name, role, college_name, online_status, password_hash, last_login, created_at, updated_at"

func (repo userRepository) scan(row interface{ Scan(...interface{}) error }) (user.User, error) {
	var usr user.User
	var lastLogin null.Time
	err := row.Scan(
		&usr.ID, &usr.Email, &usr.Name, &usr.Role, &usr.CollegeName,
		&usr.Online, &usr.PasswordHash, &lastLogin, &usr.CreatedAt, &usr.UpdatedAt,
	)
	usr.LastLogin = lastLogin.Time
	return usr, err
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

// isUniqueViolation reports whether err is a psql unique constraint violation.
func isUniqueViolation(err error) bool {
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok {
		return pqErr.Code == pqUniqueViolation
	}
	return false
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	usr.ID = uuid.New().String()
	_, err := repo.getExec(exec).ExecContext(ctx, `
		INSERT INTO users (id, email, name, role, college_name, online_status, password_hash, last_login, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		usr.ID, usr.Email, usr.Name, usr.Role, usr.CollegeName, usr.Online, usr.PasswordHash,
		null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()), usr.CreatedAt.UTC(), usr.UpdatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter, exec ...core.DBExecutor) (user.User, error) {
	var row *sql.Row
	exe := repo.getExec(exec)

	if filter.ID != "" {
		if _, err := uuid.Parse(filter.ID); err != nil {
			return user.User{}, user.ErrNotFound
		}
		row = exe.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", filter.ID)
	} else {
		row = exe.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = $1", filter.Email)
	}

	usr, err := repo.scan(row)
	if err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "finding user")
	}
	return usr, nil
}

func (repo userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]user.User, error) {
	query := "SELECT " + userColumns + " FROM users"
	var conds []string
	var args []interface{}

	arg := func(val interface{}) string {
		args = append(args, val)
		return "$" + strconv.Itoa(len(args))
	}

	if filter != nil {
		if filter.Search != "" {
			ph := arg("%" + filter.Search + "%")
			conds = append(conds, "(name ILIKE "+ph+" OR email ILIKE "+ph+" OR college_name ILIKE "+ph+")")
		}
		if filter.Role != "" {
			conds = append(conds, "role = "+arg(filter.Role))
		}
		if filter.Online != nil {
			conds = append(conds, "online_status = "+arg(*filter.Online))
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
		return nil, errors.Wrap(err, "querying users")
	}
	defer func() { _ = rows.Close() }()

	users := make([]user.User, 0)
	for rows.Next() {
		usr, err := repo.scan(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning user")
		}
		users = append(users, usr)
	}
	return users, errors.Wrap(rows.Err(), "querying users")
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	// email and role are immutable
	_, err := repo.getExec(exec).ExecContext(ctx, `
		UPDATE users SET name = $2, college_name = $3, password_hash = $4, updated_at = $5 WHERE id = $1`,
		usr.ID, usr.Name, usr.CollegeName, usr.PasswordHash, usr.UpdatedAt.UTC(),
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	return usr, nil
}

func (repo userRepository) SetOnline(ctx context.Context, id string, online bool, lastLogin *time.Time, exec ...core.DBExecutor) error {
	var ll null.Time
	if lastLogin != nil {
		ll = null.TimeFrom(lastLogin.UTC())
	}
	_, err := repo.getExec(exec).ExecContext(ctx, `
		UPDATE users SET online_status = $2, last_login = COALESCE($3, last_login) WHERE id = $1`,
		id, online, ll,
	)
	return errors.Wrap(err, "setting online flag")
}

func (repo userRepository) CountUsers(ctx context.Context, role string, online *bool, exec ...core.DBExecutor) (int, error) {
	query := "SELECT COUNT(*) FROM users WHERE role = $1"
	args := []interface{}{role}
	if online != nil {
		query += " AND online_status = $2"
		args = append(args, *online)
	}

	var count int
	if err := repo.getExec(exec).QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "counting users")
	}
	return count, nil
}

func (repo userRepository) DeleteUsersByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In("DELETE FROM users WHERE id IN (?)", ids)
	if err != nil {
		return 0, errors.Wrap(err, "building delete query")
	}
	query = sqlx.Rebind(sqlx.DOLLAR, query)

	res, err := repo.getExec(exec).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting users")
	}
	cnt, _ := res.RowsAffected()
	return int(cnt), nil
}
