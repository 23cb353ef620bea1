package user

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/edulearn/core"
)

var (
	// errors
	ErrNotFound           = errors.New("user not found")
	ErrEmailExists        = errors.New("a user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials") // deliberately undifferentiated
)

type (
	Repository interface {
		CreateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		GetUser(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (User, error)
		// QueryUsers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of User.Name, User.Email or User.CollegeName.
		QueryUsers(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]User, error)
		UpdateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		// SetOnline flips the presence flag. Best-effort; see Service.Authenticate.
		SetOnline(ctx context.Context, id string, online bool, lastLogin *time.Time, exec ...core.DBExecutor) error
		CountUsers(ctx context.Context, role string, online *bool, exec ...core.DBExecutor) (int, error)
		DeleteUsersByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error)
	}

	Service interface {
		Create(ctx context.Context, nu NewUser) (User, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		Filter(ctx context.Context, filter QueryFilter) ([]User, error)
		UpdateProfile(ctx context.Context, usr User, up UpdateProfile) (User, error)
		Authenticate(ctx context.Context, email, pwd string) (User, error)
		Logout(ctx context.Context, id string)
		Stats(ctx context.Context) (Statistics, error)
		Delete(ctx context.Context, ids ...string) error
	}

	service struct {
		repo   Repository
		logger core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, logger core.Logger) *service {
	return &service{repo: repo, logger: logger}
}

func (svc *service) Create(ctx context.Context, nu NewUser) (User, error) {
	if err := nu.Validate(); err != nil {
		return User{}, err
	}

	now := time.Now().UTC()
	usr := User{
		Email:       nu.Email,
		Name:        nu.Name,
		Role:        nu.Role,
		CollegeName: nu.CollegeName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		if errors.Cause(err) == ErrEmailExists {
			return User{}, core.NewConflictError(ErrEmailExists)
		}
		return User{}, err
	}
	return usr, nil
}

func (svc *service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

func (svc *service) Filter(ctx context.Context, filter QueryFilter) ([]User, error) {
	filter.Clean()
	return svc.repo.QueryUsers(ctx, &filter, []core.DBOrdering{{Field: "created_at"}})
}

func (svc *service) UpdateProfile(ctx context.Context, usr User, up UpdateProfile) (User, error) {
	if err := up.Validate(usr); err != nil {
		return User{}, err
	}

	usr.Name = up.Name
	usr.CollegeName = up.CollegeName
	usr.UpdatedAt = time.Now().UTC()
	if up.Password != "" {
		if err := usr.SetPassword(up.Password); err != nil {
			return User{}, errors.Wrap(err, "hashing password")
		}
	}
	return svc.repo.UpdateUser(ctx, usr)
}

// Authenticate checks the supplied credential against the stored hash.
// Every failure mode returns ErrInvalidCredentials so callers cannot probe
// which emails hold accounts.
func (svc *service) Authenticate(ctx context.Context, email, pwd string) (User, error) {
	usr, err := svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, ErrInvalidCredentials
		}
		return User{}, errors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return User{}, ErrInvalidCredentials
	}

	// presence flag is best-effort; a failed update must not fail the login
	now := time.Now().UTC()
	if err = svc.repo.SetOnline(ctx, usr.ID, true, &now); err != nil {
		svc.logger.Warn("setting online flag", err, usr)
	} else {
		usr.Online = true
		usr.LastLogin = now
	}
	return usr, nil
}

// Logout clears the presence flag; best-effort, nothing to report to the caller.
func (svc *service) Logout(ctx context.Context, id string) {
	if err := svc.repo.SetOnline(ctx, id, false, nil); err != nil {
		svc.logger.Warn("clearing online flag", err)
	}
}

func (svc *service) Stats(ctx context.Context) (Statistics, error) {
	var stats Statistics
	online := true

	counts := []struct {
		dst    *int
		role   string
		online *bool
	}{
		{&stats.TotalStudents, RoleStudent, nil},
		{&stats.TotalTeachers, RoleTeacher, nil},
		{&stats.OnlineStudents, RoleStudent, &online},
		{&stats.OnlineTeachers, RoleTeacher, &online},
	}
	for _, c := range counts {
		n, err := svc.repo.CountUsers(ctx, c.role, c.online)
		if err != nil {
			return Statistics{}, errors.Wrap(err, "counting users")
		}
		*c.dst = n
	}
	return stats, nil
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeleteUsersByID(ctx, ids)
	return err
}
