package signup

import (
	"context"
	"crypto/rand"
	"math/big"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/edulearn/core"
	"github.com/trezcool/edulearn/core/user"
)

var (
	// errors
	ErrNotFound      = errors.New("signup request not found")
	ErrPendingExists = errors.New("a pending signup request with this email already exists")
	ErrNotPending    = errors.New("signup request has already been processed")
)

type (
	Repository interface {
		// CreateRequest persists a new pending request. The store enforces at
		// most one pending request per email and returns ErrPendingExists on
		// violation; callers need no prior existence check.
		CreateRequest(ctx context.Context, req Request, exec ...core.DBExecutor) (Request, error)
		GetRequest(ctx context.Context, id string, exec ...core.DBExecutor) (Request, error)
		// GetRequestForUpdate locks the row for the remainder of the
		// enclosing transaction where the store supports it.
		GetRequestForUpdate(ctx context.Context, id string, exec ...core.DBExecutor) (Request, error)
		// QueryRequestsByStatus returns matching requests, newest first.
		QueryRequestsByStatus(ctx context.Context, status string, exec ...core.DBExecutor) ([]Request, error)
		// UpdateRequestStatus transitions id from fromStatus to toStatus;
		// ErrNotFound when no row matches both.
		UpdateRequestStatus(ctx context.Context, id, fromStatus, toStatus string, exec ...core.DBExecutor) (Request, error)
		CountRequestsByStatus(ctx context.Context, status string, exec ...core.DBExecutor) (int, error)
	}

	Service interface {
		Submit(ctx context.Context, nr NewRequest) (Request, error)
		ListPending(ctx context.Context) ([]Request, error)
		// Approve materializes the account and marks the request approved as
		// one logical unit. An empty password makes the service issue a
		// random temporary one, returned to the caller exactly once.
		Approve(ctx context.Context, id, password string) (user.User, string, error)
		Reject(ctx context.Context, id string) error
		PendingCount(ctx context.Context) (int, error)
	}

	service struct {
		db      core.DB // nil when the backing store has no transactions (repos lock instead)
		repo    Repository
		usrRepo user.Repository
	}
)

var _ Service = (*service)(nil)

func NewService(db core.DB, repo Repository, usrRepo user.Repository) *service {
	return &service{db: db, repo: repo, usrRepo: usrRepo}
}

func (svc *service) Submit(ctx context.Context, nr NewRequest) (Request, error) {
	if err := nr.Validate(); err != nil {
		return Request{}, err
	}

	// an already-registered email can never re-apply
	if _, err := svc.usrRepo.GetUser(ctx, user.GetFilter{Email: nr.Email}); err == nil {
		return Request{}, core.NewConflictError(user.ErrEmailExists)
	} else if errors.Cause(err) != user.ErrNotFound {
		return Request{}, errors.Wrap(err, "checking existing account")
	}

	now := time.Now().UTC()
	req := Request{
		Email:       nr.Email,
		Name:        nr.Name,
		Role:        nr.Role,
		CollegeName: nr.CollegeName,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	req, err := svc.repo.CreateRequest(ctx, req)
	if err != nil {
		if errors.Cause(err) == ErrPendingExists {
			return Request{}, core.NewConflictError(ErrPendingExists)
		}
		return Request{}, err
	}
	return req, nil
}

func (svc *service) ListPending(ctx context.Context) ([]Request, error) {
	return svc.repo.QueryRequestsByStatus(ctx, StatusPending)
}

func (svc *service) Approve(ctx context.Context, id, password string) (user.User, string, error) {
	var issued string
	if password == "" {
		pwd, err := makeTempPassword()
		if err != nil {
			return user.User{}, "", errors.Wrap(err, "generating temporary password")
		}
		password, issued = pwd, pwd
	}

	var exec []core.DBExecutor
	if svc.db != nil {
		tx, err := svc.db.BeginTx(ctx, nil)
		if err != nil {
			return user.User{}, "", errors.Wrap(err, "beginning transaction")
		}
		defer func() { _ = tx.Rollback() }()
		exec = []core.DBExecutor{tx}
	}

	// re-verify the request is still pending right before acting so a retry
	// of an already-approved request fails instead of double-creating
	req, err := svc.repo.GetRequestForUpdate(ctx, id, exec...)
	if err != nil {
		return user.User{}, "", err
	}
	if !req.IsPending() {
		return user.User{}, "", core.NewConflictError(ErrNotPending)
	}

	now := time.Now().UTC()
	usr := user.User{
		Email:       req.Email,
		Name:        req.Name,
		Role:        req.Role,
		CollegeName: req.CollegeName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err = usr.SetPassword(password); err != nil {
		return user.User{}, "", errors.Wrap(err, "hashing password")
	}
	if usr, err = svc.usrRepo.CreateUser(ctx, usr, exec...); err != nil {
		if errors.Cause(err) == user.ErrEmailExists {
			return user.User{}, "", core.NewConflictError(user.ErrEmailExists)
		}
		return user.User{}, "", err
	}
	if _, err = svc.repo.UpdateRequestStatus(ctx, id, StatusPending, StatusApproved, exec...); err != nil {
		return user.User{}, "", err
	}

	if len(exec) > 0 {
		if err = exec[0].(core.DBTransactor).Commit(); err != nil {
			return user.User{}, "", errors.Wrap(err, "committing approval")
		}
	}
	return usr, issued, nil
}

func (svc *service) Reject(ctx context.Context, id string) error {
	if _, err := svc.repo.UpdateRequestStatus(ctx, id, StatusPending, StatusRejected); err != nil {
		if errors.Cause(err) != ErrNotFound {
			return err
		}
		// distinguish unknown id from a terminal request
		if req, gerr := svc.repo.GetRequest(ctx, id); gerr == nil && !req.IsPending() {
			return core.NewConflictError(ErrNotPending)
		}
		return ErrNotFound
	}
	return nil
}

func (svc *service) PendingCount(ctx context.Context) (int, error) {
	return svc.repo.CountRequestsByStatus(ctx, StatusPending)
}

// tempPwdCharsets guarantee the issued password satisfies the password policy.
var tempPwdCharsets = []string{
	"abcdefghijkmnpqrstuvwxyz",
	"ABCDEFGHJKLMNPQRSTUVWXYZ",
	"23456789",
	"!@#$%&*-_",
}

func makeTempPassword() (string, error) {
	var pwd []byte
	for i := 0; i < 12; i++ {
		charset := tempPwdCharsets[i%len(tempPwdCharsets)]
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		pwd = append(pwd, charset[n.Int64()])
	}
	return string(pwd), nil
}
