package main

import (
	"context"
	"errors"
	"time"

	"github.com/trezcool/edulearn/core"
	"github.com/trezcool/edulearn/core/user"
)

var errNotAnAdmin = errors.New("a non-admin account with this email already exists")

// addSuperuser creates an admin account, or re-credentials an existing one.
// Admins never go through the signup-approval workflow.
func (cli *commandLine) addSuperuser(name, email, pwd string) error {
	ctx := context.Background()
	name = core.CleanString(name)
	email = core.CleanString(email, true /* lower */)
	now := time.Now().UTC()

	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Email: email})
	if err != nil {
		if err != user.ErrNotFound {
			return err
		}
		usr = user.User{
			Email:     email,
			Name:      name,
			Role:      user.RoleAdmin,
			CreatedAt: now,
		}
		usr.UpdatedAt = now
		if err = usr.SetPassword(pwd); err != nil {
			return err
		}
		_, err = cli.usrRepo.CreateUser(ctx, usr)
		return err
	}

	if !usr.IsAdmin() {
		return errNotAnAdmin
	}

	usr.Name = name
	usr.UpdatedAt = now
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}
	_, err = cli.usrRepo.UpdateUser(ctx, usr)
	return err
}
