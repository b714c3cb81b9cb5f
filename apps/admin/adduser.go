package main

import (
	"time"

	"github.com/trezcool/daftari/core"
	"github.com/trezcool/daftari/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(name, uname, email, pwd string, isAdmin bool) error {
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	usr, err := cli.getUser(uname, email)
	if err != nil {
		if err != user.ErrNotFound {
			return err
		}
		usr = user.User{
			Name:     core.CleanString(name),
			Username: uname,
			Email:    email,
		}
	}
	if isAdmin {
		usr.Roles = user.AllRoles
	}
	usr.IsActive = true
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	usr.UpdatedAt = time.Now().UTC()

	if usr.ID == "" {
		usr.CreatedAt = usr.UpdatedAt
		_, err = cli.usrRepo.CreateUser(usr)
	} else {
		isActive := usr.IsActive
		_, err = cli.usrRepo.UpdateUser(usr, &isActive)
	}
	return err
}

func (cli *commandLine) getUser(uname, email string) (user.User, error) {
	if uname != "" {
		if usr, err := cli.usrRepo.GetUserByUsernameOrEmail(uname); err == nil || err != user.ErrNotFound {
			return usr, err
		}
	}
	if email != "" {
		return cli.usrRepo.GetUserByEmail(email)
	}
	return user.User{}, user.ErrNotFound
}
