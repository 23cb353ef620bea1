package user

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/edulearn/core"
)

// Roles
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

var (
	AllRoles = []string{RoleAdmin, RoleTeacher, RoleStudent}

	// SignupRoles are the roles a prospective user may request; admins are
	// only ever created by the bootstrap CLI.
	SignupRoles = []string{RoleTeacher, RoleStudent}
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         string    `json:"role"` // immutable once created
	CollegeName  string    `json:"college_name"`
	Online       bool      `json:"online_status"`
	PasswordHash []byte    `json:"-"`
	LastLogin    time.Time `json:"last_login"` // UTC
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsAdmin() bool   { return u.Role == RoleAdmin }
func (u *User) IsTeacher() bool { return u.Role == RoleTeacher }
func (u *User) IsStudent() bool { return u.Role == RoleStudent }

// NewUser contains information needed to create a new User.
// Accounts are materialized by the signup-approval workflow or the admin CLI;
// there is no open self-registration.
type NewUser struct {
	Email       string `json:"email" validate:"required,email"`
	Name        string `json:"name" validate:"required"`
	Role        string `json:"role" validate:"required,anyrole"`
	CollegeName string `json:"college_name" validate:"required"`
	Password    string `json:"password" validate:"required"`
}

func (nu *NewUser) Validate() error {
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Name = core.CleanString(nu.Name)
	nu.Role = core.CleanString(nu.Role, true /* lower */)
	nu.CollegeName = core.CleanString(nu.CollegeName)
	return core.Validate.Struct(nu)
}

// UpdateProfile defines what information a user may change on their own account.
// Email and Role stay fixed; only admins manage accounts beyond this.
type UpdateProfile struct {
	Name            string `json:"name"`
	CollegeName     string `json:"college_name"`
	Password        string `json:"password" validate:"omitempty"`
	PasswordConfirm string `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

func (up *UpdateProfile) Validate(origUsr User) error {
	if name := core.CleanString(up.Name); name != "" {
		up.Name = name
	} else {
		up.Name = origUsr.Name
	}
	if college := core.CleanString(up.CollegeName); college != "" {
		up.CollegeName = college
	} else {
		up.CollegeName = origUsr.CollegeName
	}
	return core.Validate.Struct(up)
}

// QueryFilter narrows down admin user listings.
type QueryFilter struct {
	Search string `query:"search"`
	Role   string `query:"role"`
	Online *bool  `query:"online"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Role == "" && qf.Online == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Role = core.CleanString(qf.Role, true /* lower */)
}

// GetFilter selects a single user; exactly one field should be set.
type GetFilter struct {
	ID    string
	Email string
}

// Statistics are the admin dashboard user counts.
type Statistics struct {
	TotalStudents  int `json:"students"`
	TotalTeachers  int `json:"teachers"`
	OnlineStudents int `json:"onlineStudents"`
	OnlineTeachers int `json:"onlineTeachers"`
}
