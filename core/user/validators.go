package user

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/edulearn/core"
)

var (
	anyRoleTag  = "anyrole"
	anyRoleText = "invalid role"

	signupRoleTag  = "signuprole"
	signupRoleText = "role must be teacher or student"

	// password policy
	pwdMinLen     = 8
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = fmt.Sprintf("password must contain at least %d characters", pwdMinLen)

	pwdNoSpaceTag  = "pwdnospace"
	pwdNoSpaceText = "password must not contain whitespace"

	pwdNotAllNumTag  = "pwdnotallnum"
	pwdNotAllNumText = "password cannot be entirely numeric"

	pwdComplexityTag  = "pwdcplx"
	pwdComplexityText = "password must contain at least 1 uppercase character, 1 lowercase character, 1 digit and 1 special character"
	specialRegex      = regexp.MustCompile("[^A-Za-z0-9]")

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password cannot be similar to user attributes"
)

func init() {
	// register validators
	_ = core.Validate.RegisterValidation(anyRoleTag, anyRoleValidation)
	core.RegisterCustomTranslation(anyRoleTag, anyRoleText)

	_ = core.Validate.RegisterValidation(signupRoleTag, signupRoleValidation)
	core.RegisterCustomTranslation(signupRoleTag, signupRoleText)

	core.Validate.RegisterStructValidation(userStructValidation, NewUser{})
	core.Validate.RegisterStructValidation(userStructValidation, UpdateProfile{})
	core.RegisterCustomTranslation(pwdMinLenTag, pwdMinLenText)
	core.RegisterCustomTranslation(pwdNoSpaceTag, pwdNoSpaceText)
	core.RegisterCustomTranslation(pwdNotAllNumTag, pwdNotAllNumText)
	core.RegisterCustomTranslation(pwdComplexityTag, pwdComplexityText)
	core.RegisterCustomTranslation(pwdAttrSimTag, pwdAttrSimText)
}

// Custom Validators

// anyRoleValidation checks that the provided role is in AllRoles.
func anyRoleValidation(fl validator.FieldLevel) bool {
	return roleIn(fl.Field().String(), AllRoles)
}

// signupRoleValidation checks that the provided role is in SignupRoles.
func signupRoleValidation(fl validator.FieldLevel) bool {
	return roleIn(fl.Field().String(), SignupRoles)
}

func roleIn(role string, roles []string) bool {
	sorted := append([]string(nil), roles...)
	sort.Strings(sorted)
	if idx := sort.SearchStrings(sorted, role); idx < len(sorted) {
		return sorted[idx] == role
	}
	return false
}

// userStructValidation does struct level validation on NewUser and UpdateProfile structs.
func userStructValidation(sl validator.StructLevel) {
	switch usr := sl.Current().Interface().(type) {
	case NewUser:
		validatePassword(usr.Password, usr.Name, usr.Email, sl)
	case UpdateProfile:
		if usr.Password != "" {
			validatePassword(usr.Password, usr.Name, "", sl)
		}
	}
}

// validatePassword applies the password policy to provided password:
// - minLen: 8
// - no whitespace
// - no all numeric
// - complexity: 1 upper, 1 lower, 1 digit, 1 special
// - no user attrs similarity
func validatePassword(pwd, name, email string, sl validator.StructLevel) {
	reportErr := func(tag string) {
		sl.ReportError(pwd, "password", "Password", tag, "")
	}

	var (
		digitCount         int
		hasUpper, hasLower bool
	)

	pwdLen := len(pwd)
	if pwdLen < pwdMinLen {
		reportErr(pwdMinLenTag)
		return
	}
	for _, char := range []rune(pwd) {
		if unicode.IsSpace(char) {
			reportErr(pwdNoSpaceTag)
			return
		}
		if unicode.IsDigit(char) {
			digitCount++
		}
		if !hasUpper && unicode.IsUpper(char) {
			hasUpper = true
		}
		if !hasLower && unicode.IsLower(char) {
			hasLower = true
		}
	}

	if digitCount == pwdLen {
		reportErr(pwdNotAllNumTag)
		return
	}

	if !(hasUpper && hasLower && digitCount > 0 && specialRegex.MatchString(pwd)) {
		reportErr(pwdComplexityTag)
		return
	}

	getRatio := func(pass, usrAttr string) float64 {
		if usrAttr == "" {
			return 0
		}
		return difflib.NewMatcher(strings.Split(pass, ""), strings.Split(usrAttr, "")).QuickRatio()
	}
	if getRatio(pwd, name) >= pwdMaxSim || getRatio(pwd, email) >= pwdMaxSim {
		reportErr(pwdAttrSimTag)
	}
}
