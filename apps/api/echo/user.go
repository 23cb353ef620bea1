package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/edulearn/core"
	"github.com/trezcool/edulearn/core/user"
)

type authApi struct {
	svc user.Service
}

func registerAuthAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc user.Service) {
	api := authApi{svc: svc}

	ag := g.Group("/auth")
	ag.POST("/login", api.login)
	ag.POST("/logout", api.logout, jwt)
	ag.POST("/refresh", api.refreshToken, jwt)

	ug := g.Group("/users", jwt)
	ug.GET("/me", api.retrieveMe)
	ug.PUT("/me", api.updateMe)
}

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	// AuthedUser is a User together with their freshly issued token.
	AuthedUser struct {
		user.User
		Token string `json:"token"`
	}

	LoginResponse struct {
		Success bool       `json:"success"`
		Message string     `json:"message"`
		User    AuthedUser `json:"user"`
	}

	TokenResponse struct {
		Token string `json:"token"`
	}
)

func (lr *LoginRequest) Validate() error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return core.Validate.Struct(lr)
}

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	usr, err := api.svc.Authenticate(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}

	token, err := GenerateToken(GetUserClaims(usr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{
		Success: true,
		Message: "Login successful!",
		User:    AuthedUser{User: usr, Token: token},
	})
}

func (api *authApi) logout(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	api.svc.Logout(ctx.Request().Context(), claims.Subject)
	return respond(ctx, http.StatusOK, "Logged out", nil)
}

func (api *authApi) refreshToken(ctx echo.Context) error {
	token, err := refreshToken(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return respond(ctx, http.StatusOK, "", TokenResponse{Token: token})
}

func (api *authApi) retrieveMe(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	return respond(ctx, http.StatusOK, "", usr)
}

func (api *authApi) updateMe(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data user.UpdateProfile
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProfile")
	}
	if err = data.Validate(usr); err != nil {
		return err
	}

	usr, err = api.svc.UpdateProfile(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "updating profile")
	}
	ctx.Set(contextUserKey, usr)

	return respond(ctx, http.StatusOK, "Profile updated", usr)
}
