package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/edulearn/core/signup"
)

type signupApi struct {
	svc signup.Service
}

func registerSignupAPI(g *echo.Group, svc signup.Service) {
	api := signupApi{svc: svc}

	// un-authed; accounts only materialize after admin approval
	g.POST("/signup-request", api.submit)
}

func (api *signupApi) submit(ctx echo.Context) error {
	var data signup.NewRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	req, err := api.svc.Submit(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "submitting signup request")
	}

	return respond(ctx, http.StatusCreated, "Request submitted! Waiting for admin approval.", req)
}
