package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/edulearn/core"
	"github.com/trezcool/edulearn/core/signup"
	"github.com/trezcool/edulearn/core/user"
	"github.com/trezcool/edulearn/core/video"
)

type adminApi struct {
	usrSvc    user.Service
	signupSvc signup.Service
	videoSvc  video.Service
	logger    core.Logger
}

func registerAdminAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := adminApi{
		usrSvc:    deps.UsrSvc,
		signupSvc: deps.SignupSvc,
		videoSvc:  deps.VideoSvc,
		logger:    deps.Logger,
	}

	ag := g.Group("/admin", jwt, adminMiddleware())
	ag.GET("/pending-requests", api.pendingRequests)
	ag.POST("/approve-request", api.approveRequest)
	ag.POST("/reject-request", api.rejectRequest)
	ag.GET("/stats", api.stats)
	ag.GET("/users", api.queryUsers)
}

type (
	ApproveRequest struct {
		RequestID string `json:"requestId" validate:"required"`
		// Password is optional; a temporary one is issued when omitted.
		Password string `json:"password"`
	}

	RejectRequest struct {
		RequestID string `json:"requestId" validate:"required"`
	}

	// AdminStats is the admin dashboard aggregate.
	AdminStats struct {
		user.Statistics
		TotalVideos     int `json:"videos"`
		PendingRequests int `json:"pending"`
	}
)

// list/aggregate reads fail soft: degraded data beats a dead dashboard.

func (api *adminApi) pendingRequests(ctx echo.Context) error {
	reqs, err := api.signupSvc.ListPending(ctx.Request().Context())
	if err != nil {
		api.logger.Error("listing pending requests", errors.Wrap(err, "listing pending requests"))
		reqs = []signup.Request{}
	}
	return respond(ctx, http.StatusOK, "", reqs)
}

func (api *adminApi) approveRequest(ctx echo.Context) error {
	var data ApproveRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ApproveRequest")
	}
	if err := core.Validate.Struct(&data); err != nil {
		return err
	}

	usr, tempPwd, err := api.signupSvc.Approve(ctx.Request().Context(), data.RequestID, data.Password)
	if err != nil {
		return errors.Wrap(err, "approving signup request")
	}

	res := echo.Map{"user": usr}
	if tempPwd != "" {
		// surfaced exactly once; it is not stored in clear anywhere
		res["password"] = tempPwd
	}
	return respond(ctx, http.StatusOK, "User "+usr.Name+" approved!", res)
}

func (api *adminApi) rejectRequest(ctx echo.Context) error {
	var data RejectRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RejectRequest")
	}
	if err := core.Validate.Struct(&data); err != nil {
		return err
	}

	if err := api.signupSvc.Reject(ctx.Request().Context(), data.RequestID); err != nil {
		return errors.Wrap(err, "rejecting signup request")
	}
	return respond(ctx, http.StatusOK, "Request rejected", nil)
}

func (api *adminApi) stats(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	var res AdminStats

	stats, err := api.usrSvc.Stats(reqCtx)
	if err != nil {
		api.logger.Error("counting users", errors.Wrap(err, "counting users"))
	} else {
		res.Statistics = stats
	}

	if res.TotalVideos, err = api.videoSvc.Count(reqCtx); err != nil {
		api.logger.Error("counting videos", errors.Wrap(err, "counting videos"))
	}
	if res.PendingRequests, err = api.signupSvc.PendingCount(reqCtx); err != nil {
		api.logger.Error("counting pending requests", errors.Wrap(err, "counting pending requests"))
	}

	return respond(ctx, http.StatusOK, "", res)
}

func (api *adminApi) queryUsers(ctx echo.Context) error {
	filter := new(user.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return respond(ctx, http.StatusOK, "", []user.User{})
	}
	filter.Clean()

	users, err := api.usrSvc.Filter(ctx.Request().Context(), *filter)
	if err != nil {
		api.logger.Error("querying users", errors.Wrap(err, "querying users"))
		users = []user.User{}
	}
	return respond(ctx, http.StatusOK, "", users)
}
