package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/edulearn/core"
	"github.com/trezcool/edulearn/core/progress"
	"github.com/trezcool/edulearn/core/video"
)

type progressApi struct {
	svc      progress.Service
	videoSvc video.Service
	logger   core.Logger
}

func registerProgressAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := progressApi{
		svc:      deps.ProgressSvc,
		videoSvc: deps.VideoSvc,
		logger:   deps.Logger,
	}

	vg := g.Group("/videos/:id", jwt)
	vg.PUT("/progress", api.save)
	vg.POST("/complete", api.complete)
	vg.GET("/progress", api.retrieve)

	mg := g.Group("/me", jwt)
	mg.GET("/progress", api.queryMine)
}

type SaveProgressRequest struct {
	LastWatchedTime int  `json:"last_watched_time"`
	Completed       bool `json:"completed"`
}

func (api *progressApi) save(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data SaveProgressRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveProgressRequest")
	}

	reqCtx := ctx.Request().Context()
	vid, err := api.videoSvc.GetByID(reqCtx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding video")
	}

	prog, err := api.svc.Save(reqCtx, claims.Subject, vid.ID, data.LastWatchedTime, data.Completed)
	if err != nil {
		return errors.Wrap(err, "saving watch progress")
	}
	return respond(ctx, http.StatusOK, "Progress saved", prog)
}

func (api *progressApi) complete(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	prog, err := api.svc.MarkCompleted(ctx.Request().Context(), claims.Subject, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "marking video completed")
	}
	return respond(ctx, http.StatusOK, "Video completed!", prog)
}

func (api *progressApi) retrieve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	prog, err := api.svc.Get(ctx.Request().Context(), claims.Subject, ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == progress.ErrNotFound {
			// never watched: zero progress, not an error
			prog = progress.Progress{UserID: claims.Subject, VideoID: ctx.Param("id")}
			return respond(ctx, http.StatusOK, "", prog)
		}
		return errors.Wrap(err, "finding watch progress")
	}
	return respond(ctx, http.StatusOK, "", prog)
}

func (api *progressApi) queryMine(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	reqCtx := ctx.Request().Context()

	switch ctx.QueryParam("filter") {
	case "completed":
		ids, err := api.svc.CompletedVideoIDs(reqCtx, claims.Subject)
		if err != nil {
			api.logger.Error("listing completed videos", errors.Wrap(err, "listing completed videos"))
			ids = []string{}
		}
		return respond(ctx, http.StatusOK, "", ids)
	case "in-progress":
		progs, err := api.svc.InProgress(reqCtx, claims.Subject)
		if err != nil {
			api.logger.Error("listing in-progress videos", errors.Wrap(err, "listing in-progress videos"))
			progs = []progress.Progress{}
		}
		return respond(ctx, http.StatusOK, "", progs)
	}

	progs, err := api.svc.ListForUser(reqCtx, claims.Subject)
	if err != nil {
		api.logger.Error("listing watch progress", errors.Wrap(err, "listing watch progress"))
		progs = []progress.Progress{}
	}
	return respond(ctx, http.StatusOK, "", progs)
}
