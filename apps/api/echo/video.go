package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/edulearn/core"
	"github.com/trezcool/edulearn/core/progress"
	"github.com/trezcool/edulearn/core/video"
)

type videoApi struct {
	svc     video.Service
	progSvc progress.Service
	blobs   BlobStore
	logger  core.Logger
}

func registerVideoAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := videoApi{
		svc:     deps.VideoSvc,
		progSvc: deps.ProgressSvc,
		blobs:   deps.Blobs,
		logger:  deps.Logger,
	}

	vg := g.Group("/videos", jwt)
	vg.GET("", api.query)
	vg.GET("/subjects", api.querySubjects)
	vg.POST("", api.create, teacherMiddleware())
	vg.POST("/upload", api.upload, teacherMiddleware())
	vg.GET("/:id", api.retrieve)
	vg.PUT("/:id", api.update)
	vg.DELETE("/:id", api.destroy)
	vg.GET("/:id/stats", api.watchStats, teacherMiddleware())
}

func (api *videoApi) query(ctx echo.Context) error {
	filter := new(video.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return respond(ctx, http.StatusOK, "", []video.Video{})
	}
	filter.Clean()

	// ?mine=true narrows to the caller's own uploads
	if ctx.QueryParam("mine") == "true" {
		claims, err := getContextClaims(ctx)
		if err != nil {
			return errors.Wrap(err, "getting context claims")
		}
		filter.UploadedBy = claims.Subject
	}

	videos, err := api.svc.Filter(ctx.Request().Context(), *filter)
	if err != nil {
		api.logger.Error("querying videos", errors.Wrap(err, "querying videos"))
		videos = []video.Video{}
	}
	return respond(ctx, http.StatusOK, "", videos)
}

func (api *videoApi) querySubjects(ctx echo.Context) error {
	subjects, err := api.svc.Subjects(ctx.Request().Context())
	if err != nil {
		api.logger.Error("querying subjects", errors.Wrap(err, "querying subjects"))
		subjects = []string{}
	}
	return respond(ctx, http.StatusOK, "", subjects)
}

func (api *videoApi) create(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data video.NewVideo
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewVideo")
	}
	if err = data.Validate(); err != nil {
		return err
	}

	vid, err := api.svc.Create(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "creating video")
	}
	return respond(ctx, http.StatusCreated, "Video published!", vid)
}

// upload accepts a multipart form: the blob under "video" plus title,
// subject and description fields. The blob is served back under /media.
func (api *videoApi) upload(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	fileHdr, err := ctx.FormFile("video")
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "video", Error: "a video file is required"})
	}
	src, err := fileHdr.Open()
	if err != nil {
		return errors.Wrap(err, "opening upload")
	}
	defer func() { _ = src.Close() }()

	path, err := api.blobs.Save(fileHdr.Filename, src)
	if err != nil {
		return errors.Wrap(err, "saving upload")
	}

	data := video.NewVideo{
		Title:       ctx.FormValue("title"),
		Description: ctx.FormValue("description"),
		Subject:     ctx.FormValue("subject"),
		VideoURL:    ctx.Scheme() + "://" + ctx.Request().Host + "/media/" + path,
		VideoType:   video.TypeUploaded,
		StoragePath: path,
	}
	if err = data.Validate(); err != nil {
		return err
	}

	vid, err := api.svc.Create(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "creating video")
	}
	return respond(ctx, http.StatusCreated, "Video published!", vid)
}

func (api *videoApi) retrieve(ctx echo.Context) error {
	vid, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding video")
	}
	return respond(ctx, http.StatusOK, "", vid)
}

// getOwnedVideo loads the video and enforces the uploader-or-admin rule.
func (api *videoApi) getOwnedVideo(ctx echo.Context) (video.Video, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return video.Video{}, errors.Wrap(err, "getting context claims")
	}

	vid, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return video.Video{}, errors.Wrap(err, "finding video")
	}
	if vid.UploadedBy != claims.Subject && !claims.IsAdmin {
		return video.Video{}, errHttpForbidden
	}
	return vid, nil
}

func (api *videoApi) update(ctx echo.Context) error {
	vid, err := api.getOwnedVideo(ctx)
	if err != nil {
		return err
	}

	var data video.UpdateVideo
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateVideo")
	}
	if err = data.Validate(vid); err != nil {
		return err
	}

	vid, err = api.svc.Update(ctx.Request().Context(), vid, data)
	if err != nil {
		return errors.Wrap(err, "updating video")
	}
	return respond(ctx, http.StatusOK, "Video updated", vid)
}

func (api *videoApi) destroy(ctx echo.Context) error {
	vid, err := api.getOwnedVideo(ctx)
	if err != nil {
		return err
	}

	if err = api.svc.Delete(ctx.Request().Context(), vid.ID); err != nil {
		return errors.Wrap(err, "deleting video")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *videoApi) watchStats(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	vid, err := api.svc.GetByID(reqCtx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding video")
	}

	stats, err := api.progSvc.StatsForVideo(reqCtx, vid.ID)
	if err != nil {
		return errors.Wrap(err, "aggregating watch stats")
	}
	return respond(ctx, http.StatusOK, "", stats)
}
