package echoapi

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/edulearn/core"
	"github.com/trezcool/edulearn/core/progress"
	"github.com/trezcool/edulearn/core/signup"
	"github.com/trezcool/edulearn/core/user"
	"github.com/trezcool/edulearn/core/video"
)

type (
	// BlobStore is where uploaded video files land.
	BlobStore interface {
		Save(filename string, src io.Reader) (string, error)
	}

	ServerDeps struct {
		Logger      core.Logger
		UsrSvc      user.Service
		SignupSvc   signup.Service
		VideoSvc    video.Service
		ProgressSvc progress.Service
		Blobs       BlobStore

		DisableReqLogs bool
	}

	Server interface {
		http.Handler
		Start()
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
		Shutdown(context.Context) error
		Close() error
	}

	server struct {
		deps     ServerDeps
		app      *echo.Echo
		errs     chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	s := &server{
		deps:     deps,
		app:      echo.New(),
		errs:     make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(core.Conf.Debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.signalShutdown)
	s.app.Debug = core.Conf.Debug

	s.app.GET("/", home)
	// uploaded video blobs
	s.app.Static("/media", core.Conf.MediaRoot)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	registerSignupAPI(v1, s.deps.SignupSvc)
	registerAuthAPI(v1, jwt, s.deps.UsrSvc)
	registerAdminAPI(v1, jwt, s.deps)
	// progress must register first: its "/videos/:id" group (with
	// middleware) adds catch-all routes on that path which would otherwise
	// clobber the video API's "/videos/:id" handlers.
	registerProgressAPI(v1, jwt, s.deps)
	registerVideoAPI(v1, jwt, s.deps)
}

func (s *server) Start() {
	s.errs <- s.app.Start(core.Conf.Server.Address())
}

func (s *server) Errors() <-chan error { return s.errs }

func (s *server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

// signalShutdown lets the error handler request a graceful stop when an
// unrecoverable error bubbles up.
func (s *server) signalShutdown() {
	s.shutdown <- syscall.SIGTERM
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to EduLearn API!")
}

// Response is the envelope every business endpoint answers with.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func respond(ctx echo.Context, code int, msg string, data interface{}) error {
	return ctx.JSON(code, Response{Success: true, Message: msg, Data: data})
}
