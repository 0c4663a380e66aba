package echoapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/parikshahq/pariksha/core"
	"github.com/parikshahq/pariksha/core/exam"
	"github.com/parikshahq/pariksha/core/institute"
	"github.com/parikshahq/pariksha/core/owner"
	"github.com/parikshahq/pariksha/core/student"
	"github.com/parikshahq/pariksha/core/typing"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool
		Logger         core.Logger
		SignalShutdown func()

		OwnerSvc     *owner.Service
		InstituteSvc *institute.Service
		StudentSvc   *student.Service
		ExamSvc      *exam.Service
		TypingSvc    *typing.Service
		FileStore    core.FileStore
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	debug := core.Conf.Debug

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.SignalShutdown)
	s.app.Debug = debug

	s.app.GET("/", home)
	if u, err := url.Parse(core.Conf.Media.BaseURL); err == nil && u.Path != "" {
		s.app.Static(u.Path, core.Conf.Media.Root)
	}

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	registerAuthAPI(v1, jwt, s.opts)
	registerOwnerAPI(v1, jwt, s.opts)
	registerInstituteAPI(v1, jwt, s.opts)
	registerStudentAPI(v1, jwt, s.opts)
}

func (s *server) Start() {
	s.app.Logger.Fatal(s.app.Start(s.opts.Address))
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+core.Conf.AppName+" API!")
}
