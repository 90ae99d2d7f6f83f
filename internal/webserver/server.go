package webserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/stocklight/stocklight/internal/app"
)

// AppContextKey is the echo context key under which the application
// context is injected for API handlers.
const AppContextKey = "stocklight_appctx"

var server *WebServer

type WebServer struct {
	root   *echo.Echo
	appCtx app.AppContext
}

// Init builds the web server: session middleware, request logging,
// the session gate and the admin pages. API routes are registered
// afterwards by the adminapi package.
func Init(appCtx app.AppContext) *WebServer {
	s := &WebServer{appCtx: appCtx}
	s.root = echo.New()
	s.root.HideBanner = true
	s.root.HidePort = true
	s.root.JSONSerializer = NewJSONSerializer()
	s.root.Validator = NewValidator()
	s.root.Renderer = NewRenderer()

	cookieStore := sessions.NewCookieStore([]byte(appCtx.Config().Web.Secret))
	cookieStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
	}

	s.root.Use(middleware.Recover())
	s.root.Use(session.Middleware(cookieStore))
	s.root.Use(s.injectAppContext)
	s.root.Use(requestLogger)
	s.root.Use(sessionGate)

	s.registerPages()

	server = s
	return s
}

func (s *WebServer) injectAppContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Set(AppContextKey, s.appCtx)
		return next(c)
	}
}

func requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		status := c.Response().Status
		if he, ok := err.(*echo.HTTPError); ok {
			status = he.Code
		}
		zap.L().Debug("http request",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Request().URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)))
		return err
	}
}

// Handler exposes the echo instance as an http.Handler (used in tests).
func Handler() http.Handler {
	return server.root
}

// Listen starts the http server on the configured address.
func Listen() error {
	cfg := server.appCtx.Config()
	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	zap.L().Info("starting web server", zap.String("listen", addr))
	err := server.root.Start(addr)
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the http server gracefully.
func Shutdown(ctx context.Context) error {
	return server.root.Shutdown(ctx)
}

// ApiGET registers a GET api route under /api.
func ApiGET(path string, h echo.HandlerFunc) {
	server.root.GET("/api"+path, h)
}

// ApiPOST registers a POST api route under /api.
func ApiPOST(path string, h echo.HandlerFunc) {
	server.root.POST("/api"+path, h)
}

// ApiPUT registers a PUT api route under /api.
func ApiPUT(path string, h echo.HandlerFunc) {
	server.root.PUT("/api"+path, h)
}

// ApiDELETE registers a DELETE api route under /api.
func ApiDELETE(path string, h echo.HandlerFunc) {
	server.root.DELETE("/api"+path, h)
}

// CustomValidator adapts go-playground validator to echo.
type CustomValidator struct {
	validate *validator.Validate
}

func NewValidator() *CustomValidator {
	return &CustomValidator{validate: validator.New()}
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validate.Struct(i)
}
