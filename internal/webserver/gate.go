package webserver

import (
	"net/http"
	"strings"

	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

// SessionName is the cookie carrying the signed admin session.
const SessionName = "admin"

// sessionGate redirects unauthenticated page requests under /admin to
// the login page and rejects unauthenticated protected api calls.
// An absent, tampered or unsigned cookie is treated the same as no
// session at all.
func sessionGate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		path := c.Request().URL.Path
		if !requiresSession(path) || IsAuthenticated(c) {
			return next(c)
		}
		if strings.HasPrefix(path, "/api/") {
			return c.JSON(http.StatusForbidden, map[string]interface{}{
				"code":  "UNAUTHORIZED",
				"error": "A valid session is required",
			})
		}
		return c.Redirect(http.StatusFound, "/admin/login")
	}
}

func requiresSession(path string) bool {
	if path == "/admin/login" || strings.HasPrefix(path, "/admin/login/") {
		return false
	}
	if strings.HasPrefix(path, "/admin") {
		return true
	}
	// Account creation is the only protected api endpoint; catalog and
	// dashboard reads stay open like the auth endpoints.
	return path == "/api/admin/create"
}

// IsAuthenticated reports whether the request carries a valid
// authenticated session.
func IsAuthenticated(c echo.Context) bool {
	sess, err := session.Get(SessionName, c)
	if err != nil {
		return false
	}
	authenticated, _ := sess.Values["authenticated"].(bool)
	return authenticated
}

// CurrentUsername returns the operator name bound to the session, or
// empty when unauthenticated.
func CurrentUsername(c echo.Context) string {
	sess, err := session.Get(SessionName, c)
	if err != nil {
		return ""
	}
	username, _ := sess.Values["username"].(string)
	return username
}

// MarkAuthenticated binds an authenticated operator to the session.
// A tampered cookie yields an error plus a usable fresh session, so
// the error is only fatal when no session came back with it.
func MarkAuthenticated(c echo.Context, username string) error {
	sess, err := session.Get(SessionName, c)
	if sess == nil {
		return err
	}
	sess.Values["authenticated"] = true
	sess.Values["username"] = username
	return sess.Save(c.Request(), c.Response())
}

// ClearSession drops the session cookie.
func ClearSession(c echo.Context) error {
	sess, err := session.Get(SessionName, c)
	if err != nil || sess == nil {
		return nil
	}
	sess.Values = map[interface{}]interface{}{}
	sess.Options.MaxAge = -1
	return sess.Save(c.Request(), c.Response())
}
