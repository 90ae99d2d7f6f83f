package adminapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/stocklight/stocklight/internal/app"
	"github.com/stocklight/stocklight/internal/webserver"
)

// GetAppCtx extracts the application context injected by the web server.
func GetAppCtx(c echo.Context) app.AppContext {
	return c.Get(webserver.AppContextKey).(app.AppContext)
}

// GetDB extracts the gorm handle for the current request.
func GetDB(c echo.Context) *gorm.DB {
	return GetAppCtx(c).DB()
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, data)
}

func created(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, data)
}

func fail(c echo.Context, status int, code, message string, detail interface{}) error {
	body := map[string]interface{}{
		"code":  code,
		"error": message,
	}
	if detail != nil {
		body["detail"] = detail
	}
	return c.JSON(status, body)
}

func paged(c echo.Context, rows interface{}, total int64, page, pageSize int) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":     rows,
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
	})
}

func parsePagination(c echo.Context) (page, pageSize int) {
	page = 1
	pageSize = 20
	if p, err := strconv.Atoi(c.QueryParam("page")); err == nil && p > 0 {
		page = p
	}
	if ps, err := strconv.Atoi(c.QueryParam("pageSize")); err == nil && ps > 0 && ps <= 500 {
		pageSize = ps
	}
	return page, pageSize
}

func parseIDParam(c echo.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}

func handleValidationError(c echo.Context, err error) error {
	if verrs, is := err.(validator.ValidationErrors); is {
		var fields []string
		for _, ferr := range verrs {
			fields = append(fields, strings.ToLower(ferr.Field()))
		}
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST",
			"Invalid value for: "+strings.Join(fields, ", "), nil)
	}
	return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request payload", err.Error())
}
