package adminapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/stocklight/stocklight/internal/app"
	"github.com/stocklight/stocklight/internal/audit"
	"github.com/stocklight/stocklight/internal/domain"
	"github.com/stocklight/stocklight/internal/webserver"
	"github.com/stocklight/stocklight/pkg/common"
)

type loginPayload struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=128"`
}

type createAdminPayload struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=6,max=128"`
	Realname string `json:"realname" validate:"max=64"`
}

// dummyOprHash is compared against when the username does not exist, so
// a lookup miss costs the same as a password mismatch.
var dummyOprHash, _ = bcrypt.GenerateFromPassword([]byte("stocklight.dummy.credential"), bcrypt.DefaultCost)

func registerAuthRoutes() {
	webserver.ApiPOST("/auth/login", login)
	webserver.ApiPOST("/auth/logout", logout)
	webserver.ApiGET("/auth/seed", seedAdmin)
	webserver.ApiPOST("/admin/create", createAdmin)
}

func login(c echo.Context) error {
	var payload loginPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse credentials", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	username := strings.TrimSpace(payload.Username)
	var operator domain.SysOpr
	lookupErr := GetDB(c).Where("username = ?", username).First(&operator).Error

	hash := operator.Password
	if lookupErr != nil || hash == "" {
		hash = string(dummyOprHash)
	}
	compareErr := bcrypt.CompareHashAndPassword([]byte(hash), []byte(payload.Password))

	if lookupErr != nil || compareErr != nil || !strings.EqualFold(operator.Status, common.ENABLED) {
		return fail(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password", nil)
	}

	if err := webserver.MarkAuthenticated(c, operator.Username); err != nil {
		return fail(c, http.StatusInternalServerError, "SESSION_ERROR", "Failed to establish session", err.Error())
	}

	if err := GetDB(c).Model(&domain.SysOpr{}).Where("id = ?", operator.ID).
		Update("last_login", time.Now()).Error; err != nil {
		zap.L().Warn("failed to record last login",
			zap.String("username", operator.Username), zap.Error(err))
	}
	GetAppCtx(c).Bus().Publish(audit.TopicAdminLogin, operator.Username, "operator signed in")

	return ok(c, map[string]interface{}{
		"success":  true,
		"username": operator.Username,
	})
}

func logout(c echo.Context) error {
	if err := webserver.ClearSession(c); err != nil {
		zap.L().Warn("failed to clear session", zap.Error(err))
	}
	return ok(c, map[string]interface{}{"success": true})
}

// seedAdmin provisions the bootstrap administrator. Disabled in
// production via web.allow_seed.
func seedAdmin(c echo.Context) error {
	appCtx := GetAppCtx(c)
	if !appCtx.Config().Web.AllowSeed {
		return fail(c, http.StatusForbidden, "UNAUTHORIZED", "Seeding is disabled", nil)
	}

	seeded, err := appCtx.SeedDefaultOpr()
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to seed administrator", err.Error())
	}
	body := map[string]interface{}{"created": seeded}
	if seeded {
		appCtx.Bus().Publish(audit.TopicAdminCreated, app.DefaultOprUsername, "bootstrap administrator seeded")
		// credentials are disclosed only when this call created them
		body["username"] = app.DefaultOprUsername
		body["password"] = app.DefaultOprPassword
	}
	return ok(c, body)
}

func createAdmin(c echo.Context) error {
	var payload createAdminPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse payload", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	username := strings.TrimSpace(payload.Username)
	var count int64
	GetDB(c).Model(&domain.SysOpr{}).Where("username = ?", username).Count(&count)
	if count > 0 {
		return fail(c, http.StatusConflict, "DUPLICATE_USERNAME", "Username is already taken", nil)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to hash password", err.Error())
	}

	operator := domain.SysOpr{
		ID:        common.UUIDint64(),
		Username:  username,
		Password:  string(hashed),
		Realname:  strings.TrimSpace(payload.Realname),
		Level:     "admin",
		Status:    common.ENABLED,
		LastLogin: time.Now(),
	}
	if err := GetDB(c).Create(&operator).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create administrator", err.Error())
	}

	GetAppCtx(c).Bus().Publish(audit.TopicAdminCreated, webserver.CurrentUsername(c),
		"created administrator "+operator.Username)

	return created(c, operator)
}
