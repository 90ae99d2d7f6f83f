package app

import (
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/stocklight/stocklight/internal/domain"
	"github.com/stocklight/stocklight/pkg/common"
)

const (
	// DefaultOprUsername and DefaultOprPassword are the bootstrap
	// credentials provisioned by the seed operation. Production
	// deployments are expected to change the password and disable
	// seeding (web.allow_seed: false).
	DefaultOprUsername = "admin"
	DefaultOprPassword = "admin123"
)

// SeedDefaultOpr provisions the default administrator if no record with
// the well-known username exists. Idempotent: a second call is a no-op.
func (a *Application) SeedDefaultOpr() (bool, error) {
	var operator domain.SysOpr
	err := a.gormDB.Where("username = ?", DefaultOprUsername).First(&operator).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultOprPassword), bcrypt.DefaultCost)
		if err != nil {
			return false, err
		}
		opr := domain.SysOpr{
			ID:        common.UUIDint64(),
			Username:  DefaultOprUsername,
			Password:  string(hashed),
			Realname:  "administrator",
			Level:     "super",
			Status:    common.ENABLED,
			Remark:    "super",
			LastLogin: time.Now(),
		}
		if err := a.gormDB.Create(&opr).Error; err != nil {
			return false, err
		}
		return true, nil
	case err != nil:
		return false, err
	}
	return false, nil
}

// checkSuper ensures a usable super administrator exists on startup and
// repairs a broken one (blank password hash or disabled status).
func (a *Application) checkSuper() {
	created, err := a.SeedDefaultOpr()
	if err != nil {
		zap.L().Error("failed to ensure default super admin", zap.Error(err))
		return
	}
	if created {
		zap.L().Info("initialized default super admin account",
			zap.String("username", DefaultOprUsername))
		return
	}

	var operator domain.SysOpr
	if err := a.gormDB.Where("username = ?", DefaultOprUsername).First(&operator).Error; err != nil {
		zap.L().Error("failed to query super admin", zap.Error(err))
		return
	}

	resetPassword := strings.TrimSpace(operator.Password) == ""
	resetStatus := !strings.EqualFold(operator.Status, common.ENABLED)
	if !resetPassword && !resetStatus {
		return
	}

	updates := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if resetPassword {
		hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultOprPassword), bcrypt.DefaultCost)
		if err != nil {
			zap.L().Error("failed to hash default password", zap.Error(err))
			return
		}
		updates["password"] = string(hashed)
	}
	if resetStatus {
		updates["status"] = common.ENABLED
	}

	if err := a.gormDB.Model(&domain.SysOpr{}).Where("id = ?", operator.ID).Updates(updates).Error; err != nil {
		zap.L().Error("failed to repair super admin account", zap.Error(err))
		return
	}

	zap.L().Warn("repaired default super admin account",
		zap.String("username", DefaultOprUsername),
		zap.Bool("passwordReset", resetPassword),
		zap.Bool("statusEnabled", resetStatus))
}

// checkSettings initializes missing dashboard settings with defaults.
func (a *Application) checkSettings() {
	defaults := []domain.SysConfig{
		{Sort: 1, Type: "dashboard", Name: "lowStockThreshold", Value: "15", Remark: "Stock level below which a product counts as low stock"},
		{Sort: 2, Type: "dashboard", Name: "lowStockLimit", Value: "3", Remark: "Number of low-stock products shown on the dashboard"},
		{Sort: 3, Type: "dashboard", Name: "topSellersLimit", Value: "5", Remark: "Number of products in the top-sellers chart"},
	}

	for _, item := range defaults {
		var count int64
		a.gormDB.Model(&domain.SysConfig{}).
			Where("type = ? and name = ?", item.Type, item.Name).
			Count(&count)

		if count == 0 {
			item.ID = common.UUIDint64()
			item.CreatedAt = time.Now()
			item.UpdatedAt = time.Now()
			if err := a.gormDB.Create(&item).Error; err != nil {
				zap.L().Error("failed to create default setting",
					zap.String("name", item.Name), zap.Error(err))
			} else {
				zap.L().Info("initialized setting",
					zap.String("key", item.Type+"."+item.Name),
					zap.String("default", item.Value))
			}
		}
	}
}
