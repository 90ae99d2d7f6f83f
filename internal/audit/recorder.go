// Package audit subscribes to catalog and account events and persists
// them as operation-log rows.
package audit

import (
	"time"

	"github.com/asaskevich/EventBus"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/stocklight/stocklight/internal/domain"
	"github.com/stocklight/stocklight/pkg/common"
)

// Event topics published by the admin API.
const (
	TopicProductCreated = "product.created"
	TopicProductUpdated = "product.updated"
	TopicProductDeleted = "product.deleted"
	TopicAdminCreated   = "admin.created"
	TopicAdminLogin     = "admin.login"
)

// Recorder writes one SysOprLog row per event.
type Recorder struct {
	db *gorm.DB
}

func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db}
}

// Attach subscribes the recorder to all known topics.
func (r *Recorder) Attach(bus EventBus.Bus) error {
	for _, topic := range []string{
		TopicProductCreated,
		TopicProductUpdated,
		TopicProductDeleted,
		TopicAdminCreated,
		TopicAdminLogin,
	} {
		topic := topic
		if err := bus.Subscribe(topic, func(oprName, desc string) {
			r.record(topic, oprName, desc)
		}); err != nil {
			return err
		}
	}
	return nil
}

func (r *Recorder) record(action, oprName, desc string) {
	log := domain.SysOprLog{
		ID:        common.UUIDint64(),
		OprName:   oprName,
		OptAction: action,
		OptDesc:   desc,
		OptTime:   time.Now(),
	}
	if err := r.db.Create(&log).Error; err != nil {
		zap.L().Error("failed to write operation log",
			zap.String("action", action), zap.Error(err))
	}
}
