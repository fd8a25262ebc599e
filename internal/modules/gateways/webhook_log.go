package gateways

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// WebhookLog is the forensic record of every received webhook body, written
// before dispatch so failed events can be replayed.
type WebhookLog struct {
	ID         string         `gorm:"type:char(36);primaryKey"`
	GatewayID  string         `gorm:"type:varchar(64);not null;index:ix_store_webhook_logs_gateway"`
	EventType  string         `gorm:"type:varchar(64);not null"` // "unknown" when the body has no event type
	Payload    datatypes.JSON `gorm:"type:json;not null"`
	ReceivedAt time.Time      `gorm:"type:datetime(3);not null"`
}

func (WebhookLog) TableName() string { return "store_webhook_logs" }

type WebhookLogStore interface {
	Log(ctx context.Context, gatewayID, eventType string, body []byte) error
}

type GormWebhookLogRepo struct{ db *gorm.DB }

func NewGormWebhookLogRepo(db *gorm.DB) *GormWebhookLogRepo {
	return &GormWebhookLogRepo{db: db}
}

func (r *GormWebhookLogRepo) Log(ctx context.Context, gatewayID, eventType string, body []byte) error {
	return r.db.WithContext(ctx).Create(&WebhookLog{
		ID:         uuid.NewString(),
		GatewayID:  gatewayID,
		EventType:  eventType,
		Payload:    datatypes.JSON(body),
		ReceivedAt: time.Now(),
	}).Error
}
