package notification

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/garyjia/docflow/internal/application/dispatcher"
	"github.com/garyjia/docflow/internal/application/port"
	"github.com/garyjia/docflow/internal/domain/entity"
	"github.com/garyjia/docflow/internal/domain/event"
)

// LarkPusherConfig configures where notifications are pushed
type LarkPusherConfig struct {
	ReceiveIDType string // chat_id, open_id, user_id or email
	ReceiveID     string
	MinLevel      entity.NotificationLevel
}

// LarkPusher mirrors raised notifications to a Lark chat
type LarkPusher struct {
	sender port.MessageSender
	config LarkPusherConfig
	logger *zap.Logger
}

// NewLarkPusher creates a pusher
func NewLarkPusher(sender port.MessageSender, cfg LarkPusherConfig, logger *zap.Logger) *LarkPusher {
	if cfg.ReceiveIDType == "" {
		cfg.ReceiveIDType = "chat_id"
	}
	if cfg.MinLevel == "" {
		cfg.MinLevel = entity.NotificationInfo
	}
	return &LarkPusher{
		sender: sender,
		config: cfg,
		logger: logger,
	}
}

// Register subscribes the pusher to notification.raised
func (p *LarkPusher) Register(d dispatcher.Dispatcher) {
	d.Subscribe(event.TypeNotificationRaised, "lark_pusher", p.Handle)
}

// Handle pushes one notification.raised event
func (p *LarkPusher) Handle(ctx context.Context, evt *event.Event) error {
	level := entity.NotificationLevel(evt.GetPayloadString(PayloadLevel))
	if level.Rank() < p.config.MinLevel.Rank() {
		return nil
	}

	messageID, err := p.sender.SendText(ctx, p.config.ReceiveIDType, p.config.ReceiveID, formatText(evt))
	if err != nil {
		return fmt.Errorf("failed to push notification: %w", err)
	}

	p.logger.Debug("Notification pushed to Lark",
		zap.String("event_id", evt.ID),
		zap.String("message_id", messageID))
	return nil
}

var levelTags = map[entity.NotificationLevel]string{
	entity.NotificationSuccess: "[OK]",
	entity.NotificationInfo:    "[INFO]",
	entity.NotificationWarning: "[ATTENTION]",
	entity.NotificationError:   "[ERREUR]",
}

func formatText(evt *event.Event) string {
	var b strings.Builder
	if tag, ok := levelTags[entity.NotificationLevel(evt.GetPayloadString(PayloadLevel))]; ok {
		b.WriteString(tag)
		b.WriteString(" ")
	}
	if title := evt.GetPayloadString(PayloadTitle); title != "" {
		b.WriteString(title)
		b.WriteString(" : ")
	}
	b.WriteString(evt.GetPayloadString(PayloadMessage))
	if evt.DocumentID != 0 {
		fmt.Fprintf(&b, " (document %d)", evt.DocumentID)
	}
	if evt.InstanceID != 0 {
		fmt.Fprintf(&b, " (instance %d)", evt.InstanceID)
	}
	return b.String()
}
