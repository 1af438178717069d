// Package lark pushes console notifications to a Lark chat through the
// Lark open platform SDK.
package lark

import (
	"context"
	"encoding/json"
	"fmt"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"go.uber.org/zap"

	"github.com/garyjia/docflow/internal/application/port"
)

// Config holds Lark client configuration
type Config struct {
	AppID     string
	AppSecret string
}

// Messenger implements port.MessageSender
type Messenger struct {
	client *lark.Client
	logger *zap.Logger
}

// NewMessenger creates a Lark message sender
func NewMessenger(cfg Config, logger *zap.Logger) *Messenger {
	client := lark.NewClient(cfg.AppID, cfg.AppSecret,
		lark.WithLogLevel(larkcore.LogLevelInfo),
		lark.WithEnableTokenCache(true),
	)

	return &Messenger{
		client: client,
		logger: logger,
	}
}

// SendText sends a plain-text message and returns the Lark message id
func (m *Messenger) SendText(ctx context.Context, receiveIDType, receiveID, text string) (string, error) {
	if receiveID == "" {
		return "", fmt.Errorf("receiveID cannot be empty")
	}
	if text == "" {
		return "", fmt.Errorf("text cannot be empty")
	}

	content, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return "", fmt.Errorf("failed to marshal message content: %w", err)
	}

	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(receiveIDType).
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(receiveID).
			MsgType("text").
			Content(string(content)).
			Build()).
		Build()

	resp, err := m.client.Im.Message.Create(ctx, req)
	if err != nil {
		m.logger.Error("Failed to send message",
			zap.String("receive_id", receiveID),
			zap.Error(err))
		return "", fmt.Errorf("failed to send message: %w", err)
	}

	if !resp.Success() {
		m.logger.Error("API returned failure",
			zap.String("receive_id", receiveID),
			zap.Int("code", resp.Code),
			zap.String("msg", resp.Msg))
		return "", fmt.Errorf("API error: code=%d, msg=%s", resp.Code, resp.Msg)
	}

	messageID := ""
	if resp.Data != nil && resp.Data.MessageId != nil {
		messageID = *resp.Data.MessageId
	}

	m.logger.Info("Message sent successfully",
		zap.String("message_id", messageID),
		zap.String("receive_id", receiveID))

	return messageID, nil
}

var _ port.MessageSender = (*Messenger)(nil)
