package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/garyjia/docflow/internal/config"
	"github.com/garyjia/docflow/internal/domain/entity"
	"github.com/garyjia/docflow/internal/domain/event"
	infraLark "github.com/garyjia/docflow/internal/infrastructure/external/lark"
	"github.com/garyjia/docflow/internal/notification"
	"github.com/garyjia/docflow/pkg/utils"
)

// Isolated check of the Lark push configuration: sends one message to the
// configured chat without starting the console.

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML configuration file")
	level := flag.String("level", "warning", "level of the test notification")
	receiveID := flag.String("to", "", "override lark.receive_id")
	flag.Parse()

	fmt.Println("=== Lark Notification Test ===")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *receiveID != "" {
		cfg.Lark.ReceiveID = *receiveID
	}
	if !cfg.Lark.Enabled() {
		log.Fatal("Lark push is not configured: set lark.app_id, lark.app_secret and lark.receive_id")
	}

	fmt.Printf("App ID: %s\n", maskID(cfg.Lark.AppID))
	fmt.Printf("Receiver: %s %s\n", cfg.Lark.ReceiveIDType, cfg.Lark.ReceiveID)

	logger := utils.NewCLILogger(true)
	defer logger.Sync()

	messenger := infraLark.NewMessenger(infraLark.Config{
		AppID:     cfg.Lark.AppID,
		AppSecret: cfg.Lark.AppSecret,
	}, logger)

	// MinLevel is left at info so the test message is never filtered out
	pusher := notification.NewLarkPusher(messenger, notification.LarkPusherConfig{
		ReceiveIDType: cfg.Lark.ReceiveIDType,
		ReceiveID:     cfg.Lark.ReceiveID,
	}, logger)

	evt := event.NewEvent(event.TypeNotificationRaised, 0, 0, map[string]interface{}{
		notification.PayloadLevel:   string(entity.ParseNotificationLevel(*level)),
		notification.PayloadTitle:   "Test de notification",
		notification.PayloadMessage: fmt.Sprintf("Message de test envoyé le %s", time.Now().Format("02/01/2006 15:04")),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	fmt.Println("\nSending test message...")
	if err := pusher.Handle(ctx, evt); err != nil {
		log.Fatalf("✗ %v", err)
	}
	fmt.Println("✓ Test message sent")

	if floor := entity.ParseNotificationLevel(cfg.Lark.MinLevel); entity.ParseNotificationLevel(*level).Rank() < floor.Rank() {
		fmt.Printf("Note: the console only pushes %s and above; this level would be filtered.\n", floor)
	}
}

func maskID(id string) string {
	if len(id) <= 8 {
		return "****"
	}
	return id[:4] + "..." + id[len(id)-4:]
}
