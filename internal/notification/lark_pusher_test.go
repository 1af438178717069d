package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/docflow/internal/application/dispatcher"
	"github.com/garyjia/docflow/internal/domain/entity"
	"github.com/garyjia/docflow/internal/domain/event"
)

func raised(level entity.NotificationLevel, title, message string, documentID, instanceID int64) *event.Event {
	return event.NewEvent(event.TypeNotificationRaised, documentID, instanceID, map[string]interface{}{
		PayloadLevel:   string(level),
		PayloadTitle:   title,
		PayloadMessage: message,
	})
}

func TestLarkPusher_Handle(t *testing.T) {
	sender := &fakeSender{}
	pusher := NewLarkPusher(sender, LarkPusherConfig{ReceiveID: "oc_team"}, zap.NewNop())

	err := pusher.Handle(context.Background(), raised(entity.NotificationSuccess, "Succès", "Workflow démarré pour Contrat", 12, 0))
	require.NoError(t, err)

	sent := sender.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "chat_id", sent[0].receiveIDType)
	assert.Equal(t, "oc_team", sent[0].receiveID)
	assert.Equal(t, "[OK] Succès : Workflow démarré pour Contrat (document 12)", sent[0].text)
}

func TestLarkPusher_MinLevel(t *testing.T) {
	sender := &fakeSender{}
	pusher := NewLarkPusher(sender, LarkPusherConfig{
		ReceiveIDType: "open_id",
		ReceiveID:     "ou_1",
		MinLevel:      entity.NotificationWarning,
	}, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, pusher.Handle(ctx, raised(entity.NotificationInfo, "", "ignored", 0, 0)))
	require.NoError(t, pusher.Handle(ctx, raised(entity.NotificationSuccess, "", "ignored", 0, 0)))
	require.NoError(t, pusher.Handle(ctx, raised(entity.NotificationError, "", "Erreur lors de l'approbation", 0, 5)))

	sent := sender.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "open_id", sent[0].receiveIDType)
	assert.Equal(t, "[ERREUR] Erreur lors de l'approbation (instance 5)", sent[0].text)
}

func TestLarkPusher_SendFailure(t *testing.T) {
	sender := &fakeSender{err: errors.New("rate limited")}
	pusher := NewLarkPusher(sender, LarkPusherConfig{ReceiveID: "oc_team"}, zap.NewNop())

	err := pusher.Handle(context.Background(), raised(entity.NotificationWarning, "", "x", 0, 0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestLarkPusher_Register(t *testing.T) {
	d := dispatcher.NewDispatcher()
	defer d.Close()

	sender := &fakeSender{}
	NewLarkPusher(sender, LarkPusherConfig{ReceiveID: "oc_team"}, zap.NewNop()).Register(d)

	subs := d.Subscriptions(event.TypeNotificationRaised)
	require.Len(t, subs, 1)
	assert.Equal(t, "lark_pusher", subs[0].Name)

	require.NoError(t, d.Dispatch(context.Background(), raised(entity.NotificationInfo, "Info", "Aucune approbation en attente", 0, 0)))
	sent := sender.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "[INFO] Info : Aucune approbation en attente", sent[0].text)
}
