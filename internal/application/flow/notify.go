package flow

import (
	"context"

	"github.com/garyjia/docflow/internal/domain/entity"
)

// Fixed user-facing messages
const (
	MsgStartFailed       = "Erreur lors du démarrage du workflow"
	MsgApprovalFailed    = "Erreur lors du traitement de l'approbation"
	MsgDecisionRequired  = "Veuillez sélectionner une décision"
	MsgPendingLoadFailed = "Erreur lors du chargement des validations en attente"
	MsgNoPending         = "Aucune validation en attente"
)

func int64Ptr(v int64) *int64 {
	return &v
}

func documentNotification(title, message string, documentID int64) entity.Notification {
	return entity.Notification{
		Title:      title,
		Message:    message,
		DocumentID: int64Ptr(documentID),
	}
}

func instanceNotification(title, message string, instanceID int64) entity.Notification {
	return entity.Notification{
		Title:      title,
		Message:    message,
		InstanceID: int64Ptr(instanceID),
	}
}

// detach keeps notification delivery alive when the triggering call was
// cancelled after it resolved.
func detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}
