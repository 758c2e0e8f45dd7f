package realtime

import (
	"context"

	"github.com/google/uuid"

	"github.com/sparkquest/arcade-api/internal/domain/arcade"
	"github.com/sparkquest/arcade-api/internal/domain/catalog"
	"github.com/sparkquest/arcade-api/internal/pkg/logger"
)

// Notifier turns domain callbacks into hub events.
type Notifier struct {
	hub *Hub
}

func NewNotifier(hub *Hub) *Notifier {
	return &Notifier{hub: hub}
}

func (n *Notifier) send(ctx context.Context, userID uuid.UUID, event *Event) {
	if err := n.hub.SendToUser(userID, event); err != nil {
		logger.LogWarn(ctx, "realtime publish failed",
			"user_id", userID.String(),
			"event", string(event.Type),
			"error", err.Error(),
		)
	}
}

// BalanceChanged pushes the confirmed balance after a ledger commit.
func (n *Notifier) BalanceChanged(ctx context.Context, userID uuid.UUID, balance int64) {
	n.send(ctx, userID, &Event{
		Type: EventBalanceChanged,
		Data: map[string]interface{}{"balance": balance},
	})
}

func (n *Notifier) CompletionRecorded(ctx context.Context, userID, contentItemID uuid.UUID, credits int64) {
	n.send(ctx, userID, &Event{
		Type: EventCompletionRecorded,
		Data: map[string]interface{}{
			"content_item_id": contentItemID,
			"credits_awarded": credits,
		},
	})
}

func (n *Notifier) SessionStarted(ctx context.Context, h *arcade.Handle) {
	n.send(ctx, h.UserID, &Event{Type: EventSessionStarted, Data: h})
}

func (n *Notifier) SessionExpired(ctx context.Context, s *arcade.Session) {
	n.send(ctx, s.UserID, &Event{
		Type: EventSessionExpired,
		Data: map[string]interface{}{
			"session_id": s.ID,
			"game_id":    s.GameID,
		},
	})
}

// CatalogChanged is registered with the catalog reader, which runs on every instance.
func (n *Notifier) CatalogChanged(_ context.Context, c catalog.Collection) {
	n.hub.BroadcastLocal(&Event{
		Type: EventCatalogChanged,
		Data: map[string]interface{}{"collection": c},
	})
}
