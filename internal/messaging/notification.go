package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/richardliu001/ticket-service/internal/domain"
	"github.com/richardliu001/ticket-service/internal/model"
	"go.uber.org/zap"
)

// NotificationHandler acknowledges that a customer notification is owed.
// Delivery itself lives elsewhere.
func NotificationHandler(log *zap.SugaredLogger) Handler {
	return func(ctx context.Context, env model.Envelope) error {
		switch domain.Kind(env.Kind) {
		case domain.KindTicketReserved:
			var data domain.TicketReserved
			if err := json.Unmarshal(env.Data, &data); err != nil {
				return fmt.Errorf("decode %s: %w", env.Kind, err)
			}
			log.Infow("notification owed: ticket reserved",
				"event_id", env.ID, "customer_id", data.CustomerID,
				"ticket_id", data.TicketID, "ordinal", data.Ordinal)
		case domain.KindTicketPaid:
			var data domain.TicketPaid
			if err := json.Unmarshal(env.Data, &data); err != nil {
				return fmt.Errorf("decode %s: %w", env.Kind, err)
			}
			log.Infow("notification owed: ticket paid",
				"event_id", env.ID, "customer_id", data.CustomerID,
				"ticket_id", data.TicketID, "amount", data.Amount.String())
		default:
			log.Debugw("ignoring event kind", "event_id", env.ID, "kind", env.Kind)
		}
		return nil
	}
}
