package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/shopspring/decimal"

	"github.com/dukerupert/savesmart/internal/model"
	"github.com/dukerupert/savesmart/internal/push"
	"github.com/dukerupert/savesmart/internal/store"
	"github.com/dukerupert/savesmart/internal/websocket"
)

// MessageType is the websocket message type for a new notification.
const MessageType = "notification"

// Pusher delivers web push payloads.
type Pusher interface {
	Enabled() bool
	Send(sub *model.PushSubscription, payload push.Payload) error
}

// Realtime delivers messages to a user's open connections.
type Realtime interface {
	SendToUser(userID int64, msg websocket.Message) int
}

// Notifier fans price changes out to users who favourited the location and
// item: a stored notification, a websocket message and a web push.
type Notifier struct {
	favorites     *store.FavoriteStore
	notifications *store.NotificationStore
	subs          *store.PushStore
	hub           Realtime
	push          Pusher
	logger        *slog.Logger
}

func New(favorites *store.FavoriteStore, notifications *store.NotificationStore, subs *store.PushStore, hub Realtime, pusher Pusher, logger *slog.Logger) *Notifier {
	return &Notifier{
		favorites:     favorites,
		notifications: notifications,
		subs:          subs,
		hub:           hub,
		push:          pusher,
		logger:        logger,
	}
}

// Build returns the notification for one recipient of a price change.
func Build(userID int64, change *store.PriceChange) model.Notification {
	obs := change.Observation
	old := change.Previous.Decimal

	typ, title := model.NotifTypePriceUpdate, "Price Update"
	if obs.Price.LessThan(old) {
		typ, title = model.NotifTypePriceDrop, "Price Drop!"
	}

	locationID, itemID := obs.LocationID, obs.ItemID
	return model.Notification{
		UserID:       userID,
		Type:         typ,
		Title:        title,
		Message:      fmt.Sprintf("%s at %s\nRM %s → RM %s", obs.Item.Name, obs.Location.Name, old.StringFixed(2), obs.Price.StringFixed(2)),
		LocationID:   &locationID,
		ItemID:       &itemID,
		LocationName: obs.Location.Name,
		ItemName:     obs.Item.Name,
		OldPrice:     decimal.NewNullDecimal(old),
		NewPrice:     decimal.NewNullDecimal(obs.Price),
	}
}

// PriceChanged notifies every user watching the observation's location and
// item, except the submitter. Unchanged prices and first observations notify
// nobody. It returns the number of users notified; per-user delivery
// failures are logged and skipped.
func (n *Notifier) PriceChanged(ctx context.Context, change *store.PriceChange, submitterID int64) (int, error) {
	if change == nil || !change.Changed() {
		return 0, nil
	}
	obs := change.Observation

	userIDs, err := n.favorites.UserIDsFor(ctx, obs.LocationID, obs.ItemID)
	if err != nil {
		return 0, fmt.Errorf("list watchers: %w", err)
	}

	notified := 0
	for _, uid := range userIDs {
		if uid == submitterID {
			continue
		}

		saved, err := n.notifications.Create(ctx, Build(uid, change))
		if err != nil {
			n.logger.Error("create notification", "user_id", uid, "error", err)
			continue
		}
		notified++

		n.hub.SendToUser(uid, websocket.NewMessage(MessageType, saved))
		n.sendPush(ctx, saved)
	}

	n.logger.Info("price change notified",
		"item_id", obs.ItemID,
		"location_id", obs.LocationID,
		"recipients", notified,
	)
	return notified, nil
}

func (n *Notifier) sendPush(ctx context.Context, note *model.Notification) {
	if n.push == nil || !n.push.Enabled() {
		return
	}

	subs, err := n.subs.ListByUser(ctx, note.UserID)
	if err != nil {
		n.logger.Error("list push subscriptions", "user_id", note.UserID, "error", err)
		return
	}

	payload := push.Payload{
		Title: note.Title,
		Body:  note.Message,
		URL:   "/notifications",
		Tag:   fmt.Sprintf("price-%d-%d", *note.LocationID, *note.ItemID),
		Data:  map[string]int64{"notification_id": note.ID},
	}
	if note.Type == model.NotifTypePriceDrop {
		payload.Urgency = webpush.UrgencyHigh
	}

	for _, sub := range subs {
		err := n.push.Send(&sub, payload)
		if err == nil {
			continue
		}
		if errors.Is(err, push.ErrExpired) {
			if err := n.subs.DeleteByEndpoint(ctx, sub.Endpoint); err != nil {
				n.logger.Error("delete expired subscription", "error", err)
			}
			continue
		}
		n.logger.Warn("send push", "user_id", note.UserID, "error", err)
	}
}
