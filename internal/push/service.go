package push

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/dealradar/dealradar/internal/logger"
)

// Service delivers Web Push notifications to subscribed browsers using the
// server's VAPID key pair. Delivery is best effort: per-subscription failures
// are logged, and subscriptions the push service reports gone are pruned.
type Service struct {
	store      *Store
	logger     *logger.Logger
	publicKey  string
	privateKey string
	subscriber string
	enabled    bool
}

// NewService creates a new push service.
func NewService(store *Store, logger *logger.Logger, publicKey, privateKey, subscriber string, enabled bool) *Service {
	return &Service{
		store:      store,
		logger:     logger,
		publicKey:  publicKey,
		privateKey: privateKey,
		subscriber: subscriber,
		enabled:    enabled,
	}
}

// PublicKey returns the VAPID public key browsers use to create subscriptions.
func (s *Service) PublicKey() string {
	return s.publicKey
}

// Subscribe stores a browser's push subscription.
func (s *Service) Subscribe(ctx context.Context, sub Subscription) error {
	if sub.Endpoint == "" || sub.Keys.P256dh == "" || sub.Keys.Auth == "" {
		return fmt.Errorf("incomplete subscription")
	}
	return s.store.Save(ctx, sub)
}

// Unsubscribe removes a subscription by endpoint.
func (s *Service) Unsubscribe(ctx context.Context, endpoint string) error {
	return s.store.Remove(ctx, endpoint)
}

// Broadcast sends one message to every subscription. Returns the number of
// successful deliveries.
func (s *Service) Broadcast(ctx context.Context, msg Message) (int, error) {
	log := s.logger.WithContext(ctx).WithComponent("push")

	if !s.enabled {
		log.Debug("push notifications disabled, skipping broadcast")
		return 0, nil
	}

	subs, err := s.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load subscriptions: %w", err)
	}

	if len(subs) == 0 {
		return 0, nil
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return 0, fmt.Errorf("failed to encode push payload: %w", err)
	}

	var sent int
	for _, sub := range subs {
		result := s.send(ctx, sub, payload)
		if result.Success {
			sent++
			continue
		}

		if result.Gone {
			// The push service forgot this browser; drop our reference too.
			if err := s.store.Remove(ctx, sub.Endpoint); err != nil {
				log.Warn("failed to prune dead subscription", slog.String("error", err.Error()))
			}
			continue
		}

		log.Warn("push delivery failed",
			slog.String("endpoint", sub.Endpoint),
			slog.String("error", result.Error))
	}

	log.Info("push broadcast finished",
		slog.String("title", msg.Title),
		slog.Int("subscriptions", len(subs)),
		slog.Int("delivered", sent))

	return sent, nil
}

// send delivers one payload to one subscription.
func (s *Service) send(ctx context.Context, sub Subscription, payload []byte) SendResult {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.Keys.P256dh,
			Auth:   sub.Keys.Auth,
		},
	}, &webpush.Options{
		Subscriber:      s.subscriber,
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
		TTL:             3600,
	})
	if err != nil {
		return SendResult{Endpoint: sub.Endpoint, Error: err.Error()}
	}
	defer resp.Body.Close() //nolint:errcheck

	switch {
	case resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusOK:
		return SendResult{Endpoint: sub.Endpoint, Success: true}
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return SendResult{Endpoint: sub.Endpoint, Gone: true, Error: resp.Status}
	default:
		return SendResult{Endpoint: sub.Endpoint, Error: resp.Status}
	}
}
