package finder

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// WorkerScriptPath is the well-known path of the service worker script.
const WorkerScriptPath = "/service-worker.js"

// Registration is a handle to an installed service worker.
type Registration struct {
	ScriptPath string
	// PushEndpoint is the push-service URL messages for this worker are
	// delivered to.
	PushEndpoint string
}

// SubscriptionKeys is the client-generated key material of a subscription.
type SubscriptionKeys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// Subscription is the push-subscription handle. The endpoint is owned by the
// push service; the client holds only the reference.
type Subscription struct {
	Endpoint string           `json:"endpoint"`
	Keys     SubscriptionKeys `json:"keys"`
	// ServerKey is the VAPID public key the subscription was created
	// against. The backend already knows its own key, so it stays out of
	// the wire payload.
	ServerKey string `json:"-"`
}

// PermissionPrompter asks the user for notification permission.
type PermissionPrompter interface {
	RequestPermission(ctx context.Context) (bool, error)
}

// WorkerRegistry installs the service worker script and reports the push
// endpoint assigned to it. Register must be idempotent.
type WorkerRegistry interface {
	Register(ctx context.Context, scriptPath string) (*Registration, error)
}

// Subscriber runs the push-notification subscription handshake. Notifications
// are an optional enhancement, so every step degrades gracefully: failures
// log and return nil/false rather than propagating errors.
type Subscriber struct {
	prompter   PermissionPrompter
	registry   WorkerRegistry
	httpClient *http.Client

	mu           sync.Mutex
	registration *Registration
	subscription *Subscription
}

// NewSubscriber creates a subscriber. Either collaborator may be nil, which
// marks push notifications unsupported in this environment.
func NewSubscriber(prompter PermissionPrompter, registry WorkerRegistry) *Subscriber {
	return &Subscriber{
		prompter: prompter,
		registry: registry,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// IsSupported reports whether the environment can do push notifications.
// Pure capability check, no side effects.
func (s *Subscriber) IsSupported() bool {
	return s.prompter != nil && s.registry != nil
}

// RequestPermission prompts the user and reports whether they granted
// notifications. Returns false when unsupported or on any prompt error.
func (s *Subscriber) RequestPermission(ctx context.Context) bool {
	if !s.IsSupported() {
		slog.Warn("push notifications are not supported in this environment")
		return false
	}

	granted, err := s.prompter.RequestPermission(ctx)
	if err != nil {
		slog.Error("error requesting notification permission", "error", err)
		return false
	}

	return granted
}

// RegisterWorker installs the service worker at the well-known path. Safe to
// call repeatedly; an existing registration is returned as is. Returns nil on
// failure.
func (s *Subscriber) RegisterWorker(ctx context.Context) *Registration {
	if !s.IsSupported() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.registration != nil {
		return s.registration
	}

	registration, err := s.registry.Register(ctx, WorkerScriptPath)
	if err != nil {
		slog.Error("service worker registration failed", "error", err)
		return nil
	}

	s.registration = registration
	return registration
}

// Subscribe composes the handshake: permission, worker registration, and,
// when no subscription exists yet, fetching the server's public key from
// subscriptionURL and creating one. Returns nil at any failure point.
func (s *Subscriber) Subscribe(ctx context.Context, subscriptionURL string) *Subscription {
	if !s.RequestPermission(ctx) {
		slog.Warn("notification permission denied")
		return nil
	}

	registration := s.RegisterWorker(ctx)
	if registration == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.subscription != nil {
		return s.subscription
	}

	serverKey, err := s.fetchServerKey(ctx, subscriptionURL)
	if err != nil {
		slog.Error("error subscribing to push notifications", "error", err)
		return nil
	}

	keys, err := generateSubscriptionKeys()
	if err != nil {
		slog.Error("error subscribing to push notifications", "error", err)
		return nil
	}

	s.subscription = &Subscription{
		Endpoint:  registration.PushEndpoint,
		Keys:      keys,
		ServerKey: serverKey,
	}

	return s.subscription
}

// fetchServerKey retrieves the VAPID public key the push service will expect
// subscriptions to be bound to.
func (s *Subscriber) fetchServerKey(ctx context.Context, subscriptionURL string) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, "GET", subscriptionURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to fetch server key: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read server key: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("server key endpoint returned status %d", resp.StatusCode)
	}

	// The endpoint returns the key as a bare JSON string.
	var key string
	if err := json.Unmarshal(body, &key); err != nil {
		return "", fmt.Errorf("failed to parse server key: %w", err)
	}
	if key == "" {
		return "", fmt.Errorf("server key endpoint returned an empty key")
	}

	return key, nil
}

// generateSubscriptionKeys creates the client half of the push encryption:
// a P-256 ECDH key pair and a 16-byte auth secret, both base64url encoded the
// way push services expect them.
func generateSubscriptionKeys() (SubscriptionKeys, error) {
	private, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		return SubscriptionKeys{}, fmt.Errorf("failed to generate subscription key pair: %w", err)
	}

	auth := make([]byte, 16)
	if _, err := rand.Read(auth); err != nil {
		return SubscriptionKeys{}, fmt.Errorf("failed to generate auth secret: %w", err)
	}

	return SubscriptionKeys{
		P256dh: base64.RawURLEncoding.EncodeToString(private.PublicKey().Bytes()),
		Auth:   base64.RawURLEncoding.EncodeToString(auth),
	}, nil
}
