package finder

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPrompter struct {
	granted bool
	err     error
	calls   int
}

func (p *stubPrompter) RequestPermission(ctx context.Context) (bool, error) {
	p.calls++
	return p.granted, p.err
}

type stubRegistry struct {
	err   error
	calls int
}

func (r *stubRegistry) Register(ctx context.Context, scriptPath string) (*Registration, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return &Registration{
		ScriptPath:   scriptPath,
		PushEndpoint: fmt.Sprintf("https://push.example.com/reg-%d", r.calls),
	}, nil
}

func keyServer(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, err := w.Write([]byte(`"test-vapid-public-key"`))
		require.NoError(t, err)
	}))
}

func TestIsSupported(t *testing.T) {
	assert.True(t, NewSubscriber(&stubPrompter{}, &stubRegistry{}).IsSupported())
	assert.False(t, NewSubscriber(nil, &stubRegistry{}).IsSupported())
	assert.False(t, NewSubscriber(&stubPrompter{}, nil).IsSupported())
	assert.False(t, NewSubscriber(nil, nil).IsSupported())
}

func TestSubscribeUnsupportedDoesNotPrompt(t *testing.T) {
	prompter := &stubPrompter{granted: true}
	subscriber := NewSubscriber(prompter, nil)

	sub := subscriber.Subscribe(context.Background(), "http://unused")

	assert.Nil(t, sub)
	assert.Zero(t, prompter.calls, "an unsupported environment must not prompt the user")
}

func TestRequestPermissionDenied(t *testing.T) {
	subscriber := NewSubscriber(&stubPrompter{granted: false}, &stubRegistry{})
	assert.False(t, subscriber.RequestPermission(context.Background()))
}

func TestRequestPermissionErrorIsSoft(t *testing.T) {
	subscriber := NewSubscriber(&stubPrompter{err: errors.New("prompt broken")}, &stubRegistry{})
	assert.False(t, subscriber.RequestPermission(context.Background()))
}

func TestRegisterWorkerIdempotent(t *testing.T) {
	registry := &stubRegistry{}
	subscriber := NewSubscriber(&stubPrompter{granted: true}, registry)

	first := subscriber.RegisterWorker(context.Background())
	second := subscriber.RegisterWorker(context.Background())

	require.NotNil(t, first)
	assert.Same(t, first, second)
	assert.Equal(t, 1, registry.calls, "repeat registration must reuse the existing worker")
	assert.Equal(t, WorkerScriptPath, first.ScriptPath)
}

func TestRegisterWorkerFailureReturnsNil(t *testing.T) {
	subscriber := NewSubscriber(&stubPrompter{granted: true}, &stubRegistry{err: errors.New("install failed")})
	assert.Nil(t, subscriber.RegisterWorker(context.Background()))
}

func TestSubscribeHappyPath(t *testing.T) {
	srv := keyServer(t)
	defer srv.Close()

	subscriber := NewSubscriber(&stubPrompter{granted: true}, &stubRegistry{})

	sub := subscriber.Subscribe(context.Background(), srv.URL)
	require.NotNil(t, sub)

	assert.NotEmpty(t, sub.Endpoint)
	assert.Equal(t, "test-vapid-public-key", sub.ServerKey)

	// p256dh must be a 65-byte uncompressed P-256 point, auth a 16-byte secret.
	p256dh, err := base64.RawURLEncoding.DecodeString(sub.Keys.P256dh)
	require.NoError(t, err)
	assert.Len(t, p256dh, 65)

	auth, err := base64.RawURLEncoding.DecodeString(sub.Keys.Auth)
	require.NoError(t, err)
	assert.Len(t, auth, 16)
}

func TestSubscriptionWireFormat(t *testing.T) {
	sub := Subscription{
		Endpoint:  "https://push.example.com/abc",
		Keys:      SubscriptionKeys{P256dh: "point", Auth: "secret"},
		ServerKey: "server-public-key",
	}

	payload, err := json.Marshal(sub)
	require.NoError(t, err)

	// The backend owns its VAPID key; only endpoint and client keys go over
	// the wire, matching a browser PushSubscription.
	assert.JSONEq(t, `{"endpoint":"https://push.example.com/abc","keys":{"p256dh":"point","auth":"secret"}}`, string(payload))
}

func TestSubscribeReusesExistingSubscription(t *testing.T) {
	srv := keyServer(t)
	defer srv.Close()

	subscriber := NewSubscriber(&stubPrompter{granted: true}, &stubRegistry{})

	first := subscriber.Subscribe(context.Background(), srv.URL)
	second := subscriber.Subscribe(context.Background(), srv.URL)

	require.NotNil(t, first)
	assert.Same(t, first, second)
}

func TestSubscribePermissionDeniedReturnsNil(t *testing.T) {
	srv := keyServer(t)
	defer srv.Close()

	registry := &stubRegistry{}
	subscriber := NewSubscriber(&stubPrompter{granted: false}, registry)

	sub := subscriber.Subscribe(context.Background(), srv.URL)

	assert.Nil(t, sub)
	assert.Zero(t, registry.calls, "a denied permission must stop before worker registration")
}

func TestSubscribeKeyEndpointFailureIsSoft(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	subscriber := NewSubscriber(&stubPrompter{granted: true}, &stubRegistry{})

	assert.Nil(t, subscriber.Subscribe(context.Background(), srv.URL))
}
