package push

import "time"

// SubscriptionKeys is the browser-generated key material of a push
// subscription: the client's P-256 ECDH public key and auth secret.
type SubscriptionKeys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// Subscription is one browser instance's push endpoint. The endpoint URL is
// owned by the browser's push service; we hold only the reference.
type Subscription struct {
	ID        string           `json:"id,omitempty"`
	Endpoint  string           `json:"endpoint"`
	Keys      SubscriptionKeys `json:"keys"`
	CreatedAt time.Time        `json:"created_at,omitempty"`
}

// Message is the payload a subscribed service worker displays as a system
// notification. URL, when present, is opened on notification click.
type Message struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Icon  string `json:"icon,omitempty"`
	Badge string `json:"badge,omitempty"`
	URL   string `json:"url,omitempty"`
}

// SendResult reports one delivery attempt.
type SendResult struct {
	Endpoint string
	Success  bool
	Gone     bool // the push service no longer knows the subscription
	Error    string
}
