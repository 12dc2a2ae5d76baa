package push

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dukerupert/savesmart/internal/model"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// ErrExpired is returned when a push subscription is no longer valid.
var ErrExpired = errors.New("push subscription expired")

// Payload is the JSON sent to the push service. Tag doubles as the push
// Topic, so a newer message with the same tag replaces an undelivered one.
type Payload struct {
	Title   string          `json:"title"`
	Body    string          `json:"body"`
	URL     string          `json:"url,omitempty"`
	Tag     string          `json:"tag,omitempty"`
	Data    any             `json:"data,omitempty"`
	Urgency webpush.Urgency `json:"-"`
}

// maxTopicLen is the longest Topic header push services accept.
const maxTopicLen = 32

// Subscriber identifies the sender to push services.
const Subscriber = "mailto:noreply@savesmart.my"

// Service handles sending web push notifications.
type Service struct {
	publicKey  string
	privateKey string
	ttl        int
}

// NewService creates a new push service with VAPID keys.
func NewService(publicKey, privateKey string) *Service {
	return &Service{
		publicKey:  publicKey,
		privateKey: privateKey,
		ttl:        86400,
	}
}

// Enabled reports whether both VAPID keys are set.
func (s *Service) Enabled() bool {
	return s != nil && s.publicKey != "" && s.privateKey != ""
}

// VAPIDPublicKey returns the VAPID public key for client-side subscription.
func (s *Service) VAPIDPublicKey() string {
	return s.publicKey
}

// Send sends a push notification to a subscription. A 404 or 410 from the
// push service yields ErrExpired.
func (s *Service) Send(sub *model.PushSubscription, payload Payload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	resp, err := webpush.SendNotification(data, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dhKey,
			Auth:   sub.AuthKey,
		},
	}, &webpush.Options{
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
		Subscriber:      Subscriber,
		TTL:             s.ttl,
		Topic:           topic(payload.Tag),
		Urgency:         urgency(payload.Urgency),
	})
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound {
		return ErrExpired
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("push service returned %d", resp.StatusCode)
	}

	return nil
}

// topic returns tag when it is a valid Topic header value, otherwise "".
func topic(tag string) string {
	if tag == "" || len(tag) > maxTopicLen {
		return ""
	}
	for _, c := range tag {
		ok := c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '-' || c == '_'
		if !ok {
			return ""
		}
	}
	return tag
}

func urgency(u webpush.Urgency) webpush.Urgency {
	if u == "" {
		return webpush.UrgencyNormal
	}
	return u
}

// GenerateVAPIDKeys generates a new ECDSA P-256 key pair for VAPID.
func GenerateVAPIDKeys() (publicKey, privateKey string, err error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return "", "", fmt.Errorf("generate ECDSA key: %w", err)
	}

	pubBytes := elliptic.Marshal(elliptic.P256(), key.PublicKey.X, key.PublicKey.Y)
	publicKey = base64.RawURLEncoding.EncodeToString(pubBytes)
	privateKey = base64.RawURLEncoding.EncodeToString(key.D.FillBytes(make([]byte, 32)))

	return publicKey, privateKey, nil
}
