package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/layer-3/walletauth/ports"
)

const (
	TopicLogin   = "auth.login"
	TopicRefresh = "auth.refresh"
	TopicLogout  = "auth.logout"
)

// AuthEvent is the payload of every authentication event
type AuthEvent struct {
	UserID        string    `json:"user_id"`
	WalletAddress string    `json:"wallet_address,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

var _ ports.EventPublisher = (*WatermillPublisher)(nil)

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
	now       func() time.Time
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) *WatermillPublisher {
	return &WatermillPublisher{
		publisher: publisher,
		now:       time.Now,
	}
}

// PublishLogin publishes a successful signature verification
func (p *WatermillPublisher) PublishLogin(ctx context.Context, userID, address string) error {
	return p.publish(ctx, TopicLogin, AuthEvent{UserID: userID, WalletAddress: address})
}

// PublishRefresh publishes a refresh token rotation
func (p *WatermillPublisher) PublishRefresh(ctx context.Context, userID string) error {
	return p.publish(ctx, TopicRefresh, AuthEvent{UserID: userID})
}

// PublishLogout publishes a refresh token invalidation
func (p *WatermillPublisher) PublishLogout(ctx context.Context, userID string) error {
	return p.publish(ctx, TopicLogout, AuthEvent{UserID: userID})
}

func (p *WatermillPublisher) publish(ctx context.Context, topic string, event AuthEvent) error {
	event.OccurredAt = p.now().UTC()

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// Close closes the underlying publisher
func (p *WatermillPublisher) Close() error {
	return p.publisher.Close()
}
