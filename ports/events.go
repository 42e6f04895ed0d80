package ports

import "context"

// EventPublisher publishes authentication events to other instances
type EventPublisher interface {
	PublishLogin(ctx context.Context, userID, address string) error
	PublishRefresh(ctx context.Context, userID string) error
	PublishLogout(ctx context.Context, userID string) error
}
