package ports

import "context"

var (
	_ AttemptLimiter = NoopLimiter{}
	_ EventPublisher = NoopPublisher{}
)

// NoopLimiter never limits
type NoopLimiter struct{}

func (NoopLimiter) Allow(context.Context, string) (bool, error) { return true, nil }
func (NoopLimiter) RecordFailure(context.Context, string) error { return nil }
func (NoopLimiter) Reset(context.Context, string) error { return nil }

// NoopPublisher drops every event
type NoopPublisher struct{}

func (NoopPublisher) PublishLogin(context.Context, string, string) error { return nil }
func (NoopPublisher) PublishRefresh(context.Context, string) error { return nil }
func (NoopPublisher) PublishLogout(context.Context, string) error { return nil }
