package service

import (
	"context"

	"github.com/utafrali/readrate/internal/domain"
)

// EventPublisher receives committed ledger and account changes. It is
// implemented by *event.Producer.
type EventPublisher interface {
	ReviewCreated(ctx context.Context, rv *domain.Review, agg domain.Aggregate) error
	ReviewUpdated(ctx context.Context, rv *domain.Review, agg domain.Aggregate) error
	ReviewDeleted(ctx context.Context, userID, bookID string, agg domain.Aggregate) error
	UserDeleted(ctx context.Context, userID string, removed int, books []string) error
}

// NoopPublisher drops every event. It is used when Kafka is disabled.
type NoopPublisher struct{}

func (NoopPublisher) ReviewCreated(context.Context, *domain.Review, domain.Aggregate) error {
	return nil
}

func (NoopPublisher) ReviewUpdated(context.Context, *domain.Review, domain.Aggregate) error {
	return nil
}

func (NoopPublisher) ReviewDeleted(context.Context, string, string, domain.Aggregate) error {
	return nil
}

func (NoopPublisher) UserDeleted(context.Context, string, int, []string) error { return nil }
