package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/utafrali/readrate/internal/domain"
	pkgkafka "github.com/utafrali/readrate/pkg/kafka"
	"github.com/utafrali/readrate/pkg/logger"
)

// Kafka topics for review and account events.
var (
	TopicReviewCreated = pkgkafka.Topic("review", "created")
	TopicReviewUpdated = pkgkafka.Topic("review", "updated")
	TopicReviewDeleted = pkgkafka.Topic("review", "deleted")
	TopicUserDeleted   = pkgkafka.Topic("user", "deleted")
)

// Aggregate types.
const (
	AggregateTypeBook = "book"
	AggregateTypeUser = "user"
)

// Source identifies this service in event envelopes.
const Source = "readrate"

// ReviewData is the payload of review.created, review.updated and
// review.deleted. It carries the book aggregates after the change so
// consumers need not query the catalogue.
type ReviewData struct {
	ReviewID      string    `json:"review_id,omitempty"`
	UserID        string    `json:"user_id"`
	BookID        string    `json:"book_id"`
	Rating        int       `json:"rating,omitempty"`
	Date          time.Time `json:"date,omitzero"`
	ReviewCount   int       `json:"review_count"`
	AverageRating float64   `json:"average_rating"`
}

// UserDeletedData is the payload of user.deleted.
type UserDeletedData struct {
	UserID         string   `json:"user_id"`
	ReviewsRemoved int      `json:"reviews_removed"`
	BooksAffected  []string `json:"books_affected"`
}

// Publisher is the part of *pkgkafka.Producer used here.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes domain events. Review events are keyed by book id so
// all changes to one book stay ordered within a partition.
type Producer struct {
	kafka  Publisher
	now    func() time.Time
	logger *slog.Logger
}

// NewProducer creates an event producer.
func NewProducer(kafka Publisher, now func() time.Time, logger *slog.Logger) *Producer {
	if now == nil {
		now = time.Now
	}
	return &Producer{kafka: kafka, now: now, logger: logger}
}

// ReviewCreated publishes review.created.
func (p *Producer) ReviewCreated(ctx context.Context, rv *domain.Review, agg domain.Aggregate) error {
	return p.publishReview(ctx, TopicReviewCreated, reviewData(rv, agg))
}

// ReviewUpdated publishes review.updated.
func (p *Producer) ReviewUpdated(ctx context.Context, rv *domain.Review, agg domain.Aggregate) error {
	return p.publishReview(ctx, TopicReviewUpdated, reviewData(rv, agg))
}

// ReviewDeleted publishes review.deleted.
func (p *Producer) ReviewDeleted(ctx context.Context, userID, bookID string, agg domain.Aggregate) error {
	return p.publishReview(ctx, TopicReviewDeleted, ReviewData{
		UserID:        userID,
		BookID:        bookID,
		ReviewCount:   agg.ReviewCount,
		AverageRating: agg.AverageRating,
	})
}

// UserDeleted publishes user.deleted.
func (p *Producer) UserDeleted(ctx context.Context, userID string, removed int, books []string) error {
	if books == nil {
		books = []string{}
	}
	data := UserDeletedData{UserID: userID, ReviewsRemoved: removed, BooksAffected: books}
	return p.publish(ctx, TopicUserDeleted, userID, AggregateTypeUser, data)
}

func (p *Producer) publishReview(ctx context.Context, topic string, data ReviewData) error {
	return p.publish(ctx, topic, data.BookID, AggregateTypeBook, data)
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	evt, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, Source, data, p.now())
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	evt.WithCorrelationID(logger.CorrelationIDFromContext(ctx))

	if err := p.kafka.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}

func reviewData(rv *domain.Review, agg domain.Aggregate) ReviewData {
	return ReviewData{
		ReviewID:      rv.ID,
		UserID:        rv.UserID,
		BookID:        rv.BookID,
		Rating:        rv.Rating,
		Date:          rv.Date,
		ReviewCount:   agg.ReviewCount,
		AverageRating: agg.AverageRating,
	}
}
