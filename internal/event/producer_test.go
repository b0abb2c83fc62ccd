package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/readrate/internal/domain"
	pkgkafka "github.com/utafrali/readrate/pkg/kafka"
	"github.com/utafrali/readrate/pkg/logger"
)

type published struct {
	topic string
	event *pkgkafka.Event
}

type fakePublisher struct {
	sent []published
	err  error
}

func (f *fakePublisher) Publish(_ context.Context, topic string, evt *pkgkafka.Event) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{topic, evt})
	return nil
}

var fixedNow = time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

func newTestProducer() (*Producer, *fakePublisher) {
	fp := &fakePublisher{}
	return NewProducer(fp, func() time.Time { return fixedNow }, logger.Discard()), fp
}

func TestProducer_ReviewCreated(t *testing.T) {
	p, fp := newTestProducer()
	ctx := logger.WithCorrelationID(context.Background(), "corr-1")
	rv := &domain.Review{ID: "r1", UserID: "u1", BookID: "b1", Rating: 4, Date: fixedNow}

	require.NoError(t, p.ReviewCreated(ctx, rv, domain.Aggregate{ReviewCount: 2, AverageRating: 4.5}))

	require.Len(t, fp.sent, 1)
	assert.Equal(t, "readrate.review.created", fp.sent[0].topic)
	evt := fp.sent[0].event
	assert.Equal(t, "b1", evt.AggregateID)
	assert.Equal(t, AggregateTypeBook, evt.AggregateType)
	assert.Equal(t, "corr-1", evt.CorrelationID)
	assert.Equal(t, fixedNow, evt.Timestamp)

	var data ReviewData
	require.NoError(t, evt.UnmarshalData(&data))
	assert.Equal(t, "r1", data.ReviewID)
	assert.Equal(t, 4, data.Rating)
	assert.Equal(t, 2, data.ReviewCount)
	assert.Equal(t, 4.5, data.AverageRating)
}

func TestProducer_ReviewUpdatedAndDeleted(t *testing.T) {
	p, fp := newTestProducer()
	ctx := context.Background()

	require.NoError(t, p.ReviewUpdated(ctx, &domain.Review{UserID: "u1", BookID: "b1", Rating: 3}, domain.Aggregate{ReviewCount: 1, AverageRating: 3}))
	require.NoError(t, p.ReviewDeleted(ctx, "u1", "b1", domain.Aggregate{}))

	require.Len(t, fp.sent, 2)
	assert.Equal(t, TopicReviewUpdated, fp.sent[0].topic)
	assert.Equal(t, TopicReviewDeleted, fp.sent[1].topic)

	var data ReviewData
	require.NoError(t, fp.sent[1].event.UnmarshalData(&data))
	assert.Equal(t, "b1", data.BookID)
	assert.Zero(t, data.ReviewCount)
}

func TestProducer_UserDeleted(t *testing.T) {
	p, fp := newTestProducer()

	require.NoError(t, p.UserDeleted(context.Background(), "u1", 0, nil))

	require.Len(t, fp.sent, 1)
	assert.Equal(t, "readrate.user.deleted", fp.sent[0].topic)
	assert.Equal(t, "u1", fp.sent[0].event.AggregateID)
	assert.Contains(t, string(fp.sent[0].event.Data), `"books_affected":[]`)
}

func TestProducer_PublishError(t *testing.T) {
	p, fp := newTestProducer()
	fp.err = errors.New("broker down")

	err := p.ReviewDeleted(context.Background(), "u1", "b1", domain.Aggregate{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "readrate.review.deleted")
}
