package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"kt-assistant-be/internal/constant"
	"kt-assistant-be/internal/dto"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingIndexer struct {
	mu           sync.Mutex
	indexedPairs [][2]string
	pendingCalls int
}

func (r *recordingIndexer) IndexTopic(ctx context.Context, sessionId uuid.UUID, topicId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.indexedPairs = append(r.indexedPairs, [2]string{sessionId.String(), topicId})
	return nil
}

func (r *recordingIndexer) IndexPending(ctx context.Context, sessionId uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pendingCalls++
	return nil
}

func (r *recordingIndexer) snapshot() ([][2]string, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pairs := append([][2]string{}, r.indexedPairs...)
	return pairs, r.pendingCalls
}

func TestConsumerDrivesIndexerFromEvents(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	indexer := &recordingIndexer{}
	consumer := NewConsumerService(pubSub, indexer, nopLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, consumer.Consume(ctx))

	publisher := NewPublisherService(pubSub)

	sessionId := uuid.New()
	payload, err := json.Marshal(dto.TopicCompletedEvent{SessionId: sessionId, TopicId: "t2", FactVersion: 1})
	require.NoError(t, err)
	require.NoError(t, publisher.Publish(ctx, constant.EventTopicCompleted, payload))

	assert.Eventually(t, func() bool {
		pairs, pending := indexer.snapshot()
		return len(pairs) == 1 && pending == 1
	}, 2*time.Second, 10*time.Millisecond)

	pairs, _ := indexer.snapshot()
	assert.Equal(t, sessionId.String(), pairs[0][0])
	assert.Equal(t, "t2", pairs[0][1])
}

func TestConsumerSessionCompletedTriggersFullDrain(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	indexer := &recordingIndexer{}
	consumer := NewConsumerService(pubSub, indexer, nopLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, consumer.Consume(ctx))

	publisher := NewPublisherService(pubSub)

	payload, err := json.Marshal(dto.SessionCompletedEvent{SessionId: uuid.New()})
	require.NoError(t, err)
	require.NoError(t, publisher.Publish(ctx, constant.EventSessionCompleted, payload))

	assert.Eventually(t, func() bool {
		_, pending := indexer.snapshot()
		return pending == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestConsumerIgnoresMalformedEvents(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	indexer := &recordingIndexer{}
	consumer := NewConsumerService(pubSub, indexer, nopLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, consumer.Consume(ctx))

	publisher := NewPublisherService(pubSub)
	require.NoError(t, publisher.Publish(ctx, constant.EventTopicCompleted, []byte("not json")))

	// A valid event after the garbage one still gets through.
	payload, _ := json.Marshal(dto.TopicCompletedEvent{SessionId: uuid.New(), TopicId: "t1"})
	require.NoError(t, publisher.Publish(ctx, constant.EventTopicCompleted, payload))

	assert.Eventually(t, func() bool {
		pairs, _ := indexer.snapshot()
		return len(pairs) == 1
	}, 2*time.Second, 10*time.Millisecond)
}
