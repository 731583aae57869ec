package service

import (
	"context"
	"encoding/json"

	"kt-assistant-be/internal/constant"
	"kt-assistant-be/internal/dto"
	"kt-assistant-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drives the async indexer off the in-process event bus.
type consumerService struct {
	pubSub    *gochannel.GoChannel
	indexer   IIndexerService
	sysLogger logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	indexer IIndexerService,
	sysLogger logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:    pubSub,
		indexer:   indexer,
		sysLogger: sysLogger,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	topicMessages, err := cs.pubSub.Subscribe(ctx, constant.EventTopicCompleted)
	if err != nil {
		return err
	}
	sessionMessages, err := cs.pubSub.Subscribe(ctx, constant.EventSessionCompleted)
	if err != nil {
		return err
	}

	go func() {
		for msg := range topicMessages {
			cs.processTopicCompleted(ctx, msg)
		}
	}()
	go func() {
		for msg := range sessionMessages {
			cs.processSessionCompleted(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processTopicCompleted(ctx context.Context, msg *message.Message) {
	var payload dto.TopicCompletedEvent
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.sysLogger.Error("consumer", "failed to unmarshal topic event", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	if err := cs.indexer.IndexTopic(ctx, payload.SessionId, payload.TopicId); err != nil {
		cs.sysLogger.Error("consumer", "indexing failed, topic stays pending", map[string]interface{}{
			"session_id": payload.SessionId.String(),
			"topic_id":   payload.TopicId,
			"error":      err.Error(),
		})
		// The topic stays unindexed; the next event drains it via IndexPending.
		msg.Ack()
		return
	}

	// Each successful event also retries earlier failures for the session.
	if err := cs.indexer.IndexPending(ctx, payload.SessionId); err != nil {
		cs.sysLogger.Warn("consumer", "pending re-index incomplete", map[string]interface{}{
			"session_id": payload.SessionId.String(),
			"error":      err.Error(),
		})
	}

	msg.Ack()
}

func (cs *consumerService) processSessionCompleted(ctx context.Context, msg *message.Message) {
	var payload dto.SessionCompletedEvent
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.sysLogger.Error("consumer", "failed to unmarshal session event", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack()
		return
	}

	if err := cs.indexer.IndexPending(ctx, payload.SessionId); err != nil {
		cs.sysLogger.Error("consumer", "final session indexing incomplete", map[string]interface{}{
			"session_id": payload.SessionId.String(),
			"error":      err.Error(),
		})
	}

	msg.Ack()
}
