package service

import (
	"context"
	"encoding/json"

	"ai-dataviz-be/internal/dto"
	"ai-dataviz-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// RealtimeDelivery pushes a typed event to every open connection of a user.
// Implemented by the WebSocket hub.
type RealtimeDelivery interface {
	SendEvent(userID uuid.UUID, eventType string, data interface{})
}

const eventVisualizationUpdated = "visualization_updated"

type RealtimeService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	delivery  RealtimeDelivery
	logger    logger.ILogger
}

func NewRealtimeService(pubSub *gochannel.GoChannel, topicName string, delivery RealtimeDelivery, log logger.ILogger) *RealtimeService {
	return &RealtimeService{
		pubSub:    pubSub,
		topicName: topicName,
		delivery:  delivery,
		logger:    log,
	}
}

// Start forwards visualization updates to the owner's open panels, so the
// result of an abandoned request still shows up.
func (s *RealtimeService) Start(ctx context.Context) error {
	messages, err := s.pubSub.Subscribe(ctx, s.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			s.handle(msg)
		}
	}()
	return nil
}

func (s *RealtimeService) handle(msg *message.Message) {
	defer msg.Ack()

	var payload dto.VisualizationUpdatedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		s.logger.Warn("Realtime", "Dropping malformed visualization update", map[string]interface{}{"error": err.Error()})
		return
	}
	s.delivery.SendEvent(payload.UserId, eventVisualizationUpdated, payload)
}
