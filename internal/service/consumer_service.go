package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ai-dataviz-be/internal/dto"
	"ai-dataviz-be/internal/entity"
	"ai-dataviz-be/internal/pkg/apperror"
	"ai-dataviz-be/internal/pkg/logger"
	"ai-dataviz-be/internal/repository/unitofwork"
	"ai-dataviz-be/pkg/blob"
	"ai-dataviz-be/pkg/raster"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService is the artifact archive worker: it copies rendered rasters
// to the blob store and records the signed URLs on the session.
type consumerService struct {
	pubSub     *gochannel.GoChannel
	topicName  string
	uowFactory unitofwork.RepositoryFactory
	store      blob.Store
	urlExpiry  time.Duration
	logger     logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	store blob.Store,
	urlExpiry time.Duration,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:     pubSub,
		topicName:  topicName,
		uowFactory: uowFactory,
		store:      store,
		urlExpiry:  urlExpiry,
		logger:     log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.VisualizationUpdatedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("ARCHIVE", "Failed to unmarshal message", map[string]interface{}{"error": err.Error()})
		msg.Ack() // invalid payloads are never retried
		return
	}

	if err := cs.Archive(ctx, payload); err != nil {
		cs.logger.Error("ARCHIVE", "Failed to archive visualization", map[string]interface{}{
			"session_id":       payload.SessionId.String(),
			"visualization_id": payload.VisualizationId.String(),
			"entry_id":         payload.EntryId,
			"error":            err.Error(),
		})
	}
	// Archive failures never touch the live artifact; drop instead of redelivering.
	msg.Ack()
}

// Archive stores the raster of one history entry, or the live raster when
// EntryId is empty. Archiving the newest entry also refreshes the top-level URLs.
func (cs *consumerService) Archive(ctx context.Context, payload dto.VisualizationUpdatedMessage) error {
	session, err := loadSession(ctx, cs.uowFactory.NewUnitOfWork(ctx), uuid.Nil, payload.SessionId)
	if err != nil {
		return err
	}
	_, viz := session.FindVisualization(payload.Question)
	if viz == nil {
		return apperror.NotFound("Visualization")
	}

	rasterB64 := viz.Raster
	objectId := viz.Id.String()
	if payload.EntryId != "" {
		entry, ok := viz.FindEntry(payload.EntryId)
		if !ok {
			return apperror.NotFound("History entry")
		}
		rasterB64 = entry.Raster
		objectId = payload.EntryId
	}

	png, err := raster.DecodeBase64(rasterB64)
	if err != nil {
		return err
	}
	thumb, err := raster.Thumbnail(png, raster.ThumbnailWidth)
	if err != nil {
		return err
	}

	imageName := fmt.Sprintf("visualizations/%s/%s.png", payload.SessionId, objectId)
	thumbName := fmt.Sprintf("visualizations/%s/%s_thumb.png", payload.SessionId, objectId)

	if err := cs.store.Put(ctx, imageName, bytes.NewReader(png), "image/png"); err != nil {
		return err
	}
	if err := cs.store.Put(ctx, thumbName, bytes.NewReader(thumb), "image/png"); err != nil {
		return err
	}

	imageUrl, err := cs.store.SignedURL(imageName, cs.urlExpiry)
	if err != nil {
		return err
	}
	thumbUrl, err := cs.store.SignedURL(thumbName, cs.urlExpiry)
	if err != nil {
		return err
	}

	_, err = mutateSession(ctx, cs.uowFactory, uuid.Nil, payload.SessionId, func(_ context.Context, _ unitofwork.UnitOfWork, session *entity.Session) error {
		_, viz := session.FindVisualization(payload.Question)
		if viz == nil {
			return errNoChange
		}
		// Top-level URLs always point at the live artifact.
		history := viz.ModificationHistory
		if payload.EntryId == "" {
			viz.ImageUrl = imageUrl
			viz.ThumbnailUrl = thumbUrl
			return nil
		}
		entry, ok := viz.FindEntry(payload.EntryId)
		if !ok {
			return errNoChange
		}
		entry.ImageUrl = imageUrl
		entry.ThumbnailUrl = thumbUrl
		if history[len(history)-1].Id == payload.EntryId {
			viz.ImageUrl = imageUrl
			viz.ThumbnailUrl = thumbUrl
		}
		return nil
	})
	if err != nil {
		return err
	}

	cs.logger.Info("ARCHIVE", "Visualization archived", map[string]interface{}{
		"session_id": payload.SessionId.String(),
		"object":     imageName,
	})
	return nil
}
