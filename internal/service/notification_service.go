package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/asset-tracker/internal/config"
	"github.com/spec-kit/asset-tracker/internal/events"
)

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     loggerOrNop(logger),
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventAssetIssued, n.handleTransition)
	n.dispatcher.Subscribe(events.EventAssetReturned, n.handleTransition)
	n.dispatcher.Subscribe(events.EventAssetScrapped, n.handleTransition)
	n.dispatcher.Subscribe(events.EventAssetRequestCreated, n.handleRequestCreated)
	n.dispatcher.Subscribe(events.EventAssetRequestReviewed, n.handleRequestReviewed)
}

func (n *NotificationService) handleTransition(ctx context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.TransitionPayload)
	n.logger.Info("AssetTransition",
		zap.String("asset_id", event.SubjectID),
		zap.String("action", string(payload.Action)),
		zap.String("to", string(payload.ToStatus)),
	)
	if payload.EmployeeID != nil {
		n.sendEmailNotificationStub(ctx, event, *payload.EmployeeID)
	}
	return nil
}

func (n *NotificationService) handleRequestCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("AssetRequestCreated", zap.String("request_id", event.SubjectID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleRequestReviewed(ctx context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.RequestReviewedPayload)
	n.logger.Info("AssetRequestReviewed",
		zap.String("request_id", event.SubjectID),
		zap.String("status", string(payload.Status)),
	)
	n.sendEmailNotificationStub(ctx, event, payload.RequestedBy)
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, event events.Event, recipientID string) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("recipient_id", recipientID),
		zap.String("subject_id", event.SubjectID),
		zap.String("event_type", string(event.Type)))
}
