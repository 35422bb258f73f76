package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/semprecheio/auth-api/internal/config"
	"github.com/semprecheio/auth-api/internal/events"
)

// NotificationService audits auth events and forwards security-relevant ones to a webhook.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
	client     *resty.Client
	async      bool
	inflight   sync.WaitGroup
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	client := resty.New().
		SetTimeout(cfg.Timeout()).
		SetHeader("Content-Type", "application/json")

	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
		client:     client,
		async:      true,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	for _, eventType := range []events.EventType{
		events.EventLoginSucceeded,
		events.EventLogout,
		events.EventAccountCreated,
	} {
		n.dispatcher.Subscribe(eventType, n.handleAudit)
	}
	n.dispatcher.Subscribe(events.EventLoginFailed, n.handleSecurityAlert)
	n.dispatcher.Subscribe(events.EventPasswordChanged, n.handleSecurityAlert)
	n.dispatcher.Subscribe(events.EventAccountStatusChanged, n.handleSecurityAlert)
}

// Wait blocks until in-flight webhook deliveries finish.
func (n *NotificationService) Wait() {
	n.inflight.Wait()
}

func (n *NotificationService) handleAudit(_ context.Context, event events.Event) error {
	n.logger.Info("auth event",
		zap.String("event_id", event.ID),
		zap.String("type", string(event.Type)),
		zap.String("account_id", event.AccountID),
		zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleSecurityAlert(ctx context.Context, event events.Event) error {
	_ = n.handleAudit(ctx, event)
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return nil
	}

	if !n.async {
		return n.sendWebhook(ctx, event)
	}

	// Delivery must not hold up or fail the originating request.
	n.inflight.Add(1)
	go func() {
		defer n.inflight.Done()
		if err := n.sendWebhook(context.WithoutCancel(ctx), event); err != nil {
			n.logger.Warn("webhook delivery failed", zap.String("event_id", event.ID), zap.Error(err))
		}
	}()
	return nil
}

func (n *NotificationService) sendWebhook(ctx context.Context, event events.Event) error {
	resp, err := n.client.R().
		SetContext(ctx).
		SetBody(event).
		Post(n.cfg.WebhookURL)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("webhook responded %d", resp.StatusCode())
	}
	n.logger.Debug("webhook delivered",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.Int("status", resp.StatusCode()))
	return nil
}
