package service

import (
	"context"
	"fmt"

	"ai-dataviz-be/internal/entity"
	"ai-dataviz-be/internal/pkg/logger"
	"ai-dataviz-be/internal/pkg/mailer"
	"ai-dataviz-be/internal/repository/specification"
	"ai-dataviz-be/internal/repository/unitofwork"
	"ai-dataviz-be/pkg/events"
	pktNats "ai-dataviz-be/pkg/nats"

	"github.com/google/uuid"
)

// AlertService emails users whose balance drops under the threshold.
type AlertService struct {
	uowFactory unitofwork.RepositoryFactory
	subscriber *pktNats.Subscriber
	mailer     mailer.IEmailService
	threshold  int
	logger     logger.ILogger
}

func NewAlertService(uowFactory unitofwork.RepositoryFactory, sub *pktNats.Subscriber, emailService mailer.IEmailService, threshold int, log logger.ILogger) *AlertService {
	return &AlertService{
		uowFactory: uowFactory,
		subscriber: sub,
		mailer:     emailService,
		threshold:  threshold,
		logger:     log,
	}
}

func (s *AlertService) Start() {
	subject := "events." + events.CreditsAdjusted
	if err := s.subscriber.Subscribe(subject, "low-credit-alert-worker", s.HandleEvent); err != nil {
		s.logger.Error("AlertService", "Failed to start alert subscriber", map[string]interface{}{"error": err.Error()})
		return
	}
	s.logger.Info("AlertService", "Alert service started, listening to "+subject, nil)
}

func (s *AlertService) HandleEvent(ctx context.Context, event events.Event) error {
	if event.EventType() != events.CreditsAdjusted {
		return nil
	}

	payload := event.Payload()
	if action, _ := payload["action"].(string); action != string(entity.CreditActionDeduct) {
		return nil
	}

	// Alert once, on the debit that crosses the threshold.
	balance, ok := toInt(payload["balance"])
	amount, _ := toInt(payload["amount"])
	if !ok || balance >= s.threshold || balance+amount < s.threshold {
		return nil
	}

	rawId, _ := payload["user_id"].(string)
	userId, err := uuid.Parse(rawId)
	if err != nil {
		s.logger.Warn("AlertService", "Event without valid user_id", map[string]interface{}{"user_id": rawId})
		return nil
	}

	user, err := s.uowFactory.NewUnitOfWork(ctx).UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return err
	}
	if user == nil || user.Email == "" {
		return nil
	}

	if err := s.mailer.SendLowCreditAlert(user.Email, user.FullName, balance); err != nil {
		return fmt.Errorf("send low credit alert: %w", err)
	}
	s.logger.Info("AlertService", "Low credit alert sent", map[string]interface{}{
		"user_id": userId.String(),
		"balance": balance,
	})
	return nil
}

// toInt handles numbers decoded from JSON as float64.
func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
