package service

import (
	"context"
	"log"

	"fleetquery-be/internal/pkg/logger"
	"fleetquery-be/pkg/events"
	"fleetquery-be/pkg/nats"
)

// IAuditService drains executed-query events off the bus into the audit
// log file.
type IAuditService interface {
	Start()
}

type auditService struct {
	subscriber *nats.Subscriber
	logger     logger.ILogger
}

func NewAuditService(subscriber *nats.Subscriber, auditLogger logger.ILogger) IAuditService {
	return &auditService{
		subscriber: subscriber,
		logger:     auditLogger,
	}
}

func (s *auditService) Start() {
	if s.subscriber == nil {
		log.Printf("[WARN] AuditService: no NATS subscriber, audit trail disabled")
		return
	}

	err := s.subscriber.Subscribe("audit."+events.QueryExecutedType, "audit-logger", func(ctx context.Context, event events.Event) error {
		s.logger.Info("audit", "query executed", event.Payload())
		return nil
	})
	if err != nil {
		log.Printf("[ERROR] AuditService: failed to subscribe: %v", err)
	}
}
