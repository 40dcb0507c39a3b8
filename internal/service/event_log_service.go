package service

import (
	"context"

	"voc-chatbot-be/internal/pkg/logger"
	"voc-chatbot-be/pkg/events"
	pktNats "voc-chatbot-be/pkg/nats"
)

// EventLogService mirrors every bus event into the structured log so
// escalations and case edits leave an audit trail.
type EventLogService struct {
	subscriber *pktNats.Subscriber
	logger     logger.ILogger
}

func NewEventLogService(sub *pktNats.Subscriber, appLogger logger.ILogger) *EventLogService {
	return &EventLogService{
		subscriber: sub,
		logger:     appLogger,
	}
}

func (s *EventLogService) Start() {
	err := s.subscriber.Subscribe("events.>", "voc-event-logger", s.handleEvent)
	if err != nil {
		s.logger.Error("EventLogService", "Failed to start event subscriber", map[string]interface{}{"error": err.Error()})
		return
	}
	s.logger.Info("EventLogService", "Event log service started, listening to events.>", nil)
}

func (s *EventLogService) handleEvent(ctx context.Context, event events.Event) error {
	s.logger.Info("EventLogService", "Event received", map[string]interface{}{
		"type":    event.EventType(),
		"payload": event.Payload(),
	})
	return nil
}
