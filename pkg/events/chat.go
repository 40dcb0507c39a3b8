package events

import "time"

// Event type codes
const (
	TypeSessionEscalated = "SESSION_ESCALATED"
	TypeTurnCompleted    = "TURN_COMPLETED"
	TypeCaseUpdated      = "CASE_UPDATED"
)

// NewSessionEscalated is emitted when a conversation turn ends in a human
// handoff; agent-desk consumers pick it up from the bus.
func NewSessionEscalated(sessionID, reason, issue, caseID string, turn int) Event {
	return BaseEvent{
		Type: TypeSessionEscalated,
		Data: map[string]interface{}{
			"session_id":        sessionID,
			"escalation_reason": reason,
			"current_issue":     issue,
			"current_case":      caseID,
			"conversation_turn": turn,
		},
		OccurredAt: time.Now(),
	}
}

// NewTurnCompleted is emitted after a turn's final response is computed;
// the persistence consumer stores the turn without blocking the reply.
func NewTurnCompleted(sessionID string, turn int) Event {
	return BaseEvent{
		Type: TypeTurnCompleted,
		Data: map[string]interface{}{
			"session_id":        sessionID,
			"conversation_turn": turn,
		},
		OccurredAt: time.Now(),
	}
}

// NewCaseUpdated is emitted when the admin service writes a knowledge
// case; the embedding consumer re-indexes it.
func NewCaseUpdated(caseID string) Event {
	return BaseEvent{
		Type: TypeCaseUpdated,
		Data: map[string]interface{}{
			"case_id": caseID,
		},
		OccurredAt: time.Now(),
	}
}
