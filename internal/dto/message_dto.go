package dto

import "time"

// TurnCompletedMessage is the watermill payload the chat service publishes
// after every turn; the consumer persists it as a conversation_turns row.
type TurnCompletedMessage struct {
	SessionId        string    `json:"session_id"`
	Turn             int       `json:"turn"`
	UserMessage      string    `json:"user_message"`
	BotResponse      string    `json:"bot_response"`
	CurrentIssue     string    `json:"current_issue"`
	CurrentCase      string    `json:"current_case"`
	Confidence       float64   `json:"confidence"`
	Flag             string    `json:"flag"`
	ErrorFlag        string    `json:"error_flag"`
	NeedsEscalation  bool      `json:"needs_escalation"`
	EscalationReason string    `json:"escalation_reason"`
	RAGUsed          bool      `json:"rag_used"`
	NodeHistory      []string  `json:"node_history"`
	CompletedAt      time.Time `json:"completed_at"`
}

// CaseChangedMessage triggers a re-embed of one knowledge case.
type CaseChangedMessage struct {
	CaseId string `json:"case_id"`
}
