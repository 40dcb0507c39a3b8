package dto

import "time"

type SendMessageRequest struct {
	SessionId string `json:"session_id" validate:"required,max=128"`
	Message   string `json:"message" validate:"required,max=4000"`
}

// TurnMetadata exposes the pipeline's diagnostic trace alongside the reply.
type TurnMetadata struct {
	Turn             int      `json:"turn"`
	CurrentIssue     string   `json:"current_issue,omitempty"`
	CurrentCase      string   `json:"current_case,omitempty"`
	Confidence       float64  `json:"confidence,omitempty"`
	Flag             string   `json:"flag,omitempty"`
	ErrorFlag        string   `json:"error_flag,omitempty"`
	NeedsEscalation  bool     `json:"needs_escalation"`
	EscalationReason string   `json:"escalation_reason,omitempty"`
	RAGUsed          bool     `json:"rag_used"`
	NodeHistory      []string `json:"node_history,omitempty"`
}

type SendMessageResponse struct {
	SessionId string       `json:"session_id"`
	Response  string       `json:"response"`
	Metadata  TurnMetadata `json:"metadata"`
}

// NodeEvent is streamed over the websocket as each pipeline stage starts
// and finishes.
type NodeEvent struct {
	Node   string `json:"node"`
	Status string `json:"status"`
}

// StreamResult terminates a websocket turn: either a response with metadata
// or an error message.
type StreamResult struct {
	Response string        `json:"response,omitempty"`
	Metadata *TurnMetadata `json:"metadata,omitempty"`
	Error    string        `json:"error,omitempty"`
}

type TurnHistoryResponse struct {
	Turn        int       `json:"turn"`
	UserMessage string    `json:"user_message"`
	BotResponse string    `json:"bot_response"`
	CreatedAt   time.Time `json:"created_at"`
}
