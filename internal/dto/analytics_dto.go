package dto

import "time"

type StatsRequest struct {
	From string `query:"from"` // RFC3339, defaults to 7 days ago
	To   string `query:"to"`   // RFC3339, defaults to now
}

type StatsResponse struct {
	From              time.Time `json:"from"`
	To                time.Time `json:"to"`
	TotalSessions     int64     `json:"total_sessions"`
	EscalatedSessions int64     `json:"escalated_sessions"`
	ResolvedSessions  int64     `json:"resolved_sessions"`
	EscalationRate    float64   `json:"escalation_rate"`
	AvgTurnsPerCase   float64   `json:"avg_turns_per_case"`
}

type IssueBreakdownResponse struct {
	IssueType string `json:"issue_type"`
	Sessions  int64  `json:"sessions"`
	Escalated int64  `json:"escalated"`
}

type SessionSummaryResponse struct {
	SessionId  string    `json:"session_id"`
	TurnCount  int       `json:"turn_count"`
	FinalIssue string    `json:"final_issue"`
	FinalCase  string    `json:"final_case"`
	Escalated  bool      `json:"escalated"`
	Resolved   bool      `json:"resolved"`
	ErrorCount int       `json:"error_count"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at"`
}

type ListSummariesRequest struct {
	Escalated *bool `query:"escalated"`
	Limit     int   `query:"limit"`
	Offset    int   `query:"offset"`
}
