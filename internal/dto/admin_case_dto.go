package dto

import (
	"time"

	"github.com/google/uuid"
)

type UpsertCaseRequest struct {
	IssueType          string   `json:"issue_type" validate:"required,max=100"`
	IssueName          string   `json:"issue_name" validate:"max=255"`
	CaseType           string   `json:"case_type" validate:"max=100"`
	CaseName           string   `json:"case_name" validate:"required,max=255"`
	Description        string   `json:"description"`
	Symptoms           []string `json:"symptoms"`
	QuestionsToAsk     []string `json:"questions_to_ask"`
	SolutionSteps      []string `json:"solution_steps"`
	EscalationTriggers []string `json:"escalation_triggers"`
	Keywords           []string `json:"keywords"`
}

type CaseResponse struct {
	Id                 uuid.UUID  `json:"id"`
	IssueType          string     `json:"issue_type"`
	IssueName          string     `json:"issue_name"`
	CaseType           string     `json:"case_type"`
	CaseName           string     `json:"case_name"`
	Description        string     `json:"description"`
	Symptoms           []string   `json:"symptoms"`
	QuestionsToAsk     []string   `json:"questions_to_ask"`
	SolutionSteps      []string   `json:"solution_steps"`
	EscalationTriggers []string   `json:"escalation_triggers"`
	Keywords           []string   `json:"keywords"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          *time.Time `json:"updated_at"`
}

type ListCasesRequest struct {
	IssueType string `query:"issue_type"`
	Search    string `query:"search"`
	Limit     int    `query:"limit"`
	Offset    int    `query:"offset"`
}

type ListCasesResponse struct {
	Cases []CaseResponse `json:"cases"`
	Total int64          `json:"total"`
}

// DraftCaseRequest carries raw customer-voice text the assistant turns into
// a structured case draft for the admin to review.
type DraftCaseRequest struct {
	Text string `json:"text" validate:"required,max=8000"`
}

type DraftCaseResponse struct {
	Draft  UpsertCaseRequest `json:"draft"`
	Reason string            `json:"reason"`
}
