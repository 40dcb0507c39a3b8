package flow

import "context"

// CaseRecord is one knowledge-base case as seen by the pipeline
type CaseRecord struct {
	ID                 string   `json:"id"`
	IssueType          string   `json:"issue_type"`
	IssueName          string   `json:"issue_name"`
	CaseType           string   `json:"case_type"`
	CaseName           string   `json:"case_name"`
	Description        string   `json:"description"`
	Symptoms           []string `json:"symptoms"`
	QuestionsToAsk     []string `json:"questions_to_ask"`
	SolutionSteps      []string `json:"solution_steps"`
	EscalationTriggers []string `json:"escalation_triggers"`
	Score              float64  `json:"score"`
}

// CompletionGateway is the language-model collaborator. The pipeline sends
// a full prompt string and receives free text; structured output is the
// caller's responsibility to request and parse.
type CompletionGateway interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// RetrievalGateway is the knowledge-base search collaborator. "No results"
// is an empty slice, never an error.
type RetrievalGateway interface {
	SearchCases(ctx context.Context, query string, topK int) ([]CaseRecord, error)
	FilterCasesByIssueType(ctx context.Context, query, issueType string, topK int) ([]CaseRecord, error)
	GetCaseByID(ctx context.Context, id string) (*CaseRecord, error)
	RelatedQuestions(ctx context.Context, issueType, caseID string) ([]string, error)
}
