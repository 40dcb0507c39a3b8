package entity

import (
	"time"

	"github.com/google/uuid"
)

type KnowledgeCase struct {
	Id                 uuid.UUID
	IssueType          string
	IssueName          string
	CaseType           string
	CaseName           string
	Description        string
	Symptoms           []string
	QuestionsToAsk     []string
	SolutionSteps      []string
	EscalationTriggers []string
	Keywords           []string
	CreatedAt          time.Time
	UpdatedAt          *time.Time
	DeletedAt          *time.Time
	IsDeleted          bool
}
