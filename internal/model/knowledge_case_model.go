package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type KnowledgeCase struct {
	Id                 uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	IssueType          string         `gorm:"type:varchar(100);not null;index"`
	IssueName          string         `gorm:"type:varchar(255)"`
	CaseType           string         `gorm:"type:varchar(100)"`
	CaseName           string         `gorm:"type:varchar(255);not null"`
	Description        string         `gorm:"type:text"`
	Symptoms           datatypes.JSON `gorm:"type:jsonb"`
	QuestionsToAsk     datatypes.JSON `gorm:"type:jsonb"`
	SolutionSteps      datatypes.JSON `gorm:"type:jsonb"`
	EscalationTriggers datatypes.JSON `gorm:"type:jsonb"`
	Keywords           datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt          time.Time      `gorm:"autoCreateTime"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime"`
	DeletedAt          gorm.DeletedAt `gorm:"index"`
}

func (KnowledgeCase) TableName() string {
	return "knowledge_cases"
}
