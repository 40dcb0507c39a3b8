package specification

import (
	"time"

	"gorm.io/gorm"
)

// ByIssueType filters knowledge cases by their issue category
type ByIssueType struct {
	IssueType string
}

func (s ByIssueType) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("issue_type = ?", s.IssueType)
}

// BySessionId filters conversation rows by session
type BySessionId struct {
	SessionId string
}

func (s BySessionId) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("session_id = ?", s.SessionId)
}

// Escalated filters conversation rows by escalation outcome
type Escalated struct {
	Value bool
}

func (s Escalated) Apply(db *gorm.DB) *gorm.DB {
	if s.Value {
		return db.Where("needs_escalation = ?", true)
	}
	return db.Where("needs_escalation = ?", false)
}

// CreatedBetween bounds rows by creation time, half-open [From, To)
type CreatedBetween struct {
	From time.Time
	To   time.Time
}

func (s CreatedBetween) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("created_at >= ? AND created_at < ?", s.From, s.To)
}

// SearchCaseName matches case names case-insensitively
type SearchCaseName struct {
	Query string
}

func (s SearchCaseName) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("case_name ILIKE ?", "%"+s.Query+"%")
}
