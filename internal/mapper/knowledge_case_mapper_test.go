package mapper

import (
	"testing"
	"time"

	"voc-chatbot-be/internal/entity"
	"voc-chatbot-be/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func TestKnowledgeCaseMapperRoundTrip(t *testing.T) {
	m := NewKnowledgeCaseMapper()
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	ent := &entity.KnowledgeCase{
		Id:             uuid.New(),
		IssueType:      "billing",
		IssueName:      "Billing and Payments",
		CaseType:       "duplicate_charge",
		CaseName:       "Charged twice",
		Description:    "Two identical charges",
		Symptoms:       []string{"two charges", "one confirmation"},
		QuestionsToAsk: []string{"same date?"},
		SolutionSteps:  []string{"request refund"},
		Keywords:       []string{"double charge"},
		CreatedAt:      now,
	}

	got := m.ToEntity(m.ToModel(ent))

	assert.Equal(t, ent.Id, got.Id)
	assert.Equal(t, ent.CaseName, got.CaseName)
	assert.Equal(t, ent.Symptoms, got.Symptoms)
	assert.Equal(t, ent.QuestionsToAsk, got.QuestionsToAsk)
	assert.Equal(t, ent.SolutionSteps, got.SolutionSteps)
	assert.Equal(t, ent.Keywords, got.Keywords)
	assert.Empty(t, got.EscalationTriggers)
	assert.False(t, got.IsDeleted)
	assert.Nil(t, got.UpdatedAt)
}

func TestKnowledgeCaseMapperSoftDelete(t *testing.T) {
	m := NewKnowledgeCaseMapper()
	deletedAt := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

	mdl := &model.KnowledgeCase{
		Id:        uuid.New(),
		IssueType: "billing",
		CaseName:  "Charged twice",
		DeletedAt: gorm.DeletedAt{Time: deletedAt, Valid: true},
	}

	got := m.ToEntity(mdl)
	assert.True(t, got.IsDeleted)
	if assert.NotNil(t, got.DeletedAt) {
		assert.Equal(t, deletedAt, *got.DeletedAt)
	}

	back := m.ToModel(got)
	assert.True(t, back.DeletedAt.Valid)
	assert.Equal(t, deletedAt, back.DeletedAt.Time)
}

func TestJSONArrayHelpers(t *testing.T) {
	// nil slice still serializes to a JSON array, never null.
	assert.JSONEq(t, "[]", string(toJSONArray(nil)))

	// invalid stored JSON degrades to an empty slice instead of failing a read.
	assert.Empty(t, fromJSONArray(datatypes.JSON("{broken")))
	assert.Empty(t, fromJSONArray(nil))

	vals := fromJSONArray(datatypes.JSON(`["a","b"]`))
	assert.Equal(t, []string{"a", "b"}, vals)
}
