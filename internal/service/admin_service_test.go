package service

import (
	"encoding/json"
	"strings"
	"testing"

	"voc-chatbot-be/internal/dto"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"bare object",
			`{"issue_type": "billing"}`,
			`{"issue_type": "billing"}`,
		},
		{
			"code fence",
			"Here you go:\n```json\n{\"issue_type\": \"billing\"}\n```\nLet me know!",
			`{"issue_type": "billing"}`,
		},
		{
			"prose wrapper",
			`Sure! The draft is {"case_name": "x"} as requested.`,
			`{"case_name": "x"}`,
		},
		{
			"no object passes through",
			"I cannot produce a draft for that.",
			"I cannot produce a draft for that.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSONObject(tt.in))
		})
	}
}

func TestExtractJSONObjectUnmarshalsDraft(t *testing.T) {
	raw := "```json\n" + `{
		"issue_type": "shipping",
		"case_name": "Package marked delivered but not received",
		"symptoms": ["tracking says delivered"],
		"reason": "matches the existing shipping category"
	}` + "\n```"

	var parsed struct {
		dto.UpsertCaseRequest
		Reason string `json:"reason"`
	}
	err := json.Unmarshal([]byte(extractJSONObject(raw)), &parsed)

	assert.NoError(t, err)
	assert.Equal(t, "shipping", parsed.IssueType)
	assert.Equal(t, []string{"tracking says delivered"}, parsed.Symptoms)
	assert.Equal(t, "matches the existing shipping category", parsed.Reason)
}

func TestBuildDraftPrompt(t *testing.T) {
	prompt := buildDraftPrompt("The app crashes on login", []string{"account", "billing"})

	assert.Contains(t, prompt, "The app crashes on login")
	assert.Contains(t, prompt, "- account")
	assert.Contains(t, prompt, "- billing")
	assert.Contains(t, prompt, `"issue_type"`)

	// Categories come before the feedback so the model sees them as context.
	assert.Less(t, strings.Index(prompt, "- account"), strings.Index(prompt, "The app crashes on login"))
}

func TestBuildDraftPromptWithoutCategories(t *testing.T) {
	prompt := buildDraftPrompt("Broken zipper", nil)

	assert.Contains(t, prompt, "Broken zipper")
	assert.NotContains(t, prompt, "Existing issue categories")
}

func TestCaseRequestResponseRoundTrip(t *testing.T) {
	req := &dto.UpsertCaseRequest{
		IssueType:          "billing",
		IssueName:          "Billing and Payments",
		CaseType:           "duplicate_charge",
		CaseName:           "Charged twice",
		Description:        "Two identical charges",
		Symptoms:           []string{"two charges"},
		QuestionsToAsk:     []string{"same date?"},
		SolutionSteps:      []string{"request refund"},
		EscalationTriggers: []string{"older than 7 days"},
		Keywords:           []string{"double charge"},
	}

	kc := caseFromRequest(req)
	res := caseToResponse(kc)

	assert.Equal(t, req.IssueType, res.IssueType)
	assert.Equal(t, req.CaseName, res.CaseName)
	assert.Equal(t, req.Symptoms, res.Symptoms)
	assert.Equal(t, req.QuestionsToAsk, res.QuestionsToAsk)
	assert.Equal(t, req.SolutionSteps, res.SolutionSteps)
	assert.Equal(t, req.EscalationTriggers, res.EscalationTriggers)
	assert.Equal(t, req.Keywords, res.Keywords)
}
