package flow

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func newClassifier(completion CompletionGateway, retrieval RetrievalGateway) *IssueClassifier {
	return NewIssueClassifier(completion, retrieval, DefaultConfig(), testLogger())
}

func TestClassifierThresholdGate(t *testing.T) {
	// No confidence below the threshold may ever set the issue
	for _, confidence := range []float64{0.0, 0.1, 0.3, 0.5, 0.69, 0.699} {
		t.Run(fmt.Sprintf("confidence_%.3f", confidence), func(t *testing.T) {
			completion := &fakeCompletion{responses: []string{
				fmt.Sprintf(`{"issue_type": "login_failure", "confidence": %.3f, "reason": "weak"}`, confidence),
			}}
			retrieval := &fakeRetrieval{searchResults: []CaseRecord{loginCase("case-1")}}

			s := NewState("sess-1")
			s.BeginTurn("cannot log in")
			newClassifier(completion, retrieval).Run(context.Background(), s)

			if s.CurrentIssue != "" {
				t.Errorf("CurrentIssue = %q, want unset below threshold", s.CurrentIssue)
			}
			if s.Flag != FlagLowConfidence {
				t.Errorf("Flag = %q, want %q", s.Flag, FlagLowConfidence)
			}
			if s.ClassificationConfidence != confidence {
				t.Errorf("ClassificationConfidence = %v, want %v", s.ClassificationConfidence, confidence)
			}
		})
	}
}

func TestClassifierAccepted(t *testing.T) {
	completion := &fakeCompletion{responses: []string{
		`{"issue_type": "login_failure", "confidence": 0.9, "reason": "clear login complaint"}`,
	}}
	retrieval := &fakeRetrieval{searchResults: []CaseRecord{loginCase("case-1")}}

	s := NewState("sess-1")
	s.BeginTurn("cannot log in")
	newClassifier(completion, retrieval).Run(context.Background(), s)

	if s.CurrentIssue != "login_failure" {
		t.Errorf("CurrentIssue = %q, want login_failure", s.CurrentIssue)
	}
	if s.ClassificationConfidence != 0.9 {
		t.Errorf("ClassificationConfidence = %v, want 0.9", s.ClassificationConfidence)
	}
	if s.ClassificationAttempts != 1 {
		t.Errorf("ClassificationAttempts = %d, want 1", s.ClassificationAttempts)
	}
	if !s.RAGUsed {
		t.Error("RAGUsed not set")
	}
	if len(s.RetrievedCases) != 1 {
		t.Errorf("RetrievedCases length = %d, want 1", len(s.RetrievedCases))
	}
}

func TestClassifierNoSearchResults(t *testing.T) {
	completion := &fakeCompletion{}
	retrieval := &fakeRetrieval{}

	s := NewState("sess-1")
	s.BeginTurn("asdkjhasdkjh")
	newClassifier(completion, retrieval).Run(context.Background(), s)

	if s.Flag != FlagNoSearchResults {
		t.Errorf("Flag = %q, want %q", s.Flag, FlagNoSearchResults)
	}
	if s.CurrentIssue != "" {
		t.Errorf("CurrentIssue = %q, want unset", s.CurrentIssue)
	}
	if completion.calls != 0 {
		t.Errorf("completion called %d times with no retrieval hits", completion.calls)
	}
}

func TestClassifierSearchError(t *testing.T) {
	completion := &fakeCompletion{}
	retrieval := &fakeRetrieval{searchErr: errors.New("index unavailable")}

	s := NewState("sess-1")
	s.BeginTurn("cannot log in")
	newClassifier(completion, retrieval).Run(context.Background(), s)

	if s.ErrorFlag != ErrFlagSearch {
		t.Errorf("ErrorFlag = %q, want %q", s.ErrorFlag, ErrFlagSearch)
	}
	if s.CurrentIssue != "" {
		t.Error("issue set despite search error")
	}
}

func TestClassifierCompletionError(t *testing.T) {
	completion := &fakeCompletion{err: errors.New("model overloaded")}
	retrieval := &fakeRetrieval{searchResults: []CaseRecord{loginCase("case-1")}}

	s := NewState("sess-1")
	s.BeginTurn("cannot log in")
	newClassifier(completion, retrieval).Run(context.Background(), s)

	if s.ErrorFlag != ErrFlagLLM {
		t.Errorf("ErrorFlag = %q, want %q", s.ErrorFlag, ErrFlagLLM)
	}
}

func TestClassifierMalformedOutput(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"no JSON at all", "I think this is a login problem."},
		{"broken JSON", `{"issue_type": "login_failure", "confidence":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			completion := &fakeCompletion{responses: []string{tt.response}}
			retrieval := &fakeRetrieval{searchResults: []CaseRecord{loginCase("case-1")}}

			s := NewState("sess-1")
			s.BeginTurn("cannot log in")
			newClassifier(completion, retrieval).Run(context.Background(), s)

			if s.ErrorFlag != ErrFlagJSONParse {
				t.Errorf("ErrorFlag = %q, want %q", s.ErrorFlag, ErrFlagJSONParse)
			}
			if s.CurrentIssue != "" {
				t.Error("issue set despite parse failure")
			}
		})
	}
}

func TestClassifierRejectsUnknownCategory(t *testing.T) {
	completion := &fakeCompletion{responses: []string{
		`{"issue_type": "billing", "confidence": 0.95, "reason": "made up"}`,
	}}
	retrieval := &fakeRetrieval{searchResults: []CaseRecord{loginCase("case-1")}}

	s := NewState("sess-1")
	s.BeginTurn("cannot log in")
	newClassifier(completion, retrieval).Run(context.Background(), s)

	if s.CurrentIssue != "" {
		t.Errorf("CurrentIssue = %q, want unset for category outside candidates", s.CurrentIssue)
	}
	if s.Flag != FlagLowConfidence {
		t.Errorf("Flag = %q, want %q", s.Flag, FlagLowConfidence)
	}
}

func TestDistinctIssueTypesFirstSeenOrder(t *testing.T) {
	records := []CaseRecord{
		{IssueType: "login_failure"},
		{IssueType: "payment_error"},
		{IssueType: "login_failure"},
		{IssueType: "sync_issue"},
		{IssueType: "payment_error"},
	}

	got := distinctIssueTypes(records)
	want := []string{"login_failure", "payment_error", "sync_issue"}
	if len(got) != len(want) {
		t.Fatalf("got %d categories, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestBuildCaseContextLengthCap(t *testing.T) {
	var records []CaseRecord
	for i := 0; i < 20; i++ {
		r := loginCase(fmt.Sprintf("case-%d", i))
		records = append(records, r)
	}

	ctx := buildCaseContext(records, 500)
	if len(ctx) > 500 {
		t.Errorf("context length = %d, want <= 500", len(ctx))
	}
	if ctx == "" {
		t.Error("context empty, want at least one entry")
	}
}
