package flow

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func newComposer(completion CompletionGateway, retrieval RetrievalGateway, cfg Config) *SolutionComposer {
	return NewSolutionComposer(completion, retrieval, cfg, testLogger())
}

func solutionState() *State {
	s := NewState("sess-1")
	s.BeginTurn("cannot log in")
	s.CurrentIssue = "login_failure"
	s.CurrentCase = "case-1"
	return s
}

func TestSolutionUsesMatchedCasesFirst(t *testing.T) {
	completion := &fakeCompletion{responses: []string{"Clear your cookies, then request a fresh reset link."}}
	retrieval := &fakeRetrieval{lookupErr: errors.New("lookup must not be called")}

	s := solutionState()
	s.MatchedCases = []CaseMatch{{Case: loginCase("case-1"), Confidence: 0.85}}

	ok := newComposer(completion, retrieval, DefaultConfig()).Compose(context.Background(), s)
	if !ok {
		t.Fatal("Compose returned false")
	}
	if !strings.Contains(s.FinalResponse, "Clear your cookies") {
		t.Errorf("FinalResponse missing solution text: %q", s.FinalResponse)
	}
}

func TestSolutionFallsBackToDirectLookup(t *testing.T) {
	completion := &fakeCompletion{responses: []string{"Request a fresh reset link."}}
	retrieval := &fakeRetrieval{byID: map[string]CaseRecord{"case-1": loginCase("case-1")}}

	s := solutionState()

	ok := newComposer(completion, retrieval, DefaultConfig()).Compose(context.Background(), s)
	if !ok {
		t.Fatal("Compose returned false")
	}
	if s.FinalResponse == "" {
		t.Error("FinalResponse empty")
	}
}

func TestSolutionFallsBackToFilteredResearch(t *testing.T) {
	completion := &fakeCompletion{responses: []string{"Request a fresh reset link."}}
	retrieval := &fakeRetrieval{
		byID:          map[string]CaseRecord{},
		filterResults: []CaseRecord{loginCase("case-2"), loginCase("case-1")},
	}

	s := solutionState()

	ok := newComposer(completion, retrieval, DefaultConfig()).Compose(context.Background(), s)
	if !ok {
		t.Fatal("Compose returned false via filtered re-search")
	}
}

func TestSolutionCaseNotFoundEscalates(t *testing.T) {
	completion := &fakeCompletion{responses: []string{"should never be used"}}
	retrieval := &fakeRetrieval{byID: map[string]CaseRecord{}}

	s := solutionState()

	ok := newComposer(completion, retrieval, DefaultConfig()).Compose(context.Background(), s)
	if ok {
		t.Fatal("Compose returned true for a missing case")
	}
	if s.EscalationReason != EscalationCaseNotFound {
		t.Errorf("EscalationReason = %q, want %q", s.EscalationReason, EscalationCaseNotFound)
	}
	if completion.calls != 0 {
		t.Error("generation attempted without case details")
	}
}

func TestSolutionGenerationFailureEscalates(t *testing.T) {
	completion := &fakeCompletion{err: errors.New("model overloaded")}
	retrieval := &fakeRetrieval{byID: map[string]CaseRecord{"case-1": loginCase("case-1")}}

	s := solutionState()

	ok := newComposer(completion, retrieval, DefaultConfig()).Compose(context.Background(), s)
	if ok {
		t.Fatal("Compose returned true despite generation failure")
	}
	if s.EscalationReason != EscalationSolutionFailed {
		t.Errorf("EscalationReason = %q, want %q", s.EscalationReason, EscalationSolutionFailed)
	}
}

func TestSolutionOverflowSummarizedThenTruncated(t *testing.T) {
	long := strings.Repeat("step detail ", 300)
	stillLong := strings.Repeat("summary ", 200)
	completion := &fakeCompletion{responses: []string{long, stillLong}}
	retrieval := &fakeRetrieval{byID: map[string]CaseRecord{"case-1": loginCase("case-1")}}

	cfg := DefaultConfig()
	cfg.MaxResponseLen = 200

	s := solutionState()

	ok := newComposer(completion, retrieval, cfg).Compose(context.Background(), s)
	if !ok {
		t.Fatal("Compose returned false")
	}
	if completion.calls != 2 {
		t.Errorf("completion calls = %d, want generation plus summarization", completion.calls)
	}
	// The solution body is hard-truncated with an ellipsis; the follow-up
	// and trigger disclosure are appended afterwards.
	if !strings.Contains(s.FinalResponse, "...") {
		t.Errorf("truncation marker missing: %q", truncate(s.FinalResponse, 100))
	}
}

func TestSolutionAppendsFollowUpAndTriggers(t *testing.T) {
	completion := &fakeCompletion{responses: []string{"Clear your cookies."}}
	retrieval := &fakeRetrieval{byID: map[string]CaseRecord{"case-1": loginCase("case-1")}}

	s := solutionState()

	ok := newComposer(completion, retrieval, DefaultConfig()).Compose(context.Background(), s)
	if !ok {
		t.Fatal("Compose returned false")
	}
	if !strings.Contains(s.FinalResponse, "Did this solve your problem?") {
		t.Error("follow-up prompt missing")
	}
	if !strings.Contains(s.FinalResponse, "account is locked") {
		t.Error("escalation trigger disclosure missing")
	}
}
