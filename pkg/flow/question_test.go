package flow

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func newSelector(completion CompletionGateway, retrieval RetrievalGateway, cfg Config) *QuestionSelector {
	return NewQuestionSelector(completion, retrieval, cfg, testLogger())
}

func questionState() *State {
	s := NewState("sess-1")
	s.BeginTurn("cannot log in")
	s.CurrentIssue = "login_failure"
	s.RetrievedCases = []CaseRecord{loginCase("case-1")}
	return s
}

func TestQuestionPoolNeverRepeats(t *testing.T) {
	completion := &fakeCompletion{responses: []string{
		`{"choice": 1, "reason": "most informative"}`,
		"Could you tell me if a reset email arrived?",
	}}
	retrieval := &fakeRetrieval{questions: []string{"Which browser are you using?", "Did you receive a reset email?"}}

	s := questionState()
	s.QuestionsAsked = []string{"which browser are you using?"} // differs only in case

	cfg := DefaultConfig()
	selector := newSelector(completion, retrieval, cfg)
	pool := selector.buildPool(context.Background(), s)

	for _, q := range pool {
		if s.WasAsked(q) {
			t.Errorf("pool contains already-asked question %q", q)
		}
	}
	if len(pool) != 1 {
		t.Errorf("pool size = %d, want 1 after filtering", len(pool))
	}
}

func TestQuestionPoolDedupsCaseInsensitive(t *testing.T) {
	completion := &fakeCompletion{}
	retrieval := &fakeRetrieval{questions: []string{"Which browser are you using?", "WHICH BROWSER ARE YOU USING?"}}

	s := questionState()
	s.RetrievedCases = nil

	pool := newSelector(completion, retrieval, DefaultConfig()).buildPool(context.Background(), s)
	if len(pool) != 1 {
		t.Errorf("pool size = %d, want 1 after dedup", len(pool))
	}
}

func TestQuestionCeilingEscalates(t *testing.T) {
	completion := &fakeCompletion{}
	retrieval := &fakeRetrieval{questions: []string{"Did you receive a reset email?"}}

	cfg := DefaultConfig()
	cfg.MaxQuestionsPerCase = 2

	s := questionState()
	s.QuestionCount = 2

	ok := newSelector(completion, retrieval, cfg).Ask(context.Background(), s)
	if ok {
		t.Error("Ask returned true at the question ceiling")
	}
	if !s.NeedsEscalation || s.EscalationReason != EscalationMaxQuestions {
		t.Errorf("want escalation %q, got %q (escalated=%v)", EscalationMaxQuestions, s.EscalationReason, s.NeedsEscalation)
	}
	if s.QuestionCount != 2 {
		t.Errorf("QuestionCount = %d, want unchanged 2", s.QuestionCount)
	}
}

func TestQuestionEmptyPoolAfterAskingEscalates(t *testing.T) {
	completion := &fakeCompletion{}
	retrieval := &fakeRetrieval{}

	s := questionState()
	s.RetrievedCases = nil
	s.QuestionCount = 2
	s.QuestionsAsked = []string{"Which browser are you using?", "Did you receive a reset email?"}

	ok := newSelector(completion, retrieval, DefaultConfig()).Ask(context.Background(), s)
	if ok {
		t.Error("Ask returned true with an empty pool")
	}
	if s.EscalationReason != EscalationCaseUndetermined {
		t.Errorf("EscalationReason = %q, want %q", s.EscalationReason, EscalationCaseUndetermined)
	}
}

func TestQuestionEmptyPoolBeforeAskingDeclinesQuietly(t *testing.T) {
	completion := &fakeCompletion{}
	retrieval := &fakeRetrieval{}

	s := questionState()
	s.RetrievedCases = nil

	ok := newSelector(completion, retrieval, DefaultConfig()).Ask(context.Background(), s)
	if ok {
		t.Error("Ask returned true with an empty pool")
	}
	if s.NeedsEscalation {
		t.Error("first-round empty pool must not escalate")
	}
}

func TestQuestionAskRecordsOriginalForDedup(t *testing.T) {
	completion := &fakeCompletion{responses: []string{
		`{"choice": 2, "reason": "distinguishes the cases"}`,
		"Just to check: has a password reset email reached your inbox?",
	}}
	retrieval := &fakeRetrieval{}

	s := questionState()

	ok := newSelector(completion, retrieval, DefaultConfig()).Ask(context.Background(), s)
	if !ok {
		t.Fatal("Ask returned false")
	}

	if s.QuestionCount != 1 {
		t.Errorf("QuestionCount = %d, want 1", s.QuestionCount)
	}
	// The original pool phrasing is what lands in questions_asked and
	// pending_question; the refined phrasing is what the user sees.
	if s.PendingQuestion != "Did you receive a reset email?" {
		t.Errorf("PendingQuestion = %q, want original phrasing", s.PendingQuestion)
	}
	if len(s.QuestionsAsked) != 1 || s.QuestionsAsked[0] != "Did you receive a reset email?" {
		t.Errorf("QuestionsAsked = %v, want the original phrasing", s.QuestionsAsked)
	}
	if s.FinalResponse != "Just to check: has a password reset email reached your inbox?" {
		t.Errorf("FinalResponse = %q, want refined phrasing", s.FinalResponse)
	}
}

func TestQuestionSelectionFailureFallsBackToPoolOrder(t *testing.T) {
	completion := &fakeCompletion{err: errors.New("model overloaded")}
	retrieval := &fakeRetrieval{}

	s := questionState()

	ok := newSelector(completion, retrieval, DefaultConfig()).Ask(context.Background(), s)
	if !ok {
		t.Fatal("Ask returned false")
	}
	if s.PendingQuestion != "Which browser are you using?" {
		t.Errorf("PendingQuestion = %q, want first pool entry", s.PendingQuestion)
	}
	// Refinement also failed, so the original text is delivered verbatim
	if s.FinalResponse != "Which browser are you using?" {
		t.Errorf("FinalResponse = %q, want original", s.FinalResponse)
	}
}

func TestQuestionRefinementLengthCap(t *testing.T) {
	longRefinement := strings.Repeat("a very wordy rephrasing ", 20)
	completion := &fakeCompletion{responses: []string{
		`{"choice": 1, "reason": "r"}`,
		longRefinement,
	}}
	retrieval := &fakeRetrieval{}

	s := questionState()

	ok := newSelector(completion, retrieval, DefaultConfig()).Ask(context.Background(), s)
	if !ok {
		t.Fatal("Ask returned false")
	}
	if s.FinalResponse != "Which browser are you using?" {
		t.Errorf("FinalResponse = %q, want original after oversized refinement", s.FinalResponse)
	}
}

func TestQuestionPoolOrderStrategySkipsSelectionCall(t *testing.T) {
	completion := &fakeCompletion{responses: []string{"Which browser is that?"}}
	retrieval := &fakeRetrieval{}

	cfg := DefaultConfig()
	cfg.QuestionStrategy = StrategyPoolOrder

	s := questionState()

	ok := newSelector(completion, retrieval, cfg).Ask(context.Background(), s)
	if !ok {
		t.Fatal("Ask returned false")
	}
	// Only the refinement call happens
	if completion.calls != 1 {
		t.Errorf("completion calls = %d, want 1", completion.calls)
	}
	if s.PendingQuestion != "Which browser are you using?" {
		t.Errorf("PendingQuestion = %q, want first pool entry", s.PendingQuestion)
	}
}
