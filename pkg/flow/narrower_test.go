package flow

import (
	"context"
	"errors"
	"testing"
)

func newNarrower(completion CompletionGateway, retrieval RetrievalGateway) *CaseNarrower {
	return NewCaseNarrower(completion, retrieval, DefaultConfig(), testLogger())
}

func narrowingState() *State {
	s := NewState("sess-1")
	s.BeginTurn("cannot log in")
	s.CurrentIssue = "login_failure"
	return s
}

func TestNarrowerSingletonPromotion(t *testing.T) {
	completion := &fakeCompletion{responses: []string{
		`{"matched_cases": [{"case_number": 2, "case_id": "case-2", "confidence": 0.85, "reason": "matches reset loop"}]}`,
	}}
	retrieval := &fakeRetrieval{filterResults: []CaseRecord{loginCase("case-1"), loginCase("case-2")}}

	s := narrowingState()
	newNarrower(completion, retrieval).Run(context.Background(), s)

	if s.CurrentCase != "case-2" {
		t.Errorf("CurrentCase = %q, want case-2 promoted in the same invocation", s.CurrentCase)
	}
	if s.CaseConfidence != 0.85 {
		t.Errorf("CaseConfidence = %v, want 0.85", s.CaseConfidence)
	}
}

func TestNarrowerAmbiguousLeavesCaseUnset(t *testing.T) {
	completion := &fakeCompletion{responses: []string{
		`{"matched_cases": [
			{"case_number": 1, "case_id": "case-1", "confidence": 0.8, "reason": "a"},
			{"case_number": 2, "case_id": "case-2", "confidence": 0.7, "reason": "b"},
			{"case_number": 3, "case_id": "case-3", "confidence": 0.65, "reason": "c"}
		]}`,
	}}
	retrieval := &fakeRetrieval{filterResults: []CaseRecord{loginCase("case-1"), loginCase("case-2"), loginCase("case-3")}}

	s := narrowingState()
	newNarrower(completion, retrieval).Run(context.Background(), s)

	if s.CurrentCase != "" {
		t.Errorf("CurrentCase = %q, want unset for ambiguous match", s.CurrentCase)
	}
	if len(s.MatchedCases) != 3 {
		t.Errorf("MatchedCases length = %d, want 3", len(s.MatchedCases))
	}
}

func TestNarrowerWeakMatchesDoNotForceDisambiguation(t *testing.T) {
	completion := &fakeCompletion{responses: []string{
		`{"matched_cases": [
			{"case_number": 1, "case_id": "case-1", "confidence": 0.9, "reason": "strong"},
			{"case_number": 2, "case_id": "case-2", "confidence": 0.3, "reason": "weak"},
			{"case_number": 3, "case_id": "case-3", "confidence": 0.2, "reason": "weak"}
		]}`,
	}}
	retrieval := &fakeRetrieval{filterResults: []CaseRecord{loginCase("case-1"), loginCase("case-2"), loginCase("case-3")}}

	s := narrowingState()
	newNarrower(completion, retrieval).Run(context.Background(), s)

	// The two weak matches fall below CaseConfidenceThreshold, so the
	// strong one is promoted instead of asking a disambiguation question.
	if s.CurrentCase != "case-1" {
		t.Errorf("CurrentCase = %q, want case-1 promoted past weak contenders", s.CurrentCase)
	}
	if len(s.MatchedCases) != 1 {
		t.Errorf("MatchedCases length = %d, want 1", len(s.MatchedCases))
	}
}

func TestNarrowerAllWeakKeepsBestMatch(t *testing.T) {
	completion := &fakeCompletion{responses: []string{
		`{"matched_cases": [
			{"case_number": 1, "case_id": "case-1", "confidence": 0.4, "reason": "weak"},
			{"case_number": 2, "case_id": "case-2", "confidence": 0.5, "reason": "less weak"}
		]}`,
	}}
	retrieval := &fakeRetrieval{filterResults: []CaseRecord{loginCase("case-1"), loginCase("case-2")}}

	s := narrowingState()
	newNarrower(completion, retrieval).Run(context.Background(), s)

	if s.CurrentCase != "case-2" {
		t.Errorf("CurrentCase = %q, want the best of the weak matches", s.CurrentCase)
	}
	if s.CaseConfidence != 0.5 {
		t.Errorf("CaseConfidence = %v, want 0.5", s.CaseConfidence)
	}
}

func TestNarrowerDiscardsOutOfRangeNumbers(t *testing.T) {
	completion := &fakeCompletion{responses: []string{
		`{"matched_cases": [
			{"case_number": 0, "case_id": "x", "confidence": 0.9, "reason": "bad"},
			{"case_number": 7, "case_id": "y", "confidence": 0.9, "reason": "bad"},
			{"case_number": 1, "case_id": "case-1", "confidence": 0.8, "reason": "good"}
		]}`,
	}}
	retrieval := &fakeRetrieval{filterResults: []CaseRecord{loginCase("case-1"), loginCase("case-2")}}

	s := narrowingState()
	newNarrower(completion, retrieval).Run(context.Background(), s)

	// Only the in-range candidate survives, so it is a singleton promotion
	if s.CurrentCase != "case-1" {
		t.Errorf("CurrentCase = %q, want case-1", s.CurrentCase)
	}
	if len(s.MatchedCases) != 1 {
		t.Errorf("MatchedCases length = %d, want 1", len(s.MatchedCases))
	}
}

func TestNarrowerZeroCandidates(t *testing.T) {
	completion := &fakeCompletion{}
	retrieval := &fakeRetrieval{}

	s := narrowingState()
	newNarrower(completion, retrieval).Run(context.Background(), s)

	if s.CurrentCase != "" || len(s.MatchedCases) != 0 {
		t.Errorf("want empty result, got case=%q matches=%d", s.CurrentCase, len(s.MatchedCases))
	}
	if s.Flag != "" || s.ErrorFlag != "" {
		t.Errorf("zero candidates is not an error: flag=%q error=%q", s.Flag, s.ErrorFlag)
	}
	if completion.calls != 0 {
		t.Errorf("completion called %d times with zero candidates", completion.calls)
	}
}

func TestNarrowerSearchError(t *testing.T) {
	completion := &fakeCompletion{}
	retrieval := &fakeRetrieval{filterErr: errors.New("index unavailable")}

	s := narrowingState()
	newNarrower(completion, retrieval).Run(context.Background(), s)

	if s.ErrorFlag != ErrFlagSearch {
		t.Errorf("ErrorFlag = %q, want %q", s.ErrorFlag, ErrFlagSearch)
	}
	if len(s.MatchedCases) != 0 {
		t.Error("matches not empty after search error")
	}
}

func TestNarrowerParseFailure(t *testing.T) {
	completion := &fakeCompletion{responses: []string{"these all look plausible to me"}}
	retrieval := &fakeRetrieval{filterResults: []CaseRecord{loginCase("case-1")}}

	s := narrowingState()
	newNarrower(completion, retrieval).Run(context.Background(), s)

	if s.ErrorFlag != ErrFlagJSONParse {
		t.Errorf("ErrorFlag = %q, want %q", s.ErrorFlag, ErrFlagJSONParse)
	}
	if s.CurrentCase != "" || len(s.MatchedCases) != 0 {
		t.Error("matching result kept despite parse failure")
	}
}

func TestNarrowerQueryIncludesGatheredAnswers(t *testing.T) {
	completion := &fakeCompletion{responses: []string{
		"login failure firefox no reset email",
		`{"matched_cases": [{"case_number": 1, "case_id": "case-1", "confidence": 0.8, "reason": "fits"}]}`,
	}}
	retrieval := &fakeRetrieval{filterResults: []CaseRecord{loginCase("case-1")}}

	s := narrowingState()
	s.GatheredInfo["q1"] = QA{Question: "Which browser?", Answer: "Firefox"}

	newNarrower(completion, retrieval).Run(context.Background(), s)

	if completion.calls != 2 {
		t.Fatalf("completion calls = %d, want query generation plus matching", completion.calls)
	}
	if s.CurrentCase != "case-1" {
		t.Errorf("CurrentCase = %q, want case-1", s.CurrentCase)
	}
}

func TestNarrowerSkipsWhenCaseAlreadySet(t *testing.T) {
	completion := &fakeCompletion{}
	retrieval := &fakeRetrieval{}

	s := narrowingState()
	s.CurrentCase = "case-9"
	newNarrower(completion, retrieval).Run(context.Background(), s)

	if completion.calls != 0 {
		t.Error("narrower re-ran for an already resolved case")
	}
	if s.CurrentCase != "case-9" {
		t.Errorf("CurrentCase = %q, want case-9 untouched", s.CurrentCase)
	}
}
