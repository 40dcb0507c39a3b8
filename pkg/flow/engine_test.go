package flow

import (
	"context"
	"strings"
	"testing"
)

func TestNextStageRouting(t *testing.T) {
	tests := []struct {
		name  string
		state func() *State
		want  Stage
	}{
		{
			"start of turn",
			func() *State { return NewState("s") },
			StageStateAnalyzer,
		},
		{
			"analyzer without issue goes to classifier",
			func() *State {
				s := NewState("s")
				s.LastNode = string(StageStateAnalyzer)
				return s
			},
			StageIssueClassifier,
		},
		{
			"analyzer with issue goes to narrower",
			func() *State {
				s := NewState("s")
				s.LastNode = string(StageStateAnalyzer)
				s.CurrentIssue = "login_failure"
				return s
			},
			StageCaseNarrower,
		},
		{
			"classifier acceptance goes to narrower",
			func() *State {
				s := NewState("s")
				s.LastNode = string(StageIssueClassifier)
				s.CurrentIssue = "login_failure"
				return s
			},
			StageCaseNarrower,
		},
		{
			"classifier rejection goes to terminal",
			func() *State {
				s := NewState("s")
				s.LastNode = string(StageIssueClassifier)
				s.Flag = FlagLowConfidence
				return s
			},
			StageReplyFormulator,
		},
		{
			"narrower always goes to terminal",
			func() *State {
				s := NewState("s")
				s.LastNode = string(StageCaseNarrower)
				s.CurrentCase = "case-1"
				return s
			},
			StageReplyFormulator,
		},
		{
			"terminal goes to done",
			func() *State {
				s := NewState("s")
				s.LastNode = string(StageReplyFormulator)
				return s
			},
			StageDone,
		},
		{
			"escalation short-circuits to terminal",
			func() *State {
				s := NewState("s")
				s.LastNode = string(StageStateAnalyzer)
				s.NeedsEscalation = true
				return s
			},
			StageReplyFormulator,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nextStage(tt.state()); got != tt.want {
				t.Errorf("nextStage = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEngineGibberishNoRetrievalHits(t *testing.T) {
	completion := &fakeCompletion{}
	retrieval := &fakeRetrieval{}
	cfg := DefaultConfig()
	engine := NewEngine(completion, retrieval, cfg, testLogger())

	s := NewState("sess-1")
	if err := engine.RunTurn(context.Background(), s, "asdkjhasdkjh", nil); err != nil {
		t.Fatal(err)
	}

	if s.CurrentIssue != "" {
		t.Errorf("CurrentIssue = %q, want unset", s.CurrentIssue)
	}
	if s.Flag != FlagNoSearchResults {
		t.Errorf("Flag = %q, want %q", s.Flag, FlagNoSearchResults)
	}
	if s.FinalResponse != cfg.FallbackFor(FlagNoSearchResults) {
		t.Errorf("FinalResponse = %q, want no_search_results fallback", s.FinalResponse)
	}
}

func TestEngineSingleCleanMatch(t *testing.T) {
	completion := &fakeCompletion{responses: []string{
		`{"issue_type": "login_failure", "confidence": 0.9, "reason": "clear"}`,
		`{"matched_cases": [{"case_number": 1, "case_id": "case-1", "confidence": 0.85, "reason": "fits"}]}`,
		"Clear your cookies, then request a fresh reset link.",
	}}
	retrieval := &fakeRetrieval{
		searchResults: []CaseRecord{loginCase("case-1")},
		filterResults: []CaseRecord{loginCase("case-1")},
	}
	engine := NewEngine(completion, retrieval, DefaultConfig(), testLogger())

	s := NewState("sess-1")
	if err := engine.RunTurn(context.Background(), s, "I keep getting sent back to the password reset page", nil); err != nil {
		t.Fatal(err)
	}

	if s.CurrentIssue != "login_failure" {
		t.Errorf("CurrentIssue = %q", s.CurrentIssue)
	}
	if s.CurrentCase != "case-1" {
		t.Errorf("CurrentCase = %q", s.CurrentCase)
	}
	if !strings.Contains(s.FinalResponse, "Clear your cookies") {
		t.Errorf("FinalResponse = %q, want the solution path", s.FinalResponse)
	}
	if s.NeedsEscalation {
		t.Error("escalated on the happy path")
	}

	wantTrace := []string{"state_analyzer", "issue_classifier", "case_narrower", "reply_formulator"}
	if len(s.NodeHistory) != len(wantTrace) {
		t.Fatalf("NodeHistory = %v, want %v", s.NodeHistory, wantTrace)
	}
	for i, node := range wantTrace {
		if s.NodeHistory[i] != node {
			t.Errorf("NodeHistory[%d] = %q, want %q", i, s.NodeHistory[i], node)
		}
	}
}

func TestEngineClassificationAttemptCeiling(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxClassificationAttempts = 3

	completion := &fakeCompletion{responses: []string{
		`{"issue_type": "login_failure", "confidence": 0.4, "reason": "vague"}`,
	}}
	retrieval := &fakeRetrieval{searchResults: []CaseRecord{loginCase("case-1")}}
	engine := NewEngine(completion, retrieval, cfg, testLogger())

	s := NewState("sess-1")

	// Attempts 1 and 2 stay below the ceiling: clarification, no handoff
	for turn := 1; turn <= 2; turn++ {
		if err := engine.RunTurn(context.Background(), s, "something vague", nil); err != nil {
			t.Fatal(err)
		}
		if s.NeedsEscalation {
			t.Fatalf("escalated on attempt %d, before the ceiling", turn)
		}
	}

	// The crossing attempt escalates with classification_failed
	if err := engine.RunTurn(context.Background(), s, "still vague", nil); err != nil {
		t.Fatal(err)
	}
	if !s.NeedsEscalation {
		t.Fatal("not escalated at the attempt ceiling")
	}
	if s.EscalationReason != EscalationClassification {
		t.Errorf("EscalationReason = %q, want %q", s.EscalationReason, EscalationClassification)
	}
	if !strings.Contains(s.FinalResponse, cfg.EscalationMessage) {
		t.Errorf("FinalResponse = %q, want handoff", s.FinalResponse)
	}
}

func TestEngineMaxTurnsEscalates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxConversationTurns = 1

	completion := &fakeCompletion{}
	retrieval := &fakeRetrieval{}
	engine := NewEngine(completion, retrieval, cfg, testLogger())

	s := NewState("sess-1")
	if err := engine.RunTurn(context.Background(), s, "first", nil); err != nil {
		t.Fatal(err)
	}
	if s.NeedsEscalation {
		t.Fatal("escalated within the turn budget")
	}

	if err := engine.RunTurn(context.Background(), s, "second", nil); err != nil {
		t.Fatal(err)
	}
	if !s.NeedsEscalation || s.EscalationReason != EscalationMaxTurns {
		t.Errorf("want max_turns_reached, got %q (escalated=%v)", s.EscalationReason, s.NeedsEscalation)
	}
}

func TestEngineListenerReceivesOrderedEvents(t *testing.T) {
	completion := &fakeCompletion{}
	retrieval := &fakeRetrieval{}
	engine := NewEngine(completion, retrieval, DefaultConfig(), testLogger())

	var events []Event
	listener := func(ev Event) { events = append(events, ev) }

	s := NewState("sess-1")
	if err := engine.RunTurn(context.Background(), s, "asdkjhasdkjh", listener); err != nil {
		t.Fatal(err)
	}

	want := []Event{
		{Node: "state_analyzer", Status: StatusStarted},
		{Node: "state_analyzer", Status: StatusFinished},
		{Node: "issue_classifier", Status: StatusStarted},
		{Node: "issue_classifier", Status: StatusFinished},
		{Node: "reply_formulator", Status: StatusStarted},
		{Node: "reply_formulator", Status: StatusFinished},
	}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d = %v, want %v", i, events[i], want[i])
		}
	}
}

func TestEngineTopicChangeResetsThenReclassifies(t *testing.T) {
	completion := &fakeCompletion{responses: []string{
		`{"is_continuation": false, "reason": "different product area"}`,
		`{"issue_type": "payment_error", "confidence": 0.8, "reason": "billing complaint"}`,
		`{"matched_cases": []}`,
	}}
	paymentCase := loginCase("case-9")
	paymentCase.IssueType = "payment_error"
	retrieval := &fakeRetrieval{
		searchResults: []CaseRecord{paymentCase},
		filterResults: []CaseRecord{},
	}
	engine := NewEngine(completion, retrieval, DefaultConfig(), testLogger())

	s := NewState("sess-1")
	s.ConversationTurn = 1
	s.CurrentIssue = "login_failure"
	s.CurrentCase = "case-1"
	s.GatheredInfo["q1"] = QA{Question: "Which browser?", Answer: "Firefox"}

	if err := engine.RunTurn(context.Background(), s, "actually, I was double charged last month", nil); err != nil {
		t.Fatal(err)
	}

	if s.CurrentIssue != "payment_error" {
		t.Errorf("CurrentIssue = %q, want reclassified payment_error", s.CurrentIssue)
	}
	if s.CurrentCase != "" {
		t.Errorf("CurrentCase = %q, want cleared by topic reset", s.CurrentCase)
	}
	if len(s.GatheredInfo) != 0 {
		t.Error("gathered info survived the topic reset")
	}
}

func TestEngineContinuationRecordsPendingAnswer(t *testing.T) {
	completion := &fakeCompletion{responses: []string{
		`{"is_continuation": true, "reason": "answers the pending question"}`,
		"login failure firefox",
		`{"matched_cases": [{"case_number": 1, "case_id": "case-1", "confidence": 0.8, "reason": "fits"}]}`,
		"Clear your cookies.",
	}}
	retrieval := &fakeRetrieval{filterResults: []CaseRecord{loginCase("case-1")}}
	engine := NewEngine(completion, retrieval, DefaultConfig(), testLogger())

	s := NewState("sess-1")
	s.ConversationTurn = 1
	s.CurrentIssue = "login_failure"
	s.PendingQuestion = "Which browser are you using?"

	if err := engine.RunTurn(context.Background(), s, "Firefox on Windows", nil); err != nil {
		t.Fatal(err)
	}

	qa, ok := s.GatheredInfo["q1"]
	if !ok {
		t.Fatal("pending answer not gathered")
	}
	if qa.Question != "Which browser are you using?" || qa.Answer != "Firefox on Windows" {
		t.Errorf("gathered = %+v", qa)
	}
	if s.PendingQuestion != "" {
		t.Error("pending question not cleared")
	}
}

func TestEngineResponseNeverEmpty(t *testing.T) {
	completion := &fakeCompletion{}
	retrieval := &fakeRetrieval{}
	engine := NewEngine(completion, retrieval, DefaultConfig(), testLogger())

	s := NewState("sess-1")
	if err := engine.RunTurn(context.Background(), s, "", nil); err != nil {
		t.Fatal(err)
	}
	if s.FinalResponse == "" {
		t.Fatal("FinalResponse empty")
	}
	last := s.History[len(s.History)-1]
	if last.Role != RoleBot || last.Content != s.FinalResponse {
		t.Errorf("bot reply not appended to history: %+v", last)
	}
}
