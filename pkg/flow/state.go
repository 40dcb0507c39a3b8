package flow

import (
	"sort"
	"strings"
	"time"
)

// Role constants for conversation history entries
const (
	RoleUser = "user"
	RoleBot  = "bot"
)

// Soft flags - recoverable within the turn, surfaced as a clarification
const (
	FlagNoSearchResults      = "no_search_results"
	FlagLowConfidence        = "low_confidence"
	FlagClassificationFailed = "classification_failed"
)

// Error flags - a dependency failed this turn, surfaced as a generic apology
const (
	ErrFlagLLM         = "llm_error"
	ErrFlagSearch      = "search_error"
	ErrFlagJSONParse   = "json_parse_error"
	ErrFlagTimeout     = "timeout_error"
	ErrFlagMaxAttempts = "max_attempts_exceeded"
)

// Escalation reasons - terminal for the turn, a human agent takes over
const (
	EscalationMaxQuestions     = "max_questions_exceeded"
	EscalationMaxTurns         = "max_turns_reached"
	EscalationClassification   = "classification_failed"
	EscalationTooManyErrors    = "too_many_errors"
	EscalationCaseUndetermined = "case_undetermined"
	EscalationSolutionFailed   = "solution_generation_failed"
	EscalationCaseNotFound     = "case_details_not_found"
)

// Utterance is one role-tagged entry in the conversation history
type Utterance struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Turn    int    `json:"turn"`
}

// QA is one gathered question/answer pair within the active topic
type QA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// CaseMatch is one narrowing result: a candidate case plus the match verdict
type CaseMatch struct {
	Case       CaseRecord `json:"case"`
	Confidence float64    `json:"confidence"`
	Reason     string     `json:"reason"`
}

// State is the mutable record of one conversation's progress. One instance
// exists per session id; each turn's pipeline run mutates it in place and
// the session repository persists it between turns.
type State struct {
	SessionID        string      `json:"session_id"`
	ConversationTurn int         `json:"conversation_turn"`
	UserMessage      string      `json:"user_message"`
	History          []Utterance `json:"conversation_history"`

	CurrentIssue             string  `json:"current_issue"`
	CurrentCase              string  `json:"current_case"`
	ClassificationConfidence float64 `json:"classification_confidence"`
	CaseConfidence           float64 `json:"case_confidence"`

	ClassificationAttempts int `json:"classification_attempts"`
	QuestionCount          int `json:"question_count"`
	ErrorCount             int `json:"error_count"`

	GatheredInfo    map[string]QA `json:"gathered_info"`
	QuestionsAsked  []string      `json:"questions_asked"`
	PendingQuestion string        `json:"pending_question"`

	RetrievedCases []CaseRecord `json:"retrieved_cases"`
	MatchedCases   []CaseMatch  `json:"matched_cases"`
	RAGUsed        bool         `json:"rag_used"`

	Flag      string `json:"flag"`
	ErrorFlag string `json:"error_flag"`

	NeedsEscalation  bool   `json:"needs_escalation"`
	EscalationReason string `json:"escalation_reason"`

	LastNode    string   `json:"last_node"`
	NodeHistory []string `json:"node_history"`

	FinalResponse string    `json:"final_response"`
	LastActivity  time.Time `json:"last_activity"`
}

// NewState creates the state for a session's first message
func NewState(sessionID string) *State {
	return &State{
		SessionID:    sessionID,
		GatheredInfo: make(map[string]QA),
		LastActivity: time.Now(),
	}
}

// BeginTurn prepares the state for a new inbound message: bumps the turn
// counter, records the message in history, and clears the per-turn fields
// (flags, escalation, final response).
func (s *State) BeginTurn(message string) {
	s.ConversationTurn++
	s.UserMessage = message
	s.History = append(s.History, Utterance{
		Role:    RoleUser,
		Content: message,
		Turn:    s.ConversationTurn,
	})
	s.Flag = ""
	s.ErrorFlag = ""
	s.NeedsEscalation = false
	s.EscalationReason = ""
	s.FinalResponse = ""
	s.LastActivity = time.Now()
	if s.GatheredInfo == nil {
		s.GatheredInfo = make(map[string]QA)
	}
}

// EnterStage records the stage about to execute in the diagnostics trace
func (s *State) EnterStage(stage Stage) {
	s.LastNode = string(stage)
	s.NodeHistory = append(s.NodeHistory, string(stage))
}

// SetFlag records a soft condition. The first stage to set a flag wins;
// later attempts within the same turn are ignored.
func (s *State) SetFlag(code string) {
	if s.Flag == "" {
		s.Flag = code
	}
}

// SetErrorFlag records a fatal-this-turn condition. First error wins, but
// an error is allowed to land even when a soft flag is already present:
// the reply table checks errors before soft flags.
func (s *State) SetErrorFlag(code string) {
	if s.ErrorFlag == "" {
		s.ErrorFlag = code
		s.ErrorCount++
	}
}

// Escalate marks the turn for human handoff. Once set, neither the reason
// nor the flag can be overwritten this turn.
func (s *State) Escalate(reason string) {
	if s.NeedsEscalation {
		return
	}
	s.NeedsEscalation = true
	s.EscalationReason = reason
}

// ResetTopic clears everything tied to the active issue/case thread while
// preserving session identity, turn counter, and the conversation trace.
func (s *State) ResetTopic() {
	s.CurrentIssue = ""
	s.CurrentCase = ""
	s.ClassificationConfidence = 0
	s.CaseConfidence = 0
	s.ClassificationAttempts = 0
	s.QuestionCount = 0
	s.GatheredInfo = make(map[string]QA)
	s.QuestionsAsked = nil
	s.PendingQuestion = ""
	s.RetrievedCases = nil
	s.MatchedCases = nil
	s.RAGUsed = false
}

// AppendBotTurn appends the bot's reply for this turn to the history
func (s *State) AppendBotTurn(content string) {
	s.History = append(s.History, Utterance{
		Role:    RoleBot,
		Content: content,
		Turn:    s.ConversationTurn,
	})
}

// RecentHistory returns up to n of the most recent utterances
func (s *State) RecentHistory(n int) []Utterance {
	if len(s.History) <= n {
		return s.History
	}
	return s.History[len(s.History)-n:]
}

// OrderedGathered returns the gathered Q/A pairs in stable key order so
// prompts built from them are deterministic.
func (s *State) OrderedGathered() []QA {
	keys := make([]string, 0, len(s.GatheredInfo))
	for k := range s.GatheredInfo {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	qas := make([]QA, 0, len(keys))
	for _, k := range keys {
		qas = append(qas, s.GatheredInfo[k])
	}
	return qas
}

// WasAsked reports whether a question was already asked this topic,
// compared case-insensitively.
func (s *State) WasAsked(question string) bool {
	for _, asked := range s.QuestionsAsked {
		if strings.EqualFold(strings.TrimSpace(asked), strings.TrimSpace(question)) {
			return true
		}
	}
	return false
}
