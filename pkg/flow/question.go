package flow

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// questionChoice is the structured output of the progressive selection call
type questionChoice struct {
	Choice int    `json:"choice"`
	Reason string `json:"reason"`
}

// QuestionSelector picks the next clarifying question when narrowing is
// underspecified. The candidate pool combines issue-linked canned
// questions with the questions_to_ask of the retrieved candidates,
// deduplicated and filtered against everything already asked this topic.
// An exhausted pool or a reached question ceiling escalates instead of
// looping unproductively.
type QuestionSelector struct {
	completion CompletionGateway
	retrieval  RetrievalGateway
	cfg        Config
	logger     *log.Logger
}

// NewQuestionSelector creates the clarifying-question component
func NewQuestionSelector(completion CompletionGateway, retrieval RetrievalGateway, cfg Config, logger *log.Logger) *QuestionSelector {
	return &QuestionSelector{
		completion: completion,
		retrieval:  retrieval,
		cfg:        cfg,
		logger:     logger,
	}
}

// Ask selects, refines, and records the next clarifying question, placing
// the refined text in FinalResponse. It returns false when no question
// could be produced; in that situation the state has been escalated and
// the terminal stage phrases the handoff.
func (q *QuestionSelector) Ask(ctx context.Context, s *State) bool {
	if s.QuestionCount >= q.cfg.MaxQuestionsPerCase {
		q.logger.Printf("[QUESTION] ceiling reached session=%s count=%d", s.SessionID, s.QuestionCount)
		s.Escalate(EscalationMaxQuestions)
		return false
	}

	pool := q.buildPool(ctx, s)
	if len(pool) == 0 {
		q.logger.Printf("[QUESTION] empty pool session=%s issue=%q asked=%d", s.SessionID, s.CurrentIssue, s.QuestionCount)
		// Exhausting the pool after clarification rounds means the case
		// cannot be determined by asking more. A pool that was empty from
		// the start is not escalation-worthy; the terminal stage phrases
		// the no-matching-cases reply instead.
		if s.QuestionCount > 0 {
			s.Escalate(EscalationCaseUndetermined)
		}
		return false
	}

	chosen := q.selectQuestion(ctx, s, pool)
	refined := q.refineQuestion(ctx, chosen)

	// Dedup tracks the original phrasing, not the refined one
	s.QuestionsAsked = append(s.QuestionsAsked, chosen)
	s.QuestionCount++
	s.PendingQuestion = chosen
	s.FinalResponse = refined

	q.logger.Printf("[QUESTION] asked session=%s count=%d question=%q", s.SessionID, s.QuestionCount, truncate(chosen, 120))
	return true
}

// buildPool assembles the candidate questions: issue/case-linked canned
// questions first, then per-candidate questions_to_ask, deduplicated
// case-insensitively and filtered against questions_asked.
func (q *QuestionSelector) buildPool(ctx context.Context, s *State) []string {
	var raw []string

	related, err := q.retrieval.RelatedQuestions(ctx, s.CurrentIssue, s.CurrentCase)
	if err != nil {
		// Pool degradation only; the per-candidate questions still apply
		q.logger.Printf("[WARN] related questions lookup failed session=%s: %v", s.SessionID, err)
	} else {
		raw = append(raw, related...)
	}

	for _, m := range s.MatchedCases {
		raw = append(raw, m.Case.QuestionsToAsk...)
	}
	for _, r := range s.RetrievedCases {
		raw = append(raw, r.QuestionsToAsk...)
	}

	seen := make(map[string]bool)
	var pool []string
	for _, question := range raw {
		question = strings.TrimSpace(question)
		if question == "" {
			continue
		}
		key := strings.ToLower(question)
		if seen[key] || s.WasAsked(question) {
			continue
		}
		seen[key] = true
		pool = append(pool, question)
	}
	return pool
}

// selectQuestion picks the most informative candidate. The progressive
// strategy asks the completion gateway to rank the pool against the
// accumulated context; any other strategy, and any selection failure,
// falls back to pool order.
func (q *QuestionSelector) selectQuestion(ctx context.Context, s *State, pool []string) string {
	if q.cfg.QuestionStrategy != StrategyProgressive || len(pool) == 1 {
		return pool[0]
	}

	response, err := q.completion.Generate(ctx, q.buildSelectionPrompt(s, pool))
	if err != nil {
		q.logger.Printf("[WARN] question selection failed session=%s: %v", s.SessionID, err)
		return pool[0]
	}

	var choice questionChoice
	if err := decodeJSON(response, &choice); err != nil {
		q.logger.Printf("[WARN] question selection parse failed session=%s: %v", s.SessionID, err)
		return pool[0]
	}

	if choice.Choice < 1 || choice.Choice > len(pool) {
		return pool[0]
	}
	return pool[choice.Choice-1]
}

// refineQuestion rephrases the chosen question for tone. The original is
// used verbatim when refinement errors or exceeds the length cap.
func (q *QuestionSelector) refineQuestion(ctx context.Context, question string) string {
	var prompt strings.Builder
	prompt.WriteString(fmt.Sprintf("Rephrase this support question in a %s tone, in %s. Keep it short. Return ONLY the question.\n\n", q.cfg.Tone, q.cfg.Language))
	prompt.WriteString(question)

	response, err := q.completion.Generate(ctx, prompt.String())
	if err != nil {
		q.logger.Printf("[WARN] question refinement failed: %v", err)
		return question
	}

	refined := strings.TrimSpace(response)
	if refined == "" || len([]rune(refined)) > q.cfg.MaxQuestionLen {
		return question
	}
	return refined
}

func (q *QuestionSelector) buildSelectionPrompt(s *State, pool []string) string {
	var prompt strings.Builder

	prompt.WriteString("Pick the single most informative clarifying question to narrow down the user's support issue.\n\n")
	prompt.WriteString("User's situation:\n")
	prompt.WriteString(s.UserMessage)
	prompt.WriteString("\n")
	for _, qa := range s.OrderedGathered() {
		prompt.WriteString(fmt.Sprintf("Q: %s\nA: %s\n", qa.Question, qa.Answer))
	}

	prompt.WriteString("\nCandidate questions:\n")
	for i, question := range pool {
		prompt.WriteString(fmt.Sprintf("%d. %s\n", i+1, question))
	}

	prompt.WriteString("\nRespond with ONLY valid JSON:\n")
	prompt.WriteString("{\n")
	prompt.WriteString("  \"choice\": 1,\n")
	prompt.WriteString("  \"reason\": \"brief explanation\"\n")
	prompt.WriteString("}\n")

	return prompt.String()
}
