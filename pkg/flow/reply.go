package flow

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// ReplyFormulator is the terminal stage: the single place that converts
// the state's flag/issue/case combination into user-visible text via a
// strict decision table. Clarifying questions and solution delivery are
// delegated to their components from the matching branches.
type ReplyFormulator struct {
	completion CompletionGateway
	questions  *QuestionSelector
	solutions  *SolutionComposer
	cfg        Config
	logger     *log.Logger
}

// NewReplyFormulator creates the terminal stage
func NewReplyFormulator(completion CompletionGateway, questions *QuestionSelector, solutions *SolutionComposer, cfg Config, logger *log.Logger) *ReplyFormulator {
	return &ReplyFormulator{
		completion: completion,
		questions:  questions,
		solutions:  solutions,
		cfg:        cfg,
		logger:     logger,
	}
}

// Run evaluates the decision table in order and populates FinalResponse.
// Exactly one branch fires; the response is never left empty.
func (f *ReplyFormulator) Run(ctx context.Context, s *State) {
	// Escalation set anywhere this turn wins over everything else
	if s.NeedsEscalation {
		s.FinalResponse = f.escalationResponse(s)
		return
	}

	// 1. A dependency failed this turn
	if s.ErrorFlag != "" {
		s.FinalResponse = f.cfg.FallbackFor(s.ErrorFlag)
		return
	}

	// 2. No issue yet: phrase the clarification by soft flag
	if s.CurrentIssue == "" {
		if s.Flag != "" {
			s.FinalResponse = f.cfg.FallbackFor(s.Flag)
		} else {
			s.FinalResponse = f.cfg.GenericFallback
		}
		return
	}

	// 3. Issue known, case not yet resolved
	if s.CurrentCase == "" {
		f.handleUnresolvedCase(ctx, s)
		if s.NeedsEscalation {
			s.FinalResponse = f.escalationResponse(s)
		}
		return
	}

	// 4. Both resolved: deliver the solution
	if !f.solutions.Compose(ctx, s) {
		s.FinalResponse = f.escalationResponse(s)
	}
}

// handleUnresolvedCase covers the issue-without-case branch: an empty
// match set tries a clarifying question before conceding, one match is an
// invariant violation the narrower should have promoted, and several
// matches become a disambiguation question.
func (f *ReplyFormulator) handleUnresolvedCase(ctx context.Context, s *State) {
	switch len(s.MatchedCases) {
	case 0:
		if f.questions.Ask(ctx, s) {
			return
		}
		if s.NeedsEscalation {
			return
		}
		s.FinalResponse = f.cfg.FallbackFor("no_matching_cases")
	case 1:
		f.logger.Printf("[REPLY] invariant violation: single match not promoted session=%s case=%q",
			s.SessionID, s.MatchedCases[0].Case.ID)
		s.FinalResponse = f.cfg.GenericFallback
	default:
		s.FinalResponse = f.disambiguate(ctx, s)
	}
}

// disambiguate synthesizes a question naming the top candidates and what
// distinguishes them, falling back to a plain enumerated list on any
// generation failure.
func (f *ReplyFormulator) disambiguate(ctx context.Context, s *State) string {
	top := s.MatchedCases
	if len(top) > 3 {
		top = top[:3]
	}

	response, err := f.completion.Generate(ctx, f.buildDisambiguationPrompt(s, top))
	if err == nil {
		if text := strings.TrimSpace(response); text != "" {
			s.PendingQuestion = text
			return text
		}
	} else {
		f.logger.Printf("[WARN] disambiguation generation failed session=%s: %v", s.SessionID, err)
	}

	var b strings.Builder
	b.WriteString("Your issue could be one of the following. Which one sounds closest?\n")
	for i, m := range top {
		b.WriteString(fmt.Sprintf("%d. %s", i+1, m.Case.CaseName))
		if len(m.Case.Symptoms) > 0 {
			b.WriteString(" - " + m.Case.Symptoms[0])
		}
		b.WriteString("\n")
	}
	text := strings.TrimSpace(b.String())
	s.PendingQuestion = text
	return text
}

func (f *ReplyFormulator) buildDisambiguationPrompt(s *State, top []CaseMatch) string {
	var prompt strings.Builder

	prompt.WriteString(fmt.Sprintf("Write one short question, in %s, asking the user which of these support cases matches their situation. Name each case and what distinguishes it.\n\n", f.cfg.Language))

	prompt.WriteString("User's situation:\n")
	prompt.WriteString(s.UserMessage)
	prompt.WriteString("\n\nCandidates:\n")
	for i, m := range top {
		prompt.WriteString(fmt.Sprintf("%d. %s", i+1, m.Case.CaseName))
		if len(m.Case.Symptoms) > 0 {
			prompt.WriteString(": " + strings.Join(firstN(m.Case.Symptoms, 2), "; "))
		}
		prompt.WriteString("\n")
	}

	prompt.WriteString("\nReturn ONLY the question.")

	return prompt.String()
}

// escalationResponse phrases the human handoff, preferring a reason-keyed
// canned string when one is configured.
func (f *ReplyFormulator) escalationResponse(s *State) string {
	if msg, ok := f.cfg.Fallbacks[s.EscalationReason]; ok && msg != "" {
		return msg + " " + f.cfg.EscalationMessage
	}
	return f.cfg.EscalationMessage
}
