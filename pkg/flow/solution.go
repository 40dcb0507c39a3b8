package flow

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// SolutionComposer synthesizes the personalized solution once a single
// case has been resolved. Case details are located with a three-tier
// fallback (already-retrieved candidates, direct lookup, filtered
// re-search) so a retrieval round-trip is only paid when needed.
type SolutionComposer struct {
	completion CompletionGateway
	retrieval  RetrievalGateway
	cfg        Config
	logger     *log.Logger
}

// NewSolutionComposer creates the solution component
func NewSolutionComposer(completion CompletionGateway, retrieval RetrievalGateway, cfg Config, logger *log.Logger) *SolutionComposer {
	return &SolutionComposer{
		completion: completion,
		retrieval:  retrieval,
		cfg:        cfg,
		logger:     logger,
	}
}

// Compose builds the solution response into FinalResponse. It returns
// false when the case could not be located or generation failed; the
// state has then been escalated with the distinct reason.
func (c *SolutionComposer) Compose(ctx context.Context, s *State) bool {
	record := c.locateCase(ctx, s)
	if record == nil {
		c.logger.Printf("[SOLUTION] case details not found session=%s case=%q", s.SessionID, s.CurrentCase)
		s.Escalate(EscalationCaseNotFound)
		return false
	}

	response, err := c.completion.Generate(ctx, c.buildPrompt(s, record))
	if err != nil {
		c.logger.Printf("[ERROR] solution generation failed session=%s: %v", s.SessionID, err)
		s.Escalate(EscalationSolutionFailed)
		return false
	}

	text := strings.TrimSpace(response)
	if text == "" {
		s.Escalate(EscalationSolutionFailed)
		return false
	}

	text = c.fitToLength(ctx, text)
	s.FinalResponse = c.assemble(text, record)

	c.logger.Printf("[SOLUTION] delivered session=%s case=%q length=%d", s.SessionID, s.CurrentCase, len(s.FinalResponse))
	return true
}

// locateCase finds the authoritative case record: first among the
// candidates already in hand, then by direct id lookup, then via a
// filtered re-search as a last resort.
func (c *SolutionComposer) locateCase(ctx context.Context, s *State) *CaseRecord {
	for _, m := range s.MatchedCases {
		if m.Case.ID == s.CurrentCase {
			record := m.Case
			return &record
		}
	}
	for _, r := range s.RetrievedCases {
		if r.ID == s.CurrentCase {
			record := r
			return &record
		}
	}

	record, err := c.retrieval.GetCaseByID(ctx, s.CurrentCase)
	if err == nil && record != nil {
		return record
	}
	if err != nil {
		c.logger.Printf("[WARN] case lookup failed session=%s case=%q: %v", s.SessionID, s.CurrentCase, err)
	}

	records, err := c.retrieval.FilterCasesByIssueType(ctx, s.UserMessage, s.CurrentIssue, 10)
	if err != nil {
		c.logger.Printf("[WARN] fallback re-search failed session=%s: %v", s.SessionID, err)
		return nil
	}
	for _, r := range records {
		if r.ID == s.CurrentCase {
			record := r
			return &record
		}
	}
	return nil
}

// fitToLength enforces the response length cap: one summarization call,
// then a hard truncation as the deterministic last resort.
func (c *SolutionComposer) fitToLength(ctx context.Context, text string) string {
	if len([]rune(text)) <= c.cfg.MaxResponseLen {
		return text
	}

	prompt := fmt.Sprintf("Shorten the following support answer to under %d characters while keeping every actionable step.\nReturn ONLY the shortened answer.\n\n%s", c.cfg.MaxResponseLen, text)
	summarized, err := c.completion.Generate(ctx, prompt)
	if err != nil {
		c.logger.Printf("[WARN] solution summarization failed: %v", err)
		return truncate(text, c.cfg.MaxResponseLen)
	}

	summarized = strings.TrimSpace(summarized)
	if summarized == "" || len([]rune(summarized)) > c.cfg.MaxResponseLen {
		return truncate(text, c.cfg.MaxResponseLen)
	}
	return summarized
}

// assemble appends the follow-up prompt and the abbreviated escalation
// trigger disclosure to the generated solution.
func (c *SolutionComposer) assemble(text string, record *CaseRecord) string {
	var b strings.Builder
	b.WriteString(text)
	b.WriteString("\n\nDid this solve your problem? Let me know if anything is unclear.")

	if len(record.EscalationTriggers) > 0 {
		b.WriteString("\nIf ")
		b.WriteString(strings.Join(firstN(record.EscalationTriggers, 2), " or "))
		b.WriteString(", I'll connect you with a support agent right away.")
	}
	return b.String()
}

func (c *SolutionComposer) buildPrompt(s *State, record *CaseRecord) string {
	var prompt strings.Builder

	prompt.WriteString(fmt.Sprintf("You are a support agent. Write a personalized walkthrough for the user below, in %s, with a %s tone, under %d characters.\n\n",
		c.cfg.Language, c.cfg.Tone, c.cfg.MaxResponseLen))

	prompt.WriteString("Case: ")
	prompt.WriteString(record.CaseName)
	prompt.WriteString("\n")
	if record.Description != "" {
		prompt.WriteString("Description: ")
		prompt.WriteString(truncate(record.Description, 300))
		prompt.WriteString("\n")
	}

	prompt.WriteString("\nCanonical solution steps:\n")
	for i, step := range record.SolutionSteps {
		prompt.WriteString(fmt.Sprintf("%d. %s\n", i+1, step))
	}

	if len(record.EscalationTriggers) > 0 {
		prompt.WriteString("\nEscalation triggers (do not promise fixes for these):\n")
		for _, trigger := range record.EscalationTriggers {
			prompt.WriteString(fmt.Sprintf("- %s\n", trigger))
		}
	}

	prompt.WriteString("\nUser's situation:\n")
	prompt.WriteString(s.UserMessage)
	prompt.WriteString("\n")
	for _, qa := range s.OrderedGathered() {
		prompt.WriteString(fmt.Sprintf("Q: %s\nA: %s\n", qa.Question, qa.Answer))
	}
	for _, u := range s.RecentHistory(4) {
		prompt.WriteString(fmt.Sprintf("%s: %s\n", u.Role, truncate(u.Content, 200)))
	}

	prompt.WriteString("\nGround every step in the canonical solution steps. Return ONLY the answer for the user.")

	return prompt.String()
}
