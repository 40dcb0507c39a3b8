package flow

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// continuityVerdict is the structured answer to the topic-continuity check
type continuityVerdict struct {
	IsContinuation bool   `json:"is_continuation"`
	Reason         string `json:"reason"`
}

// StateAnalyzer is the pipeline's entry stage. It decides whether the
// inbound message continues the active issue/case thread or opens a new
// topic, resetting topic state in the latter case. When a clarifying
// question is pending and the topic continues, the message is recorded as
// that question's answer.
type StateAnalyzer struct {
	completion CompletionGateway
	cfg        Config
	logger     *log.Logger
}

// NewStateAnalyzer creates the entry stage
func NewStateAnalyzer(completion CompletionGateway, cfg Config, logger *log.Logger) *StateAnalyzer {
	return &StateAnalyzer{
		completion: completion,
		cfg:        cfg,
		logger:     logger,
	}
}

// Run executes the continuity check and applies its outcome to the state
func (a *StateAnalyzer) Run(ctx context.Context, s *State) {
	if s.CurrentIssue == "" && s.CurrentCase == "" {
		// Nothing active yet, nothing to continue
		return
	}

	verdict := a.checkContinuity(ctx, s)

	if !verdict.IsContinuation {
		a.logger.Printf("[ANALYZER] topic change detected session=%s reason=%q", s.SessionID, verdict.Reason)
		s.ResetTopic()
		return
	}

	a.logger.Printf("[ANALYZER] continuation session=%s issue=%q case=%q", s.SessionID, s.CurrentIssue, s.CurrentCase)

	if s.PendingQuestion != "" {
		key := fmt.Sprintf("q%d", len(s.GatheredInfo)+1)
		s.GatheredInfo[key] = QA{
			Question: s.PendingQuestion,
			Answer:   s.UserMessage,
		}
		s.PendingQuestion = ""
	}
}

// checkContinuity asks the completion gateway to judge topic continuity.
// Gateway or parse failures default to continuation: destroying the
// accumulated topic state on a transient failure is the worse outcome.
func (a *StateAnalyzer) checkContinuity(ctx context.Context, s *State) continuityVerdict {
	prompt := a.buildPrompt(s)

	response, err := a.completion.Generate(ctx, prompt)
	if err != nil {
		a.logger.Printf("[ERROR] continuity check failed session=%s: %v", s.SessionID, err)
		if isTimeout(err) {
			s.SetErrorFlag(ErrFlagTimeout)
		} else {
			s.SetErrorFlag(ErrFlagLLM)
		}
		return continuityVerdict{IsContinuation: true, Reason: "gateway error, defaulting to continuation"}
	}

	var verdict continuityVerdict
	if err := decodeJSON(response, &verdict); err != nil {
		a.logger.Printf("[WARN] continuity parse failed session=%s: %v", s.SessionID, err)
		s.SetErrorFlag(ErrFlagJSONParse)
		return continuityVerdict{IsContinuation: true, Reason: "parse error, defaulting to continuation"}
	}

	return verdict
}

func (a *StateAnalyzer) buildPrompt(s *State) string {
	var prompt strings.Builder

	prompt.WriteString("You are a conversation analyst for a customer-support chatbot.\n")
	prompt.WriteString("Decide whether the user's new message continues the support thread below or starts an unrelated new topic.\n\n")

	prompt.WriteString("Active thread:\n")
	if s.CurrentIssue != "" {
		prompt.WriteString(fmt.Sprintf("- Issue category: %s\n", s.CurrentIssue))
	}
	if s.CurrentCase != "" {
		prompt.WriteString(fmt.Sprintf("- Specific case: %s\n", s.CurrentCase))
	}

	prompt.WriteString("\nRecent conversation:\n")
	for _, u := range s.RecentHistory(4) {
		prompt.WriteString(fmt.Sprintf("%s: %s\n", u.Role, truncate(u.Content, 300)))
	}

	prompt.WriteString("\nNew message:\n")
	prompt.WriteString(s.UserMessage)
	prompt.WriteString("\n\nRespond with ONLY valid JSON:\n")
	prompt.WriteString("{\n")
	prompt.WriteString("  \"is_continuation\": true,\n")
	prompt.WriteString("  \"reason\": \"brief explanation\"\n")
	prompt.WriteString("}\n")

	return prompt.String()
}
