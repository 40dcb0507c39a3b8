package flow

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// classificationResult is the structured output of the classification call
type classificationResult struct {
	IssueType  string  `json:"issue_type"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// IssueClassifier assigns the user's complaint to one issue category. It
// retrieves candidate cases, derives the distinct categories among them,
// and asks the completion gateway to pick one with a confidence score,
// accepted only when it clears the configured threshold.
type IssueClassifier struct {
	completion CompletionGateway
	retrieval  RetrievalGateway
	cfg        Config
	logger     *log.Logger
}

// NewIssueClassifier creates the classification stage
func NewIssueClassifier(completion CompletionGateway, retrieval RetrievalGateway, cfg Config, logger *log.Logger) *IssueClassifier {
	return &IssueClassifier{
		completion: completion,
		retrieval:  retrieval,
		cfg:        cfg,
		logger:     logger,
	}
}

// Run executes one classification attempt. Dependency failures degrade to
// an unset classification with the matching flag; they never propagate.
func (c *IssueClassifier) Run(ctx context.Context, s *State) {
	s.ClassificationAttempts++

	records, err := c.retrieval.SearchCases(ctx, s.UserMessage, c.cfg.ClassifyTopK)
	if err != nil {
		c.logger.Printf("[ERROR] classification search failed session=%s: %v", s.SessionID, err)
		if isTimeout(err) {
			s.SetErrorFlag(ErrFlagTimeout)
		} else {
			s.SetErrorFlag(ErrFlagSearch)
		}
		return
	}

	if len(records) == 0 {
		c.logger.Printf("[CLASSIFIER] no retrieval hits session=%s attempt=%d", s.SessionID, s.ClassificationAttempts)
		s.SetFlag(FlagNoSearchResults)
		return
	}

	s.RetrievedCases = records
	s.RAGUsed = true

	categories := distinctIssueTypes(records)
	ragContext := buildCaseContext(records, c.cfg.MaxContextLen)

	response, err := c.completion.Generate(ctx, c.buildPrompt(s.UserMessage, categories, ragContext))
	if err != nil {
		c.logger.Printf("[ERROR] classification call failed session=%s: %v", s.SessionID, err)
		if isTimeout(err) {
			s.SetErrorFlag(ErrFlagTimeout)
		} else {
			s.SetErrorFlag(ErrFlagLLM)
		}
		return
	}

	var result classificationResult
	if err := decodeJSON(response, &result); err != nil {
		c.logger.Printf("[WARN] classification parse failed session=%s: %v", s.SessionID, err)
		s.SetErrorFlag(ErrFlagJSONParse)
		return
	}

	s.ClassificationConfidence = result.Confidence

	if result.Confidence < c.cfg.IssueConfidenceThreshold || !containsFold(categories, result.IssueType) {
		c.logger.Printf("[CLASSIFIER] rejected session=%s issue=%q confidence=%.2f threshold=%.2f",
			s.SessionID, result.IssueType, result.Confidence, c.cfg.IssueConfidenceThreshold)
		s.SetFlag(FlagLowConfidence)
		return
	}

	s.CurrentIssue = result.IssueType
	c.logger.Printf("[CLASSIFIER] accepted session=%s issue=%q confidence=%.2f reason=%q",
		s.SessionID, result.IssueType, result.Confidence, truncate(result.Reason, 120))
}

func (c *IssueClassifier) buildPrompt(message string, categories []string, ragContext string) string {
	var prompt strings.Builder

	prompt.WriteString("You are a support-ticket classifier. Assign the user's complaint to exactly one of the known issue categories.\n\n")

	prompt.WriteString("User message:\n")
	prompt.WriteString(message)
	prompt.WriteString("\n\nKnown categories:\n")
	for _, cat := range categories {
		prompt.WriteString(fmt.Sprintf("- %s\n", cat))
	}

	prompt.WriteString("\nRelated support cases for grounding:\n")
	prompt.WriteString(ragContext)

	prompt.WriteString("\n\nRespond with ONLY valid JSON:\n")
	prompt.WriteString("{\n")
	prompt.WriteString("  \"issue_type\": \"one of the known categories\",\n")
	prompt.WriteString("  \"confidence\": 0.95,\n")
	prompt.WriteString("  \"reason\": \"brief explanation\"\n")
	prompt.WriteString("}\n")

	return prompt.String()
}

// distinctIssueTypes returns the issue categories present among the
// retrieved records, preserving first-seen order.
func distinctIssueTypes(records []CaseRecord) []string {
	seen := make(map[string]bool)
	var categories []string
	for _, r := range records {
		if r.IssueType == "" || seen[r.IssueType] {
			continue
		}
		seen[r.IssueType] = true
		categories = append(categories, r.IssueType)
	}
	return categories
}

// buildCaseContext concatenates name/description/symptom excerpts from the
// top candidates into a grounding context, capped at maxLen runes.
func buildCaseContext(records []CaseRecord, maxLen int) string {
	var b strings.Builder
	for i, r := range records {
		entry := fmt.Sprintf("[%d] %s (%s): %s", i+1, r.CaseName, r.IssueType, truncate(r.Description, 200))
		if len(r.Symptoms) > 0 {
			entry += " Symptoms: " + strings.Join(firstN(r.Symptoms, 3), "; ")
		}
		entry += "\n"
		if b.Len()+len(entry) > maxLen {
			break
		}
		b.WriteString(entry)
	}
	return b.String()
}

func firstN(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}

func containsFold(items []string, target string) bool {
	for _, item := range items {
		if strings.EqualFold(item, target) {
			return true
		}
	}
	return false
}
