package flow

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// matchingResult is the structured output of the candidate-matching call
type matchingResult struct {
	MatchedCases []struct {
		CaseNumber int     `json:"case_number"`
		CaseID     string  `json:"case_id"`
		Confidence float64 `json:"confidence"`
		Reason     string  `json:"reason"`
	} `json:"matched_cases"`
}

// CaseNarrower narrows a confirmed issue down to a specific case. It
// searches within the issue category using the accumulated conversation
// context, asks the completion gateway which candidates plausibly match,
// and applies the 0/1/many decision policy: a singleton match is promoted
// to current_case immediately, multiple matches are left for the terminal
// stage to disambiguate. Matches below CaseConfidenceThreshold do not count
// toward the disambiguation set.
type CaseNarrower struct {
	completion CompletionGateway
	retrieval  RetrievalGateway
	cfg        Config
	logger     *log.Logger
}

// NewCaseNarrower creates the narrowing stage
func NewCaseNarrower(completion CompletionGateway, retrieval RetrievalGateway, cfg Config, logger *log.Logger) *CaseNarrower {
	return &CaseNarrower{
		completion: completion,
		retrieval:  retrieval,
		cfg:        cfg,
		logger:     logger,
	}
}

// Run executes one narrowing pass
func (n *CaseNarrower) Run(ctx context.Context, s *State) {
	if s.CurrentCase != "" {
		// Already narrowed; the terminal stage delivers the solution
		return
	}

	query, ok := n.buildSearchQuery(ctx, s)
	if !ok {
		s.MatchedCases = nil
		return
	}

	records, err := n.retrieval.FilterCasesByIssueType(ctx, query, s.CurrentIssue, n.cfg.NarrowTopK)
	if err != nil {
		n.logger.Printf("[ERROR] narrowing search failed session=%s: %v", s.SessionID, err)
		if isTimeout(err) {
			s.SetErrorFlag(ErrFlagTimeout)
		} else {
			s.SetErrorFlag(ErrFlagSearch)
		}
		s.MatchedCases = nil
		return
	}

	if len(records) == 0 {
		n.logger.Printf("[NARROWER] no candidates session=%s issue=%q query=%q", s.SessionID, s.CurrentIssue, truncate(query, 80))
		s.MatchedCases = nil
		return
	}

	s.RetrievedCases = records
	s.RAGUsed = true

	matches, ok := n.matchCandidates(ctx, s, records)
	if !ok {
		s.MatchedCases = nil
		return
	}
	matches = n.gateByConfidence(matches)

	switch len(matches) {
	case 0:
		s.MatchedCases = nil
		n.logger.Printf("[NARROWER] no matches session=%s issue=%q", s.SessionID, s.CurrentIssue)
	case 1:
		// A singleton match is sufficiently narrowed; no threshold gate
		s.CurrentCase = matches[0].Case.ID
		s.CaseConfidence = matches[0].Confidence
		s.MatchedCases = matches
		n.logger.Printf("[NARROWER] resolved session=%s case=%q confidence=%.2f", s.SessionID, s.CurrentCase, s.CaseConfidence)
	default:
		s.MatchedCases = matches
		n.logger.Printf("[NARROWER] ambiguous session=%s candidates=%d", s.SessionID, len(matches))
	}
}

// gateByConfidence decides which matches count as contenders. Matches below
// CaseConfidenceThreshold do not force a disambiguation round; they are
// pruned when stronger matches exist. The best match always survives, so a
// lone weak match is still promoted rather than discarded.
func (n *CaseNarrower) gateByConfidence(matches []CaseMatch) []CaseMatch {
	if len(matches) < 2 {
		return matches
	}

	var contenders []CaseMatch
	best := 0
	for i, m := range matches {
		if m.Confidence >= n.cfg.CaseConfidenceThreshold {
			contenders = append(contenders, m)
		}
		if m.Confidence > matches[best].Confidence {
			best = i
		}
	}
	if len(contenders) == 0 {
		return []CaseMatch{matches[best]}
	}
	if dropped := len(matches) - len(contenders); dropped > 0 {
		n.logger.Printf("[NARROWER] pruned %d matches below confidence %.2f", dropped, n.cfg.CaseConfidenceThreshold)
	}
	return contenders
}

// buildSearchQuery asks the completion gateway to compress the user's
// message plus every gathered answer into one search query.
func (n *CaseNarrower) buildSearchQuery(ctx context.Context, s *State) (string, bool) {
	if len(s.GatheredInfo) == 0 {
		return s.UserMessage, true
	}

	var prompt strings.Builder
	prompt.WriteString("Combine the user's complaint and the clarifying answers below into one short search query for a support knowledge base.\n")
	prompt.WriteString("Return ONLY the query text, no explanation.\n\n")
	prompt.WriteString("Complaint: ")
	prompt.WriteString(s.UserMessage)
	prompt.WriteString("\n")
	for _, qa := range s.OrderedGathered() {
		prompt.WriteString(fmt.Sprintf("Q: %s\nA: %s\n", qa.Question, qa.Answer))
	}

	response, err := n.completion.Generate(ctx, prompt.String())
	if err != nil {
		n.logger.Printf("[ERROR] query generation failed session=%s: %v", s.SessionID, err)
		if isTimeout(err) {
			s.SetErrorFlag(ErrFlagTimeout)
		} else {
			s.SetErrorFlag(ErrFlagLLM)
		}
		return "", false
	}

	query := strings.TrimSpace(response)
	if query == "" {
		query = s.UserMessage
	}
	return truncate(query, 300), true
}

// matchCandidates asks the completion gateway which retrieved candidates
// plausibly match the user's situation. Candidate numbers in the answer
// are resolved back to the retrieval list; out-of-range numbers are
// discarded.
func (n *CaseNarrower) matchCandidates(ctx context.Context, s *State, records []CaseRecord) ([]CaseMatch, bool) {
	response, err := n.completion.Generate(ctx, n.buildMatchPrompt(s, records))
	if err != nil {
		n.logger.Printf("[ERROR] candidate matching failed session=%s: %v", s.SessionID, err)
		if isTimeout(err) {
			s.SetErrorFlag(ErrFlagTimeout)
		} else {
			s.SetErrorFlag(ErrFlagLLM)
		}
		return nil, false
	}

	var result matchingResult
	if err := decodeJSON(response, &result); err != nil {
		n.logger.Printf("[WARN] matching parse failed session=%s: %v", s.SessionID, err)
		s.SetErrorFlag(ErrFlagJSONParse)
		return nil, false
	}

	var matches []CaseMatch
	seen := make(map[int]bool)
	for _, m := range result.MatchedCases {
		if m.CaseNumber < 1 || m.CaseNumber > len(records) || seen[m.CaseNumber] {
			n.logger.Printf("[WARN] discarding candidate number %d session=%s", m.CaseNumber, s.SessionID)
			continue
		}
		seen[m.CaseNumber] = true
		matches = append(matches, CaseMatch{
			Case:       records[m.CaseNumber-1],
			Confidence: m.Confidence,
			Reason:     m.Reason,
		})
	}
	return matches, true
}

func (n *CaseNarrower) buildMatchPrompt(s *State, records []CaseRecord) string {
	var prompt strings.Builder

	prompt.WriteString("You are matching a support complaint against known cases.\n\n")
	prompt.WriteString("User's situation:\n")
	prompt.WriteString(s.UserMessage)
	prompt.WriteString("\n")
	for _, qa := range s.OrderedGathered() {
		prompt.WriteString(fmt.Sprintf("Q: %s\nA: %s\n", qa.Question, qa.Answer))
	}

	prompt.WriteString("\nCandidate cases:\n")
	for i, r := range records {
		prompt.WriteString(fmt.Sprintf("%d. %s (id: %s): %s", i+1, r.CaseName, r.ID, truncate(r.Description, 200)))
		if len(r.Symptoms) > 0 {
			prompt.WriteString(" Symptoms: " + strings.Join(firstN(r.Symptoms, 3), "; "))
		}
		prompt.WriteString("\n")
	}

	prompt.WriteString("\nReturn the subset of candidates that plausibly match the user's situation.\n")
	prompt.WriteString("Respond with ONLY valid JSON:\n")
	prompt.WriteString("{\n")
	prompt.WriteString("  \"matched_cases\": [\n")
	prompt.WriteString("    {\"case_number\": 1, \"case_id\": \"...\", \"confidence\": 0.85, \"reason\": \"brief rationale\"}\n")
	prompt.WriteString("  ]\n")
	prompt.WriteString("}\n")

	return prompt.String()
}
