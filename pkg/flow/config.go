package flow

import "time"

// Config carries the tunable policy knobs for one pipeline instance.
// The host process builds it from its own configuration layer.
type Config struct {
	IssueConfidenceThreshold float64
	CaseConfidenceThreshold  float64

	MaxClassificationAttempts int
	MaxQuestionsPerCase       int
	MaxConversationTurns      int
	EscalateAfterErrors       int

	ClassifyTopK   int
	NarrowTopK     int
	MaxContextLen  int
	MaxResponseLen int
	MaxQuestionLen int

	Tone              string
	Language          string
	QuestionStrategy  string
	TurnTimeout       time.Duration
	Fallbacks         map[string]string
	GenericFallback   string
	EscalationMessage string
}

// Question selection strategies
const (
	StrategyProgressive = "progressive"
	StrategyPoolOrder   = "pool_order"
)

// DefaultConfig returns the policy defaults. Hosts typically override the
// thresholds and ceilings from environment configuration.
func DefaultConfig() Config {
	return Config{
		IssueConfidenceThreshold:  0.7,
		CaseConfidenceThreshold:   0.6,
		MaxClassificationAttempts: 3,
		MaxQuestionsPerCase:       4,
		MaxConversationTurns:      10,
		EscalateAfterErrors:       3,
		ClassifyTopK:              5,
		NarrowTopK:                5,
		MaxContextLen:             2000,
		MaxResponseLen:            1500,
		MaxQuestionLen:            200,
		Tone:                      "friendly and professional",
		Language:                  "English",
		QuestionStrategy:          StrategyProgressive,
		TurnTimeout:               60 * time.Second,
		Fallbacks:                 DefaultFallbacks(),
		GenericFallback:           "I'm sorry, something went wrong while handling your request. Could you try rephrasing it?",
		EscalationMessage:         "I'm connecting you with a support agent who can help you further. Please hold on a moment.",
	}
}

// DefaultFallbacks returns the canned responses keyed by flag/error code
func DefaultFallbacks() map[string]string {
	return map[string]string{
		FlagNoSearchResults:      "I couldn't find anything related to that in our support records. Could you describe the problem in a bit more detail?",
		FlagLowConfidence:        "I'm not yet sure which kind of issue this is. Could you tell me a little more about what happened?",
		FlagClassificationFailed: "I'm having trouble pinning down your issue. Could you describe it differently?",
		ErrFlagLLM:               "I'm sorry, I ran into a problem while processing your message. Please try again.",
		ErrFlagSearch:            "I'm sorry, I couldn't reach our knowledge base just now. Please try again in a moment.",
		ErrFlagJSONParse:         "I'm sorry, I had trouble understanding the result of my analysis. Please try again.",
		ErrFlagTimeout:           "I'm sorry, that took longer than expected. Please try again.",
		ErrFlagMaxAttempts:       "I wasn't able to identify your issue after several tries.",
		"no_matching_cases":      "I understand the type of issue, but I couldn't find a matching case. Could you share any error messages or the exact steps that led to the problem?",
	}
}

// FallbackFor returns the canned response for a flag/error code, falling
// through to the generic fallback so the user never sees an empty reply.
func (c Config) FallbackFor(code string) string {
	if msg, ok := c.Fallbacks[code]; ok && msg != "" {
		return msg
	}
	return c.GenericFallback
}
