package flow

import "log"

// EscalationPolicy holds the cross-cutting ceilings evaluated after every
// stage: conversation length, classification attempts, and error count.
// It only ever raises escalation; it never clears one.
type EscalationPolicy struct {
	cfg    Config
	logger *log.Logger
}

// NewEscalationPolicy creates the policy checker
func NewEscalationPolicy(cfg Config, logger *log.Logger) *EscalationPolicy {
	return &EscalationPolicy{cfg: cfg, logger: logger}
}

// Apply checks the ceilings against the current state. Escalation is
// monotonic within a turn: the first reason to trip stays authoritative.
func (p *EscalationPolicy) Apply(s *State) {
	if s.NeedsEscalation {
		return
	}

	if p.cfg.MaxConversationTurns > 0 && s.ConversationTurn > p.cfg.MaxConversationTurns {
		p.logger.Printf("[POLICY] max turns reached session=%s turn=%d", s.SessionID, s.ConversationTurn)
		s.Escalate(EscalationMaxTurns)
		return
	}

	if s.CurrentIssue == "" && s.ClassificationAttempts >= p.cfg.MaxClassificationAttempts {
		p.logger.Printf("[POLICY] classification attempts exhausted session=%s attempts=%d", s.SessionID, s.ClassificationAttempts)
		s.SetErrorFlag(ErrFlagMaxAttempts)
		s.Escalate(EscalationClassification)
		return
	}

	if p.cfg.EscalateAfterErrors > 0 && s.ErrorCount >= p.cfg.EscalateAfterErrors {
		p.logger.Printf("[POLICY] too many errors session=%s errors=%d", s.SessionID, s.ErrorCount)
		s.Escalate(EscalationTooManyErrors)
	}
}
