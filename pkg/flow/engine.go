package flow

import (
	"context"
	"errors"
	"log"
)

// Stage identifies one node of the conversation pipeline
type Stage string

const (
	StageStateAnalyzer   Stage = "state_analyzer"
	StageIssueClassifier Stage = "issue_classifier"
	StageCaseNarrower    Stage = "case_narrower"
	StageReplyFormulator Stage = "reply_formulator"
	StageDone            Stage = "done"
)

// Event is one progress notification from a pipeline run
type Event struct {
	Node   string `json:"node"`
	Status string `json:"status"`
}

// Event statuses
const (
	StatusStarted  = "started"
	StatusFinished = "finished"
)

// Listener receives ordered per-stage progress events during a turn.
// Stage events always arrive in execution order; the terminal response is
// delivered by the caller, not the engine.
type Listener func(Event)

// Engine drives the conversation pipeline: an explicit state machine with
// a pure routing function and a loop that runs stages until the terminal
// stage has produced a response. All collaborators are injected.
type Engine struct {
	analyzer   *StateAnalyzer
	classifier *IssueClassifier
	narrower   *CaseNarrower
	formulator *ReplyFormulator
	policy     *EscalationPolicy
	cfg        Config
	logger     *log.Logger
}

// NewEngine wires the pipeline stages around the two gateways
func NewEngine(completion CompletionGateway, retrieval RetrievalGateway, cfg Config, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	questions := NewQuestionSelector(completion, retrieval, cfg, logger)
	solutions := NewSolutionComposer(completion, retrieval, cfg, logger)
	return &Engine{
		analyzer:   NewStateAnalyzer(completion, cfg, logger),
		classifier: NewIssueClassifier(completion, retrieval, cfg, logger),
		narrower:   NewCaseNarrower(completion, retrieval, cfg, logger),
		formulator: NewReplyFormulator(completion, questions, solutions, cfg, logger),
		policy:     NewEscalationPolicy(cfg, logger),
		cfg:        cfg,
		logger:     logger,
	}
}

// nextStage is the pure routing function: given the state after a stage
// has run, it decides which stage executes next. Escalation and error
// flags both route to the terminal stage, which owns all user-facing text.
func nextStage(s *State) Stage {
	switch Stage(s.LastNode) {
	case StageStateAnalyzer:
		if s.NeedsEscalation || s.ErrorFlag == ErrFlagTimeout {
			return StageReplyFormulator
		}
		if s.CurrentIssue == "" {
			return StageIssueClassifier
		}
		return StageCaseNarrower
	case StageIssueClassifier:
		if s.CurrentIssue != "" && !s.NeedsEscalation && s.ErrorFlag == "" {
			return StageCaseNarrower
		}
		return StageReplyFormulator
	case StageCaseNarrower:
		return StageReplyFormulator
	case StageReplyFormulator:
		return StageDone
	default:
		return StageStateAnalyzer
	}
}

// RunTurn processes one inbound message end to end. The state is mutated
// in place; on return FinalResponse is guaranteed non-empty. The listener
// may be nil.
func (e *Engine) RunTurn(ctx context.Context, state *State, message string, listener Listener) error {
	state.BeginTurn(message)

	ctx, cancel := context.WithTimeout(ctx, e.cfg.TurnTimeout)
	defer cancel()

	e.logger.Printf("[TURN %d] session=%s message=%q", state.ConversationTurn, state.SessionID, truncate(message, 80))

	stage := StageStateAnalyzer
	for stage != StageDone {
		state.EnterStage(stage)
		emit(listener, Event{Node: string(stage), Status: StatusStarted})

		e.runStage(ctx, stage, state)

		// A blown turn budget counts as a gateway error for the stage in
		// flight; the terminal stage still runs to phrase the reply.
		if stage != StageReplyFormulator && ctx.Err() != nil {
			e.logger.Printf("[TIMEOUT] stage=%s session=%s", stage, state.SessionID)
			state.SetErrorFlag(ErrFlagTimeout)
		}

		e.policy.Apply(state)
		emit(listener, Event{Node: string(stage), Status: StatusFinished})
		stage = nextStage(state)
	}

	if state.FinalResponse == "" {
		state.FinalResponse = e.cfg.GenericFallback
	}
	state.AppendBotTurn(state.FinalResponse)

	e.logger.Printf("[TURN %d] done session=%s issue=%q case=%q flag=%q error=%q escalated=%v",
		state.ConversationTurn, state.SessionID, state.CurrentIssue, state.CurrentCase,
		state.Flag, state.ErrorFlag, state.NeedsEscalation)

	return nil
}

func (e *Engine) runStage(ctx context.Context, stage Stage, state *State) {
	switch stage {
	case StageStateAnalyzer:
		e.analyzer.Run(ctx, state)
	case StageIssueClassifier:
		e.classifier.Run(ctx, state)
	case StageCaseNarrower:
		e.narrower.Run(ctx, state)
	case StageReplyFormulator:
		// The terminal stage gets a fresh grace window so a turn that
		// timed out mid-pipeline can still phrase its reply.
		if ctx.Err() != nil {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(context.WithoutCancel(ctx), e.cfg.TurnTimeout)
			defer cancel()
		}
		e.formulator.Run(ctx, state)
	}
}

func emit(listener Listener, ev Event) {
	if listener != nil {
		listener(ev)
	}
}

// isTimeout reports whether a gateway error was caused by the turn budget
func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
