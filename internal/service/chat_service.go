package service

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"time"

	"voc-chatbot-be/internal/constant"
	"voc-chatbot-be/internal/dto"
	"voc-chatbot-be/internal/pkg/mailer"
	"voc-chatbot-be/internal/repository/memory"
	"voc-chatbot-be/internal/repository/unitofwork"
	"voc-chatbot-be/pkg/events"
	"voc-chatbot-be/pkg/flow"
	pktNats "voc-chatbot-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

type IChatService interface {
	SendMessage(ctx context.Context, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error)
	StreamMessage(ctx context.Context, req *dto.SendMessageRequest, emit func(dto.NodeEvent)) (*dto.SendMessageResponse, error)
	GetHistory(ctx context.Context, sessionId string) ([]*dto.TurnHistoryResponse, error)
	ResetSession(ctx context.Context, sessionId string) error
}

type chatService struct {
	uowFactory      unitofwork.RepositoryFactory
	engine          *flow.Engine
	sessionRepo     *memory.SessionRepository
	redisClient     *redis.Client
	locker          sessionLocker
	pubSub          *gochannel.GoChannel
	eventPublisher  *pktNats.Publisher
	emailService    mailer.IEmailService
	escalationInbox string
	lockTTL         time.Duration
	pipelineLogger  *log.Logger
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	completion flow.CompletionGateway,
	retrieval flow.RetrievalGateway,
	flowConfig flow.Config,
	sessionRepo *memory.SessionRepository,
	redisClient *redis.Client,
	pubSub *gochannel.GoChannel,
	eventPublisher *pktNats.Publisher,
	emailService mailer.IEmailService,
	escalationInbox string,
) IChatService {
	pipelineLogger := initPipelineLogger()
	engine := flow.NewEngine(completion, retrieval, flowConfig, pipelineLogger)

	var locker sessionLocker
	if redisClient != nil {
		locker = newRedisSessionLock(redisClient)
	}

	return &chatService{
		uowFactory:      uowFactory,
		engine:          engine,
		sessionRepo:     sessionRepo,
		redisClient:     redisClient,
		locker:          locker,
		pubSub:          pubSub,
		eventPublisher:  eventPublisher,
		emailService:    emailService,
		escalationInbox: escalationInbox,
		lockTTL:         flowConfig.TurnTimeout + 5*time.Second,
		pipelineLogger:  pipelineLogger,
	}
}

func initPipelineLogger() *log.Logger {
	logPath := filepath.Join(".", "logs", "conversation.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		log.Printf("Failed to create logs directory: %v", err)
	}
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return log.New(os.Stdout, "[CONVERSATION] ", log.LstdFlags)
	}
	return log.New(file, "", log.LstdFlags)
}

func (cs *chatService) SendMessage(ctx context.Context, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error) {
	return cs.runTurn(ctx, req, nil)
}

func (cs *chatService) StreamMessage(ctx context.Context, req *dto.SendMessageRequest, emit func(dto.NodeEvent)) (*dto.SendMessageResponse, error) {
	var listener flow.Listener
	if emit != nil {
		listener = func(ev flow.Event) {
			emit(dto.NodeEvent{Node: ev.Node, Status: ev.Status})
		}
	}
	return cs.runTurn(ctx, req, listener)
}

func (cs *chatService) runTurn(ctx context.Context, req *dto.SendMessageRequest, listener flow.Listener) (*dto.SendMessageResponse, error) {
	unlock, err := cs.lockSession(ctx, req.SessionId)
	if err != nil {
		return nil, err
	}
	defer unlock()

	state, found := cs.sessionRepo.Get(req.SessionId)
	if !found {
		state = flow.NewState(req.SessionId)
	}

	wasEscalated := state.NeedsEscalation

	if err := cs.engine.RunTurn(ctx, state, req.Message, listener); err != nil {
		return nil, err
	}

	cs.sessionRepo.Save(state)

	cs.publishTurnCompleted(state, req.Message)

	if state.NeedsEscalation && !wasEscalated {
		cs.notifyEscalation(ctx, state)
	}

	return &dto.SendMessageResponse{
		SessionId: state.SessionID,
		Response:  state.FinalResponse,
		Metadata:  toTurnMetadata(state),
	}, nil
}

// lockPollInterval is how often a waiting turn re-checks the session lock.
const lockPollInterval = 100 * time.Millisecond

// lockSession serializes concurrent turns on one session. The redis lock
// covers multi-instance deployments; when redis is unreachable on the first
// attempt we fall back to a process-local mutex. A turn that cannot acquire
// the lock within the wait window is rejected with ErrSessionBusy; it must
// never run unlocked, because concurrent turns would race on the shared
// session state.
func (cs *chatService) lockSession(ctx context.Context, sessionId string) (func(), error) {
	if cs.locker != nil {
		key := constant.SessionLockPrefix + sessionId
		token := watermill.NewUUID()

		acquired, err := cs.locker.Acquire(ctx, key, token, cs.lockTTL)
		if err == nil {
			// Transient acquire errors during the wait count as not
			// acquired; the holder's lock is never presumed free.
			deadline := time.Now().Add(cs.lockTTL)
			for !acquired && time.Now().Before(deadline) {
				time.Sleep(lockPollInterval)
				if ok, pollErr := cs.locker.Acquire(ctx, key, token, cs.lockTTL); pollErr == nil && ok {
					acquired = true
				}
			}
			if !acquired {
				return nil, ErrSessionBusy
			}
			return func() {
				// Token-guarded delete: an expired holder must not release
				// a lock that has since passed to another turn.
				if err := cs.locker.Release(context.Background(), key, token); err != nil {
					cs.pipelineLogger.Printf("[LOCK] Failed to release lock for session %s: %v", sessionId, err)
				}
			}, nil
		}
		cs.pipelineLogger.Printf("[LOCK] Redis unavailable, using local lock: %v", err)
	}

	mu := cs.sessionRepo.Lock(sessionId)
	mu.Lock()
	return mu.Unlock, nil
}

func (cs *chatService) publishTurnCompleted(state *flow.State, userMessage string) {
	payload := dto.TurnCompletedMessage{
		SessionId:        state.SessionID,
		Turn:             state.ConversationTurn,
		UserMessage:      userMessage,
		BotResponse:      state.FinalResponse,
		CurrentIssue:     state.CurrentIssue,
		CurrentCase:      state.CurrentCase,
		Confidence:       state.ClassificationConfidence,
		Flag:             state.Flag,
		ErrorFlag:        state.ErrorFlag,
		NeedsEscalation:  state.NeedsEscalation,
		EscalationReason: state.EscalationReason,
		RAGUsed:          state.RAGUsed,
		NodeHistory:      state.NodeHistory,
		CompletedAt:      time.Now(),
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		cs.pipelineLogger.Printf("[PUBLISH] Failed to marshal turn payload: %v", err)
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), raw)
	if err := cs.pubSub.Publish(constant.TopicTurnCompleted, msg); err != nil {
		cs.pipelineLogger.Printf("[PUBLISH] Failed to publish turn for session %s: %v", state.SessionID, err)
	}
}

func (cs *chatService) notifyEscalation(ctx context.Context, state *flow.State) {
	if cs.eventPublisher != nil {
		event := events.NewSessionEscalated(
			state.SessionID,
			state.EscalationReason,
			state.CurrentIssue,
			state.CurrentCase,
			state.ConversationTurn,
		)
		if err := cs.eventPublisher.Publish(ctx, event); err != nil {
			cs.pipelineLogger.Printf("[ESCALATION] Failed to publish event for session %s: %v", state.SessionID, err)
		}
	}

	if cs.emailService != nil && cs.escalationInbox != "" {
		alert := mailer.EscalationAlert{
			SessionID: state.SessionID,
			Reason:    state.EscalationReason,
			IssueType: state.CurrentIssue,
			CaseName:  state.CurrentCase,
			Turn:      state.ConversationTurn,
		}
		for _, u := range state.History {
			alert.Transcript = append(alert.Transcript, mailer.TranscriptLine{
				Role:    u.Role,
				Content: u.Content,
			})
		}
		// Mail delivery must never block the reply.
		go func() {
			if err := cs.emailService.SendEscalationAlert(cs.escalationInbox, alert); err != nil {
				cs.pipelineLogger.Printf("[ESCALATION] Failed to email alert for session %s: %v", alert.SessionID, err)
			}
		}()
	}
}

func (cs *chatService) GetHistory(ctx context.Context, sessionId string) ([]*dto.TurnHistoryResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)
	turns, err := uow.ConversationTurnRepository().FindBySession(ctx, sessionId)
	if err != nil {
		return nil, err
	}

	history := make([]*dto.TurnHistoryResponse, len(turns))
	for i, t := range turns {
		history[i] = &dto.TurnHistoryResponse{
			Turn:        t.Turn,
			UserMessage: t.UserMessage,
			BotResponse: t.BotResponse,
			CreatedAt:   t.CreatedAt,
		}
	}
	return history, nil
}

func (cs *chatService) ResetSession(ctx context.Context, sessionId string) error {
	cs.sessionRepo.Delete(sessionId)
	if cs.redisClient != nil {
		cs.redisClient.Del(ctx, constant.SessionLockPrefix+sessionId)
	}
	return nil
}

func toTurnMetadata(state *flow.State) dto.TurnMetadata {
	return dto.TurnMetadata{
		Turn:             state.ConversationTurn,
		CurrentIssue:     state.CurrentIssue,
		CurrentCase:      state.CurrentCase,
		Confidence:       state.ClassificationConfidence,
		Flag:             state.Flag,
		ErrorFlag:        state.ErrorFlag,
		NeedsEscalation:  state.NeedsEscalation,
		EscalationReason: state.EscalationReason,
		RAGUsed:          state.RAGUsed,
		NodeHistory:      state.NodeHistory,
	}
}
