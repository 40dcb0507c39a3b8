package controller

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"voc-chatbot-be/internal/dto"
)

type stubChatService struct {
	stream func(ctx context.Context, req *dto.SendMessageRequest, emit func(dto.NodeEvent)) (*dto.SendMessageResponse, error)
}

func (s *stubChatService) SendMessage(ctx context.Context, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error) {
	return s.stream(ctx, req, nil)
}

func (s *stubChatService) StreamMessage(ctx context.Context, req *dto.SendMessageRequest, emit func(dto.NodeEvent)) (*dto.SendMessageResponse, error) {
	return s.stream(ctx, req, emit)
}

func (s *stubChatService) GetHistory(ctx context.Context, sessionId string) ([]*dto.TurnHistoryResponse, error) {
	return nil, nil
}

func (s *stubChatService) ResetSession(ctx context.Context, sessionId string) error {
	return nil
}

// brokenWriter fails every write, standing in for a peer that hung up.
type brokenWriter struct{ writes int }

func (w *brokenWriter) WriteJSON(v interface{}) error {
	w.writes++
	return errors.New("broken pipe")
}

type recordingWriter struct{ frames []interface{} }

func (w *recordingWriter) WriteJSON(v interface{}) error {
	w.frames = append(w.frames, v)
	return nil
}

func streamFrame(t *testing.T) []byte {
	t.Helper()
	raw, err := json.Marshal(dto.SendMessageRequest{SessionId: "sess-1", Message: "my card was charged twice"})
	if err != nil {
		t.Fatal(err)
	}
	return raw
}

func TestStreamFrameCancelsTurnWhenPeerGone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cancelled := make(chan struct{}, 1)
	svc := &stubChatService{
		stream: func(ctx context.Context, req *dto.SendMessageRequest, emit func(dto.NodeEvent)) (*dto.SendMessageResponse, error) {
			emit(dto.NodeEvent{Node: "state_analyzer", Status: "started"})
			select {
			case <-ctx.Done():
				cancelled <- struct{}{}
				return nil, ctx.Err()
			case <-time.After(2 * time.Second):
				return &dto.SendMessageResponse{}, nil
			}
		},
	}

	c := &chatController{service: svc}
	c.handleStreamFrame(ctx, cancel, &brokenWriter{}, streamFrame(t))

	select {
	case <-cancelled:
	default:
		t.Fatal("in-flight turn kept running after the peer disconnected")
	}
}

func TestStreamFrameDeliversEventsAndResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := &stubChatService{
		stream: func(ctx context.Context, req *dto.SendMessageRequest, emit func(dto.NodeEvent)) (*dto.SendMessageResponse, error) {
			emit(dto.NodeEvent{Node: "state_analyzer", Status: "started"})
			emit(dto.NodeEvent{Node: "state_analyzer", Status: "finished"})
			return &dto.SendMessageResponse{
				SessionId: req.SessionId,
				Response:  "Let me check that for you.",
			}, nil
		},
	}

	c := &chatController{service: svc}
	w := &recordingWriter{}
	c.handleStreamFrame(ctx, cancel, w, streamFrame(t))

	if len(w.frames) != 3 {
		t.Fatalf("got %d frames, want 2 node events plus the result", len(w.frames))
	}
	result, ok := w.frames[2].(dto.StreamResult)
	if !ok {
		t.Fatalf("last frame is %T, want StreamResult", w.frames[2])
	}
	if result.Response == "" || result.Error != "" {
		t.Errorf("unexpected terminal frame: %+v", result)
	}
	if ctx.Err() != nil {
		t.Error("healthy stream must not cancel the connection context")
	}
}

func TestStreamFrameRejectsInvalidPayload(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := &stubChatService{
		stream: func(ctx context.Context, req *dto.SendMessageRequest, emit func(dto.NodeEvent)) (*dto.SendMessageResponse, error) {
			t.Fatal("service invoked for an invalid frame")
			return nil, nil
		},
	}

	c := &chatController{service: svc}
	w := &recordingWriter{}
	c.handleStreamFrame(ctx, cancel, w, []byte(`{"session_id": ""}`))

	if len(w.frames) != 1 {
		t.Fatalf("got %d frames, want a single error frame", len(w.frames))
	}
	if result := w.frames[0].(dto.StreamResult); result.Error == "" {
		t.Error("invalid frame must produce an error result")
	}
}
