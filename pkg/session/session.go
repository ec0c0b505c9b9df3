// Package session owns the WebSocket connection lifecycle for a single
// interview: the read loop, frame decode/dispatch into an
// orchestrator.Orchestrator, and serialized outbound writes. It is
// adapted from the teacher's pkg/events.ConnectionManager/Connection
// pair, stripped of that type's multi-channel Postgres LISTEN/NOTIFY
// pub-sub and catchup machinery — this domain has no fan-out to model:
// one Orchestrator binds to exactly one connection for its lifetime
// (spec §4's "C3 is a stateless struct bound to one session
// connection"), so there are no channels to subscribe to and no
// catchup query to run.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/coder/websocket"

	"github.com/candidflow/interviewer/pkg/audio"
	"github.com/candidflow/interviewer/pkg/orchestrator"
	"github.com/candidflow/interviewer/pkg/pipeline"
	"github.com/candidflow/interviewer/pkg/ports"
	"github.com/candidflow/interviewer/pkg/protocol"
)

// WriteTimeout bounds how long a single outbound frame write may
// block, mirroring the teacher's ConnectionManager.writeTimeout field
// (here a constant since a Session owns exactly one connection rather
// than a pool of them).
const WriteTimeout = 10 * time.Second

// audioTracker is the subset of protocol's chunk tracker this package
// depends on. Declared locally because protocol.NewAudioChunkTracker
// returns a pointer to an unexported type; any type implementing these
// two exported methods satisfies it.
type audioTracker interface {
	DecodeAudioChunk(data []byte) (*protocol.AudioChunkPayload, error)
	Reset()
}

// Session drives one WebSocket connection end to end. Construct one
// per upgraded connection and discard it on disconnect — no
// process-wide session cache, per spec §9.
type Session struct {
	id   string
	conn *websocket.Conn
	orch *orchestrator.Orchestrator

	tracker         audioTracker
	audioBuf        []byte
	audioQuestionID string
}

// New constructs a Session bound to conn and orch.
func New(id string, conn *websocket.Conn, orch *orchestrator.Orchestrator) *Session {
	return &Session{id: id, conn: conn, orch: orch, tracker: protocol.NewAudioChunkTracker()}
}

// Run executes the read loop until the client closes the connection,
// ctx is cancelled, or a terminal frame (cancel) is processed. Every
// decode or domain failure is mapped to an outbound error frame; only
// protocol-terminal outcomes stop the loop.
func (s *Session) Run(ctx context.Context) {
	defer func() {
		_ = s.conn.Close(websocket.StatusNormalClosure, "")
	}()

	s.sendJSON(ctx, map[string]string{"type": "connection.established", "connection_id": s.id})

	for {
		_, data, err := s.conn.Read(ctx)
		if err != nil {
			return
		}

		msgType, raw, err := protocol.DecodeInbound(data)
		if err != nil {
			s.sendError(ctx, err)
			continue
		}

		frames, terminal, err := s.dispatch(ctx, msgType, raw)
		if err != nil {
			s.sendError(ctx, err)
			continue
		}
		for _, f := range frames {
			if !s.send(ctx, f) {
				return
			}
		}
		if terminal {
			return
		}
	}
}

// dispatch routes one decoded inbound frame to the orchestrator and
// returns the outbound frames to send, whether the connection should
// close after this turn (cancel only), and any error encountered.
func (s *Session) dispatch(ctx context.Context, msgType string, raw []byte) ([]*protocol.Frame, bool, error) {
	switch msgType {
	case protocol.TypeStartSession:
		frame, err := s.orch.StartSession(ctx)
		if err != nil {
			return nil, false, err
		}
		return []*protocol.Frame{frame}, false, nil

	case protocol.TypeGetNextQuestion:
		frame, err := s.orch.GetNextQuestion(ctx)
		if err != nil {
			return nil, false, err
		}
		return []*protocol.Frame{frame}, false, nil

	case protocol.TypeTextAnswer:
		payload, err := protocol.DecodeTextAnswer(raw)
		if err != nil {
			return nil, false, err
		}
		frames, err := s.orch.AnswerTurn(ctx, pipeline.Input{QuestionID: payload.QuestionID, Text: payload.AnswerText})
		return frames, false, err

	case protocol.TypeAudioChunk:
		return s.dispatchAudioChunk(ctx, raw)

	case protocol.TypeRequestRetry:
		var payload protocol.RequestRetryPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, false, &protocol.ValidationError{Field: "request_retry", Message: "malformed payload"}
		}
		frame, err := s.orch.RequestRetry(ctx, payload.Of)
		if err != nil {
			return nil, false, err
		}
		return []*protocol.Frame{frame}, false, nil

	case protocol.TypeCancel:
		// handle_cancel: aggregate.cancel(), persist, emit nothing further.
		if err := s.orch.Cancel(ctx); err != nil {
			return nil, false, err
		}
		return nil, true, nil

	default:
		return nil, false, &protocol.ValidationError{Field: "type", Message: "unhandled type: " + msgType}
	}
}

// dispatchAudioChunk accumulates chunk bytes for the in-flight answer
// and runs the turn only once is_final arrives.
func (s *Session) dispatchAudioChunk(ctx context.Context, raw []byte) ([]*protocol.Frame, bool, error) {
	chunk, err := s.tracker.DecodeAudioChunk(raw)
	if err != nil {
		return nil, false, err
	}
	if err := audio.ValidateChunkSize(chunk.Audio); err != nil {
		return nil, false, &protocol.AudioFormatUnsupportedError{Format: chunk.Format, Reason: err.Error()}
	}
	if chunk.Format == "wav" && chunk.IsFinal {
		if _, err := audio.ValidateWAV(append(append([]byte{}, s.audioBuf...), chunk.Audio...)); err != nil {
			return nil, false, &protocol.AudioFormatUnsupportedError{Format: chunk.Format, Reason: err.Error()}
		}
	}

	if chunk.QuestionID != s.audioQuestionID {
		s.audioBuf = nil
		s.audioQuestionID = chunk.QuestionID
	}
	s.audioBuf = append(s.audioBuf, chunk.Audio...)

	if !chunk.IsFinal {
		return nil, false, nil
	}

	audio := s.audioBuf
	format := chunk.Format
	questionID := chunk.QuestionID
	s.audioBuf = nil
	s.audioQuestionID = ""
	s.tracker.Reset()

	frames, err := s.orch.AnswerTurn(ctx, pipeline.Input{QuestionID: questionID, Audio: audio, AudioFormat: format})
	return frames, false, err
}

func (s *Session) sendError(ctx context.Context, err error) {
	frame := protocol.MapError(err, adapterHint(err))
	s.send(ctx, &protocol.Frame{Type: protocol.TypeError, Data: frame})
}

// adapterHint extracts which external adapter failed, if any, directly
// from the error's Adapter field rather than guessing from the inbound
// message type.
func adapterHint(err error) string {
	var transient *ports.TransientError
	if errors.As(err, &transient) {
		return transient.Adapter
	}
	var permanent *ports.PermanentError
	if errors.As(err, &permanent) {
		return permanent.Adapter
	}
	return ""
}

func (s *Session) send(ctx context.Context, frame *protocol.Frame) bool {
	data, err := json.Marshal(frame)
	if err != nil {
		slog.Error("session: failed to marshal outbound frame", "connection_id", s.id, "error", err)
		return true
	}
	return s.writeRaw(ctx, data)
}

func (s *Session) sendJSON(ctx context.Context, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("session: failed to marshal outbound message", "connection_id", s.id, "error", err)
		return
	}
	s.writeRaw(ctx, data)
}

func (s *Session) writeRaw(ctx context.Context, data []byte) bool {
	writeCtx, cancel := context.WithTimeout(ctx, WriteTimeout)
	defer cancel()
	if err := s.conn.Write(writeCtx, websocket.MessageText, data); err != nil {
		slog.Warn("session: failed to write outbound frame", "connection_id", s.id, "error", err)
		return false
	}
	return true
}
