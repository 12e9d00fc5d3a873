package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/voxhire/voxhire/internal/dialogue"
	"github.com/voxhire/voxhire/internal/session"
)

// wsTransport adapts a websocket connection to [session.Transport]. Writes
// are serialized by the session's event task, so no extra locking is needed.
type wsTransport struct {
	conn *websocket.Conn
}

var _ session.Transport = (*wsTransport)(nil)

// SendChat implements [session.Transport].
func (t *wsTransport) SendChat(ctx context.Context, chat session.ChatEvent) error {
	msg := chatMessage{
		Type:           msgChat,
		Message:        chat.Message,
		Role:           chat.Role,
		InterviewEnded: chat.InterviewEnded,
	}
	if len(chat.Audio) > 0 {
		msg.Audio = base64.StdEncoding.EncodeToString(chat.Audio)
	}
	return t.writeJSON(ctx, msg)
}

// SendRespondingAck implements [session.Transport].
func (t *wsTransport) SendRespondingAck(ctx context.Context, listening bool, reason string) error {
	return t.writeJSON(ctx, respondingAckMessage{
		Type:      msgRespondingAck,
		Listening: listening,
		Reason:    reason,
	})
}

func (t *wsTransport) writeJSON(ctx context.Context, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return t.conn.Write(ctx, websocket.MessageText, data)
}

// handleWS upgrades the connection and runs one interview session on it. The
// request goroutine becomes the session's event task; a second goroutine
// pumps inbound frames.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	rec, err := s.auth.Authenticate(ctx, q.Get("interviewToken"), q.Get("email"))
	if err != nil {
		s.log.Warn("websocket auth rejected", "error", err, "remote", r.RemoteAddr)
		status := http.StatusUnauthorized
		if errors.Is(err, ErrEmailMismatch) {
			status = http.StatusForbidden
		}
		http.Error(w, http.StatusText(status), status)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.cfg.AllowedOrigins,
	})
	if err != nil {
		s.log.Warn("websocket accept failed", "error", err)
		return
	}
	// Media frames can be large; the session drops what it cannot keep up
	// with, so no server-side cap beyond this.
	conn.SetReadLimit(maxFrameBytes)

	sessionID := uuid.NewString()

	scorer := s.cfg.Providers.Scorer
	if scorer == nil {
		scorer = s.cfg.Providers.Questioner
	}
	ctl := dialogue.NewController(
		s.cfg.Providers.Questioner,
		rec.CompanyName, rec.JobDescription, rec.CandidateName,
		dialogue.WithScorer(scorer),
		dialogue.WithLogger(s.log),
	)

	h, err := session.New(session.Config{
		SessionID:        sessionID,
		Record:           rec,
		Store:            s.cfg.Store,
		Dialogue:         ctl,
		Transcriber:      s.cfg.Providers.Transcriber,
		Synthesizer:      s.cfg.Providers.Synthesizer,
		VAD:              s.cfg.Providers.VAD,
		Encoder:          s.cfg.Providers.Encoder,
		Transport:        &wsTransport{conn: conn},
		Metrics:          s.cfg.Metrics,
		Logger:           s.log,
		SilenceThreshold: s.cfg.Session.SilenceThreshold.Std(),
		CheckInterval:    s.cfg.Session.CheckInterval.Std(),
		SampleRate:       s.cfg.Session.SampleRate,
		FrameSamples:     s.cfg.Session.FrameSamples,
		AnswerSpeedup:    s.cfg.Session.AnswerSpeedup,
		OutputDir:        s.cfg.Session.OutputDir,
		OnClose:          s.registry.Remove,
	})
	if err != nil {
		s.log.Error("session setup failed", "error", err, "interview_id", rec.ID)
		conn.Close(websocket.StatusInternalError, "session setup failed")
		return
	}
	if !s.registry.Add(sessionID, h) {
		s.log.Error("session id collision", "session_id", sessionID)
		conn.Close(websocket.StatusInternalError, "session setup failed")
		return
	}

	go s.readLoop(ctx, conn, h)

	if err := h.Run(ctx); err != nil {
		s.log.Error("session ended with error", "error", err, "session_id", sessionID)
	}
	conn.Close(websocket.StatusNormalClosure, "interview ended")
}

// readLoop pumps inbound websocket frames into the session until the
// connection dies. Transport loss is a disconnect, never an error.
func (s *Server) readLoop(ctx context.Context, conn *websocket.Conn, h *session.Handler) {
	defer h.Disconnect()

	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		switch typ {
		case websocket.MessageBinary:
			if len(data) < 2 {
				continue
			}
			switch data[0] {
			case frameAudio:
				h.HandleAudio(data[1:])
			case frameVideo:
				h.HandleVideo(data[1:])
			default:
				s.log.Debug("unknown binary frame tag", "tag", data[0])
			}
		case websocket.MessageText:
			var msg clientMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				s.log.Debug("malformed client message", "error", err)
				continue
			}
			if msg.Type == msgResponding {
				h.HandleResponding(msg.Listening)
			}
		}
	}
}
