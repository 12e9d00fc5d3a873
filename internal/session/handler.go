// Package session orchestrates one candidate's live interview: it turns the
// inbound audio/video stream into turn-based dialogue, drives the question
// pipeline, and persists the results when the session ends.
//
// Concurrency model: each session runs a single event task that processes
// inbound events strictly in arrival order, plus one timer task for the
// periodic silence check. The timer is the only source of concurrency within
// a session; the [TurnGate] makes the two turn-advance triggers mutually
// exclusive. Across sessions nothing is shared except the [Registry].
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/voxhire/voxhire/internal/artifact"
	"github.com/voxhire/voxhire/internal/dialogue"
	"github.com/voxhire/voxhire/internal/encoder"
	"github.com/voxhire/voxhire/internal/interview"
	"github.com/voxhire/voxhire/internal/media"
	"github.com/voxhire/voxhire/internal/observe"
	"github.com/voxhire/voxhire/pkg/provider/stt"
	"github.com/voxhire/voxhire/pkg/provider/tts"
	"github.com/voxhire/voxhire/pkg/provider/vad"
)

// State is the lifecycle state of a session.
type State int

const (
	// Connecting covers auth and delivery of the opening question.
	Connecting State = iota

	// Active means the session is processing inbound events.
	Active

	// Ending means teardown is in progress.
	Ending

	// Ended is terminal.
	Ended
)

// String returns the state name for logs.
func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Active:
		return "active"
	case Ending:
		return "ending"
	case Ended:
		return "ended"
	default:
		return "unknown"
	}
}

// ChatEvent is an outbound interviewer utterance with optional speech audio.
type ChatEvent struct {
	Message        string
	Role           string
	InterviewEnded bool
	Audio          []byte
}

// Transport delivers outbound events to the candidate's client.
type Transport interface {
	// SendChat delivers an interviewer utterance.
	SendChat(ctx context.Context, chat ChatEvent) error

	// SendRespondingAck confirms a listening-state change. reason is empty
	// for candidate-initiated changes.
	SendRespondingAck(ctx context.Context, listening bool, reason string) error
}

// Config wires one session's collaborators and tuning.
type Config struct {
	// SessionID identifies this connection, distinct from the interview ID
	// so a candidate reconnecting produces a separate artifact set.
	SessionID string

	// Record is the resolved interview this session runs.
	Record *interview.Record

	// Store persists lifecycle flags and final results.
	Store interview.Store

	// Dialogue drives the interviewer conversation.
	Dialogue *dialogue.Controller

	// Transcriber converts answer audio to text. May be nil; answers then
	// transcribe as empty text.
	Transcriber stt.Transcriber

	// Synthesizer produces speech for questions. May be nil; questions are
	// then delivered as text only.
	Synthesizer tts.Synthesizer

	// VAD detects speech in the inbound audio stream.
	VAD vad.Engine

	// Encoder converts recorded camera bytes to a playable video. May be
	// nil; the raw file is still written.
	Encoder encoder.Encoder

	// Transport delivers outbound events.
	Transport Transport

	// Metrics records pipeline instrumentation. May be nil.
	Metrics *observe.Metrics

	// Logger is the session logger. Defaults to slog.Default.
	Logger *slog.Logger

	// SilenceThreshold is how long the candidate may stay silent while
	// answering before the turn advances automatically.
	SilenceThreshold time.Duration

	// CheckInterval is how often the silence threshold is evaluated.
	CheckInterval time.Duration

	// SampleRate and FrameSamples describe the inbound PCM stream.
	SampleRate   int
	FrameSamples int

	// AnswerSpeedup is applied to answer audio before transcription.
	AnswerSpeedup float64

	// OutputDir is the base directory for session artifacts.
	OutputDir string

	// OnClose is invoked exactly once when the session is torn down, after
	// results are persisted. Used for registry removal. May be nil.
	OnClose func(sessionID string)
}

type eventKind int

const (
	evAudio eventKind = iota
	evVideo
	evResponding
	evSilence
	evDisconnect
)

type event struct {
	kind      eventKind
	data      []byte
	listening bool
}

// Handler runs one interview session.
type Handler struct {
	cfg Config
	log *slog.Logger

	gate     *TurnGate
	detector *speechDetector

	answerAudio media.Buffer
	totalAudio  media.Buffer
	video       media.Buffer

	artifacts *artifact.Writer

	events chan event
	done   chan struct{}

	tickerStop chan struct{}
	tickerDone chan struct{}

	state     State
	completed bool
	tornDown  bool
}

// teardownTimeout bounds collaborator calls during teardown so a hung
// feedback service cannot leak the session forever.
const teardownTimeout = 60 * time.Second

// New creates a Handler. The session does no work until [Handler.Run].
func New(cfg Config) (*Handler, error) {
	if cfg.SessionID == "" {
		return nil, errors.New("session: SessionID is required")
	}
	if cfg.Record == nil {
		return nil, errors.New("session: Record is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("session: Store is required")
	}
	if cfg.Dialogue == nil {
		return nil, errors.New("session: Dialogue is required")
	}
	if cfg.VAD == nil {
		return nil, errors.New("session: VAD is required")
	}
	if cfg.Transport == nil {
		return nil, errors.New("session: Transport is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	detector, err := newSpeechDetector(cfg.VAD, cfg.SampleRate, cfg.FrameSamples)
	if err != nil {
		return nil, err
	}
	artifacts, err := artifact.NewWriter(cfg.OutputDir, cfg.Record.ID, cfg.SessionID)
	if err != nil {
		detector.Close()
		return nil, err
	}

	return &Handler{
		cfg:        cfg,
		log:        cfg.Logger.With("session_id", cfg.SessionID, "interview_id", cfg.Record.ID),
		gate:       NewTurnGate(),
		detector:   detector,
		artifacts:  artifacts,
		events:     make(chan event, 256),
		done:       make(chan struct{}),
		tickerStop: make(chan struct{}),
		tickerDone: make(chan struct{}),
	}, nil
}

// State returns the session lifecycle state. Only advisory outside the event
// task.
func (h *Handler) State() State {
	return h.state
}

// ─── Inbound event posting ───────────────────────────────────────────────────

// HandleAudio posts a microphone chunk. Chunks are dropped when the session
// is overwhelmed or gone; audio is a stream, not a ledger.
func (h *Handler) HandleAudio(chunk []byte) {
	cp := make([]byte, len(chunk))
	copy(cp, chunk)
	select {
	case h.events <- event{kind: evAudio, data: cp}:
	case <-h.done:
	default:
	}
}

// HandleVideo posts a camera chunk. Same drop policy as audio.
func (h *Handler) HandleVideo(chunk []byte) {
	cp := make([]byte, len(chunk))
	copy(cp, chunk)
	select {
	case h.events <- event{kind: evVideo, data: cp}:
	case <-h.done:
	default:
	}
}

// HandleResponding posts a listening-state toggle. Never dropped while the
// session lives.
func (h *Handler) HandleResponding(listening bool) {
	select {
	case h.events <- event{kind: evResponding, listening: listening}:
	case <-h.done:
	}
}

// Disconnect signals transport loss. Safe to call from any goroutine, any
// number of times.
func (h *Handler) Disconnect() {
	select {
	case h.events <- event{kind: evDisconnect}:
	case <-h.done:
	}
}

// ─── Lifecycle ───────────────────────────────────────────────────────────────

// Run executes the session until the interview ends or the transport
// disconnects. It must be called exactly once. Teardown has completed when
// Run returns.
func (h *Handler) Run(ctx context.Context) error {
	defer close(h.done)

	h.state = Connecting
	h.log.Info("session connecting", "candidate", h.cfg.Record.CandidateName)

	// The timer task runs for the whole session lifetime; while no answer is
	// in progress the gate reports no silence and the ticks are no-ops.
	go h.silenceLoop()

	if err := h.cfg.Store.MarkStarted(ctx, h.cfg.Record.ID); err != nil {
		// Not fatal: the interview can still run, only the flag is stale.
		h.log.Warn("marking interview started failed", "error", err)
		h.cfg.Metrics.RecordProviderError(ctx, "store")
	}

	ended, err := h.deliverOpeningQuestion(ctx)
	if err != nil {
		h.log.Error("opening question failed", "error", err)
		h.teardown(ctx)
		return err
	}
	if ended {
		h.teardown(ctx)
		return nil
	}

	h.state = Active
	h.cfg.Metrics.SessionStarted(ctx)
	h.log.Info("session active")

	for {
		select {
		case <-ctx.Done():
			h.log.Info("session context cancelled")
			h.teardown(ctx)
			return nil
		case ev := <-h.events:
			if h.dispatch(ctx, ev) {
				h.teardown(ctx)
				return nil
			}
		}
	}
}

// dispatch processes one inbound event. Returns true when the session should
// tear down.
func (h *Handler) dispatch(ctx context.Context, ev event) (done bool) {
	switch ev.kind {
	case evAudio:
		h.handleAudio(ev.data)
	case evVideo:
		if h.gate.Listening() {
			h.video.Append(ev.data)
		}
	case evResponding:
		return h.handleResponding(ctx, ev.listening)
	case evSilence:
		return h.handleSilence(ctx)
	case evDisconnect:
		h.log.Info("transport disconnected")
		return true
	}
	return false
}

func (h *Handler) handleAudio(chunk []byte) {
	// Pre-answer silence must never arm the timer, so Idle chunks are
	// dropped before they reach the detector.
	if !h.gate.Listening() {
		return
	}
	h.totalAudio.Append(chunk)
	h.answerAudio.Append(chunk)

	boundary, err := h.detector.Process(chunk)
	if err != nil {
		h.log.Warn("vad processing failed", "error", err)
		return
	}
	if boundary {
		h.gate.MarkSpeech()
	}
}

func (h *Handler) handleResponding(ctx context.Context, listening bool) bool {
	if listening {
		if h.gate.BeginResponse() {
			h.sendAck(ctx, true, "")
		} else {
			// A repeated start is rejected but still acknowledged, so the
			// client knows the answer in progress was left untouched.
			h.sendAck(ctx, true, "already responding")
		}
		return false
	}
	advanced, ended := h.advanceTurn(ctx, "explicit")
	if advanced && !ended {
		h.sendAck(ctx, false, "")
	}
	return ended
}

func (h *Handler) handleSilence(ctx context.Context) bool {
	advanced, ended := h.advanceTurn(ctx, "silence")
	if advanced && !ended {
		// The candidate did not stop the turn themselves; tell the client
		// the server did it for them.
		h.sendAck(ctx, false, "silence threshold exceeded")
	}
	return ended
}

// silenceLoop is the session's timer task. It posts a silence event whenever
// the threshold is exceeded; the event task performs the actual advance so
// events stay totally ordered.
func (h *Handler) silenceLoop() {
	defer close(h.tickerDone)

	ticker := time.NewTicker(h.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.tickerStop:
			return
		case <-ticker.C:
			if !h.gate.SilenceExceeded(h.cfg.SilenceThreshold) {
				continue
			}
			select {
			case h.events <- event{kind: evSilence}:
			case <-h.tickerStop:
				return
			default:
				// Event task is busy; the gate will drop the trigger anyway.
			}
		}
	}
}

// ─── Turn advancement ────────────────────────────────────────────────────────

// advanceTurn runs one turn advance end to end. advanced reports whether
// this call won the gate; ended reports that the interview finished and the
// session should tear down. Each step degrades locally: a failed
// transcription yields an empty answer, a failed synthesis still delivers
// the question as text.
func (h *Handler) advanceTurn(ctx context.Context, trigger string) (advanced, ended bool) {
	if !h.gate.TryAdvance() {
		return false, false
	}
	h.log.Debug("advancing turn", "trigger", trigger)

	answer := h.transcribeAnswer(ctx)

	llmStart := time.Now()
	ended, question, err := h.cfg.Dialogue.NextQuestion(ctx, answer)
	h.cfg.Metrics.RecordLLM(ctx, llmStart)
	if err != nil {
		// No question means nothing left to ask; end gracefully rather
		// than strand the candidate.
		h.log.Error("question generation failed, ending interview", "error", err)
		h.cfg.Metrics.RecordProviderError(ctx, "llm")
		ended, question = true, ""
	}

	if question != "" {
		h.deliverChat(ctx, question, ended)
	}

	h.gate.FinishAdvance()
	h.cfg.Metrics.RecordTurnAdvanced(ctx, trigger)

	if ended {
		h.completed = true
		h.log.Info("interview ended by model")
	}
	return true, ended
}

// transcribeAnswer drains the answer buffer, renders it to a sped-up WAV,
// and transcribes it. Every failure path returns the empty answer.
func (h *Handler) transcribeAnswer(ctx context.Context) string {
	pcm := h.answerAudio.SnapshotAndClear()
	wavPath := h.artifacts.Path(artifact.AnswerWAVFile)
	if err := media.WriteWAV(wavPath, pcm, h.cfg.SampleRate, h.cfg.AnswerSpeedup); err != nil {
		h.log.Warn("writing answer wav failed", "error", err)
		return ""
	}
	if h.cfg.Transcriber == nil {
		return ""
	}

	start := time.Now()
	text, err := h.cfg.Transcriber.Transcribe(ctx, wavPath)
	h.cfg.Metrics.RecordSTT(ctx, start)
	if err != nil {
		h.log.Warn("transcription failed, using empty answer", "error", err)
		h.cfg.Metrics.RecordProviderError(ctx, "stt")
		return ""
	}
	return text
}

// deliverOpeningQuestion issues the first question while Connecting.
func (h *Handler) deliverOpeningQuestion(ctx context.Context) (ended bool, err error) {
	start := time.Now()
	ended, question, err := h.cfg.Dialogue.OpeningQuestion(ctx)
	h.cfg.Metrics.RecordLLM(ctx, start)
	if err != nil {
		return false, fmt.Errorf("session: opening question: %w", err)
	}
	if question != "" {
		h.deliverChat(ctx, question, ended)
	}
	return ended, nil
}

// deliverChat synthesizes speech for an interviewer utterance and sends it.
// Synthesis failure downgrades to text-only delivery.
func (h *Handler) deliverChat(ctx context.Context, text string, ended bool) {
	var audio []byte
	if h.cfg.Synthesizer != nil {
		start := time.Now()
		var err error
		audio, err = h.cfg.Synthesizer.Synthesize(ctx, text)
		h.cfg.Metrics.RecordTTS(ctx, start)
		if err != nil {
			h.log.Warn("speech synthesis failed, sending text only", "error", err)
			h.cfg.Metrics.RecordProviderError(ctx, "tts")
			audio = nil
		}
	}

	chat := ChatEvent{
		Message:        text,
		Role:           dialogue.RoleAssistant,
		InterviewEnded: ended,
		Audio:          audio,
	}
	if err := h.cfg.Transport.SendChat(ctx, chat); err != nil {
		h.log.Warn("chat delivery failed", "error", err)
	}
}

func (h *Handler) sendAck(ctx context.Context, listening bool, reason string) {
	if err := h.cfg.Transport.SendRespondingAck(ctx, listening, reason); err != nil {
		h.log.Warn("responding ack delivery failed", "error", err)
	}
}

// ─── Teardown ────────────────────────────────────────────────────────────────

// teardown winds the session down exactly once: stop and await the timer
// task, flush media artifacts, collect feedback, persist results, and hand
// the session ID to OnClose. Every step is best-effort; nothing here may
// prevent registry removal.
func (h *Handler) teardown(ctx context.Context) {
	if h.tornDown {
		return
	}
	h.tornDown = true
	h.state = Ending
	h.log.Info("session teardown started", "completed", h.completed)

	// Teardown must survive the cancellation that triggered it.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), teardownTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			h.log.Error("panic during teardown", "panic", r)
		}
		h.state = Ended
		outcome := "disconnected"
		if h.completed {
			outcome = "completed"
		}
		h.cfg.Metrics.SessionFinished(ctx, outcome)
		if h.cfg.OnClose != nil {
			h.cfg.OnClose(h.cfg.SessionID)
		}
		h.log.Info("session teardown finished", "outcome", outcome)
	}()

	// The timer task must be gone before buffers are flushed, otherwise it
	// can trigger an advance mid-write.
	close(h.tickerStop)
	<-h.tickerDone

	if err := h.detector.Close(); err != nil {
		h.log.Warn("closing vad session failed", "error", err)
	}

	h.flushMedia(ctx)

	transcript, feedback := h.collectResults(ctx)
	h.persistResults(ctx, transcript, feedback)
}

// flushMedia writes the cumulative audio and video artifacts and invokes the
// external encoder.
func (h *Handler) flushMedia(ctx context.Context) {
	pcm := h.totalAudio.SnapshotAndClear()
	if err := media.WriteWAV(h.artifacts.Path(artifact.AudioFile), pcm, h.cfg.SampleRate, 1.0); err != nil {
		h.log.Warn("flushing session audio failed", "error", err)
	}

	raw := h.video.SnapshotAndClear()
	rawPath := h.artifacts.Path(artifact.RawVideoFile)
	if err := media.WriteRaw(rawPath, raw); err != nil {
		h.log.Warn("flushing session video failed", "error", err)
		return
	}
	if len(raw) == 0 || h.cfg.Encoder == nil {
		return
	}

	start := time.Now()
	err := h.cfg.Encoder.Encode(ctx, rawPath, h.artifacts.Path(artifact.VideoFile))
	h.cfg.Metrics.RecordEncode(ctx, start)
	if err != nil {
		h.log.Warn("video encoding failed, keeping raw file", "error", err)
		h.cfg.Metrics.RecordProviderError(ctx, "encode")
	}
}

// collectResults gathers the transcript and requests feedback.
func (h *Handler) collectResults(ctx context.Context) ([]dialogue.Turn, *dialogue.Feedback) {
	transcript := h.cfg.Dialogue.Turns()

	feedback, err := h.cfg.Dialogue.Feedback(ctx)
	if err != nil {
		h.log.Warn("feedback generation failed", "error", err)
		h.cfg.Metrics.RecordProviderError(ctx, "llm")
		feedback = &dialogue.Feedback{}
	}
	return transcript, feedback
}

// persistResults writes the transcript and feedback artifacts and hands the
// results to the interview store.
func (h *Handler) persistResults(ctx context.Context, transcript []dialogue.Turn, feedback *dialogue.Feedback) {
	if err := h.artifacts.WriteJSON(artifact.TranscriptFile, transcript); err != nil {
		h.log.Warn("writing transcript artifact failed", "error", err)
	}
	if err := h.artifacts.WriteJSON(artifact.FeedbackFile, feedback); err != nil {
		h.log.Warn("writing feedback artifact failed", "error", err)
	}

	transcriptJSON, err := json.Marshal(transcript)
	if err != nil {
		h.log.Error("encoding transcript failed", "error", err)
		return
	}
	feedbackJSON, err := json.Marshal(feedback)
	if err != nil {
		h.log.Error("encoding feedback failed", "error", err)
		return
	}

	res := interview.Results{
		Transcript: transcriptJSON,
		Feedback:   feedbackJSON,
		Completed:  h.completed,
	}
	if err := h.cfg.Store.SaveResults(ctx, h.cfg.Record.ID, res); err != nil {
		h.log.Error("saving interview results failed", "error", err)
		h.cfg.Metrics.RecordProviderError(ctx, "store")
	}
}
