package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/voxhire/voxhire/internal/config"
	encmock "github.com/voxhire/voxhire/internal/encoder/mock"
	"github.com/voxhire/voxhire/internal/interview"
	llmmock "github.com/voxhire/voxhire/pkg/provider/llm/mock"
	sttmock "github.com/voxhire/voxhire/pkg/provider/stt/mock"
	ttsmock "github.com/voxhire/voxhire/pkg/provider/tts/mock"
	vadmock "github.com/voxhire/voxhire/pkg/provider/vad/mock"
)

const (
	openingQuestion = `{"type": "Question", "text": "Tell me about yourself."}`
	followUp        = `{"type": "Question", "text": "What was your hardest bug?"}`
)

type testEnv struct {
	srv   *Server
	ts    *httptest.Server
	store *interview.MemStore
	llm   *llmmock.Client
	token string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := newAuthStore(t)
	llmClient := &llmmock.Client{Responses: []string{openingQuestion, followUp}}

	srv, err := New(Config{
		ListenAddr: "127.0.0.1:0",
		Session: config.SessionConfig{
			SilenceThreshold: config.Duration(10 * time.Second),
			CheckInterval:    config.Duration(5 * time.Millisecond),
			SampleRate:       16000,
			FrameSamples:     4,
			AnswerSpeedup:    1.0,
			OutputDir:        t.TempDir(),
		},
		Store: store,
		Providers: Providers{
			Questioner:  llmClient,
			Transcriber: &sttmock.Transcriber{Texts: []string{"I shipped a compiler."}},
			Synthesizer: &ttsmock.Synthesizer{Audio: []byte{0xAA, 0xBB}},
			VAD:         &vadmock.Engine{SessionResult: &vadmock.Session{}},
			Encoder:     &encmock.Encoder{},
		},
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	ts := httptest.NewServer(srv.httpSrv.Handler)
	t.Cleanup(ts.Close)

	return &testEnv{
		srv:   srv,
		ts:    ts,
		store: store,
		llm:   llmClient,
		token: signToken(t, "iv-7", candidateSecret),
	}
}

func (e *testEnv) dial(t *testing.T, ctx context.Context, token, email string) (*websocket.Conn, *http.Response) {
	t.Helper()
	url := e.ts.URL + "/ws?interviewToken=" + token + "&email=" + email
	conn, resp, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, resp
	}
	return conn, resp
}

// readMessage reads one text frame and returns the decoded type plus raw JSON.
func readMessage(t *testing.T, ctx context.Context, conn *websocket.Conn) (string, []byte) {
	t.Helper()
	typ, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("reading websocket message: %v", err)
	}
	if typ != websocket.MessageText {
		t.Fatalf("message type = %v, want text", typ)
	}
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		t.Fatalf("decoding message: %v", err)
	}
	return envelope.Type, data
}

func writeJSON(t *testing.T, ctx context.Context, conn *websocket.Conn, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("encoding message: %v", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		t.Fatalf("writing message: %v", err)
	}
}

func TestServer_InterviewOverWebsocket(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, _ := env.dial(t, ctx, env.token, "grace@example.com")
	if conn == nil {
		t.Fatal("dial failed")
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	// Opening question arrives unprompted.
	typ, data := readMessage(t, ctx, conn)
	if typ != msgChat {
		t.Fatalf("first message type = %q, want chat", typ)
	}
	var chat chatMessage
	if err := json.Unmarshal(data, &chat); err != nil {
		t.Fatalf("decoding chat: %v", err)
	}
	if chat.Message != "Tell me about yourself." {
		t.Errorf("opening question = %q", chat.Message)
	}
	audio, err := base64.StdEncoding.DecodeString(chat.Audio)
	if err != nil || len(audio) != 2 {
		t.Errorf("chat audio = %q, want 2 synthesized bytes", chat.Audio)
	}

	// Start answering.
	writeJSON(t, ctx, conn, clientMessage{Type: msgResponding, Listening: true})
	typ, data = readMessage(t, ctx, conn)
	if typ != msgRespondingAck {
		t.Fatalf("message type = %q, want responding_ack", typ)
	}
	var ack respondingAckMessage
	json.Unmarshal(data, &ack)
	if !ack.Listening {
		t.Error("ack.listening = false, want true")
	}

	// Stream a little microphone audio, tagged as an audio frame.
	frame := append([]byte{frameAudio}, make([]byte, 64)...)
	if err := conn.Write(ctx, websocket.MessageBinary, frame); err != nil {
		t.Fatalf("writing audio frame: %v", err)
	}

	// Stop answering; the next question follows.
	writeJSON(t, ctx, conn, clientMessage{Type: msgResponding, Listening: false})
	typ, data = readMessage(t, ctx, conn)
	if typ != msgChat {
		t.Fatalf("message type = %q, want chat", typ)
	}
	json.Unmarshal(data, &chat)
	if chat.Message != "What was your hardest bug?" {
		t.Errorf("follow-up question = %q", chat.Message)
	}
	typ, _ = readMessage(t, ctx, conn)
	if typ != msgRespondingAck {
		t.Fatalf("message type = %q, want responding_ack", typ)
	}

	// Dropping the connection tears the session down and persists results.
	conn.Close(websocket.StatusNormalClosure, "done")

	deadline := time.Now().Add(5 * time.Second)
	for {
		rec, err := env.store.Get(context.Background(), "iv-7")
		if err != nil {
			t.Fatalf("Get() error: %v", err)
		}
		if rec.Transcript != nil {
			if rec.Completed {
				t.Error("disconnected interview marked completed")
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("results never persisted after disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}

	// Session removed from the registry once teardown finished.
	deadline = time.Now().Add(5 * time.Second)
	for env.srv.Registry().Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("session never removed from registry")
		}
		time.Sleep(10 * time.Millisecond)
	}

	// The transcribed answer reached the question model.
	if env.llm.CallCount() < 2 {
		t.Fatalf("llm calls = %d, want at least 2", env.llm.CallCount())
	}
	req := env.llm.Requests[1]
	last := req.Messages[len(req.Messages)-1]
	if last.Content != "I shipped a compiler." {
		t.Errorf("answer seen by model = %q", last.Content)
	}
}

func TestServer_RejectsBadCredentials(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tests := []struct {
		name       string
		token      string
		email      string
		wantStatus int
	}{
		{"bad token", "garbage", "grace@example.com", http.StatusUnauthorized},
		{"wrong email", env.token, "mallory@example.com", http.StatusForbidden},
		{"missing credentials", "", "", http.StatusUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			conn, resp := env.dial(t, ctx, tc.token, tc.email)
			if conn != nil {
				conn.Close(websocket.StatusNormalClosure, "")
				t.Fatal("dial succeeded with bad credentials")
			}
			if resp == nil || resp.StatusCode != tc.wantStatus {
				t.Errorf("status = %v, want %d", resp, tc.wantStatus)
			}
		})
	}
}

func TestServer_HealthAndMetricsEndpoints(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		resp, err := http.Get(env.ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, resp.StatusCode)
		}
	}
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	valid := func() Config {
		return Config{
			ListenAddr: ":0",
			Store:      interview.NewMemStore(),
			Providers: Providers{
				Questioner: &llmmock.Client{},
				VAD:        &vadmock.Engine{SessionResult: &vadmock.Session{}},
			},
		}
	}

	if _, err := New(valid()); err != nil {
		t.Fatalf("New() with valid config: %v", err)
	}

	mutations := map[string]func(*Config){
		"listen addr": func(c *Config) { c.ListenAddr = "" },
		"store":       func(c *Config) { c.Store = nil },
		"llm":         func(c *Config) { c.Providers.Questioner = nil },
		"vad":         func(c *Config) { c.Providers.VAD = nil },
	}
	for name, mutate := range mutations {
		cfg := valid()
		mutate(&cfg)
		if _, err := New(cfg); err == nil {
			t.Errorf("New() with missing %s should fail", name)
		}
	}
}
