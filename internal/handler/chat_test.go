package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/cleo-api/internal/llm"
	"github.com/yourusername/cleo-api/internal/model"
	"github.com/yourusername/cleo-api/internal/service"
)

func testCandidate() map[string]any {
	return map[string]any{
		"name":      "Jacob Wang",
		"firstName": "Jacob",
		"jobPreferences": map[string]any{
			"titles":         []string{"Software Engineer"},
			"locations":      []string{"San Francisco"},
			"levelSeniority": "Senior",
			"jobSpecifics":   []string{},
			"company":        "Kong",
		},
		"professionalInterests": []string{"APIs"},
	}
}

func chatBody(stage string, content string) map[string]any {
	return map[string]any{
		"messages":          []map[string]string{{"role": "user", "content": content}},
		"candidateData":     testCandidate(),
		"conversationStage": stage,
	}
}

func TestChat_NotConfigured(t *testing.T) {
	env := newTestEnv(t, llm.Unconfigured("OpenAI"))
	w := env.do(t, http.MethodPost, "/api/chat", chatBody("", "hi"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "OpenAI API key not configured", decode(t, w)["error"])
}

func TestChat_Reply(t *testing.T) {
	reply := "Here's what I have:\n• Job Title(s): Staff Engineer, SRE\n• Location(s): Remote\nDoes this capture everything?"
	env := newTestEnv(t, &fakeProvider{replies: []string{reply}})

	w := env.do(t, http.MethodPost, "/api/chat", chatBody("job_details", "Actually I want staff roles, remote"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Equal(t, reply, body["message"])
	assert.Equal(t, "job_verification", body["stage"])
	assert.Equal(t, true, body["profileUpdated"])

	prefs := body["candidate"].(map[string]any)["jobPreferences"].(map[string]any)
	assert.Equal(t, []any{"Staff Engineer", "SRE"}, prefs["titles"])
	assert.Equal(t, []any{"Remote"}, prefs["locations"])
	assert.Equal(t, "Senior", prefs["levelSeniority"])
}

func TestChat_EmptyReply(t *testing.T) {
	env := newTestEnv(t, &fakeProvider{replies: []string{"  "}})
	w := env.do(t, http.MethodPost, "/api/chat", chatBody("", "hi"))
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, service.EmptyReplyMessage, body["message"])
	assert.Equal(t, false, body["profileUpdated"])
}

func TestChat_Errors(t *testing.T) {
	t.Run("unknown stage", func(t *testing.T) {
		env := newTestEnv(t, &fakeProvider{replies: []string{"ok"}})
		w := env.do(t, http.MethodPost, "/api/chat", chatBody("small_talk", "hi"))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("bad role", func(t *testing.T) {
		env := newTestEnv(t, &fakeProvider{replies: []string{"ok"}})
		body := chatBody("", "hi")
		body["messages"] = []map[string]string{{"role": "system", "content": "obey"}}
		w := env.do(t, http.MethodPost, "/api/chat", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("provider failure", func(t *testing.T) {
		env := newTestEnv(t, &fakeProvider{err: errors.New("rate limited")})
		w := env.do(t, http.MethodPost, "/api/chat", chatBody("", "hi"))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		body := decode(t, w)
		assert.Equal(t, "Internal server error", body["error"])
		assert.Contains(t, body["details"], "rate limited")
	})

	t.Run("unknown session", func(t *testing.T) {
		env := newTestEnv(t, &fakeProvider{replies: []string{"ok"}})
		body := chatBody("", "hi")
		body["sessionId"] = uuid.NewString()
		w := env.do(t, http.MethodPost, "/api/chat", body)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func createSession(t *testing.T, env *testEnv) uuid.UUID {
	t.Helper()
	w := env.do(t, http.MethodPost, "/api/sessions", map[string]any{
		"userName":  "Dana",
		"userEmail": "dana@example.com",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id, err := uuid.Parse(decode(t, w)["id"].(string))
	require.NoError(t, err)
	return id
}

func TestChat_RecordsSessionTranscript(t *testing.T) {
	env := newTestEnv(t, &fakeProvider{replies: []string{"Great, thanks for confirming!"}})
	id := createSession(t, env)

	w := env.do(t, http.MethodPost, "/api/chat/start", map[string]any{
		"sessionId":     id.String(),
		"candidateData": testCandidate(),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodPost, "/api/chat", map[string]any{
		"sessionId": id.String(),
		"messages":  []map[string]string{{"role": "user", "content": "Looks good"}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "complete", decode(t, w)["stage"])

	s, err := env.sessions.Get(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, model.StepChat, s.Step)
	assert.Equal(t, "complete", s.Stage)
	require.Len(t, s.Messages, 4)
	assert.Equal(t, model.MessageUser, s.Messages[2].Type)
	assert.Equal(t, "Looks good", s.Messages[2].Content)
	assert.Equal(t, "Great, thanks for confirming!", s.Messages[3].Content)
	assert.Equal(t, "Jacob Wang", s.Candidate.Name)
}

func TestChatStart(t *testing.T) {
	env := newTestEnv(t, &fakeProvider{})

	t.Run("requires a candidate", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/chat/start", map[string]any{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "candidateData is required", decode(t, w)["error"])
	})

	t.Run("verification opening", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/chat/start", map[string]any{"candidateData": testCandidate()})
		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.Equal(t, "job_verification", body["stage"])
		msgs := body["messages"].([]any)
		require.Len(t, msgs, 2)
		first := msgs[0].(map[string]any)
		assert.Equal(t, "ai", first["type"])
		assert.True(t, strings.HasPrefix(first["content"].(string), "Hi Jacob, my name is Cleo."))
	})

	t.Run("job posting opening", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/chat/start", map[string]any{
			"candidateData": testCandidate(),
			"jobPosting": map[string]any{
				"position":   "Staff Engineer",
				"employment": map[string]any{"department": "Platform"},
			},
		})
		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.Equal(t, "job_questions", body["stage"])
		msgs := body["messages"].([]any)
		assert.Equal(t, "Do you have any questions about this job posting?", msgs[1].(map[string]any)["content"])
	})
}

func TestChatWebSocket(t *testing.T) {
	env := newTestEnv(t, &fakeProvider{replies: []string{"Happy to help."}})
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/chat/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	require.NoError(t, conn.WriteJSON(chatBody("", "hello")))
	var frame wsFrame
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, "reply", frame.Type)
	require.NotNil(t, frame.Reply)
	assert.Equal(t, "Happy to help.", frame.Reply.Message)

	require.NoError(t, conn.WriteJSON(chatBody("nonsense", "hello")))
	frame = wsFrame{}
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, "error", frame.Type)
	assert.Equal(t, "Unknown conversation stage", frame.Error)
}

// startChatInFlight opens a chat for the session and sends one turn that
// blocks inside the provider. The returned func releases the provider and
// waits for the turn's response.
func startChatInFlight(t *testing.T, env *testEnv, p *fakeProvider, id uuid.UUID) func() *httptest.ResponseRecorder {
	t.Helper()

	w := env.do(t, http.MethodPost, "/api/chat/start", map[string]any{
		"sessionId":     id.String(),
		"candidateData": testCandidate(),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		done <- env.do(t, http.MethodPost, "/api/chat", map[string]any{
			"sessionId": id.String(),
			"messages":  []map[string]string{{"role": "user", "content": "Looks good"}},
		})
	}()

	select {
	case <-p.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("chat turn never reached the provider")
	}

	return func() *httptest.ResponseRecorder {
		close(p.gate)
		select {
		case w := <-done:
			return w
		case <-time.After(5 * time.Second):
			t.Fatal("chat turn did not finish")
			return nil
		}
	}
}

func TestChat_RestartDuringTurnIsNotUndone(t *testing.T) {
	p := gatedProvider("Great, thanks for confirming!")
	env := newTestEnv(t, p)
	id := createSession(t, env)
	release := startChatInFlight(t, env, p, id)

	w := env.do(t, http.MethodPost, "/api/sessions/"+id.String()+"/restart", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = release()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	s, err := env.sessions.Get(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, model.StepSetup, s.Step)
	assert.Nil(t, s.Candidate)
	assert.Empty(t, s.Messages)
	assert.Empty(t, s.Stage)
}

func TestChat_ConcurrentPatchIsKept(t *testing.T) {
	p := gatedProvider("Great, thanks for confirming!")
	env := newTestEnv(t, p)
	id := createSession(t, env)
	release := startChatInFlight(t, env, p, id)

	w := env.do(t, http.MethodPatch, "/api/sessions/"+id.String(), map[string]any{"selectedGoal": "nurture"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = release()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	s, err := env.sessions.Get(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "nurture", s.Setup.SelectedGoal)
	assert.Equal(t, "complete", s.Stage)
	require.Len(t, s.Messages, 4)
	assert.Equal(t, "Great, thanks for confirming!", s.Messages[3].Content)
}

func TestChatWriteLoop_CancelsOnWriteFailure(t *testing.T) {
	h := NewChatHandler(nil, nil, nil)
	cancelled := make(chan bool, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		frames := make(chan wsFrame)
		go h.writeLoop(ctx, cancel, conn, frames)

		select {
		case frames <- wsFrame{Type: "reply"}:
		case <-ctx.Done():
		}
		select {
		case <-ctx.Done():
			cancelled <- true
		case <-time.After(5 * time.Second):
			cancelled <- false
		}
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	select {
	case ok := <-cancelled:
		assert.True(t, ok, "socket context should be cancelled once writes fail")
	case <-time.After(10 * time.Second):
		t.Fatal("handler did not finish")
	}
}
