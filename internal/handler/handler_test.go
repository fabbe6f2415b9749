package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/cleo-api/internal/catalog"
	"github.com/yourusername/cleo-api/internal/llm"
	"github.com/yourusername/cleo-api/internal/repository"
	"github.com/yourusername/cleo-api/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeProvider struct {
	mu      sync.Mutex
	replies []string
	err     error
	calls   int

	// When set, each call signals entered and then waits for gate.
	entered chan struct{}
	gate    chan struct{}
}

func (f *fakeProvider) Name() string { return "Fake" }

func (f *fakeProvider) Complete(_ context.Context, _ llm.Request) (string, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "", nil
	}
	i := f.calls - 1
	if i >= len(f.replies) {
		i = len(f.replies) - 1
	}
	return f.replies[i], nil
}

// gatedProvider answers reply, but only once the test closes gate.
func gatedProvider(reply string) *fakeProvider {
	return &fakeProvider{
		replies: []string{reply},
		entered: make(chan struct{}, 1),
		gate:    make(chan struct{}),
	}
}

type testEnv struct {
	router   *gin.Engine
	sessions repository.SessionStore
}

// newTestEnv wires every handler against p, a memory store and a logo
// service that never finds anything.
func newTestEnv(t *testing.T, p llm.Provider) *testEnv {
	t.Helper()

	none := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(none.Close)

	cat := catalog.MustDefault()
	fetcher := service.NewPageFetcher(2 * time.Second)
	logos := service.NewLogoService(service.LogoConfig{
		BrandfetchBaseURL: none.URL,
		ClearbitBaseURL:   none.URL,
		SiteURLFormat:     none.URL + "/%s",
	})
	analyzer := service.NewContentAnalyzer(p)
	sessions := repository.NewMemorySessionStore(time.Hour)

	content := NewContentHandler(fetcher, logos, service.NewSiteCrawler(fetcher, logos, analyzer))
	ai := NewAIHandler(analyzer, service.NewEmailGenerator(p, cat))
	chat := NewChatHandler(service.NewChatService(p, service.ExtractionHeuristic), sessions, nil)
	sess := NewSessionHandler(sessions, cat)
	backends := NewBackendHandler(cat)
	resume := NewResumeHandler(service.NewResumeExtractor())

	r := gin.New()
	api := r.Group("/api")
	api.GET("/health", Health)
	api.GET("/crawl", content.Crawl)
	api.GET("/logo", content.Logo)
	api.POST("/crawl/site", content.CrawlSite)
	api.POST("/analyze-content", ai.AnalyzeContent)
	api.POST("/generate-email", ai.GenerateEmail)
	api.POST("/chat", chat.Chat)
	api.POST("/chat/start", chat.Start)
	api.GET("/chat/ws", chat.WebSocket)
	api.POST("/sessions", sess.Create)
	api.GET("/sessions/:id", sess.Get)
	api.PATCH("/sessions/:id", sess.Update)
	api.DELETE("/sessions/:id", sess.Delete)
	api.POST("/sessions/:id/restart", sess.Restart)
	api.POST("/sessions/:id/candidate", sess.SetCandidate)
	api.GET("/backends", backends.List)
	api.GET("/backends/:name", backends.Get)
	api.POST("/candidates/resume", resume.Upload)

	return &testEnv{router: r, sessions: sessions}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
