package service

import (
	"context"
	"sync"

	"github.com/yourusername/cleo-api/internal/llm"
)

// fakeProvider replays canned replies in order; the last one repeats.
type fakeProvider struct {
	mu       sync.Mutex
	replies  []string
	err      error
	requests []llm.Request
}

func newFakeProvider(replies ...string) *fakeProvider {
	return &fakeProvider{replies: replies}
}

func (f *fakeProvider) Name() string { return "Fake" }

func (f *fakeProvider) Complete(_ context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "", nil
	}
	i := len(f.requests) - 1
	if i >= len(f.replies) {
		i = len(f.replies) - 1
	}
	return f.replies[i], nil
}

func (f *fakeProvider) calls() []llm.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]llm.Request(nil), f.requests...)
}
