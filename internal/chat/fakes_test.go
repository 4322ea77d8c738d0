package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

var errUnavailable = errors.New("service unavailable")

type fakeHistory struct {
	messages map[string][]Message
	err      error
	calls    atomic.Int32
}

func (h *fakeHistory) List(_ context.Context, threadID string) ([]Message, error) {
	h.calls.Add(1)
	if h.err != nil {
		return nil, h.err
	}
	return h.messages[threadID], nil
}

// fakeCompleter fails the first failures calls, then echoes the last user message.
type fakeCompleter struct {
	failures int
	reply    func(messages []Message) string
	panicMsg string

	mu    sync.Mutex
	calls int
	seen  [][]Message
}

func (f *fakeCompleter) Complete(_ context.Context, messages []Message, params Params) (Message, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.seen = append(f.seen, messages)
	f.mu.Unlock()

	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.failures < 0 || call <= f.failures {
		return Message{}, fmt.Errorf("call %d: %w", call, errUnavailable)
	}
	content := "with " + messages[len(messages)-1].Content
	if f.reply != nil {
		content = f.reply(messages)
	}
	return Message{Role: RoleAssistant, Content: content, Raw: `{"id":"cmpl"}`}, nil
}

func (f *fakeCompleter) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeCompleter) LastMessages() []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.seen) == 0 {
		return nil
	}
	return f.seen[len(f.seen)-1]
}

func sequenceIDs(prefix string) IDGenerator {
	var n atomic.Int64
	return IDFunc(func() string {
		return fmt.Sprintf("%s%d", prefix, n.Add(1))
	})
}
