package testutil

import (
	"context"
	"sync"

	"github.com/alexanderramin/jess/internal/llm"
)

// FakeLLM is a scripted llm.LLMClient. Replies and errors are keyed by
// task; tasks without a script echo the user prompt.
type FakeLLM struct {
	mu        sync.Mutex
	replies   map[llm.TaskType][]string
	errs      map[llm.TaskType]error
	requests  []llm.GenerateRequest
	available bool
}

// NewFakeLLM returns an available fake with no scripted replies.
func NewFakeLLM() *FakeLLM {
	return &FakeLLM{
		replies:   make(map[llm.TaskType][]string),
		errs:      make(map[llm.TaskType]error),
		available: true,
	}
}

// Reply queues texts for task. The last queued text repeats once the
// queue is drained.
func (f *FakeLLM) Reply(task llm.TaskType, texts ...string) *FakeLLM {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[task] = append(f.replies[task], texts...)
	return f
}

// Fail makes every call for task return err. A nil err clears it.
func (f *FakeLLM) Fail(task llm.TaskType, err error) *FakeLLM {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.errs, task)
	} else {
		f.errs[task] = err
	}
	return f
}

func (f *FakeLLM) Generate(_ context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)

	if err := f.errs[req.Task]; err != nil {
		return nil, err
	}
	queue := f.replies[req.Task]
	if len(queue) == 0 {
		return &llm.GenerateResponse{Text: req.UserPrompt, Model: "fake"}, nil
	}
	text := queue[0]
	if len(queue) > 1 {
		f.replies[req.Task] = queue[1:]
	}
	return &llm.GenerateResponse{Text: text, Model: "fake"}, nil
}

func (f *FakeLLM) Available(context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.available
}

// Requests returns a copy of every request received so far.
func (f *FakeLLM) Requests() []llm.GenerateRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]llm.GenerateRequest(nil), f.requests...)
}

// Calls counts the requests received for task.
func (f *FakeLLM) Calls(task llm.TaskType) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if r.Task == task {
			n++
		}
	}
	return n
}
