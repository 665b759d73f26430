// Package testutil holds in-memory fakes of the external capabilities.
package testutil

import (
	"context"
	"strings"
	"sync"

	"labrec/internal/domain"
	"labrec/internal/port"
)

// Call is one recorded completion request.
type Call struct {
	System  string
	User    string
	Options port.GenerateOptions
}

// FakeLLM answers completions with Respond. Calls are recorded.
type FakeLLM struct {
	Respond func(system, user string) (string, error)

	mu    sync.Mutex
	calls []Call
}

func (f *FakeLLM) Generate(ctx context.Context, prompt string, opts ...port.GenerateOption) (string, error) {
	return f.GenerateWithSystem(ctx, "", prompt, opts...)
}

func (f *FakeLLM) GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string, opts ...port.GenerateOption) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, Call{System: systemPrompt, User: userPrompt, Options: port.ApplyGenerateOptions(opts)})
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.Respond == nil {
		return "", nil
	}
	return f.Respond(systemPrompt, userPrompt)
}

func (f *FakeLLM) ModelName() string {
	return "fake"
}

// Calls returns a copy of the recorded calls.
func (f *FakeLLM) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// RespondIf returns the reply of the first rule whose key occurs in the user
// prompt, else fallback.
func RespondIf(rules map[string]string, fallback string) func(system, user string) (string, error) {
	return func(system, user string) (string, error) {
		for key, reply := range rules {
			if strings.Contains(user, key) {
				return reply, nil
			}
		}
		return fallback, nil
	}
}

// FakeSearcher returns fixed results.
type FakeSearcher struct {
	Results []domain.WebResult
	Err     error

	mu      sync.Mutex
	queries []string
}

func (f *FakeSearcher) Search(ctx context.Context, query string, maxResults int) ([]domain.WebResult, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()

	if f.Err != nil {
		return nil, f.Err
	}
	if len(f.Results) > maxResults {
		return f.Results[:maxResults], nil
	}
	return f.Results, nil
}

// Queries returns the queries seen so far.
func (f *FakeSearcher) Queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}
