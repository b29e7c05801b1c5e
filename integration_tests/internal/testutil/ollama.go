package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// Responder answers one generation prompt. Returning ok=false makes the
// server fail the request with a 500.
type Responder func(prompt string) (response string, ok bool)

// FakeOllama serves /api/generate with answers from respond.
type FakeOllama struct {
	*httptest.Server

	mu      sync.Mutex
	prompts []string
}

func NewFakeOllama(t *testing.T, respond Responder) *FakeOllama {
	t.Helper()
	f := &FakeOllama{}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Model  string `json:"model"`
			Prompt string `json:"prompt"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		f.mu.Lock()
		f.prompts = append(f.prompts, req.Prompt)
		f.mu.Unlock()

		out, ok := respond(req.Prompt)
		if !ok {
			http.Error(w, "model crashed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"model":    req.Model,
			"response": out,
			"done":     true,
		})
	}))
	t.Cleanup(f.Close)
	return f
}

// Prompts returns every prompt received so far.
func (f *FakeOllama) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

// ByPrefix answers with the first response whose key starts the prompt.
func ByPrefix(responses map[string]string, fallback string) Responder {
	return func(prompt string) (string, bool) {
		for prefix, out := range responses {
			if strings.HasPrefix(prompt, prefix) {
				return out, true
			}
		}
		return fallback, true
	}
}
