package planner

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewOllamaProvider(t *testing.T) {
	t.Parallel()

	provider := NewOllamaProvider(OllamaConfig{})

	if provider.baseURL != OllamaBaseURL {
		t.Errorf("baseURL = %s, want %s", provider.baseURL, OllamaBaseURL)
	}
	if provider.model != OllamaModel {
		t.Errorf("model = %s, want %s", provider.model, OllamaModel)
	}
	if provider.Name() != "ollama" {
		t.Errorf("Name() = %s, want ollama", provider.Name())
	}
}

func TestOllamaProvider_Complete(t *testing.T) {
	t.Parallel()

	t.Run("successful completion", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/chat" {
				t.Errorf("Path = %s, want /api/chat", r.URL.Path)
			}

			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decode request: %v", err)
			}
			if body["model"] != "llama3.2:1b" {
				t.Errorf("model = %v, want llama3.2:1b", body["model"])
			}
			if body["format"] != "json" {
				t.Errorf("format = %v, want json", body["format"])
			}

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"model":"llama3.2:1b","created_at":"2024-01-01T00:00:00Z","message":{"role":"assistant","content":"{\"action\":\"detect_failure_nodes\"}"},"done":true}` + "\n"))
		}))
		defer server.Close()

		provider := NewOllamaProvider(OllamaConfig{BaseURL: server.URL})
		resp, err := provider.Complete(context.Background(), CompletionRequest{
			Messages:    []Message{{Role: RoleSystem, Content: "sys"}, {Role: RoleUser, Content: "ctx"}},
			Temperature: 0.1,
			JSONMode:    true,
		})
		if err != nil {
			t.Fatalf("Complete() error = %v", err)
		}
		if resp.Message.Content != `{"action":"detect_failure_nodes"}` {
			t.Errorf("Content = %s", resp.Message.Content)
		}
		if resp.Message.Role != RoleAssistant {
			t.Errorf("Role = %s, want assistant", resp.Message.Role)
		}
	})

	t.Run("server error", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"model not loaded"}`))
		}))
		defer server.Close()

		provider := NewOllamaProvider(OllamaConfig{BaseURL: server.URL})
		_, err := provider.Complete(context.Background(), CompletionRequest{
			Messages: []Message{{Role: RoleUser, Content: "hi"}},
		})
		if err == nil {
			t.Error("Complete() should fail on server error")
		}
	})
}

func TestChatMessageType(t *testing.T) {
	t.Parallel()

	if chatMessageType(RoleSystem) == chatMessageType(RoleUser) {
		t.Error("system and user roles map to the same type")
	}
	if chatMessageType("tool") != chatMessageType(RoleUser) {
		t.Error("unknown roles should map to human")
	}
}
