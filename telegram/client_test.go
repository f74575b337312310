package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"nexus-mods-notifier/config"
)

func newTestClient(t *testing.T, cfg config.Config, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	client.BaseURL = server.URL
	return client, server
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(config.Config{TelegramChatID: "1"}); err == nil {
		t.Error("expected error for missing bot token")
	}
	if _, err := NewClient(config.Config{TelegramBotToken: "tok"}); err == nil {
		t.Error("expected error for missing chat ID")
	}
}

func TestSendPayload(t *testing.T) {
	t.Run("without topic", func(t *testing.T) {
		var gotPath string
		var gotForm map[string][]string
		client, _ := newTestClient(t,
			config.Config{TelegramBotToken: "tok123", TelegramChatID: "-100"},
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				if err := r.ParseForm(); err != nil {
					t.Errorf("ParseForm: %v", err)
				}
				gotForm = r.PostForm
				w.Write([]byte(`{"ok":true}`))
			}))

		if err := client.Send(context.Background(), "<b>hello</b>"); err != nil {
			t.Fatalf("Send: %v", err)
		}
		if gotPath != "/bottok123/sendMessage" {
			t.Errorf("path = %q, want /bottok123/sendMessage", gotPath)
		}
		if got := gotForm["chat_id"]; len(got) != 1 || got[0] != "-100" {
			t.Errorf("chat_id = %v, want -100", got)
		}
		if got := gotForm["text"]; len(got) != 1 || got[0] != "<b>hello</b>" {
			t.Errorf("text = %v", got)
		}
		if got := gotForm["parse_mode"]; len(got) != 1 || got[0] != "HTML" {
			t.Errorf("parse_mode = %v, want HTML", got)
		}
		if _, present := gotForm["message_thread_id"]; present {
			t.Error("message_thread_id must be omitted when no topic is configured")
		}
	})

	t.Run("with topic", func(t *testing.T) {
		var gotThread string
		client, _ := newTestClient(t,
			config.Config{TelegramBotToken: "tok", TelegramChatID: "-100", TelegramTopicID: "77"},
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if err := r.ParseForm(); err != nil {
					t.Errorf("ParseForm: %v", err)
				}
				gotThread = r.PostForm.Get("message_thread_id")
				w.Write([]byte(`{"ok":true}`))
			}))

		if err := client.Send(context.Background(), "hi"); err != nil {
			t.Fatalf("Send: %v", err)
		}
		if gotThread != "77" {
			t.Errorf("message_thread_id = %q, want 77", gotThread)
		}
	})
}

func TestSendErrorStatus(t *testing.T) {
	client, _ := newTestClient(t,
		config.Config{TelegramBotToken: "tok", TelegramChatID: "-100"},
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, `{"ok":false,"description":"chat not found"}`, http.StatusBadRequest)
		}))

	if err := client.Send(context.Background(), "hi"); err == nil {
		t.Error("expected error for non-2xx response")
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits int
	client, _ := newTestClient(t,
		config.Config{TelegramBotToken: "tok", TelegramChatID: "-100"},
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			hits++
			http.Error(w, "nope", http.StatusInternalServerError)
		}))

	// Five consecutive failures trip the breaker.
	for i := 0; i < 5; i++ {
		if err := client.Send(context.Background(), "hi"); err == nil {
			t.Fatalf("send %d unexpectedly succeeded", i)
		}
	}
	hitsWhenTripped := hits

	// Subsequent sends fail fast without touching the endpoint.
	if err := client.Send(context.Background(), "hi"); err == nil {
		t.Error("expected open-breaker error")
	}
	if hits != hitsWhenTripped {
		t.Errorf("breaker did not short-circuit: %d hits after trip, was %d", hits, hitsWhenTripped)
	}
}
