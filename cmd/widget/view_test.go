package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docvia-widget/internal/conversation"
	"docvia-widget/internal/env"
	"docvia-widget/internal/session"
	"docvia-widget/internal/widget"
)

func TestColorize(t *testing.T) {
	assert.Equal(t, "\x1b[38;2;127;86;217m", colorize("#7F56D9"))
	assert.Equal(t, "\x1b[38;2;255;255;255m", colorize("#fff"))
	assert.Equal(t, "", colorize("purple"))
}

func TestRenderPrintsEachMessageOnce(t *testing.T) {
	var out strings.Builder
	view := newTerminalView(&out)
	view.setConfig(widget.Config{AgentName: "Ava"})

	greeting := conversation.Message{Sender: conversation.SenderAgent, Message: "Hi!"}
	question := conversation.Message{Sender: conversation.SenderVisitor, Message: "hours?"}

	view.render(conversation.Snapshot{State: conversation.StateReady, Messages: []conversation.Message{greeting}})
	assert.Empty(t, out.String())

	view.render(conversation.Snapshot{State: conversation.StateReady, Open: true, Messages: []conversation.Message{greeting}})
	view.render(conversation.Snapshot{State: conversation.StateSending, Open: true, Messages: []conversation.Message{greeting, question}})

	text := out.String()
	assert.Equal(t, 1, strings.Count(text, "Hi!"))
	assert.Equal(t, 1, strings.Count(text, "hours?"))
	assert.Contains(t, text, "Ava is typing")
}

func TestOpenStore(t *testing.T) {
	store, err := openStore(env.Widget{Store: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &session.MemoryStore{}, store)

	store, err = openStore(env.Widget{Store: "file", StorePath: filepath.Join(t.TempDir(), "uid.json")})
	require.NoError(t, err)
	assert.IsType(t, &session.FileStore{}, store)

	_, err = openStore(env.Widget{Store: "etcd"})
	require.Error(t, err)
}

func TestRunChatsUntilQuit(t *testing.T) {
	expireAt := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/chat-bot/access-token":
			fmt.Fprintf(w, `{"data":{"widget":{"id":"w1","appId":"a1","agentName":"Ava"},"token":{"token":"t1","expireAt":%q},"uid":"u1"}}`, expireAt)
		case "/chat-bot/query":
			fmt.Fprint(w, `{"data":"We are open 9-17."}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	var out strings.Builder
	store := session.NewMemoryStore()
	cfg := env.Widget{BackendURL: srv.URL, AppKey: "dv_k_s"}

	err := run(context.Background(), cfg, store, zerolog.Nop(), strings.NewReader("when are you open?\n/quit\n"), &out)
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "Hi! I'm Ava. How can I help you today?")
	assert.Contains(t, text, "when are you open?")
	assert.Contains(t, text, "We are open 9-17.")

	uid, err := store.Get(context.Background(), session.UIDKey)
	require.NoError(t, err)
	assert.Equal(t, "u1", uid)
}

func TestRunFailsWhenBackendIsDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	var out strings.Builder
	err := run(context.Background(), env.Widget{BackendURL: srv.URL, AppKey: "dv_k_s"}, session.NewMemoryStore(), zerolog.Nop(), strings.NewReader(""), &out)
	require.Error(t, err)
	assert.Empty(t, out.String())
}
