package widget

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"docvia-widget/internal/dto"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// fakeBackend imitates the chat-bot endpoints and records what it receives.
type fakeBackend struct {
	mu             sync.Mutex
	accessRequests []dto.AccessTokenRequest
	queryAuth      []string
	queries        []string

	accessStatus int
	queryStatus  int
	uid          string
	token        string
	expireAt     time.Time
	queryBody    string
}

func newFakeBackend(t *testing.T) (*fakeBackend, *httptest.Server) {
	t.Helper()

	fb := &fakeBackend{
		accessStatus: http.StatusOK,
		queryStatus:  http.StatusOK,
		token:        "fresh-token",
		expireAt:     fixedNow.Add(time.Hour),
		queryBody:    `{"data":"an answer"}`,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/chat-bot/access-token", fb.handleAccess)
	mux.HandleFunc("/api/v1/chat-bot/query", fb.handleQuery)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return fb, srv
}

func (fb *fakeBackend) handleAccess(w http.ResponseWriter, r *http.Request) {
	var req dto.AccessTokenRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	fb.mu.Lock()
	fb.accessRequests = append(fb.accessRequests, req)
	status, uid, token, expireAt := fb.accessStatus, fb.uid, fb.token, fb.expireAt
	fb.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if status != http.StatusOK {
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "invalid app secret"})
		return
	}

	_ = json.NewEncoder(w).Encode(dto.AccessTokenResponse{Data: &dto.AccessTokenData{
		Widget: &dto.WidgetResponse{
			ID:              "widget-1",
			AppID:           "app-1",
			AgentName:       "Ada",
			HeaderColor:     "#7F56D9",
			HeaderTextColor: "#FFFFFF",
			CreatedAt:       fixedNow.Format(time.RFC3339),
		},
		Token: &dto.TokenResponse{Token: token, ExpireAt: expireAt.Format(time.RFC3339)},
		UID:   uid,
	}})
}

func (fb *fakeBackend) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req dto.QueryRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	fb.mu.Lock()
	fb.queryAuth = append(fb.queryAuth, strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
	fb.queries = append(fb.queries, req.Query)
	status, body := fb.queryStatus, fb.queryBody
	fb.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func (fb *fakeBackend) accessCalls() int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return len(fb.accessRequests)
}

func (fb *fakeBackend) requests() []dto.AccessTokenRequest {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]dto.AccessTokenRequest(nil), fb.accessRequests...)
}

func (fb *fakeBackend) lastQueryAuth() string {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if len(fb.queryAuth) == 0 {
		return ""
	}
	return fb.queryAuth[len(fb.queryAuth)-1]
}

func (fb *fakeBackend) queryCalls() int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return len(fb.queries)
}
