package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"forgetodo/internal/config"
	"forgetodo/internal/forge"
	"forgetodo/internal/store"
)

// fakeForge serves /api/v1/user for a fixed set of API tokens.
func fakeForge(t *testing.T) *httptest.Server {
	t.Helper()
	profiles := map[string]string{
		"token alice-token": `{"id":1,"login":"alice","email":"alice@example.com","full_name":"Alice"}`,
		"token bob-token":   `{"id":2,"login":"bob","email":"bob@example.com","full_name":"Bob"}`,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := profiles[r.Header.Get("Authorization")]
		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message":"bad credentials"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestServer(t *testing.T, forgeURL string) *httptest.Server {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	cfg := &config.Config{
		ForgeBaseURL:   forgeURL,
		SessionSecret:  "test-secret",
		SessionTTLDays: 7,
	}
	srv := httptest.NewServer(New(cfg, st, forge.NewClient(nil)).Router())
	t.Cleanup(srv.Close)
	return srv
}

type testEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func doJSON(t *testing.T, method, url, token string, body interface{}) (int, testEnvelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	var env testEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return resp.StatusCode, env
}

// login exchanges an API token for a session token.
func login(t *testing.T, serverURL, apiToken string) string {
	t.Helper()
	status, env := doJSON(t, http.MethodPost, serverURL+"/auth/login", "",
		map[string]string{"kind": "token", "secret": apiToken})
	if status != http.StatusOK || !env.Success {
		t.Fatalf("login: status=%d env=%+v", status, env)
	}
	var data struct {
		Token string     `json:"token"`
		User  store.User `json:"user"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode login data: %v", err)
	}
	if data.Token == "" {
		t.Fatalf("login returned no token")
	}
	return data.Token
}

func TestLogin(t *testing.T) {
	forgeSrv := fakeForge(t)
	srv := newTestServer(t, forgeSrv.URL)

	token := login(t, srv.URL, "alice-token")
	if token == "" {
		t.Fatalf("no token")
	}

	// wrong credential surfaces the forge's message as a 401
	status, env := doJSON(t, http.MethodPost, srv.URL+"/auth/login", "",
		map[string]string{"kind": "token", "secret": "nope"})
	if status != http.StatusUnauthorized || env.Success {
		t.Fatalf("bad login: status=%d env=%+v", status, env)
	}
	if env.Error != "bad credentials" {
		t.Fatalf("error=%q, want forge message", env.Error)
	}

	// missing kind/secret is a 400
	status, _ = doJSON(t, http.MethodPost, srv.URL+"/auth/login", "", map[string]string{"kind": "token"})
	if status != http.StatusBadRequest {
		t.Fatalf("empty secret: status=%d, want 400", status)
	}
}

func TestLogin_ForgeUnreachable(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	srv := newTestServer(t, deadURL)
	status, env := doJSON(t, http.MethodPost, srv.URL+"/auth/login", "",
		map[string]string{"kind": "token", "secret": "x"})
	if status != http.StatusBadGateway {
		t.Fatalf("status=%d, want 502", status)
	}
	if env.Success {
		t.Fatalf("env=%+v, want failure", env)
	}
}

func TestTodosRequireAuth(t *testing.T) {
	forgeSrv := fakeForge(t)
	srv := newTestServer(t, forgeSrv.URL)

	status, env := doJSON(t, http.MethodGet, srv.URL+"/todos", "", nil)
	if status != http.StatusUnauthorized || env.Success {
		t.Fatalf("no token: status=%d env=%+v", status, env)
	}

	status, _ = doJSON(t, http.MethodGet, srv.URL+"/todos", "garbage", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("garbage token: status=%d, want 401", status)
	}
}

func TestTodoCRUD(t *testing.T) {
	forgeSrv := fakeForge(t)
	srv := newTestServer(t, forgeSrv.URL)
	token := login(t, srv.URL, "alice-token")

	// create with defaults
	status, env := doJSON(t, http.MethodPost, srv.URL+"/todos", token,
		map[string]interface{}{"title": "  buy milk  "})
	if status != http.StatusCreated || !env.Success {
		t.Fatalf("create: status=%d env=%+v", status, env)
	}
	var created store.Todo
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode todo: %v", err)
	}
	if created.Title != "buy milk" {
		t.Fatalf("title not trimmed: %q", created.Title)
	}
	if created.Priority != store.PriorityMedium || created.Completed {
		t.Fatalf("defaults wrong: %+v", created)
	}

	// whitespace-only title rejected before persistence
	status, env = doJSON(t, http.MethodPost, srv.URL+"/todos", token,
		map[string]interface{}{"title": "   "})
	if status != http.StatusBadRequest || env.Success {
		t.Fatalf("blank title: status=%d env=%+v", status, env)
	}

	// unknown priority rejected
	status, _ = doJSON(t, http.MethodPost, srv.URL+"/todos", token,
		map[string]interface{}{"title": "x", "priority": "urgent"})
	if status != http.StatusBadRequest {
		t.Fatalf("bad priority: status=%d, want 400", status)
	}

	// complete it
	status, env = doJSON(t, http.MethodPut, fmt.Sprintf("%s/todos/%d", srv.URL, created.ID), token,
		map[string]interface{}{"completed": true})
	if status != http.StatusOK || !env.Success {
		t.Fatalf("update: status=%d env=%+v", status, env)
	}
	var updated store.Todo
	json.Unmarshal(env.Data, &updated)
	if !updated.Completed || updated.CompletedAt == nil {
		t.Fatalf("completion not stamped: %+v", updated)
	}

	// supplied-but-blank title is a 400
	status, _ = doJSON(t, http.MethodPut, fmt.Sprintf("%s/todos/%d", srv.URL, created.ID), token,
		map[string]interface{}{"title": " "})
	if status != http.StatusBadRequest {
		t.Fatalf("blank title update: status=%d, want 400", status)
	}

	// empty patch is a 400
	status, _ = doJSON(t, http.MethodPut, fmt.Sprintf("%s/todos/%d", srv.URL, created.ID), token,
		map[string]interface{}{})
	if status != http.StatusBadRequest {
		t.Fatalf("empty patch: status=%d, want 400", status)
	}

	// stats
	status, env = doJSON(t, http.MethodGet, srv.URL+"/todos/stats", token, nil)
	if status != http.StatusOK {
		t.Fatalf("stats: status=%d", status)
	}
	var stats store.Stats
	json.Unmarshal(env.Data, &stats)
	if stats.Total != 1 || stats.Completed != 1 || stats.CompletionRate != 100 {
		t.Fatalf("stats=%+v", stats)
	}

	// delete returns the row
	status, env = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/todos/%d", srv.URL, created.ID), token, nil)
	if status != http.StatusOK || !env.Success {
		t.Fatalf("delete: status=%d env=%+v", status, env)
	}

	status, _ = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/todos/%d", srv.URL, created.ID), token, nil)
	if status != http.StatusNotFound {
		t.Fatalf("second delete: status=%d, want 404", status)
	}
}

func TestTodoOwnershipHiddenAsNotFound(t *testing.T) {
	forgeSrv := fakeForge(t)
	srv := newTestServer(t, forgeSrv.URL)
	aliceToken := login(t, srv.URL, "alice-token")
	bobToken := login(t, srv.URL, "bob-token")

	_, env := doJSON(t, http.MethodPost, srv.URL+"/todos", aliceToken,
		map[string]interface{}{"title": "alice's secret"})
	var todo store.Todo
	json.Unmarshal(env.Data, &todo)

	status, env := doJSON(t, http.MethodPut, fmt.Sprintf("%s/todos/%d", srv.URL, todo.ID), bobToken,
		map[string]interface{}{"title": "bob was here"})
	if status != http.StatusNotFound {
		t.Fatalf("cross-user update: status=%d, want 404 (not 403)", status)
	}
	if env.Error != "todo not found" {
		t.Fatalf("error=%q, must not reveal ownership", env.Error)
	}

	status, _ = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/todos/%d", srv.URL, todo.ID), bobToken, nil)
	if status != http.StatusNotFound {
		t.Fatalf("cross-user delete: status=%d, want 404", status)
	}

	// alice still sees her row, untouched
	status, env = doJSON(t, http.MethodGet, srv.URL+"/todos", aliceToken, nil)
	if status != http.StatusOK {
		t.Fatalf("list: status=%d", status)
	}
	var todos []store.Todo
	json.Unmarshal(env.Data, &todos)
	if len(todos) != 1 || todos[0].Title != "alice's secret" {
		t.Fatalf("owner's list=%+v", todos)
	}
}

func TestListFiltersOverHTTP(t *testing.T) {
	forgeSrv := fakeForge(t)
	srv := newTestServer(t, forgeSrv.URL)
	token := login(t, srv.URL, "alice-token")

	for i, title := range []string{"one", "two", "three"} {
		body := map[string]interface{}{"title": title}
		if i == 0 {
			body["completed"] = true
		}
		if status, _ := doJSON(t, http.MethodPost, srv.URL+"/todos", token, body); status != http.StatusCreated {
			t.Fatalf("seed %q: status=%d", title, status)
		}
	}

	status, env := doJSON(t, http.MethodGet, srv.URL+"/todos?status=pending", token, nil)
	if status != http.StatusOK {
		t.Fatalf("status=%d", status)
	}
	var pending []store.Todo
	json.Unmarshal(env.Data, &pending)
	if len(pending) != 2 {
		t.Fatalf("pending len=%d, want 2", len(pending))
	}
	// newest first
	if pending[0].Title != "three" || pending[1].Title != "two" {
		t.Fatalf("order wrong: %q, %q", pending[0].Title, pending[1].Title)
	}
}
