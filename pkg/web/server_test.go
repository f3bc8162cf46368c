package web_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/teslashibe/go-taskist/internal/config"
	"github.com/teslashibe/go-taskist/internal/metrics"
	"github.com/teslashibe/go-taskist/pkg/pipeline"
	"github.com/teslashibe/go-taskist/pkg/store"
	"github.com/teslashibe/go-taskist/pkg/web"
)

func newTestServer(t *testing.T) (*web.Server, *store.Store, *pipeline.Conversation) {
	t.Helper()

	st := store.New()
	conv := pipeline.NewConversation()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.RunsStarted.Inc()

	srv := web.NewServer(web.Options{
		Addr:         ":0",
		Store:        st,
		Conversation: conv,
		Config:       config.Pipeline{UserID: "ss", Category: "personal"},
		Gatherer:     reg,
	})
	return srv, st, conv
}

func doRequest(t *testing.T, srv *web.Server, method, target string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	resp, err := srv.App().Test(req)
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, target, err)
	}
	return resp
}

func TestHealthz(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp := doRequest(t, srv, "GET", "/healthz")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestStatusReflectsTurns(t *testing.T) {
	srv, _, _ := newTestServer(t)

	srv.PublishTurn(pipeline.Turn{
		Heard:    "Add buy milk",
		Response: "Added task 'buy milk' to personal todo list for user ss.",
	})

	resp := doRequest(t, srv, "GET", "/api/status")
	defer resp.Body.Close()

	var status web.Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decode status: %v", err)
	}

	if status.UserID != "ss" || status.Category != "personal" {
		t.Errorf("unexpected identity: %+v", status)
	}
	if status.TurnsCompleted != 1 {
		t.Errorf("expected 1 turn, got %d", status.TurnsCompleted)
	}
	if status.LastHeard != "Add buy milk" {
		t.Errorf("unexpected last heard: %q", status.LastHeard)
	}
}

func TestStoreChangesReachTheFeed(t *testing.T) {
	srv, st, _ := newTestServer(t)

	// Same wiring as the CLI: every store mutation is published to the
	// live feed. Mutations must not block even with no clients attached.
	st.AddHook(srv.PublishChange)

	st.Add("ss", "personal", "buy milk")
	if !st.Remove("ss", "personal", "buy milk") {
		t.Fatal("remove missed")
	}

	if got := st.Tasks("ss", "personal"); len(got) != 0 {
		t.Errorf("expected empty list after remove, got %v", got)
	}
}

func TestTasksEndpoints(t *testing.T) {
	srv, st, _ := newTestServer(t)
	st.Add("ss", "personal", "buy milk")
	st.Add("ss", "personal", "walk dog")
	st.Add("bob", "work", "ship release")

	t.Run("all tasks", func(t *testing.T) {
		resp := doRequest(t, srv, "GET", "/api/tasks")
		defer resp.Body.Close()

		var snapshot map[string]map[string][]string
		if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
			t.Fatalf("decode snapshot: %v", err)
		}
		if len(snapshot["ss"]["personal"]) != 2 {
			t.Errorf("expected 2 tasks for ss/personal, got %v", snapshot["ss"]["personal"])
		}
		if len(snapshot["bob"]["work"]) != 1 {
			t.Errorf("expected 1 task for bob/work, got %v", snapshot["bob"]["work"])
		}
	})

	t.Run("single list", func(t *testing.T) {
		resp := doRequest(t, srv, "GET", "/api/tasks/ss/personal")
		defer resp.Body.Close()

		var body struct {
			User     string   `json:"user"`
			Category string   `json:"category"`
			Tasks    []string `json:"tasks"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode list: %v", err)
		}
		if body.User != "ss" || body.Category != "personal" {
			t.Errorf("unexpected identity: %+v", body)
		}
		if len(body.Tasks) != 2 || body.Tasks[0] != "buy milk" {
			t.Errorf("unexpected tasks: %v", body.Tasks)
		}
	})
}

func TestConversationEndpoint(t *testing.T) {
	srv, _, conv := newTestServer(t)
	conv.Append(pipeline.RoleUser, "list")
	conv.Append(pipeline.RoleAssistant, "No tasks in personal for ss.")

	resp := doRequest(t, srv, "GET", "/api/conversation")
	defer resp.Body.Close()

	var entries []pipeline.Entry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatalf("decode conversation: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Role != pipeline.RoleUser {
		t.Errorf("expected user entry first, got %s", entries[0].Role)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp := doRequest(t, srv, "GET", "/metrics")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "taskist_pipeline_runs_started_total") {
		t.Error("expected pipeline metrics in /metrics output")
	}
}

func TestWebsocketRouteRequiresUpgrade(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp := doRequest(t, srv, "GET", "/ws/feed")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUpgradeRequired {
		t.Errorf("expected 426, got %d", resp.StatusCode)
	}
}
