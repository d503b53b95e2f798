package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/terra-clan/practice-tracker/internal/catalog"
	"github.com/terra-clan/practice-tracker/internal/config"
	"github.com/terra-clan/practice-tracker/internal/models"
	"github.com/terra-clan/practice-tracker/internal/tracker"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *apiError       `json:"error"`
}

func newServer(t *testing.T, ready Pinger) (*Server, *tracker.Tracker) {
	t.Helper()
	tr := tracker.New(context.Background(), catalog.DefaultSeeds(), nil, tracker.Options{})
	s := NewServer(config.ServerConfig{Host: "127.0.0.1", Port: 8080}, tr, ready)
	t.Cleanup(func() {
		s.Close()
		_ = tr.Close(context.Background())
	})
	return s, tr
}

func do(t *testing.T, s *Server, method, path, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func TestHealthAndReady(t *testing.T) {
	s, _ := newServer(t, pingerFunc(func(context.Context) error { return errors.New("down") }))

	code, env := do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)

	code, env = do(t, s, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "not_ready", env.Error.Code)
}

func TestGetState(t *testing.T) {
	s, _ := newServer(t, nil)

	code, env := do(t, s, http.MethodGet, "/api/v1/state", "")
	require.Equal(t, http.StatusOK, code)

	var state models.StateView
	require.NoError(t, json.Unmarshal(env.Data, &state))
	assert.Equal(t, models.CategoryTraining, state.ActiveCategory)
	assert.Equal(t, "training_hurdle_normal", state.FocusedID)
	assert.Len(t, state.Maps, 7)
	assert.Equal(t, models.Totals{Completed: 0, Goal: 60}, state.Totals)
}

func TestMapLifecycle(t *testing.T) {
	s, tr := newServer(t, nil)

	code, env := do(t, s, http.MethodPost, "/api/v1/maps", `{"name":"Loop","category":"custom","target":3}`)
	require.Equal(t, http.StatusCreated, code)
	var created models.MapRecord
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, 3, created.TargetCount)
	assert.Equal(t, models.CategoryCustom, tr.State().ActiveCategory)

	code, env = do(t, s, http.MethodPost, "/api/v1/maps/"+created.ID+"/increment", "")
	require.Equal(t, http.StatusOK, code)
	var incremented models.MapRecord
	require.NoError(t, json.Unmarshal(env.Data, &incremented))
	assert.Equal(t, 1, incremented.CurrentCount)

	code, _ = do(t, s, http.MethodPost, "/api/v1/maps/"+created.ID+"/reset", "")
	assert.Equal(t, http.StatusOK, code)

	code, env = do(t, s, http.MethodGet, "/api/v1/maps?category=custom", "")
	require.Equal(t, http.StatusOK, code)
	var list struct {
		Maps  []models.MapView `json:"maps"`
		Total int              `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, 1, list.Total)
	assert.True(t, list.Maps[0].Focused)

	code, _ = do(t, s, http.MethodDelete, "/api/v1/maps/"+created.ID, "")
	assert.Equal(t, http.StatusOK, code)
	code, _ = do(t, s, http.MethodGet, "/api/v1/maps/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestCreateMapValidation(t *testing.T) {
	s, _ := newServer(t, nil)

	tests := []struct {
		name string
		body string
		code string
	}{
		{"bad json", `{`, "invalid_request"},
		{"empty name", `{"name":"  "}`, "validation_error"},
		{"negative target", `{"name":"x","target":-1}`, "validation_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := do(t, s, http.MethodPost, "/api/v1/maps", tt.body)
			assert.Equal(t, http.StatusBadRequest, status)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}
}

func TestUnknownMapIsNotFound(t *testing.T) {
	s, _ := newServer(t, nil)

	for _, path := range []string{"/increment", "/reset", "/focus"} {
		code, _ := do(t, s, http.MethodPost, "/api/v1/maps/missing"+path, "")
		assert.Equal(t, http.StatusNotFound, code, path)
	}
	code, _ := do(t, s, http.MethodDelete, "/api/v1/maps/missing", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestCategoryFocusAndGoal(t *testing.T) {
	s, tr := newServer(t, nil)

	code, _ := do(t, s, http.MethodPut, "/api/v1/category", `{"category":""}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, s, http.MethodPut, "/api/v1/category", `{"category":"fairytale"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "fairytale_sun_moon", tr.State().FocusedID)

	code, _ = do(t, s, http.MethodPost, "/api/v1/maps/fairytale_pinocchio/focus", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "fairytale_pinocchio", tr.State().FocusedID)

	code, env := do(t, s, http.MethodPost, "/api/v1/goal", "")
	require.Equal(t, http.StatusOK, code)
	var goal models.GoalResponse
	require.NoError(t, json.Unmarshal(env.Data, &goal))
	assert.Equal(t, tracker.GoalCounted, goal.Outcome)
	require.NotNil(t, goal.Map)
	assert.Equal(t, "fairytale_pinocchio", goal.Map.ID)

	code, env = do(t, s, http.MethodPost, "/api/v1/auto-detect/toggle", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"auto_detect_enabled":false}`, string(env.Data))

	code, env = do(t, s, http.MethodGet, "/api/v1/stats", "")
	require.Equal(t, http.StatusOK, code)
	var stats models.Stats
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, 1, stats.Totals.Completed)
}

func TestAdvanceAndSnapshot(t *testing.T) {
	s, tr := newServer(t, nil)

	code, env := do(t, s, http.MethodPost, "/api/v1/advance", "")
	require.Equal(t, http.StatusOK, code)
	var adv models.AdvanceResponse
	require.NoError(t, json.Unmarshal(env.Data, &adv))
	assert.Equal(t, "next", adv.Outcome)
	assert.Equal(t, "training_block_easy", adv.State.FocusedID)
	assert.Equal(t, "training_block_easy", tr.State().FocusedID)

	code, _ = do(t, s, http.MethodPut, "/api/v1/category", `{"category":"custom"}`)
	require.Equal(t, http.StatusOK, code)
	code, env = do(t, s, http.MethodPost, "/api/v1/advance", "")
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &adv))
	assert.Equal(t, "empty", adv.Outcome)

	code, env = do(t, s, http.MethodGet, "/api/v1/snapshot", "")
	require.Equal(t, http.StatusOK, code)
	var snap models.Snapshot
	require.NoError(t, json.Unmarshal(env.Data, &snap))
	assert.Equal(t, models.CategoryCustom, snap.ActiveCategory)
	assert.Contains(t, snap.Maps, "training_block_easy")
}

func TestEventStream(t *testing.T) {
	s, _ := newServer(t, nil)
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var frame struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, models.EventState, frame.Type)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/maps/training_updown/reset", nil)
	require.NoError(t, err)
	req.Close = true
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, models.EventNotice, frame.Type)
	var notice models.Notice
	require.NoError(t, json.Unmarshal(frame.Data, &notice))
	assert.Equal(t, "training_updown", notice.MapID)

	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, models.EventState, frame.Type)
}
