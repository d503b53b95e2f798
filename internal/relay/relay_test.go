package relay

import (
	"encoding/json"
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
	"github.com/terra-clan/practice-tracker/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newRelay(t *testing.T, opts Options) *Relay {
	t.Helper()
	r := New(catalog.DefaultSeeds(), opts)
	t.Cleanup(r.Close)
	return r
}

func call(t *testing.T, h http.Handler, method, path, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec.Code, out
}

func TestRESTOperations(t *testing.T) {
	r := newRelay(t, Options{})
	h := r.Router()

	code, out := call(t, h, http.MethodPost, "/api/maps/training_updown/increment", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), out["new_count"])

	code, _ = call(t, h, http.MethodPost, "/api/maps/missing/increment", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = call(t, h, http.MethodPost, "/api/maps/training_updown/reset", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0, r.State().Maps["training_updown"].CurrentCount)

	code, out = call(t, h, http.MethodPost, "/api/auto-detect/toggle", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, out["auto_detect_enabled"])

	code, out = call(t, h, http.MethodGet, "/api/state", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, out["auto_detect_enabled"])
	assert.Len(t, out["maps"], 12)
}

func TestAddMap(t *testing.T) {
	r := newRelay(t, Options{})
	h := r.Router()

	code, out := call(t, h, http.MethodPost, "/api/maps/add?map_name=Forest+Run", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "custom_forest_run", out["map_id"])

	rec := r.State().Maps["custom_forest_run"]
	assert.Equal(t, models.CategoryCustom, rec.Category)
	assert.Equal(t, models.DefaultTarget, rec.TargetCount)

	code, out = call(t, h, http.MethodPost, "/api/maps/add?map_name=forest+run&category=training", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Map already exists", out["error"])

	code, _ = call(t, h, http.MethodPost, "/api/maps/add", "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestDetectionGate(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r := newRelay(t, Options{Cooldown: 3 * time.Second, Now: func() time.Time { return now }})

	assert.Equal(t, ReasonAccepted, r.Detect(Detection{}))

	now = now.Add(time.Second)
	assert.Equal(t, ReasonCooldown, r.Detect(Detection{}))

	now = now.Add(3 * time.Second)
	assert.Equal(t, ReasonAccepted, r.Detect(Detection{}))

	r.ToggleAutoDetect()
	now = now.Add(time.Minute)
	assert.Equal(t, ReasonDisabled, r.Detect(Detection{}))
}

func TestDetectionEndpoint(t *testing.T) {
	r := newRelay(t, Options{})
	h := r.Router()

	code, out := call(t, h, http.MethodPost, "/api/detections", "")
	assert.Equal(t, http.StatusAccepted, code)
	assert.Equal(t, true, out["accepted"])

	code, out = call(t, h, http.MethodPost, "/api/detections", `{"confidence":0.9}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, ReasonCooldown, out["reason"])

	code, _ = call(t, h, http.MethodPost, "/api/detections", `{`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestWebsocketFrames(t *testing.T) {
	r := newRelay(t, Options{})
	srv := httptest.NewServer(r.Router())
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	readState := func() models.RelayState {
		var msg models.RelayMessage
		require.NoError(t, conn.ReadJSON(&msg))
		require.Equal(t, models.MessageStateUpdate, msg.Type)
		var state models.RelayState
		require.NoError(t, json.Unmarshal(msg.Data, &state))
		return state
	}

	state := readState()
	assert.True(t, state.AutoDetectEnabled)

	require.NoError(t, conn.WriteJSON(models.RelayMessage{Type: models.MessageIncrement, MapID: "fairytale_momotaro"}))
	state = readState()
	assert.Equal(t, 1, state.Maps["fairytale_momotaro"].CurrentCount)

	require.NoError(t, conn.WriteJSON(models.RelayMessage{Type: models.MessageToggleAutoDetect}))
	state = readState()
	assert.False(t, state.AutoDetectEnabled)

	r.ToggleAutoDetect()
	readState()
	r.Detect(Detection{MapID: "fairytale_momotaro"})

	var msg models.RelayMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, models.MessageGoalDetected, msg.Type)
	var goal models.GoalDetected
	require.NoError(t, json.Unmarshal(msg.Data, &goal))
	assert.Equal(t, "fairytale_momotaro", goal.MapID)
}
