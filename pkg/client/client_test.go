package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/practice-tracker/internal/api"
	"github.com/terra-clan/practice-tracker/internal/catalog"
	"github.com/terra-clan/practice-tracker/internal/config"
	"github.com/terra-clan/practice-tracker/internal/models"
	"github.com/terra-clan/practice-tracker/internal/tracker"
)

func newClient(t *testing.T) *Client {
	t.Helper()
	ctx := context.Background()
	tr := tracker.New(ctx, catalog.DefaultSeeds(), nil, tracker.Options{})
	s := api.NewServer(config.ServerConfig{}, tr, nil)
	srv := httptest.NewServer(s.Router())
	t.Cleanup(func() {
		srv.Close()
		s.Close()
		_ = tr.Close(ctx)
	})
	return NewClient(srv.URL, WithHTTPClient(srv.Client()))
}

func TestClientRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newClient(t)

	require.NoError(t, c.Health(ctx))

	state, err := c.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.CategoryTraining, state.ActiveCategory)

	rec, err := c.CreateMap(ctx, models.CreateMapRequest{Name: "Loop", Category: models.CategoryCustom})
	require.NoError(t, err)

	rec, err = c.Increment(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.CurrentCount)

	list, err := c.ListMaps(ctx, models.CategoryCustom)
	require.NoError(t, err)
	assert.Equal(t, 1, list.Total)

	goal, err := c.Goal(ctx)
	require.NoError(t, err)
	assert.Equal(t, tracker.GoalCounted, goal.Outcome)

	enabled, err := c.ToggleAutoDetect(ctx)
	require.NoError(t, err)
	assert.False(t, enabled)

	state, err = c.SwitchCategory(ctx, models.CategoryFairytale)
	require.NoError(t, err)
	assert.Equal(t, "fairytale_sun_moon", state.FocusedID)

	require.NoError(t, c.DeleteMap(ctx, rec.ID))

	adv, err := c.Advance(ctx)
	require.NoError(t, err)
	assert.Equal(t, "next", adv.Outcome)
	assert.Equal(t, "fairytale_heungbu1", adv.State.FocusedID)

	snap, err := c.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "fairytale_heungbu1", snap.FocusedID)
	assert.NotContains(t, snap.Maps, rec.ID)
}

func TestClientNotFound(t *testing.T) {
	c := newClient(t)

	_, err := c.Increment(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "not_found", apiErr.Code)
}
