package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"parcel-ops/internal/core/cache"
	"parcel-ops/internal/features/selection/adapters"
	"parcel-ops/internal/features/selection/domain"
	"parcel-ops/internal/features/selection/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupApp(t *testing.T) *fiber.App {
	t.Helper()

	mr := miniredis.RunT(t)
	c, err := cache.NewRedisAdapter("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	repo := adapters.NewRedisSelectionRepository(c, time.Minute)
	h := NewSelectionHandler(service.NewSelectionService(repo))

	app := fiber.New()
	app.Put("/selections/:session", h.Park)
	app.Get("/selections/:session", h.Peek)
	app.Post("/selections/:session/consume", h.Consume)
	return app
}

func parkRequest(session string, parcelIDs []string) *http.Request {
	body, _ := json.Marshal(ParkSelectionRequest{ParcelIDs: parcelIDs})
	req := httptest.NewRequest(http.MethodPut, "/selections/"+session, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestParkAndPeek(t *testing.T) {
	app := setupApp(t)

	resp, err := app.Test(parkRequest("sess-1", []string{"p-1", "p-2", "p-1"}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/selections/sess-1", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var s domain.Selection
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&s))
	assert.Equal(t, "sess-1", s.SessionID)
	assert.Equal(t, []string{"p-1", "p-2"}, s.ParcelIDs)
}

func TestPark_EmptySelection(t *testing.T) {
	app := setupApp(t)

	resp, err := app.Test(parkRequest("sess-1", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestPark_InvalidBody(t *testing.T) {
	app := setupApp(t)

	req := httptest.NewRequest(http.MethodPut, "/selections/sess-1", bytes.NewBufferString("{broken"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)

	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestPeek_NotFound(t *testing.T) {
	app := setupApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/selections/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestConsume_SecondConsumeFindsNothing(t *testing.T) {
	app := setupApp(t)

	resp, err := app.Test(parkRequest("sess-1", []string{"p-1"}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/selections/sess-1/consume", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var s domain.Selection
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&s))
	assert.Equal(t, []string{"p-1"}, s.ParcelIDs)

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/selections/sess-1/consume", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestPark_ReplacesPreviousSelection(t *testing.T) {
	app := setupApp(t)

	resp, err := app.Test(parkRequest("sess-1", []string{"p-1"}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(parkRequest("sess-1", []string{"p-7", "p-8"}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/selections/sess-1", nil))
	require.NoError(t, err)

	var s domain.Selection
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&s))
	assert.Equal(t, []string{"p-7", "p-8"}, s.ParcelIDs)
}
