package server_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"league-tracker/internal/config"
	"league-tracker/internal/database"
	"league-tracker/internal/peer"
	"league-tracker/internal/repository"
	"league-tracker/internal/server"
	"league-tracker/internal/service"
)

type fixedSource struct{}

func (fixedSource) Intn(int) int { return 0 }

// newTestInstance wires a full tracker against a throwaway database and
// serves it over httptest.
func newTestInstance(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := &config.Config{
		DBPath:      filepath.Join(t.TempDir(), "league.db"),
		SyncTimeout: 2 * time.Second,
	}
	logger := zerolog.Nop()

	db, err := database.New(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	playerRepo := repository.NewPlayerRepository(db, logger)
	matchRepo := repository.NewMatchRepository(db, logger)
	snapshotRepo := repository.NewSnapshotRepository(db, logger)

	tracker := server.NewTrackerServer(
		service.NewPlayerService(playerRepo, logger),
		service.NewMatchService(playerRepo, matchRepo, fixedSource{}, logger),
		service.NewStatsService(playerRepo, matchRepo, logger),
		service.NewSnapshotService(playerRepo, matchRepo, snapshotRepo, logger),
		peer.NewClient(cfg, logger),
		logger,
	)

	ts := httptest.NewServer(tracker.Routes())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, raw
}

func registerPlayer(t *testing.T, baseURL, name string, rating int) string {
	t.Helper()

	resp, raw := doJSON(t, http.MethodPost, baseURL+"/v1/players", map[string]any{
		"name":     name,
		"reflexes": rating,
		"setting":  rating,
		"defense":  rating,
		"spike":    rating,
		"gameIq":   rating,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(raw, &created))
	require.NotEmpty(t, created.ID)
	return created.ID
}

func TestPlayerLifecycle(t *testing.T) {
	ts := newTestInstance(t)

	resp, raw := doJSON(t, http.MethodPost, ts.URL+"/v1/players", map[string]any{
		"name":     "Marco",
		"reflexes": 90,
		"setting":  80,
		"defense":  70,
		"spike":    60,
		"gameIq":   55,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	var created struct {
		ID        string  `json:"id"`
		Average   float64 `json:"average"`
		Available bool    `json:"available"`
		Card      string  `json:"card"`
		History   []struct {
			Reason string `json:"reason"`
		} `json:"history"`
	}
	require.NoError(t, json.Unmarshal(raw, &created))
	assert.Equal(t, 71.0, created.Average)
	assert.True(t, created.Available)
	assert.Equal(t, "silver", created.Card)
	require.Len(t, created.History, 1)
	assert.Equal(t, "Initial rating", created.History[0].Reason)

	resp, raw = doJSON(t, http.MethodGet, ts.URL+"/v1/players", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(raw, &list))
	require.Len(t, list, 1)
	assert.NotContains(t, list[0], "history", "list omits history")

	resp, raw = doJSON(t, http.MethodPut, ts.URL+"/v1/players/"+created.ID, map[string]any{
		"name":     "Marco",
		"reflexes": 90,
		"setting":  80,
		"defense":  70,
		"spike":    95,
		"gameIq":   55,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var updated struct {
		Average float64 `json:"average"`
		History []struct {
			Reason string `json:"reason"`
		} `json:"history"`
	}
	require.NoError(t, json.Unmarshal(raw, &updated))
	assert.Equal(t, 78.0, updated.Average)
	require.Len(t, updated.History, 2)
	assert.Equal(t, "Stats updated", updated.History[1].Reason)

	resp, raw = doJSON(t, http.MethodPost, ts.URL+"/v1/players/"+created.ID+"/availability", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"available": false}`, string(raw))

	resp, _ = doJSON(t, http.MethodDelete, ts.URL+"/v1/players/"+created.ID, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/v1/players/"+created.ID, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPlayerValidationOverHTTP(t *testing.T) {
	ts := newTestInstance(t)

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/v1/players", map[string]any{
		"name": "Bad", "reflexes": 120, "setting": 50, "defense": 50, "spike": 50, "gameIq": 50,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/v1/players", map[string]any{
		"reflexes": 50, "setting": 50, "defense": 50, "spike": 50, "gameIq": 50,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "missing name")
}

func TestDraftAndMatchFlow(t *testing.T) {
	ts := newTestInstance(t)

	ids := make([]string, 0, 4)
	for i, rating := range []int{90, 80, 70, 60} {
		ids = append(ids, registerPlayer(t, ts.URL, fmt.Sprintf("Player %d", i+1), rating))
	}

	resp, raw := doJSON(t, http.MethodPost, ts.URL+"/v1/draft", map[string]any{"numTeams": 2})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var draft struct {
		Teams    [][]map[string]any `json:"teams"`
		Averages []float64          `json:"averages"`
		Spread   float64            `json:"spread"`
	}
	require.NoError(t, json.Unmarshal(raw, &draft))
	require.Len(t, draft.Teams, 2)
	assert.Len(t, draft.Teams[0], 2)
	assert.LessOrEqual(t, draft.Spread, 10.0)

	resp, raw = doJSON(t, http.MethodPost, ts.URL+"/v1/matches", map[string]any{
		"winners": []string{ids[0], ids[3]},
		"losers":  []string{ids[1], ids[2]},
		"notes":   "opening night",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	var match struct {
		ID    int64  `json:"id"`
		Date  string `json:"date"`
		Teams []struct {
			Players []string `json:"players"`
			Average float64  `json:"average"`
			Result  string   `json:"result"`
		} `json:"teams"`
	}
	require.NoError(t, json.Unmarshal(raw, &match))
	assert.Positive(t, match.ID)
	assert.Equal(t, time.Now().Format("2006-01-02"), match.Date)
	require.Len(t, match.Teams, 2)
	assert.Equal(t, "win", match.Teams[0].Result)
	assert.Equal(t, 75.0, match.Teams[0].Average)

	resp, raw = doJSON(t, http.MethodGet, ts.URL+"/v1/leaderboard?filter=today&sort=wins", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var board []struct {
		Rank    int     `json:"rank"`
		WinRate float64 `json:"winRate"`
		Player  struct {
			ID string `json:"id"`
		} `json:"player"`
	}
	require.NoError(t, json.Unmarshal(raw, &board))
	require.Len(t, board, 4)
	assert.Equal(t, 1, board[0].Rank)
	assert.Equal(t, 100.0, board[0].WinRate)
	assert.Equal(t, ids[0], board[0].Player.ID)

	resp, raw = doJSON(t, http.MethodGet, ts.URL+"/v1/matches", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var matches []json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &matches))
	assert.Len(t, matches, 1)
}

func TestDraftDefaultsToTwoTeams(t *testing.T) {
	ts := newTestInstance(t)
	for i, rating := range []int{90, 80, 70, 60} {
		registerPlayer(t, ts.URL, fmt.Sprintf("Player %d", i+1), rating)
	}

	resp, raw := doJSON(t, http.MethodPost, ts.URL+"/v1/draft", map[string]any{})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var draft struct {
		Teams [][]map[string]any `json:"teams"`
	}
	require.NoError(t, json.Unmarshal(raw, &draft))
	assert.Len(t, draft.Teams, 2)
}

func TestDraftRequiresEnoughPlayers(t *testing.T) {
	ts := newTestInstance(t)
	registerPlayer(t, ts.URL, "Solo", 70)

	resp, raw := doJSON(t, http.MethodPost, ts.URL+"/v1/draft", map[string]any{"numTeams": 2})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(raw), "error")
}

func TestRecordMatchUnknownPlayer(t *testing.T) {
	ts := newTestInstance(t)
	id := registerPlayer(t, ts.URL, "Known", 70)

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/v1/matches", map[string]any{
		"winners": []string{id},
		"losers":  []string{"ghost"},
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestExportImport(t *testing.T) {
	source := newTestInstance(t)
	target := newTestInstance(t)

	a := registerPlayer(t, source.URL, "Marco", 80)
	b := registerPlayer(t, source.URL, "Giulia", 75)
	resp, raw := doJSON(t, http.MethodPost, source.URL+"/v1/matches", map[string]any{
		"winners": []string{a},
		"losers":  []string{b},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	resp, exported := doJSON(t, http.MethodGet, source.URL+"/v1/export", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")

	var payload json.RawMessage = exported
	req, err := http.NewRequest(http.MethodPost, target.URL+"/v1/import", bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	importResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	imported, err := io.ReadAll(importResp.Body)
	require.NoError(t, err)
	importResp.Body.Close()

	require.Equal(t, http.StatusOK, importResp.StatusCode, string(imported))
	assert.JSONEq(t, `{"players": 2, "matches": 1}`, string(imported))

	resp, raw = doJSON(t, http.MethodGet, target.URL+"/v1/players", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var players []struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(raw, &players))
	require.Len(t, players, 2)
	assert.Equal(t, a, players[0].ID)
}

func TestImportRejectsInvalidPayload(t *testing.T) {
	ts := newTestInstance(t)

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/v1/import", map[string]any{"matches": []any{}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "payload without players rejected")
}

func TestSyncPushBetweenInstances(t *testing.T) {
	source := newTestInstance(t)
	target := newTestInstance(t)

	registerPlayer(t, source.URL, "Marco", 80)
	registerPlayer(t, source.URL, "Giulia", 75)

	resp, raw := doJSON(t, http.MethodPost, source.URL+"/v1/sync/push", map[string]any{"peer": target.URL})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	assert.JSONEq(t, `{"players": 2, "matches": 0}`, string(raw))

	resp, raw = doJSON(t, http.MethodGet, target.URL+"/v1/players", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var players []json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &players))
	assert.Len(t, players, 2)
}

func TestSyncPushRequiresPeer(t *testing.T) {
	ts := newTestInstance(t)

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/v1/sync/push", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
