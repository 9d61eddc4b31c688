package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/pokefree/ptcg-sim-go/internal/catalog"
	"github.com/pokefree/ptcg-sim-go/internal/catalog/catalogtest"
	"github.com/pokefree/ptcg-sim-go/internal/config"
	"github.com/pokefree/ptcg-sim-go/internal/game"
)

func testConfig(adminHash string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Address:         ":0",
			ShutdownTimeout: time.Second,
			MaxMatches:      16,
			MetricsEnabled:  true,
		},
		Auth: config.AuthConfig{AdminPasswordHash: adminHash},
	}
}

func newTestServer(t *testing.T, adminHash string) *Server {
	t.Helper()
	recorder := game.NewReplayRecorder(nil, t.TempDir())
	srv := New(testConfig(adminHash), zapTestLogger(), catalogtest.New(), recorder, nil)
	go srv.hub.Run()
	return srv
}

func zapTestLogger() *zap.Logger {
	return zap.NewNop()
}

func createMatch(t *testing.T, ts *httptest.Server, seed int64, aiPolicy string) createMatchResponse {
	t.Helper()
	body, err := json.Marshal(createMatchRequest{
		Seed:       seed,
		PlayerName: "tester",
		AIPolicy:   aiPolicy,
		Decks:      [2][]catalog.ID{catalogtest.FireDeck(), catalogtest.WaterDeck()},
	})
	require.NoError(t, err)

	resp, err := http.Post(ts.URL+"/api/matches", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created createMatchResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	require.NotEmpty(t, created.MatchID)
	return created
}

func getJSON(t *testing.T, ts *httptest.Server, path string, out any) int {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestCreateAndPlayAgainstAI(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t, "").Handler())
	defer ts.Close()

	created := createMatch(t, ts, 42, "greedy")
	require.NotNil(t, created.View)
	assert.Equal(t, game.PlayerOne, created.View.Viewer)
	assert.False(t, created.View.Over)

	// The AI is driven up to the human's decision point, so the human
	// seat always has a move after creation.
	var legal struct {
		Actions []game.Action `json:"actions"`
	}
	status := getJSON(t, ts, "/api/matches/"+created.MatchID+"/legal?seat=0", &legal)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, legal.Actions)

	pass, err := json.Marshal(game.Action{Type: game.ActionPass, Player: game.PlayerOne})
	require.NoError(t, err)
	resp, err := http.Post(ts.URL+"/api/matches/"+created.MatchID+"/actions", "application/json", bytes.NewReader(pass))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var applied actionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&applied))
	require.NotEmpty(t, applied.Events, "passing ends the turn and the AI plays")
	require.NotNil(t, applied.View)
	if !applied.View.Over {
		assert.Equal(t, game.PlayerOne, applied.View.ActivePlayer, "control returns to the human")
	}
}

func TestHiddenInformationStaysServerSide(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t, "").Handler())
	defer ts.Close()
	created := createMatch(t, ts, 7, "greedy")

	var view game.MatchView
	status := getJSON(t, ts, "/api/matches/"+created.MatchID+"/view?seat=0", &view)
	require.Equal(t, http.StatusOK, status)
	assert.Nil(t, view.Opponent.Hand, "opponent hand contents never leave the engine")
	assert.Greater(t, view.Opponent.HandCount, 0)
}

func TestEventsSinceIsIncremental(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t, "").Handler())
	defer ts.Close()
	created := createMatch(t, ts, 11, "greedy")

	var all struct {
		Events []game.Event `json:"events"`
	}
	status := getJSON(t, ts, "/api/matches/"+created.MatchID+"/events?since=0", &all)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, all.Events)

	mid := all.Events[len(all.Events)/2].Seq
	var tail struct {
		Events []game.Event `json:"events"`
	}
	status = getJSON(t, ts, fmt.Sprintf("/api/matches/%s/events?since=%d", created.MatchID, mid), &tail)
	require.Equal(t, http.StatusOK, status)
	for _, ev := range tail.Events {
		assert.Greater(t, ev.Seq, mid)
	}
	assert.Len(t, tail.Events, len(all.Events)-len(all.Events)/2-1)
}

func TestHintsAreRankedAndExplained(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t, "").Handler())
	defer ts.Close()
	created := createMatch(t, ts, 3, "greedy")

	var hints struct {
		Hints []struct {
			Action game.Action `json:"action"`
			Score  float64     `json:"score"`
			Reason string      `json:"reason"`
		} `json:"hints"`
	}
	status := getJSON(t, ts, "/api/matches/"+created.MatchID+"/hints?seat=0", &hints)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, hints.Hints)
	for i, h := range hints.Hints {
		assert.NotEmpty(t, h.Reason)
		if i > 0 {
			assert.GreaterOrEqual(t, hints.Hints[i-1].Score, h.Score)
		}
	}
}

func TestIllegalActionIsRejectedWithoutStateChange(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t, "").Handler())
	defer ts.Close()
	created := createMatch(t, ts, 21, "greedy")

	var before game.MatchView
	getJSON(t, ts, "/api/matches/"+created.MatchID+"/view?seat=0", &before)

	attack, err := json.Marshal(game.Action{Type: game.ActionAttack, Player: game.PlayerOne, AttackIndex: 9})
	require.NoError(t, err)
	resp, err := http.Post(ts.URL+"/api/matches/"+created.MatchID+"/actions", "application/json", bytes.NewReader(attack))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var after game.MatchView
	getJSON(t, ts, "/api/matches/"+created.MatchID+"/view?seat=0", &after)
	assert.Equal(t, before.LastEventSeq, after.LastEventSeq, "a rejected action leaves no trace")
}

func TestAISeatCannotBeDrivenOverTheAPI(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t, "").Handler())
	defer ts.Close()
	created := createMatch(t, ts, 5, "greedy")

	pass, err := json.Marshal(game.Action{Type: game.ActionPass, Player: game.PlayerTwo})
	require.NoError(t, err)
	resp, err := http.Post(ts.URL+"/api/matches/"+created.MatchID+"/actions", "application/json", bytes.NewReader(pass))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestUnknownMatchIs404(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t, "").Handler())
	defer ts.Close()
	assert.Equal(t, http.StatusNotFound, getJSON(t, ts, "/api/matches/nope/view", nil))
}

func TestSeatParamIsValidated(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t, "").Handler())
	defer ts.Close()
	created := createMatch(t, ts, 9, "")
	assert.Equal(t, http.StatusBadRequest, getJSON(t, ts, "/api/matches/"+created.MatchID+"/view?seat=9", nil))
}

func TestUnknownPolicyIsRejected(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t, "").Handler())
	defer ts.Close()

	body, err := json.Marshal(createMatchRequest{
		AIPolicy: "perfect",
		Decks:    [2][]catalog.ID{catalogtest.FireDeck(), catalogtest.WaterDeck()},
	})
	require.NoError(t, err)
	resp, err := http.Post(ts.URL+"/api/matches", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAdminCloseIsPasswordProtected(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("sekret"), bcrypt.MinCost)
	require.NoError(t, err)
	ts := httptest.NewServer(newTestServer(t, string(hash)).Handler())
	defer ts.Close()
	created := createMatch(t, ts, 17, "greedy")

	del := func(password string) int {
		req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/matches/"+created.MatchID, nil)
		require.NoError(t, err)
		if password != "" {
			req.Header.Set("X-Admin-Password", password)
		}
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusUnauthorized, del(""))
	assert.Equal(t, http.StatusUnauthorized, del("wrong"))
	assert.Equal(t, http.StatusNoContent, del("sekret"))
	assert.Equal(t, http.StatusNotFound, getJSON(t, ts, "/api/matches/"+created.MatchID+"/view", nil))
}

func TestAdminCloseDisabledWithoutHash(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t, "").Handler())
	defer ts.Close()
	created := createMatch(t, ts, 19, "greedy")

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/matches/"+created.MatchID, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestHealthReportsOpenMatches(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t, "").Handler())
	defer ts.Close()
	createMatch(t, ts, 23, "greedy")

	var health map[string]any
	status := getJSON(t, ts, "/healthz", &health)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, float64(1), health["open_matches"])
}

func TestMetricsExposition(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t, "").Handler())
	defer ts.Close()
	createMatch(t, ts, 29, "greedy")

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "ptcg_matches_created_total 1")
	assert.Contains(t, string(body), "ptcg_active_matches 1")
}

func TestWebsocketSpectatorReceivesEvents(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t, "").Handler())
	defer ts.Close()
	created := createMatch(t, ts, 31, "greedy")

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/matches/" + created.MatchID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Give the hub a beat to register the subscription before acting.
	time.Sleep(100 * time.Millisecond)

	pass, err := json.Marshal(game.Action{Type: game.ActionPass, Player: game.PlayerOne})
	require.NoError(t, err)
	resp, err := http.Post(ts.URL+"/api/matches/"+created.MatchID+"/actions", "application/json", bytes.NewReader(pass))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg wsMessage
	require.NoError(t, json.Unmarshal(payload, &msg))
	assert.Equal(t, "events", msg.Type)
	assert.Equal(t, created.MatchID, msg.MatchID)
	assert.NotEmpty(t, msg.Events)
}
