package server

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pokefree/ptcg-sim-go/internal/catalog"
	"github.com/pokefree/ptcg-sim-go/internal/catalog/catalogtest"
	"github.com/pokefree/ptcg-sim-go/internal/game"
)

// shortDeck builds a ten-card list that leaves nothing to draw once the
// opening hand and prizes are laid, so the toss winner decks out on the
// very first mandatory draw.
func shortDeck(creature, energyCard catalog.ID) []catalog.ID {
	deck := make([]catalog.ID, 0, 10)
	for i := 0; i < 6; i++ {
		deck = append(deck, creature)
	}
	for i := 0; i < 4; i++ {
		deck = append(deck, energyCard)
	}
	return deck
}

func TestMatchOverAtCreationIsArchived(t *testing.T) {
	dir := t.TempDir()
	recorder := game.NewReplayRecorder(nil, dir)
	metrics := NewMetrics()
	m := NewManager(zapTestLogger(), catalogtest.New(), recorder, nil, nil, metrics, 4)

	session, view, err := m.Create(CreateParams{
		Seed: 3,
		Decks: [2][]catalog.ID{
			shortDeck(catalogtest.Embercub, catalogtest.FireEnergy),
			shortDeck(catalogtest.Tidepup, catalogtest.WaterEnergy),
		},
	})
	require.NoError(t, err)
	require.True(t, view.Over, "the first turn's draw ends the match inside Create")
	require.NotNil(t, session.state.Winner)
	assert.True(t, session.state.Player(session.state.Winner.Opponent()).DeckedOut)

	// A match that is already terminal when Create returns must be
	// archived right there, not wait for Close. The replay is flushed to
	// disk and the outcome counted.
	_, err = game.LoadReplayFromFile(dir, session.ID)
	require.NoError(t, err)
	_, recording := recorder.GetReplay(session.ID)
	assert.False(t, recording, "a flushed replay leaves the recorder")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.matchesEnded.WithLabelValues("win")))
}
