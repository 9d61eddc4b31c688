package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pokefree/ptcg-sim-go/internal/catalog/catalogtest"
	"github.com/pokefree/ptcg-sim-go/internal/game/energy"
)

func TestViewHidesOpponentHand(t *testing.T) {
	s := newFixtureMatch(t, 11)

	v := s.View(PlayerOne)
	assert.Equal(t, PlayerOne, v.Viewer)
	assert.Len(t, v.Self.Hand, len(s.Players[0].Hand))
	assert.Equal(t, len(s.Players[0].Hand), v.Self.HandCount)

	// The opponent's hand is counted but never listed.
	assert.Nil(t, v.Opponent.Hand)
	assert.Equal(t, len(s.Players[1].Hand), v.Opponent.HandCount)

	// Prize contents stay face down for both sides.
	assert.Equal(t, len(s.Players[0].Prizes), v.Self.PrizesRemaining)
	assert.Equal(t, len(s.Players[1].Prizes), v.Opponent.PrizesRemaining)
}

func TestViewSymmetry(t *testing.T) {
	s := newFixtureMatch(t, 11)

	one := s.View(PlayerOne)
	two := s.View(PlayerTwo)

	assert.Equal(t, one.Self.HandCount, two.Opponent.HandCount)
	assert.Equal(t, one.Opponent.HandCount, two.Self.HandCount)
	assert.Nil(t, two.Opponent.Hand)
}

func TestViewResolvesAttackPayability(t *testing.T) {
	s := bareState()
	p := s.Players[0]
	p.Active = NewCardInstance(catalogtest.Embercub)
	p.Active.Energy = append(p.Active.Energy, NewCardInstance(catalogtest.FireEnergy))
	p.Active.Damage = 20

	v := s.View(PlayerOne)
	require.NotNil(t, v.Self.Active)
	active := v.Self.Active

	assert.Equal(t, "Embercub", active.Name)
	assert.Equal(t, 40, active.RemainingHP)
	assert.Equal(t, []energy.Type{energy.Fire}, active.Energy)

	require.Len(t, active.Attacks, 2)
	assert.True(t, active.Attacks[0].Payable, "Scratch costs {C}")
	assert.False(t, active.Attacks[1].Payable, "Singe costs {R}{C}")
}

func TestViewMustPromote(t *testing.T) {
	s := bareState()
	s.Players[1].Bench = append(s.Players[1].Bench, NewCardInstance(catalogtest.Voltmouse))
	s.PendingPromotions = []PlayerID{PlayerTwo}

	assert.False(t, s.View(PlayerOne).MustPromote)
	assert.True(t, s.View(PlayerTwo).MustPromote)
}

func TestViewTerminalState(t *testing.T) {
	s := bareState()
	s.RecordWin(PlayerTwo, "deck out")

	v := s.View(PlayerOne)
	assert.True(t, v.Over)
	require.NotNil(t, v.Winner)
	assert.Equal(t, PlayerTwo, *v.Winner)
}
