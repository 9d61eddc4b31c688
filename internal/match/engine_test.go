package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pokefree/ptcg-sim-go/internal/catalog"
	"github.com/pokefree/ptcg-sim-go/internal/catalog/catalogtest"
	"github.com/pokefree/ptcg-sim-go/internal/game"
	"github.com/pokefree/ptcg-sim-go/internal/game/status"
)

// harness builds a mid-game position the tests then shape: turn 3, main
// phase, player one to act. finalize must be called after shaping so the
// conservation invariant has the right anchor.
func harness(t *testing.T, seed int64) *game.State {
	t.Helper()
	s := &game.State{
		MatchID: "engine-test",
		Seed:    seed,
		Catalog: catalogtest.New(),
		Phase:   game.PhaseMain,
		Turn:    3,
	}
	s.Players[0] = &game.PlayerState{Name: "one"}
	s.Players[1] = &game.PlayerState{Name: "two"}
	return s
}

func finalize(s *game.State) {
	for idx, p := range s.Players {
		p.StartingCount = p.CardCount()
		if s.Stadium != nil && s.StadiumOwner == game.PlayerID(idx) {
			p.StartingCount += s.Stadium.CardCount()
		}
	}
}

func place(id catalog.ID) *game.CardInstance {
	return game.NewCardInstance(id)
}

func withEnergy(ci *game.CardInstance, ids ...catalog.ID) *game.CardInstance {
	for _, id := range ids {
		ci.Energy = append(ci.Energy, game.NewCardInstance(id))
	}
	return ci
}

func stock(p *game.PlayerState, n int, id catalog.ID) {
	for i := 0; i < n; i++ {
		p.Deck = append(p.Deck, game.NewCardInstance(id))
	}
}

func prizes(p *game.PlayerState, n int) {
	for i := 0; i < n; i++ {
		p.Prizes = append(p.Prizes, game.NewCardInstance(catalogtest.FireEnergy))
	}
}

func mustApply(t *testing.T, e *Engine, s *game.State, a game.Action) []game.Event {
	t.Helper()
	events, err := e.Apply(s, a)
	require.NoError(t, err)
	return events
}

func TestAttackAppliesWeaknessAndEndsTurn(t *testing.T) {
	s := harness(t, 1)
	s.Players[0].Active = withEnergy(place(catalogtest.Voltmouse), catalogtest.LightningEnergy)
	s.Players[1].Active = place(catalogtest.Tidepup)
	stock(s.Players[0], 3, catalogtest.FireEnergy)
	stock(s.Players[1], 3, catalogtest.WaterEnergy)
	prizes(s.Players[0], 2)
	prizes(s.Players[1], 2)
	finalize(s)

	e := NewEngine(nil)
	mustApply(t, e, s, game.Action{Type: game.ActionAttack, Player: game.PlayerOne, AttackIndex: 0})

	// Jolt does 20; Tidepup is weak to Lightning, so 40.
	assert.Equal(t, 40, s.Players[1].Active.Damage)

	// The attack ended the turn and the opponent has drawn into turn 4.
	assert.Equal(t, 4, s.Turn)
	assert.Equal(t, game.PlayerTwo, s.ActivePlayer)
	assert.Equal(t, game.PhaseMain, s.Phase)
	assert.Len(t, s.Players[1].Deck, 2)
	assert.Len(t, s.Players[1].Hand, 1)
}

func TestKnockoutAwardsPrizeAndForcesPromotion(t *testing.T) {
	s := harness(t, 1)
	s.Players[0].Active = withEnergy(place(catalogtest.Voltmouse), catalogtest.LightningEnergy)
	defender := place(catalogtest.Tidepup)
	defender.Damage = 20
	defender.Energy = append(defender.Energy, game.NewCardInstance(catalogtest.WaterEnergy))
	s.Players[1].Active = defender
	s.Players[1].Bench = append(s.Players[1].Bench, place(catalogtest.Voltmouse))
	stock(s.Players[0], 3, catalogtest.FireEnergy)
	stock(s.Players[1], 3, catalogtest.WaterEnergy)
	prizes(s.Players[0], 2)
	prizes(s.Players[1], 2)
	finalize(s)

	e := NewEngine(nil)
	mustApply(t, e, s, game.Action{Type: game.ActionAttack, Player: game.PlayerOne, AttackIndex: 0})

	// 20 marked + 40 from the attack >= 50 HP: knocked out with its
	// attachments, and the attacker's side took a prize.
	assert.Nil(t, s.Players[1].Active)
	assert.Len(t, s.Players[1].Discard, 2, "creature and its energy")
	assert.Len(t, s.Players[0].Prizes, 1)
	assert.Len(t, s.Players[0].Hand, 1, "prize goes to hand")

	// The turn cannot flip until the replacement is chosen.
	assert.Equal(t, 3, s.Turn)
	require.Equal(t, []game.PlayerID{game.PlayerTwo}, s.PendingPromotions)

	mustApply(t, e, s, game.Action{Type: game.ActionPromote, Player: game.PlayerTwo, TargetIndex: 0})
	require.NotNil(t, s.Players[1].Active)
	assert.Equal(t, 4, s.Turn, "turn flips once the promotion settles")
	assert.Equal(t, game.PlayerTwo, s.ActivePlayer)
}

func TestWinByTakingLastPrize(t *testing.T) {
	s := harness(t, 1)
	s.Players[0].Active = withEnergy(place(catalogtest.Voltmouse), catalogtest.LightningEnergy)
	defender := place(catalogtest.Tidepup)
	defender.Damage = 40
	s.Players[1].Active = defender
	s.Players[1].Bench = append(s.Players[1].Bench, place(catalogtest.Voltmouse))
	stock(s.Players[0], 2, catalogtest.FireEnergy)
	stock(s.Players[1], 2, catalogtest.WaterEnergy)
	prizes(s.Players[0], 1)
	prizes(s.Players[1], 2)
	finalize(s)

	e := NewEngine(nil)
	mustApply(t, e, s, game.Action{Type: game.ActionAttack, Player: game.PlayerOne, AttackIndex: 0})

	assert.True(t, s.Over)
	require.NotNil(t, s.Winner)
	assert.Equal(t, game.PlayerOne, *s.Winner)
	assert.Empty(t, s.PendingPromotions, "a finished match owes nothing")
}

func TestDoublePrizeKnockout(t *testing.T) {
	s := harness(t, 1)
	s.Players[0].Active = withEnergy(place(catalogtest.Voltmouse), catalogtest.LightningEnergy)
	big := place(catalogtest.MagmothEx)
	big.Damage = 140
	s.Players[1].Active = big
	s.Players[1].Bench = append(s.Players[1].Bench, place(catalogtest.Voltmouse))
	stock(s.Players[0], 2, catalogtest.FireEnergy)
	stock(s.Players[1], 2, catalogtest.WaterEnergy)
	prizes(s.Players[0], 3)
	prizes(s.Players[1], 3)
	finalize(s)

	e := NewEngine(nil)
	mustApply(t, e, s, game.Action{Type: game.ActionAttack, Player: game.PlayerOne, AttackIndex: 0})

	assert.Len(t, s.Players[0].Prizes, 1, "an ex is worth two prizes")
}

func TestWinWhenOpponentHasNoCreaturesLeft(t *testing.T) {
	s := harness(t, 1)
	s.Players[0].Active = withEnergy(place(catalogtest.Voltmouse), catalogtest.LightningEnergy)
	defender := place(catalogtest.Tidepup)
	defender.Damage = 40
	s.Players[1].Active = defender
	stock(s.Players[0], 2, catalogtest.FireEnergy)
	stock(s.Players[1], 2, catalogtest.WaterEnergy)
	prizes(s.Players[0], 2)
	prizes(s.Players[1], 2)
	finalize(s)

	e := NewEngine(nil)
	mustApply(t, e, s, game.Action{Type: game.ActionAttack, Player: game.PlayerOne, AttackIndex: 0})

	assert.True(t, s.Over)
	require.NotNil(t, s.Winner)
	assert.Equal(t, game.PlayerOne, *s.Winner)
}

func TestSimultaneousKnockoutIsADraw(t *testing.T) {
	s := harness(t, 1)
	s.Players[0].Active = withEnergy(place(catalogtest.Cinderbat),
		catalogtest.FireEnergy, catalogtest.FireEnergy)
	s.Players[1].Active = place(catalogtest.Tidepup)
	stock(s.Players[0], 2, catalogtest.FireEnergy)
	stock(s.Players[1], 2, catalogtest.WaterEnergy)
	prizes(s.Players[0], 2)
	prizes(s.Players[1], 2)
	finalize(s)

	e := NewEngine(nil)
	mustApply(t, e, s, game.Action{Type: game.ActionAttack, Player: game.PlayerOne, AttackIndex: 0})

	// Reckless Flare fells the defender and its recoil fells the attacker.
	// With both benches empty neither side can promote, so nobody wins.
	assert.True(t, s.Over)
	assert.True(t, s.IsDraw)
	assert.Nil(t, s.Winner)
	assert.Empty(t, s.PendingPromotions)

	drawn := false
	for _, ev := range s.Events {
		if ev.Type == game.EventMatchDrawn {
			drawn = true
		}
	}
	assert.True(t, drawn, "the draw is announced in the event log")
}

func TestDeckOutLosesTheMatch(t *testing.T) {
	s := harness(t, 1)
	s.Players[0].Active = place(catalogtest.Embercub)
	s.Players[1].Active = place(catalogtest.Tidepup)
	stock(s.Players[0], 2, catalogtest.FireEnergy)
	// Player two has no deck left to draw from.
	prizes(s.Players[0], 2)
	prizes(s.Players[1], 2)
	finalize(s)

	e := NewEngine(nil)
	mustApply(t, e, s, game.Action{Type: game.ActionPass, Player: game.PlayerOne})

	assert.True(t, s.Over)
	require.NotNil(t, s.Winner)
	assert.Equal(t, game.PlayerOne, *s.Winner)
	assert.True(t, s.Players[1].DeckedOut)
}

func TestCheckupPoisonAndParalysis(t *testing.T) {
	s := harness(t, 1)
	s.Players[0].Active = place(catalogtest.Embercub)
	s.Players[0].Active.Status.Apply(status.Paralyzed)
	s.Players[1].Active = place(catalogtest.Tidepup)
	s.Players[1].Active.Status.Apply(status.Poisoned)
	stock(s.Players[0], 2, catalogtest.FireEnergy)
	stock(s.Players[1], 2, catalogtest.WaterEnergy)
	prizes(s.Players[0], 2)
	prizes(s.Players[1], 2)
	finalize(s)

	e := NewEngine(nil)
	mustApply(t, e, s, game.Action{Type: game.ActionPass, Player: game.PlayerOne})

	// Poison ticks between turns; it does not wear off.
	assert.Equal(t, status.PoisonDamage, s.Players[1].Active.Damage)
	assert.True(t, s.Players[1].Active.Status.Has(status.Poisoned))

	// Paralysis wears off at the end of the afflicted player's own turn.
	assert.False(t, s.Players[0].Active.Status.Has(status.Paralyzed))
}

func TestCheckupBurnFlip(t *testing.T) {
	for seed := int64(0); seed < 6; seed++ {
		s := harness(t, seed)
		s.Players[0].Active = place(catalogtest.Embercub)
		s.Players[1].Active = place(catalogtest.Tidepup)
		s.Players[1].Active.Status.Apply(status.Burned)
		stock(s.Players[0], 2, catalogtest.FireEnergy)
		stock(s.Players[1], 2, catalogtest.WaterEnergy)
		prizes(s.Players[0], 2)
		prizes(s.Players[1], 2)
		finalize(s)

		e := NewEngine(nil)
		mustApply(t, e, s, game.Action{Type: game.ActionPass, Player: game.PlayerOne})

		// Burn always ticks; whether it wears off must agree with the
		// logged recovery flip.
		assert.Equal(t, status.BurnDamage, s.Players[1].Active.Damage, "seed %d", seed)
		cured := false
		for _, ev := range s.Events {
			if ev.Type == game.EventCoinFlip && ev.Data["reason"] == "burn recovery" {
				cured = ev.Data["result"] == "heads"
			}
		}
		assert.Equal(t, !cured, s.Players[1].Active.Status.Has(status.Burned), "seed %d", seed)
	}
}

func TestCheckupKnockoutBeforeNextTurn(t *testing.T) {
	s := harness(t, 1)
	s.Players[0].Active = place(catalogtest.Embercub)
	poisoned := place(catalogtest.Voltmouse)
	poisoned.Damage = 30 // 10 HP left, poison finishes it
	poisoned.Status.Apply(status.Poisoned)
	s.Players[1].Active = poisoned
	s.Players[1].Bench = append(s.Players[1].Bench, place(catalogtest.Tidepup))
	stock(s.Players[0], 2, catalogtest.FireEnergy)
	stock(s.Players[1], 2, catalogtest.WaterEnergy)
	prizes(s.Players[0], 2)
	prizes(s.Players[1], 2)
	finalize(s)

	e := NewEngine(nil)
	mustApply(t, e, s, game.Action{Type: game.ActionPass, Player: game.PlayerOne})

	// The poison knockout interrupts between turns; turn 4 cannot start
	// until player two promotes.
	assert.Nil(t, s.Players[1].Active)
	assert.Equal(t, 3, s.Turn)
	require.Equal(t, []game.PlayerID{game.PlayerTwo}, s.PendingPromotions)

	mustApply(t, e, s, game.Action{Type: game.ActionPromote, Player: game.PlayerTwo, TargetIndex: 0})
	assert.Equal(t, 4, s.Turn)
	assert.Equal(t, game.PlayerTwo, s.ActivePlayer)
}

func TestEvolutionCarriesBoardState(t *testing.T) {
	s := harness(t, 1)
	base := withEnergy(place(catalogtest.Embercub), catalogtest.FireEnergy, catalogtest.FireEnergy)
	base.Damage = 20
	base.Status.Apply(status.Asleep)
	base.TurnPlayed = 1
	s.Players[0].Active = base
	s.Players[0].Hand = append(s.Players[0].Hand, place(catalogtest.Emberclaw))
	s.Players[1].Active = place(catalogtest.Tidepup)
	stock(s.Players[0], 2, catalogtest.FireEnergy)
	stock(s.Players[1], 2, catalogtest.WaterEnergy)
	prizes(s.Players[0], 2)
	prizes(s.Players[1], 2)
	finalize(s)

	e := NewEngine(nil)
	mustApply(t, e, s, game.Action{Type: game.ActionEvolve, Player: game.PlayerOne, HandIndex: 0, TargetIndex: -1})

	evolved := s.Players[0].Active
	require.Equal(t, catalogtest.Emberclaw, evolved.CardID)
	assert.Equal(t, 20, evolved.Damage, "damage carries over")
	assert.Len(t, evolved.Energy, 2, "energy carries over")
	assert.True(t, evolved.Status.Empty(), "evolving cures conditions")
	assert.Equal(t, s.Turn, evolved.TurnPlayed)
	require.Len(t, evolved.Underneath, 1)
	assert.Equal(t, catalogtest.Embercub, evolved.Underneath[0].CardID)
}

func TestRetreatDiscardsEnergyAndSwaps(t *testing.T) {
	s := harness(t, 1)
	active := withEnergy(place(catalogtest.Embercub), catalogtest.FireEnergy, catalogtest.FireEnergy)
	active.Status.Apply(status.Poisoned)
	s.Players[0].Active = active
	s.Players[0].Bench = append(s.Players[0].Bench, place(catalogtest.Voltmouse))
	s.Players[1].Active = place(catalogtest.Tidepup)
	stock(s.Players[0], 2, catalogtest.FireEnergy)
	stock(s.Players[1], 2, catalogtest.WaterEnergy)
	prizes(s.Players[0], 2)
	prizes(s.Players[1], 2)
	finalize(s)

	e := NewEngine(nil)
	mustApply(t, e, s, game.Action{Type: game.ActionRetreat, Player: game.PlayerOne, TargetIndex: 0})

	p := s.Players[0]
	assert.Equal(t, catalogtest.Voltmouse, p.Active.CardID)
	require.Len(t, p.Bench, 1)
	retreated := p.Bench[0]
	assert.Equal(t, catalogtest.Embercub, retreated.CardID)
	assert.Len(t, retreated.Energy, 1, "one energy paid the retreat cost")
	assert.Len(t, p.Discard, 1)
	assert.True(t, retreated.Status.Empty(), "conditions clear on leaving Active")
	assert.True(t, p.Retreated)
}

func TestSupporterDrawsAndIsDiscarded(t *testing.T) {
	s := harness(t, 1)
	s.Players[0].Active = place(catalogtest.Embercub)
	s.Players[0].Hand = append(s.Players[0].Hand, place(catalogtest.Researcher))
	s.Players[1].Active = place(catalogtest.Tidepup)
	stock(s.Players[0], 5, catalogtest.FireEnergy)
	stock(s.Players[1], 2, catalogtest.WaterEnergy)
	prizes(s.Players[0], 2)
	prizes(s.Players[1], 2)
	finalize(s)

	e := NewEngine(nil)
	mustApply(t, e, s, game.Action{Type: game.ActionPlayTrainer, Player: game.PlayerOne, HandIndex: 0})

	p := s.Players[0]
	assert.Len(t, p.Hand, 3, "supporter leaves hand, three cards drawn")
	assert.Len(t, p.Deck, 2)
	require.Len(t, p.Discard, 1)
	assert.Equal(t, catalogtest.Researcher, p.Discard[0].CardID)
	assert.True(t, p.PlayedSupporter)
}

func TestStadiumReplacesExistingOne(t *testing.T) {
	s := harness(t, 1)
	s.Players[0].Active = place(catalogtest.Embercub)
	s.Players[0].Hand = append(s.Players[0].Hand, place(catalogtest.TrainingGround))
	s.Players[1].Active = place(catalogtest.Tidepup)
	s.Stadium = place(catalogtest.OpenArena)
	s.StadiumOwner = game.PlayerTwo
	stock(s.Players[0], 2, catalogtest.FireEnergy)
	stock(s.Players[1], 2, catalogtest.WaterEnergy)
	prizes(s.Players[0], 2)
	prizes(s.Players[1], 2)
	finalize(s)

	e := NewEngine(nil)
	mustApply(t, e, s, game.Action{Type: game.ActionPlayTrainer, Player: game.PlayerOne, HandIndex: 0})

	require.NotNil(t, s.Stadium)
	assert.Equal(t, catalogtest.TrainingGround, s.Stadium.CardID)
	assert.Equal(t, game.PlayerOne, s.StadiumOwner)
	require.Len(t, s.Players[1].Discard, 1, "the old stadium goes to its owner's discard")
	assert.Equal(t, catalogtest.OpenArena, s.Players[1].Discard[0].CardID)
}

func TestConfusedAttackMatchesFlip(t *testing.T) {
	for seed := int64(0); seed < 8; seed++ {
		s := harness(t, seed)
		attacker := withEnergy(place(catalogtest.Voltmouse), catalogtest.LightningEnergy)
		attacker.Status.Apply(status.Confused)
		s.Players[0].Active = attacker
		s.Players[1].Active = place(catalogtest.Tidepup)
		stock(s.Players[0], 2, catalogtest.FireEnergy)
		stock(s.Players[1], 2, catalogtest.WaterEnergy)
		prizes(s.Players[0], 2)
		prizes(s.Players[1], 2)
		finalize(s)

		e := NewEngine(nil)
		mustApply(t, e, s, game.Action{Type: game.ActionAttack, Player: game.PlayerOne, AttackIndex: 0})

		heads := false
		for _, ev := range s.Events {
			if ev.Type == game.EventCoinFlip && ev.Data["reason"] == "confusion check" {
				heads = ev.Data["result"] == "heads"
			}
		}
		if heads {
			assert.Equal(t, 40, s.Players[1].Active.Damage, "seed %d: attack lands", seed)
			assert.Equal(t, 0, s.Players[0].Active.Damage, "seed %d", seed)
		} else {
			assert.Equal(t, 0, s.Players[1].Active.Damage, "seed %d: attack fails", seed)
			assert.Equal(t, status.ConfusionSelfDamage, s.Players[0].Active.Damage, "seed %d", seed)
		}
		// Either way the turn is over.
		assert.Equal(t, 4, s.Turn, "seed %d", seed)
	}
}

func TestIllegalActionLeavesStateUntouched(t *testing.T) {
	s := harness(t, 1)
	s.Players[0].Active = place(catalogtest.Embercub)
	s.Players[1].Active = place(catalogtest.Tidepup)
	stock(s.Players[0], 2, catalogtest.FireEnergy)
	stock(s.Players[1], 2, catalogtest.WaterEnergy)
	prizes(s.Players[0], 2)
	prizes(s.Players[1], 2)
	finalize(s)

	e := NewEngine(nil)
	before := len(s.Events)
	_, err := e.Apply(s, game.Action{Type: game.ActionAttack, Player: game.PlayerOne, AttackIndex: 0})

	require.Error(t, err)
	var illegal *game.IllegalActionError
	require.ErrorAs(t, err, &illegal)
	assert.Len(t, s.Events, before)
	assert.Equal(t, 3, s.Turn)
	require.NoError(t, s.CheckInvariants())
}

func TestStartBeginsTurnOne(t *testing.T) {
	s, err := game.NewMatch(game.MatchConfig{
		Catalog: catalogtest.New(),
		Seed:    9,
		Decks: [2][]catalog.ID{
			catalogtest.FireDeck(), catalogtest.WaterDeck(),
		},
	})
	require.NoError(t, err)

	e := NewEngine(nil)
	require.NoError(t, e.Start(s))
	assert.Equal(t, 1, s.Turn)
	assert.Equal(t, game.PhaseMain, s.Phase)

	// Starting twice is an error.
	require.Error(t, e.Start(s))
}
