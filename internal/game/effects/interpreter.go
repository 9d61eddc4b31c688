// Package effects interprets the closed set of effect primitives that
// card text compiles down to. The interpreter mutates state directly and
// emits events; legality preconditions are the rules checker's job and
// knockout sweeps are the turn engine's, so resolution here never fails
// on game grounds.
package effects

import (
	"fmt"

	"github.com/pokefree/ptcg-sim-go/internal/catalog"
	"github.com/pokefree/ptcg-sim-go/internal/game"
)

// Request identifies who is resolving an effect list and with which
// chosen parameters.
type Request struct {
	// Owner is the player whose card text is resolving.
	Owner game.PlayerID

	// TargetIndex carries the bench choice for SWITCH_SELF effects.
	TargetIndex int
}

// Apply resolves an effect list in order against the state. A non-nil
// error means an unknown primitive reached the interpreter, which is an
// engine defect, not a game outcome.
func Apply(s *game.State, req Request, effs []catalog.Effect) error {
	for _, eff := range effs {
		if err := applyOne(s, req, eff); err != nil {
			return err
		}
	}
	return nil
}

func applyOne(s *game.State, req Request, eff catalog.Effect) error {
	switch eff.Kind {
	case catalog.EffectDamage:
		for _, hit := range creatureTargets(s, req.Owner, eff.Target) {
			dealRaw(s, hit, eff.Amount, "effect")
		}
	case catalog.EffectCoinDamage:
		flips := eff.CoinFlips
		if flips <= 0 {
			flips = 1
		}
		heads := 0
		for i := 0; i < flips; i++ {
			if s.FlipCoin(req.Owner, "damage flip") {
				heads++
			}
		}
		for _, hit := range creatureTargets(s, req.Owner, eff.Target) {
			dealRaw(s, hit, heads*eff.Amount, "coin damage")
		}
	case catalog.EffectSelfDamage:
		if self := s.Player(req.Owner).Active; self != nil {
			dealRaw(s, boardRef{req.Owner, self}, eff.Amount, "recoil")
		}
	case catalog.EffectHeal:
		for _, hit := range creatureTargets(s, req.Owner, eff.Target) {
			heal(s, hit, eff.Amount)
		}
	case catalog.EffectApplyStatus:
		for _, hit := range creatureTargets(s, req.Owner, eff.Target) {
			applyStatus(s, hit, eff)
		}
	case catalog.EffectCoinStatus:
		if !s.FlipCoin(req.Owner, fmt.Sprintf("inflict %s", eff.Status)) {
			return nil
		}
		for _, hit := range creatureTargets(s, req.Owner, eff.Target) {
			applyStatus(s, hit, eff)
		}
	case catalog.EffectDraw:
		drawUpTo(s, req.Owner, eff.Amount)
	case catalog.EffectShuffleDraw:
		shuffleDraw(s, req.Owner, eff.Amount)
	case catalog.EffectSearchBasic:
		searchBasics(s, req.Owner, eff.Amount)
	case catalog.EffectDiscardEnergy:
		for _, hit := range creatureTargets(s, req.Owner, eff.Target) {
			discardEnergy(s, hit, eff.Amount)
		}
	case catalog.EffectSwitchSelf:
		switchSelf(s, req.Owner, req.TargetIndex)
	default:
		return &game.InvariantViolationError{
			Reason:    fmt.Sprintf("unknown effect kind %q", eff.Kind),
			StateDump: s.Dump(),
		}
	}
	return nil
}

// boardRef is a creature in play together with the player whose board it
// sits on, so discards land in the right pile.
type boardRef struct {
	owner game.PlayerID
	card  *game.CardInstance
}

func creatureTargets(s *game.State, owner game.PlayerID, t catalog.EffectTarget) []boardRef {
	opp := owner.Opponent()
	switch t {
	case catalog.TargetSelf, catalog.TargetOwner:
		if self := s.Player(owner).Active; self != nil {
			return []boardRef{{owner, self}}
		}
	case catalog.TargetDefending, catalog.TargetOpponent:
		if def := s.Player(opp).Active; def != nil {
			return []boardRef{{opp, def}}
		}
	case catalog.TargetOpponentBench:
		var refs []boardRef
		for _, ci := range s.Player(opp).Bench {
			refs = append(refs, boardRef{opp, ci})
		}
		return refs
	}
	return nil
}

// dealRaw places damage markers without weakness or resistance; those
// apply only to an attack's printed damage.
func dealRaw(s *game.State, hit boardRef, amount int, reason string) {
	if amount <= 0 {
		return
	}
	hit.card.Damage += amount
	def := s.Definition(hit.card)
	s.Emit(game.EventDamage, hit.owner,
		fmt.Sprintf("%s takes %d damage (%s)", def.Name, amount, reason),
		map[string]string{
			"card":   string(hit.card.CardID),
			"amount": fmt.Sprintf("%d", amount),
			"reason": reason,
		})
}

func heal(s *game.State, hit boardRef, amount int) {
	if amount <= 0 || hit.card.Damage == 0 {
		return
	}
	if amount > hit.card.Damage {
		amount = hit.card.Damage
	}
	hit.card.Damage -= amount
	s.Emit(game.EventHealed, hit.owner,
		fmt.Sprintf("%s heals %d damage", s.Definition(hit.card).Name, amount),
		map[string]string{"card": string(hit.card.CardID), "amount": fmt.Sprintf("%d", amount)})
}

func applyStatus(s *game.State, hit boardRef, eff catalog.Effect) {
	hit.card.Status.Apply(eff.Status)
	s.Emit(game.EventStatusApplied, hit.owner,
		fmt.Sprintf("%s is now %s", s.Definition(hit.card).Name, eff.Status),
		map[string]string{"card": string(hit.card.CardID), "status": string(eff.Status)})
}

// drawUpTo draws as many of the requested cards as the deck holds.
// Running dry on an effect draw is not a deck-out; only the mandatory
// turn draw is.
func drawUpTo(s *game.State, pid game.PlayerID, amount int) {
	p := s.Player(pid)
	for i := 0; i < amount; i++ {
		card, ok := p.DrawCard()
		if !ok {
			return
		}
		s.Emit(game.EventCardDrawn, pid,
			fmt.Sprintf("%s draws a card (effect)", p.Name),
			map[string]string{"card": string(card.CardID), "reason": "effect"})
	}
}

func shuffleDraw(s *game.State, pid game.PlayerID, amount int) {
	p := s.Player(pid)
	returned := len(p.Hand)
	p.Deck = append(p.Deck, p.Hand...)
	p.Hand = nil
	s.Shuffle(p.Deck)
	s.Emit(game.EventHandShuffled, pid,
		fmt.Sprintf("%s shuffles %d cards into the deck", p.Name, returned),
		map[string]string{"returned": fmt.Sprintf("%d", returned)})
	drawUpTo(s, pid, amount)
}

// searchBasics takes up to amount basics from the deck onto the bench,
// then shuffles.
func searchBasics(s *game.State, pid game.PlayerID, amount int) {
	if amount <= 0 {
		amount = 1
	}
	p := s.Player(pid)
	found := 0
	for i := len(p.Deck) - 1; i >= 0 && found < amount && !p.BenchFull(); i-- {
		ci := p.Deck[i]
		if !s.Definition(ci).IsBasicPokemon() {
			continue
		}
		p.Deck = append(p.Deck[:i], p.Deck[i+1:]...)
		ci.TurnPlayed = s.Turn
		p.Bench = append(p.Bench, ci)
		found++
		s.Emit(game.EventBenched, pid,
			fmt.Sprintf("%s benches %s from the deck", p.Name, s.Definition(ci).Name),
			map[string]string{"card": string(ci.CardID)})
	}
	s.Shuffle(p.Deck)
	s.Emit(game.EventCardsSearched, pid,
		fmt.Sprintf("%s searched the deck (%d found) and shuffled", p.Name, found),
		map[string]string{"found": fmt.Sprintf("%d", found)})
}

// discardEnergy removes up to amount attached energy cards, most recently
// attached first, into the board owner's discard pile.
func discardEnergy(s *game.State, hit boardRef, amount int) {
	for i := 0; i < amount && len(hit.card.Energy) > 0; i++ {
		last := len(hit.card.Energy) - 1
		card := hit.card.Energy[last]
		hit.card.Energy = hit.card.Energy[:last]
		s.MoveToDiscard(hit.owner, card)
		s.Emit(game.EventEnergyDiscard, hit.owner,
			fmt.Sprintf("%s discarded from %s", s.Definition(card).Name, s.Definition(hit.card).Name),
			map[string]string{"card": string(card.CardID), "from": string(hit.card.CardID)})
	}
}

// switchSelf swaps the Active with a benched creature. Conditions do not
// follow a creature off the Active spot.
func switchSelf(s *game.State, pid game.PlayerID, benchIndex int) {
	p := s.Player(pid)
	if p.Active == nil || benchIndex < 0 || benchIndex >= len(p.Bench) {
		return
	}
	outgoing := p.Active
	p.Active = p.Bench[benchIndex]
	p.Bench[benchIndex] = outgoing
	outgoing.Status.Clear()
	s.Emit(game.EventRetreated, pid,
		fmt.Sprintf("%s switches %s to the bench for %s", p.Name,
			s.Definition(outgoing).Name, s.Definition(p.Active).Name),
		map[string]string{"out": string(outgoing.CardID), "in": string(p.Active.CardID)})
}
