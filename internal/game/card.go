package game

import (
	"github.com/google/uuid"

	"github.com/pokefree/ptcg-sim-go/internal/catalog"
	"github.com/pokefree/ptcg-sim-go/internal/game/energy"
	"github.com/pokefree/ptcg-sim-go/internal/game/status"
)

// CardInstance is a placed or held copy of a catalog definition plus its
// mutable runtime attributes. It is owned by exactly one zone at a time;
// attached energy, tools and earlier evolution stages are owned by the
// instance they sit on.
type CardInstance struct {
	ID     string
	CardID catalog.ID

	// Damage is the damage marked on the creature. Remaining HP is the
	// definition's HP minus this.
	Damage int

	Energy     []*CardInstance
	Tools      []*CardInstance
	Underneath []*CardInstance

	Status status.Set

	// TurnPlayed is the turn the card entered play or last evolved;
	// it gates same-turn evolution.
	TurnPlayed int
}

// NewCardInstance wraps a definition ID in a fresh instance.
func NewCardInstance(id catalog.ID) *CardInstance {
	return &CardInstance{
		ID:     uuid.NewString(),
		CardID: id,
		Status: status.NewSet(),
	}
}

// CardCount returns the number of physical cards this instance accounts
// for: itself plus everything attached or underneath. The conservation
// invariant sums these across zones.
func (ci *CardInstance) CardCount() int {
	n := 1
	for _, e := range ci.Energy {
		n += e.CardCount()
	}
	for _, t := range ci.Tools {
		n += t.CardCount()
	}
	for _, u := range ci.Underneath {
		n += u.CardCount()
	}
	return n
}

// ResetRuntime clears attributes that do not survive leaving play.
func (ci *CardInstance) ResetRuntime() {
	ci.Damage = 0
	ci.Status.Clear()
	ci.TurnPlayed = 0
}

// Definition resolves an instance's immutable definition through the
// catalog. A missing definition is an engine defect, not a game event.
func (s *State) Definition(ci *CardInstance) *catalog.CardDefinition {
	def, ok := s.Catalog.Get(ci.CardID)
	if !ok {
		panic(&InvariantViolationError{
			Reason:    "card instance " + ci.ID + " references unknown definition " + string(ci.CardID),
			StateDump: s.Dump(),
		})
	}
	return def
}

// RemainingHP returns the creature's HP after marked damage, floored at 0.
func (s *State) RemainingHP(ci *CardInstance) int {
	hp := s.Definition(ci).HP - ci.Damage
	if hp < 0 {
		return 0
	}
	return hp
}

// AttachedEnergy resolves the instance's attached energy cards into a
// typed multiset.
func (s *State) AttachedEnergy(ci *CardInstance) energy.Attached {
	attached := make(energy.Attached)
	for _, card := range ci.Energy {
		def := s.Definition(card)
		if def.Supertype == catalog.SupertypeEnergy {
			attached[def.EnergyType]++
		}
	}
	return attached
}
