// Package catalog holds the immutable card database the engine plays
// against. Definitions are shared by reference and never mutated; runtime
// state lives on card instances inside the game package.
package catalog

import (
	"fmt"

	"github.com/pokefree/ptcg-sim-go/internal/game/energy"
	"github.com/pokefree/ptcg-sim-go/internal/game/status"
)

// ID identifies a card definition as "<set>-<number>", e.g. "base1-4".
type ID string

// MakeID builds a card ID from its set code and collector number.
func MakeID(set, number string) ID {
	return ID(fmt.Sprintf("%s-%s", set, number))
}

// Supertype is the broad card category.
type Supertype string

const (
	SupertypePokemon Supertype = "POKEMON"
	SupertypeTrainer Supertype = "TRAINER"
	SupertypeEnergy  Supertype = "ENERGY"
)

// Stage is the evolution stage of a Pokémon card.
type Stage string

const (
	StageBasic Stage = "BASIC"
	StageOne   Stage = "STAGE1"
	StageTwo   Stage = "STAGE2"
	StageNone  Stage = ""
)

// TrainerKind distinguishes the trainer subtypes with different
// per-turn usage limits.
type TrainerKind string

const (
	TrainerItem      TrainerKind = "ITEM"
	TrainerSupporter TrainerKind = "SUPPORTER"
	TrainerStadium   TrainerKind = "STADIUM"
	TrainerTool      TrainerKind = "TOOL"
)

// EffectKind enumerates the closed set of effect primitives. Card rules
// text is expressed as parameterized variants over these, interpreted by
// the effects package, so no card needs its own type.
type EffectKind string

const (
	EffectDamage        EffectKind = "DAMAGE"         // extra damage to a target
	EffectCoinDamage    EffectKind = "COIN_DAMAGE"    // Amount per heads over CoinFlips flips
	EffectHeal          EffectKind = "HEAL"           // remove damage from a target
	EffectApplyStatus   EffectKind = "APPLY_STATUS"   // apply Status to the defending creature
	EffectCoinStatus    EffectKind = "COIN_STATUS"    // apply Status on a heads flip
	EffectDraw          EffectKind = "DRAW"           // owner draws Amount cards
	EffectSearchBasic   EffectKind = "SEARCH_BASIC"   // search deck for up to Amount basics onto bench
	EffectDiscardEnergy EffectKind = "DISCARD_ENERGY" // discard Amount energy from a target
	EffectSelfDamage    EffectKind = "SELF_DAMAGE"    // damage the attacker itself
	EffectSwitchSelf    EffectKind = "SWITCH_SELF"    // owner swaps Active with a benched creature
	EffectShuffleDraw   EffectKind = "SHUFFLE_DRAW"   // shuffle hand into deck, draw Amount
)

// EffectTarget names who an effect primitive applies to.
type EffectTarget string

const (
	TargetSelf          EffectTarget = "SELF"
	TargetDefending     EffectTarget = "DEFENDING"
	TargetOwner         EffectTarget = "OWNER"
	TargetOpponent      EffectTarget = "OPPONENT"
	TargetOpponentBench EffectTarget = "OPPONENT_BENCH"
)

// Effect is one tagged effect primitive with its parameters.
type Effect struct {
	Kind      EffectKind       `json:"kind"`
	Target    EffectTarget     `json:"target,omitempty"`
	Amount    int              `json:"amount,omitempty"`
	CoinFlips int              `json:"coin_flips,omitempty"`
	Status    status.Condition `json:"status,omitempty"`
}

// Attack is a single attack printed on a Pokémon card.
type Attack struct {
	Name    string      `json:"name"`
	Cost    energy.Cost `json:"-"`
	CostStr string      `json:"cost"`
	Damage  int         `json:"damage"`
	Effects []Effect    `json:"effects,omitempty"`
	Text    string      `json:"text,omitempty"`
}

// CardDefinition is the immutable, catalog-owned description of a card.
type CardDefinition struct {
	ID        ID        `json:"id"`
	Name      string    `json:"name"`
	Set       string    `json:"set"`
	Number    string    `json:"number"`
	Supertype Supertype `json:"supertype"`

	// Pokémon fields.
	Stage       Stage         `json:"stage,omitempty"`
	HP          int           `json:"hp,omitempty"`
	Types       []energy.Type `json:"types,omitempty"`
	Attacks     []Attack      `json:"attacks,omitempty"`
	RetreatCost int           `json:"retreat_cost,omitempty"`
	EvolvesFrom string        `json:"evolves_from,omitempty"`
	Weakness    energy.Type   `json:"weakness,omitempty"`
	Resistance  energy.Type   `json:"resistance,omitempty"`

	// PrizeValue is the number of prizes the opponent takes when this
	// creature is knocked out. Defaults to 1; 2 for "special" cards.
	PrizeValue int `json:"prize_value,omitempty"`

	// Trainer fields.
	TrainerKind TrainerKind `json:"trainer_kind,omitempty"`
	Effects     []Effect    `json:"effects,omitempty"`
	Text        string      `json:"text,omitempty"`

	// Energy fields.
	EnergyType  energy.Type `json:"energy_type,omitempty"`
	BasicEnergy bool        `json:"basic_energy,omitempty"`
}

// IsBasicPokemon reports whether the card can be played straight from hand
// to the board.
func (d *CardDefinition) IsBasicPokemon() bool {
	return d.Supertype == SupertypePokemon && d.Stage == StageBasic
}

// IsEvolution reports whether the card evolves another creature.
func (d *CardDefinition) IsEvolution() bool {
	return d.Supertype == SupertypePokemon && d.Stage != StageBasic && d.EvolvesFrom != ""
}

// Prizes returns the prize value, defaulting to 1 for unset definitions.
func (d *CardDefinition) Prizes() int {
	if d.PrizeValue <= 0 {
		return 1
	}
	return d.PrizeValue
}

// Validate performs structural checks on a definition before it enters
// the catalog.
func (d *CardDefinition) Validate() error {
	if d.ID == "" || d.Name == "" {
		return fmt.Errorf("card %q: missing id or name", d.Name)
	}
	switch d.Supertype {
	case SupertypePokemon:
		if d.HP <= 0 {
			return fmt.Errorf("card %s: pokemon needs positive hp", d.ID)
		}
		if d.Stage != StageBasic && d.EvolvesFrom == "" {
			return fmt.Errorf("card %s: evolution stage without evolves_from", d.ID)
		}
	case SupertypeTrainer:
		if d.TrainerKind == "" {
			return fmt.Errorf("card %s: trainer without kind", d.ID)
		}
	case SupertypeEnergy:
		if !d.EnergyType.Valid() || d.EnergyType == energy.Colorless {
			return fmt.Errorf("card %s: energy card with invalid type %q", d.ID, d.EnergyType)
		}
	default:
		return fmt.Errorf("card %s: unknown supertype %q", d.ID, d.Supertype)
	}
	return nil
}
