// Package catalogtest provides a small fixed card set and deck builders
// shared by engine, rules, AI and server tests.
package catalogtest

import (
	"fmt"

	"github.com/pokefree/ptcg-sim-go/internal/catalog"
	"github.com/pokefree/ptcg-sim-go/internal/game/energy"
	"github.com/pokefree/ptcg-sim-go/internal/game/status"
)

// Card IDs of the fixture set.
const (
	Embercub        catalog.ID = "tst-1"
	Emberclaw       catalog.ID = "tst-2"
	Tidepup         catalog.ID = "tst-3"
	Voltmouse       catalog.ID = "tst-4"
	MagmothEx       catalog.ID = "tst-5"
	Cinderbat       catalog.ID = "tst-6"
	Researcher      catalog.ID = "tst-20"
	Potion          catalog.ID = "tst-21"
	Switchback      catalog.ID = "tst-22"
	OpenArena       catalog.ID = "tst-23"
	TrainingGround  catalog.ID = "tst-24"
	FireEnergy      catalog.ID = "tst-90"
	WaterEnergy     catalog.ID = "tst-91"
	LightningEnergy catalog.ID = "tst-92"
)

// New builds the fixture catalog. It panics on definition errors since it
// only runs under tests.
func New() *catalog.Catalog {
	c := catalog.New()
	for _, def := range definitions() {
		if err := c.Add(def); err != nil {
			panic(fmt.Sprintf("catalogtest: %v", err))
		}
	}
	return c
}

func definitions() []*catalog.CardDefinition {
	return []*catalog.CardDefinition{
		{
			ID: Embercub, Name: "Embercub", Set: "tst", Number: "1",
			Supertype: catalog.SupertypePokemon, Stage: catalog.StageBasic,
			HP: 60, Types: []energy.Type{energy.Fire},
			Weakness: energy.Water, RetreatCost: 1,
			Attacks: []catalog.Attack{
				{Name: "Scratch", CostStr: "{C}", Damage: 10},
				{Name: "Singe", CostStr: "{R}{C}", Damage: 20, Effects: []catalog.Effect{
					{Kind: catalog.EffectCoinStatus, Target: catalog.TargetDefending, Status: status.Burned},
				}},
			},
		},
		{
			ID: Emberclaw, Name: "Emberclaw", Set: "tst", Number: "2",
			Supertype: catalog.SupertypePokemon, Stage: catalog.StageOne,
			EvolvesFrom: "Embercub",
			HP: 100, Types: []energy.Type{energy.Fire},
			Weakness: energy.Water, RetreatCost: 2,
			Attacks: []catalog.Attack{
				{Name: "Flame Lash", CostStr: "{R}{R}{C}", Damage: 60},
			},
		},
		{
			ID: Tidepup, Name: "Tidepup", Set: "tst", Number: "3",
			Supertype: catalog.SupertypePokemon, Stage: catalog.StageBasic,
			HP: 50, Types: []energy.Type{energy.Water},
			Weakness: energy.Lightning, RetreatCost: 1,
			Attacks: []catalog.Attack{
				{Name: "Splash", CostStr: "{W}", Damage: 10},
				{Name: "Bubble Beam", CostStr: "{W}{C}", Damage: 20, Effects: []catalog.Effect{
					{Kind: catalog.EffectCoinStatus, Target: catalog.TargetDefending, Status: status.Paralyzed},
				}},
			},
		},
		{
			ID: Voltmouse, Name: "Voltmouse", Set: "tst", Number: "4",
			Supertype: catalog.SupertypePokemon, Stage: catalog.StageBasic,
			HP: 40, Types: []energy.Type{energy.Lightning},
			Weakness: energy.Fighting, Resistance: energy.Metal, RetreatCost: 1,
			Attacks: []catalog.Attack{
				{Name: "Jolt", CostStr: "{L}", Damage: 20},
			},
		},
		{
			ID: MagmothEx, Name: "Magmoth ex", Set: "tst", Number: "5",
			Supertype: catalog.SupertypePokemon, Stage: catalog.StageBasic,
			HP: 150, Types: []energy.Type{energy.Fire},
			Weakness: energy.Water, RetreatCost: 3, PrizeValue: 2,
			Attacks: []catalog.Attack{
				{Name: "Cinder Storm", CostStr: "{R}{R}{C}{C}", Damage: 120, Effects: []catalog.Effect{
					{Kind: catalog.EffectDiscardEnergy, Target: catalog.TargetSelf, Amount: 1},
				}},
			},
		},
		{
			ID: Cinderbat, Name: "Cinderbat", Set: "tst", Number: "6",
			Supertype: catalog.SupertypePokemon, Stage: catalog.StageBasic,
			HP: 40, Types: []energy.Type{energy.Fire},
			Weakness: energy.Water, RetreatCost: 1,
			Attacks: []catalog.Attack{
				{Name: "Reckless Flare", CostStr: "{R}{C}", Damage: 60, Effects: []catalog.Effect{
					{Kind: catalog.EffectSelfDamage, Target: catalog.TargetSelf, Amount: 40},
				}},
			},
		},
		{
			ID: Researcher, Name: "Field Researcher", Set: "tst", Number: "20",
			Supertype: catalog.SupertypeTrainer, TrainerKind: catalog.TrainerSupporter,
			Text: "Draw 3 cards.",
			Effects: []catalog.Effect{
				{Kind: catalog.EffectDraw, Target: catalog.TargetOwner, Amount: 3},
			},
		},
		{
			ID: Potion, Name: "Potion", Set: "tst", Number: "21",
			Supertype: catalog.SupertypeTrainer, TrainerKind: catalog.TrainerItem,
			Text: "Heal 30 damage from your Active Pokémon.",
			Effects: []catalog.Effect{
				{Kind: catalog.EffectHeal, Target: catalog.TargetSelf, Amount: 30},
			},
		},
		{
			ID: Switchback, Name: "Switchback", Set: "tst", Number: "22",
			Supertype: catalog.SupertypeTrainer, TrainerKind: catalog.TrainerItem,
			Text: "Switch your Active Pokémon with one of your Benched Pokémon.",
			Effects: []catalog.Effect{
				{Kind: catalog.EffectSwitchSelf, Target: catalog.TargetOwner},
			},
		},
		{
			ID: OpenArena, Name: "Open Arena", Set: "tst", Number: "23",
			Supertype: catalog.SupertypeTrainer, TrainerKind: catalog.TrainerStadium,
			Text: "Once during each player's turn, that player may heal 10 damage from their Active Pokémon.",
		},
		{
			ID: TrainingGround, Name: "Training Ground", Set: "tst", Number: "24",
			Supertype: catalog.SupertypeTrainer, TrainerKind: catalog.TrainerStadium,
			Text: "This Stadium stays in play until another Stadium replaces it.",
		},
		{
			ID: FireEnergy, Name: "Fire Energy", Set: "tst", Number: "90",
			Supertype: catalog.SupertypeEnergy, EnergyType: energy.Fire, BasicEnergy: true,
		},
		{
			ID: WaterEnergy, Name: "Water Energy", Set: "tst", Number: "91",
			Supertype: catalog.SupertypeEnergy, EnergyType: energy.Water, BasicEnergy: true,
		},
		{
			ID: LightningEnergy, Name: "Lightning Energy", Set: "tst", Number: "92",
			Supertype: catalog.SupertypeEnergy, EnergyType: energy.Lightning, BasicEnergy: true,
		},
	}
}

// FireDeck is a legal 60-card list built around the Fire line.
func FireDeck() []catalog.ID {
	return buildDeck(map[catalog.ID]int{
		Embercub:        4,
		Emberclaw:       4,
		MagmothEx:       4,
		Voltmouse:       4,
		Researcher:      4,
		Potion:          4,
		Switchback:      4,
		OpenArena:       2,
		FireEnergy:      24,
		LightningEnergy: 6,
	})
}

// WaterDeck is a legal 60-card list built around the Water line.
func WaterDeck() []catalog.ID {
	return buildDeck(map[catalog.ID]int{
		Tidepup:         4,
		Voltmouse:       4,
		Researcher:      4,
		Potion:          4,
		Switchback:      4,
		OpenArena:       2,
		WaterEnergy:     28,
		LightningEnergy: 10,
	})
}

func buildDeck(counts map[catalog.ID]int) []catalog.ID {
	// Deterministic order so shuffles are reproducible per seed.
	order := []catalog.ID{
		Embercub, Emberclaw, Tidepup, Voltmouse, MagmothEx,
		Researcher, Potion, Switchback, OpenArena,
		FireEnergy, WaterEnergy, LightningEnergy,
	}
	deck := make([]catalog.ID, 0, catalog.DeckSize)
	for _, id := range order {
		for i := 0; i < counts[id]; i++ {
			deck = append(deck, id)
		}
	}
	if len(deck) != catalog.DeckSize {
		panic(fmt.Sprintf("catalogtest: fixture deck has %d cards", len(deck)))
	}
	return deck
}
