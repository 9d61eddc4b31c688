package catalog_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pokefree/ptcg-sim-go/internal/catalog"
	"github.com/pokefree/ptcg-sim-go/internal/catalog/catalogtest"
	"github.com/pokefree/ptcg-sim-go/internal/game/energy"
)

func TestAddParsesAttackCosts(t *testing.T) {
	c := catalogtest.New()

	def, ok := c.Get(catalogtest.Emberclaw)
	require.True(t, ok)
	require.Len(t, def.Attacks, 1)
	assert.Equal(t, 2, def.Attacks[0].Cost.Typed[energy.Fire])
	assert.Equal(t, 1, def.Attacks[0].Cost.Colorless)
}

func TestAddRejectsDuplicates(t *testing.T) {
	c := catalog.New()
	def := &catalog.CardDefinition{
		ID: "tst-1", Name: "Embercub", Supertype: catalog.SupertypePokemon,
		Stage: catalog.StageBasic, HP: 60,
	}
	require.NoError(t, c.Add(def))
	assert.Error(t, c.Add(def))
}

func TestAddRejectsInvalidDefinitions(t *testing.T) {
	c := catalog.New()

	assert.Error(t, c.Add(&catalog.CardDefinition{
		ID: "tst-1", Name: "NoHP", Supertype: catalog.SupertypePokemon, Stage: catalog.StageBasic,
	}), "pokemon without hp")

	assert.Error(t, c.Add(&catalog.CardDefinition{
		ID: "tst-2", Name: "Orphan", Supertype: catalog.SupertypePokemon,
		Stage: catalog.StageOne, HP: 80,
	}), "evolution without evolves_from")

	assert.Error(t, c.Add(&catalog.CardDefinition{
		ID: "tst-3", Name: "Rainbow Energy", Supertype: catalog.SupertypeEnergy,
		EnergyType: energy.Colorless,
	}), "colorless is not a providable energy type")
}

func TestByName(t *testing.T) {
	c := catalogtest.New()
	defs := c.ByName("Embercub")
	require.Len(t, defs, 1)
	assert.Equal(t, catalogtest.Embercub, defs[0].ID)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cards.json")
	data := `{"cards":[
		{"set":"tst","number":"1","name":"Embercub","supertype":"POKEMON","stage":"BASIC","hp":60,
		 "types":["FIRE"],"attacks":[{"name":"Scratch","cost":"{C}","damage":10}]},
		{"set":"tst","number":"90","name":"Fire Energy","supertype":"ENERGY","energy_type":"FIRE","basic_energy":true}
	]}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	c, err := catalog.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Size())

	def, ok := c.Get(catalog.MakeID("tst", "1"))
	require.True(t, ok)
	assert.Equal(t, 1, def.Attacks[0].Cost.Colorless)
}
