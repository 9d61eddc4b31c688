package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/pokefree/ptcg-sim-go/internal/game/energy"
)

// Catalog is an immutable lookup of card definitions keyed by ID. Build it
// once at load time; concurrent readers need no locking afterwards.
type Catalog struct {
	byID   map[ID]*CardDefinition
	byName map[string][]*CardDefinition
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{
		byID:   make(map[ID]*CardDefinition),
		byName: make(map[string][]*CardDefinition),
	}
}

// Add validates a definition, resolves its attack cost strings and inserts
// it. Duplicate IDs are rejected.
func (c *Catalog) Add(def *CardDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	if _, exists := c.byID[def.ID]; exists {
		return fmt.Errorf("duplicate card id %s", def.ID)
	}

	for i := range def.Attacks {
		cost, err := energy.ParseCost(def.Attacks[i].CostStr)
		if err != nil {
			return fmt.Errorf("card %s attack %q: %w", def.ID, def.Attacks[i].Name, err)
		}
		def.Attacks[i].Cost = cost
	}

	c.byID[def.ID] = def
	c.byName[def.Name] = append(c.byName[def.Name], def)
	return nil
}

// Get returns the definition for an ID.
func (c *Catalog) Get(id ID) (*CardDefinition, bool) {
	def, ok := c.byID[id]
	return def, ok
}

// ByName returns all printings sharing a card name.
func (c *Catalog) ByName(name string) []*CardDefinition {
	return c.byName[name]
}

// Size returns the number of definitions loaded.
func (c *Catalog) Size() int {
	return len(c.byID)
}

// IDs returns every card ID in sorted order.
func (c *Catalog) IDs() []ID {
	ids := make([]ID, 0, len(c.byID))
	for id := range c.byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// cardFile is the on-disk JSON shape for a card database file.
type cardFile struct {
	Cards []*CardDefinition `json:"cards"`
}

// LoadFile reads a JSON card database from disk.
func LoadFile(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read card database: %w", err)
	}

	var file cardFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse card database: %w", err)
	}

	c := New()
	for _, def := range file.Cards {
		if def.ID == "" {
			def.ID = MakeID(def.Set, def.Number)
		}
		if err := c.Add(def); err != nil {
			return nil, err
		}
	}
	return c, nil
}
