package catalog

import (
	"encoding/json"
	"fmt"
	"os"
)

// DeckSize is the fixed number of cards in a legal deck.
const DeckSize = 60

// MaxCopies is the per-name copy limit for everything except basic energy.
const MaxCopies = 4

// DeckEntry is one line of the deck-list exchange format.
type DeckEntry struct {
	Name     string `json:"name"`
	Set      string `json:"set"`
	Number   string `json:"number"`
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// DeckList is the raw exchange format produced by external deck builders.
type DeckList struct {
	Name  string      `json:"name,omitempty"`
	Cards []DeckEntry `json:"cards"`
}

// CorruptDeckError reports a deck that fails format legality. It is fatal
// to match setup and is surfaced before any turn begins.
type CorruptDeckError struct {
	Deck   string
	Reason string
}

func (e *CorruptDeckError) Error() string {
	if e.Deck == "" {
		return fmt.Sprintf("corrupt deck: %s", e.Reason)
	}
	return fmt.Sprintf("corrupt deck %q: %s", e.Deck, e.Reason)
}

func corrupt(deck, format string, args ...any) error {
	return &CorruptDeckError{Deck: deck, Reason: fmt.Sprintf(format, args...)}
}

// LoadDeckList reads a deck list JSON file from disk.
func LoadDeckList(path string) (*DeckList, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read deck list: %w", err)
	}
	var list DeckList
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("failed to parse deck list: %w", err)
	}
	return &list, nil
}

// Resolve expands a deck list against the catalog into the ordered ID
// sequence the engine consumes, enforcing format legality:
// fixed deck size, per-name copy limits (basic energy exempt), every card
// present in the catalog, and at least one basic Pokémon.
func (c *Catalog) Resolve(list *DeckList) ([]ID, error) {
	if list == nil || len(list.Cards) == 0 {
		return nil, corrupt("", "deck list is empty")
	}

	ids := make([]ID, 0, DeckSize)
	nameCounts := make(map[string]int)
	basics := 0

	for _, entry := range list.Cards {
		if entry.Count <= 0 {
			return nil, corrupt(list.Name, "entry %q has non-positive count %d", entry.Name, entry.Count)
		}

		id := MakeID(entry.Set, entry.Number)
		def, ok := c.Get(id)
		if !ok {
			return nil, corrupt(list.Name, "unknown card %s (%s)", id, entry.Name)
		}
		if def.Name != entry.Name {
			return nil, corrupt(list.Name, "card %s is %q, deck list says %q", id, def.Name, entry.Name)
		}

		if !def.BasicEnergy {
			nameCounts[def.Name] += entry.Count
			if nameCounts[def.Name] > MaxCopies {
				return nil, corrupt(list.Name, "more than %d copies of %q", MaxCopies, def.Name)
			}
		}
		if def.IsBasicPokemon() {
			basics += entry.Count
		}

		for i := 0; i < entry.Count; i++ {
			ids = append(ids, id)
		}
	}

	if len(ids) != DeckSize {
		return nil, corrupt(list.Name, "deck has %d cards, want %d", len(ids), DeckSize)
	}
	if basics == 0 {
		return nil, corrupt(list.Name, "deck contains no basic Pokémon")
	}

	return ids, nil
}
