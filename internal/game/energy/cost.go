package energy

import (
	"fmt"
	"regexp"
	"strings"
)

// Cost represents a parsed attack or retreat cost as per-type counts.
// Colorless entries can be paid with energy of any type.
type Cost struct {
	Typed     map[Type]int
	Colorless int
}

// NewCost builds a cost from a sequence of type symbols.
func NewCost(types ...Type) Cost {
	c := Cost{Typed: make(map[Type]int)}
	for _, t := range types {
		if t == Colorless {
			c.Colorless++
			continue
		}
		c.Typed[t]++
	}
	return c
}

var costPattern = regexp.MustCompile(`\{([^}]+)\}`)

// ParseCost parses a cost string such as "{R}{C}" or "{W}{W}{C}{C}".
// An empty string is a free cost.
func ParseCost(costStr string) (Cost, error) {
	cost := Cost{Typed: make(map[Type]int)}
	if costStr == "" {
		return cost, nil
	}

	matches := costPattern.FindAllStringSubmatch(costStr, -1)
	if len(matches) == 0 {
		return Cost{}, fmt.Errorf("malformed cost string %q", costStr)
	}

	for _, match := range matches {
		symbol := strings.ToUpper(strings.TrimSpace(match[1]))
		t, ok := typeSymbols[symbol]
		if !ok {
			return Cost{}, fmt.Errorf("unknown energy symbol {%s}", symbol)
		}
		if t == Colorless {
			cost.Colorless++
			continue
		}
		cost.Typed[t]++
	}

	return cost, nil
}

// Total returns the number of energy cards the cost consumes.
func (c Cost) Total() int {
	total := c.Colorless
	for _, n := range c.Typed {
		total += n
	}
	return total
}

// Free reports whether the cost requires no energy at all.
func (c Cost) Free() bool {
	return c.Total() == 0
}

// String renders the cost back into symbol form, typed requirements first
// in the stable AllTypes order.
func (c Cost) String() string {
	var b strings.Builder
	for _, t := range AllTypes {
		for i := 0; i < c.Typed[t]; i++ {
			b.WriteString("{" + t.Symbol() + "}")
		}
	}
	for i := 0; i < c.Colorless; i++ {
		b.WriteString("{C}")
	}
	return b.String()
}
