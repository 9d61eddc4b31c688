// Package status models the special conditions a creature in the Active
// spot can suffer, and the rules for how they combine and clear.
package status

// Condition is one of the five special conditions.
type Condition string

const (
	Asleep    Condition = "ASLEEP"
	Burned    Condition = "BURNED"
	Confused  Condition = "CONFUSED"
	Paralyzed Condition = "PARALYZED"
	Poisoned  Condition = "POISONED"
)

// Damage applied during the checkup while the condition persists.
const (
	PoisonDamage = 10
	BurnDamage   = 20

	// Self-damage dealt when a confused creature fails its attack flip.
	ConfusionSelfDamage = 30
)

// rotational lists the conditions that are mutually exclusive: applying
// one of them removes the other two.
var rotational = []Condition{Asleep, Confused, Paralyzed}

// Set tracks the conditions currently affecting a creature.
type Set map[Condition]bool

// NewSet returns an empty condition set.
func NewSet() Set {
	return make(Set)
}

// Has reports whether the condition is present.
func (s Set) Has(c Condition) bool {
	return s[c]
}

// Apply adds a condition, enforcing mutual exclusion between Asleep,
// Confused and Paralyzed. Poisoned and Burned stack with anything.
func (s Set) Apply(c Condition) {
	for _, r := range rotational {
		if r == c {
			for _, other := range rotational {
				delete(s, other)
			}
			break
		}
	}
	s[c] = true
}

// Remove clears a single condition.
func (s Set) Remove(c Condition) {
	delete(s, c)
}

// Clear removes every condition. Conditions only persist on the Active
// creature; any move to Bench, Hand or Discard clears them.
func (s Set) Clear() {
	for c := range s {
		delete(s, c)
	}
}

// Empty reports whether no conditions are present.
func (s Set) Empty() bool {
	return len(s) == 0
}

// BlocksRetreat reports whether the creature is prevented from retreating.
func (s Set) BlocksRetreat() bool {
	return s[Asleep] || s[Paralyzed]
}

// BlocksAttack reports whether the creature is prevented from attacking
// outright. A confused creature may still attempt an attack (the engine
// flips for it), so confusion does not block here.
func (s Set) BlocksAttack() bool {
	return s[Asleep] || s[Paralyzed]
}

// List returns the present conditions in a stable order.
func (s Set) List() []Condition {
	ordered := []Condition{Asleep, Burned, Confused, Paralyzed, Poisoned}
	out := make([]Condition, 0, len(s))
	for _, c := range ordered {
		if s[c] {
			out = append(out, c)
		}
	}
	return out
}

// Clone returns an independent copy of the set.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for c, v := range s {
		out[c] = v
	}
	return out
}
