package energy

// Attached is the multiset of energy currently attached to a creature,
// keyed by provided type.
type Attached map[Type]int

// Count returns the number of attached energy of the given type.
func (a Attached) Count(t Type) int {
	return a[t]
}

// Total returns the total number of attached energy cards.
func (a Attached) Total() int {
	total := 0
	for _, n := range a {
		total += n
	}
	return total
}

// CanPay reports whether the multiset satisfies the cost: every typed
// requirement must be met by energy of that exact type, and the remainder
// must cover the colorless portion with energy of any type.
func (a Attached) CanPay(cost Cost) bool {
	remaining := 0
	for t, n := range a {
		need := cost.Typed[t]
		if n < need {
			return false
		}
		remaining += n - need
	}
	// Typed requirements for types with no attached energy at all.
	for t, need := range cost.Typed {
		if need > 0 && a[t] == 0 {
			return false
		}
	}
	return remaining >= cost.Colorless
}

// Payment selects which attached energy pays the cost, deterministically:
// typed requirements are taken from their own type, then colorless is
// paid from the largest surplus first, ties broken by AllTypes order.
// Returns nil if the cost cannot be paid.
func (a Attached) Payment(cost Cost) Attached {
	if !a.CanPay(cost) {
		return nil
	}

	payment := make(Attached)
	surplus := make(Attached)
	for t, n := range a {
		need := cost.Typed[t]
		if need > 0 {
			payment[t] = need
		}
		if n > need {
			surplus[t] = n - need
		}
	}

	remaining := cost.Colorless
	for remaining > 0 {
		best := Type("")
		bestCount := 0
		for _, t := range AllTypes {
			if surplus[t] > bestCount {
				best = t
				bestCount = surplus[t]
			}
		}
		if best == "" {
			return nil
		}
		payment[best]++
		surplus[best]--
		if surplus[best] == 0 {
			delete(surplus, best)
		}
		remaining--
	}

	return payment
}
