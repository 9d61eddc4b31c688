package game

// BenchSize is the maximum number of benched creatures per player.
const BenchSize = 5

// PlayerID indexes the two players of a match.
type PlayerID int

const (
	PlayerOne PlayerID = 0
	PlayerTwo PlayerID = 1
)

// Opponent returns the other player.
func (p PlayerID) Opponent() PlayerID {
	return 1 - p
}

// Valid reports whether the ID names one of the two seats.
func (p PlayerID) Valid() bool {
	return p == PlayerOne || p == PlayerTwo
}

// PlayerState holds one player's zones and per-turn flags. Zones own their
// card instances exclusively; moving a card between zones transfers
// ownership.
type PlayerState struct {
	Name string

	// Deck is ordered with the top of the deck at the end of the slice.
	Deck     []*CardInstance
	Hand     []*CardInstance
	Discard  []*CardInstance
	Bench    []*CardInstance
	Prizes   []*CardInstance
	LostZone []*CardInstance
	Active   *CardInstance

	// Per-turn flags, reset at the start of the player's turn.
	AttachedEnergy  bool
	PlayedSupporter bool
	Retreated       bool

	// DeckedOut marks a player who had to draw from an empty deck.
	DeckedOut bool

	// StartingCount anchors the conservation invariant.
	StartingCount int
}

// DrawCard moves the top deck card to hand. Returns false on an empty
// deck; the caller decides whether that is a loss condition.
func (p *PlayerState) DrawCard() (*CardInstance, bool) {
	if len(p.Deck) == 0 {
		return nil, false
	}
	top := p.Deck[len(p.Deck)-1]
	p.Deck = p.Deck[:len(p.Deck)-1]
	p.Hand = append(p.Hand, top)
	return top, true
}

// RemoveHandAt detaches and returns the hand card at index i.
func (p *PlayerState) RemoveHandAt(i int) *CardInstance {
	if i < 0 || i >= len(p.Hand) {
		return nil
	}
	card := p.Hand[i]
	p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
	return card
}

// BenchFull reports whether another creature can be benched.
func (p *PlayerState) BenchFull() bool {
	return len(p.Bench) >= BenchSize
}

// PromoteFromBench moves the benched creature at index i to the Active
// spot. The Active spot must be empty.
func (p *PlayerState) PromoteFromBench(i int) *CardInstance {
	if p.Active != nil || i < 0 || i >= len(p.Bench) {
		return nil
	}
	card := p.Bench[i]
	p.Bench = append(p.Bench[:i], p.Bench[i+1:]...)
	p.Active = card
	return card
}

// TakePrize moves one face-down prize card to hand. Returns false when no
// prizes remain.
func (p *PlayerState) TakePrize() (*CardInstance, bool) {
	if len(p.Prizes) == 0 {
		return nil, false
	}
	card := p.Prizes[len(p.Prizes)-1]
	p.Prizes = p.Prizes[:len(p.Prizes)-1]
	p.Hand = append(p.Hand, card)
	return card, true
}

// InPlay returns the creature at the given board position, Active for
// index -1 and Bench otherwise.
func (p *PlayerState) InPlay(benchIndex int) *CardInstance {
	if benchIndex < 0 {
		return p.Active
	}
	if benchIndex >= len(p.Bench) {
		return nil
	}
	return p.Bench[benchIndex]
}

// CardCount sums the physical cards across all of the player's zones.
func (p *PlayerState) CardCount() int {
	n := 0
	for _, zone := range [][]*CardInstance{p.Deck, p.Hand, p.Discard, p.Bench, p.Prizes, p.LostZone} {
		for _, ci := range zone {
			n += ci.CardCount()
		}
	}
	if p.Active != nil {
		n += p.Active.CardCount()
	}
	return n
}

// ResetTurnFlags clears the once-per-turn restrictions.
func (p *PlayerState) ResetTurnFlags() {
	p.AttachedEnergy = false
	p.PlayedSupporter = false
	p.Retreated = false
}
