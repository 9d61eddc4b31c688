package game

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/pokefree/ptcg-sim-go/internal/catalog"
)

// Phase is the coarse position inside a turn.
type Phase int

const (
	PhaseSetup Phase = iota
	PhaseDraw
	PhaseCheckup
	PhaseMain
	PhaseBetweenTurns
	PhaseGameOver
)

var phaseNames = map[Phase]string{
	PhaseSetup:        "SETUP",
	PhaseDraw:         "DRAW",
	PhaseCheckup:      "CHECKUP",
	PhaseMain:         "MAIN",
	PhaseBetweenTurns: "BETWEEN_TURNS",
	PhaseGameOver:     "GAME_OVER",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PHASE_%d", int(p))
}

// State is the complete mutable state of one match. It is mutated only by
// the turn engine (single writer); the rules checker and views read it
// without mutation. Multiple matches are independent States sharing only
// the read-only catalog.
type State struct {
	MatchID string
	Seed    int64

	Catalog *catalog.Catalog

	Players      [2]*PlayerState
	ActivePlayer PlayerID
	Phase        Phase
	Turn         int

	// Stadium in play is shared board state; its owner matters for the
	// conservation invariant.
	Stadium      *CardInstance
	StadiumOwner PlayerID

	// PendingPromotions lists players who owe a forced Active replacement,
	// in resolution order. While non-empty, only PROMOTE actions by the
	// owing player are legal.
	PendingPromotions []PlayerID

	// TurnEnding is set once an attack has resolved; the turn flips as
	// soon as all pending promotions are settled.
	TurnEnding bool

	Winner *PlayerID
	IsDraw bool
	Over   bool

	Events []Event
	seq    int

	rng *rand.Rand
}

// Player returns the state of the given seat.
func (s *State) Player(p PlayerID) *PlayerState {
	return s.Players[p]
}

// Opponent returns the state of the other seat.
func (s *State) Opponent(p PlayerID) *PlayerState {
	return s.Players[p.Opponent()]
}

// Rand exposes the match RNG stream, initialized from Seed on first use.
// It is owned exclusively by this state and must never be re-seeded
// mid-match.
func (s *State) Rand() *rand.Rand {
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(s.Seed))
	}
	return s.rng
}

// Shuffle permutes a zone in place using the match RNG stream.
func (s *State) Shuffle(cards []*CardInstance) {
	s.Rand().Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
}

// FlipCoin draws one coin flip from the match RNG stream and logs it.
func (s *State) FlipCoin(player PlayerID, reason string) bool {
	heads := s.Rand().Intn(2) == 0
	face := "tails"
	if heads {
		face = "heads"
	}
	s.Emit(EventCoinFlip, player, fmt.Sprintf("coin flip (%s): %s", reason, face), map[string]string{
		"reason": reason,
		"result": face,
	})
	return heads
}

// MoveToDiscard flattens a card instance (attached energy, tools and
// earlier stages included) into its owner's discard pile and clears
// runtime attributes. The caller must already have detached the instance
// from its zone.
func (s *State) MoveToDiscard(owner PlayerID, ci *CardInstance) {
	p := s.Player(owner)
	pieces := flatten(ci)
	for _, piece := range pieces {
		piece.ResetRuntime()
		p.Discard = append(p.Discard, piece)
	}
}

// flatten detaches every nested card from ci and returns all pieces,
// the instance itself first.
func flatten(ci *CardInstance) []*CardInstance {
	pieces := []*CardInstance{ci}
	for _, e := range ci.Energy {
		pieces = append(pieces, flatten(e)...)
	}
	for _, t := range ci.Tools {
		pieces = append(pieces, flatten(t)...)
	}
	for _, u := range ci.Underneath {
		pieces = append(pieces, flatten(u)...)
	}
	ci.Energy = nil
	ci.Tools = nil
	ci.Underneath = nil
	return pieces
}

// RecordWin freezes the match with a winner.
func (s *State) RecordWin(winner PlayerID, reason string) {
	if s.Over {
		return
	}
	w := winner
	s.Winner = &w
	s.Over = true
	s.Phase = PhaseGameOver
	s.Emit(EventMatchWon, winner, fmt.Sprintf("%s wins: %s", s.Player(winner).Name, reason), map[string]string{
		"reason": reason,
	})
}

// RecordDraw freezes the match as an explicit draw. Simultaneous loss
// conditions must surface here, never as either player's win.
func (s *State) RecordDraw(reason string) {
	if s.Over {
		return
	}
	s.IsDraw = true
	s.Over = true
	s.Phase = PhaseGameOver
	s.Emit(EventMatchDrawn, s.ActivePlayer, "match drawn: "+reason, map[string]string{
		"reason": reason,
	})
}

// CheckInvariants verifies the conservation law (every card of the
// starting deck accounted for exactly once) and zone exclusivity. A
// non-nil result is an InvariantViolationError and is always fatal.
func (s *State) CheckInvariants() error {
	seen := make(map[string]string)
	for idx, p := range s.Players {
		count := p.CardCount()
		if s.Stadium != nil && s.StadiumOwner == PlayerID(idx) {
			count += s.Stadium.CardCount()
		}
		if count != p.StartingCount {
			return &InvariantViolationError{
				Reason:    fmt.Sprintf("player %d has %d cards across zones, want %d", idx, count, p.StartingCount),
				StateDump: s.Dump(),
			}
		}
		if err := s.checkUnique(seen, PlayerID(idx)); err != nil {
			return err
		}
	}
	return nil
}

func (s *State) checkUnique(seen map[string]string, pid PlayerID) error {
	p := s.Player(pid)
	zones := map[string][]*CardInstance{
		"deck":    p.Deck,
		"hand":    p.Hand,
		"discard": p.Discard,
		"bench":   p.Bench,
		"prizes":  p.Prizes,
		"lost":    p.LostZone,
	}
	if p.Active != nil {
		zones["active"] = []*CardInstance{p.Active}
	}
	if s.Stadium != nil && s.StadiumOwner == pid {
		zones["stadium"] = []*CardInstance{s.Stadium}
	}
	for zone, cards := range zones {
		for _, ci := range cards {
			for _, piece := range collect(ci) {
				where := fmt.Sprintf("p%d/%s", pid, zone)
				if prev, dup := seen[piece.ID]; dup {
					return &InvariantViolationError{
						Reason:    fmt.Sprintf("card instance %s present in both %s and %s", piece.ID, prev, where),
						StateDump: s.Dump(),
					}
				}
				seen[piece.ID] = where
			}
		}
	}
	return nil
}

// collect walks an instance and its attachments without detaching them.
func collect(ci *CardInstance) []*CardInstance {
	out := []*CardInstance{ci}
	for _, e := range ci.Energy {
		out = append(out, collect(e)...)
	}
	for _, t := range ci.Tools {
		out = append(out, collect(t)...)
	}
	for _, u := range ci.Underneath {
		out = append(out, collect(u)...)
	}
	return out
}

// Dump renders a compact diagnostic of the state for fatal errors.
func (s *State) Dump() string {
	var b strings.Builder
	fmt.Fprintf(&b, "match=%s turn=%d phase=%s active_player=%d over=%v\n",
		s.MatchID, s.Turn, s.Phase, s.ActivePlayer, s.Over)
	for idx, p := range s.Players {
		active := "none"
		if p.Active != nil {
			active = string(p.Active.CardID)
		}
		fmt.Fprintf(&b, "p%d %q deck=%d hand=%d discard=%d bench=%d prizes=%d lost=%d active=%s\n",
			idx, p.Name, len(p.Deck), len(p.Hand), len(p.Discard), len(p.Bench), len(p.Prizes), len(p.LostZone), active)
	}
	return b.String()
}
