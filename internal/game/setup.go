package game

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/pokefree/ptcg-sim-go/internal/catalog"
)

// Opening hand size and default prize count.
const (
	OpeningHandSize   = 7
	DefaultPrizeCount = 6
)

// MatchConfig describes everything needed to set up a match. Decks must
// already be format-validated (catalog.Resolve); setup re-checks only
// that every ID resolves.
type MatchConfig struct {
	Catalog    *catalog.Catalog
	MatchID    string
	Seed       int64
	Names      [2]string
	Decks      [2][]catalog.ID
	PrizeCount int
}

// NewMatch builds and sets up a match: shuffles both decks with the
// seeded RNG stream, draws opening hands (with mulligan re-draws until a
// basic is present), lays prizes, and auto-places each player's first
// basic as Active with remaining basics benched.
//
// The state is left in the setup phase with turn 0; the turn engine
// starts turn 1.
func NewMatch(cfg MatchConfig) (*State, error) {
	if cfg.Catalog == nil {
		return nil, fmt.Errorf("match setup: nil catalog")
	}
	if cfg.MatchID == "" {
		cfg.MatchID = uuid.NewString()
	}
	if cfg.PrizeCount <= 0 {
		cfg.PrizeCount = DefaultPrizeCount
	}

	s := &State{
		MatchID: cfg.MatchID,
		Seed:    cfg.Seed,
		Catalog: cfg.Catalog,
		Phase:   PhaseSetup,
		rng:     rand.New(rand.NewSource(cfg.Seed)),
	}

	for idx := range s.Players {
		pid := PlayerID(idx)
		name := cfg.Names[idx]
		if name == "" {
			name = fmt.Sprintf("player-%d", idx+1)
		}
		player, err := buildPlayer(cfg.Catalog, name, cfg.Decks[idx])
		if err != nil {
			return nil, fmt.Errorf("player %d: %w", idx, err)
		}
		s.Players[pid] = player
	}

	s.Emit(EventMatchStarted, PlayerOne,
		fmt.Sprintf("match between %s and %s", s.Players[0].Name, s.Players[1].Name),
		map[string]string{"seed": fmt.Sprintf("%d", cfg.Seed)})

	// Coin toss decides who goes first.
	if s.FlipCoin(PlayerOne, "opening toss") {
		s.ActivePlayer = PlayerOne
	} else {
		s.ActivePlayer = PlayerTwo
	}
	s.Emit(EventCoinToss, s.ActivePlayer,
		fmt.Sprintf("%s goes first", s.Player(s.ActivePlayer).Name), nil)

	mulligans := [2]int{}
	for idx := range s.Players {
		pid := PlayerID(idx)
		mulligans[idx] = s.drawOpeningHand(pid)
	}

	// A player draws one extra card per opposing mulligan.
	for idx := range s.Players {
		pid := PlayerID(idx)
		for i := 0; i < mulligans[pid.Opponent()]; i++ {
			if card, ok := s.Player(pid).DrawCard(); ok {
				s.emitDraw(pid, card, "mulligan bonus")
			}
		}
	}

	for idx := range s.Players {
		pid := PlayerID(idx)
		s.layPrizes(pid, cfg.PrizeCount)
		s.placeOpeningBoard(pid)
	}

	if err := s.CheckInvariants(); err != nil {
		return nil, err
	}
	return s, nil
}

func buildPlayer(c *catalog.Catalog, name string, deck []catalog.ID) (*PlayerState, error) {
	if len(deck) == 0 {
		return nil, &catalog.CorruptDeckError{Deck: name, Reason: "empty deck"}
	}
	p := &PlayerState{Name: name, StartingCount: len(deck)}
	for _, id := range deck {
		if _, ok := c.Get(id); !ok {
			return nil, &catalog.CorruptDeckError{Deck: name, Reason: fmt.Sprintf("unknown card %s", id)}
		}
		p.Deck = append(p.Deck, NewCardInstance(id))
	}
	return p, nil
}

// drawOpeningHand shuffles and draws until the hand contains a basic,
// re-shuffling the whole hand back on each mulligan. Returns the number
// of mulligans taken.
func (s *State) drawOpeningHand(pid PlayerID) int {
	p := s.Player(pid)
	mulligans := 0
	for {
		s.Shuffle(p.Deck)
		for i := 0; i < OpeningHandSize; i++ {
			p.DrawCard()
		}
		if s.handHasBasic(pid) {
			return mulligans
		}
		mulligans++
		s.Emit(EventMulligan, pid,
			fmt.Sprintf("%s reveals a hand with no basic and re-draws", p.Name),
			map[string]string{"mulligans": fmt.Sprintf("%d", mulligans)})
		p.Deck = append(p.Deck, p.Hand...)
		p.Hand = nil
	}
}

func (s *State) handHasBasic(pid PlayerID) bool {
	for _, ci := range s.Player(pid).Hand {
		if s.Definition(ci).IsBasicPokemon() {
			return true
		}
	}
	return false
}

func (s *State) layPrizes(pid PlayerID, count int) {
	p := s.Player(pid)
	for i := 0; i < count && len(p.Deck) > 0; i++ {
		top := p.Deck[len(p.Deck)-1]
		p.Deck = p.Deck[:len(p.Deck)-1]
		p.Prizes = append(p.Prizes, top)
	}
	s.Emit(EventPrizesSet, pid, fmt.Sprintf("%s lays %d prize cards", p.Name, len(p.Prizes)), nil)
}

// placeOpeningBoard puts the first basic in hand into the Active spot and
// benches the remaining basics, mirroring how the match would open after
// the face-down placement window.
func (s *State) placeOpeningBoard(pid PlayerID) {
	p := s.Player(pid)
	for i := 0; i < len(p.Hand); i++ {
		def := s.Definition(p.Hand[i])
		if !def.IsBasicPokemon() {
			continue
		}
		card := p.RemoveHandAt(i)
		i--
		if p.Active == nil {
			p.Active = card
			s.Emit(EventActivePlaced, pid,
				fmt.Sprintf("%s opens with %s Active", p.Name, def.Name),
				map[string]string{"card": string(card.CardID)})
			continue
		}
		if p.BenchFull() {
			// Put it back; only Active plus a full bench fit on board.
			p.Hand = append(p.Hand, card)
			break
		}
		p.Bench = append(p.Bench, card)
		s.Emit(EventBenched, pid,
			fmt.Sprintf("%s benches %s", p.Name, def.Name),
			map[string]string{"card": string(card.CardID)})
	}
}

func (s *State) emitDraw(pid PlayerID, card *CardInstance, reason string) {
	def := s.Definition(card)
	s.Emit(EventCardDrawn, pid,
		fmt.Sprintf("%s draws a card (%s)", s.Player(pid).Name, reason),
		map[string]string{"card": string(card.CardID), "name": def.Name, "reason": reason})
}
