package game

import (
	"github.com/pokefree/ptcg-sim-go/internal/catalog"
	"github.com/pokefree/ptcg-sim-go/internal/game/energy"
	"github.com/pokefree/ptcg-sim-go/internal/game/status"
)

// AttackView is one attack on a visible creature, with affordability
// resolved against its currently attached energy.
type AttackView struct {
	Index   int    `json:"index"`
	Name    string `json:"name"`
	Cost    string `json:"cost"`
	Damage  int    `json:"damage"`
	Payable bool   `json:"payable"`
}

// CardView is the visible face of a card instance.
type CardView struct {
	InstanceID  string             `json:"instance_id"`
	CardID      catalog.ID         `json:"card_id"`
	Name        string             `json:"name"`
	Supertype   catalog.Supertype  `json:"supertype"`
	Stage       catalog.Stage      `json:"stage,omitempty"`
	MaxHP       int                `json:"max_hp,omitempty"`
	Damage      int                `json:"damage,omitempty"`
	RemainingHP int                `json:"remaining_hp,omitempty"`
	Energy      []energy.Type      `json:"energy,omitempty"`
	Status      []status.Condition `json:"status,omitempty"`
	Attacks     []AttackView       `json:"attacks,omitempty"`
	RetreatCost int                `json:"retreat_cost,omitempty"`
	TurnPlayed  int                `json:"turn_played,omitempty"`
}

// PlayerView is one seat as seen by a specific observer. Hand contents
// and deck order are only present for the observer's own seat; the
// opponent side carries counts only.
type PlayerView struct {
	Name            string     `json:"name"`
	DeckCount       int        `json:"deck_count"`
	HandCount       int        `json:"hand_count"`
	Hand            []CardView `json:"hand,omitempty"`
	Discard         []CardView `json:"discard"`
	Active          *CardView  `json:"active,omitempty"`
	Bench           []CardView `json:"bench"`
	PrizesRemaining int        `json:"prizes_remaining"`
	AttachedEnergy  bool       `json:"attached_energy_this_turn"`
	PlayedSupporter bool       `json:"played_supporter_this_turn"`
	Retreated       bool       `json:"retreated_this_turn"`
}

// MatchView is a point-in-time snapshot for rendering or AI decision
// input. Hidden information the observer is not entitled to is omitted,
// never blanked client-side: it does not leave the engine.
type MatchView struct {
	MatchID      string      `json:"match_id"`
	Turn         int         `json:"turn"`
	Phase        string      `json:"phase"`
	ActivePlayer PlayerID    `json:"active_player"`
	Viewer       PlayerID    `json:"viewer"`
	Self         PlayerView  `json:"self"`
	Opponent     PlayerView  `json:"opponent"`
	Stadium      *CardView   `json:"stadium,omitempty"`
	MustPromote  bool        `json:"must_promote"`
	Winner       *PlayerID   `json:"winner,omitempty"`
	IsDraw       bool        `json:"is_draw"`
	Over         bool        `json:"over"`
	LastEventSeq int         `json:"last_event_seq"`
}

// View builds the snapshot for one seat.
func (s *State) View(viewer PlayerID) *MatchView {
	v := &MatchView{
		MatchID:      s.MatchID,
		Turn:         s.Turn,
		Phase:        s.Phase.String(),
		ActivePlayer: s.ActivePlayer,
		Viewer:       viewer,
		Self:         s.playerView(viewer, true),
		Opponent:     s.playerView(viewer.Opponent(), false),
		IsDraw:       s.IsDraw,
		Over:         s.Over,
		LastEventSeq: s.seq,
	}
	if s.Stadium != nil {
		sv := s.cardView(s.Stadium)
		v.Stadium = &sv
	}
	for _, owed := range s.PendingPromotions {
		if owed == viewer {
			v.MustPromote = true
		}
	}
	if s.Winner != nil {
		w := *s.Winner
		v.Winner = &w
	}
	return v
}

func (s *State) playerView(pid PlayerID, owner bool) PlayerView {
	p := s.Player(pid)
	pv := PlayerView{
		Name:            p.Name,
		DeckCount:       len(p.Deck),
		HandCount:       len(p.Hand),
		PrizesRemaining: len(p.Prizes),
		AttachedEnergy:  p.AttachedEnergy,
		PlayedSupporter: p.PlayedSupporter,
		Retreated:       p.Retreated,
	}
	if owner {
		pv.Hand = s.cardViews(p.Hand)
	}
	pv.Discard = s.cardViews(p.Discard)
	pv.Bench = s.cardViews(p.Bench)
	if p.Active != nil {
		av := s.cardView(p.Active)
		pv.Active = &av
	}
	return pv
}

func (s *State) cardViews(cards []*CardInstance) []CardView {
	views := make([]CardView, 0, len(cards))
	for _, ci := range cards {
		views = append(views, s.cardView(ci))
	}
	return views
}

func (s *State) cardView(ci *CardInstance) CardView {
	def := s.Definition(ci)
	cv := CardView{
		InstanceID:  ci.ID,
		CardID:      ci.CardID,
		Name:        def.Name,
		Supertype:   def.Supertype,
		Stage:       def.Stage,
		MaxHP:       def.HP,
		Damage:      ci.Damage,
		Status:      ci.Status.List(),
		RetreatCost: def.RetreatCost,
		TurnPlayed:  ci.TurnPlayed,
	}
	if def.Supertype == catalog.SupertypePokemon {
		cv.RemainingHP = s.RemainingHP(ci)
		attached := s.AttachedEnergy(ci)
		for _, t := range energy.AllTypes {
			for i := 0; i < attached[t]; i++ {
				cv.Energy = append(cv.Energy, t)
			}
		}
		for i, atk := range def.Attacks {
			cv.Attacks = append(cv.Attacks, AttackView{
				Index:   i,
				Name:    atk.Name,
				Cost:    atk.Cost.String(),
				Damage:  atk.Damage,
				Payable: attached.CanPay(atk.Cost),
			})
		}
	}
	return cv
}
