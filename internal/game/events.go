package game

// EventType categorizes entries of the match event log.
type EventType string

const (
	EventMatchStarted   EventType = "MATCH_STARTED"
	EventCoinToss       EventType = "COIN_TOSS"
	EventMulligan       EventType = "MULLIGAN"
	EventCardDrawn      EventType = "CARD_DRAWN"
	EventPrizesSet      EventType = "PRIZES_SET"
	EventActivePlaced   EventType = "ACTIVE_PLACED"
	EventBenched        EventType = "BENCHED"
	EventTurnStarted    EventType = "TURN_STARTED"
	EventTurnEnded      EventType = "TURN_ENDED"
	EventDeckOut        EventType = "DECK_OUT"
	EventEvolved        EventType = "EVOLVED"
	EventEnergyAttached EventType = "ENERGY_ATTACHED"
	EventRetreated      EventType = "RETREATED"
	EventAttack         EventType = "ATTACK"
	EventDamage         EventType = "DAMAGE"
	EventHealed         EventType = "HEALED"
	EventCoinFlip       EventType = "COIN_FLIP"
	EventStatusApplied  EventType = "STATUS_APPLIED"
	EventStatusRemoved  EventType = "STATUS_REMOVED"
	EventCheckup        EventType = "CHECKUP"
	EventKnockout       EventType = "KNOCKOUT"
	EventPrizeTaken     EventType = "PRIZE_TAKEN"
	EventPromoted       EventType = "PROMOTED"
	EventTrainerPlayed  EventType = "TRAINER_PLAYED"
	EventStadiumPlaced  EventType = "STADIUM_PLACED"
	EventEnergyDiscard  EventType = "ENERGY_DISCARDED"
	EventCardsSearched  EventType = "CARDS_SEARCHED"
	EventHandShuffled   EventType = "HAND_SHUFFLED"
	EventMatchWon       EventType = "MATCH_WON"
	EventMatchDrawn     EventType = "MATCH_DRAWN"
)

// Event is one entry of the append-only, ordered match log. Every entry
// carries the turn, phase and acting player, a human-readable summary and
// a small structured delta for downstream consumers.
type Event struct {
	Seq     int               `json:"seq"`
	Turn    int               `json:"turn"`
	Phase   string            `json:"phase"`
	Player  PlayerID          `json:"player"`
	Type    EventType         `json:"type"`
	Message string            `json:"message"`
	Data    map[string]string `json:"data,omitempty"`
}

// Emit appends a structured event to the match log, stamping sequence,
// turn and phase.
func (s *State) Emit(t EventType, player PlayerID, message string, data map[string]string) Event {
	s.seq++
	ev := Event{
		Seq:     s.seq,
		Turn:    s.Turn,
		Phase:   s.Phase.String(),
		Player:  player,
		Type:    t,
		Message: message,
		Data:    data,
	}
	s.Events = append(s.Events, ev)
	return ev
}

// EventsSince returns the log suffix with sequence numbers greater than
// seq, for incremental consumers.
func (s *State) EventsSince(seq int) []Event {
	for i, ev := range s.Events {
		if ev.Seq > seq {
			return s.Events[i:]
		}
	}
	return nil
}
