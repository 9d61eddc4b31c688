package game

import "fmt"

// ActionType enumerates everything a controller can do.
type ActionType string

const (
	ActionPlayBasic    ActionType = "PLAY_BASIC"
	ActionEvolve       ActionType = "EVOLVE"
	ActionAttachEnergy ActionType = "ATTACH_ENERGY"
	ActionRetreat      ActionType = "RETREAT"
	ActionAttack       ActionType = "ATTACK"
	ActionPlayTrainer  ActionType = "PLAY_TRAINER"
	ActionPromote      ActionType = "PROMOTE"
	ActionPass         ActionType = "PASS"
)

// Action is one discrete move proposed by a controller. Field use depends
// on the type:
//
//	PLAY_BASIC    HandIndex (card), TargetIndex ignored
//	EVOLVE        HandIndex (evolution card), TargetIndex (-1 Active, else bench index)
//	ATTACH_ENERGY HandIndex (energy card), TargetIndex (-1 Active, else bench index)
//	RETREAT       TargetIndex (bench index to promote)
//	ATTACK        AttackIndex (index into the Active creature's attacks)
//	PLAY_TRAINER  HandIndex (trainer card), TargetIndex (bench index for switch effects)
//	PROMOTE       TargetIndex (bench index to promote into the empty Active spot)
//	PASS          no fields
type Action struct {
	Type        ActionType `json:"type"`
	Player      PlayerID   `json:"player"`
	HandIndex   int        `json:"hand_index,omitempty"`
	TargetIndex int        `json:"target_index,omitempty"`
	AttackIndex int        `json:"attack_index,omitempty"`
}

// Key returns a canonical identity string. Two actions with the same key
// are the same move; policies must return an action whose key appears in
// the legal set they were offered.
func (a Action) Key() string {
	switch a.Type {
	case ActionPlayBasic:
		return fmt.Sprintf("%s:p%d:h%d", a.Type, a.Player, a.HandIndex)
	case ActionEvolve, ActionAttachEnergy:
		return fmt.Sprintf("%s:p%d:h%d:t%d", a.Type, a.Player, a.HandIndex, a.TargetIndex)
	case ActionPlayTrainer:
		return fmt.Sprintf("%s:p%d:h%d:t%d", a.Type, a.Player, a.HandIndex, a.TargetIndex)
	case ActionRetreat, ActionPromote:
		return fmt.Sprintf("%s:p%d:t%d", a.Type, a.Player, a.TargetIndex)
	case ActionAttack:
		return fmt.Sprintf("%s:p%d:a%d", a.Type, a.Player, a.AttackIndex)
	default:
		return fmt.Sprintf("%s:p%d", a.Type, a.Player)
	}
}

func (a Action) String() string {
	return a.Key()
}

// ContainsAction reports whether the action's key appears in the set.
func ContainsAction(set []Action, a Action) bool {
	key := a.Key()
	for _, candidate := range set {
		if candidate.Key() == key {
			return true
		}
	}
	return false
}
