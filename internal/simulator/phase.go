package simulator

// Phase is the participant-local state driving legal-reply generation.
// Block and challenge variants are collapsed into single phases since
// every member of each family produces the same reply set.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseStart
	PhaseMyTurn
	PhaseOtherTurn
	PhaseIncome
	PhaseCoup
	PhaseForeignAid
	PhaseTax
	PhaseExchange
	PhaseSteal
	PhaseAssassinate
	PhaseStealMe
	PhaseAssassinateMe
	PhaseCoupMe
	PhaseBlockWitness // some BLOCK was announced; witness may OK or CHAL it
	PhaseChallengeOther
	PhaseChallengeSelf
	PhaseLose
	PhaseLoseMe
	PhaseShow
	PhaseCoins
	PhaseDeck
	PhasePlayer
	PhaseChoose
	PhaseEnd
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "IDLE"
	case PhaseStart:
		return "START"
	case PhaseMyTurn:
		return "R_MY_TURN"
	case PhaseOtherTurn:
		return "R_OTHER_TURN"
	case PhaseIncome:
		return "R_INCOME"
	case PhaseCoup:
		return "R_COUP"
	case PhaseForeignAid:
		return "R_FAID"
	case PhaseTax:
		return "R_TAX"
	case PhaseExchange:
		return "R_EXCHANGE"
	case PhaseSteal:
		return "R_STEAL"
	case PhaseAssassinate:
		return "R_ASSASS"
	case PhaseStealMe:
		return "R_STEAL_ME"
	case PhaseAssassinateMe:
		return "R_ASSASS_ME"
	case PhaseCoupMe:
		return "R_COUP_ME"
	case PhaseBlockWitness:
		return "R_BLOCK"
	case PhaseChallengeOther:
		return "R_CHAL"
	case PhaseChallengeSelf:
		return "R_CHAL_MY"
	case PhaseLose:
		return "R_LOSE"
	case PhaseLoseMe:
		return "R_LOSE_ME"
	case PhaseShow:
		return "R_SHOW"
	case PhaseCoins:
		return "R_COINS"
	case PhaseDeck:
		return "R_DECK"
	case PhasePlayer:
		return "R_PLAYER"
	case PhaseChoose:
		return "R_CHOOSE"
	case PhaseEnd:
		return "END"
	default:
		return "UNKNOWN"
	}
}
