package domain

import "errors"

// All rejections are local and non-fatal: state is left unchanged and the
// error concerns only the acting seat.
var (
	ErrNotYourTurn        = errors.New("not this seat's turn")
	ErrIllegalMoveForStage = errors.New("move is not valid in the current stage")
	ErrIllegalCard        = errors.New("card is not playable under suit obligations")
	ErrCardNotInHand      = errors.New("card is not among the seat's concealed cards")
	ErrAlreadyVoted       = errors.New("seat has already voted in this selection round")
	ErrForbiddenTrumpSuit = errors.New("declined table suit cannot be selected as trump")
	ErrTrickFull          = errors.New("trick already has four cards")
	ErrSeatAlreadyPlayed  = errors.New("seat has already played into this trick")
	ErrHandFinished       = errors.New("hand is finished")
	ErrGameNotInProgress  = errors.New("game is not in progress")
	ErrGameAlreadyStarted = errors.New("game already started")
	ErrDeckExhausted      = errors.New("deck is exhausted")
)
