package referee

import "errors"

var (
	ErrUnknownPlayer   = errors.New("referee: unknown player")
	ErrLobbyClosed     = errors.New("referee: lobby closed")
	ErrDuplicateHello  = errors.New("referee: duplicate hello")
	ErrIllegalMove     = errors.New("referee: move not in sender's legal set")
	ErrAlreadyReplied  = errors.New("referee: sender already replied this round")
	ErrMalformed       = errors.New("referee: malformed message")
	ErrGameAlreadyOver = errors.New("referee: game already over")
)
