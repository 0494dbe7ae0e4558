package service

import (
	"errors"

	"geek-ludo/internal/repository"
)

var (
	ErrInvalidJoin        = errors.New("enter room code and name")
	ErrInvalidColor       = errors.New("invalid seat color")
	ErrAlreadyJoined      = errors.New("already joined a room")
	ErrNotJoined          = errors.New("not in a room")
	ErrAlreadyStarted     = errors.New("match already started")
	ErrNotYourTurn        = errors.New("not your turn")
	ErrInvalidPhase       = errors.New("action not allowed in current phase")
	ErrRequestInFlight    = errors.New("a request is already in flight")
	ErrInvalidVerdict     = errors.New("verdict must be accept or challenge")
	ErrIncompleteVerdict  = errors.New("challenge verdict requires test input and expected output")
	ErrAlreadyVoted       = errors.New("verdict already cast this round")
	ErrNoReview           = errors.New("no submission under review")
	ErrInvalidScoringMode = errors.New("invalid scoring mode")
	ErrUnknownIntent      = errors.New("unknown intent")
	ErrDisconnected       = errors.New("not connected to game server")
	ErrJournalUnavailable = errors.New("match journal store unavailable")
	ErrEngineStopped      = errors.New("engine stopped")
	ErrInternalServer     = errors.New("internal server error")
)

// mapRepoError 把日志存储层错误映射为服务层错误，未知错误统一视为内部错误。
func mapRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrUnavailable) {
		return ErrJournalUnavailable
	}
	return ErrInternalServer
}
