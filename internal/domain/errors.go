package domain

import "errors"

var (
	ErrPlayerNotFound         = errors.New("player not found")
	ErrTemporarilyUnavailable = errors.New("temporarily unavailable")
	ErrInvalidExperience      = errors.New("invalid experience amount")
	ErrQuestOutOfRange        = errors.New("quest index out of range")
	ErrUnknownClass           = errors.New("unknown class")
)
