package services

import (
	"errors"
	"fmt"

	"whatstrumps/engine"
)

var (
	ErrEmailTaken         = fmt.Errorf("%w: an account with this email already exists", engine.ErrValidation)
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrPlayerNotDeletable = fmt.Errorf("%w: player cannot be deleted", engine.ErrState)
	ErrNotCreator         = fmt.Errorf("%w: only the creator can do this", engine.ErrState)
)
