package league

import (
	"errors"
	"fmt"
)

// Sentinel errors for the league package.
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidPayload   = errors.New("invalid payload")
	ErrInvalidRole      = errors.New("invalid role")
	ErrInvalidSport     = errors.New("invalid sport")
	ErrInvalidStructure = errors.New("invalid structure")

	ErrTeamNotFound  = fmt.Errorf("%w: team", ErrNotFound)
	ErrMatchNotFound = fmt.Errorf("%w: match", ErrNotFound)

	ErrInvalidServiceConfig = errors.New("invalid service configuration")
)
