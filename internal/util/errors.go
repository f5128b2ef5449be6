package util

import "errors"

var (
	ErrProfileNotFound     = errors.New("profile not found")
	ErrProgressNotFound    = errors.New("progress not found")
	ErrModuleNotFound      = errors.New("module not found")
	ErrBadgeAlreadyGranted = errors.New("badge already granted")
	ErrNegativeDelta       = errors.New("xp and credits deltas must be non-negative")
	ErrInvalidLanguage     = errors.New("invalid language")
	ErrMissingIdentity     = errors.New("missing user identity")
)
