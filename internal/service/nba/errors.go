package nba

import "errors"

// Sentinel errors for the NBA service layer.
var (
	ErrNotFound   = errors.New("hcp profile not found")
	ErrNoChannels = errors.New("profile has no engagement snapshots")
)
