package domain

import "errors"

var (
	// ErrInsufficientPlayers is returned when fewer available players exist
	// than the requested number of teams.
	ErrInsufficientPlayers = errors.New("not enough available players")

	// ErrInvalidSelection is returned when a match recording names an
	// out-of-range, duplicate or empty team.
	ErrInvalidSelection = errors.New("invalid team selection")

	ErrPlayerNotFound = errors.New("player not found")

	// ErrInvalidSnapshot is returned when an import payload does not carry
	// the expected players/matches shape.
	ErrInvalidSnapshot = errors.New("invalid snapshot payload")
)
