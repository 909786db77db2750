package service

import "errors"

// Store-state errors (closed, too low, not found) come from the auctionstore
// package; these cover everything rejected before the store is touched.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotTeamManager    = errors.New("caller is not a manager of the team")
	ErrTeamNotFound      = errors.New("team not found")
	ErrSalaryCapExceeded = errors.New("salary cap exceeded")
	ErrRosterFull        = errors.New("no open roster slot for position class")
)

// PlayerError carries one player's failure out of a batch job without
// aborting the rest of the batch.
type PlayerError struct {
	PlayerID string `json:"playerId"`
	LeagueID string `json:"leagueId"`
	Error    string `json:"error"`
}
