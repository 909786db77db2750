// Package ledger is the narrow contract this core needs from the durable
// roster/contract store. The gorm implementation lives in ledger/gorm; tests
// run against in-memory stubs.
package ledger

import (
	"context"

	"github.com/shopspring/decimal"

	"freeagency/internal/models"
)

// CommitParams is everything one auction outcome writes durably. The whole
// commit is a single transaction: roster assignment, contract amount and the
// in_auction flag move together or not at all.
type CommitParams struct {
	LeagueID      string
	PlayerID      string
	TeamID        string
	ContractID    string
	Amount        decimal.Decimal
	PositionClass string
}

type Ledger interface {
	// GetPlayerSeason returns nil with no error when the row is absent.
	GetPlayerSeason(ctx context.Context, leagueID, playerID string) (*models.PlayerSeason, error)
	ListInAuction(ctx context.Context, leagueID string) ([]models.PlayerSeason, error)
	MarkInAuction(ctx context.Context, leagueID string, playerIDs []string) error
	ClearInAuction(ctx context.Context, leagueID, playerID string) error

	HasRosterAssignment(ctx context.Context, playerSeasonID uint64) (bool, error)
	ListRosterAssignments(ctx context.Context, leagueID, teamID string) ([]models.RosterAssignment, error)
	CountAssignmentsByClass(ctx context.Context, leagueID, teamID string) (map[string]int, error)

	GetTeamSeason(ctx context.Context, leagueID, teamID string) (*models.TeamSeason, error)
	// SumContractAmounts totals the contract amounts of players currently
	// rostered to the team.
	SumContractAmounts(ctx context.Context, leagueID, teamID string) (decimal.Decimal, error)
	ListContractsByTeam(ctx context.Context, leagueID, teamID string) ([]models.Contract, error)

	IsTeamManager(ctx context.Context, leagueID, teamID, userID string) (bool, error)

	// CommitAuctionWin returns false when a roster assignment already exists
	// for the player, in which case nothing is written.
	CommitAuctionWin(ctx context.Context, p CommitParams) (bool, error)

	SaveReconcileRun(ctx context.Context, run *models.ReconcileRun) error
}
