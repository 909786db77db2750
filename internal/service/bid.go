package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"freeagency/internal/auctionstore"
	"freeagency/internal/config"
	"freeagency/internal/directory"
	"freeagency/internal/ledger"
)

// BidService is the only mutation path a client reaches directly. A bid only
// touches the auction store; the ledger stays untouched until finalization,
// so bids remain speculative and reversible while the window is open.
type BidService struct {
	Store     auctionstore.Store
	Ledger    ledger.Ledger
	Directory directory.ManagerDirectory
	Roster    config.RosterConfig
	Logger    *zap.Logger
}

type PlaceBidInput struct {
	LeagueID string
	PlayerID string
	TeamID   string
	UserID   string
	Amount   decimal.Decimal
}

func (in PlaceBidInput) validate() error {
	switch {
	case strings.TrimSpace(in.LeagueID) == "":
		return fmt.Errorf("%w: leagueId is required", ErrInvalidInput)
	case strings.TrimSpace(in.PlayerID) == "":
		return fmt.Errorf("%w: playerId is required", ErrInvalidInput)
	case strings.TrimSpace(in.TeamID) == "":
		return fmt.Errorf("%w: teamId is required", ErrInvalidInput)
	case !in.Amount.IsPositive():
		return fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	return nil
}

func (s *BidService) PlaceBid(ctx context.Context, in PlaceBidInput) (*auctionstore.AuctionRecord, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	ok, err := s.isManager(ctx, in)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotTeamManager
	}

	team, err := s.Ledger.GetTeamSeason(ctx, in.LeagueID, in.TeamID)
	if err != nil {
		return nil, err
	}
	if team == nil {
		return nil, ErrTeamNotFound
	}

	rec, err := s.Store.GetAuction(ctx, in.LeagueID, in.PlayerID)
	if err != nil {
		return nil, err
	}

	if err := s.checkSalaryCap(ctx, in, team.SalaryCap, rec); err != nil {
		return nil, err
	}
	if err := s.checkRosterSlot(ctx, in, rec.Position); err != nil {
		return nil, err
	}

	updated, err := s.Store.ApplyBid(ctx, in.LeagueID, in.PlayerID, in.TeamID, team.Name, in.Amount, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("bid applied",
			zap.String("league_id", in.LeagueID),
			zap.String("player_id", in.PlayerID),
			zap.String("team_id", in.TeamID),
			zap.String("amount", in.Amount.String()),
		)
	}
	return updated, nil
}

func (s *BidService) isManager(ctx context.Context, in PlaceBidInput) (bool, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return false, nil
	}
	if s.Directory != nil {
		return s.Directory.IsTeamManager(ctx, in.LeagueID, in.TeamID, in.UserID)
	}
	return s.Ledger.IsTeamManager(ctx, in.LeagueID, in.TeamID, in.UserID)
}

// checkSalaryCap bounds rostered contract totals plus the team's leading bids
// on other live auctions plus this bid. A raise on an auction the team
// already leads only has to cover the delta.
func (s *BidService) checkSalaryCap(ctx context.Context, in PlaceBidInput, cap decimal.Decimal, rec *auctionstore.AuctionRecord) error {
	committed, err := s.Ledger.SumContractAmounts(ctx, in.LeagueID, in.TeamID)
	if err != nil {
		return err
	}

	live, err := s.Store.ListActiveAuctions(ctx, in.LeagueID)
	if err != nil {
		return err
	}
	leading := decimal.Zero
	for _, a := range live {
		if a.PlayerID == rec.PlayerID {
			// A raise supersedes the team's own leading bid here, so the
			// old amount is not stacked into the exposure.
			continue
		}
		if a.CurrentTeamID == in.TeamID && a.CurrentBid != nil {
			leading = leading.Add(*a.CurrentBid)
		}
	}

	exposure := committed.Add(leading).Add(in.Amount)
	if exposure.GreaterThan(cap) {
		return ErrSalaryCapExceeded
	}
	return nil
}

func (s *BidService) checkRosterSlot(ctx context.Context, in PlaceBidInput, position string) error {
	class := positionClass(s.Roster, position)
	limit := classLimit(s.Roster, class)
	if limit <= 0 {
		return nil
	}
	counts, err := s.Ledger.CountAssignmentsByClass(ctx, in.LeagueID, in.TeamID)
	if err != nil {
		return err
	}
	if counts[class] >= limit {
		return ErrRosterFull
	}
	return nil
}
