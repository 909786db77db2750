package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"freeagency/internal/auctionstore"
	"freeagency/internal/ledger"
)

// Seeder is the admin path that puts eligible players up for bid: it writes
// the tier window, creates one auction record per player and flags the
// players in_auction in the ledger.
type Seeder struct {
	Store  auctionstore.Store
	Ledger ledger.Ledger
	Logger *zap.Logger
}

type SeedPlayer struct {
	PlayerID       string          `json:"playerId"`
	PlayerName     string          `json:"playerName"`
	Position       string          `json:"position"`
	ContractID     string          `json:"contractId"`
	StartingAmount decimal.Decimal `json:"startingAmount"`
}

type SeedInput struct {
	LeagueID  string       `json:"leagueId"`
	TierID    string       `json:"tierId"`
	TierName  string       `json:"tierName"`
	TierLevel int          `json:"tierLevel"`
	StartTime time.Time    `json:"startTime"`
	EndTime   time.Time    `json:"endTime"`
	Players   []SeedPlayer `json:"players"`
}

type SeedResult struct {
	Seeded   int           `json:"seeded"`
	Failures []PlayerError `json:"failures,omitempty"`
}

func (in SeedInput) validate(now time.Time) error {
	switch {
	case strings.TrimSpace(in.LeagueID) == "":
		return fmt.Errorf("%w: leagueId is required", ErrInvalidInput)
	case strings.TrimSpace(in.TierID) == "":
		return fmt.Errorf("%w: tierId is required", ErrInvalidInput)
	case len(in.Players) == 0:
		return fmt.Errorf("%w: players is required", ErrInvalidInput)
	case in.EndTime.IsZero() || !in.EndTime.After(now):
		return fmt.Errorf("%w: endTime must be in the future", ErrInvalidInput)
	}
	if !in.StartTime.IsZero() && !in.EndTime.After(in.StartTime) {
		return fmt.Errorf("%w: endTime must be after startTime", ErrInvalidInput)
	}
	for _, p := range in.Players {
		if strings.TrimSpace(p.PlayerID) == "" {
			return fmt.Errorf("%w: player id is required", ErrInvalidInput)
		}
		if p.StartingAmount.IsNegative() {
			return fmt.Errorf("%w: startingAmount must not be negative", ErrInvalidInput)
		}
	}
	return nil
}

func (s *Seeder) Seed(ctx context.Context, in SeedInput) (SeedResult, error) {
	now := time.Now().UTC()
	if err := in.validate(now); err != nil {
		return SeedResult{}, err
	}

	start := in.StartTime
	if start.IsZero() {
		start = now
	}

	if err := s.Store.SetTierStatus(ctx, in.LeagueID, in.TierID, auctionstore.TierStatus{
		Active:    true,
		StartTime: start,
		EndTime:   in.EndTime,
		TierLevel: in.TierLevel,
	}); err != nil {
		return SeedResult{}, err
	}

	var result SeedResult
	seeded := make([]string, 0, len(in.Players))
	for _, p := range in.Players {
		err := s.Store.SeedAuction(ctx, auctionstore.AuctionRecord{
			PlayerID:       p.PlayerID,
			LeagueID:       in.LeagueID,
			PlayerName:     p.PlayerName,
			Position:       p.Position,
			TierID:         in.TierID,
			TierName:       in.TierName,
			ContractID:     p.ContractID,
			StartingAmount: p.StartingAmount,
			Status:         auctionstore.StatusActive,
			StartTime:      start,
			EndTime:        in.EndTime,
		})
		if err != nil {
			result.Failures = append(result.Failures, PlayerError{
				PlayerID: p.PlayerID,
				LeagueID: in.LeagueID,
				Error:    err.Error(),
			})
			if s.Logger != nil {
				s.Logger.Warn("seed auction failed",
					zap.String("league_id", in.LeagueID),
					zap.String("player_id", p.PlayerID),
					zap.Error(err),
				)
			}
			continue
		}
		seeded = append(seeded, p.PlayerID)
	}

	if len(seeded) > 0 {
		if err := s.Ledger.MarkInAuction(ctx, in.LeagueID, seeded); err != nil {
			return result, err
		}
	}
	result.Seeded = len(seeded)
	if s.Logger != nil {
		s.Logger.Info("auctions seeded",
			zap.String("league_id", in.LeagueID),
			zap.String("tier_id", in.TierID),
			zap.Int("seeded", result.Seeded),
			zap.Int("failed", len(result.Failures)),
		)
	}
	return result, nil
}
