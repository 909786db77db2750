package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"freeagency/internal/auctionstore"
	"freeagency/internal/config"
	"freeagency/internal/ledger"
)

// Finalizer converts every expired active auction into a durable ledger
// outcome, exactly once in effect. The sweep itself may run more than once:
// the ledger commit is skipped when a roster assignment already exists, so a
// crash between the ledger write and the store cleanup is repaired by the
// next pass.
type Finalizer struct {
	Store  auctionstore.Store
	Ledger ledger.Ledger
	Roster config.RosterConfig
	Logger *zap.Logger
}

type SweepResult struct {
	Scanned   int           `json:"scanned"`
	Finalized int           `json:"finalized"`
	Unsold    int           `json:"unsold"`
	Failures  []PlayerError `json:"failures,omitempty"`
}

// Run sweeps on a fixed interval until the context is cancelled.
func (f *Finalizer) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		if _, err := f.Sweep(ctx); err != nil && f.Logger != nil {
			f.Logger.Warn("finalizer sweep failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

// Sweep runs one pass over every league. A failure on one player is recorded
// and never aborts the rest of the sweep.
func (f *Finalizer) Sweep(ctx context.Context) (SweepResult, error) {
	records, err := f.Store.ListActiveAuctions(ctx, "")
	if err != nil {
		return SweepResult{}, err
	}

	now := time.Now().UTC()
	result := SweepResult{Scanned: len(records)}
	for _, rec := range records {
		if !rec.Expired(now) {
			continue
		}
		sold, err := f.FinalizeRecord(ctx, rec)
		if err != nil {
			result.Failures = append(result.Failures, PlayerError{
				PlayerID: rec.PlayerID,
				LeagueID: rec.LeagueID,
				Error:    err.Error(),
			})
			if f.Logger != nil {
				f.Logger.Warn("finalize failed",
					zap.String("league_id", rec.LeagueID),
					zap.String("player_id", rec.PlayerID),
					zap.Error(err),
				)
			}
			continue
		}
		if sold {
			result.Finalized++
		} else {
			result.Unsold++
		}
	}

	if f.Logger != nil && (result.Finalized > 0 || result.Unsold > 0 || len(result.Failures) > 0) {
		f.Logger.Info("finalizer sweep done",
			zap.Int("scanned", result.Scanned),
			zap.Int("finalized", result.Finalized),
			zap.Int("unsold", result.Unsold),
			zap.Int("failed", len(result.Failures)),
		)
	}
	return result, nil
}

// FinalizeRecord settles one expired record: ledger commit (or flag clear when
// no bid landed), then store finalize and delete. Idempotent as a whole.
func (f *Finalizer) FinalizeRecord(ctx context.Context, rec auctionstore.AuctionRecord) (sold bool, err error) {
	if rec.HasBid() {
		contractID := rec.ContractID
		if contractID == "" {
			contractID = uuid.NewString()
		}
		if _, err := f.Ledger.CommitAuctionWin(ctx, ledger.CommitParams{
			LeagueID:      rec.LeagueID,
			PlayerID:      rec.PlayerID,
			TeamID:        rec.CurrentTeamID,
			ContractID:    contractID,
			Amount:        *rec.CurrentBid,
			PositionClass: positionClass(f.Roster, rec.Position),
		}); err != nil {
			return false, err
		}
		sold = true
	} else {
		// No bids: the player returns to the free-agent pool without a
		// new contract value.
		if err := f.Ledger.ClearInAuction(ctx, rec.LeagueID, rec.PlayerID); err != nil {
			return false, err
		}
	}

	if err := f.Store.Finalize(ctx, rec.LeagueID, rec.PlayerID); err != nil {
		return sold, err
	}
	if err := f.Store.Delete(ctx, rec.LeagueID, rec.PlayerID); err != nil {
		return sold, err
	}
	return sold, nil
}
