package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"freeagency/internal/auctionstore"
	"freeagency/internal/ledger"
	"freeagency/internal/models"
)

// Reconciler repairs divergence between the auction store and the ledger that
// the finalizer did not catch: lost store keys, manual ledger edits, partial
// failures. Safe to run repeatedly and concurrently with live bidding.
type Reconciler struct {
	Store     auctionstore.Store
	Ledger    ledger.Ledger
	Finalizer *Finalizer
	Logger    *zap.Logger
}

// Report counts one pass's findings per drift class. In dry-run mode the
// counts are detections only and nothing is mutated.
type Report struct {
	DryRun bool `json:"dryRun"`

	// Ledger shows a roster assignment but in_auction is still set.
	RosteredStillFlagged int `json:"rosteredStillFlagged"`
	// in_auction set with no auction record behind it.
	FlaggedWithoutAuction int `json:"flaggedWithoutAuction"`
	// Active record whose window has already closed.
	ExpiredStillActive int `json:"expiredStillActive"`
	// Active record for a player the ledger no longer holds in auction.
	OrphanedAuctions int `json:"orphanedAuctions"`

	Failures []PlayerError `json:"failures,omitempty"`
}

// Clean reports whether the pass detected no drift at all.
func (r Report) Clean() bool {
	return r.RosteredStillFlagged == 0 &&
		r.FlaggedWithoutAuction == 0 &&
		r.ExpiredStillActive == 0 &&
		r.OrphanedAuctions == 0 &&
		len(r.Failures) == 0
}

// Reconcile detects the four drift classes in priority order and, unless
// dryRun is set, repairs each finding. The ledger is authoritative for
// eligibility; the store is authoritative only for live bid state.
func (r *Reconciler) Reconcile(ctx context.Context, dryRun bool) (Report, error) {
	report := Report{DryRun: dryRun}

	seasons, err := r.Ledger.ListInAuction(ctx, "")
	if err != nil {
		return report, err
	}
	records, err := r.Store.ListActiveAuctions(ctx, "")
	if err != nil {
		return report, err
	}

	recordIndex := make(map[string]auctionstore.AuctionRecord, len(records))
	for _, rec := range records {
		recordIndex[rec.LeagueID+"/"+rec.PlayerID] = rec
	}
	handled := make(map[string]bool)

	fail := func(leagueID, playerID string, err error) {
		report.Failures = append(report.Failures, PlayerError{
			PlayerID: playerID,
			LeagueID: leagueID,
			Error:    err.Error(),
		})
		if r.Logger != nil {
			r.Logger.Warn("reconcile repair failed",
				zap.String("league_id", leagueID),
				zap.String("player_id", playerID),
				zap.Error(err),
			)
		}
	}

	for _, season := range seasons {
		key := season.LeagueID + "/" + season.PlayerID
		hasAssignment, err := r.Ledger.HasRosterAssignment(ctx, season.ID)
		if err != nil {
			fail(season.LeagueID, season.PlayerID, err)
			continue
		}

		if hasAssignment {
			// Class 1: the authoritative result already exists; the flag
			// and any stray record are leftovers.
			report.RosteredStillFlagged++
			handled[key] = true
			if dryRun {
				continue
			}
			if err := r.Ledger.ClearInAuction(ctx, season.LeagueID, season.PlayerID); err != nil {
				fail(season.LeagueID, season.PlayerID, err)
				continue
			}
			if _, ok := recordIndex[key]; ok {
				if err := r.Store.Delete(ctx, season.LeagueID, season.PlayerID); err != nil {
					fail(season.LeagueID, season.PlayerID, err)
				}
			}
			continue
		}

		if _, ok := recordIndex[key]; !ok {
			// Class 2: auction state was lost; without bid history there
			// is nothing to commit.
			report.FlaggedWithoutAuction++
			handled[key] = true
			if dryRun {
				continue
			}
			if err := r.Ledger.ClearInAuction(ctx, season.LeagueID, season.PlayerID); err != nil {
				fail(season.LeagueID, season.PlayerID, err)
			}
		}
	}

	inAuction := make(map[string]bool, len(seasons))
	for _, season := range seasons {
		inAuction[season.LeagueID+"/"+season.PlayerID] = true
	}

	now := time.Now().UTC()
	for _, rec := range records {
		key := rec.LeagueID + "/" + rec.PlayerID
		if handled[key] {
			continue
		}

		if rec.Expired(now) {
			// Class 3: the finalizer has not gotten to this one yet.
			report.ExpiredStillActive++
			if dryRun {
				continue
			}
			if _, err := r.Finalizer.FinalizeRecord(ctx, rec); err != nil {
				fail(rec.LeagueID, rec.PlayerID, err)
			}
			continue
		}

		if !inAuction[key] {
			// Class 4: the ledger says the player is not biddable; the
			// record is an orphan.
			report.OrphanedAuctions++
			if dryRun {
				continue
			}
			if err := r.Store.Delete(ctx, rec.LeagueID, rec.PlayerID); err != nil {
				fail(rec.LeagueID, rec.PlayerID, err)
			}
		}
	}

	if !dryRun {
		if err := r.saveRun(ctx, report); err != nil && r.Logger != nil {
			r.Logger.Warn("persist reconcile run failed", zap.Error(err))
		}
	}
	if r.Logger != nil && !report.Clean() {
		r.Logger.Info("reconcile pass done",
			zap.Bool("dry_run", dryRun),
			zap.Int("rostered_still_flagged", report.RosteredStillFlagged),
			zap.Int("flagged_without_auction", report.FlaggedWithoutAuction),
			zap.Int("expired_still_active", report.ExpiredStillActive),
			zap.Int("orphaned_auctions", report.OrphanedAuctions),
			zap.Int("failed", len(report.Failures)),
		)
	}
	return report, nil
}

func (r *Reconciler) saveRun(ctx context.Context, report Report) error {
	raw, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return r.Ledger.SaveReconcileRun(ctx, &models.ReconcileRun{
		Mode:   "repair",
		Report: datatypes.JSON(raw),
	})
}
