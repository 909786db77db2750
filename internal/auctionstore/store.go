// Package auctionstore holds the ephemeral live-auction state: one record per
// player currently up for bid and one window status per league tier. All bid
// mutations go through ApplyBid, which is atomic per record.
package auctionstore

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusActive    = "active"
	StatusCompleted = "completed"
)

// CompletedRecordTTL bounds how long a finalized record may linger when the
// follow-up delete never arrives; after it the record vanishes on its own.
const CompletedRecordTTL = 24 * time.Hour

var (
	ErrNotFound      = errors.New("auction not found")
	ErrAlreadyListed = errors.New("player already has an active auction")
	ErrAuctionClosed = errors.New("auction closed")
	ErrBidTooLow     = errors.New("bid too low")
)

// AuctionRecord is the live bidding state for one player. CurrentBid is nil
// until the first valid bid lands and is monotonically increasing afterwards.
// Once Status is completed the record is immutable except for deletion.
type AuctionRecord struct {
	PlayerID   string `json:"playerId"`
	LeagueID   string `json:"leagueId"`
	PlayerName string `json:"playerName"`
	Position   string `json:"position"`
	TierID     string `json:"tierId"`
	TierName   string `json:"tierName"`
	ContractID string `json:"contractId"`

	StartingAmount decimal.Decimal  `json:"startingAmount"`
	CurrentBid     *decimal.Decimal `json:"currentBid,omitempty"`

	CurrentTeamID   string `json:"currentTeamId,omitempty"`
	CurrentTeamName string `json:"currentTeamName,omitempty"`

	Status    string    `json:"status"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}

// Expired reports whether the bidding window has closed.
func (r *AuctionRecord) Expired(now time.Time) bool {
	return !now.Before(r.EndTime)
}

// HasBid reports whether any valid bid has been applied.
func (r *AuctionRecord) HasBid() bool {
	return r.CurrentTeamID != "" && r.CurrentBid != nil
}

// TierStatus is the auction window for one league tier. Seeded records derive
// their end time from it.
type TierStatus struct {
	Active    bool      `json:"active"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	TierLevel int       `json:"tierLevel"`
}

type Store interface {
	// SeedAuction creates the record; fails with ErrAlreadyListed if an
	// active record already exists for the player.
	SeedAuction(ctx context.Context, rec AuctionRecord) error

	GetAuction(ctx context.Context, leagueID, playerID string) (*AuctionRecord, error)

	// ListActiveAuctions returns all records with Status active. An empty
	// leagueID spans every league (the finalizer sweep uses this).
	ListActiveAuctions(ctx context.Context, leagueID string) ([]AuctionRecord, error)

	// ApplyBid is an atomic read-check-write: it fails with ErrAuctionClosed
	// when now is at or past EndTime or the record is not active, and with
	// ErrBidTooLow when amount does not beat the current bid (or the
	// starting amount when no bid has landed yet).
	ApplyBid(ctx context.Context, leagueID, playerID, teamID, teamName string, amount decimal.Decimal, now time.Time) (*AuctionRecord, error)

	// Finalize flips the record to completed and starts the
	// CompletedRecordTTL countdown. Idempotent.
	Finalize(ctx context.Context, leagueID, playerID string) error

	// Delete removes the record. Idempotent.
	Delete(ctx context.Context, leagueID, playerID string) error

	SetTierStatus(ctx context.Context, leagueID, tierID string, status TierStatus) error
	GetTierStatus(ctx context.Context, leagueID, tierID string) (*TierStatus, error)
}
