package auctionstore

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Memory is an in-process Store with the same semantics as the redis
// implementation. The single mutex stands in for the server-side script:
// bids on one player are still totally ordered.
type Memory struct {
	mu       sync.Mutex
	auctions map[string]AuctionRecord
	tiers    map[string]TierStatus
	expiries map[string]time.Time

	// CompletedTTL mirrors the redis expiry on finalized records.
	CompletedTTL time.Duration
}

func NewMemory() *Memory {
	return &Memory{
		auctions:     make(map[string]AuctionRecord),
		tiers:        make(map[string]TierStatus),
		expiries:     make(map[string]time.Time),
		CompletedTTL: CompletedRecordTTL,
	}
}

// expiredLocked drops the record when its post-finalize lifetime has passed.
// Caller holds the mutex.
func (s *Memory) expiredLocked(key string) bool {
	exp, ok := s.expiries[key]
	if !ok || time.Now().Before(exp) {
		return false
	}
	delete(s.auctions, key)
	delete(s.expiries, key)
	return true
}

func memKey(leagueID, playerID string) string {
	return leagueID + "/" + playerID
}

func (s *Memory) SeedAuction(ctx context.Context, rec AuctionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := memKey(rec.LeagueID, rec.PlayerID)
	if existing, ok := s.auctions[key]; ok && existing.Status == StatusActive {
		return ErrAlreadyListed
	}
	s.auctions[key] = cloneRecord(rec)
	return nil
}

func (s *Memory) GetAuction(ctx context.Context, leagueID, playerID string) (*AuctionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := memKey(leagueID, playerID)
	rec, ok := s.auctions[key]
	if !ok || s.expiredLocked(key) {
		return nil, ErrNotFound
	}
	out := cloneRecord(rec)
	return &out, nil
}

func (s *Memory) ListActiveAuctions(ctx context.Context, leagueID string) ([]AuctionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []AuctionRecord
	for _, rec := range s.auctions {
		if rec.Status != StatusActive {
			continue
		}
		if leagueID != "" && rec.LeagueID != leagueID {
			continue
		}
		out = append(out, cloneRecord(rec))
	}
	return out, nil
}

func (s *Memory) ApplyBid(ctx context.Context, leagueID, playerID, teamID, teamName string, amount decimal.Decimal, now time.Time) (*AuctionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := memKey(leagueID, playerID)
	rec, ok := s.auctions[key]
	if !ok {
		return nil, ErrNotFound
	}
	if rec.Status != StatusActive || rec.Expired(now) {
		return nil, ErrAuctionClosed
	}
	if rec.CurrentBid != nil {
		if amount.LessThanOrEqual(*rec.CurrentBid) {
			return nil, ErrBidTooLow
		}
	} else if amount.LessThan(rec.StartingAmount) {
		return nil, ErrBidTooLow
	}
	bid := amount.Copy()
	rec.CurrentBid = &bid
	rec.CurrentTeamID = teamID
	rec.CurrentTeamName = teamName
	s.auctions[key] = rec
	out := cloneRecord(rec)
	return &out, nil
}

func (s *Memory) Finalize(ctx context.Context, leagueID, playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := memKey(leagueID, playerID)
	rec, ok := s.auctions[key]
	if !ok || rec.Status == StatusCompleted {
		return nil
	}
	rec.Status = StatusCompleted
	s.auctions[key] = rec
	s.expiries[key] = time.Now().Add(s.CompletedTTL)
	return nil
}

func (s *Memory) Delete(ctx context.Context, leagueID, playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := memKey(leagueID, playerID)
	delete(s.auctions, key)
	delete(s.expiries, key)
	return nil
}

func (s *Memory) SetTierStatus(ctx context.Context, leagueID, tierID string, status TierStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tiers[memKey(leagueID, tierID)] = status
	return nil
}

func (s *Memory) GetTierStatus(ctx context.Context, leagueID, tierID string) (*TierStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	status, ok := s.tiers[memKey(leagueID, tierID)]
	if !ok {
		return nil, ErrNotFound
	}
	out := status
	return &out, nil
}

func cloneRecord(rec AuctionRecord) AuctionRecord {
	out := rec
	if rec.CurrentBid != nil {
		bid := rec.CurrentBid.Copy()
		out.CurrentBid = &bid
	}
	return out
}
