package auctionstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func activeRecord(playerID string, starting int64, endsAt time.Time) AuctionRecord {
	return AuctionRecord{
		PlayerID:       playerID,
		LeagueID:       "L1",
		PlayerName:     "Player " + playerID,
		Position:       "QB",
		TierID:         "T1",
		TierName:       "Tier One",
		ContractID:     "c-" + playerID,
		StartingAmount: decimal.NewFromInt(starting),
		Status:         StatusActive,
		StartTime:      endsAt.Add(-48 * time.Hour),
		EndTime:        endsAt,
	}
}

func TestSeedAuction_RejectsActiveDuplicate(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	rec := activeRecord("p1", 500000, time.Now().Add(time.Hour))
	if err := s.SeedAuction(ctx, rec); err != nil {
		t.Fatalf("seed err=%v", err)
	}
	if err := s.SeedAuction(ctx, rec); err != ErrAlreadyListed {
		t.Fatalf("err=%v want ErrAlreadyListed", err)
	}
}

func TestApplyBid_MonotonicSequence(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	end := time.Now().Add(48 * time.Hour)
	if err := s.SeedAuction(ctx, activeRecord("p1", 500000, end)); err != nil {
		t.Fatalf("seed err=%v", err)
	}

	now := time.Now()
	prev := decimal.Zero
	for i, amount := range []int64{500000, 510000, 600000, 600001} {
		rec, err := s.ApplyBid(ctx, "L1", "p1", "tA", "Team A", decimal.NewFromInt(amount), now)
		if err != nil {
			t.Fatalf("bid %d err=%v", i, err)
		}
		if !rec.CurrentBid.GreaterThan(prev) {
			t.Fatalf("bid %d: currentBid=%s not greater than %s", i, rec.CurrentBid, prev)
		}
		prev = *rec.CurrentBid
	}
}

func TestApplyBid_BelowStartingAmount(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	if err := s.SeedAuction(ctx, activeRecord("p1", 500000, time.Now().Add(time.Hour))); err != nil {
		t.Fatalf("seed err=%v", err)
	}
	_, err := s.ApplyBid(ctx, "L1", "p1", "tA", "Team A", decimal.NewFromInt(499999), time.Now())
	if err != ErrBidTooLow {
		t.Fatalf("err=%v want ErrBidTooLow", err)
	}
}

func TestApplyBid_NotAboveCurrent(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	if err := s.SeedAuction(ctx, activeRecord("p1", 500000, time.Now().Add(time.Hour))); err != nil {
		t.Fatalf("seed err=%v", err)
	}
	now := time.Now()
	if _, err := s.ApplyBid(ctx, "L1", "p1", "tA", "Team A", decimal.NewFromInt(600000), now); err != nil {
		t.Fatalf("first bid err=%v", err)
	}
	_, err := s.ApplyBid(ctx, "L1", "p1", "tB", "Team B", decimal.NewFromInt(600000), now)
	if err != ErrBidTooLow {
		t.Fatalf("equal bid err=%v want ErrBidTooLow", err)
	}
	_, err = s.ApplyBid(ctx, "L1", "p1", "tB", "Team B", decimal.NewFromInt(550000), now)
	if err != ErrBidTooLow {
		t.Fatalf("lower bid err=%v want ErrBidTooLow", err)
	}
}

func TestApplyBid_ClosedWindow(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	end := time.Now().Add(time.Hour)
	if err := s.SeedAuction(ctx, activeRecord("p1", 500000, end)); err != nil {
		t.Fatalf("seed err=%v", err)
	}
	_, err := s.ApplyBid(ctx, "L1", "p1", "tA", "Team A", decimal.NewFromInt(600000), end)
	if err != ErrAuctionClosed {
		t.Fatalf("bid at endTime err=%v want ErrAuctionClosed", err)
	}
	_, err = s.ApplyBid(ctx, "L1", "p1", "tA", "Team A", decimal.NewFromInt(600000), end.Add(time.Minute))
	if err != ErrAuctionClosed {
		t.Fatalf("bid after endTime err=%v want ErrAuctionClosed", err)
	}
}

func TestApplyBid_CompletedRecordIsClosed(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	if err := s.SeedAuction(ctx, activeRecord("p1", 500000, time.Now().Add(time.Hour))); err != nil {
		t.Fatalf("seed err=%v", err)
	}
	if err := s.Finalize(ctx, "L1", "p1"); err != nil {
		t.Fatalf("finalize err=%v", err)
	}
	_, err := s.ApplyBid(ctx, "L1", "p1", "tA", "Team A", decimal.NewFromInt(600000), time.Now())
	if err != ErrAuctionClosed {
		t.Fatalf("err=%v want ErrAuctionClosed", err)
	}
}

func TestApplyBid_NoDoubleWin(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	if err := s.SeedAuction(ctx, activeRecord("p1", 500000, time.Now().Add(time.Hour))); err != nil {
		t.Fatalf("seed err=%v", err)
	}

	now := time.Now()
	var wg sync.WaitGroup
	errs := make([]error, 2)
	amounts := []int64{600000, 650000}
	teams := []string{"tA", "tB"}
	for i := range amounts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.ApplyBid(ctx, "L1", "p1", teams[i], "Team "+teams[i], decimal.NewFromInt(amounts[i]), now)
		}(i)
	}
	wg.Wait()

	rec, err := s.GetAuction(ctx, "L1", "p1")
	if err != nil {
		t.Fatalf("get err=%v", err)
	}
	if rec.CurrentTeamID != "tB" {
		t.Fatalf("currentTeamId=%q want tB", rec.CurrentTeamID)
	}
	if rec.CurrentBid.Cmp(decimal.NewFromInt(650000)) != 0 {
		t.Fatalf("currentBid=%s want 650000", rec.CurrentBid)
	}
	// The lower bid either landed first or was rejected; it never wins.
	if errs[0] != nil && errs[0] != ErrBidTooLow {
		t.Fatalf("low bid err=%v", errs[0])
	}
	if errs[1] != nil {
		t.Fatalf("high bid err=%v", errs[1])
	}
}

func TestFinalize_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	if err := s.SeedAuction(ctx, activeRecord("p1", 500000, time.Now().Add(time.Hour))); err != nil {
		t.Fatalf("seed err=%v", err)
	}
	if err := s.Finalize(ctx, "L1", "p1"); err != nil {
		t.Fatalf("finalize err=%v", err)
	}
	if err := s.Finalize(ctx, "L1", "p1"); err != nil {
		t.Fatalf("second finalize err=%v", err)
	}
	rec, err := s.GetAuction(ctx, "L1", "p1")
	if err != nil {
		t.Fatalf("get err=%v", err)
	}
	if rec.Status != StatusCompleted {
		t.Fatalf("status=%q want completed", rec.Status)
	}
	// Missing record is not an error either.
	if err := s.Finalize(ctx, "L1", "ghost"); err != nil {
		t.Fatalf("finalize missing err=%v", err)
	}
}

func TestFinalize_CompletedRecordExpiresOnItsOwn(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	s.CompletedTTL = time.Millisecond
	if err := s.SeedAuction(ctx, activeRecord("p1", 500000, time.Now().Add(time.Hour))); err != nil {
		t.Fatalf("seed err=%v", err)
	}
	if err := s.Finalize(ctx, "L1", "p1"); err != nil {
		t.Fatalf("finalize err=%v", err)
	}

	// Simulates a crash between finalize and delete: the record must not
	// outlive its TTL.
	time.Sleep(10 * time.Millisecond)
	if _, err := s.GetAuction(ctx, "L1", "p1"); err != ErrNotFound {
		t.Fatalf("get err=%v want ErrNotFound after TTL", err)
	}
}

func TestDelete_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	if err := s.SeedAuction(ctx, activeRecord("p1", 500000, time.Now().Add(time.Hour))); err != nil {
		t.Fatalf("seed err=%v", err)
	}
	if err := s.Delete(ctx, "L1", "p1"); err != nil {
		t.Fatalf("delete err=%v", err)
	}
	if err := s.Delete(ctx, "L1", "p1"); err != nil {
		t.Fatalf("second delete err=%v", err)
	}
	if _, err := s.GetAuction(ctx, "L1", "p1"); err != ErrNotFound {
		t.Fatalf("get err=%v want ErrNotFound", err)
	}
}

func TestListActiveAuctions_FiltersLeagueAndStatus(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	end := time.Now().Add(time.Hour)
	for _, rec := range []AuctionRecord{
		activeRecord("p1", 100, end),
		activeRecord("p2", 100, end),
	} {
		if err := s.SeedAuction(ctx, rec); err != nil {
			t.Fatalf("seed err=%v", err)
		}
	}
	other := activeRecord("p3", 100, end)
	other.LeagueID = "L2"
	if err := s.SeedAuction(ctx, other); err != nil {
		t.Fatalf("seed err=%v", err)
	}
	if err := s.Finalize(ctx, "L1", "p2"); err != nil {
		t.Fatalf("finalize err=%v", err)
	}

	l1, err := s.ListActiveAuctions(ctx, "L1")
	if err != nil {
		t.Fatalf("list err=%v", err)
	}
	if len(l1) != 1 || l1[0].PlayerID != "p1" {
		t.Fatalf("L1 list=%v want only p1", l1)
	}
	all, err := s.ListActiveAuctions(ctx, "")
	if err != nil {
		t.Fatalf("list all err=%v", err)
	}
	if len(all) != 2 {
		t.Fatalf("all active=%d want 2", len(all))
	}
}

func TestTierStatus_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	if _, err := s.GetTierStatus(ctx, "L1", "T1"); err != ErrNotFound {
		t.Fatalf("get missing err=%v want ErrNotFound", err)
	}
	want := TierStatus{
		Active:    true,
		StartTime: time.Now().UTC().Truncate(time.Millisecond),
		EndTime:   time.Now().UTC().Add(48 * time.Hour).Truncate(time.Millisecond),
		TierLevel: 2,
	}
	if err := s.SetTierStatus(ctx, "L1", "T1", want); err != nil {
		t.Fatalf("set err=%v", err)
	}
	got, err := s.GetTierStatus(ctx, "L1", "T1")
	if err != nil {
		t.Fatalf("get err=%v", err)
	}
	if !got.Active || got.TierLevel != 2 || !got.EndTime.Equal(want.EndTime) {
		t.Fatalf("got=%+v want=%+v", got, want)
	}
}
