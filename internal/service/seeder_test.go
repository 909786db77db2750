package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"freeagency/internal/auctionstore"
)

func seedInput(players ...SeedPlayer) SeedInput {
	now := time.Now().UTC()
	return SeedInput{
		LeagueID:  "L1",
		TierID:    "T1",
		TierName:  "Tier One",
		TierLevel: 1,
		StartTime: now,
		EndTime:   now.Add(48 * time.Hour),
		Players:   players,
	}
}

func TestSeed_CreatesRecordsAndFlagsPlayers(t *testing.T) {
	ctx := context.Background()
	store := auctionstore.NewMemory()
	led := newStubLedger()
	led.addPlayer("L1", "p1", "Player One", "QB", false)
	led.addPlayer("L1", "p2", "Player Two", "WR", false)
	seeder := &Seeder{Store: store, Ledger: led}

	in := seedInput(
		SeedPlayer{PlayerID: "p1", PlayerName: "Player One", Position: "QB", ContractID: "c1", StartingAmount: decimal.NewFromInt(500000)},
		SeedPlayer{PlayerID: "p2", PlayerName: "Player Two", Position: "WR", ContractID: "c2", StartingAmount: decimal.NewFromInt(300000)},
	)
	result, err := seeder.Seed(ctx, in)
	if err != nil {
		t.Fatalf("seed err=%v", err)
	}
	if result.Seeded != 2 || len(result.Failures) != 0 {
		t.Fatalf("result=%+v want 2 seeded", result)
	}

	rec, err := store.GetAuction(ctx, "L1", "p1")
	if err != nil {
		t.Fatalf("get err=%v", err)
	}
	if rec.Status != auctionstore.StatusActive {
		t.Fatalf("status=%q want active", rec.Status)
	}
	if !rec.EndTime.Equal(in.EndTime) {
		t.Fatalf("endTime=%v want %v (derived from tier window)", rec.EndTime, in.EndTime)
	}
	if rec.CurrentBid != nil {
		t.Fatalf("fresh record has a bid")
	}

	status, err := store.GetTierStatus(ctx, "L1", "T1")
	if err != nil {
		t.Fatalf("tier status err=%v", err)
	}
	if !status.Active || !status.EndTime.Equal(in.EndTime) {
		t.Fatalf("tier status=%+v", status)
	}

	for _, id := range []string{"p1", "p2"} {
		season, _ := led.GetPlayerSeason(ctx, "L1", id)
		if !season.InAuction {
			t.Fatalf("%s not flagged in_auction", id)
		}
	}
}

func TestSeed_DuplicateIsRecordedNotFatal(t *testing.T) {
	ctx := context.Background()
	store := auctionstore.NewMemory()
	led := newStubLedger()
	led.addPlayer("L1", "p1", "Player One", "QB", false)
	led.addPlayer("L1", "p2", "Player Two", "WR", false)
	seeder := &Seeder{Store: store, Ledger: led}

	first := seedInput(SeedPlayer{PlayerID: "p1", StartingAmount: decimal.NewFromInt(1)})
	if _, err := seeder.Seed(ctx, first); err != nil {
		t.Fatalf("seed err=%v", err)
	}

	again := seedInput(
		SeedPlayer{PlayerID: "p1", StartingAmount: decimal.NewFromInt(1)},
		SeedPlayer{PlayerID: "p2", StartingAmount: decimal.NewFromInt(1)},
	)
	result, err := seeder.Seed(ctx, again)
	if err != nil {
		t.Fatalf("seed err=%v", err)
	}
	if result.Seeded != 1 {
		t.Fatalf("seeded=%d want 1", result.Seeded)
	}
	if len(result.Failures) != 1 || result.Failures[0].PlayerID != "p1" {
		t.Fatalf("failures=%+v want p1", result.Failures)
	}
}

func TestSeed_Validation(t *testing.T) {
	ctx := context.Background()
	seeder := &Seeder{Store: auctionstore.NewMemory(), Ledger: newStubLedger()}
	now := time.Now().UTC()

	cases := []SeedInput{
		{TierID: "T1", EndTime: now.Add(time.Hour), Players: []SeedPlayer{{PlayerID: "p"}}},
		{LeagueID: "L1", EndTime: now.Add(time.Hour), Players: []SeedPlayer{{PlayerID: "p"}}},
		{LeagueID: "L1", TierID: "T1", EndTime: now.Add(time.Hour)},
		{LeagueID: "L1", TierID: "T1", EndTime: now.Add(-time.Hour), Players: []SeedPlayer{{PlayerID: "p"}}},
		{LeagueID: "L1", TierID: "T1", EndTime: now.Add(time.Hour), Players: []SeedPlayer{{PlayerID: ""}}},
		{LeagueID: "L1", TierID: "T1", EndTime: now.Add(time.Hour), Players: []SeedPlayer{{PlayerID: "p", StartingAmount: decimal.NewFromInt(-1)}}},
	}
	for i, in := range cases {
		if _, err := seeder.Seed(ctx, in); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("case %d err=%v want ErrInvalidInput", i, err)
		}
	}
}
