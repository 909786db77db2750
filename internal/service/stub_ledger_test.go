package service

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"freeagency/internal/ledger"
	"freeagency/internal/models"
)

// stubLedger is an in-memory ledger.Ledger for service tests. commitErrs
// injects per-player failures into CommitAuctionWin.
type stubLedger struct {
	mu          sync.Mutex
	nextID      uint64
	seasons     map[string]*models.PlayerSeason
	teams       map[string]*models.TeamSeason
	managers    map[string]bool
	assignments map[uint64]*models.RosterAssignment
	contracts   map[string]*models.Contract
	runs        []*models.ReconcileRun
	commitErrs  map[string]error
}

func newStubLedger() *stubLedger {
	return &stubLedger{
		seasons:     make(map[string]*models.PlayerSeason),
		teams:       make(map[string]*models.TeamSeason),
		managers:    make(map[string]bool),
		assignments: make(map[uint64]*models.RosterAssignment),
		contracts:   make(map[string]*models.Contract),
		commitErrs:  make(map[string]error),
	}
}

func (l *stubLedger) addPlayer(leagueID, playerID, name, position string, inAuction bool) *models.PlayerSeason {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	season := &models.PlayerSeason{
		ID:        l.nextID,
		PlayerID:  playerID,
		LeagueID:  leagueID,
		Name:      name,
		Position:  position,
		InAuction: inAuction,
	}
	l.seasons[leagueID+"/"+playerID] = season
	return season
}

func (l *stubLedger) addTeam(leagueID, teamID, name string, cap int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	l.teams[leagueID+"/"+teamID] = &models.TeamSeason{
		ID:        l.nextID,
		TeamID:    teamID,
		LeagueID:  leagueID,
		Name:      name,
		SalaryCap: decimal.NewFromInt(cap),
	}
}

func (l *stubLedger) addManager(leagueID, teamID, userID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.managers[leagueID+"/"+teamID+"/"+userID] = true
}

func (l *stubLedger) addAssignment(seasonID uint64, leagueID, teamID, class string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.assignments[seasonID] = &models.RosterAssignment{
		PlayerSeasonID: seasonID,
		TeamID:         teamID,
		LeagueID:       leagueID,
		PositionClass:  class,
	}
}

func (l *stubLedger) addContract(id string, seasonID uint64, leagueID, teamID string, amount int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.contracts[id] = &models.Contract{
		ID:             id,
		PlayerSeasonID: seasonID,
		TeamID:         teamID,
		LeagueID:       leagueID,
		Amount:         decimal.NewFromInt(amount),
	}
}

func (l *stubLedger) GetPlayerSeason(ctx context.Context, leagueID, playerID string) (*models.PlayerSeason, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	season, ok := l.seasons[leagueID+"/"+playerID]
	if !ok {
		return nil, nil
	}
	out := *season
	return &out, nil
}

func (l *stubLedger) ListInAuction(ctx context.Context, leagueID string) ([]models.PlayerSeason, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []models.PlayerSeason
	for _, season := range l.seasons {
		if !season.InAuction {
			continue
		}
		if leagueID != "" && season.LeagueID != leagueID {
			continue
		}
		out = append(out, *season)
	}
	return out, nil
}

func (l *stubLedger) MarkInAuction(ctx context.Context, leagueID string, playerIDs []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, id := range playerIDs {
		if season, ok := l.seasons[leagueID+"/"+id]; ok {
			season.InAuction = true
		}
	}
	return nil
}

func (l *stubLedger) ClearInAuction(ctx context.Context, leagueID, playerID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if season, ok := l.seasons[leagueID+"/"+playerID]; ok {
		season.InAuction = false
	}
	return nil
}

func (l *stubLedger) HasRosterAssignment(ctx context.Context, playerSeasonID uint64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.assignments[playerSeasonID]
	return ok, nil
}

func (l *stubLedger) ListRosterAssignments(ctx context.Context, leagueID, teamID string) ([]models.RosterAssignment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []models.RosterAssignment
	for _, a := range l.assignments {
		if a.LeagueID == leagueID && a.TeamID == teamID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (l *stubLedger) CountAssignmentsByClass(ctx context.Context, leagueID, teamID string) (map[string]int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]int)
	for _, a := range l.assignments {
		if a.LeagueID == leagueID && a.TeamID == teamID {
			out[a.PositionClass]++
		}
	}
	return out, nil
}

func (l *stubLedger) GetTeamSeason(ctx context.Context, leagueID, teamID string) (*models.TeamSeason, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	team, ok := l.teams[leagueID+"/"+teamID]
	if !ok {
		return nil, nil
	}
	out := *team
	return &out, nil
}

func (l *stubLedger) SumContractAmounts(ctx context.Context, leagueID, teamID string) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	total := decimal.Zero
	for _, a := range l.assignments {
		if a.LeagueID != leagueID || a.TeamID != teamID {
			continue
		}
		for _, c := range l.contracts {
			if c.PlayerSeasonID == a.PlayerSeasonID {
				total = total.Add(c.Amount)
			}
		}
	}
	return total, nil
}

func (l *stubLedger) ListContractsByTeam(ctx context.Context, leagueID, teamID string) ([]models.Contract, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []models.Contract
	for _, a := range l.assignments {
		if a.LeagueID != leagueID || a.TeamID != teamID {
			continue
		}
		for _, c := range l.contracts {
			if c.PlayerSeasonID == a.PlayerSeasonID {
				out = append(out, *c)
			}
		}
	}
	return out, nil
}

func (l *stubLedger) IsTeamManager(ctx context.Context, leagueID, teamID, userID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.managers[leagueID+"/"+teamID+"/"+userID], nil
}

func (l *stubLedger) CommitAuctionWin(ctx context.Context, p ledger.CommitParams) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.commitErrs[p.PlayerID]; err != nil {
		return false, err
	}
	season, ok := l.seasons[p.LeagueID+"/"+p.PlayerID]
	if !ok {
		return false, errors.New("player season not found")
	}
	if _, exists := l.assignments[season.ID]; exists {
		return false, nil
	}
	l.assignments[season.ID] = &models.RosterAssignment{
		PlayerSeasonID: season.ID,
		TeamID:         p.TeamID,
		LeagueID:       p.LeagueID,
		PositionClass:  p.PositionClass,
	}
	l.contracts[p.ContractID] = &models.Contract{
		ID:             p.ContractID,
		PlayerSeasonID: season.ID,
		TeamID:         p.TeamID,
		LeagueID:       p.LeagueID,
		Amount:         p.Amount,
	}
	season.InAuction = false
	return true, nil
}

func (l *stubLedger) SaveReconcileRun(ctx context.Context, run *models.ReconcileRun) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.runs = append(l.runs, run)
	return nil
}

// violatesExclusivity lists player-seasons that are simultaneously flagged
// in_auction and rostered.
func (l *stubLedger) violatesExclusivity() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var bad []string
	for key, season := range l.seasons {
		if !season.InAuction {
			continue
		}
		if _, rostered := l.assignments[season.ID]; rostered {
			bad = append(bad, key)
		}
	}
	return bad
}
