package gormledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"freeagency/internal/ledger"
	"freeagency/internal/models"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) GetPlayerSeason(ctx context.Context, leagueID, playerID string) (*models.PlayerSeason, error) {
	var item models.PlayerSeason
	err := s.db.WithContext(ctx).
		Where("league_id = ? AND player_id = ?", leagueID, playerID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListInAuction(ctx context.Context, leagueID string) ([]models.PlayerSeason, error) {
	query := s.db.WithContext(ctx).
		Model(&models.PlayerSeason{}).
		Where("in_auction = ?", true)
	if leagueID != "" {
		query = query.Where("league_id = ?", leagueID)
	}
	var items []models.PlayerSeason
	if err := query.Order("player_id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) MarkInAuction(ctx context.Context, leagueID string, playerIDs []string) error {
	if len(playerIDs) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.PlayerSeason{}).
		Where("league_id = ? AND player_id IN ?", leagueID, playerIDs).
		Update("in_auction", true).Error
}

func (s *Store) ClearInAuction(ctx context.Context, leagueID, playerID string) error {
	return s.db.WithContext(ctx).
		Model(&models.PlayerSeason{}).
		Where("league_id = ? AND player_id = ?", leagueID, playerID).
		Update("in_auction", false).Error
}

func (s *Store) HasRosterAssignment(ctx context.Context, playerSeasonID uint64) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.RosterAssignment{}).
		Where("player_season_id = ?", playerSeasonID).
		Count(&count).Error
	return count > 0, err
}

func (s *Store) ListRosterAssignments(ctx context.Context, leagueID, teamID string) ([]models.RosterAssignment, error) {
	var items []models.RosterAssignment
	err := s.db.WithContext(ctx).
		Model(&models.RosterAssignment{}).
		Where("league_id = ? AND team_id = ?", leagueID, teamID).
		Order("id asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountAssignmentsByClass(ctx context.Context, leagueID, teamID string) (map[string]int, error) {
	type row struct {
		PositionClass string
		N             int
	}
	var rows []row
	err := s.db.WithContext(ctx).
		Model(&models.RosterAssignment{}).
		Select("position_class, COUNT(*) AS n").
		Where("league_id = ? AND team_id = ?", leagueID, teamID).
		Group("position_class").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(rows))
	for _, r := range rows {
		out[r.PositionClass] = r.N
	}
	return out, nil
}

func (s *Store) GetTeamSeason(ctx context.Context, leagueID, teamID string) (*models.TeamSeason, error) {
	var item models.TeamSeason
	err := s.db.WithContext(ctx).
		Where("league_id = ? AND team_id = ?", leagueID, teamID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) SumContractAmounts(ctx context.Context, leagueID, teamID string) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := s.db.WithContext(ctx).
		Table("contracts AS c").
		Joins("JOIN roster_assignments AS ra ON ra.player_season_id = c.player_season_id").
		Where("ra.league_id = ? AND ra.team_id = ?", leagueID, teamID).
		Select("SUM(c.amount)").
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

func (s *Store) ListContractsByTeam(ctx context.Context, leagueID, teamID string) ([]models.Contract, error) {
	var items []models.Contract
	err := s.db.WithContext(ctx).
		Table("contracts AS c").
		Joins("JOIN roster_assignments AS ra ON ra.player_season_id = c.player_season_id").
		Where("ra.league_id = ? AND ra.team_id = ?", leagueID, teamID).
		Select("c.*").
		Order("c.id asc").
		Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) IsTeamManager(ctx context.Context, leagueID, teamID, userID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.TeamManager{}).
		Where("league_id = ? AND team_id = ? AND user_id = ?", leagueID, teamID, userID).
		Count(&count).Error
	return count > 0, err
}

func (s *Store) CommitAuctionWin(ctx context.Context, p ledger.CommitParams) (bool, error) {
	committed := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var season models.PlayerSeason
		err := tx.Where("league_id = ? AND player_id = ?", p.LeagueID, p.PlayerID).
			First(&season).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("commit: player season %s/%s not found", p.LeagueID, p.PlayerID)
		}
		if err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&models.RosterAssignment{}).
			Where("player_season_id = ?", season.ID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			// A prior run already committed this outcome.
			return nil
		}

		if err := tx.Create(&models.RosterAssignment{
			PlayerSeasonID: season.ID,
			TeamID:         p.TeamID,
			LeagueID:       p.LeagueID,
			PositionClass:  p.PositionClass,
		}).Error; err != nil {
			return err
		}

		// One contract per player season: update it in place when the player
		// is re-signed, keeping the original contract id stable.
		var contract models.Contract
		err = tx.Where("player_season_id = ?", season.ID).First(&contract).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			contract = models.Contract{
				ID:             p.ContractID,
				PlayerSeasonID: season.ID,
				TeamID:         p.TeamID,
				LeagueID:       p.LeagueID,
				Amount:         p.Amount,
			}
			if err := tx.Create(&contract).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			if err := tx.Model(&contract).Updates(map[string]any{
				"team_id": p.TeamID,
				"amount":  p.Amount,
			}).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&models.PlayerSeason{}).
			Where("id = ?", season.ID).
			Update("in_auction", false).Error; err != nil {
			return err
		}

		committed = true
		return nil
	})
	return committed, err
}

func (s *Store) SaveReconcileRun(ctx context.Context, run *models.ReconcileRun) error {
	if run == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(run).Error
}
