package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"freeagency/internal/auctionstore"
	"freeagency/internal/ledger"
	"freeagency/internal/service"
)

type AuctionHandler struct {
	Bids       *service.BidService
	Seeder     *service.Seeder
	Finalizer  *service.Finalizer
	Reconciler *service.Reconciler
	Store      auctionstore.Store
	Ledger     ledger.Ledger
	Logger     *zap.Logger

	AdminToken      string
	SchedulerSecret string
}

func (h *AuctionHandler) Register(r *gin.Engine) {
	g := r.Group("/auctions")
	g.GET("", h.list)
	g.POST("/bid", h.bid)
	g.POST("/seed", RequireAdmin(h.AdminToken), h.seed)
	g.POST("/sweep", RequireSchedulerKey(h.SchedulerSecret), h.sweep)
	g.POST("/reconcile", RequireAdmin(h.AdminToken), h.reconcile)
	g.GET("/diagnostics", RequireAdmin(h.AdminToken), h.diagnostics)
}

type bidRequest struct {
	PlayerID string          `json:"playerId"`
	TeamID   string          `json:"teamId"`
	Amount   decimal.Decimal `json:"amount"`
	LeagueID string          `json:"leagueId"`
}

func (h *AuctionHandler) bid(c *gin.Context) {
	userID := callerUserID(c)
	if userID == "" {
		Error(c, http.StatusUnauthorized, "missing caller identity", nil)
		return
	}
	var req bidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body: "+err.Error(), nil)
		return
	}

	rec, err := h.Bids.PlaceBid(c.Request.Context(), service.PlaceBidInput{
		LeagueID: req.LeagueID,
		PlayerID: req.PlayerID,
		TeamID:   req.TeamID,
		UserID:   userID,
		Amount:   req.Amount,
	})
	if err != nil {
		bidError(c, err)
		return
	}
	Ok(c, rec, nil)
}

// bidError maps the bid taxonomy onto HTTP statuses. State conflicts are
// surfaced verbatim so the client can refresh and retry.
func bidError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, auctionstore.ErrBidTooLow):
		Error(c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, service.ErrNotTeamManager):
		Error(c, http.StatusForbidden, err.Error(), nil)
	case errors.Is(err, auctionstore.ErrNotFound),
		errors.Is(err, service.ErrTeamNotFound):
		Error(c, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, auctionstore.ErrAuctionClosed):
		Error(c, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, service.ErrSalaryCapExceeded),
		errors.Is(err, service.ErrRosterFull):
		Error(c, http.StatusUnprocessableEntity, err.Error(), nil)
	default:
		Error(c, http.StatusBadGateway, err.Error(), nil)
	}
}

func (h *AuctionHandler) list(c *gin.Context) {
	leagueID := strings.TrimSpace(c.Query("leagueId"))
	if leagueID == "" {
		Error(c, http.StatusBadRequest, "leagueId is required", nil)
		return
	}
	records, err := h.Store.ListActiveAuctions(c.Request.Context(), leagueID)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if records == nil {
		records = []auctionstore.AuctionRecord{}
	}

	var meta map[string]any
	if teamID := strings.TrimSpace(c.Query("teamId")); teamID != "" {
		snapshot, err := h.teamSnapshot(c, leagueID, teamID)
		if err != nil {
			Error(c, http.StatusBadGateway, err.Error(), nil)
			return
		}
		if snapshot != nil {
			meta = map[string]any{"team": snapshot}
		}
	}
	Ok(c, records, meta)
}

func (h *AuctionHandler) teamSnapshot(c *gin.Context, leagueID, teamID string) (map[string]any, error) {
	ctx := c.Request.Context()
	team, err := h.Ledger.GetTeamSeason(ctx, leagueID, teamID)
	if err != nil {
		return nil, err
	}
	if team == nil {
		return nil, nil
	}
	committed, err := h.Ledger.SumContractAmounts(ctx, leagueID, teamID)
	if err != nil {
		return nil, err
	}
	slots, err := h.Ledger.CountAssignmentsByClass(ctx, leagueID, teamID)
	if err != nil {
		return nil, err
	}
	contracts, err := h.Ledger.ListContractsByTeam(ctx, leagueID, teamID)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"teamId":    team.TeamID,
		"name":      team.Name,
		"salaryCap": team.SalaryCap,
		"committed": committed,
		"headroom":  team.SalaryCap.Sub(committed),
		"slots":     slots,
		"contracts": contracts,
	}, nil
}

type seedRequest = service.SeedInput

func (h *AuctionHandler) seed(c *gin.Context) {
	var req seedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body: "+err.Error(), nil)
		return
	}
	result, err := h.Seeder.Seed(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			Error(c, http.StatusBadRequest, err.Error(), nil)
			return
		}
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, result, nil)
}

func (h *AuctionHandler) sweep(c *gin.Context) {
	result, err := h.Finalizer.Sweep(c.Request.Context())
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, result, nil)
}

type reconcileRequest struct {
	DryRun bool `json:"dryRun"`
}

func (h *AuctionHandler) reconcile(c *gin.Context) {
	var req reconcileRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			Error(c, http.StatusBadRequest, "invalid body: "+err.Error(), nil)
			return
		}
	}
	report, err := h.Reconciler.Reconcile(c.Request.Context(), req.DryRun)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, report, nil)
}

func (h *AuctionHandler) diagnostics(c *gin.Context) {
	report, err := h.Reconciler.Reconcile(c.Request.Context(), true)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, report, nil)
}
