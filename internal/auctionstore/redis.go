package auctionstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const (
	auctionKeyPrefix = "fa:auction:"
	tierKeyPrefix    = "fa:tier:"
)

// applyBidScript is the single atomic read-check-write for bids. Running it
// server-side totally orders concurrent bids on one player.
var applyBidScript = redis.NewScript(`
local raw = redis.call('GET', KEYS[1])
if not raw then
  return redis.error_reply('auction_not_found')
end
local rec = cjson.decode(raw)
local now = tonumber(ARGV[4])
if rec.status ~= 'active' or now >= rec.endTimeMs then
  return redis.error_reply('auction_closed')
end
local amount = tonumber(ARGV[3])
if rec.currentBid ~= nil and rec.currentBid ~= '' then
  if amount <= tonumber(rec.currentBid) then
    return redis.error_reply('bid_too_low')
  end
else
  if amount < tonumber(rec.startingAmount) then
    return redis.error_reply('bid_too_low')
  end
end
rec.currentBid = ARGV[3]
rec.currentTeamId = ARGV[1]
rec.currentTeamName = ARGV[2]
local out = cjson.encode(rec)
redis.call('SET', KEYS[1], out)
return out
`)

// seedAuctionScript makes the active-duplicate check and the write one
// atomic step, so concurrent seeds of the same player cannot both land.
var seedAuctionScript = redis.NewScript(`
local raw = redis.call('GET', KEYS[1])
if raw then
  local rec = cjson.decode(raw)
  if rec.status == 'active' then
    return redis.error_reply('already_listed')
  end
end
redis.call('SET', KEYS[1], ARGV[1])
return 'OK'
`)

// finalizeScript flips status to completed without disturbing other fields,
// so a bid racing the flip can never resurrect the record. The TTL bounds
// how long the record lingers if the follow-up delete never arrives.
var finalizeScript = redis.NewScript(`
local raw = redis.call('GET', KEYS[1])
if not raw then
  return 0
end
local rec = cjson.decode(raw)
if rec.status == 'completed' then
  return 0
end
rec.status = 'completed'
redis.call('SET', KEYS[1], cjson.encode(rec))
redis.call('EXPIRE', KEYS[1], tonumber(ARGV[1]))
return 1
`)

// wireRecord is the JSON shape stored in redis. Amounts travel as strings and
// instants as unix milliseconds so the Lua script can compare them.
type wireRecord struct {
	PlayerID        string `json:"playerId"`
	LeagueID        string `json:"leagueId"`
	PlayerName      string `json:"playerName"`
	Position        string `json:"position"`
	TierID          string `json:"tierId"`
	TierName        string `json:"tierName"`
	ContractID      string `json:"contractId"`
	StartingAmount  string `json:"startingAmount"`
	CurrentBid      string `json:"currentBid,omitempty"`
	CurrentTeamID   string `json:"currentTeamId,omitempty"`
	CurrentTeamName string `json:"currentTeamName,omitempty"`
	Status          string `json:"status"`
	StartTimeMs     int64  `json:"startTimeMs"`
	EndTimeMs       int64  `json:"endTimeMs"`
}

type wireTierStatus struct {
	Active      bool  `json:"active"`
	StartTimeMs int64 `json:"startTimeMs"`
	EndTimeMs   int64 `json:"endTimeMs"`
	TierLevel   int   `json:"tierLevel"`
}

func toWire(rec AuctionRecord) wireRecord {
	w := wireRecord{
		PlayerID:        rec.PlayerID,
		LeagueID:        rec.LeagueID,
		PlayerName:      rec.PlayerName,
		Position:        rec.Position,
		TierID:          rec.TierID,
		TierName:        rec.TierName,
		ContractID:      rec.ContractID,
		StartingAmount:  rec.StartingAmount.String(),
		CurrentTeamID:   rec.CurrentTeamID,
		CurrentTeamName: rec.CurrentTeamName,
		Status:          rec.Status,
		StartTimeMs:     rec.StartTime.UnixMilli(),
		EndTimeMs:       rec.EndTime.UnixMilli(),
	}
	if rec.CurrentBid != nil {
		w.CurrentBid = rec.CurrentBid.String()
	}
	return w
}

func fromWire(w wireRecord) (AuctionRecord, error) {
	starting, err := decimal.NewFromString(w.StartingAmount)
	if err != nil {
		return AuctionRecord{}, err
	}
	rec := AuctionRecord{
		PlayerID:        w.PlayerID,
		LeagueID:        w.LeagueID,
		PlayerName:      w.PlayerName,
		Position:        w.Position,
		TierID:          w.TierID,
		TierName:        w.TierName,
		ContractID:      w.ContractID,
		StartingAmount:  starting,
		CurrentTeamID:   w.CurrentTeamID,
		CurrentTeamName: w.CurrentTeamName,
		Status:          w.Status,
		StartTime:       time.UnixMilli(w.StartTimeMs).UTC(),
		EndTime:         time.UnixMilli(w.EndTimeMs).UTC(),
	}
	if w.CurrentBid != "" {
		bid, err := decimal.NewFromString(w.CurrentBid)
		if err != nil {
			return AuctionRecord{}, err
		}
		rec.CurrentBid = &bid
	}
	return rec, nil
}

// Redis implements Store on a redis client.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (s *Redis) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func auctionKey(leagueID, playerID string) string {
	return auctionKeyPrefix + leagueID + ":" + playerID
}

func tierKey(leagueID, tierID string) string {
	return tierKeyPrefix + leagueID + ":" + tierID
}

func (s *Redis) SeedAuction(ctx context.Context, rec AuctionRecord) error {
	raw, err := json.Marshal(toWire(rec))
	if err != nil {
		return err
	}
	key := auctionKey(rec.LeagueID, rec.PlayerID)
	if err := seedAuctionScript.Run(ctx, s.client, []string{key}, raw).Err(); err != nil {
		return mapScriptError(err)
	}
	return nil
}

func (s *Redis) GetAuction(ctx context.Context, leagueID, playerID string) (*AuctionRecord, error) {
	raw, err := s.client.Get(ctx, auctionKey(leagueID, playerID)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var w wireRecord
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	rec, err := fromWire(w)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Redis) ListActiveAuctions(ctx context.Context, leagueID string) ([]AuctionRecord, error) {
	pattern := auctionKeyPrefix + "*"
	if leagueID != "" {
		pattern = auctionKeyPrefix + leagueID + ":*"
	}

	var out []AuctionRecord
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, err
		}
		if len(keys) > 0 {
			values, err := s.client.MGet(ctx, keys...).Result()
			if err != nil {
				return nil, err
			}
			for i, v := range values {
				if v == nil {
					// Deleted between SCAN and MGET.
					continue
				}
				raw, ok := v.(string)
				if !ok {
					return nil, fmt.Errorf("auctionstore: unexpected value type %T at %s", v, keys[i])
				}
				var w wireRecord
				if err := json.Unmarshal([]byte(raw), &w); err != nil {
					return nil, fmt.Errorf("auctionstore: corrupt record at %s: %w", keys[i], err)
				}
				if w.Status != StatusActive {
					continue
				}
				rec, err := fromWire(w)
				if err != nil {
					return nil, fmt.Errorf("auctionstore: corrupt record at %s: %w", keys[i], err)
				}
				out = append(out, rec)
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return out, nil
}

func (s *Redis) ApplyBid(ctx context.Context, leagueID, playerID, teamID, teamName string, amount decimal.Decimal, now time.Time) (*AuctionRecord, error) {
	key := auctionKey(leagueID, playerID)
	raw, err := applyBidScript.Run(ctx, s.client,
		[]string{key},
		teamID, teamName, amount.String(), now.UnixMilli(),
	).Text()
	if err != nil {
		return nil, mapScriptError(err)
	}
	var w wireRecord
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return nil, err
	}
	rec, err := fromWire(w)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func mapScriptError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "already_listed"):
		return ErrAlreadyListed
	case strings.Contains(msg, "auction_not_found"):
		return ErrNotFound
	case strings.Contains(msg, "auction_closed"):
		return ErrAuctionClosed
	case strings.Contains(msg, "bid_too_low"):
		return ErrBidTooLow
	default:
		return err
	}
}

func (s *Redis) Finalize(ctx context.Context, leagueID, playerID string) error {
	ttl := int64(CompletedRecordTTL / time.Second)
	return finalizeScript.Run(ctx, s.client, []string{auctionKey(leagueID, playerID)}, ttl).Err()
}

func (s *Redis) Delete(ctx context.Context, leagueID, playerID string) error {
	return s.client.Del(ctx, auctionKey(leagueID, playerID)).Err()
}

func (s *Redis) SetTierStatus(ctx context.Context, leagueID, tierID string, status TierStatus) error {
	raw, err := json.Marshal(wireTierStatus{
		Active:      status.Active,
		StartTimeMs: status.StartTime.UnixMilli(),
		EndTimeMs:   status.EndTime.UnixMilli(),
		TierLevel:   status.TierLevel,
	})
	if err != nil {
		return err
	}
	return s.client.Set(ctx, tierKey(leagueID, tierID), raw, 0).Err()
}

func (s *Redis) GetTierStatus(ctx context.Context, leagueID, tierID string) (*TierStatus, error) {
	raw, err := s.client.Get(ctx, tierKey(leagueID, tierID)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var w wireTierStatus
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	return &TierStatus{
		Active:    w.Active,
		StartTime: time.UnixMilli(w.StartTimeMs).UTC(),
		EndTime:   time.UnixMilli(w.EndTimeMs).UTC(),
		TierLevel: w.TierLevel,
	}, nil
}
