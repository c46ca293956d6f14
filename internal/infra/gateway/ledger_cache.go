package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/patrickmn/go-cache"
	"github.com/zeebo/xxh3"

	"github.com/totegamma/craft-nft/internal/domain"
	"github.com/totegamma/craft-nft/internal/usecase"
)

const ledgerCacheTTL = 10 * time.Minute

var _ usecase.Ledger = (*CachedLedger)(nil)

// CachedLedger remembers settled transactions, which never change.
// mc may be nil.
type CachedLedger struct {
	next  usecase.Ledger
	local *cache.Cache
	mc    *memcache.Client
}

func NewCachedLedger(next usecase.Ledger, mc *memcache.Client) *CachedLedger {
	return &CachedLedger{
		next:  next,
		local: cache.New(ledgerCacheTTL, 15*time.Minute),
		mc:    mc,
	}
}

func ledgerCacheKey(signature string) string {
	return domain.LedgerCachePrefix + strconv.FormatUint(xxh3.HashString(signature), 16)
}

func (l *CachedLedger) FetchTransaction(ctx context.Context, signature string) (domain.TransactionRecord, error) {
	if v, ok := l.local.Get(signature); ok {
		return v.(domain.TransactionRecord), nil
	}

	key := ledgerCacheKey(signature)
	if l.mc != nil {
		item, err := l.mc.Get(key)
		if err == nil {
			var record domain.TransactionRecord
			if err := json.Unmarshal(item.Value, &record); err == nil && record.Signature == signature {
				l.local.Set(signature, record, cache.DefaultExpiration)
				return record, nil
			}
		} else if err != memcache.ErrCacheMiss {
			slog.DebugContext(
				ctx, "memcache get failed",
				slog.String("error", err.Error()),
				slog.String("module", "ledger"),
			)
		}
	}

	record, err := l.next.FetchTransaction(ctx, signature)
	if err != nil || !record.Settled() {
		return record, err
	}

	l.local.Set(signature, record, cache.DefaultExpiration)
	if l.mc != nil {
		value, err := json.Marshal(record)
		if err == nil {
			err = l.mc.Set(&memcache.Item{Key: key, Value: value, Expiration: int32(ledgerCacheTTL.Seconds())})
		}
		if err != nil {
			slog.DebugContext(
				ctx, "memcache set failed",
				slog.String("error", err.Error()),
				slog.String("module", "ledger"),
			)
		}
	}

	return record, nil
}
