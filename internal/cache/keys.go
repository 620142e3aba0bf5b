package cache

import (
	"fmt"
	"strings"
	"time"

	"hindsight-api/internal/config"
)

// Namespace is the Redis key prefix for the hindsight application.
const Namespace = "hindsight"

// TTLClass represents a config-driven TTL bucket.
type TTLClass string

const (
	TTLShort  TTLClass = "short"
	TTLMedium TTLClass = "medium"
	TTLLong   TTLClass = "long"
)

// TTLSet normalises cache TTLs from config into time.Duration values.
type TTLSet struct {
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
}

// NewTTLSet converts config TTLs (in seconds) into durations.
func NewTTLSet(cfg config.CacheTTL) TTLSet {
	return TTLSet{
		Short:  durationOrDefault(cfg.Short, 30*time.Second),
		Medium: durationOrDefault(cfg.Medium, 5*time.Minute),
		Long:   durationOrDefault(cfg.Long, time.Hour),
	}
}

func durationOrDefault(seconds int, fallback time.Duration) time.Duration {
	if seconds < 0 {
		return 0
	}
	if seconds == 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

// Duration returns the configured duration for the given TTL class.
func (t TTLSet) Duration(class TTLClass) time.Duration {
	switch class {
	case TTLShort:
		return t.Short
	case TTLMedium:
		return t.Medium
	case TTLLong:
		return t.Long
	default:
		return 0
	}
}

// Scaled applies a multiplier to a TTL class, useful for half/double TTL variants.
func (t TTLSet) Scaled(class TTLClass, factor float64) time.Duration {
	base := t.Duration(class)
	if base <= 0 || factor <= 0 {
		return base
	}
	return time.Duration(float64(base) * factor)
}

func formatKey(parts ...string) string {
	values := make([]string, 0, len(parts)+1)
	values = append(values, Namespace)
	for _, part := range parts {
		clean := strings.TrimSpace(part)
		if clean == "" {
			continue
		}
		values = append(values, clean)
	}
	return strings.Join(values, ":")
}

// --- Coin Listing Keys --------------------------------------------------------

// TopCoinsKey holds the cached top-coins listing for a provider.
func TopCoinsKey(provider string) string {
	return formatKey("coins", "top", provider)
}

// --- Historical Price Keys ----------------------------------------------------

// HistoricalPriceKey stores the reference-date price for a coin. The date part
// uses the provider's DD-MM-YYYY convention so a cached miss and a cached hit
// share the same key shape.
func HistoricalPriceKey(provider, coinID, date string) string {
	return formatKey("price", "historical", provider, coinID, date)
}

// --- Range Series Keys ----------------------------------------------------------

// RangeSeriesKey stores a msgpack-encoded price/market-cap series for a coin
// over a [from,to] unix-second window.
func RangeSeriesKey(provider, coinID string, from, to int64) string {
	return formatKey("series", provider, coinID, fmt.Sprintf("%d-%d", from, to))
}

// --- TTL Helpers ----------------------------------------------------------------

// TopCoinsTTL returns the TTL for cached coin listings.
func TopCoinsTTL(ttl TTLSet) time.Duration {
	return ttl.Duration(TTLMedium)
}

// HistoricalPriceTTL returns the TTL for reference-date prices. Historical
// prices never change once the day has closed, so these live far longer than
// the generic long bucket.
func HistoricalPriceTTL(ttl TTLSet) time.Duration {
	return ttl.Scaled(TTLLong, 12) // target ~12h when long=1h
}

// RangeSeriesTTL returns the TTL for cached chart series payloads.
func RangeSeriesTTL(ttl TTLSet) time.Duration {
	return ttl.Duration(TTLLong)
}

// FormatCacheKey is exported for dynamic key construction when patterns
// are not covered by helpers.
func FormatCacheKey(parts ...string) string {
	return formatKey(parts...)
}

// BuildKeyWithSuffix appends an arbitrary suffix to an existing key.
func BuildKeyWithSuffix(baseKey, suffix string) string {
	if strings.TrimSpace(suffix) == "" {
		return baseKey
	}
	return fmt.Sprintf("%s:%s", baseKey, strings.TrimSpace(suffix))
}

// String renders the TTL set for config summaries.
func (t TTLSet) String() string {
	return fmt.Sprintf("short=%s medium=%s long=%s", t.Short, t.Medium, t.Long)
}
