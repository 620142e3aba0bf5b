package svc

import (
	"log"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx driver
	gocache "github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/stores/redis"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
	"github.com/zeromicro/go-zero/core/syncx"

	cachekeys "hindsight-api/internal/cache"
	"hindsight-api/internal/config"
	"hindsight-api/internal/dashboard"
	"hindsight-api/internal/model"
	marketpersist "hindsight-api/internal/persistence/market"
	"hindsight-api/pkg/confkit"
	"hindsight-api/pkg/journal"
	marketpkg "hindsight-api/pkg/market"
	"hindsight-api/pkg/market/exchanges/coingecko"
)

type ServiceContext struct {
	Config config.Config

	MarketConfig    *marketpkg.Config
	MarketProviders map[string]marketpkg.Provider
	DefaultMarket   marketpkg.Provider

	Dashboard *dashboard.Dashboard
	Journal   *journal.Writer

	// Optional persistence collaborators, wired when Postgres DSN is set.
	DBConn      sqlx.SqlConn
	Redis       *redis.Redis
	Cache       gocache.Cache
	TTL         cachekeys.TTLSet
	CoinsModel  model.CoinsModel
	PricesModel model.HistoricalPricesModel
	SeriesModel model.RangeSeriesModel
	Persistence marketpkg.Persistence
}

func NewServiceContext(c config.Config, mainConfigPath string) *ServiceContext {
	svc := &ServiceContext{
		Config: c,
		TTL:    cachekeys.NewTTLSet(c.TTL),
	}

	baseDir := confkit.BaseDir(mainConfigPath)

	marketCfg := c.Market.Value
	if marketCfg == nil && c.Market.File != "" {
		loaded, err := marketpkg.LoadConfig(confkit.ResolvePath(baseDir, c.Market.File))
		if err != nil {
			log.Fatalf("failed to load market config: %v", err)
		}
		marketCfg = loaded
	}
	if marketCfg == nil {
		log.Fatalf("market config is required (set Market.File in the main config)")
	}

	providers, err := marketCfg.BuildProviders()
	if err != nil {
		log.Fatalf("failed to build market providers: %v", err)
	}
	svc.MarketConfig = marketCfg
	svc.MarketProviders = providers
	if marketCfg.Default != "" {
		svc.DefaultMarket = providers[marketCfg.Default]
	}
	if svc.DefaultMarket == nil {
		log.Fatalf("default market provider %q not found", marketCfg.Default)
	}

	if c.Dashboard.JournalDir != "" {
		svc.Journal = journal.NewWriter(confkit.ResolvePath(baseDir, c.Dashboard.JournalDir))
	}

	// Only wire Postgres/Redis persistence when a DSN is provided; the
	// in-memory dashboard remains authoritative either way.
	if c.Postgres.DSN != "" {
		conn := sqlx.NewSqlConn("pgx", c.Postgres.DSN)
		svc.DBConn = conn
		svc.CoinsModel = model.NewCoinsModel(conn)
		svc.PricesModel = model.NewHistoricalPricesModel(conn)
		svc.SeriesModel = model.NewRangeSeriesModel(conn)

		if c.Redis.Host != "" {
			rds := redis.MustNewRedis(c.Redis)
			svc.Redis = rds
			svc.Cache = gocache.NewNode(rds, syncx.NewSingleFlight(), gocache.NewStat(cachekeys.Namespace), model.ErrNotFound)
		}

		svc.Persistence = marketpersist.NewService(marketpersist.Config{
			SQLConn:     conn,
			CoinsModel:  svc.CoinsModel,
			PricesModel: svc.PricesModel,
			SeriesModel: svc.SeriesModel,
			Cache:       svc.Cache,
			Redis:       svc.Redis,
			TTL:         svc.TTL,
		})
		if svc.Persistence != nil {
			for _, provider := range providers {
				if gecko, ok := provider.(*coingecko.Provider); ok {
					gecko.AttachPersistence(svc.Persistence)
				}
			}
		}
	}

	opts := []dashboard.Option{
		dashboard.WithStepDelay(time.Duration(c.Dashboard.StepDelaySec) * time.Second),
		dashboard.WithErrorCooldown(time.Duration(c.Dashboard.ErrorCooldownSec) * time.Second),
		dashboard.WithLookback(time.Duration(c.Dashboard.LookbackDays) * 24 * time.Hour),
	}
	if svc.Journal != nil {
		opts = append(opts, dashboard.WithJournal(svc.Journal))
	}
	svc.Dashboard = dashboard.New(svc.DefaultMarket, opts...)

	return svc
}
