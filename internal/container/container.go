package container

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"laptops/facetsync/internal/cache"
	"laptops/facetsync/internal/client"
	"laptops/facetsync/internal/config"
	"laptops/facetsync/internal/domain"
	"laptops/facetsync/internal/metrics"
	"laptops/facetsync/internal/orchestrator"
	"laptops/facetsync/internal/repository"
	"laptops/facetsync/internal/service"
	"laptops/facetsync/internal/urlstate"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Container holds all initialized components
type Container struct {
	Config    *config.Config
	Client    client.CatalogClient
	Codec     *urlstate.Codec
	Cache     *cache.QueryCache
	Metrics   *metrics.Metrics
	Registry  *prometheus.Registry
	SearchLog repository.SearchLogRepository

	db    *pgxpool.Pool
	redis *redis.Client
}

// New creates a new container with all dependencies initialized. Redis and
// Postgres are optional and connected in parallel.
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	container := &Container{
		Config:   cfg,
		Registry: prometheus.NewRegistry(),
	}
	container.Metrics = metrics.New(container.Registry)

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Redis.Enabled {
		g.Go(func() error {
			rdb := redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr(),
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.Database,
			})
			container.redis = rdb

			if _, err := rdb.Ping(gctx).Result(); err != nil {
				return fmt.Errorf("failed to connect to Redis: %w", err)
			}
			log.Info("✅ Connected to Redis successfully")
			return nil
		})
	}

	if cfg.Database.Enabled {
		g.Go(func() error {
			db, err := pgxpool.New(gctx, cfg.Database.DSN())
			if err != nil {
				return fmt.Errorf("failed to create database pool: %w", err)
			}
			container.db = db

			searchLog := repository.NewSearchLogRepository(db)
			if err := searchLog.EnsureSchema(gctx); err != nil {
				return err
			}
			container.SearchLog = searchLog
			log.Info("✅ Connected to Postgres successfully")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		container.Close()
		return nil, err
	}

	cacheOpts := []cache.Option{
		cache.WithMetrics(container.Metrics),
		cache.WithGCTime(cfg.Search.GCTimeDuration()),
		cache.WithPrefix(cfg.Redis.KeyPrefix),
	}
	if container.redis != nil {
		cacheOpts = append(cacheOpts, cache.WithStore(cache.NewRedisStore(container.redis)))
	}
	container.Cache = cache.NewQueryCache(cfg.Search.StaleTime(), cacheOpts...)

	container.Codec = urlstate.NewCodec(cfg.Search.DefaultLimit, domain.PriceDefaults{
		Min: cfg.Search.MinPriceDefault,
		Max: cfg.Search.MaxPriceDefault,
	})

	container.Client = client.NewCatalogClient(cfg.Catalog)

	return container, nil
}

// NewSession opens a search session on rawQuery against the shared client and cache.
func (c *Container) NewSession(rawQuery string) *service.Service {
	var recorder service.SearchRecorder
	if c.SearchLog != nil {
		recorder = c.SearchLog
	}

	return service.NewService(
		rawQuery,
		c.Codec,
		c.Client,
		c.Cache,
		recorder,
		orchestrator.WithScope(c.Config.Search.UserID),
		orchestrator.WithMetrics(c.Metrics),
	)
}

// Run opens one session per query and replays actions on each of them concurrently.
func (c *Container) Run(ctx context.Context, queries []string, actions []service.Action) ([]*service.Service, error) {
	if len(queries) == 0 {
		queries = []string{""}
	}

	sessions := make([]*service.Service, len(queries))
	g, ctx := errgroup.WithContext(ctx)

	for i, rawQuery := range queries {
		g.Go(func() error {
			svc := c.NewSession(rawQuery)
			svc.Open(ctx)
			for _, a := range actions {
				if err := ctx.Err(); err != nil {
					return err
				}
				svc.Apply(ctx, a)
			}
			sessions[i] = svc
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// Close performs cleanup when shutting down
func (c *Container) Close() error {
	log.Info("Shutting down container...")

	if c.Client != nil {
		if err := c.Client.Close(); err != nil {
			log.Warnf("Failed to close catalog client: %v", err)
		}
	}
	if c.db != nil {
		c.db.Close()
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			log.Warnf("Failed to close Redis client: %v", err)
		}
	}

	log.Info("Container shut down successfully")
	return nil
}
