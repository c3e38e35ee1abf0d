package app

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"wishlist-momentum-lab/internal/collector"
	"wishlist-momentum-lab/internal/config"
	"wishlist-momentum-lab/internal/growth"
	"wishlist-momentum-lab/internal/identity"
	"wishlist-momentum-lab/internal/momentum"
	"wishlist-momentum-lab/internal/observability"
	"wishlist-momentum-lab/internal/orchestrator"
	"wishlist-momentum-lab/internal/publish"
	"wishlist-momentum-lab/internal/storage"
)

// DefaultExportDir holds platform exports without a configured collector.
const DefaultExportDir = "data"

// Collectors builds one retrying collector per configured platform. A
// platform without a [collectors.<platform>] entry reads data/<platform>.csv.
func Collectors(cfg *config.Config, logger *zap.Logger) ([]collector.Collector, error) {
	out := make([]collector.Collector, 0, len(cfg.Pipeline.Platforms))
	for _, p := range cfg.PlatformList() {
		col, ok := cfg.Collectors[p.String()]
		if !ok {
			col = config.Collector{Kind: "csv", Path: filepath.Join(DefaultExportDir, p.String()+".csv")}
		}
		c, err := collector.Build(p, col.Kind, col.Path, logger)
		if err != nil {
			return nil, err
		}
		out = append(out, collector.WithRetry(c, cfg.RetryConfig(), logger))
	}
	return out, nil
}

// NewPublisher connects the configured sinks. It returns nil when none is set.
func NewPublisher(ctx context.Context, cfg config.Publish, logger *zap.Logger) (publish.Publisher, error) {
	var sinks publish.Multi

	if cfg.RedisAddr != "" {
		p, err := publish.NewRedisPublisher(ctx, publish.RedisConfig{
			Addr:    cfg.RedisAddr,
			Stream:  cfg.RedisStream,
			Channel: cfg.RedisChannel,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("connect redis publisher: %w", err)
		}
		sinks = append(sinks, p)
	}

	if len(cfg.KafkaBrokers) > 0 {
		sinks = append(sinks, publish.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger))
	}

	if len(sinks) == 0 {
		return nil, nil
	}
	return sinks, nil
}

// NewOrchestrator assembles the pipeline over stores. pub and metrics may be nil.
func NewOrchestrator(
	cfg *config.Config,
	stores storage.Stores,
	pub publish.Publisher,
	metrics *observability.Metrics,
	logger *zap.Logger,
) (*orchestrator.Orchestrator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	collectors, err := Collectors(cfg, logger)
	if err != nil {
		return nil, err
	}

	scorer, ok := identity.ScorerByName(cfg.Identity.Scorer)
	if !ok {
		return nil, fmt.Errorf("unknown identity scorer %q", cfg.Identity.Scorer)
	}
	registry := identity.NewRegistry(identity.Options{
		Items:           stores.Items,
		Scorer:          scorer,
		Threshold:       cfg.Identity.Threshold,
		Epsilon:         cfg.Identity.Epsilon,
		VariantSuffixes: cfg.Identity.VariantSuffixes,
		Logger:          logger.Named("identity"),
	})

	return orchestrator.New(orchestrator.Options{
		Stores:          stores,
		Collectors:      collectors,
		Registry:        registry,
		Calculator:      growth.NewCalculator(stores.Items, stores.Snapshots, cfg.GrowthParams(), logger.Named("growth")),
		Ranker:          momentum.NewRanker(stores.Momentum, cfg.Momentum.PercentileCutoff, logger.Named("momentum")),
		Windows:         cfg.WindowKinds(),
		Publisher:       pub,
		Workers:         cfg.Pipeline.Workers,
		PlatformTimeout: cfg.PlatformTimeout(),
		UnreleasedOnly:  cfg.Growth.UnreleasedOnly,
		Metrics:         metrics,
		Logger:          logger.Named("orchestrator"),
	}), nil
}
