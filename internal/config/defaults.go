package config

import (
	"wishlist-momentum-lab/internal/identity"
	"wishlist-momentum-lab/internal/momentum"
)

// Default returns the configuration used when no file overrides it.
func Default() Config {
	return Config{
		Storage: Storage{
			Backend:    "sqlite",
			SQLitePath: "momentum.db",
		},
		Identity: Identity{
			Threshold: identity.DefaultThreshold,
			Epsilon:   identity.DefaultEpsilon,
			Scorer:    "levenshtein",
		},
		Growth: Growth{
			Windows:           []string{"3d", "7d"},
			MinMagnitude:      100,
			MinElapsedSeconds: 60,
			UnreleasedOnly:    true,
		},
		Momentum: Momentum{
			PercentileCutoff: momentum.DefaultCutoff,
		},
		Pipeline: Pipeline{
			Platforms:              []string{"steam"},
			Workers:                4,
			PlatformTimeoutSeconds: 600,
			RetryAttempts:          3,
			RetryInitialDelayMs:    1000,
			RunLabel:               "daily",
		},
		Collectors: map[string]Collector{},
		Publish: Publish{
			RedisStream:  "momentum:records",
			RedisChannel: "momentum:published",
			KafkaTopic:   "momentum.records",
		},
		Server: Server{
			Addr:     ":8080",
			Schedule: "0 0 6 * * *",
		},
		Logging: Logging{
			Level:    "info",
			Encoding: "json",
		},
	}
}
