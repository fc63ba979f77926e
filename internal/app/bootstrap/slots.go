package bootstrap

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wolfman30/voice-normalizers/internal/cache"
	appconfig "github.com/wolfman30/voice-normalizers/internal/config"
	"github.com/wolfman30/voice-normalizers/internal/observability/metrics"
	"github.com/wolfman30/voice-normalizers/internal/slots"
	"github.com/wolfman30/voice-normalizers/pkg/logging"
)

// BuildSlotStore returns the configured backend wrapped, innermost first, by
// metrics, retries and the short-lived query cache.
func BuildSlotStore(ctx context.Context, cfg *appconfig.Config, awsCfg aws.Config, c cache.Cache, m *metrics.NormalizerMetrics, logger *logging.Logger) (slots.Store, string, func(), error) {
	if logger == nil {
		logger = logging.Default()
	}
	var (
		store      slots.Store
		collection = cfg.SlotsTable
		cleanup    = func() {}
	)
	switch cfg.SlotStore {
	case "dynamodb":
		store = slots.NewDynamoStore(dynamodb.NewFromConfig(awsCfg), logger)
	case "postgres":
		pool, err := connectPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, "", nil, err
		}
		store = slots.NewPostgresStore(pool)
		// The table name is fixed by the migrations.
		collection = slots.DefaultCollection
		cleanup = pool.Close
	case "memory", "":
		mem := slots.NewMemoryStore()
		n, err := seedMemoryStore(mem, collection, cfg.SlotSeedFile)
		if err != nil {
			return nil, "", nil, err
		}
		logger.Info("in-memory slot store seeded", "slots", n, "file", cfg.SlotSeedFile)
		store = mem
	default:
		return nil, "", nil, fmt.Errorf("bootstrap: unknown slot store %q", cfg.SlotStore)
	}

	if m != nil {
		store = slots.WithMetrics(store, cfg.SlotStore, m)
	}
	store = slots.NewRetryingStore(store, cfg.StoreMaxAttempts, cfg.StoreBaseDelay, logger)
	if c != nil {
		store = slots.NewCachingStore(store, c, slots.DefaultQueryCacheTTL, logger)
	}
	logger.Info("slot store ready", "backend", cfg.SlotStore, "collection", collection)
	return store, collection, cleanup, nil
}

// seedMemoryStore loads a JSON array of slots into mem. An empty path leaves
// the store empty.
func seedMemoryStore(mem *slots.MemoryStore, collection, path string) (int, error) {
	if path == "" {
		return 0, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("bootstrap: read slot seed: %w", err)
	}
	var seed []slots.Slot
	if err := json.Unmarshal(raw, &seed); err != nil {
		return 0, fmt.Errorf("bootstrap: decode slot seed %s: %w", path, err)
	}
	mem.Put(collection, seed...)
	return len(seed), nil
}

func connectPostgresPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("bootstrap: DATABASE_URL is required for the postgres slot store")
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrap: ping postgres: %w", err)
	}
	return pool, nil
}
