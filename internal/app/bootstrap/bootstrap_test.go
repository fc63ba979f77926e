package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/voice-normalizers/internal/cache"
	appconfig "github.com/wolfman30/voice-normalizers/internal/config"
	"github.com/wolfman30/voice-normalizers/internal/slots"
	"github.com/wolfman30/voice-normalizers/pkg/logging"
)

func testConfig() *appconfig.Config {
	return &appconfig.Config{
		Services:           []string{appconfig.ServiceTime, appconfig.ServiceDOB, appconfig.ServiceSlots},
		DefaultTimezone:    "America/New_York",
		DOBValidationLevel: "standard",
		CacheBackend:       "memory",
		CacheTTL:           time.Minute,
		SlotStore:          "memory",
		SlotsTable:         slots.DefaultCollection,
		SlotPageSize:       20,
		SlotResultLimit:    5,
		StoreMaxAttempts:   1,
		StoreBaseDelay:     time.Millisecond,
		AssistProvider:     "none",
	}
}

func TestBuildRedisClientDisabled(t *testing.T) {
	assert.Nil(t, BuildRedisClient(context.Background(), nil, logging.New("error"), false))
	assert.Nil(t, BuildRedisClient(context.Background(), &appconfig.Config{}, logging.New("error"), false))
}

func TestBuildRedisClientVerify(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &appconfig.Config{RedisAddr: mr.Addr()}

	client := BuildRedisClient(context.Background(), cfg, logging.New("error"), true)
	require.NotNil(t, client)
	t.Cleanup(func() { _ = client.Close() })

	unreachable := &appconfig.Config{RedisAddr: "127.0.0.1:1"}
	assert.Nil(t, BuildRedisClient(context.Background(), unreachable, logging.New("error"), true))
}

func TestBuildCacheBackends(t *testing.T) {
	cfg := testConfig()
	cfg.CacheBackend = "none"
	c, closeFn := BuildCache(context.Background(), cfg, nil, logging.New("error"))
	defer closeFn()
	assert.IsType(t, cache.Nop{}, c)

	cfg.CacheBackend = "memory"
	c, closeFn = BuildCache(context.Background(), cfg, nil, logging.New("error"))
	defer closeFn()
	assert.IsType(t, &cache.MemoryCache{}, c)

	mr := miniredis.RunT(t)
	cfg.CacheBackend = "redis"
	cfg.RedisAddr = mr.Addr()
	c, closeFn = BuildCache(context.Background(), cfg, nil, logging.New("error"))
	defer closeFn()
	assert.IsType(t, &cache.RedisCache{}, c)

	cfg.RedisAddr = "127.0.0.1:1"
	c, closeFn = BuildCache(context.Background(), cfg, nil, logging.New("error"))
	defer closeFn()
	assert.IsType(t, &cache.MemoryCache{}, c, "unreachable redis falls back to memory")
}

func TestBuildAssistantNone(t *testing.T) {
	a, closeFn, err := BuildAssistant(context.Background(), testConfig(), aws.Config{}, logging.New("error"))
	require.NoError(t, err)
	assert.Nil(t, a)
	closeFn()

	_, _, err = BuildAssistant(context.Background(), nil, aws.Config{}, logging.New("error"))
	assert.Error(t, err)
}

func TestBuildAssistantBedrock(t *testing.T) {
	cfg := testConfig()
	cfg.AssistProvider = "bedrock"
	cfg.BedrockModelID = "anthropic.test-model"

	a, closeFn, err := BuildAssistant(context.Background(), cfg, aws.Config{Region: "us-east-1"}, logging.New("error"))
	require.NoError(t, err)
	assert.NotNil(t, a)
	closeFn()
}

func TestBuildSlotStorePostgresRequiresURL(t *testing.T) {
	cfg := testConfig()
	cfg.SlotStore = "postgres"
	_, _, _, err := BuildSlotStore(context.Background(), cfg, aws.Config{}, nil, nil, logging.New("error"))
	assert.Error(t, err)
}

func TestBuildSlotStoreSeedsMemory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slots.json")
	seed := `[{"date":"2099-01-02","time":"9:00 AM","state":"NY","provider":"Dr. Lee","provider_id":"p1","available":true}]`
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o600))

	cfg := testConfig()
	cfg.SlotSeedFile = path
	store, collection, closeFn, err := BuildSlotStore(context.Background(), cfg, aws.Config{}, nil, nil, logging.New("error"))
	require.NoError(t, err)
	defer closeFn()

	got, err := store.Query(context.Background(), collection, []slots.Filter{{Field: slots.FieldState, Op: slots.OpEq, Value: "NY"}}, nil, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "p1", got[0].ProviderID)

	cfg.SlotSeedFile = filepath.Join(t.TempDir(), "missing.json")
	_, _, _, err = BuildSlotStore(context.Background(), cfg, aws.Config{}, nil, nil, logging.New("error"))
	assert.Error(t, err)
}

func TestBuildServesAllRoutes(t *testing.T) {
	app, err := Build(context.Background(), testConfig(), aws.Config{}, prometheus.NewRegistry(), logging.New("error"))
	require.NoError(t, err)
	t.Cleanup(app.Close)

	cases := []struct {
		path   string
		body   string
		status int
	}{
		{"/normalize/time", `{"data":{"datetime_request":"tomorrow morning"}}`, http.StatusOK},
		{"/normalize/dob", `{"raw_dob":"01/15/1980"}`, http.StatusOK},
		{"/webhooks/slots", `{"data":{"state":"NY"}}`, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tc.path, strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			rr := httptest.NewRecorder()
			app.Handler.ServeHTTP(rr, req)
			assert.Equal(t, tc.status, rr.Code, rr.Body.String())
		})
	}

	rr := httptest.NewRecorder()
	app.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "voice_normalizer_results_total")
}

func TestBuildSkipsDisabledServices(t *testing.T) {
	cfg := testConfig()
	cfg.Services = []string{appconfig.ServiceDOB}

	app, err := Build(context.Background(), cfg, aws.Config{}, prometheus.NewRegistry(), logging.New("error"))
	require.NoError(t, err)
	t.Cleanup(app.Close)
	assert.Nil(t, app.SlotStore)

	req := httptest.NewRequest(http.MethodPost, "/normalize/time", strings.NewReader(`{"data":{"datetime_request":"today"}}`))
	rr := httptest.NewRecorder()
	app.Handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.DOBValidationLevel = "lenient"
	_, err := Build(context.Background(), cfg, aws.Config{}, prometheus.NewRegistry(), logging.New("error"))
	assert.Error(t, err)
}
