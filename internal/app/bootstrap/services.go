// Package bootstrap wires configuration into the normalizers, the slot
// matcher and the HTTP router. Both cmd/api and its tests build through here.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/voice-normalizers/internal/api/router"
	appconfig "github.com/wolfman30/voice-normalizers/internal/config"
	"github.com/wolfman30/voice-normalizers/internal/dob"
	"github.com/wolfman30/voice-normalizers/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/voice-normalizers/internal/http/middleware"
	"github.com/wolfman30/voice-normalizers/internal/observability/metrics"
	"github.com/wolfman30/voice-normalizers/internal/slots"
	"github.com/wolfman30/voice-normalizers/internal/textnorm"
	"github.com/wolfman30/voice-normalizers/internal/timeparse"
	"github.com/wolfman30/voice-normalizers/internal/vocab"
	"github.com/wolfman30/voice-normalizers/pkg/logging"
)

// App is the assembled service. Close releases every client opened by Build.
type App struct {
	Handler   http.Handler
	Metrics   *metrics.NormalizerMetrics
	SlotStore slots.Store
	closers   []func()
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// Build assembles the enabled services. reg may be nil to use the default
// Prometheus registry.
func Build(ctx context.Context, cfg *appconfig.Config, awsCfg aws.Config, reg *prometheus.Registry, logger *logging.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Default()
	}

	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if reg != nil {
		registerer, gatherer = reg, reg
	}
	app := &App{Metrics: metrics.NewNormalizerMetrics(registerer)}

	ok := false
	defer func() {
		if !ok {
			app.Close()
		}
	}()

	v, err := loadVocabulary(ctx, cfg, awsCfg)
	if err != nil {
		return nil, err
	}
	pre := textnorm.New(v)

	resultCache, closeCache := BuildCache(ctx, cfg, app.Metrics, logger)
	app.closers = append(app.closers, closeCache)

	routerCfg := &router.Config{
		Logger:             logger,
		MetricsHandler:     promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	}
	if cfg.RateLimitRPS > 0 {
		routerCfg.RateLimiter = httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	var (
		timeNormalizer handlers.TimeNormalizer
		dobNormalizer  handlers.DOBNormalizer
	)
	if cfg.Enabled(appconfig.ServiceTime) {
		assistant, closeAssist, err := BuildAssistant(ctx, cfg, awsCfg, logger)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, closeAssist)
		opts := timeparse.Options{Logger: logger}
		if assistant != nil {
			opts.Assistant = assistant
		}
		timeNormalizer = timeparse.NewCachedNormalizer(timeparse.NewNormalizer(pre, opts), resultCache, cfg.CacheTTL, logger)
	}
	if cfg.Enabled(appconfig.ServiceDOB) {
		level, err := dob.ParseLevel(cfg.DOBValidationLevel)
		if err != nil {
			return nil, err
		}
		dobNormalizer = dob.NewCachedNormalizer(dob.NewNormalizer(pre, level, logger), resultCache, cfg.CacheTTL, logger)
	}
	if timeNormalizer != nil || dobNormalizer != nil {
		h := handlers.NewNormalizeHandler(timeNormalizer, dobNormalizer, cfg.DefaultTimezone, app.Metrics, logger)
		if timeNormalizer != nil {
			routerCfg.NormalizeTime = h.NormalizeTime
		}
		if dobNormalizer != nil {
			routerCfg.NormalizeDOB = h.NormalizeDOB
		}
	}

	if cfg.Enabled(appconfig.ServiceSlots) {
		store, collection, closeStore, err := BuildSlotStore(ctx, cfg, awsCfg, resultCache, app.Metrics, logger)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, closeStore)
		app.SlotStore = store

		matcher := slots.NewMatcher(store, slots.MatcherOptions{
			Collection: collection,
			PageSize:   cfg.SlotPageSize,
			Limit:      cfg.SlotResultLimit,
			Logger:     logger,
			Metrics:    app.Metrics,
		})
		if cfg.BlandWebhookSecret == "" && !cfg.SkipSignatureVerification {
			logger.Warn("BLAND_WEBHOOK_SECRET not set; slot webhook signatures are not verified")
		}
		webhook := handlers.NewSlotsWebhookHandler(matcher, handlers.SlotsWebhookConfig{
			Secret:          cfg.BlandWebhookSecret,
			SkipSignature:   cfg.SkipSignatureVerification,
			DefaultTimezone: cfg.DefaultTimezone,
			Logger:          logger,
		})
		routerCfg.SlotsWebhook = webhook.Handle
	}

	app.Handler = router.New(routerCfg)
	logger.Info("services enabled", "services", strings.Join(cfg.Services, ","))
	ok = true
	return app, nil
}

func loadVocabulary(ctx context.Context, cfg *appconfig.Config, awsCfg aws.Config) (*vocab.Vocabulary, error) {
	source := strings.TrimSpace(cfg.VocabularySource)
	if strings.HasPrefix(source, "s3://") {
		return vocab.Load(ctx, source, s3.NewFromConfig(awsCfg))
	}
	return vocab.Load(ctx, source, nil)
}
