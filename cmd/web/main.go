package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/etalage/web/internal/analytics"
	"github.com/etalage/web/internal/cms"
	"github.com/etalage/web/internal/config"
	"github.com/etalage/web/internal/i18n"
	"github.com/etalage/web/internal/metrics"
	mw "github.com/etalage/web/internal/middleware"
	"github.com/etalage/web/internal/observability"
	"github.com/etalage/web/internal/secrets"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := observability.NewLogger(cfg.Server.LogLevel, cfg.Server.DevMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	content, closeContent, err := newContentClient(ctx, cfg, logger, m)
	if err != nil {
		return err
	}
	defer closeContent()
	go invalidateOnHangup(ctx, content, logger)

	bundle, err := i18n.Load(cfg.Paths.Locales, cfg.Site.Locale, cfg.Site.Locales)
	if err != nil {
		return fmt.Errorf("load locales: %w", err)
	}

	hashKey, blockKey, err := resolveSessionKeys(ctx, cfg, logger)
	if err != nil {
		return err
	}
	store := mw.NewStore([]byte(hashKey), []byte(blockKey), cfg.Session.Secure)
	if store.Ephemeral() {
		logger.Warn("ETALAGE_SESSION_HASH_KEY not set; cookies will not survive a restart")
	}

	views, err := newRenderer(cfg.Paths.Templates, cfg.Server.DevMode, bundle)
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}

	publisher, closePublisher, err := newPublisher(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closePublisher()

	a := &app{
		cfg:       cfg,
		logger:    logger,
		content:   content,
		bundle:    bundle,
		store:     store,
		views:     views,
		metrics:   m,
		publisher: publisher,
	}

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           a.routes(),
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	errCh := make(chan error, 1)
	go func() {
		serverLogger.Info("etalage web listening",
			zap.Bool("dev_mode", cfg.Server.DevMode),
			zap.String("analytics_sink", publisher.Name()),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	return nil
}

// invalidateOnHangup drops the content cache on SIGHUP so edits show up
// before the TTL expires.
func invalidateOnHangup(ctx context.Context, content *cms.Client, logger *zap.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			content.Invalidate()
			logger.Info("content cache invalidated")
		}
	}
}

// resolveSessionKeys swaps secret:// references in the session keys for
// their values.
func resolveSessionKeys(ctx context.Context, cfg config.Config, logger *zap.Logger) (string, string, error) {
	if !config.IsSecretRef(cfg.Session.HashKey) && !config.IsSecretRef(cfg.Session.BlockKey) {
		return cfg.Session.HashKey, cfg.Session.BlockKey, nil
	}
	fetcher, err := secrets.NewFetcher(ctx,
		secrets.WithLogger(logger),
		secrets.WithProject(cfg.Secrets.ProjectID),
		secrets.WithFallbackFile(cfg.Secrets.FallbackFile),
	)
	if err != nil {
		return "", "", fmt.Errorf("secrets: %w", err)
	}
	defer func() { _ = fetcher.Close() }()

	hashKey, err := fetcher.Value(ctx, cfg.Session.HashKey)
	if err != nil {
		return "", "", fmt.Errorf("resolve session hash key: %w", err)
	}
	if len(hashKey) < 32 {
		return "", "", errors.New("resolved session hash key must be at least 32 bytes")
	}
	blockKey, err := fetcher.Value(ctx, cfg.Session.BlockKey)
	if err != nil {
		return "", "", fmt.Errorf("resolve session block key: %w", err)
	}
	if !config.ValidBlockKey(blockKey) {
		return "", "", errors.New("resolved session block key must be 16, 24 or 32 bytes")
	}
	return hashKey, blockKey, nil
}

// newContentClient reads from the bucket or the remote CMS first and falls
// back to the local content directory.
func newContentClient(ctx context.Context, cfg config.Config, logger *zap.Logger, m *metrics.Metrics) (*cms.Client, func(), error) {
	var sources []cms.Source
	closeFn := func() {}

	if cfg.Content.GCSBucket != "" {
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("storage client: %w", err)
		}
		closeFn = func() { _ = client.Close() }
		sources = append(sources, cms.NewGCSSource(client, cfg.Content.GCSBucket, cfg.Content.GCSPrefix))
	}
	if cfg.Content.BaseURL != "" {
		sources = append(sources, cms.NewHTTPSource(cfg.Content.BaseURL, &http.Client{Timeout: cfg.Server.RequestTimeout}))
	}
	sources = append(sources, cms.NewDirSource(cfg.Content.Dir))

	opts := []cms.Option{
		cms.WithCacheTTL(cfg.Content.CacheTTL),
		cms.WithLogger(logger),
		cms.WithObserver(m),
	}
	for _, src := range sources[1:] {
		opts = append(opts, cms.WithFallback(src))
	}

	names := make([]string, 0, len(sources))
	for _, src := range sources {
		names = append(names, src.Name())
	}
	logger.Info("content sources configured", zap.Strings("sources", names))
	return cms.NewClient(sources[0], opts...), closeFn, nil
}

// newPublisher selects the analytics sink. The Pub/Sub sink talks to the
// emulator without credentials when an emulator host is configured.
func newPublisher(ctx context.Context, cfg config.Config, logger *zap.Logger) (analytics.Publisher, func(), error) {
	if cfg.Analytics.Sink != config.SinkPubSub {
		return analytics.NewLogPublisher(logger), func() {}, nil
	}

	var opts []option.ClientOption
	if host := cfg.Analytics.PubSubEmuHost; host != "" {
		opts = append(opts,
			option.WithEndpoint(host),
			option.WithoutAuthentication(),
			option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		)
	}
	client, err := pubsub.NewClient(ctx, cfg.Analytics.ProjectID, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("pubsub client: %w", err)
	}
	publisher, err := analytics.NewPubSubPublisher(client.Topic(cfg.Analytics.Topic))
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return publisher, func() {
		publisher.Stop()
		_ = client.Close()
	}, nil
}
