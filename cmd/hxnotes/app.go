package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/2beens/householdnotes/internal/config"
	"github.com/2beens/householdnotes/internal/identity"
	"github.com/2beens/householdnotes/internal/logging"
	"github.com/2beens/householdnotes/internal/notes"
	"github.com/2beens/householdnotes/internal/notes_sync"
	"github.com/2beens/householdnotes/internal/telemetry/metrics"
	"github.com/2beens/householdnotes/internal/telemetry/tracing"

	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

const hydrateTimeout = 3 * time.Second

// app holds everything one CLI invocation works with.
type app struct {
	cfg      *config.Config
	api      *notes.Api
	syncer   *notes_sync.Syncer
	identity *identity.Store

	out io.Writer
	now func() time.Time

	redisClient  *redis.Client
	otelShutdown func()
	logCloser    io.Closer
}

type appParams struct {
	Environment string
	ConfigPath  string
	Out         io.Writer
}

func newApp(ctx context.Context, params appParams) (*app, error) {
	cfg, err := config.Load(params.Environment, params.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logCloser := logging.Setup(logging.LoggerSetupParams{
		LogFileName:      cfg.LogsPath,
		LogToStdout:      false,
		LogToStderr:      true,
		LogLevel:         cfg.LogLevel,
		LogFormatJSON:    cfg.LogFormatJSON,
		Environment:      cfg.Environment,
		SentryEnabled:    cfg.SentryEnabled,
		SentryDSN:        cfg.SentryDSN,
		SentryServerName: "hxnotes-cli",
	})

	otelShutdown, err := tracing.HoneycombSetup(cfg.HoneycombEnabled, "hxnotes-cli")
	if err != nil {
		return nil, err
	}

	metricsManager := metrics.NewManager("hxnotes", "cli", metrics.NewRegistry())

	a := &app{
		cfg:          cfg,
		out:          params.Out,
		now:          time.Now,
		otelShutdown: otelShutdown,
		logCloser:    logCloser,
	}

	storage, err := a.identityStorage()
	if err != nil {
		otelShutdown()
		_ = logCloser.Close()
		return nil, err
	}

	a.api = notes.NewApi(cfg.ApiUrl, notes.NewTracedHttpClient(cfg.ApiTimeout), metricsManager)
	a.syncer = notes_sync.NewSyncer(a.api, metricsManager)
	a.identity = identity.NewStore(storage, metricsManager)

	hydrateCtx, cancel := context.WithTimeout(ctx, hydrateTimeout)
	defer cancel()
	if err := a.identity.Hydrate(hydrateCtx); err != nil {
		// the store stays usable, the user simply has to pick again
		log.Warnf("could not restore identity: %s", err)
	}

	log.Debugf("notes api: [%s], identity storage: [%s]", a.api.BaseUrl(), cfg.IdentityStorage)

	return a, nil
}

func (a *app) identityStorage() (identity.Storage, error) {
	switch a.cfg.IdentityStorage {
	case config.IdentityStorageFile:
		return identity.NewFileStorage(a.cfg.IdentityFilePath), nil
	case config.IdentityStorageRedis:
		a.redisClient = identity.NewRedisClient(a.cfg.RedisHost, a.cfg.RedisPort, a.cfg.RedisPassword)
		return identity.NewRedisStorage(a.redisClient), nil
	case config.IdentityStorageMemory:
		return identity.NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unknown identity storage: %s", a.cfg.IdentityStorage)
	}
}

// requireAuthor returns the current identity, or an error telling the user to pick one.
func (a *app) requireAuthor() (notes.Author, error) {
	author, ok := a.identity.Author()
	if !ok {
		return "", errNoIdentity
	}
	return author, nil
}

// close flushes pending identity writes and telemetry.
func (a *app) close() {
	a.syncer.Close()
	a.identity.Wait()

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			log.Errorf("close redis client: %s", err)
		}
	}

	a.otelShutdown()
	if a.cfg.SentryEnabled {
		sentry.Flush(2 * time.Second)
	}
	_ = a.logCloser.Close()
}
